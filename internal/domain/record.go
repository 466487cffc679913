package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RecordType identifies the entity tables mirrored from the remote system.
type RecordType string

const (
	RecordTypeCase            RecordType = "case"
	RecordTypeDecision        RecordType = "decision"
	RecordTypeMeeting         RecordType = "meeting"
	RecordTypeOrganization    RecordType = "organization"
	RecordTypeTrustee         RecordType = "trustee"
	RecordTypePositionOfTrust RecordType = "position_of_trust"
)

// Case represents a mirrored case (diary entry) record.
type Case struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	NativeID    string      `gorm:"type:text;not null;uniqueIndex:idx_cases_native" json:"native_id"`
	DiaryNumber string      `gorm:"type:text;index:idx_cases_diary" json:"diary_number"`
	Title       string      `gorm:"type:text" json:"title"`
	Records     JSONMapList `gorm:"type:text" json:"records"`
	Payload     JSONMap     `gorm:"type:text" json:"payload"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Case) TableName() string {
	return "cases"
}

// AgendaItem is one agenda entry of a meeting, kept as the upstream returns it.
type AgendaItem struct {
	NativeID   string `json:"native_id"`
	Title      string `json:"title"`
	Language   string `json:"language"`
	RecordKind string `json:"record_kind"`
	Section    string `json:"section"`
}

// AgendaItems stores a meeting agenda as JSON in the database.
type AgendaItems []AgendaItem

// Value implements the driver.Valuer interface for database serialization.
func (a AgendaItems) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *AgendaItems) Scan(value interface{}) error {
	if value == nil {
		*a = AgendaItems{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan AgendaItems")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Meeting represents a mirrored policymaker meeting.
type Meeting struct {
	ID               string      `gorm:"type:text;primaryKey" json:"id"`
	NativeID         string      `gorm:"type:text;not null;uniqueIndex:idx_meetings_native" json:"native_id"`
	PolicymakerID    string      `gorm:"type:text;index:idx_meetings_policymaker" json:"policymaker_id"`
	Date             *time.Time  `json:"date,omitempty"`
	Sequence         int         `gorm:"default:0" json:"sequence"`
	AgendaPublished  bool        `gorm:"default:false" json:"agenda_published"`
	MinutesPublished bool        `gorm:"default:false" json:"minutes_published"`
	Agenda           AgendaItems `gorm:"type:text" json:"agenda"`
	Payload          JSONMap     `gorm:"type:text" json:"payload"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// Organization represents a mirrored decision-making organization.
type Organization struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	NativeID  string    `gorm:"type:text;not null;uniqueIndex:idx_orgs_native" json:"native_id"`
	Name      string    `gorm:"type:text" json:"name"`
	Payload   JSONMap   `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Trustee represents a mirrored elected official.
type Trustee struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	NativeID  string    `gorm:"type:text;not null;uniqueIndex:idx_trustees_native" json:"native_id"`
	Name      string    `gorm:"type:text" json:"name"`
	Payload   JSONMap   `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Trustee) TableName() string {
	return "trustees"
}

// PositionOfTrust represents a mirrored position-of-trust assignment.
type PositionOfTrust struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	NativeID  string    `gorm:"type:text;not null;uniqueIndex:idx_positions_native" json:"native_id"`
	TrusteeID string    `gorm:"type:text;index:idx_positions_trustee" json:"trustee_id"`
	Title     string    `gorm:"type:text" json:"title"`
	Payload   JSONMap   `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PositionOfTrust) TableName() string {
	return "positions_of_trust"
}
