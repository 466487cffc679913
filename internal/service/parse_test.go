package service

import (
	"testing"
	"time"

	"github.com/ossih/casemirror/internal/domain"
)

// TestItemID verifies preferred keys win over the shared fallback order and
// numeric IDs are stringified
func TestItemID(t *testing.T) {
	testCases := []struct {
		name      string
		item      domain.JSONMap
		preferred []string
		want      string
	}{
		{
			name:      "preferred key first",
			item:      domain.JSONMap{"CaseID": "C1", "id": "X9"},
			preferred: []string{"CaseID"},
			want:      "C1",
		},
		{
			name:      "preferred key absent, fallback applies",
			item:      domain.JSONMap{"MeetingID": "M5"},
			preferred: []string{"DecisionID"},
			want:      "M5",
		},
		{
			name: "numeric id stringified",
			item: domain.JSONMap{"id": float64(42)},
			want: "42",
		},
		{
			name: "empty string skipped",
			item: domain.JSONMap{"CaseID": "", "id": "X9"},
			want: "X9",
		},
		{
			name: "no usable key",
			item: domain.JSONMap{"Title": "something"},
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := itemID(tc.item, tc.preferred...); got != tc.want {
				t.Errorf("itemID() = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestListItems verifies list extraction tolerates missing and malformed keys
func TestListItems(t *testing.T) {
	payload := domain.JSONMap{
		"cases": []interface{}{
			map[string]interface{}{"CaseID": "C1"},
			"not an object",
			map[string]interface{}{"CaseID": "C2"},
		},
		"count": float64(2),
	}

	items := listItems(payload, "cases")
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].String("CaseID") != "C1" || items[1].String("CaseID") != "C2" {
		t.Errorf("unexpected items: %v", items)
	}

	if got := listItems(payload, "meetings"); got != nil {
		t.Errorf("missing key yielded %v, want nil", got)
	}
	if got := listItems(domain.JSONMap{"cases": "oops"}, "cases"); got != nil {
		t.Errorf("malformed list yielded %v, want nil", got)
	}
}

// TestParseTime verifies the observed upstream timestamp layouts
func TestParseTime(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{
			name:  "local datetime",
			input: "2023-05-10T12:30:00",
			want:  timePtr(time.Date(2023, 5, 10, 12, 30, 0, 0, time.UTC)),
		},
		{
			name:  "date only",
			input: "2023-05-10",
			want:  timePtr(time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "malformed",
			input: "10.5.2023",
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseTime(tc.input)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("parseTime(%q) = %v, want %v", tc.input, got, tc.want)
			}
			if got != nil && !got.Equal(*tc.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// TestNumericSection verifies section markers compare in digits-only form
func TestNumericSection(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"123", "123"},
		{"§ 123", "123"},
		{"§123", "123"},
		{"Pykälä 45", "45"},
		{"no digits", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := numericSection(tc.input); got != tc.want {
			t.Errorf("numericSection(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// TestAsStrings verifies attachment list flattening for string and object
// members
func TestAsStrings(t *testing.T) {
	input := []interface{}{
		"https://example.org/a.pdf",
		map[string]interface{}{"URL": "https://example.org/b.pdf", "Title": "ignored"},
		map[string]interface{}{"Title": "Liite 3"},
		map[string]interface{}{"Size": float64(100)},
		float64(7),
	}

	got := asStrings(input)
	want := []string{"https://example.org/a.pdf", "https://example.org/b.pdf", "Liite 3"}
	if len(got) != len(want) {
		t.Fatalf("asStrings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("asStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
