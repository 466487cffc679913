package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/ossih/casemirror/internal/domain"
)

// idKeys are tried in order when a collection item does not name its ID key
// explicitly. The upstream is inconsistent across entity types.
var idKeys = []string{"CaseID", "MeetingID", "DecisionID", "NativeId", "NativeID", "id", "ID"}

// itemID extracts the remote-assigned ID from a collection item, trying the
// handler-preferred keys first. Returns "" when no key resolves.
func itemID(item domain.JSONMap, preferred ...string) string {
	for _, key := range append(preferred, idKeys...) {
		if v, ok := item[key]; ok {
			switch id := v.(type) {
			case string:
				if id != "" {
					return id
				}
			case float64:
				return strconv.FormatFloat(id, 'f', -1, 64)
			}
		}
	}
	return ""
}

// listItems extracts the canonical item list under the entity type's list
// key. Missing or malformed lists yield nil.
func listItems(payload domain.JSONMap, listKey string) []domain.JSONMap {
	raw, ok := payload[listKey]
	if !ok {
		return nil
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	items := make([]domain.JSONMap, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]interface{}); ok {
			items = append(items, domain.JSONMap(m))
		}
	}
	return items
}

// timeLayouts the upstream has been observed to emit.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// parseTime parses an upstream timestamp, or nil when absent or malformed.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// asInt coerces the numeric shapes JSON decoding produces.
func asInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

// asBool coerces the boolean shapes JSON decoding produces.
func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	case float64:
		return b != 0
	default:
		return false
	}
}

// asStrings flattens a JSON list into its string members, pulling the
// "Title" or "URL" field out of object members.
func asStrings(v interface{}) []string {
	entries, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			out = append(out, e)
		case map[string]interface{}:
			if s, ok := e["URL"].(string); ok && s != "" {
				out = append(out, s)
			} else if s, ok := e["Title"].(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// numericSection strips everything but digits from a section marker, so
// "§ 123" and "123" compare equal. Returns "" when no digits remain.
func numericSection(section string) string {
	var b strings.Builder
	for _, r := range section {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
