package srstore

import "encoding/json"

// marshalJSON encodes a value for a nullable JSON column. Nil or empty
// slices store as NULL so absence round-trips as absence.
func marshalJSON(v any) any {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil
		}
	case []Choice:
		if len(t) == 0 {
			return nil
		}
	case nil:
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}

// rawJSON passes a caller-opaque blob through to a nullable column.
func rawJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// parseRaw returns the stored blob, or nil when the column was NULL or
// holds text that is not valid JSON (malformed rows are skipped, not fatal).
func parseRaw(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return nil
	}
	if !json.Valid([]byte(*s)) {
		return nil
	}
	return json.RawMessage(*s)
}
