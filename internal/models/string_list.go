package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is a multi-valued text field persisted as a single column.
// Writes always produce the canonical JSON array form. Reads tolerate the
// encodings found in legacy rows: a JSON array, a JSON-encoded string (which
// may itself wrap an array), a comma-separated string, or a bare scalar.
// Rewriting a row persists the canonical form, so legacy encodings disappear
// as records are edited.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
	case []byte:
		*l = decodeList(string(v))
	case string:
		*l = decodeList(v)
	default:
		return fmt.Errorf("StringList: cannot scan %T", src)
	}
	return nil
}

func decodeList(raw string) StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "[]" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out
		}
		// Mixed-type array: stringify each element.
		var anys []interface{}
		if err := json.Unmarshal([]byte(raw), &anys); err == nil {
			out = make([]string, 0, len(anys))
			for _, a := range anys {
				out = append(out, fmt.Sprint(a))
			}
			return out
		}
	}

	if strings.HasPrefix(raw, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err == nil {
			return decodeList(inner)
		}
	}

	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		out := make(StringList, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	return StringList{raw}
}

// UnmarshalJSON accepts either an array of strings or a single string, so
// clients may send `"value"` where `["value"]` is meant.
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var out []string
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*l = nil
		return nil
	}
	*l = StringList{single}
	return nil
}
