package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexAmount is a nullable money value for request payloads. It accepts a
// JSON number, a numeric string, an empty string or null; empty string and
// null both mean "absent", never zero.
type FlexAmount struct {
	Val float64
	Set bool
}

func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*a = FlexAmount{}
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = FlexAmount{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		*a = FlexAmount{Val: f, Set: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = FlexAmount{Val: f, Set: true}
	return nil
}

// Ptr returns the value rounded to 2 decimals, or nil when absent.
func (a FlexAmount) Ptr() *float64 {
	if !a.Set {
		return nil
	}
	v := math.Round(a.Val*100) / 100
	return &v
}

// FlexBool accepts a JSON bool or the strings "true"/"false"/"" and renders
// the bool-as-string flag the store uses.
type FlexBool struct {
	Val bool
	Set bool
}

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*b = FlexBool{}
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "":
			*b = FlexBool{}
		case "true":
			*b = FlexBool{Val: true, Set: true}
		case "false":
			*b = FlexBool{Val: false, Set: true}
		default:
			return fmt.Errorf("invalid boolean %q", s)
		}
		return nil
	}

	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FlexBool{Val: v, Set: true}
	return nil
}

// Flag returns "true"/"false", or def when the field was absent.
func (b FlexBool) Flag(def string) string {
	if !b.Set {
		return def
	}
	if b.Val {
		return "true"
	}
	return "false"
}
