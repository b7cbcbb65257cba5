package model

import (
	"encoding/json"
	"strings"
)

// Answer holds the farmer's chosen option(s) or free text.
// On the wire it is either a string or an array of strings.
type Answer []string

// UnmarshalJSON accepts a string, an array of strings, or null
func (a *Answer) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*a = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Answer{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*a = Answer(many)
		return nil
	}
	// Anything else (numbers, objects) is treated as no answer
	*a = nil
	return nil
}

// MarshalJSON writes a single answer as a plain string
func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Text joins all parts of the answer
func (a Answer) Text() string {
	return strings.Join(a, ", ")
}

// IsEmpty reports whether every part is blank
func (a Answer) IsEmpty() bool {
	for _, s := range a {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// ParseAnswer decodes a form value that may itself be a JSON array
func ParseAnswer(raw string) Answer {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var many []string
		if err := json.Unmarshal([]byte(raw), &many); err == nil {
			return Answer(many)
		}
	}
	return Answer{raw}
}
