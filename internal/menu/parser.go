package menu

import (
	"encoding/json"
	"fmt"
)

// ParseError means the model's reply did not contain a usable JSON
// object. RawText keeps the full reply so a malformed response can be
// diagnosed by hand.
type ParseError struct {
	RawText string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse menu data: %s", e.Reason)
}

// ExtractJSONObject finds the first balanced top-level {...} span in the
// model's reply. The model is expected to wrap its JSON in prose or
// markdown fences, so anything before and after the object is tolerated;
// malformed JSON inside the object is not.
func ExtractJSONObject(raw string) (string, error) {
	start := -1
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return "", &ParseError{RawText: raw, Reason: "no JSON object found in model response"}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", &ParseError{RawText: raw, Reason: "unterminated JSON object in model response"}
}

// ParseMenu extracts and deserializes the menu from the model's raw text
// reply, then stamps item ids. Any failure is terminal for the request.
func ParseMenu(raw string) (Menu, error) {
	span, err := ExtractJSONObject(raw)
	if err != nil {
		return Menu{}, err
	}

	var m Menu
	if err := json.Unmarshal([]byte(span), &m); err != nil {
		return Menu{}, &ParseError{RawText: raw, Reason: fmt.Sprintf("invalid JSON in model response: %v", err)}
	}

	m.StampItemIDs()
	return m, nil
}
