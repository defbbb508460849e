package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Size is a product size that is either numeric (10, 10.5) or textual
// ("M", "10"). The kind survives encoding, and two sizes are only equal when
// both kind and value match, so numeric 10 and textual "10" are distinct
// variants. The zero value means no size was chosen.
type Size struct {
	value   string
	numeric bool
	set     bool
}

// NumberSize returns a numeric size.
func NumberSize(n float64) Size {
	return Size{value: strconv.FormatFloat(n, 'f', -1, 64), numeric: true, set: true}
}

// TextSize returns a textual size.
func TextSize(s string) Size {
	return Size{value: s, set: true}
}

func (s Size) IsZero() bool   { return !s.set }
func (s Size) IsNumber() bool { return s.numeric }

// String renders the size the way it is sent to the order API: numbers in
// their shortest decimal form, text unchanged.
func (s Size) String() string { return s.value }

// Equal is kind-sensitive equality.
func (s Size) Equal(o Size) bool {
	return s.set == o.set && s.numeric == o.numeric && s.value == o.value
}

func (s Size) MarshalJSON() ([]byte, error) {
	switch {
	case !s.set:
		return []byte("null"), nil
	case s.numeric:
		return []byte(s.value), nil
	default:
		return json.Marshal(s.value)
	}
}

func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Size{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("decode size: %w", err)
		}
		*s = TextSize(text)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("size must be a number or a string, got %s", data)
	}
	*s = NumberSize(n)
	return nil
}
