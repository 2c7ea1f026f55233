package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawValue is an optional scalar whose type is not known in advance.  The
// order store keeps quantities as text and API clients send numbers,
// strings or null, so everything is kept as text plus a "was it set" flag
// and interpreted in one place by the normalizer.
type RawValue struct {
	Text string
	Set  bool
}

// Raw returns a set RawValue holding s.
func Raw(s string) RawValue { return RawValue{Text: s, Set: true} }

// RawInt returns a set RawValue holding the decimal form of n.
func RawInt(n int) RawValue { return RawValue{Text: strconv.Itoa(n), Set: true} }

// Unset is the absent value.
var Unset = RawValue{}

// String returns the text, or "" when unset.
func (v RawValue) String() string {
	if !v.Set {
		return ""
	}
	return v.Text
}

// UnmarshalJSON accepts a number, string, boolean or null.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Unset
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Raw(s)
	case '{', '[':
		return fmt.Errorf("raw value: expected scalar, got %s", string(b[:1]))
	default:
		// numbers and booleans keep their literal form
		*v = Raw(string(b))
	}
	return nil
}

// MarshalJSON writes the text as a JSON string, or null when unset.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}
