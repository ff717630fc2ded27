// Package timefmt provides the timestamp representation used by all
// gridt JSON payloads: ISO-8601 with a numeric offset and a space
// separator, e.g. "2023-02-25 16:30:00+00:00".
package timefmt

import (
	"fmt"
	"time"
)

// Layout is the wire format for timestamps.
const Layout = "2006-01-02 15:04:05-07:00"

// Timestamp wraps time.Time with the gridt wire serialization.
type Timestamp struct {
	time.Time
}

// New builds a Timestamp from a time.Time.
func New(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// NewPtr builds a *Timestamp from a *time.Time, preserving nil.
func NewPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := New(*t)
	return &ts
}

// String renders the timestamp in the wire format.
func (t Timestamp) String() string {
	return t.Format(Layout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timefmt: invalid timestamp %s", data)
	}
	parsed, err := time.Parse(Layout, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("timefmt: %w", err)
	}
	t.Time = parsed
	return nil
}
