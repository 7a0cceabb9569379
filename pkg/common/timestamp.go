package common

import (
	"time"
)

// Timestamp is a [seconds, nanoseconds] pair as stored in index entries.
// Both halves are 32-bit, so times past 2106 wrap.
type Timestamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// NewTimestamp creates a Timestamp from a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{
		Seconds:     uint32(t.Unix()),
		Nanoseconds: uint32(t.Nanosecond()),
	}
}

// Time converts the Timestamp to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t.Seconds), int64(t.Nanoseconds)).UTC()
}

// IsZero returns true if the timestamp is zero.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Nanoseconds == 0
}

// String returns a human-readable representation.
func (t Timestamp) String() string {
	if t.IsZero() {
		return "0"
	}
	return t.Time().Format(time.RFC3339)
}
