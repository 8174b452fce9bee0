package model

import (
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
)

// Timestamp is a creation or update time read from stored JSON.
// Values that cannot be parsed decode into an invalid Timestamp instead of
// failing the whole collection.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// At returns a valid Timestamp for t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC(), Valid: true}
}

// Or returns the timestamp's time, or fallback when it is invalid.
func (ts Timestamp) Or(fallback time.Time) time.Time {
	if !ts.Valid {
		return fallback
	}
	return ts.Time
}

// MarshalJSON writes RFC 3339 with millisecond precision, or null when invalid.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// UnmarshalJSON accepts any string dateparse understands and epoch milliseconds.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		t, err := dateparse.ParseAny(v)
		if err != nil {
			return nil
		}
		*ts = At(t)
	case float64:
		*ts = At(time.UnixMilli(int64(v)))
	}
	return nil
}
