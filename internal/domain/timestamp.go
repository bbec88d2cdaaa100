package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// localDateTimeLayouts are the encodings the backend uses for timestamps.
// The backend serialises zone-less local date-times; RFC 3339 is accepted
// as well so fixtures and proxies that normalise timestamps still decode.
var localDateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Timestamp is a point in time as reported by the backend.
// A zero Timestamp encodes to JSON null.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalised to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses any of the layouts the backend emits.
// Zone-less values are interpreted as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range localDateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidFormat, s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: timestamp must be a string", ErrInvalidFormat)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
