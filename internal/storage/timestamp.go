package storage

import (
	"fmt"
	"time"
)

// timestampLayouts are the text forms a driver may hand back for a
// timestamp column, most notably SQLite aggregates that lose the column's
// declared type.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp converts a scanned driver value to a UTC time.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimestampText(t)
	case []byte:
		return parseTimestampText(string(t))
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp value type %T", v)
}

func parseTimestampText(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// dbTime scans any driver representation of a timestamp.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	parsed, err := parseTimestamp(src)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
