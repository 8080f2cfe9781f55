package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JSONTime is a timestamp column that the admin console may send in several
// shapes. It is stored as TIMESTAMPTZ and always emitted as RFC3339.
type JSONTime time.Time

// Accepted input layouts, tried in order. The zone-less layout takes any
// fractional precision (or none) and is read as UTC.
var jsonTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

func parseJSONTime(s string) (time.Time, error) {
	for _, layout := range jsonTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (jt *JSONTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*jt = JSONTime(time.Time{})
		return nil
	}
	t, err := parseJSONTime(s)
	if err != nil {
		return fmt.Errorf("JSONTime: %w", err)
	}
	*jt = JSONTime(t)
	return nil
}

func (jt JSONTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(jt).Format(time.RFC3339))
}

// Value implements driver.Valuer.
func (jt JSONTime) Value() (driver.Value, error) {
	return time.Time(jt), nil
}

// Scan implements sql.Scanner. Some drivers hand back text instead of a time.
func (jt *JSONTime) Scan(src any) error {
	var (
		t   time.Time
		err error
	)
	switch v := src.(type) {
	case nil:
	case time.Time:
		t = v
	case []byte:
		t, err = parseJSONTime(string(v))
	case string:
		t, err = parseJSONTime(v)
	default:
		err = fmt.Errorf("unsupported type %T", src)
	}
	if err != nil {
		return fmt.Errorf("JSONTime scan: %w", err)
	}
	*jt = JSONTime(t)
	return nil
}
