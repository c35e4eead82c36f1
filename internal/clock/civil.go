package clock

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const isoDateLayout = "2006-01-02"

// Date is a calendar date without a time zone. The zero value means "not set"
// and maps to SQL NULL.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate reads an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

func (d Date) Format(layout string) string { return d.t.Format(layout) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(isoDateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ScanDate implements pgtype.DateScanner.
func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		*d = Date{}
		return nil
	}
	if v.InfinityModifier != pgtype.Finite {
		return fmt.Errorf("cannot scan infinite date")
	}
	*d = DateOf(v.Time)
	return nil
}

// DateValue implements pgtype.DateValuer.
func (d Date) DateValue() (pgtype.Date, error) {
	if d.IsZero() {
		return pgtype.Date{}, nil
	}
	return pgtype.Date{Time: d.t, Valid: true}, nil
}

// TimeOfDay is a wall-clock time with second precision. The zero value means
// "not set" and maps to SQL NULL; midnight is a valid, set value.
type TimeOfDay struct {
	sinceMidnight time.Duration
	valid         bool
}

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay{
		sinceMidnight: time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second,
		valid:         true,
	}
}

// TimeOfDayOf returns the wall-clock time of t truncated to seconds.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay accepts HH:mm:ss and HH:mm.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("parse time of day %q", s)
}

func (t TimeOfDay) IsZero() bool { return !t.valid }

func (t TimeOfDay) Hour() int { return int(t.sinceMidnight / time.Hour) }

func (t TimeOfDay) Minute() int { return int(t.sinceMidnight % time.Hour / time.Minute) }

func (t TimeOfDay) Second() int { return int(t.sinceMidnight % time.Minute / time.Second) }

func (t TimeOfDay) String() string {
	if !t.valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if !t.valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TimeOfDay{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScanTime implements pgtype.TimeScanner.
func (t *TimeOfDay) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		*t = TimeOfDay{}
		return nil
	}
	d := time.Duration(v.Microseconds) * time.Microsecond
	*t = TimeOfDay{sinceMidnight: d.Truncate(time.Second), valid: true}
	return nil
}

// TimeValue implements pgtype.TimeValuer.
func (t TimeOfDay) TimeValue() (pgtype.Time, error) {
	if !t.valid {
		return pgtype.Time{}, nil
	}
	return pgtype.Time{Microseconds: t.sinceMidnight.Microseconds(), Valid: true}, nil
}
