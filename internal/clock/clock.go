package clock

import "time"

const (
	// DateLayout is the canonical display form of a date, dd/MM/yyyy.
	DateLayout = "02/01/2006"
	// TimeLayout is the canonical display form of a time of day; ParseTimeOfDay reads it back.
	TimeLayout = "15:04:05"
)

// Provider supplies the current date and time and renders them in canonical form.
type Provider interface {
	Now() time.Time
	CurrentDate() Date
	CurrentTimeFormatted() string
	FormattedDate(d Date) string
	FormattedTime(t TimeOfDay) string
}

type formatter struct{}

func (formatter) FormattedDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (formatter) FormattedTime(t TimeOfDay) string {
	if t.IsZero() {
		return ""
	}
	return t.String()
}

type systemClock struct {
	formatter
	loc *time.Location
}

// NewSystem returns a provider backed by time.Now in loc. A nil loc means UTC.
func NewSystem(loc *time.Location) Provider {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) CurrentDate() Date {
	return DateOf(c.Now())
}

func (c systemClock) CurrentTimeFormatted() string {
	return c.Now().Format(TimeLayout)
}

type fixedClock struct {
	formatter
	now time.Time
}

// NewFixed returns a provider that always reports the same instant (useful for tests).
func NewFixed(t time.Time) Provider {
	return fixedClock{now: t}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func (f fixedClock) CurrentDate() Date {
	return DateOf(f.now)
}

func (f fixedClock) CurrentTimeFormatted() string {
	return f.now.Format(TimeLayout)
}
