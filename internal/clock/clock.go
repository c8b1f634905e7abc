package clock

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format of a calendar date.
	DateLayout = "2006-01-02"
	// TimeOfDayLayout is the wire format of a time of day.
	TimeOfDayLayout = "15:04"
)

// Clock supplies the current time and schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or the timer was already stopped.
	Stop() bool
}

// System is the wall clock.
type System struct{}

// NewSystem returns the wall clock.
func NewSystem() System { return System{} }

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }

// AfterFunc schedules f on its own goroutine after d.
func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ParseSlot combines a "2006-01-02" date and a "15:04" time of day into an instant in loc.
func ParseSlot(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeOfDayLayout, date+" "+timeOfDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %q %q: %w", date, timeOfDay, err)
	}
	return t, nil
}

// ParseDate parses a "2006-01-02" calendar date at midnight UTC.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ParseTimeOfDay validates a "15:04" time of day and returns minutes since midnight.
func ParseTimeOfDay(tod string) (int, error) {
	t, err := time.Parse(TimeOfDayLayout, tod)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", tod, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
