// Package clock provides the time source used by the engine together with
// the civil-date helpers the recurrence rules are written against.
//
// A date is a time.Time at midnight UTC carrying the calendar day of some
// local instant. Keeping dates in UTC makes day differences exact (no DST
// gaps) and lets them round-trip through the database unchanged.
package clock

import (
	"sync"
	"time"
)

// Clock represents the source of the current instant.
type Clock interface {
	Now() time.Time
}

type clock struct{}

// New returns a Clock backed by time.Now.
func New() Clock {
	return &clock{}
}

// Now returns the current time
func (c *clock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a Clock whose time is moved by hand. Intended for tests.
type ManagedClock struct {
	mu        sync.Mutex
	startTime time.Time
	offset    time.Duration
}

// NewManaged returns a ManagedClock stopped at startTime.
func NewManaged(startTime time.Time) *ManagedClock {
	return &ManagedClock{startTime: startTime}
}

// Now returns the current managed time
func (c *ManagedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startTime.Add(c.offset)
}

// WarpForward moves time forward by the provided offset and returns the new time.
func (c *ManagedClock) WarpForward(offset time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += offset
	return c.startTime.Add(c.offset)
}

// Date returns the calendar day of t, as seen in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a date from its calendar fields.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day of c.
func Today(c Clock) time.Time {
	return Date(c.Now())
}

// AddDays returns date moved by n calendar days.
func AddDays(date time.Time, n int) time.Time {
	return Date(date).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b. The result is
// negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(text string) (time.Time, error) {
	return time.Parse("2006-01-02", text)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}
