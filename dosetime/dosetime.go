// Package dosetime maps instants onto the four daily dose time windows.
//
// A window is a pair of offsets from local midnight. The end may exceed 24h,
// in which case the window runs past midnight into the next calendar day and
// that part still belongs to the day the window began.
package dosetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/models"
)

const day = 24 * time.Hour

// Window is the half-open interval [Begin, End) measured from midnight.
type Window struct {
	Begin time.Duration `json:"begin"`
	End   time.Duration `json:"end"`
}

// ParseWindow reads "HH:MM-HH:MM". An end not after the begin, or an end
// above 24:00, places the end on the following day.
func ParseWindow(text string) (Window, error) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("dose time window %q: %w", text, models.ErrInvalidFormat)
	}
	begin, err := parseOffset(parts[0])
	if err != nil {
		return Window{}, err
	}
	end, err := parseOffset(parts[1])
	if err != nil {
		return Window{}, err
	}
	w := Window{Begin: begin, End: end}
	if w.Begin >= day {
		return Window{}, fmt.Errorf("dose time window %q begins after midnight: %w", text, models.ErrInvalidArgument)
	}
	if w.End <= w.Begin {
		w.End += day
	}
	if w.End-w.Begin > day {
		return Window{}, fmt.Errorf("dose time window %q is longer than a day: %w", text, models.ErrInvalidArgument)
	}
	return w, nil
}

func parseOffset(text string) (time.Duration, error) {
	hm := strings.Split(strings.TrimSpace(text), ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("time of day %q: %w", text, models.ErrInvalidFormat)
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 48 {
		return 0, fmt.Errorf("hour %q: %w", hm[0], models.ErrInvalidFormat)
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minute %q: %w", hm[1], models.ErrInvalidFormat)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func (w Window) String() string {
	return formatOffset(w.Begin) + "-" + formatOffset(w.End)
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func (w Window) contains(offset time.Duration) bool {
	return offset >= w.Begin && offset < w.End
}

// DefaultWindows are used when nothing is configured.
var DefaultWindows = [models.DoseTimeCount]Window{
	{Begin: 6 * time.Hour, End: 10 * time.Hour},
	{Begin: 11 * time.Hour, End: 14 * time.Hour},
	{Begin: 17 * time.Hour, End: 20 * time.Hour},
	{Begin: 21 * time.Hour, End: 24 * time.Hour},
}

// Clock resolves dose times for instants in its location. Windows are
// expected to be disjoint; the first matching window wins otherwise.
type Clock struct {
	windows [models.DoseTimeCount]Window
	loc     *time.Location
}

// New returns a Clock over windows in the local time zone.
func New(windows [models.DoseTimeCount]Window) *Clock {
	return NewInLocation(windows, time.Local)
}

// NewInLocation returns a Clock over windows in loc.
func NewInLocation(windows [models.DoseTimeCount]Window, loc *time.Location) *Clock {
	for i := range windows {
		if windows[i].End <= windows[i].Begin {
			windows[i].End += day
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Clock{windows: windows, loc: loc}
}

// Window returns the window of doseTime.
func (c *Clock) Window(doseTime models.DoseTime) Window {
	return c.windows[doseTime]
}

// Windows returns all four windows, morning first.
func (c *Clock) Windows() [models.DoseTimeCount]Window {
	return c.windows
}

// midnight returns the start of the day k days after now's day.
func (c *Clock) midnight(now time.Time, k int) time.Time {
	y, m, d := now.In(c.loc).Date()
	return time.Date(y, m, d+k, 0, 0, 0, 0, c.loc)
}

func (c *Clock) offset(now time.Time) time.Duration {
	return now.Sub(c.midnight(now, 0))
}

// ActiveDoseTime returns the dose time whose window contains now, or
// DoseTimeNone.
func (c *Clock) ActiveDoseTime(now time.Time) models.DoseTime {
	dt, _ := c.active(now)
	return dt
}

// active also reports whether the match came from yesterday's window.
func (c *Clock) active(now time.Time) (models.DoseTime, bool) {
	off := c.offset(now)
	for _, dt := range models.DoseTimes {
		w := c.windows[dt]
		if w.contains(off) {
			return dt, false
		}
		if w.contains(off + day) {
			return dt, true
		}
	}
	return models.DoseTimeNone, false
}

// ActiveDate returns the date the dose taken now is scheduled for. Past
// midnight, a window that began the day before still belongs to that day.
func (c *Clock) ActiveDate(now time.Time) time.Time {
	today := clock.Date(now.In(c.loc))
	if _, yesterday := c.active(now); yesterday {
		return clock.AddDays(today, -1)
	}
	return today
}

// NextDoseTime returns the dose time whose window begins soonest, counting a
// window that begins exactly now.
func (c *Clock) NextDoseTime(now time.Time) models.DoseTime {
	off := c.offset(now)
	next := models.DoseTimeNone
	var best time.Duration
	for _, dt := range models.DoseTimes {
		d := c.windows[dt].Begin - off
		for d < 0 {
			d += day
		}
		if next == models.DoseTimeNone || d < best {
			next, best = dt, d
		}
	}
	return next
}

// ActiveOrNext returns the active dose time, or the next one when none is.
func (c *Clock) ActiveOrNext(now time.Time) models.DoseTime {
	if dt := c.ActiveDoseTime(now); dt != models.DoseTimeNone {
		return dt
	}
	return c.NextDoseTime(now)
}

// ActiveOrNextDate returns the active dose time, or the next one when none
// is, together with the date it is scheduled for. A window that next begins
// after midnight belongs to the following day.
func (c *Clock) ActiveOrNextDate(now time.Time) (models.DoseTime, time.Time) {
	if dt := c.ActiveDoseTime(now); dt != models.DoseTimeNone {
		return dt, c.ActiveDate(now)
	}
	dt := c.NextDoseTime(now)
	begin := c.windows[dt].Begin
	for k := -1; k <= 1; k++ {
		base := c.midnight(now, k)
		if !base.Add(begin).Before(now) {
			return dt, clock.Date(base)
		}
	}
	return dt, clock.Date(c.midnight(now, 1))
}

// UntilBeginOrEnd returns how long until the window of doseTime next begins,
// or next ends. The result is never negative.
func (c *Clock) UntilBeginOrEnd(now time.Time, doseTime models.DoseTime, begin bool) time.Duration {
	w := c.windows[doseTime]
	target := w.End
	if begin {
		target = w.Begin
	}
	for k := -1; k <= 1; k++ {
		at := c.midnight(now, k).Add(target)
		if !at.Before(now) {
			return at.Sub(now)
		}
	}
	return 0
}

// WindowEnd returns the instant the window of doseTime scheduled for date
// closes.
func (c *Clock) WindowEnd(date time.Time, doseTime models.DoseTime) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc).Add(c.windows[doseTime].End)
}

// PreviousDoseTime returns the dose time and scheduled date of the window
// that most recently closed at or before now.
func (c *Clock) PreviousDoseTime(now time.Time) (models.DoseTime, time.Time) {
	prev := models.DoseTimeNone
	var prevDate, prevEnd time.Time
	for k := -2; k <= 0; k++ {
		base := c.midnight(now, k)
		for _, dt := range models.DoseTimes {
			end := base.Add(c.windows[dt].End)
			if end.After(now) {
				continue
			}
			if prev == models.DoseTimeNone || end.After(prevEnd) {
				prev, prevEnd = dt, end
				prevDate = clock.Date(base)
			}
		}
	}
	return prev, prevDate
}
