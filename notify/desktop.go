package notify

import (
	"github.com/gen2brain/beeep"
)

// Desktop shows reminders as system notifications. Every Post is shown, so a
// snoozed reminder pops up again each time it is re-posted.
type Desktop struct {
	notify func(title, message string) error
}

// NewDesktop returns a Desktop sink backed by beeep.
func NewDesktop() *Desktop {
	return &Desktop{
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Post implements Sink.
func (d *Desktop) Post(id int, title, body string, count int) error {
	return d.notify(title, body)
}

// Cancel implements Sink. System notifications cannot be withdrawn.
func (d *Desktop) Cancel(id int) error {
	return nil
}
