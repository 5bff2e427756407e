// Package notify delivers reminders to the user. Every delivery channel is a
// Sink; the scheduler posts to one Sink that fans out to the configured ones.
package notify

import (
	"time"

	"go.uber.org/multierr"
)

// Sink shows and withdraws reminders. Posting an id that is already shown
// replaces it. Both calls are idempotent.
type Sink interface {
	Post(id int, title, body string, count int) error
	Cancel(id int) error
}

// Reminder is a posted reminder as shown to clients.
type Reminder struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Count    int       `json:"count"`
	PostedAt time.Time `json:"postedAt"`
}

// Multi posts to every sink, continuing past failures.
type Multi []Sink

// Post implements Sink.
func (m Multi) Post(id int, title, body string, count int) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Post(id, title, body, count))
	}
	return err
}

// Cancel implements Sink.
func (m Multi) Cancel(id int) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Cancel(id))
	}
	return err
}

// Filter forwards only the listed reminder ids to Sink.
type Filter struct {
	Sink Sink
	IDs  []int
}

func (f Filter) allowed(id int) bool {
	for _, allowed := range f.IDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// Post implements Sink.
func (f Filter) Post(id int, title, body string, count int) error {
	if !f.allowed(id) {
		return nil
	}
	return f.Sink.Post(id, title, body, count)
}

// Cancel implements Sink.
func (f Filter) Cancel(id int) error {
	if !f.allowed(id) {
		return nil
	}
	return f.Sink.Cancel(id)
}
