// Package intake reconciles scheduled doses against recorded dose events.
package intake

import (
	"time"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/schedule"
)

// Querier answers whether an intake was recorded for a drug, day and dose time.
type Querier interface {
	Has(drugID string, date time.Time, doseTime models.DoseTime) bool
}

type key struct {
	drugID   string
	date     time.Time
	doseTime models.DoseTime
}

// Index is an immutable lookup over a snapshot of dose events. Skipped doses
// count as recorded.
type Index struct {
	events map[key]int
}

// NewIndex builds an Index from events.
func NewIndex(events []models.DoseEvent) *Index {
	idx := &Index{events: make(map[key]int, len(events))}
	for i := range events {
		e := &events[i]
		idx.events[key{e.DrugID, clock.Date(e.Date), e.DoseTime}]++
	}
	return idx
}

// Has implements Querier.
func (idx *Index) Has(drugID string, date time.Time, doseTime models.DoseTime) bool {
	return idx.events[key{drugID, clock.Date(date), doseTime}] > 0
}

// Len returns the number of distinct (drug, date, dose time) entries.
func (idx *Index) Len() int { return len(idx.events) }

// ForDrug returns the events that belong to drugID.
func ForDrug(events []models.DoseEvent, drugID string) []models.DoseEvent {
	var out []models.DoseEvent
	for _, e := range events {
		if e.DrugID == drugID {
			out = append(out, e)
		}
	}
	return out
}

// Pending lists the dose times of drug due on date without a recorded intake.
func Pending(drug *models.Drug, date time.Time, q Querier) []models.DoseTime {
	var pending []models.DoseTime
	for _, dt := range schedule.DueDoseTimes(drug, date) {
		if !q.Has(drug.ID, date, dt) {
			pending = append(pending, dt)
		}
	}
	return pending
}

// CountDue returns how many drugs have a due, unrecorded dose at doseTime on
// date.
func CountDue(drugs []models.Drug, doseTime models.DoseTime, date time.Time, q Querier) int {
	n := 0
	for i := range drugs {
		d := &drugs[i]
		if schedule.IsDoseDue(d, doseTime, date) && !q.Has(d.ID, date, doseTime) {
			n++
		}
	}
	return n
}

// MissingDose reports the last date before date on which drug was due and at
// least one due dose time has no intake. Doses preceding the drug's last
// schedule change are never reported.
func MissingDose(drug *models.Drug, date time.Time, q Querier) (time.Time, bool) {
	last, ok := schedule.LastDoseDate(drug, date)
	if !ok {
		return time.Time{}, false
	}
	if len(Pending(drug, last, q)) == 0 {
		return time.Time{}, false
	}
	return last, true
}
