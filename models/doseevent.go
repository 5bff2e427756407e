package models

import (
	"fmt"
	"time"

	"github.com/linesmerrill/dose-reminder-api/fraction"
)

// DoseEvent records an intake. Date is the scheduled day, which for a night
// dose taken after midnight is still the previous calendar day.
type DoseEvent struct {
	ID        string            `json:"id" bson:"_id"`
	DrugID    string            `json:"drugId" bson:"drugId"`
	Date      time.Time         `json:"date" bson:"date"`
	Timestamp time.Time         `json:"timestamp" bson:"timestamp"`
	DoseTime  DoseTime          `json:"doseTime" bson:"doseTime"`
	Dose      fraction.Fraction `json:"dose" bson:"dose"`
	// AutoCreated marks events generated by automation rather than the user.
	AutoCreated bool `json:"autoCreated" bson:"autoCreated"`
}

// IsSkip reports whether the event records a deliberately skipped dose.
func (e *DoseEvent) IsSkip() bool { return e.Dose.IsZero() }

// Validate checks an event received from outside.
func (e *DoseEvent) Validate() error {
	if e.DrugID == "" {
		return fmt.Errorf("drug id must not be empty: %w", ErrInvalidArgument)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required: %w", ErrInvalidArgument)
	}
	if err := e.DoseTime.Validate(); err != nil {
		return err
	}
	if e.Dose.IsNegative() {
		return fmt.Errorf("dose %s: %w", e.Dose, ErrInvalidArgument)
	}
	return nil
}
