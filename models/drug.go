package models

import (
	"fmt"
	"time"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/fraction"
)

// RepeatMode selects the recurrence rule of a drug.
type RepeatMode int

// Repeat modes are mutually exclusive.
const (
	RepeatDaily RepeatMode = iota
	RepeatEveryNDays
	RepeatWeekdays
	Repeat21On7Off
	RepeatCustom
)

var repeatModeNames = []string{"daily", "every_n_days", "weekdays", "21_on_7_off", "custom"}

func (m RepeatMode) String() string {
	if m < 0 || int(m) >= len(repeatModeNames) {
		return fmt.Sprintf("RepeatMode(%d)", int(m))
	}
	return repeatModeNames[m]
}

// RequiresOrigin reports whether the mode counts days from the repeat origin.
func (m RepeatMode) RequiresOrigin() bool {
	return m == RepeatEveryNDays || m == Repeat21On7Off
}

// WeekdayMask covers all seven weekday bits, bit 0 being Monday.
const WeekdayMask = 0x7f

// Drug holds the structure for the drugs collection in mongo.
//
// Fields are exported for encoding; code that changes the schedule should go
// through the setters so LastScheduleUpdateDate stays current.
type Drug struct {
	ID     string `json:"id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	Active bool   `json:"active" bson:"active"`

	Doses        Doses      `json:"doses" bson:"doses"`
	RepeatMode   RepeatMode `json:"repeatMode" bson:"repeatMode"`
	RepeatArg    int64      `json:"repeatArg" bson:"repeatArg"`
	RepeatOrigin time.Time  `json:"repeatOrigin" bson:"repeatOrigin"`

	// RefillSize of 0 turns supply tracking off.
	RefillSize    int               `json:"refillSize" bson:"refillSize"`
	CurrentSupply fraction.Fraction `json:"currentSupply" bson:"currentSupply"`

	ExpirationDate  time.Time `json:"expirationDate" bson:"expirationDate"`
	ScheduleEndDate time.Time `json:"scheduleEndDate" bson:"scheduleEndDate"`
	AsNeeded        bool      `json:"asNeeded" bson:"asNeeded"`

	// Doses scheduled before this date are never reported as missing.
	LastScheduleUpdateDate time.Time `json:"lastScheduleUpdateDate" bson:"lastScheduleUpdateDate"`

	Comment string `json:"comment" bson:"comment"`

	// Schedules live in their own collection and are attached by the entry store.
	Schedules []Schedule `json:"schedules,omitempty" bson:"-"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasExpirationDate reports whether an expiration date is set.
func (d *Drug) HasExpirationDate() bool { return !d.ExpirationDate.IsZero() }

// HasScheduleEndDate reports whether the course has a last day.
func (d *Drug) HasScheduleEndDate() bool { return !d.ScheduleEndDate.IsZero() }

// SetDose sets the base amount for one dose time.
func (d *Drug) SetDose(doseTime DoseTime, amount fraction.Fraction, today time.Time) error {
	if err := doseTime.Validate(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return fmt.Errorf("dose %s: %w", amount, ErrInvalidArgument)
	}
	if d.Doses[doseTime] != amount {
		d.Doses[doseTime] = amount
		d.touchSchedule(today)
	}
	return nil
}

// SetRepeat changes the recurrence rule. A zero origin defaults to today for
// modes that count from it.
func (d *Drug) SetRepeat(mode RepeatMode, arg int64, origin, today time.Time) error {
	if err := ValidateRepeat(mode, arg); err != nil {
		return err
	}
	if mode.RequiresOrigin() && origin.IsZero() {
		origin = today
	}
	d.RepeatMode = mode
	d.RepeatArg = arg
	if !origin.IsZero() {
		d.RepeatOrigin = clock.Date(origin)
	}
	d.touchSchedule(today)
	return nil
}

// SetScheduleEndDate sets the last day of the course; a zero date clears it.
func (d *Drug) SetScheduleEndDate(end, today time.Time) error {
	if !end.IsZero() {
		end = clock.Date(end)
	}
	d.ScheduleEndDate = end
	d.touchSchedule(today)
	return nil
}

// SetAsNeeded toggles the as-needed flag.
func (d *Drug) SetAsNeeded(asNeeded bool, today time.Time) {
	if d.AsNeeded != asNeeded {
		d.AsNeeded = asNeeded
		d.touchSchedule(today)
	}
}

// SetSchedules replaces the custom schedule overrides.
func (d *Drug) SetSchedules(schedules []Schedule, today time.Time) error {
	for i := range schedules {
		if err := schedules[i].Validate(); err != nil {
			return err
		}
	}
	d.Schedules = schedules
	d.touchSchedule(today)
	return nil
}

// SetCurrentSupply sets the amount on hand.
func (d *Drug) SetCurrentSupply(supply fraction.Fraction) error {
	if supply.IsNegative() {
		return fmt.Errorf("supply %s: %w", supply, ErrInvalidArgument)
	}
	d.CurrentSupply = supply
	return nil
}

// SetRefillSize sets the package size; 0 disables supply tracking.
func (d *Drug) SetRefillSize(size int) error {
	if size < 0 {
		return fmt.Errorf("refill size %d: %w", size, ErrInvalidArgument)
	}
	d.RefillSize = size
	return nil
}

func (d *Drug) touchSchedule(today time.Time) {
	d.LastScheduleUpdateDate = clock.Date(today)
}

// Validate checks a drug received from outside, e.g. through the API.
func (d *Drug) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name must not be empty: %w", ErrInvalidArgument)
	}
	if err := d.Doses.validate(); err != nil {
		return err
	}
	if err := ValidateRepeat(d.RepeatMode, d.RepeatArg); err != nil {
		return err
	}
	if d.RefillSize < 0 {
		return fmt.Errorf("refill size %d: %w", d.RefillSize, ErrInvalidArgument)
	}
	if d.CurrentSupply.IsNegative() {
		return fmt.Errorf("supply %s: %w", d.CurrentSupply, ErrInvalidArgument)
	}
	for i := range d.Schedules {
		if err := d.Schedules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRepeat checks a repeat argument against its mode.
func ValidateRepeat(mode RepeatMode, arg int64) error {
	switch mode {
	case RepeatDaily, Repeat21On7Off, RepeatCustom:
		return nil
	case RepeatEveryNDays:
		if arg < 2 {
			return fmt.Errorf("every %d days: %w", arg, ErrInvalidArgument)
		}
		return nil
	case RepeatWeekdays:
		if arg <= 0 || arg > WeekdayMask {
			return fmt.Errorf("weekday mask %#x: %w", arg, ErrInvalidArgument)
		}
		return nil
	}
	return fmt.Errorf("repeat mode %d: %w", int(mode), ErrInvalidArgument)
}
