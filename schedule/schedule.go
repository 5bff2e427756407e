// Package schedule evaluates a drug's recurrence rule: on which dates a dose
// exists, how much of it, and whether it is due.
//
// Every function is pure. Dates are civil dates as produced by clock.Date;
// other instants are truncated to their calendar day first.
package schedule

import (
	"fmt"
	"time"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/models"
)

const (
	cycleLength21On7Off = 28
	activeDays21On7Off  = 21

	// minLookback bounds the backwards search of LastDoseDate for modes that
	// do not carry their own period.
	minLookback = 28
)

// onCycle reports whether date falls into the active part of a cycle that
// started on origin. The first active days of every cycle are active. Dates
// before origin are folded into the preceding cycle.
func onCycle(date, origin time.Time, cycle, active int) bool {
	if cycle <= 0 {
		return true
	}
	n := clock.DaysBetween(origin, date) % cycle
	if n < 0 {
		n += cycle
	}
	return n < active
}

func hasWeekday(mask int64, date time.Time) bool {
	return mask&(1<<uint(clock.ISOWeekday(date)-1)) != 0
}

// HasDoseOnDate reports whether the drug's recurrence rule produces a dose on
// date. It ignores Active and AsNeeded; see IsDoseDue for that.
func HasDoseOnDate(drug *models.Drug, date time.Time) bool {
	date = clock.Date(date)

	if drug.HasScheduleEndDate() && date.After(drug.ScheduleEndDate) {
		return false
	}
	if drug.RepeatMode.RequiresOrigin() && !drug.RepeatOrigin.IsZero() && date.Before(drug.RepeatOrigin) {
		return false
	}
	if !drug.LastScheduleUpdateDate.IsZero() && date.Before(drug.LastScheduleUpdateDate) {
		return false
	}

	switch drug.RepeatMode {
	case models.RepeatDaily:
		return true
	case models.RepeatEveryNDays:
		return onCycle(date, drug.RepeatOrigin, int(drug.RepeatArg), 1)
	case models.RepeatWeekdays:
		return hasWeekday(drug.RepeatArg, date)
	case models.Repeat21On7Off:
		return onCycle(date, drug.RepeatOrigin, cycleLength21On7Off, activeDays21On7Off)
	case models.RepeatCustom:
		s := FindSchedule(date, drug.Schedules)
		return s != nil && IsDosePossibleOnDate(s, date)
	}
	return false
}

// GetDose returns the amount to take at doseTime on date, zero when the drug
// has no dose that day. AsNeeded drugs still report their configured amount.
func GetDose(drug *models.Drug, doseTime models.DoseTime, date time.Time) (fraction.Fraction, error) {
	if err := doseTime.Validate(); err != nil {
		return fraction.Zero, err
	}
	if !HasDoseOnDate(drug, date) {
		return fraction.Zero, nil
	}
	if drug.RepeatMode == models.RepeatCustom {
		return GetOverrideDose(date, doseTime, drug.Schedules)
	}
	return drug.Doses[doseTime], nil
}

// GetBaseDose returns the date-independent amount for doseTime. Custom drugs
// have no such amount.
func GetBaseDose(drug *models.Drug, doseTime models.DoseTime) (fraction.Fraction, error) {
	if err := doseTime.Validate(); err != nil {
		return fraction.Zero, err
	}
	if drug.RepeatMode == models.RepeatCustom {
		return fraction.Zero, fmt.Errorf("base dose of custom drug %q: %w", drug.Name, models.ErrUnsupportedOperation)
	}
	return drug.Doses[doseTime], nil
}

// IsDoseDue reports whether an intake is expected for doseTime on date.
// Inactive and as-needed drugs are never due, and neither are on-demand
// override periods.
func IsDoseDue(drug *models.Drug, doseTime models.DoseTime, date time.Time) bool {
	if !drug.Active || drug.AsNeeded {
		return false
	}
	if doseTime.Validate() != nil || !HasDoseOnDate(drug, date) {
		return false
	}
	if drug.RepeatMode == models.RepeatCustom {
		if s := FindSchedule(date, drug.Schedules); s == nil || s.RepeatMode == models.ScheduleOnDemand {
			return false
		}
	}
	dose, err := GetDose(drug, doseTime, date)
	return err == nil && !dose.IsZero()
}

// DueDoseTimes lists the dose times due on date in morning to night order.
func DueDoseTimes(drug *models.Drug, date time.Time) []models.DoseTime {
	var due []models.DoseTime
	for _, dt := range models.DoseTimes {
		if IsDoseDue(drug, dt, date) {
			due = append(due, dt)
		}
	}
	return due
}

// HasNoDoses reports whether every amount of the drug, overrides included,
// is zero.
func HasNoDoses(drug *models.Drug) bool {
	if !drug.Doses.IsZero() {
		return false
	}
	for i := range drug.Schedules {
		if !drug.Schedules[i].HasNoDoses() {
			return false
		}
	}
	return true
}

// LastDoseDate returns the most recent date strictly before date on which the
// drug has a dose.
func LastDoseDate(drug *models.Drug, date time.Time) (time.Time, bool) {
	date = clock.Date(date)
	limit := lookback(drug)
	for i := 1; i <= limit; i++ {
		d := clock.AddDays(date, -i)
		if !drug.LastScheduleUpdateDate.IsZero() && d.Before(drug.LastScheduleUpdateDate) {
			break
		}
		if HasDoseOnDate(drug, d) {
			return d, true
		}
	}
	return time.Time{}, false
}

// lookback is the longest gap that can separate two doses of drug.
func lookback(drug *models.Drug) int {
	limit := minLookback
	switch drug.RepeatMode {
	case models.RepeatEveryNDays:
		if n := int(drug.RepeatArg); n > limit {
			limit = n
		}
	case models.RepeatCustom:
		for i := range drug.Schedules {
			s := &drug.Schedules[i]
			switch s.RepeatMode {
			case models.ScheduleEveryNDays:
				if n := int(s.RepeatArg); n > limit {
					limit = n
				}
			case models.ScheduleDailyWithPause:
				if cycle, _ := models.UnpackPause(s.RepeatArg); cycle > limit {
					limit = cycle
				}
			}
		}
	}
	return limit
}
