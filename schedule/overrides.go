package schedule

import (
	"time"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/models"
)

// IsDateWithinSchedule reports whether date lies in [s.Begin, s.End]. A zero
// End leaves the period open.
func IsDateWithinSchedule(date time.Time, s *models.Schedule) bool {
	date = clock.Date(date)
	if date.Before(clock.Date(s.Begin)) {
		return false
	}
	return s.End.IsZero() || !date.After(clock.Date(s.End))
}

// FindSchedule returns the first schedule, in list order, whose period
// contains date. Overlapping periods are resolved by that order alone.
func FindSchedule(date time.Time, schedules []models.Schedule) *models.Schedule {
	for i := range schedules {
		if IsDateWithinSchedule(date, &schedules[i]) {
			return &schedules[i]
		}
	}
	return nil
}

// IsDosePossibleOnDate applies the schedule's own repeat mode to date.
func IsDosePossibleOnDate(s *models.Schedule, date time.Time) bool {
	switch s.RepeatMode {
	case models.ScheduleDaily, models.ScheduleOnDemand, models.ScheduleEvery6_8_12Or24Hours:
		return true
	case models.ScheduleEveryNDays:
		return onCycle(date, clock.Date(s.Begin), int(s.RepeatArg), 1)
	case models.ScheduleWeekdays:
		return hasWeekday(s.RepeatArg, date)
	case models.ScheduleDailyWithPause:
		cycle, pause := models.UnpackPause(s.RepeatArg)
		return onCycle(date, clock.Date(s.Begin), cycle, cycle-pause)
	}
	return false
}

// GetOverrideDose returns the amount the matching schedule prescribes for
// doseTime on date. A part whose weekday mask matches date replaces the
// schedule's own doses.
func GetOverrideDose(date time.Time, doseTime models.DoseTime, schedules []models.Schedule) (fraction.Fraction, error) {
	if err := doseTime.Validate(); err != nil {
		return fraction.Zero, err
	}
	s := FindSchedule(date, schedules)
	if s == nil || !IsDosePossibleOnDate(s, date) {
		return fraction.Zero, nil
	}
	for _, p := range s.Parts {
		if hasWeekday(p.Weekdays, date) {
			return p.Doses[doseTime], nil
		}
	}
	return s.Doses[doseTime], nil
}
