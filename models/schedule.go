package models

import (
	"fmt"
	"time"
)

// ScheduleRepeatMode selects the recurrence rule of a schedule override.
type ScheduleRepeatMode int

// Schedule repeat modes.
const (
	ScheduleDaily ScheduleRepeatMode = iota
	ScheduleOnDemand
	ScheduleEveryNDays
	ScheduleEvery6_8_12Or24Hours
	ScheduleWeekdays
	ScheduleDailyWithPause
)

// Schedule overrides a drug's doses during a date range. It is the building
// block of RepeatCustom drugs.
type Schedule struct {
	ID     string `json:"id" bson:"_id"`
	DrugID string `json:"drugId" bson:"drugId"`

	Begin time.Time `json:"begin" bson:"begin"`
	// A zero End leaves the schedule open-ended.
	End time.Time `json:"end" bson:"end"`

	RepeatMode ScheduleRepeatMode `json:"repeatMode" bson:"repeatMode"`
	RepeatArg  int64              `json:"repeatArg" bson:"repeatArg"`

	Doses Doses          `json:"doses" bson:"doses"`
	Parts []SchedulePart `json:"parts" bson:"parts"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// SchedulePart replaces the schedule's doses on the weekdays in its mask.
// Masks of sibling parts should not overlap; if they do, the first part wins.
type SchedulePart struct {
	Weekdays int64 `json:"weekdays" bson:"weekdays"`
	Doses    Doses `json:"doses" bson:"doses"`
}

// HasNoDoses reports whether neither the schedule nor any part has a dose.
func (s *Schedule) HasNoDoses() bool {
	if !s.Doses.IsZero() {
		return false
	}
	for _, p := range s.Parts {
		if !p.Doses.IsZero() {
			return false
		}
	}
	return true
}

// Validate checks the schedule and its parts.
func (s *Schedule) Validate() error {
	if s.Begin.IsZero() {
		return fmt.Errorf("schedule begin is required: %w", ErrInvalidArgument)
	}
	if !s.End.IsZero() && s.End.Before(s.Begin) {
		return fmt.Errorf("schedule ends before it begins: %w", ErrInvalidArgument)
	}
	if err := ValidateScheduleRepeat(s.RepeatMode, s.RepeatArg); err != nil {
		return err
	}
	if err := s.Doses.validate(); err != nil {
		return err
	}
	for _, p := range s.Parts {
		if p.Weekdays <= 0 || p.Weekdays > WeekdayMask {
			return fmt.Errorf("schedule part weekday mask %#x: %w", p.Weekdays, ErrInvalidArgument)
		}
		if err := p.Doses.validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateScheduleRepeat checks a schedule repeat argument against its mode.
func ValidateScheduleRepeat(mode ScheduleRepeatMode, arg int64) error {
	switch mode {
	case ScheduleDaily, ScheduleOnDemand:
		return nil
	case ScheduleEveryNDays:
		if arg < 2 {
			return fmt.Errorf("every %d days: %w", arg, ErrInvalidArgument)
		}
		return nil
	case ScheduleEvery6_8_12Or24Hours:
		switch arg {
		case 6, 8, 12, 24:
			return nil
		}
		return fmt.Errorf("every %d hours: %w", arg, ErrInvalidArgument)
	case ScheduleWeekdays:
		if arg <= 0 || arg > WeekdayMask {
			return fmt.Errorf("weekday mask %#x: %w", arg, ErrInvalidArgument)
		}
		return nil
	case ScheduleDailyWithPause:
		cycle, pause := UnpackPause(arg)
		if pause < 1 || cycle <= pause {
			return fmt.Errorf("cycle of %d days with %d paused: %w", cycle, pause, ErrInvalidArgument)
		}
		return nil
	}
	return fmt.Errorf("schedule repeat mode %d: %w", int(mode), ErrInvalidArgument)
}

// PackPause encodes a daily-with-pause cycle: the cycle length goes in the
// high 16 bits, the paused days in the low 16 bits.
func PackPause(cycleLength, pauseDays int) (int64, error) {
	if pauseDays < 1 || cycleLength <= pauseDays || cycleLength > 0xffff {
		return 0, fmt.Errorf("cycle of %d days with %d paused: %w", cycleLength, pauseDays, ErrInvalidArgument)
	}
	return int64(cycleLength)<<16 | int64(pauseDays), nil
}

// UnpackPause is the inverse of PackPause.
func UnpackPause(arg int64) (cycleLength, pauseDays int) {
	return int(arg >> 16 & 0xffff), int(arg & 0xffff)
}
