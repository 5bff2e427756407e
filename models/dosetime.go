package models

import (
	"fmt"

	"github.com/linesmerrill/dose-reminder-api/fraction"
)

// DoseTime identifies one of the four daily dose windows.
type DoseTime int

// Dose times, in the order their windows occur during a day.
const (
	DoseTimeNone    DoseTime = -1
	DoseTimeMorning DoseTime = 0
	DoseTimeNoon    DoseTime = 1
	DoseTimeEvening DoseTime = 2
	DoseTimeNight   DoseTime = 3
)

// DoseTimeCount is the number of dose windows per day.
const DoseTimeCount = 4

// DoseTimes lists every dose time from morning to night.
var DoseTimes = [DoseTimeCount]DoseTime{DoseTimeMorning, DoseTimeNoon, DoseTimeEvening, DoseTimeNight}

var doseTimeNames = [DoseTimeCount]string{"morning", "noon", "evening", "night"}

// Validate fails with ErrInvalidArgument for anything but morning..night.
func (d DoseTime) Validate() error {
	if d < DoseTimeMorning || d > DoseTimeNight {
		return fmt.Errorf("dose time %d: %w", int(d), ErrInvalidArgument)
	}
	return nil
}

func (d DoseTime) String() string {
	if d.Validate() != nil {
		return "none"
	}
	return doseTimeNames[d]
}

// ParseDoseTime maps a dose time name back to its value.
func ParseDoseTime(name string) (DoseTime, error) {
	for i, n := range doseTimeNames {
		if n == name {
			return DoseTime(i), nil
		}
	}
	return DoseTimeNone, fmt.Errorf("dose time %q: %w", name, ErrInvalidArgument)
}

// Doses holds one amount per dose time.
type Doses [DoseTimeCount]fraction.Fraction

// Total returns the sum of all four amounts.
func (d Doses) Total() fraction.Fraction {
	total := fraction.Zero
	for _, f := range d {
		total = total.Add(f)
	}
	return total
}

// IsZero reports whether every amount is zero.
func (d Doses) IsZero() bool {
	for _, f := range d {
		if !f.IsZero() {
			return false
		}
	}
	return true
}

func (d Doses) validate() error {
	for i, f := range d {
		if f.IsNegative() {
			return fmt.Errorf("%s dose %s is negative: %w", DoseTime(i), f, ErrInvalidArgument)
		}
	}
	return nil
}
