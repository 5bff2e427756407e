package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/linesmerrill/dose-reminder-api/dosetime"
	"github.com/linesmerrill/dose-reminder-api/models"
)

// SnoozeMode selects how a pending reminder repeats within its window.
type SnoozeMode int

// Snooze modes.
const (
	SnoozeDisabled SnoozeMode = iota
	SnoozeAuto
	SnoozeManual
)

var snoozeModeNames = []string{"disabled", "auto", "manual"}

func (m SnoozeMode) String() string {
	if m < 0 || int(m) >= len(snoozeModeNames) {
		return fmt.Sprintf("SnoozeMode(%d)", int(m))
	}
	return snoozeModeNames[m]
}

// ParseSnoozeMode reads a mode name, ignoring case.
func ParseSnoozeMode(text string) (SnoozeMode, error) {
	for i, name := range snoozeModeNames {
		if strings.EqualFold(strings.TrimSpace(text), name) {
			return SnoozeMode(i), nil
		}
	}
	return SnoozeDisabled, fmt.Errorf("snooze mode %q: %w", text, models.ErrInvalidFormat)
}

// MarshalText implements encoding.TextMarshaler.
func (m SnoozeMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SnoozeMode) UnmarshalText(text []byte) error {
	mode, err := ParseSnoozeMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Duration is a time.Duration written as text, e.g. "15m".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("duration %q: %w", text, models.ErrInvalidFormat)
	}
	*d = Duration(v)
	return nil
}

// Settings contains the reminder settings that can change at runtime
type Settings struct {
	mu sync.RWMutex `json:"-"`

	// DoseTimes holds one "HH:MM-HH:MM" window per dose time, morning first.
	DoseTimes [models.DoseTimeCount]string `json:"doseTimes"`

	SnoozeMode     SnoozeMode `json:"snoozeMode"`
	SnoozeInterval Duration   `json:"snoozeInterval"`

	// LowSupplyThreshold in days, 0 = off
	LowSupplyThreshold int `json:"lowSupplyThreshold"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		DoseTimes:          defaultWindows(),
		SnoozeMode:         SnoozeAuto,
		SnoozeInterval:     Duration(15 * time.Minute),
		LowSupplyThreshold: 10,
	}
}

// Clone creates a copy of the settings
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Settings{}
	clone.copySettingsFields(s)
	return clone
}

// Update validates other and copies it into s.
func (s *Settings) Update(other *Settings) error {
	other.mu.RLock()
	defer other.mu.RUnlock()
	if err := other.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.copySettingsFields(other)
	return nil
}

// copySettingsFields copies all fields from other to s, excluding the mutex.
// The caller must hold the necessary locks.
func (s *Settings) copySettingsFields(other *Settings) {
	s.DoseTimes = other.DoseTimes
	s.SnoozeMode = other.SnoozeMode
	s.SnoozeInterval = other.SnoozeInterval
	s.LowSupplyThreshold = other.LowSupplyThreshold
}

// Validate checks every field.
func (s *Settings) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validate()
}

func (s *Settings) validate() error {
	if _, err := s.windows(); err != nil {
		return err
	}
	if s.SnoozeMode < SnoozeDisabled || s.SnoozeMode > SnoozeManual {
		return fmt.Errorf("snooze mode %d: %w", int(s.SnoozeMode), models.ErrInvalidArgument)
	}
	if s.SnoozeMode != SnoozeDisabled && s.SnoozeInterval <= 0 {
		return fmt.Errorf("snooze interval %s: %w", time.Duration(s.SnoozeInterval), models.ErrInvalidArgument)
	}
	if s.LowSupplyThreshold < 0 {
		return fmt.Errorf("low supply threshold %d: %w", s.LowSupplyThreshold, models.ErrInvalidArgument)
	}
	return nil
}

func (s *Settings) windows() ([models.DoseTimeCount]dosetime.Window, error) {
	var out [models.DoseTimeCount]dosetime.Window
	for i, text := range s.DoseTimes {
		w, err := dosetime.ParseWindow(text)
		if err != nil {
			return out, fmt.Errorf("%s window: %w", models.DoseTime(i), err)
		}
		out[i] = w
	}
	return out, nil
}

// DoseTimeClock returns a dose time clock over the configured windows in the
// local time zone. Invalid windows fall back to the defaults.
func (s *Settings) DoseTimeClock() *dosetime.Clock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	windows, err := s.windows()
	if err != nil {
		windows = dosetime.DefaultWindows
	}
	return dosetime.New(windows)
}

// Snooze returns the snooze mode and interval.
func (s *Settings) Snooze() (SnoozeMode, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SnoozeMode, time.Duration(s.SnoozeInterval)
}

// Threshold returns the low supply threshold in days.
func (s *Settings) Threshold() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LowSupplyThreshold
}
