package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/api/scheduler"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/notify"
)

// Reminder exported for testing purposes
type Reminder struct {
	Notifier Reminders
	Hub      *notify.Hub
	Clock    clock.Clock
	Settings *config.Settings
}

// WindowResponse describes one dose time window.
type WindowResponse struct {
	DoseTime models.DoseTime `json:"doseTime"`
	Name     string          `json:"name"`
	Window   string          `json:"window"`
}

// DoseTimeResponse answers GET /dosetime.
type DoseTimeResponse struct {
	Now        time.Time        `json:"now"`
	Active     string           `json:"active"`
	ActiveDate string           `json:"activeDate,omitempty"`
	Next       string           `json:"next"`
	NextBegin  time.Time        `json:"nextBegin"`
	Windows    []WindowResponse `json:"windows"`
}

var errNotSnoozed = errors.New("reminders are not snoozed")

// RemindersResponse answers GET /reminders.
type RemindersResponse struct {
	State     scheduler.State   `json:"state"`
	Reminders []notify.Reminder `json:"reminders"`
}

// DoseTimeHandler returns the active and the next dose time
func (rem Reminder) DoseTimeHandler(w http.ResponseWriter, r *http.Request) {
	now := rem.Clock.Now()
	c := rem.Settings.DoseTimeClock()

	active := c.ActiveDoseTime(now)
	next := c.NextDoseTime(now)
	resp := DoseTimeResponse{
		Now:       now,
		Active:    active.String(),
		Next:      next.String(),
		NextBegin: now.Add(c.UntilBeginOrEnd(now, next, true)),
		Windows:   make([]WindowResponse, 0, models.DoseTimeCount),
	}
	if active != models.DoseTimeNone {
		resp.ActiveDate = clock.FormatDate(c.ActiveDate(now))
	}
	for _, dt := range models.DoseTimes {
		resp.Windows = append(resp.Windows, WindowResponse{DoseTime: dt, Name: dt.String(), Window: c.Window(dt).String()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemindersHandler returns the reminders currently shown
func (rem Reminder) RemindersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RemindersResponse{
		State:     rem.Notifier.State(),
		Reminders: rem.Hub.Active(),
	})
}

// SnoozeHandler snoozes the pending reminder when the loop waits for one
func (rem Reminder) SnoozeHandler(w http.ResponseWriter, r *http.Request) {
	if !rem.Notifier.RequestSnooze() {
		config.ErrorStatus("nothing to snooze", http.StatusConflict, w, errNotSnoozed)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"snoozed": true})
}

// RestartHandler restarts the reminder loop; force=true interrupts a
// running window
func (rem Reminder) RestartHandler(w http.ResponseWriter, r *http.Request) {
	forced := r.URL.Query().Get("force") == "true"
	rem.Notifier.Restart(forced)
	writeJSON(w, http.StatusAccepted, map[string]bool{"forced": forced})
}

// SettingsHandler returns the reminder settings
func (rem Reminder) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rem.Settings.Clone())
}

// UpdateSettingsHandler replaces the reminder settings and restarts the
// loop with them
func (rem Reminder) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	in := rem.Settings.Clone()
	if err := decodeBody(r, in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := rem.Settings.Update(in); err != nil {
		config.ErrorStatus("invalid settings", statusFor(err), w, err)
		return
	}
	zap.S().Infow("reminder settings updated", "doseTimes", in.DoseTimes, "snoozeMode", in.SnoozeMode)
	rem.Notifier.Restart(true)
	writeJSON(w, http.StatusOK, rem.Settings.Clone())
}
