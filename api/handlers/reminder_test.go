package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/dose-reminder-api/api/handlers"
	"github.com/linesmerrill/dose-reminder-api/api/scheduler"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/notify"
)

type remindersMock struct {
	mock.Mock
}

func (m *remindersMock) State() scheduler.State {
	return m.Called().Get(0).(scheduler.State)
}

func (m *remindersMock) RequestSnooze() bool {
	return m.Called().Bool(0)
}

func (m *remindersMock) Restart(forced bool) {
	m.Called(forced)
}

func newReminderHandler(t *testing.T) (handlers.Reminder, *remindersMock) {
	rm := &remindersMock{}
	t.Cleanup(func() { rm.AssertExpectations(t) })
	c := clock.NewManaged(testNow)
	return handlers.Reminder{Notifier: rm, Hub: notify.NewHub(c), Clock: c, Settings: config.DefaultSettings()}, rm
}

func TestReminder_DoseTimeHandler(t *testing.T) {
	rem, _ := newReminderHandler(t)

	rr := serve(t, rem.DoseTimeHandler, "GET", "/api/v1/dosetime", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got handlers.DoseTimeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "morning", got.Active)
	assert.Equal(t, "2024-06-10", got.ActiveDate)
	assert.Equal(t, "noon", got.Next)
	assert.True(t, got.NextBegin.Equal(testNow.Add(3*time.Hour)), "next begin %s", got.NextBegin)
	require.Len(t, got.Windows, 4)
	assert.Equal(t, "06:00-10:00", got.Windows[0].Window)
}

func TestReminder_RemindersHandler(t *testing.T) {
	rem, rm := newReminderHandler(t)
	rm.On("State").Return(scheduler.StateSnoozed)
	require.NoError(t, rem.Hub.Post(scheduler.ReminderPending, "Time for your medication", "1 medication due (morning)", 1))

	rr := serve(t, rem.RemindersHandler, "GET", "/api/v1/reminders", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		State     string            `json:"state"`
		Reminders []notify.Reminder `json:"reminders"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "snoozed", got.State)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, scheduler.ReminderPending, got.Reminders[0].ID)
}

func TestReminder_SnoozeHandler(t *testing.T) {
	tests := []struct {
		name       string
		accepted   bool
		wantStatus int
		wantBody   string
	}{
		{name: "snoozed", accepted: true, wantStatus: http.StatusAccepted, wantBody: `{"snoozed":true}`},
		{name: "nothing pending", accepted: false, wantStatus: http.StatusConflict, wantBody: `{"response": "nothing to snooze, reminders are not snoozed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rem, rm := newReminderHandler(t)
			rm.On("RequestSnooze").Return(tt.accepted)

			rr := serve(t, rem.SnoozeHandler, "POST", "/api/v1/reminders/snooze", "", nil)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestReminder_RestartHandler(t *testing.T) {
	rem, rm := newReminderHandler(t)
	rm.On("Restart", true).Once()

	rr := serve(t, rem.RestartHandler, "POST", "/api/v1/reminders/restart?force=true", "", nil)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, `{"forced":true}`, rr.Body.String())
}

func TestReminder_SettingsHandler(t *testing.T) {
	rem, _ := newReminderHandler(t)

	rr := serve(t, rem.SettingsHandler, "GET", "/api/v1/settings", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"doseTimes": ["06:00-10:00", "11:00-14:00", "17:00-20:00", "21:00-24:00"],
		"snoozeMode": "auto",
		"snoozeInterval": "15m0s",
		"lowSupplyThreshold": 10
	}`, rr.Body.String())
}

func TestReminder_UpdateSettingsHandler(t *testing.T) {
	rem, rm := newReminderHandler(t)
	rm.On("Restart", true).Once()

	body := `{"snoozeMode":"manual","snoozeInterval":"10m","lowSupplyThreshold":5}`
	rr := serve(t, rem.UpdateSettingsHandler, "PUT", "/api/v1/settings", body, nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	mode, interval := rem.Settings.Snooze()
	assert.Equal(t, config.SnoozeManual, mode)
	assert.Equal(t, 10*time.Minute, interval)
	assert.Equal(t, 5, rem.Settings.Threshold())
	// windows not in the body are kept
	assert.Equal(t, "06:00-10:00", rem.Settings.Clone().DoseTimes[0])
}

func TestReminder_UpdateSettingsHandlerInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad window", body: `{"doseTimes":["25:00-26:00","11:00-14:00","17:00-20:00","21:00-24:00"]}`},
		{name: "unknown mode", body: `{"snoozeMode":"sometimes"}`},
		{name: "negative threshold", body: `{"lowSupplyThreshold":-1}`},
		{name: "zero interval", body: `{"snoozeMode":"auto","snoozeInterval":"0s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rem, _ := newReminderHandler(t)

			rr := serve(t, rem.UpdateSettingsHandler, "PUT", "/api/v1/settings", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, config.DefaultSettings().Threshold(), rem.Settings.Threshold())
		})
	}
}
