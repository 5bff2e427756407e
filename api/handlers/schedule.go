package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/dose-reminder-api/api"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/databases"
	"github.com/linesmerrill/dose-reminder-api/models"
)

// Schedule exported for testing purposes
type Schedule struct {
	DB    databases.EntryStore
	Clock clock.Clock
}

// CreateScheduleHandler adds a schedule override to a drug
func (s Schedule) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]

	var sc models.Schedule
	if err := decodeBody(r, &sc); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := sc.Validate(); err != nil {
		config.ErrorStatus("invalid schedule", http.StatusBadRequest, w, err)
		return
	}
	sc.DrugID = drugID
	sc.Begin = clock.Date(sc.Begin)
	if !sc.End.IsZero() {
		sc.End = clock.Date(sc.End)
	}

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	drug, err := s.DB.FindDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	if err := s.DB.CreateSchedule(ctx, &sc); err != nil {
		config.ErrorStatus("failed to create schedule", statusFor(err), w, err)
		return
	}
	if err := s.touchDrug(ctx, drug, append(drug.Schedules, sc)); err != nil {
		config.ErrorStatus("failed to update drug", statusFor(err), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

// DeleteScheduleHandler removes a schedule override
func (s Schedule) DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	scheduleID := mux.Vars(r)["schedule_id"]

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	sc, err := s.DB.FindSchedule(ctx, scheduleID)
	if err != nil {
		config.ErrorStatus("failed to get schedule by ID", statusFor(err), w, err)
		return
	}
	if err := s.DB.DeleteSchedule(ctx, scheduleID); err != nil {
		config.ErrorStatus("failed to delete schedule", statusFor(err), w, err)
		return
	}

	drug, err := s.DB.FindDrug(ctx, sc.DrugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	if err := s.touchDrug(ctx, drug, drug.Schedules); err != nil {
		config.ErrorStatus("failed to update drug", statusFor(err), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// touchDrug stamps the schedule update date of drug.
func (s Schedule) touchDrug(ctx context.Context, drug *models.Drug, schedules []models.Schedule) error {
	if err := drug.SetSchedules(schedules, clock.Today(s.Clock)); err != nil {
		return err
	}
	return s.DB.UpdateDrug(ctx, drug)
}
