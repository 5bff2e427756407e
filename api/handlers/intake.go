package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/api"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/databases"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/schedule"
)

// Intake exported for testing purposes
type Intake struct {
	DB       databases.EntryStore
	Clock    clock.Clock
	Settings *config.Settings
}

// IntakeRequest records a taken or skipped dose. DoseTime defaults to the
// active dose time, or the next one outside the windows, and Date to the day
// that window is scheduled for. Dose defaults to the scheduled amount.
type IntakeRequest struct {
	Date     string             `json:"date"`
	DoseTime *models.DoseTime   `json:"doseTime"`
	Dose     *fraction.Fraction `json:"dose"`
	Skip     bool               `json:"skip"`
}

// IntakesByDrugIDHandler returns the intakes of a drug, newest first
func (in Intake) IntakesByDrugIDHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	dbResp, err := in.DB.DoseEventsForDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get intakes", statusFor(err), w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.DoseEvent{}
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// CreateIntakeHandler records an intake and takes the dose from the supply
func (in Intake) CreateIntakeHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]

	var req IntakeRequest
	if err := decodeBody(r, &req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	drug, err := in.DB.FindDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}

	event, err := in.newEvent(drug, &req)
	if err != nil {
		config.ErrorStatus("invalid intake", statusFor(err), w, err)
		return
	}
	if err := in.DB.CreateDoseEvent(ctx, event); err != nil {
		config.ErrorStatus("failed to create intake", statusFor(err), w, err)
		return
	}
	if err := in.adjustSupply(ctx, drug, event.Dose.Negate()); err != nil {
		config.ErrorStatus("failed to update supply", statusFor(err), w, err)
		return
	}
	zap.S().Infow("intake recorded", "drug", drug.Name, "doseTime", event.DoseTime, "dose", event.Dose, "skip", event.IsSkip())
	writeJSON(w, http.StatusCreated, event)
}

func (in Intake) newEvent(drug *models.Drug, req *IntakeRequest) (*models.DoseEvent, error) {
	now := in.Clock.Now()
	doseTimes := in.Settings.DoseTimeClock()

	event := &models.DoseEvent{DrugID: drug.ID, Timestamp: now}
	if req.DoseTime != nil {
		event.DoseTime = *req.DoseTime
		event.Date = doseTimes.ActiveDate(now)
	} else {
		event.DoseTime, event.Date = doseTimes.ActiveOrNextDate(now)
	}
	if req.Date != "" {
		date, err := clock.ParseDate(req.Date)
		if err != nil {
			return nil, models.ErrInvalidFormat
		}
		event.Date = date
	}

	switch {
	case req.Skip:
		event.Dose = fraction.Zero
	case req.Dose != nil:
		event.Dose = *req.Dose
	default:
		dose, err := schedule.GetDose(drug, event.DoseTime, event.Date)
		if err != nil {
			return nil, err
		}
		event.Dose = dose
	}
	return event, event.Validate()
}

// DeleteIntakeHandler deletes an intake and returns its dose to the supply
func (in Intake) DeleteIntakeHandler(w http.ResponseWriter, r *http.Request) {
	intakeID := mux.Vars(r)["intake_id"]

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	event, err := in.DB.FindDoseEvent(ctx, intakeID)
	if err != nil {
		config.ErrorStatus("failed to get intake by ID", statusFor(err), w, err)
		return
	}
	if err := in.DB.DeleteDoseEvent(ctx, intakeID); err != nil {
		config.ErrorStatus("failed to delete intake", statusFor(err), w, err)
		return
	}

	drug, err := in.DB.FindDrug(ctx, event.DrugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	if err := in.adjustSupply(ctx, drug, event.Dose); err != nil {
		config.ErrorStatus("failed to update supply", statusFor(err), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adjustSupply adds delta to a tracked supply, never going below zero.
func (in Intake) adjustSupply(ctx context.Context, drug *models.Drug, delta fraction.Fraction) error {
	if drug.RefillSize == 0 || delta.IsZero() {
		return nil
	}
	supply := drug.CurrentSupply.Add(delta)
	if supply.IsNegative() {
		supply = fraction.Zero
	}
	if err := drug.SetCurrentSupply(supply); err != nil {
		return err
	}
	return in.DB.UpdateDrug(ctx, drug)
}
