package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/api"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/databases"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/intake"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/schedule"
	"github.com/linesmerrill/dose-reminder-api/supply"
)

// Drug exported for testing purposes
type Drug struct {
	DB       databases.EntryStore
	Clock    clock.Clock
	Settings *config.Settings
}

// DoseEntry is the dose of one dose time on one date.
type DoseEntry struct {
	DoseTime models.DoseTime   `json:"doseTime"`
	Name     string            `json:"name"`
	Dose     fraction.Fraction `json:"dose"`
	Due      bool              `json:"due"`
	Taken    bool              `json:"taken"`
}

// DosesResponse answers GET /drugs/{drug_id}/doses.
type DosesResponse struct {
	DrugID  string      `json:"drugId"`
	Date    string      `json:"date"`
	HasDose bool        `json:"hasDose"`
	Doses   []DoseEntry `json:"doses"`
	// MissingDate is the last earlier due date with an unrecorded dose.
	MissingDate string `json:"missingDate,omitempty"`
}

// SupplyResponse answers GET /drugs/{drug_id}/supply.
type SupplyResponse struct {
	DrugID        string            `json:"drugId"`
	Date          string            `json:"date"`
	CurrentSupply fraction.Fraction `json:"currentSupply"`
	DailyDose     fraction.Fraction `json:"dailyDose"`
	// DaysLeft is omitted when the supply of the drug is not tracked.
	DaysLeft     *int `json:"daysLeft,omitempty"`
	LowSupply    bool `json:"lowSupply"`
	ExpiringSoon bool `json:"expiringSoon"`
}

// DrugsHandler returns all drugs
func (d Drug) DrugsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.QueryContext(r)
	defer cancel()

	dbResp, err := d.DB.Drugs(ctx)
	if err != nil {
		config.ErrorStatus("failed to get drugs", statusFor(err), w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Drug{}
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// DrugByIDHandler returns a drug by ID
func (d Drug) DrugByIDHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	dbResp, err := d.DB.FindDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// CreateDrugHandler creates a drug together with its schedules
func (d Drug) CreateDrugHandler(w http.ResponseWriter, r *http.Request) {
	var drug models.Drug
	if err := decodeBody(r, &drug); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := drug.Validate(); err != nil {
		config.ErrorStatus("invalid drug", http.StatusBadRequest, w, err)
		return
	}

	today := clock.Today(d.Clock)
	for _, date := range []*time.Time{&drug.RepeatOrigin, &drug.ScheduleEndDate, &drug.ExpirationDate} {
		if !date.IsZero() {
			*date = clock.Date(*date)
		}
	}
	if drug.RepeatMode.RequiresOrigin() && drug.RepeatOrigin.IsZero() {
		drug.RepeatOrigin = today
	}
	drug.LastScheduleUpdateDate = today

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	if err := d.DB.CreateDrug(ctx, &drug); err != nil {
		config.ErrorStatus("failed to create drug", statusFor(err), w, err)
		return
	}
	zap.S().Infow("drug created", "id", drug.ID, "name", drug.Name)
	writeJSON(w, http.StatusCreated, drug)
}

// UpdateDrugHandler applies the posted drug to the stored one. Changes to
// the dosing stamp the schedule update date so earlier doses are not
// reported as missing.
func (d Drug) UpdateDrugHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]

	var in models.Drug
	if err := decodeBody(r, &in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := in.Validate(); err != nil {
		config.ErrorStatus("invalid drug", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	drug, err := d.DB.FindDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	if err := applyDrug(drug, &in, clock.Today(d.Clock)); err != nil {
		config.ErrorStatus("invalid drug", statusFor(err), w, err)
		return
	}
	if err := d.DB.UpdateDrug(ctx, drug); err != nil {
		config.ErrorStatus("failed to update drug", statusFor(err), w, err)
		return
	}
	writeJSON(w, http.StatusOK, drug)
}

func applyDrug(drug, in *models.Drug, today time.Time) error {
	drug.Name = in.Name
	drug.Active = in.Active
	drug.Comment = in.Comment
	if in.HasExpirationDate() {
		drug.ExpirationDate = clock.Date(in.ExpirationDate)
	} else {
		drug.ExpirationDate = time.Time{}
	}

	for _, dt := range models.DoseTimes {
		if err := drug.SetDose(dt, in.Doses[dt], today); err != nil {
			return err
		}
	}
	if in.RepeatMode != drug.RepeatMode || in.RepeatArg != drug.RepeatArg ||
		(!in.RepeatOrigin.IsZero() && !clock.Date(in.RepeatOrigin).Equal(drug.RepeatOrigin)) {
		if err := drug.SetRepeat(in.RepeatMode, in.RepeatArg, in.RepeatOrigin, today); err != nil {
			return err
		}
	}
	if !clock.Date(in.ScheduleEndDate).Equal(clock.Date(drug.ScheduleEndDate)) {
		if err := drug.SetScheduleEndDate(in.ScheduleEndDate, today); err != nil {
			return err
		}
	}
	drug.SetAsNeeded(in.AsNeeded, today)

	if err := drug.SetRefillSize(in.RefillSize); err != nil {
		return err
	}
	return drug.SetCurrentSupply(in.CurrentSupply)
}

// DeleteDrugHandler deletes a drug with its schedules and intakes
func (d Drug) DeleteDrugHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	if err := d.DB.DeleteDrug(ctx, drugID); err != nil {
		config.ErrorStatus("failed to delete drug", statusFor(err), w, err)
		return
	}
	zap.S().Infow("drug deleted", "id", drugID)
	w.WriteHeader(http.StatusNoContent)
}

// DrugDosesHandler returns the doses of a drug on the date given by the
// "date" query parameter, today by default
func (d Drug) DrugDosesHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]
	date, err := d.dateParam(r)
	if err != nil {
		config.ErrorStatus("failed to parse date", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	drug, err := d.DB.FindDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	events, err := d.DB.DoseEventsForDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get intakes", statusFor(err), w, err)
		return
	}
	idx := intake.NewIndex(events)

	resp := DosesResponse{
		DrugID:  drug.ID,
		Date:    clock.FormatDate(date),
		HasDose: schedule.HasDoseOnDate(drug, date),
		Doses:   make([]DoseEntry, 0, models.DoseTimeCount),
	}
	for _, dt := range models.DoseTimes {
		dose, err := schedule.GetDose(drug, dt, date)
		if err != nil {
			config.ErrorStatus("failed to get dose", statusFor(err), w, err)
			return
		}
		resp.Doses = append(resp.Doses, DoseEntry{
			DoseTime: dt,
			Name:     dt.String(),
			Dose:     dose,
			Due:      schedule.IsDoseDue(drug, dt, date),
			Taken:    idx.Has(drug.ID, date, dt),
		})
	}
	if missing, ok := intake.MissingDose(drug, date, idx); ok {
		resp.MissingDate = clock.FormatDate(missing)
	}
	writeJSON(w, http.StatusOK, resp)
}

// DrugSupplyHandler returns the supply forecast of a drug
func (d Drug) DrugSupplyHandler(w http.ResponseWriter, r *http.Request) {
	drugID := mux.Vars(r)["drug_id"]
	date, err := d.dateParam(r)
	if err != nil {
		config.ErrorStatus("failed to parse date", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.QueryContext(r)
	defer cancel()

	drug, err := d.DB.FindDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get drug by ID", statusFor(err), w, err)
		return
	}
	events, err := d.DB.DoseEventsForDrug(ctx, drugID)
	if err != nil {
		config.ErrorStatus("failed to get intakes", statusFor(err), w, err)
		return
	}

	f := supply.New(intake.NewIndex(events), d.Clock, d.Settings.Threshold())
	resp := SupplyResponse{
		DrugID:        drug.ID,
		Date:          clock.FormatDate(date),
		CurrentSupply: drug.CurrentSupply,
		DailyDose:     supply.DailyDose(drug, date),
		LowSupply:     f.HasLowSupplies(drug, date),
		ExpiringSoon:  f.WillExpireSoon(drug, date),
	}
	if days, ok := f.DaysLeft(drug, date); ok {
		resp.DaysLeft = &days
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d Drug) dateParam(r *http.Request) (time.Time, error) {
	text := r.URL.Query().Get("date")
	if text == "" {
		return clock.Today(d.Clock), nil
	}
	return clock.ParseDate(text)
}
