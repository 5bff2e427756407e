package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/dose-reminder-api/api/handlers"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/databases/mocks"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/models"
)

var testNow = time.Date(2024, 6, 10, 8, 0, 0, 0, time.Local)

func morningDrug() *models.Drug {
	return &models.Drug{
		ID:            "d1",
		Name:          "Aspirin",
		Active:        true,
		Doses:         models.Doses{fraction.FromInt(1)},
		RefillSize:    30,
		CurrentSupply: fraction.FromInt(5),
	}
}

func newDrugHandler(t *testing.T) (handlers.Drug, *mocks.EntryStore) {
	db := mocks.NewEntryStore(t)
	return handlers.Drug{DB: db, Clock: clock.NewManaged(testNow), Settings: config.DefaultSettings()}, db
}

func serve(t *testing.T, h http.HandlerFunc, method, target, body string, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestDrug_DrugsHandler(t *testing.T) {
	d, db := newDrugHandler(t)
	db.On("Drugs", mock.Anything).Return([]models.Drug{*morningDrug()}, nil)

	rr := serve(t, d.DrugsHandler, "GET", "/api/v1/drugs", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []models.Drug
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Aspirin", got[0].Name)
}

func TestDrug_DrugsHandlerEmpty(t *testing.T) {
	d, db := newDrugHandler(t)
	db.On("Drugs", mock.Anything).Return(nil, nil)

	rr := serve(t, d.DrugsHandler, "GET", "/api/v1/drugs", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestDrug_DrugsHandlerFailed(t *testing.T) {
	d, db := newDrugHandler(t)
	db.On("Drugs", mock.Anything).Return(nil, errors.New("mocked-error"))

	rr := serve(t, d.DrugsHandler, "GET", "/api/v1/drugs", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, `{"response": "failed to get drugs, mocked-error"}`, rr.Body.String())
}

func TestDrug_DrugByIDHandlerNotFound(t *testing.T) {
	d, db := newDrugHandler(t)
	db.On("FindDrug", mock.Anything, "nope").Return(nil, models.ErrNotFound)

	rr := serve(t, d.DrugByIDHandler, "GET", "/api/v1/drugs/nope", "", map[string]string{"drug_id": "nope"})

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `{"response": "failed to get drug by ID, not found"}`, rr.Body.String())
}

func TestDrug_CreateDrugHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOrigin time.Time
	}{
		{
			name:       "daily drug",
			body:       `{"name":"Aspirin","active":true,"doses":["1","0","1/2","0"]}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "every other day gets today as origin",
			body:       `{"name":"Vitamin D","active":true,"doses":["1","0","0","0"],"repeatMode":1,"repeatArg":2}`,
			wantStatus: http.StatusCreated,
			wantOrigin: clock.NewDate(2024, 6, 10),
		},
		{
			name:       "missing name",
			body:       `{"active":true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"name":"Aspirin","colour":"red"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative dose",
			body:       `{"name":"Aspirin","doses":["-1","0","0","0"]}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, db := newDrugHandler(t)
			db.On("CreateDrug", mock.Anything, mock.AnythingOfType("*models.Drug")).
				Run(func(args mock.Arguments) {
					args.Get(1).(*models.Drug).ID = "new-id"
				}).Return(nil).Maybe()

			rr := serve(t, d.CreateDrugHandler, "POST", "/api/v1/drugs", tt.body, nil)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusCreated {
				db.AssertNotCalled(t, "CreateDrug", mock.Anything, mock.Anything)
				return
			}
			var got models.Drug
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "new-id", got.ID)
			assert.True(t, got.LastScheduleUpdateDate.Equal(clock.NewDate(2024, 6, 10)))
			assert.True(t, got.RepeatOrigin.Equal(tt.wantOrigin), "origin %s", got.RepeatOrigin)
		})
	}
}

func TestDrug_CreateDrugHandlerTruncatesDates(t *testing.T) {
	d, db := newDrugHandler(t)
	var stored *models.Drug
	db.On("CreateDrug", mock.Anything, mock.AnythingOfType("*models.Drug")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.Drug)
		}).Return(nil)

	body := `{"name":"Vitamin D","active":true,"doses":["1","0","0","0"],"repeatMode":1,"repeatArg":2,
		"repeatOrigin":"2024-06-01T15:30:00Z","scheduleEndDate":"2024-07-01T23:00:00Z","expirationDate":"2025-01-31T08:15:00Z"}`
	rr := serve(t, d.CreateDrugHandler, "POST", "/api/v1/drugs", body, nil)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, stored)
	assert.Equal(t, clock.NewDate(2024, 6, 1), stored.RepeatOrigin)
	assert.Equal(t, clock.NewDate(2024, 7, 1), stored.ScheduleEndDate)
	assert.Equal(t, clock.NewDate(2025, 1, 31), stored.ExpirationDate)
}

func TestDrug_UpdateDrugHandlerStampsScheduleChange(t *testing.T) {
	d, db := newDrugHandler(t)
	stored := morningDrug()
	stored.LastScheduleUpdateDate = clock.NewDate(2024, 5, 1)
	db.On("FindDrug", mock.Anything, "d1").Return(stored, nil)
	db.On("UpdateDrug", mock.Anything, mock.MatchedBy(func(drug *models.Drug) bool {
		return drug.Doses[models.DoseTimeMorning] == fraction.FromInt(2)
	})).Return(nil)

	body := `{"name":"Aspirin","active":true,"doses":["2","0","0","0"],"refillSize":30,"currentSupply":"5"}`
	rr := serve(t, d.UpdateDrugHandler, "PUT", "/api/v1/drugs/d1", body, map[string]string{"drug_id": "d1"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, stored.LastScheduleUpdateDate.Equal(clock.NewDate(2024, 6, 10)))
}

func TestDrug_UpdateDrugHandlerKeepsStampForSupplyChange(t *testing.T) {
	d, db := newDrugHandler(t)
	stored := morningDrug()
	stored.LastScheduleUpdateDate = clock.NewDate(2024, 5, 1)
	db.On("FindDrug", mock.Anything, "d1").Return(stored, nil)
	db.On("UpdateDrug", mock.Anything, stored).Return(nil)

	body := `{"name":"Aspirin","active":true,"doses":["1","0","0","0"],"refillSize":30,"currentSupply":"30"}`
	rr := serve(t, d.UpdateDrugHandler, "PUT", "/api/v1/drugs/d1", body, map[string]string{"drug_id": "d1"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, fraction.FromInt(30), stored.CurrentSupply)
	assert.True(t, stored.LastScheduleUpdateDate.Equal(clock.NewDate(2024, 5, 1)))
}

func TestDrug_DeleteDrugHandler(t *testing.T) {
	d, db := newDrugHandler(t)
	db.On("DeleteDrug", mock.Anything, "d1").Return(nil)

	rr := serve(t, d.DeleteDrugHandler, "DELETE", "/api/v1/drugs/d1", "", map[string]string{"drug_id": "d1"})

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestDrug_DrugDosesHandler(t *testing.T) {
	d, db := newDrugHandler(t)
	drug := morningDrug()
	db.On("FindDrug", mock.Anything, "d1").Return(drug, nil)
	db.On("DoseEventsForDrug", mock.Anything, "d1").Return([]models.DoseEvent{
		{ID: "e1", DrugID: "d1", Date: clock.NewDate(2024, 6, 10), DoseTime: models.DoseTimeMorning, Dose: fraction.FromInt(1)},
	}, nil)

	rr := serve(t, d.DrugDosesHandler, "GET", "/api/v1/drugs/d1/doses?date=2024-06-10", "", map[string]string{"drug_id": "d1"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got handlers.DosesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "2024-06-10", got.Date)
	assert.True(t, got.HasDose)
	require.Len(t, got.Doses, models.DoseTimeCount)
	assert.Equal(t, handlers.DoseEntry{
		DoseTime: models.DoseTimeMorning, Name: "morning", Dose: fraction.FromInt(1), Due: true, Taken: true,
	}, got.Doses[0])
	assert.False(t, got.Doses[1].Due)
	// nothing was recorded on the ninth
	assert.Equal(t, "2024-06-09", got.MissingDate)
}

func TestDrug_DrugDosesHandlerBadDate(t *testing.T) {
	d, _ := newDrugHandler(t)

	rr := serve(t, d.DrugDosesHandler, "GET", "/api/v1/drugs/d1/doses?date=10.06.2024", "", map[string]string{"drug_id": "d1"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDrug_DrugSupplyHandler(t *testing.T) {
	d, db := newDrugHandler(t)
	db.On("FindDrug", mock.Anything, "d1").Return(morningDrug(), nil)
	db.On("DoseEventsForDrug", mock.Anything, "d1").Return(nil, nil)

	rr := serve(t, d.DrugSupplyHandler, "GET", "/api/v1/drugs/d1/supply", "", map[string]string{"drug_id": "d1"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got handlers.SupplyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotNil(t, got.DaysLeft)
	// today's morning dose is still pending
	assert.Equal(t, 4, *got.DaysLeft)
	assert.True(t, got.LowSupply)
	assert.False(t, got.ExpiringSoon)
	assert.Equal(t, fraction.FromInt(1), got.DailyDose)
}

func TestDrug_DrugSupplyHandlerUntracked(t *testing.T) {
	d, db := newDrugHandler(t)
	drug := morningDrug()
	drug.RefillSize = 0
	db.On("FindDrug", mock.Anything, "d1").Return(drug, nil)
	db.On("DoseEventsForDrug", mock.Anything, "d1").Return(nil, nil)

	rr := serve(t, d.DrugSupplyHandler, "GET", "/api/v1/drugs/d1/supply", "", map[string]string{"drug_id": "d1"})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "daysLeft")
}
