package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/api"
	"github.com/linesmerrill/dose-reminder-api/api/scheduler"
	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/databases"
	"github.com/linesmerrill/dose-reminder-api/logging"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/notify"
)

// RequestTimeout bounds every API request except the websocket stream.
const RequestTimeout = 30 * time.Second

// Reminders is the reminder loop as seen by the API.
type Reminders interface {
	State() scheduler.State
	RequestSnooze() bool
	Restart(forced bool)
}

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Clock     clock.Clock
	Store     databases.EntryStore
	Hub       *notify.Hub
	Notifier  *scheduler.Notifier
	Scheduler *scheduler.Scheduler
	Metrics   *api.Metrics

	client       databases.ClientHelper
	subscription *databases.Subscription
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	if a.Metrics == nil {
		a.Metrics = api.NewMetrics()
	}

	d := Drug{DB: a.Store, Clock: a.Clock, Settings: a.Config.Settings}
	in := Intake{DB: a.Store, Clock: a.Clock, Settings: a.Config.Settings}
	s := Schedule{DB: a.Store, Clock: a.Clock}
	rem := Reminder{Notifier: a.Notifier, Hub: a.Hub, Clock: a.Clock, Settings: a.Config.Settings}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/ws", a.Hub)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.Middleware, api.MetricsMiddleware(a.Metrics), api.TimeoutMiddleware(RequestTimeout))

	apiCreate.HandleFunc("/drugs", d.DrugsHandler).Methods("GET")
	apiCreate.HandleFunc("/drugs", d.CreateDrugHandler).Methods("POST")
	apiCreate.HandleFunc("/drugs/{drug_id}", d.DrugByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/drugs/{drug_id}", d.UpdateDrugHandler).Methods("PUT")
	apiCreate.HandleFunc("/drugs/{drug_id}", d.DeleteDrugHandler).Methods("DELETE")
	apiCreate.HandleFunc("/drugs/{drug_id}/doses", d.DrugDosesHandler).Methods("GET")
	apiCreate.HandleFunc("/drugs/{drug_id}/supply", d.DrugSupplyHandler).Methods("GET")

	apiCreate.HandleFunc("/drugs/{drug_id}/intakes", in.IntakesByDrugIDHandler).Methods("GET")
	apiCreate.HandleFunc("/drugs/{drug_id}/intakes", in.CreateIntakeHandler).Methods("POST")
	apiCreate.HandleFunc("/intakes/{intake_id}", in.DeleteIntakeHandler).Methods("DELETE")

	apiCreate.HandleFunc("/drugs/{drug_id}/schedules", s.CreateScheduleHandler).Methods("POST")
	apiCreate.HandleFunc("/schedules/{schedule_id}", s.DeleteScheduleHandler).Methods("DELETE")

	apiCreate.HandleFunc("/dosetime", rem.DoseTimeHandler).Methods("GET")
	apiCreate.HandleFunc("/reminders", rem.RemindersHandler).Methods("GET")
	apiCreate.HandleFunc("/reminders/snooze", rem.SnoozeHandler).Methods("POST")
	apiCreate.HandleFunc("/reminders/restart", rem.RestartHandler).Methods("POST")
	apiCreate.HandleFunc("/settings", rem.SettingsHandler).Methods("GET")
	apiCreate.HandleFunc("/settings", rem.UpdateSettingsHandler).Methods("PUT")

	apiCreate.HandleFunc("/metrics", a.metricsHandler).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database, set up the
// reminder loop and create a router
func (a *App) Initialize(ctx context.Context) error {
	if a.Clock == nil {
		a.Clock = clock.New()
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.client = client
	zap.S().Info("dose-reminder-api has connected to the database")

	a.Store = databases.NewStore(databases.NewDatabase(&a.Config, client), a.Clock)
	a.Hub = notify.NewHub(a.Clock)

	sinks := notify.Multi{notify.NewLog(logging.Named("reminders")), a.Hub}
	if a.Config.DesktopNotifications {
		sinks = append(sinks, notify.NewDesktop())
	}
	if a.Config.SendgridAPIKey != "" && a.Config.AlertEmail != "" {
		mailer := notify.NewMailer(a.Config.SendgridAPIKey, a.Config.AlertEmail)
		sinks = append(sinks, notify.Filter{Sink: mailer, IDs: []int{scheduler.ReminderSupply}})
		a.Scheduler = scheduler.NewScheduler(a.Config.SupplyDigestSpec, a.Store, a.Config.Settings, a.Clock, mailer)
	}

	a.Notifier = scheduler.NewNotifier(a.Store, a.Config.Settings, a.Clock, sinks)
	a.subscription = a.Store.Subscribe(func(c databases.Change) {
		zap.S().Debugw("entry changed, restarting reminders", "kind", c.Kind, "id", c.ID, "op", c.Op)
		go a.Notifier.Restart(true)
	})

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close releases what Initialize acquired.
func (a *App) Close(ctx context.Context) error {
	if a.subscription != nil {
		a.subscription.Unsubscribe()
	}
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// MetricsResponse answers GET /metrics.
type MetricsResponse struct {
	Summary api.Summary        `json:"summary"`
	Routes  []api.RouteMetrics `json:"routes"`
}

// metricsHandler returns the request metrics; "limit" caps the routes listed
func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			config.ErrorStatus("failed to parse limit", http.StatusBadRequest, w, models.ErrInvalidFormat)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, MetricsResponse{
		Summary: a.Metrics.Summary(),
		Routes:  a.Metrics.SlowestRoutes(limit),
	})
}

// statusFor maps an engine or store error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnsupportedOperation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}

func decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidFormat, err)
	}
	return nil
}
