package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/dosetime"
	"github.com/linesmerrill/dose-reminder-api/models"
)

// DefaultSupplyDigestSpec mails the supply digest every morning.
const DefaultSupplyDigestSpec = "0 8 * * *"

// Config holds the project config values
type Config struct {
	Url          string
	DatabaseName string
	BaseUrl      string
	Port         string
	Env          string

	SupplyDigestSpec     string
	SendgridAPIKey       string
	AlertEmail           string
	DesktopNotifications bool

	Settings *Settings
}

// New sets up all config related services
func New() *Config {
	env := os.Getenv("ENV")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	settings, err := settingsFromEnv(os.Getenv)
	if err != nil {
		zap.S().Warnw("invalid reminder settings, using defaults", "error", err)
		settings = DefaultSettings()
	}

	digest := os.Getenv("SUPPLY_DIGEST_SPEC")
	if digest == "" {
		digest = DefaultSupplyDigestSpec
	}

	return &Config{
		Url:                  os.Getenv("DB_URI"),
		DatabaseName:         os.Getenv("DB_NAME"),
		BaseUrl:              os.Getenv("BASE_URL"),
		Port:                 os.Getenv("PORT"),
		Env:                  env,
		SupplyDigestSpec:     digest,
		SendgridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		AlertEmail:           os.Getenv("ALERT_EMAIL"),
		DesktopNotifications: os.Getenv("DESKTOP_NOTIFICATIONS") == "true",
		Settings:             settings,
	}
}

var doseTimeEnv = [models.DoseTimeCount]string{
	"DOSE_TIME_MORNING",
	"DOSE_TIME_NOON",
	"DOSE_TIME_EVENING",
	"DOSE_TIME_NIGHT",
}

// settingsFromEnv reads the reminder settings; unset variables keep their
// defaults.
func settingsFromEnv(getenv func(string) string) (*Settings, error) {
	s := DefaultSettings()
	for i, key := range doseTimeEnv {
		if v := getenv(key); v != "" {
			s.DoseTimes[i] = v
		}
	}
	if v := getenv("SNOOZE_MODE"); v != "" {
		mode, err := ParseSnoozeMode(v)
		if err != nil {
			return nil, err
		}
		s.SnoozeMode = mode
	}
	if v := getenv("SNOOZE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SNOOZE_INTERVAL %q: %w", v, models.ErrInvalidFormat)
		}
		s.SnoozeInterval = Duration(d)
	}
	if v := getenv("LOW_SUPPLY_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("LOW_SUPPLY_THRESHOLD %q: %w", v, models.ErrInvalidFormat)
		}
		s.LowSupplyThreshold = n
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

func defaultWindows() [models.DoseTimeCount]string {
	var out [models.DoseTimeCount]string
	for i, w := range dosetime.DefaultWindows {
		out[i] = w.String()
	}
	return out
}
