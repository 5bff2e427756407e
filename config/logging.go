package config

import (
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/logging"
)

// setLogger builds the logger for env. Unknown environments, including
// local development, get the example logger.
func setLogger(env string) (*zap.Logger, error) {
	return logging.New(env)
}
