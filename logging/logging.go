package logging

import "go.uber.org/zap"

// New creates a new zap logger for the given environment. Production and
// development get their zap presets, anything else the example logger.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	}
	return zap.NewExample(), nil
}

// Named returns a child of the global sugared logger.
func Named(name string) *zap.SugaredLogger {
	return zap.S().Named(name)
}
