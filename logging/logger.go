package logging

import (
	"go.uber.org/zap"
)

// New creates a zap logger suited to the given environment. Unknown
// environments fall back to the example logger used for local runs.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}
