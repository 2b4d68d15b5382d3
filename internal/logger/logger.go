// Package logger builds the process-wide zap logger.
package logger

import (
	"os"

	"go.uber.org/zap"
)

// New returns a production zap logger, or a development one when
// APP_ENV=development.
func New() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
