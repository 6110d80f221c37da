package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the process logger. Development gets the human-readable
// console encoder, everything else structured JSON.
func New() (*zap.Logger, error) {
	if os.Getenv("ENV") == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
