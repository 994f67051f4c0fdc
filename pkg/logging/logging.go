// Package logging builds the engine's zap logger and provides log sanitizers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New constructs the root logger for the given environment.
// "local" and "dev" get human-readable development output; everything else
// gets production JSON encoding at Info level.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "local", "dev":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
