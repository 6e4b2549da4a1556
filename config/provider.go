package config

import (
	"github.com/ncobase/scoutcore/concurrency/worker"
	"github.com/ncobase/scoutcore/formula"

	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the config package.
// It provides the main *Config and extracts sub-configurations for
// other modules to use.
//
// Usage:
//
//	wire.Build(
//	    config.ProviderSet,
//	    // ... other providers
//	)
var ProviderSet = wire.NewSet(
	GetConfig,
	ProvideLoggerConfig,
	ProvideDataConfig,
	ProvideRecomputeConfig,
	ProvideFormulaConfig,
)

// ProvideLoggerConfig provides the logger configuration.
func ProvideLoggerConfig(cfg *Config) *Logger {
	if cfg == nil {
		return nil
	}
	return cfg.Logger
}

// ProvideDataConfig provides the data layer configuration.
func ProvideDataConfig(cfg *Config) *Data {
	if cfg == nil {
		return nil
	}
	return cfg.Data
}

// ProvideRecomputeConfig provides the worker pool configuration.
func ProvideRecomputeConfig(cfg *Config) *worker.Config {
	if cfg == nil || cfg.Recompute == nil {
		return worker.DefaultConfig()
	}
	return cfg.Recompute.WorkerConfig()
}

// ProvideFormulaConfig provides the formula engine configuration.
func ProvideFormulaConfig(cfg *Config) *formula.Config {
	if cfg == nil || cfg.Formula == nil {
		return formula.DefaultConfig()
	}
	return cfg.Formula.EngineConfig()
}
