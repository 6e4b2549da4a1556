package config

import (
	"time"

	"github.com/ncobase/scoutcore/concurrency/worker"
	"github.com/ncobase/scoutcore/formula"

	"github.com/spf13/viper"
)

// Recompute configures the batch recompute worker pool
type Recompute struct {
	Workers     int           `yaml:"workers" validate:"gte=1,lte=256"`
	QueueSize   int           `yaml:"queue_size" validate:"gte=1"`
	TaskTimeout time.Duration `yaml:"task_timeout" validate:"gte=0"`
}

// WorkerConfig converts the section into a worker pool configuration
func (r *Recompute) WorkerConfig() *worker.Config {
	return &worker.Config{
		MaxWorkers:  r.Workers,
		QueueSize:   r.QueueSize,
		TaskTimeout: r.TaskTimeout,
	}
}

// Formula configures formula engine limits
type Formula struct {
	MaxDepth  int `yaml:"max_depth" validate:"gte=1"`
	MaxLength int `yaml:"max_length" validate:"gte=1"`
	MaxPasses int `yaml:"max_passes" validate:"gte=1"`
}

// EngineConfig converts the section into a formula engine configuration
func (f *Formula) EngineConfig() *formula.Config {
	return &formula.Config{
		MaxDepth:  f.MaxDepth,
		MaxLength: f.MaxLength,
		MaxPasses: f.MaxPasses,
	}
}

func getRecomputeConfig(v *viper.Viper) *Recompute {
	return &Recompute{
		Workers:     getIntOrDefault(v, "recompute.workers", 4),
		QueueSize:   getIntOrDefault(v, "recompute.queue_size", 256),
		TaskTimeout: getDurationOrDefault(v, "recompute.task_timeout", 30*time.Second),
	}
}

func getFormulaConfig(v *viper.Viper) *Formula {
	defaults := formula.DefaultConfig()
	return &Formula{
		MaxDepth:  getIntOrDefault(v, "formula.max_depth", defaults.MaxDepth),
		MaxLength: getIntOrDefault(v, "formula.max_length", defaults.MaxLength),
		MaxPasses: getIntOrDefault(v, "formula.max_passes", defaults.MaxPasses),
	}
}
