package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
app_name: scout-test
logger:
  level: debug
  format: json
data:
  mongodb:
    master:
      uri: mongodb://primary:27017
    slaves:
      - uri: mongodb://replica-1:27017
        weight: 3
      - uri: mongodb://replica-2:27017
      - weight: 2
    strategy: weight
    database: scouting
recompute:
  workers: 8
  task_timeout: 5s
formula:
  max_depth: 10
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}

	if cfg.AppName != "scout-test" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "json" || cfg.Logger.Output != "stderr" {
		t.Errorf("Logger = %+v", cfg.Logger)
	}

	mongo := cfg.Data.MongoDB
	if mongo.Master.URI != "mongodb://primary:27017" || mongo.Database != "scouting" || mongo.Strategy != "weight" {
		t.Errorf("MongoDB = %+v", mongo)
	}
	if len(mongo.Slaves) != 2 {
		t.Fatalf("got %d slaves, want 2", len(mongo.Slaves))
	}
	if mongo.Slaves[0].Weight != 3 || mongo.Slaves[1].Weight != 1 {
		t.Errorf("slave weights = %d, %d, want 3, 1", mongo.Slaves[0].Weight, mongo.Slaves[1].Weight)
	}

	wc := cfg.Recompute.WorkerConfig()
	if wc.MaxWorkers != 8 || wc.QueueSize != 256 || wc.TaskTimeout != 5*time.Second {
		t.Errorf("WorkerConfig() = %+v", wc)
	}
	ec := cfg.Formula.EngineConfig()
	if ec.MaxDepth != 10 || ec.MaxLength != 4096 || ec.MaxPasses != 16 {
		t.Errorf("EngineConfig() = %+v", ec)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"strategy":    "data:\n  mongodb:\n    strategy: fastest\n",
		"workers":     "recompute:\n  workers: 0\n",
		"log level":   "logger:\n  level: loud\n",
		"output file": "logger:\n  output: file\n",
	}

	for name, content := range tests {
		path := writeConfig(t, "config.yaml", content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: LoadConfig() should return error", name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() of a missing file should return error")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SCOUTCORE_RECOMPUTE_WORKERS", "12")
	path := writeConfig(t, "config.yaml", "app_name: scout\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.Recompute.Workers != 12 {
		t.Errorf("Workers = %d, want 12", cfg.Recompute.Workers)
	}
}

func TestProviders(t *testing.T) {
	if ProvideRecomputeConfig(nil).MaxWorkers != 10 {
		t.Error("ProvideRecomputeConfig(nil) should return worker defaults")
	}
	if ProvideFormulaConfig(nil).MaxPasses != 16 {
		t.Error("ProvideFormulaConfig(nil) should return formula defaults")
	}
	if ProvideLoggerConfig(nil) != nil || ProvideDataConfig(nil) != nil {
		t.Error("providers should return nil for nil config")
	}
}
