package log

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ncobase/scoutcore/config"

	"github.com/sirupsen/logrus"
)

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	if id == "" {
		t.Fatal("EnsureTraceID() returned empty id")
	}
	again, same := EnsureTraceID(ctx)
	if same != id || getTraceID(again) != id {
		t.Errorf("EnsureTraceID() replaced existing id %q with %q", id, same)
	}
	if getTraceID(context.Background()) != "" {
		t.Error("background context should carry no trace id")
	}
}

func TestEntryFields(t *testing.T) {
	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetVersion("v1.2.3")

	ctx := SetTraceID(context.Background(), "trace-1")
	l.EntryWithFields(ctx, logrus.Fields{"metric_id": "half"}).Warn("formula failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v: %s", err, buf.String())
	}
	for key, want := range map[string]string{
		TraceIDKey:  "trace-1",
		VersionKey:  "v1.2.3",
		"metric_id": "half",
		"msg":       "formula failed",
		"level":     "warning",
	} {
		if entry[key] != want {
			t.Errorf("field %s = %v, want %s", key, entry[key], want)
		}
	}
}

func TestInit(t *testing.T) {
	l := New()
	path := filepath.Join(t.TempDir(), "logs", "scoutcore.log")

	cleanup, err := l.Init(&config.Logger{Level: "debug", Format: "text", Output: "file", OutputFile: path})
	if err != nil {
		t.Fatalf("Init() unexpected error: %v", err)
	}
	l.Debugf(context.Background(), "recomputed %d records", 3)
	cleanup()

	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "scoutcore.*.log"))
	if len(matches) != 1 {
		t.Fatalf("log files = %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "recomputed 3 records") {
		t.Errorf("log file content = %q", data)
	}

	if _, err := New().Init(&config.Logger{Level: "loud"}); err == nil {
		t.Error("Init() with bad level should return error")
	}
}
