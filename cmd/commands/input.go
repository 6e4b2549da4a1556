package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncobase/scoutcore/recompute"

	"gopkg.in/yaml.v3"
)

// decodeFile decodes a .json, .yaml or .yml file into v. JSON numbers are
// kept as json.Number.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(v)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%s: unsupported file type, want .json, .yaml or .yml", path)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// readValues loads a raw record from a file and applies key=value
// assignments on top
func readValues(path string, assignments []string) (map[string]any, error) {
	values := make(map[string]any)
	if path != "" {
		if err := decodeFile(path, &values); err != nil {
			return nil, err
		}
	}

	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", a)
		}
		values[key] = parseScalar(raw)
	}
	return values, nil
}

// parseScalar types a command line value the way YAML does: 3 and 2.5 are
// numbers, true is a boolean, anything else is text
func parseScalar(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case int, float64, bool, string:
		return v
	default:
		return raw
	}
}

// readRecords loads a list of scouting records
func readRecords(path string) ([]*recompute.Record, error) {
	var records []*recompute.Record
	if err := decodeFile(path, &records); err != nil {
		return nil, err
	}
	for i, rec := range records {
		if rec == nil || rec.ID == "" {
			return nil, fmt.Errorf("%s: record %d has no id", path, i)
		}
	}
	return records, nil
}
