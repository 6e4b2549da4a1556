// Package schema describes the derived metrics an organization defines for
// a scouting form and orders them so every metric is computed after the
// metrics it references.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncobase/scoutcore/formula"
	"github.com/ncobase/scoutcore/validator"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Scouting form types
const (
	FormMatch = "matchscouting"
	FormPit   = "pitscouting"
)

// Metric is one derived metric of a form schema
type Metric struct {
	ID      string `json:"id" yaml:"id" bson:"id" validate:"required"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Formula string `json:"formula" yaml:"formula" bson:"formula" validate:"required"`
}

// Schema is the derived metric part of an organization's form schema for
// one season
type Schema struct {
	OrgKey  string   `json:"org_key" yaml:"org_key" bson:"org_key" validate:"required"`
	Year    int      `json:"year" yaml:"year" bson:"year" validate:"gte=1992,lte=2100"`
	Form    string   `json:"form" yaml:"form" bson:"form" validate:"oneof=matchscouting pitscouting"`
	Derived []Metric `json:"derived" yaml:"derived" bson:"derived" validate:"dive"`
}

// Validate checks required fields and that every derived metric id is a
// distinct identifier formulas can reference.
func (s *Schema) Validate() error {
	var result *multierror.Error

	if err := validator.Struct(s); err != nil {
		result = multierror.Append(result, err)
	}

	seen := make(map[string]bool, len(s.Derived))
	for _, m := range s.Derived {
		if m.ID == "" {
			continue
		}
		if !formula.IsIdentifier(m.ID) {
			result = multierror.Append(result, fmt.Errorf("derived metric id %q is not a valid identifier", m.ID))
		}
		if seen[m.ID] {
			result = multierror.Append(result, fmt.Errorf("duplicate derived metric id %q", m.ID))
		}
		seen[m.ID] = true
	}

	return result.ErrorOrNil()
}

// IDs returns the derived metric ids in declaration order
func (s *Schema) IDs() []string {
	ids := make([]string, len(s.Derived))
	for i, m := range s.Derived {
		ids[i] = m.ID
	}
	return ids
}

// Parse decodes a schema. format is "json" or "yaml".
func Parse(data []byte, format string) (*Schema, error) {
	s := &Schema{}
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to decode schema: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to decode schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}
	return s, nil
}

// LoadFile reads and validates a schema from a .json, .yaml or .yml file
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	s, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
