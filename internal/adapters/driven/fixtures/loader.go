// Package fixtures reads seed data from YAML.
//
// A fixture file has two top-level keys:
//
//	documents:
//	  - id: offer-ada
//	    type: OFFER_LETTER
//	    startDate: "2020-02-01T00:00:00Z"
//	relations:
//	  employee:
//	    - id: ada
//	      docRefs: [offer-ada]
//
// Every record needs an id unique within its collection. Dates are RFC 3339
// strings. The built-in demo set is embedded in the binary.
package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

//go:embed demo.yaml
var demo []byte

// Ensure Loader implements the interface.
var _ driven.FixtureLoader = (*Loader)(nil)

// Loader reads fixture files from disk or the embedded demo set.
type Loader struct{}

// NewLoader creates a fixture loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fixtureFile struct {
	Documents []map[string]any            `yaml:"documents"`
	Relations map[string][]map[string]any `yaml:"relations"`
}

// Load parses the file at path, or the demo set when path is empty.
func (l *Loader) Load(_ context.Context, path string) (*domain.Fixture, error) {
	data := demo
	source := "demo.yaml"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		data, source = raw, path
	}
	fixture, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return fixture, nil
}

// Parse decodes fixture YAML.
func Parse(data []byte) (*domain.Fixture, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	fixture := &domain.Fixture{Relations: make(map[domain.Entity][]domain.FixtureRecord)}

	docs, err := records(domain.DocumentCollection, file.Documents)
	if err != nil {
		return nil, err
	}
	fixture.Documents = docs

	entities := make([]string, 0, len(file.Relations))
	for entity := range file.Relations {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	for _, entity := range entities {
		recs, err := records(entity, file.Relations[entity])
		if err != nil {
			return nil, err
		}
		fixture.Relations[domain.Entity(entity)] = recs
	}

	return fixture, nil
}

func records(collection string, raw []map[string]any) ([]domain.FixtureRecord, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]domain.FixtureRecord, 0, len(raw))
	for i, item := range raw {
		id, ok := item["id"].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %s record %d has no id", domain.ErrInvalidInput, collection, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s record %q appears twice", domain.ErrInvalidInput, collection, id)
		}
		seen[id] = true

		data := make(domain.Record, len(item))
		for k, v := range item {
			if k == "id" {
				continue
			}
			data[k] = normalise(v)
		}
		out = append(out, domain.FixtureRecord{ID: id, Data: data})
	}
	return out, nil
}

// normalise converts YAML scalars to the shapes stores hand back.
func normalise(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case time.Time:
		return domain.FormatTime(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalise(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalise(item)
		}
		return out
	default:
		return val
	}
}
