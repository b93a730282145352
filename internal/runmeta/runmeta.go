// Package runmeta records what a pipeline run did: which inputs it read,
// which parameters it ran with, per-stage row counts and durations. One YAML
// file per run, named by a fresh run ID, so output tables stay free of
// wall-clock noise while runs remain auditable.
package runmeta

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

// Stage is one recorded pipeline stage.
type Stage struct {
	Name       string        `yaml:"name"`
	Rows       int           `yaml:"rows"`
	Skipped    int           `yaml:"skipped,omitempty"`
	Duration   time.Duration `yaml:"-"`
	DurationMS int64         `yaml:"duration_ms"`
}

// Run accumulates metadata over one pipeline invocation.
type Run struct {
	mu sync.Mutex

	ID        string            `yaml:"run_id"`
	StartedAt time.Time         `yaml:"started_at"`
	Inputs    map[string]string `yaml:"inputs"`
	Params    map[string]any    `yaml:"params"`
	Stages    []Stage           `yaml:"stages"`
}

// NewRun starts a run record with a fresh ID.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Inputs:    make(map[string]string),
		Params:    make(map[string]any),
	}
}

// AddInput records a named input path.
func (r *Run) AddInput(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Inputs[name] = path
}

// AddParam records one effective parameter value.
func (r *Run) AddParam(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Params[name] = value
}

// RecordStage appends a completed stage.
func (r *Run) RecordStage(name string, rows, skipped int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stages = append(r.Stages, Stage{
		Name:       name,
		Rows:       rows,
		Skipped:    skipped,
		Duration:   d,
		DurationMS: d.Milliseconds(),
	})
}

// Write serializes the run record as YAML under dir, named by the run ID.
func (r *Run) Write(dir string, logger *slog.Logger) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create metadata directory: %w", err)
	}

	// Map iteration order is random; give the YAML a stable key order by
	// emitting inputs and params as sorted item lists.
	doc := struct {
		ID        string        `yaml:"run_id"`
		StartedAt string        `yaml:"started_at"`
		Inputs    yaml.MapSlice `yaml:"inputs"`
		Params    yaml.MapSlice `yaml:"params"`
		Stages    []Stage       `yaml:"stages"`
	}{
		ID:        r.ID,
		StartedAt: r.StartedAt.Format(time.RFC3339),
		Inputs:    sortedItems(r.Inputs),
		Params:    sortedParams(r.Params),
		Stages:    r.Stages,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run metadata: %w", err)
	}

	path := filepath.Join(dir, "run_"+r.ID+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run metadata: %w", err)
	}
	if logger != nil {
		logger.Info("wrote run metadata", "path", path, "run_id", r.ID, "stages", len(r.Stages))
	}
	return path, nil
}

func sortedItems(m map[string]string) yaml.MapSlice {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		out = append(out, yaml.MapItem{Key: k, Value: m[k]})
	}
	return out
}

func sortedParams(m map[string]any) yaml.MapSlice {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		out = append(out, yaml.MapItem{Key: k, Value: m[k]})
	}
	return out
}
