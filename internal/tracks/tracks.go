// Package tracks provides the track reference table: the lap distance of each
// event's circuit, keyed by event display name.
//
// The default table is embedded in the binary. A YAML file with the same shape
// (event name mapped to kilometres) can replace it at start-up.
package tracks

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tracks.yaml
var defaultTable []byte

// Table maps event names to lap distances in kilometres. It is immutable after construction.
type Table struct {
	distances map[string]float64
}

// New builds a table from the given entries. Every distance must be positive.
func New(entries map[string]float64) (*Table, error) {
	distances := make(map[string]float64, len(entries))
	for name, km := range entries {
		if name == "" {
			return nil, errors.New("track entry with empty event name")
		}
		if !(km > 0) {
			return nil, fmt.Errorf("track %q: distance %v must be positive", name, km)
		}
		distances[name] = km
	}
	return &Table{distances: distances}, nil
}

// Default returns the embedded table.
func Default() (*Table, error) {
	return parse(defaultTable)
}

// Load reads a table from a YAML file. An empty path returns the embedded table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track table: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Table, error) {
	var entries map[string]float64
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse track table: %w", err)
	}
	return New(entries)
}

// DistanceOf returns the lap distance of an event's circuit in kilometres.
func (t *Table) DistanceOf(eventName string) (float64, bool) {
	km, ok := t.distances[eventName]
	return km, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.distances)
}
