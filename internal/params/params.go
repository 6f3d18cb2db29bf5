// Package params is the runtime parameter table persistent calibration is
// installed into: a set of named float defaults with a cached count.
package params

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store holds named parameter defaults.
type Store struct {
	values     map[string]float32
	count      int
	countValid bool
}

// New returns a store with names registered at zero.
func New(names ...string) *Store {
	s := &Store{values: make(map[string]float32, len(names))}
	for _, name := range names {
		s.Register(name, 0)
	}
	return s
}

// Register adds name with a default value. Registering an existing name
// overwrites its default.
func (s *Store) Register(name string, value float32) {
	if _, ok := s.values[name]; !ok {
		s.countValid = false
	}
	s.values[name] = value
}

// SetDefault installs value as the default for a registered parameter. It
// returns false for unknown names.
func (s *Store) SetDefault(name string, value float32) bool {
	if _, ok := s.values[name]; !ok {
		return false
	}
	s.values[name] = value
	return true
}

// InvalidateCount drops the cached parameter count.
func (s *Store) InvalidateCount() {
	s.countValid = false
}

// Count returns the number of registered parameters, recomputing it only
// after InvalidateCount or a registration.
func (s *Store) Count() int {
	if !s.countValid {
		s.count = len(s.values)
		s.countValid = true
	}
	return s.count
}

// Get returns the default for name.
func (s *Store) Get(name string) (float32, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the registered names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type snapshot struct {
	Defaults map[string]float32 `yaml:"defaults"`
}

// Load registers every parameter found in the YAML snapshot at path.
// A missing file is not an error.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read params: %w", err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse params %s: %w", path, err)
	}
	for name, value := range snap.Defaults {
		s.Register(name, value)
	}
	return nil
}

// Save writes all defaults to path as YAML.
func (s *Store) Save(path string) error {
	data, err := yaml.Marshal(snapshot{Defaults: s.values})
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write params: %w", err)
	}
	return nil
}
