package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/metcalfc/flowread/internal/condition"
)

const presetsFileName = "presets.json"

// ErrNotFound is returned by Get for an unknown preset name.
var ErrNotFound = errors.New("preset not found")

// Store manages named reading configurations persisted as JSON.
type Store struct {
	path string
	data map[string]json.RawMessage
	mu   sync.RWMutex
}

// NewStore creates or loads presets from XDG_CONFIG_HOME/flowread/.
func NewStore() (*Store, error) {
	return Open(configDir())
}

// Open creates or loads presets kept in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		path: filepath.Join(dir, presetsFileName),
		data: make(map[string]json.RawMessage),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with no presets
		store.data = make(map[string]json.RawMessage)
	}
	return store, nil
}

// configDir returns XDG_CONFIG_HOME/flowread or ~/.config/flowread
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "flowread")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flowread")
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the named preset, normalized. A preset edited by hand into an
// invalid shape reports a *condition.MalformedConfigError.
func (s *Store) Get(name string) (condition.Spec, error) {
	s.mu.RLock()
	raw, ok := s.data[name]
	s.mu.RUnlock()
	if !ok {
		return condition.Spec{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return condition.Import(raw)
}

// Save stores spec under name.
func (s *Store) Save(name string, spec condition.Spec) error {
	if name == "" {
		return errors.New("preset name must not be empty")
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = raw
	return s.save()
}

// Delete removes the named preset.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(s.data, name)
	return s.save()
}

// Names lists the stored presets in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
