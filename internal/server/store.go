package server

import (
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
)

// Store is an in-memory application store. Each app holds one config tree
// per sequence; saves either overwrite the current sequence or append a new
// one.
type Store struct {
	mu   sync.RWMutex
	apps map[string]*App
}

// App is a single application with its config history.
type App struct {
	Slug      string
	Sequences map[int64][]appconfig.ConfigGroup
	Latest    int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{apps: make(map[string]*App)}
}

// SeedFromFile loads an app's initial config tree from a YAML or JSON file.
func (s *Store) SeedFromFile(slug, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	groups, err := appconfig.ParseGroups(data)
	if err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	if errs := appconfig.ValidateGroups(groups); len(errs) > 0 {
		return fmt.Errorf("seed config is invalid: %v", errs[0])
	}

	s.Seed(slug, groups)
	return nil
}

// Seed registers an app at sequence 1 with the given tree.
func (s *Store) Seed(slug string, groups []appconfig.ConfigGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apps[slug] = &App{
		Slug:      slug,
		Sequences: map[int64][]appconfig.ConfigGroup{1: appconfig.CloneGroups(groups)},
		Latest:    1,
	}
}

// GetConfig returns a copy of the config tree for (slug, sequence).
func (s *Store) GetConfig(slug string, sequence int64) ([]appconfig.ConfigGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, exists := s.apps[slug]
	if !exists {
		return nil, fmt.Errorf("unknown app %q", slug)
	}
	groups, exists := app.Sequences[sequence]
	if !exists {
		return nil, fmt.Errorf("app %q has no sequence %d", slug, sequence)
	}
	return appconfig.CloneGroups(groups), nil
}

// LatestSequence returns the newest sequence for an app.
func (s *Store) LatestSequence(slug string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, exists := s.apps[slug]
	if !exists {
		return 0, fmt.Errorf("unknown app %q", slug)
	}
	return app.Latest, nil
}

// SaveValues persists an edited tree. With createNewVersion the tree is
// stored under a fresh sequence; otherwise it replaces the given one.
// Returns the sequence the tree was stored under.
func (s *Store) SaveValues(slug string, sequence int64, groups []appconfig.ConfigGroup, createNewVersion bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, exists := s.apps[slug]
	if !exists {
		return 0, fmt.Errorf("unknown app %q", slug)
	}
	if _, exists := app.Sequences[sequence]; !exists {
		return 0, fmt.Errorf("app %q has no sequence %d", slug, sequence)
	}

	target := sequence
	if createNewVersion {
		app.Latest++
		target = app.Latest
	}
	app.Sequences[target] = appconfig.CloneGroups(groups)
	return target, nil
}

// GetFile resolves a previously uploaded file by name within an app's tree
// and returns its decoded bytes. File item values are stored base64-encoded.
func (s *Store) GetFile(slug string, sequence int64, filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, exists := s.apps[slug]
	if !exists {
		return nil, fmt.Errorf("unknown app %q", slug)
	}
	groups, exists := app.Sequences[sequence]
	if !exists {
		return nil, fmt.Errorf("app %q has no sequence %d", slug, sequence)
	}

	for gi := range groups {
		for ii := range groups[gi].Items {
			item := &groups[gi].Items[ii]
			if item.Type != appconfig.TypeFile || item.Filename != filename {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(item.EffectiveValue())
			if err != nil {
				return nil, fmt.Errorf("stored file %q is not valid base64: %w", filename, err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("no file named %q in app %q", filename, slug)
}
