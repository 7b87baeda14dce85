// Package preferences manages the free-form preferences document:
// health goals, dietary rules, delivery schedule, and cooking style.
// Defaults are seeded on first run and updates are deep-merged, so the
// external agent can patch a nested key without resending the document.
package preferences

import (
	"meal-planner-dashboard/internal/document"
)

// Preferences is a free-form JSON object of preference key/value pairs.
type Preferences map[string]any

// Service reads and merges the preferences document.
type Service struct {
	store *document.Store
}

// NewService creates a preferences service.
func NewService(store *document.Store) *Service {
	return &Service{store: store}
}

// Get returns the current preferences, seeding the defaults first if the
// document has never been written.
func (s *Service) Get() (Preferences, error) {
	var prefs Preferences
	if err := s.store.Load(document.Preferences, &prefs); err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		prefs = Defaults()
		if err := s.store.Save(document.Preferences, prefs); err != nil {
			return nil, err
		}
	}
	return prefs, nil
}

// Merge recursively folds changes into the stored preferences and
// returns the merged result.
func (s *Service) Merge(changes Preferences) (Preferences, error) {
	var prefs Preferences
	err := s.store.Update(document.Preferences, &prefs, func() error {
		if len(prefs) == 0 {
			prefs = Defaults()
		}
		deepMerge(prefs, changes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// Seed writes the default preferences unconditionally.
func (s *Service) Seed() error {
	return s.store.Save(document.Preferences, Defaults())
}

// deepMerge recursively merges override into base. Non-map values and
// mismatched types are replaced wholesale.
func deepMerge(base, override map[string]any) {
	for k, v := range override {
		if bv, ok := base[k].(map[string]any); ok {
			if ov, ok := v.(map[string]any); ok {
				deepMerge(bv, ov)
				continue
			}
		}
		base[k] = v
	}
}
