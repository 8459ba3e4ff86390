package memory

import (
	"context"
	"sync"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu       sync.RWMutex
	settings model.Settings
	profiles map[model.PlayerID]model.Profile
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles: make(map[model.PlayerID]model.Profile),
	}
}

// GetSettings returns a copy of the device settings
func (s *Storage) GetSettings(ctx context.Context) (*model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	return &settings, nil
}

// UpdateSettings applies the mutator to the settings under the lock
func (s *Storage) UpdateSettings(ctx context.Context, mutate func(*model.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutate(&s.settings)
	return nil
}

// SaveProfile stores a copy of the profile
func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.PlayerID] = *profile
	return nil
}

// GetProfile returns a copy of the profile for the given player
func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return &profile, nil
}
