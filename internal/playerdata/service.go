// Package playerdata owns the cloud-synced player profile consumed by
// the session lifecycle: session scope, profile sync and the display
// name required before the main menu unblocks.
package playerdata

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ovenrush/matchcore/internal/dependencies/clock"
	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/storage"
)

// Service loads and mutates the local player's profile
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a player data Service
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "player-data")),
	}
}

// Load ensures the session scope exists and syncs the profile for the
// authenticated identity, creating it on first login
func (s *Service) Load(ctx context.Context, identity model.Identity) (*model.Profile, error) {
	profile, err := s.storage.GetProfile(ctx, identity.PrimaryID)
	if errors.Is(err, model.ErrProfileNotFound) {
		profile = &model.Profile{
			PlayerID:  identity.PrimaryID,
			CreatedAt: s.clock.Now(),
		}
	} else if err != nil {
		return nil, err
	}

	profile.SyncedAt = s.clock.Now()
	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile loaded",
		slog.String("player_id", string(profile.PlayerID)),
		slog.Bool("has_display_name", profile.DisplayName != ""),
	)
	return profile, nil
}

// SetDisplayName records the player's chosen name
func (s *Service) SetDisplayName(ctx context.Context, playerID model.PlayerID, name string) error {
	profile, err := s.storage.GetProfile(ctx, playerID)
	if err != nil {
		return err
	}
	profile.DisplayName = name
	return s.storage.SaveProfile(ctx, profile)
}
