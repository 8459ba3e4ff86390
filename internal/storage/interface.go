package storage

import (
	"context"

	"github.com/ovenrush/matchcore/internal/model"
)

// Storage defines the interface for data persistence.
//
// The only state this core owns on disk is the device settings blob and
// the cloud-synced player profile; everything else lives with the
// external providers.
type Storage interface {
	// Settings operations
	GetSettings(ctx context.Context) (*model.Settings, error)
	UpdateSettings(ctx context.Context, mutate func(*model.Settings)) error

	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error)
}
