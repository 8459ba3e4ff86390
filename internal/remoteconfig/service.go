// Package remoteconfig fetches launch configuration and applies the
// update/maintenance gates during bootstrap.
package remoteconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/ovenrush/matchcore/internal/model"
)

// Values is the remotely controlled launch configuration
type Values struct {
	MinimumVersion  string
	MandatoryUpdate bool
	Maintenance     bool
	PlayersPerTeam  int
	TeamCount       int
}

// Source fetches configuration values
type Source interface {
	Fetch(ctx context.Context) (Values, error)
}

// Service loads remote config with a bounded timeout and evaluates the
// launch gates
type Service struct {
	source  Source
	timeout time.Duration
}

// New creates a remote config Service
func New(source Source, timeout time.Duration) *Service {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Service{source: source, timeout: timeout}
}

// Load fetches the config and applies the gates. A mandatory update or
// active maintenance aborts the bootstrap sequence.
func (s *Service) Load(ctx context.Context) (Values, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values, err := s.source.Fetch(fetchCtx)
	if err != nil {
		return Values{}, fmt.Errorf("%w: %v", model.ErrConfigUnavailable, err)
	}

	if values.MandatoryUpdate {
		return values, model.ErrUpdateRequired
	}
	if values.Maintenance {
		return values, model.ErrUnderMaintenance
	}
	return values, nil
}

// StaticSource returns fixed values, for local play and tests
type StaticSource struct {
	Values Values
	Err    error
}

// Fetch returns the configured values
func (s *StaticSource) Fetch(ctx context.Context) (Values, error) {
	if s.Err != nil {
		return Values{}, s.Err
	}
	return s.Values, nil
}
