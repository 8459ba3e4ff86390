// Package lobby defines the contract to the external lobby/matchmaking
// service. This core only consumes a ready lobby with a known owner and
// member list; discovery and ranking live elsewhere.
package lobby

import (
	"context"

	"github.com/ovenrush/matchcore/internal/model"
)

// Service supplies match lobbies and readiness signals
type Service interface {
	// CurrentLobby returns the lobby the local player is in
	CurrentLobby(ctx context.Context) (*model.MatchLobby, error)

	// AreAllPlayersReady reports whether every lobby member has readied
	// up. The lifecycle rechecks this on every poll tick; results are
	// never cached across ticks.
	AreAllPlayersReady(ctx context.Context) (bool, error)

	// IsOwner reports whether the given identity owns the current lobby
	IsOwner(ctx context.Context, identity model.Identity) (bool, error)

	// LeaveMatchLobby removes the local player from the lobby
	LeaveMatchLobby(ctx context.Context) error

	// MatchStarted delivers the lobby when the owner has started the
	// match, pushing non-owner members into role negotiation
	MatchStarted() <-chan model.MatchLobby
}
