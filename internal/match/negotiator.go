// Package match negotiates which participant hosts a ready lobby and
// brings the network transport up in the right mode.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/recovery"
	"github.com/ovenrush/matchcore/internal/spawn"
	"github.com/ovenrush/matchcore/internal/transport"
)

// Config holds negotiation settings
type Config struct {
	// BotCount is how many bots the host injects after its own spawn
	BotCount int
	// LocalDisplayName is the local player's replicated name
	LocalDisplayName string
}

// Negotiator computes the local participant's role for a match attempt
// and starts the transport accordingly. The role is computed once and
// never revisited mid-match; there is no host migration.
type Negotiator struct {
	transport transport.Transport
	spawner   *spawn.Authority
	recovery  *recovery.Recovery
	latency   *LatencyMonitor
	logger    *slog.Logger
	cfg       Config

	mu      sync.Mutex
	started bool
}

// New creates a Negotiator
func New(
	t transport.Transport,
	spawner *spawn.Authority,
	rec *recovery.Recovery,
	latency *LatencyMonitor,
	logger *slog.Logger,
	cfg Config,
) *Negotiator {
	return &Negotiator{
		transport: t,
		spawner:   spawner,
		recovery:  rec,
		latency:   latency,
		logger:    logger.With(slog.String("component", "match-negotiator")),
		cfg:       cfg,
	}
}

// StartMatch derives the network role from lobby ownership and starts
// the transport. On any start failure it returns
// model.ErrTransportStartFailed and the caller stays in the lobby.
func (n *Negotiator) StartMatch(ctx context.Context, lobby *model.MatchLobby, local model.Identity) (model.NetworkRole, error) {
	if lobby == nil || len(lobby.Members) == 0 {
		return model.RoleClient, fmt.Errorf("%w: no members", model.ErrLobbyNotReady)
	}

	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return model.RoleClient, model.ErrMatchInProgress
	}
	n.started = true
	n.mu.Unlock()

	role := model.RoleFor(local, lobby)
	n.recovery.Arm(role)

	if role == model.RoleHost {
		if err := n.startAsHost(ctx, local); err != nil {
			n.reset()
			return role, err
		}
	} else {
		if err := n.startAsClient(ctx, lobby); err != nil {
			n.reset()
			return role, err
		}
	}

	n.latency.Start(ctx)

	n.logger.Info("match started",
		slog.String("lobby", string(lobby.ID)),
		slog.String("role", string(role)),
	)
	return role, nil
}

// startAsHost brings the transport up in host mode. Ordering matters:
// automatic spawning is disabled and the approval hook installed before
// the transport starts, so no peer can connect unguarded; the host's
// own participant is spawned manually because the transport never runs
// connection approval for the local host; bots follow immediately so
// join order gives nothing away.
func (n *Negotiator) startAsHost(ctx context.Context, local model.Identity) error {
	n.transport.SetAutoSpawn(false)
	n.transport.SetConnectionApproval(n.spawner.ApproveConnection)
	n.transport.OnPeerConnected(n.spawner.HandlePeerConnected)

	if err := n.transport.StartHost(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransportStartFailed, err)
	}

	localPeer := n.transport.LocalPeerID()
	if err := n.spawner.Spawn(localPeer, local.PrimaryID, n.cfg.LocalDisplayName, false); err != nil {
		n.transport.Shutdown()
		return fmt.Errorf("%w: host spawn: %v", model.ErrTransportStartFailed, err)
	}

	n.spawner.InjectBots(n.cfg.BotCount)
	return nil
}

// startAsClient connects to the lobby owner's advertised endpoint
func (n *Negotiator) startAsClient(ctx context.Context, lobby *model.MatchLobby) error {
	if err := n.transport.StartClient(ctx, lobby.HostAddr); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransportStartFailed, err)
	}
	return nil
}

// StopMatch tears the transport and the latency monitor down
func (n *Negotiator) StopMatch() {
	n.latency.Stop()
	n.transport.Shutdown()
	n.reset()
}

func (n *Negotiator) reset() {
	n.mu.Lock()
	n.started = false
	n.mu.Unlock()
}
