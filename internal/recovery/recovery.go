// Package recovery applies the asymmetric disconnect policy: losing
// the host ends the match for everyone, losing a client only reclaims
// that client's resources.
package recovery

import (
	"log/slog"
	"sync"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/spawn"
	"github.com/ovenrush/matchcore/internal/transport"
)

// Notifier surfaces user-visible notifications
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}

// Recovery observes transport disconnects for one match attempt
type Recovery struct {
	transport transport.Transport
	spawner   *spawn.Authority
	notifier  Notifier
	logger    *slog.Logger

	mu         sync.Mutex
	role       model.NetworkRole
	armed      bool
	onHostLost func()

	shutdownOnce sync.Once
}

// New creates a Recovery. The spawn authority may be nil until the
// participant negotiates the host role.
func New(t transport.Transport, spawner *spawn.Authority, notifier Notifier, logger *slog.Logger) *Recovery {
	return &Recovery{
		transport: t,
		spawner:   spawner,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "disconnect-recovery")),
	}
}

// SetHostLostHandler registers the lifecycle callback invoked after a
// host loss has been fully handled
func (r *Recovery) SetHostLostHandler(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHostLost = fn
}

// Arm subscribes to the transport's disconnect signal for the given
// role. Called by the negotiator before the transport starts, so no
// disconnect can slip by unobserved.
func (r *Recovery) Arm(role model.NetworkRole) {
	r.mu.Lock()
	r.role = role
	alreadyArmed := r.armed
	r.armed = true
	r.shutdownOnce = sync.Once{}
	r.mu.Unlock()

	if !alreadyArmed {
		r.transport.OnPeerDisconnected(r.handleDisconnect)
	}
}

// handleDisconnect applies the recovery policy. Resource release runs
// before any notification so it happens even if later steps fail.
func (r *Recovery) handleDisconnect(peerID model.ParticipantID) {
	r.mu.Lock()
	role := r.role
	onHostLost := r.onHostLost
	r.mu.Unlock()

	// A client seeing its host connection drop cannot tell a genuine
	// host loss from a transient local blip; both end the match here.
	if role == model.RoleClient && peerID == transport.ServerPeerID {
		r.shutdownOnce.Do(r.transport.Shutdown)

		r.logger.Warn("host connection lost, match over",
			slog.String("error", model.ErrHostLost.Error()))
		if r.notifier != nil {
			r.notifier.Warn("The host left the match.")
		}
		if onHostLost != nil {
			onHostLost()
		}
		return
	}

	if role == model.RoleHost && peerID != transport.ServerPeerID {
		// Reclaim unconditionally; the match continues for everyone
		// else.
		if r.spawner != nil {
			r.spawner.Release(peerID)
		}
		r.logger.Info("client disconnected, match continues",
			slog.Uint64("participant", uint64(peerID)))
		if r.notifier != nil {
			r.notifier.Info("A player left the match.")
		}
	}
}
