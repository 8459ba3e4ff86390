// Package session drives the client from cold start through login,
// data loading, menu, lobby and match states. States never transition
// each other from outside; each state's enter performs its work and
// returns the one allowed successor.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ovenrush/matchcore/internal/identity"
	"github.com/ovenrush/matchcore/internal/lobby"
	"github.com/ovenrush/matchcore/internal/match"
	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/playerdata"
	"github.com/ovenrush/matchcore/internal/remoteconfig"
)

// Config holds lifecycle tuning
type Config struct {
	// LobbyPollInterval is the readiness poll tick
	LobbyPollInterval time.Duration
	// TimeSyncTimeout bounds the best-effort network time sync
	TimeSyncTimeout time.Duration
}

// DefaultConfig returns default lifecycle configuration
func DefaultConfig() Config {
	return Config{
		LobbyPollInterval: 500 * time.Millisecond,
		TimeSyncTimeout:   10 * time.Second,
	}
}

// Deps are the collaborators a Machine drives
type Deps struct {
	Broker       *identity.Broker
	Lobby        lobby.Service
	Negotiator   *match.Negotiator
	PlayerData   *playerdata.Service
	RemoteConfig *remoteconfig.Service
	TimeSync     TimeSync
	Notifier     Notifier
	Logger       *slog.Logger
}

// Machine is the single-active-state lifecycle driver
type Machine struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	state    State
	identity *model.Identity
	profile  *model.Profile
	role     model.NetworkRole

	events chan Event
}

// NewMachine creates a Machine in the Bootstrap state
func NewMachine(deps Deps, cfg Config) *Machine {
	if cfg.LobbyPollInterval == 0 {
		cfg.LobbyPollInterval = DefaultConfig().LobbyPollInterval
	}
	if cfg.TimeSyncTimeout == 0 {
		cfg.TimeSyncTimeout = DefaultConfig().TimeSyncTimeout
	}
	if deps.TimeSync == nil {
		deps.TimeSync = NopTimeSync{}
	}
	return &Machine{
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger.With(slog.String("component", "session-lifecycle")),
		state:  StateBootstrap,
		events: make(chan Event, 32),
	}
}

// State returns the active state
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Identity returns the authenticated identity, or nil
func (m *Machine) Identity() *model.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// Role returns the negotiated role for the current match attempt
func (m *Machine) Role() model.NetworkRole {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

// Send delivers an external signal to the active state. Signals are
// dropped, with a log entry, if the machine is not consuming them.
func (m *Machine) Send(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.logger.Warn("event dropped", slog.String("event", string(ev.Type)))
	}
}

// SubmitLogin signals that the player pressed sign-in
func (m *Machine) SubmitLogin() { m.Send(Event{Type: EventLoginSubmitted}) }

// SubmitDisplayName delivers the entered display name
func (m *Machine) SubmitDisplayName(name string) {
	m.Send(Event{Type: EventNameSubmitted, Name: name})
}

// RequestLobby signals the menu action that enters the lobby
func (m *Machine) RequestLobby() { m.Send(Event{Type: EventEnterLobby}) }

// LeaveLobby signals the lobby back-out action
func (m *Machine) LeaveLobby() { m.Send(Event{Type: EventLeaveLobby}) }

// NotifyMatchEnded signals a normal match end
func (m *Machine) NotifyMatchEnded() { m.Send(Event{Type: EventMatchEnded}) }

// NotifyHostLost signals that disconnect recovery handled a host loss
func (m *Machine) NotifyHostLost() { m.Send(Event{Type: EventHostLost}) }

// ReturnToMenu signals leaving the results screen
func (m *Machine) ReturnToMenu() { m.Send(Event{Type: EventReturnToMenu}) }

// Run drives the machine until the context is cancelled
func (m *Machine) Run(ctx context.Context) error {
	for {
		if _, err := m.Step(ctx); err != nil {
			return err
		}
	}
}

// Step executes the active state's enter and applies its transition.
// Any unhandled error or panic during entry routes to Login; the
// machine is never left in an undefined node.
func (m *Machine) Step(ctx context.Context) (State, error) {
	current := m.State()

	next, err := m.safeEnter(ctx, current)
	if ctx.Err() != nil {
		return current, ctx.Err()
	}
	if err != nil {
		m.logger.Error("state entry failed, routing to login",
			slog.String("state", string(current)),
			slog.String("error", err.Error()),
		)
		next = StateLogin
	}
	if !allowedTransition(current, next) {
		m.logger.Error("transition not in graph, routing to login",
			slog.String("from", string(current)),
			slog.String("to", string(next)),
		)
		next = StateLogin
	}

	m.mu.Lock()
	m.state = next
	m.mu.Unlock()

	m.logger.Info("state transition",
		slog.String("from", string(current)),
		slog.String("to", string(next)),
	)
	return next, nil
}

// safeEnter converts a state-entry panic into the fail-safe error path
func (m *Machine) safeEnter(ctx context.Context, state State) (next State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("state %s panicked: %v", state, r)
		}
	}()

	switch state {
	case StateBootstrap:
		return m.enterBootstrap(ctx)
	case StateLogin:
		return m.enterLogin(ctx)
	case StateSessionLoading:
		return m.enterSessionLoading(ctx)
	case StateMainMenu:
		return m.enterMainMenu(ctx)
	case StateLobby:
		return m.enterLobby(ctx)
	case StateGameplay:
		return m.enterGameplay(ctx)
	case StateGameOver:
		return m.enterGameOver(ctx)
	default:
		return "", fmt.Errorf("unknown state %q", state)
	}
}

// enterBootstrap syncs network time best-effort, loads remote config,
// runs the update/maintenance gates and attempts silent login
func (m *Machine) enterBootstrap(ctx context.Context) (State, error) {
	syncCtx, cancel := context.WithTimeout(ctx, m.cfg.TimeSyncTimeout)
	if err := m.deps.TimeSync.Sync(syncCtx); err != nil {
		m.logger.Debug("time sync skipped", slog.String("error", err.Error()))
	}
	cancel()

	if _, err := m.deps.RemoteConfig.Load(ctx); err != nil {
		switch {
		case errors.Is(err, model.ErrUpdateRequired):
			m.deps.Notifier.Warn("An update is required before playing.")
			m.logger.Warn("bootstrap aborted", slog.String("error", err.Error()))
			return StateLogin, nil
		case errors.Is(err, model.ErrUnderMaintenance):
			m.deps.Notifier.Warn("Servers are under maintenance, try again later.")
			m.logger.Warn("bootstrap aborted", slog.String("error", err.Error()))
			return StateLogin, nil
		default:
			// Config is advisory outside the gates; keep booting
			m.logger.Warn("remote config unavailable", slog.String("error", err.Error()))
		}
	}

	if id := m.Identity(); id != nil && id.SignedIn() {
		return StateSessionLoading, nil
	}

	if identity, ok := m.deps.Broker.TrySilentLogin(ctx); ok {
		m.setIdentity(identity)
		return StateSessionLoading, nil
	}
	return StateLogin, nil
}

// enterLogin waits for the sign-in action and authenticates. Failed
// attempts notify the player and keep the login screen active.
func (m *Machine) enterLogin(ctx context.Context) (State, error) {
	for {
		select {
		case <-ctx.Done():
			return StateLogin, ctx.Err()
		case ev := <-m.events:
			if ev.Type != EventLoginSubmitted {
				continue
			}
			identity, err := m.deps.Broker.Authenticate(ctx)
			if err != nil {
				m.deps.Notifier.Warn("Sign-in failed, please try again.")
				m.logger.Warn("authentication failed", slog.String("error", err.Error()))
				continue
			}
			m.setIdentity(identity)
			return StateSessionLoading, nil
		}
	}
}

// enterSessionLoading ensures the session scope and syncs player data
func (m *Machine) enterSessionLoading(ctx context.Context) (State, error) {
	id := m.Identity()
	if id == nil {
		return "", errors.New("session loading without identity")
	}

	profile, err := m.deps.PlayerData.Load(ctx, *id)
	if err != nil {
		return "", fmt.Errorf("load player data: %w", err)
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()

	return StateMainMenu, nil
}

// enterMainMenu blocks on the mandatory name prompt when the profile
// has no display name, then waits for the lobby action
func (m *Machine) enterMainMenu(ctx context.Context) (State, error) {
	m.mu.RLock()
	needsName := m.profile == nil || m.profile.DisplayName == ""
	m.mu.RUnlock()

	if needsName {
		m.deps.Notifier.Info("Choose a display name to continue.")
	}

	for {
		select {
		case <-ctx.Done():
			return StateMainMenu, ctx.Err()
		case ev := <-m.events:
			switch ev.Type {
			case EventNameSubmitted:
				if ev.Name == "" {
					continue
				}
				id := m.Identity()
				if err := m.deps.PlayerData.SetDisplayName(ctx, id.PrimaryID, ev.Name); err != nil {
					return "", fmt.Errorf("set display name: %w", err)
				}
				m.mu.Lock()
				m.profile.DisplayName = ev.Name
				m.mu.Unlock()
				needsName = false
			case EventEnterLobby:
				if needsName {
					// Name entry is mandatory before leaving the menu
					m.deps.Notifier.Warn("A display name is required first.")
					continue
				}
				return StateLobby, nil
			}
		}
	}
}

// enterLobby polls readiness on a tick. Readiness is rechecked fresh
// on every tick, never cached; a failed transport start notifies the
// player and keeps polling. Non-owners enter the match through the
// lobby service's match-started signal.
func (m *Machine) enterLobby(ctx context.Context) (State, error) {
	ticker := time.NewTicker(m.cfg.LobbyPollInterval)
	defer ticker.Stop()

	id := m.Identity()
	if id == nil {
		return "", errors.New("lobby without identity")
	}

	for {
		select {
		case <-ctx.Done():
			return StateLobby, ctx.Err()

		case ev := <-m.events:
			if ev.Type == EventLeaveLobby {
				if err := m.deps.Lobby.LeaveMatchLobby(ctx); err != nil {
					m.logger.Warn("leave lobby failed", slog.String("error", err.Error()))
				}
				return StateMainMenu, nil
			}

		case started := <-m.deps.Lobby.MatchStarted():
			if next, ok := m.tryStartMatch(ctx, &started, *id); ok {
				return next, nil
			}

		case <-ticker.C:
			ready, err := m.deps.Lobby.AreAllPlayersReady(ctx)
			if err != nil {
				m.logger.Warn("readiness check failed", slog.String("error", err.Error()))
				continue
			}
			owner, err := m.deps.Lobby.IsOwner(ctx, *id)
			if err != nil {
				m.logger.Warn("ownership check failed", slog.String("error", err.Error()))
				continue
			}
			if !ready || !owner {
				continue
			}

			lob, err := m.deps.Lobby.CurrentLobby(ctx)
			if err != nil {
				m.logger.Warn("lobby fetch failed", slog.String("error", err.Error()))
				continue
			}
			if next, ok := m.tryStartMatch(ctx, lob, *id); ok {
				return next, nil
			}
		}
	}
}

// tryStartMatch negotiates the role and starts the transport. A start
// failure is reported and leaves the machine in the lobby.
func (m *Machine) tryStartMatch(ctx context.Context, lob *model.MatchLobby, id model.Identity) (State, bool) {
	role, err := m.deps.Negotiator.StartMatch(ctx, lob, id)
	if err != nil {
		m.deps.Notifier.Warn("Could not start the match, still in the lobby.")
		m.logger.Error("match start failed",
			slog.String("lobby", string(lob.ID)),
			slog.String("error", err.Error()),
		)
		return StateLobby, false
	}

	m.mu.Lock()
	m.role = role
	m.mu.Unlock()
	return StateGameplay, true
}

// enterGameplay hands control to the match until it ends or the host
// is lost
func (m *Machine) enterGameplay(ctx context.Context) (State, error) {
	for {
		select {
		case <-ctx.Done():
			return StateGameplay, ctx.Err()
		case ev := <-m.events:
			switch ev.Type {
			case EventMatchEnded:
				m.deps.Negotiator.StopMatch()
				return StateGameOver, nil
			case EventHostLost:
				// Recovery already tore the transport down; stop the
				// rest of the match machinery and fall back to the menu
				m.deps.Negotiator.StopMatch()
				return StateMainMenu, nil
			}
		}
	}
}

// enterGameOver shows results and waits for the menu action
func (m *Machine) enterGameOver(ctx context.Context) (State, error) {
	m.deps.Notifier.Info("Match over, showing results.")

	for {
		select {
		case <-ctx.Done():
			return StateGameOver, ctx.Err()
		case ev := <-m.events:
			if ev.Type == EventReturnToMenu {
				return StateMainMenu, nil
			}
		}
	}
}

func (m *Machine) setIdentity(identity *model.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = identity
}
