package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ovenrush/matchcore/internal/dependencies/clock"
	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/storage"
)

// Config holds configuration for the identity broker
type Config struct {
	// PrimaryTimeout bounds the whole primary phase (credential + login)
	PrimaryTimeout time.Duration
	// SecondaryTimeout bounds the best-effort secondary sign-in
	SecondaryTimeout time.Duration
	// CredentialType is the credential kind requested from the primary
	// provider at login
	CredentialType string
	// DeviceModel is passed to the provider when registering the
	// device-bound credential
	DeviceModel string
	// DisplayName is an optional initial display name for first login
	DisplayName string
}

// DefaultConfig returns default broker configuration
func DefaultConfig() Config {
	return Config{
		PrimaryTimeout:   15 * time.Second,
		SecondaryTimeout: 10 * time.Second,
		CredentialType:   "device",
	}
}

// Broker resolves a durable player identity from the primary provider
// and, best-effort, links a secondary provider identity to it.
type Broker struct {
	primary   PrimaryProvider
	secondary SecondaryProvider
	storage   storage.Storage
	clock     clock.Clock
	logger    *slog.Logger
	cfg       Config

	mu       sync.RWMutex
	identity *model.Identity
}

// New creates a new identity Broker
func New(
	primary PrimaryProvider,
	secondary SecondaryProvider,
	store storage.Storage,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Broker {
	if cfg.PrimaryTimeout == 0 {
		cfg.PrimaryTimeout = DefaultConfig().PrimaryTimeout
	}
	if cfg.SecondaryTimeout == 0 {
		cfg.SecondaryTimeout = DefaultConfig().SecondaryTimeout
	}
	if cfg.CredentialType == "" {
		cfg.CredentialType = DefaultConfig().CredentialType
	}
	return &Broker{
		primary:   primary,
		secondary: secondary,
		storage:   store,
		clock:     clk,
		logger:    logger.With(slog.String("component", "identity-broker")),
		cfg:       cfg,
	}
}

// Identity returns the current identity, or nil if not signed in
func (b *Broker) Identity() *model.Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.identity == nil {
		return nil
	}
	id := *b.identity
	return &id
}

// Authenticate runs the two-phase sign-in sequence.
//
// The primary phase is mandatory: a device-bound credential is ensured
// (an already-registered credential counts as success) and exchanged
// for a primary session, all bounded by PrimaryTimeout. Any failure
// there fails the whole call with ErrPrimaryAuthFailed.
//
// The secondary phase is best-effort: it runs only after the primary
// phase succeeded and its failure is logged and swallowed; the returned
// identity then reports SecondaryAuthenticated = false. Callers must
// treat that outcome as full success for gameplay purposes.
func (b *Broker) Authenticate(ctx context.Context) (*model.Identity, error) {
	primaryCtx, cancel := context.WithTimeout(ctx, b.cfg.PrimaryTimeout)
	defer cancel()

	if err := b.primary.EnsureCredential(primaryCtx, b.cfg.DeviceModel); err != nil {
		if !errors.Is(err, ErrCredentialExists) {
			return nil, fmt.Errorf("%w: ensure credential: %v", model.ErrPrimaryAuthFailed, err)
		}
	}

	userID, err := b.primary.Login(primaryCtx, b.cfg.CredentialType, b.cfg.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("%w: login: %v", model.ErrPrimaryAuthFailed, err)
	}

	identity := &model.Identity{
		PrimaryID:            userID,
		PrimaryAuthenticated: true,
	}

	// Remember the method for silent re-authentication on next cold
	// start. Losing this is not worth failing a successful login over.
	if err := b.storage.UpdateSettings(ctx, func(s *model.Settings) {
		s.LastLoginMethod = b.primary.Name()
		s.UpdatedAt = b.clock.Now()
	}); err != nil {
		b.logger.Warn("could not persist login method", slog.String("error", err.Error()))
	}

	b.linkSecondary(ctx, identity)

	b.mu.Lock()
	b.identity = identity
	b.mu.Unlock()

	b.logger.Info("authenticated",
		slog.String("player_id", string(identity.PrimaryID)),
		slog.Bool("secondary_linked", identity.SecondaryAuthenticated),
	)

	id := *identity
	return &id, nil
}

// TrySilentLogin attempts re-authentication using the persisted login
// method. It reports false, without surfacing an error, when no method
// is recorded or the attempt fails; callers fall through to the login
// screen in that case.
func (b *Broker) TrySilentLogin(ctx context.Context) (*model.Identity, bool) {
	settings, err := b.storage.GetSettings(ctx)
	if err != nil || settings.LastLoginMethod == "" {
		return nil, false
	}
	if settings.LastLoginMethod != b.primary.Name() {
		b.logger.Info("persisted login method unavailable",
			slog.String("method", settings.LastLoginMethod))
		return nil, false
	}

	identity, err := b.Authenticate(ctx)
	if err != nil {
		b.logger.Warn("silent login failed", slog.String("error", err.Error()))
		return nil, false
	}
	return identity, true
}

// SignOut clears both provider sessions and the cached identity
func (b *Broker) SignOut(ctx context.Context) {
	b.mu.Lock()
	identity := b.identity
	b.identity = nil
	b.mu.Unlock()

	if identity == nil {
		return
	}
	if identity.SecondaryAuthenticated {
		b.secondary.SignOut(ctx)
	}
	if err := b.primary.ClearCredential(ctx, identity.PrimaryID); err != nil {
		b.logger.Warn("could not clear primary credential", slog.String("error", err.Error()))
	}
}

// linkSecondary signs into the secondary provider using the primary id
// as external token. Failures are logged and swallowed.
func (b *Broker) linkSecondary(ctx context.Context, identity *model.Identity) {
	secondaryCtx, cancel := context.WithTimeout(ctx, b.cfg.SecondaryTimeout)
	defer cancel()

	secondaryID, err := b.secondary.SignInWithExternalToken(
		secondaryCtx, b.primary.Name(), string(identity.PrimaryID))
	if err != nil {
		b.logger.Warn("secondary sign-in failed",
			slog.String("provider", b.secondary.Name()),
			slog.String("error", errors.Join(model.ErrSecondaryAuthFailed, err).Error()),
		)
		return
	}

	identity.SecondaryID = secondaryID
	identity.SecondaryAuthenticated = true
}
