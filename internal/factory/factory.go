// Package factory wires one participant's full component stack. Every
// participant in a match runs the same stack; only the negotiated role
// decides which parts do work.
package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ovenrush/matchcore/internal/dependencies/clock"
	"github.com/ovenrush/matchcore/internal/identity"
	"github.com/ovenrush/matchcore/internal/lobby"
	"github.com/ovenrush/matchcore/internal/match"
	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/playerdata"
	"github.com/ovenrush/matchcore/internal/providers/local"
	"github.com/ovenrush/matchcore/internal/recovery"
	"github.com/ovenrush/matchcore/internal/remoteconfig"
	"github.com/ovenrush/matchcore/internal/session"
	"github.com/ovenrush/matchcore/internal/spawn"
	"github.com/ovenrush/matchcore/internal/storage"
	"github.com/ovenrush/matchcore/internal/storage/memory"
	redisstorage "github.com/ovenrush/matchcore/internal/storage/redis"
	"github.com/ovenrush/matchcore/internal/team"
	"github.com/ovenrush/matchcore/internal/transport"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains one participant's wired components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	Broker       *identity.Broker
	PlayerData   *playerdata.Service
	RemoteConfig *remoteconfig.Service
	Teams        *team.Authority
	TeamMirror   *team.Mirror
	Spawner      *spawn.Authority
	Recovery     *recovery.Recovery
	Latency      *match.LatencyMonitor
	Negotiator   *match.Negotiator
	Machine      *session.Machine
	Transport    transport.Transport
	Lobby        lobby.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Transport is the network transport for this participant (required)
	Transport transport.Transport
	// Lobby is the lobby service this participant belongs to (required)
	Lobby lobby.Service
	// Primary is the primary identity provider (optional)
	// If nil, a local device-credential provider is used
	Primary identity.PrimaryProvider
	// Secondary is the secondary identity provider (optional)
	// If nil, a local token-exchange provider is used
	Secondary identity.SecondaryProvider
	// ConfigSource fetches remote launch configuration (optional)
	// If nil, a permissive static source is used
	ConfigSource remoteconfig.Source
	// Notifier surfaces user-visible messages (optional)
	// If nil, notifications go to the logger
	Notifier session.Notifier
	// IdentityConfig tunes the identity broker (optional)
	IdentityConfig identity.Config
	// TeamConfig tunes team mode (optional)
	TeamConfig team.Config
	// SpawnConfig tunes the spawn authority (optional)
	SpawnConfig spawn.Config
	// MatchConfig tunes match negotiation (optional)
	MatchConfig match.Config
	// SessionConfig tunes the session lifecycle (optional)
	SessionConfig session.Config
	// LatencyInterval is the RTT sampling period (optional)
	// If zero, defaults to 5s
	LatencyInterval time.Duration
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	if cfg.Transport == nil {
		return nil, errors.New("Transport is required")
	}
	if cfg.Lobby == nil {
		return nil, errors.New("Lobby is required")
	}

	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *App {
	primary := cfg.Primary
	if primary == nil {
		primary = local.NewPrimary()
	}
	secondary := cfg.Secondary
	if secondary == nil {
		secondary = local.NewSecondary()
	}
	configSource := cfg.ConfigSource
	if configSource == nil {
		configSource = &remoteconfig.StaticSource{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = &session.LogNotifier{Logger: logger}
	}
	latencyInterval := cfg.LatencyInterval
	if latencyInterval == 0 {
		latencyInterval = 5 * time.Second
	}

	broker := identity.New(primary, secondary, store, clk, logger, cfg.IdentityConfig)
	playerData := playerdata.New(store, clk, logger)
	configService := remoteconfig.New(configSource, 0)

	teams := team.New(cfg.TeamConfig, &teamBroadcaster{transport: cfg.Transport}, logger)
	mirror := team.NewMirror()
	cfg.Transport.OnMessage(mirror.HandleMessage)

	spawner := spawn.New(cfg.Transport, teams, logger, cfg.SpawnConfig)
	rec := recovery.New(cfg.Transport, spawner, notifier, logger)
	latency := match.NewLatencyMonitor(cfg.Transport, latencyInterval, logger)
	negotiator := match.New(cfg.Transport, spawner, rec, latency, logger, cfg.MatchConfig)

	machine := session.NewMachine(session.Deps{
		Broker:       broker,
		Lobby:        cfg.Lobby,
		Negotiator:   negotiator,
		PlayerData:   playerData,
		RemoteConfig: configService,
		Notifier:     notifier,
		Logger:       logger,
	}, cfg.SessionConfig)

	// A handled host loss becomes a lifecycle event
	rec.SetHostLostHandler(machine.NotifyHostLost)

	return &App{
		Storage:      store,
		Clock:        clk,
		Broker:       broker,
		PlayerData:   playerData,
		RemoteConfig: configService,
		Teams:        teams,
		TeamMirror:   mirror,
		Spawner:      spawner,
		Recovery:     rec,
		Latency:      latency,
		Negotiator:   negotiator,
		Machine:      machine,
		Transport:    cfg.Transport,
		Lobby:        cfg.Lobby,
	}
}

// teamBroadcaster replicates committed team snapshots over the transport
type teamBroadcaster struct {
	transport transport.Transport
}

func (b *teamBroadcaster) BroadcastTeamState(state model.TeamState) error {
	return b.transport.Broadcast(transport.KindTeamState, state)
}
