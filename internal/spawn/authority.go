// Package spawn is the host-only authority over participant spawning.
// Automatic transport instantiation is disabled; every participant,
// human or bot, enters the match through Spawn.
package spawn

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/team"
	"github.com/ovenrush/matchcore/internal/transport"
)

// Config holds spawn authority settings
type Config struct {
	// SpawnPointCount is the number of exclusive placement slots
	SpawnPointCount int
	// BotCount is how many bots to inject after the host's own spawn
	BotCount int
}

// DefaultConfig returns default spawn configuration
func DefaultConfig() Config {
	return Config{
		SpawnPointCount: 8,
		BotCount:        0,
	}
}

// Authority owns all spawn records for a match. One record exists per
// connected transport peer plus one per injected bot; no two live
// records share a spawn point.
type Authority struct {
	transport transport.Transport
	teams     *team.Authority
	logger    *slog.Logger
	cfg       Config

	mu      sync.Mutex
	points  *pointAllocator
	records map[model.ParticipantID]*model.SpawnRecord
}

// New creates a spawn Authority
func New(t transport.Transport, teams *team.Authority, logger *slog.Logger, cfg Config) *Authority {
	if cfg.SpawnPointCount == 0 {
		cfg.SpawnPointCount = DefaultConfig().SpawnPointCount
	}
	return &Authority{
		transport: t,
		teams:     teams,
		logger:    logger.With(slog.String("component", "spawn-authority")),
		cfg:       cfg,
		points:    newPointAllocator(cfg.SpawnPointCount),
		records:   make(map[model.ParticipantID]*model.SpawnRecord),
	}
}

// ApproveConnection is the transport's connection-approval hook. Every
// connection is approved, but automatic instantiation is suppressed so
// placement goes through Spawn instead of the transport default. It
// must return fast; nothing here may wait on another peer.
func (a *Authority) ApproveConnection(req transport.ApprovalRequest) transport.ApprovalResponse {
	return transport.ApprovalResponse{
		Approved:           true,
		CreatePlayerObject: false,
	}
}

// HandlePeerConnected spawns a newly approved peer. A spawn failure is
// logged and leaves that participant unspawned; the match continues.
func (a *Authority) HandlePeerConnected(peer transport.Peer) {
	if err := a.Spawn(peer.ID, peer.PlayerID, peer.DisplayName, false); err != nil {
		a.logger.Error("could not spawn participant",
			slog.Uint64("participant", uint64(peer.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// Spawn allocates an exclusive spawn point, assigns a team and records
// the participant. Spawning an already-spawned participant is rejected
// with ErrAlreadySpawned rather than producing a duplicate.
func (a *Authority) Spawn(participantID model.ParticipantID, playerID model.PlayerID, displayName string, isBot bool) error {
	a.mu.Lock()

	if _, exists := a.records[participantID]; exists {
		a.mu.Unlock()
		return model.ErrAlreadySpawned
	}

	pointID, ok := a.points.allocate()
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: %d points in use", model.ErrSpawnAllocationFailed, a.cfg.SpawnPointCount)
	}

	record := &model.SpawnRecord{
		ParticipantID: participantID,
		PlayerID:      playerID,
		DisplayName:   displayName,
		IsBot:         isBot,
		TeamID:        model.UnassignedTeam,
		SpawnPointID:  pointID,
	}
	a.records[participantID] = record
	a.mu.Unlock()

	// Team assignment happens outside the spawn lock; the team
	// authority serializes its own mutations.
	teamID := a.teams.AutoAssign(playerID)

	a.mu.Lock()
	rec, stillLive := a.records[participantID]
	if !stillLive {
		// Released while assigning; nothing to replicate
		a.mu.Unlock()
		return nil
	}
	rec.TeamID = teamID
	replicated := rec.Replicated()
	a.mu.Unlock()

	if err := a.transport.Broadcast(transport.KindPlayerSpawned, replicated); err != nil {
		a.logger.Warn("spawn broadcast failed", slog.String("error", err.Error()))
	}

	a.logger.Info("participant spawned",
		slog.Uint64("participant", uint64(participantID)),
		slog.Int("spawn_point", pointID),
		slog.Int("team", teamID),
	)
	return nil
}

// InjectBots spawns the configured bots. It runs once, immediately
// after the host's own spawn, so join order and timing give nothing
// away. Bots reuse the same spawn path and template as humans.
func (a *Authority) InjectBots(count int) {
	a.mu.Lock()
	used := make(map[string]bool, len(a.records))
	for _, rec := range a.records {
		used[rec.DisplayName] = true
	}
	a.mu.Unlock()

	for i := 0; i < count; i++ {
		participantID := a.transport.ReservePeerID()
		playerID := model.PlayerID("p_" + uuid.NewString())
		name := pickBotName(used, i)
		used[name] = true

		if err := a.Spawn(participantID, playerID, name, true); err != nil {
			if errors.Is(err, model.ErrSpawnAllocationFailed) {
				a.logger.Warn("bot not injected, no spawn point free",
					slog.Int("bot_index", i))
				continue
			}
			a.logger.Error("bot spawn failed", slog.String("error", err.Error()))
		}
	}
}

// Release frees a participant's spawn point and removes its record.
// Releasing an unknown participant is a no-op.
func (a *Authority) Release(participantID model.ParticipantID) {
	a.mu.Lock()
	record, ok := a.records[participantID]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.records, participantID)
	a.points.release(record.SpawnPointID)
	a.mu.Unlock()

	a.teams.RemovePlayer(record.PlayerID)

	if err := a.transport.Broadcast(transport.KindPlayerDespawned, record.Replicated()); err != nil {
		a.logger.Warn("despawn broadcast failed", slog.String("error", err.Error()))
	}

	a.logger.Info("participant released",
		slog.Uint64("participant", uint64(participantID)),
		slog.Int("spawn_point", record.SpawnPointID),
	)
}

// DespawnBot removes an injected bot, freeing its spawn point
func (a *Authority) DespawnBot(participantID model.ParticipantID) {
	a.mu.Lock()
	record, ok := a.records[participantID]
	isBot := ok && record.IsBot
	a.mu.Unlock()

	if !isBot {
		return
	}
	a.Release(participantID)
}

// Record returns a copy of the record for a participant
func (a *Authority) Record(participantID model.ParticipantID) (model.SpawnRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.records[participantID]
	if !ok {
		return model.SpawnRecord{}, false
	}
	return *record, true
}

// Records returns copies of all live spawn records
func (a *Authority) Records() []model.SpawnRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	records := make([]model.SpawnRecord, 0, len(a.records))
	for _, rec := range a.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ParticipantID < records[j].ParticipantID
	})
	return records
}

// pickBotName returns an unused human-looking name
func pickBotName(used map[string]bool, index int) string {
	for _, name := range botNames {
		if !used[name] {
			return name
		}
	}
	// Pool exhausted; derive a distinct fallback
	return botNames[index%len(botNames)] + " Jr"
}
