// Package team holds the host-authoritative team assignment and score
// state. Clients never mutate it; they apply replicated snapshots to a
// read-only mirror.
package team

import (
	"log/slog"
	"sync"

	"github.com/ovenrush/matchcore/internal/model"
)

// Broadcaster replicates a committed team state to all clients
type Broadcaster interface {
	BroadcastTeamState(state model.TeamState) error
}

// Config holds team mode settings
type Config struct {
	// Enabled turns team mode on; with it off, auto-assignment is a
	// no-op and every participant stays unassigned
	Enabled bool
	// TeamCount is the number of teams
	TeamCount int
	// PlayersPerTeam caps each team's membership
	PlayersPerTeam int
}

// DefaultConfig returns default team configuration
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		TeamCount:      2,
		PlayersPerTeam: 4,
	}
}

// Authority is the host-side owner of team state. Every mutation is
// committed under the lock before it is broadcast, so no client ever
// observes a state the host has not committed.
type Authority struct {
	cfg         Config
	broadcaster Broadcaster
	logger      *slog.Logger

	mu    sync.Mutex
	teams []model.Team
}

// New creates a team Authority with empty teams
func New(cfg Config, broadcaster Broadcaster, logger *slog.Logger) *Authority {
	if cfg.TeamCount == 0 {
		cfg = DefaultConfig()
	}
	teams := make([]model.Team, cfg.TeamCount)
	for i := range teams {
		teams[i] = model.Team{ID: i}
	}
	return &Authority{
		cfg:         cfg,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "team-authority")),
		teams:       teams,
	}
}

// AssignPlayer places a player on the given team. It is rejected when
// the team id is out of range or the team is full. A player already on
// another team is moved in the same committed update, so no observer
// ever counts it on two teams.
func (a *Authority) AssignPlayer(playerID model.PlayerID, teamID int) bool {
	a.mu.Lock()

	if teamID < 0 || teamID >= len(a.teams) {
		a.mu.Unlock()
		return false
	}

	target := &a.teams[teamID]
	if target.HasMember(playerID) {
		a.mu.Unlock()
		return true
	}
	if len(target.MemberIDs) >= a.cfg.PlayersPerTeam {
		a.mu.Unlock()
		return false
	}

	a.removeLocked(playerID)
	target.MemberIDs = append(target.MemberIDs, playerID)
	state := a.snapshotLocked()
	a.mu.Unlock()

	a.replicate(state)
	return true
}

// AutoAssign places a newly connected participant into the first team
// with free capacity. When every team is full the player stays
// unassigned; that is an explicit non-placement, not an error.
func (a *Authority) AutoAssign(playerID model.PlayerID) int {
	if !a.cfg.Enabled {
		return model.UnassignedTeam
	}

	a.mu.Lock()

	for i := range a.teams {
		if a.teams[i].HasMember(playerID) {
			a.mu.Unlock()
			return a.teams[i].ID
		}
	}

	for i := range a.teams {
		if len(a.teams[i].MemberIDs) < a.cfg.PlayersPerTeam {
			a.teams[i].MemberIDs = append(a.teams[i].MemberIDs, playerID)
			state := a.snapshotLocked()
			teamID := a.teams[i].ID
			a.mu.Unlock()

			a.replicate(state)
			return teamID
		}
	}

	a.mu.Unlock()
	a.logger.Info("no team capacity, player unassigned", slog.String("player_id", string(playerID)))
	return model.UnassignedTeam
}

// RemovePlayer takes a player off whatever team it is on
func (a *Authority) RemovePlayer(playerID model.PlayerID) {
	a.mu.Lock()
	removed := a.removeLocked(playerID)
	state := a.snapshotLocked()
	a.mu.Unlock()

	if removed {
		a.replicate(state)
	}
}

// AddScore accumulates score for a team and replicates the result
func (a *Authority) AddScore(teamID int, delta int) {
	a.mu.Lock()

	if teamID < 0 || teamID >= len(a.teams) {
		a.mu.Unlock()
		return
	}
	a.teams[teamID].Score += delta
	state := a.snapshotLocked()
	a.mu.Unlock()

	a.replicate(state)
}

// Snapshot returns a deep copy of the authoritative state
func (a *Authority) Snapshot() model.TeamState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// removeLocked drops the player from any team. Caller holds the lock.
func (a *Authority) removeLocked(playerID model.PlayerID) bool {
	for i := range a.teams {
		members := a.teams[i].MemberIDs
		for j, m := range members {
			if m == playerID {
				a.teams[i].MemberIDs = append(members[:j], members[j+1:]...)
				return true
			}
		}
	}
	return false
}

// snapshotLocked deep-copies the teams. Caller holds the lock.
func (a *Authority) snapshotLocked() model.TeamState {
	state := model.TeamState{Teams: make([]model.Team, len(a.teams))}
	for i := range a.teams {
		state.Teams[i] = a.teams[i].Clone()
	}
	return state
}

// replicate broadcasts a committed state. Broadcast always happens
// after the mutation is committed, never before.
func (a *Authority) replicate(state model.TeamState) {
	if a.broadcaster == nil {
		return
	}
	if err := a.broadcaster.BroadcastTeamState(state); err != nil {
		a.logger.Warn("team state broadcast failed", slog.String("error", err.Error()))
	}
}
