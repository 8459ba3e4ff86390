package team

import (
	"encoding/json"
	"sync"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/transport"
)

// Mirror is the client-side read-only replica of team state
type Mirror struct {
	mu    sync.RWMutex
	state model.TeamState
}

// NewMirror creates an empty team mirror
func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply replaces the replica with a received snapshot
func (m *Mirror) Apply(state model.TeamState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// HandleMessage applies replicated team-state messages, ignoring others
func (m *Mirror) HandleMessage(msg transport.Message) {
	if msg.Kind != transport.KindTeamState {
		return
	}
	var state model.TeamState
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		return
	}
	m.Apply(state)
}

// Snapshot returns a copy of the replicated state
func (m *Mirror) Snapshot() model.TeamState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := model.TeamState{Teams: make([]model.Team, len(m.state.Teams))}
	for i := range m.state.Teams {
		state.Teams[i] = m.state.Teams[i].Clone()
	}
	return state
}
