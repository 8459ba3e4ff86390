package lobby

import (
	"context"
	"sync"

	"github.com/ovenrush/matchcore/internal/model"
)

// MemoryService is an in-process lobby service used by local play and
// tests. One instance is shared by every participant in the lobby.
type MemoryService struct {
	mu      sync.RWMutex
	lobby   *model.MatchLobby
	ready   map[model.PlayerID]bool
	started chan model.MatchLobby
}

// Ensure MemoryService implements the lobby contract
var _ Service = (*MemoryService)(nil)

// NewMemoryService creates a memory lobby service for the given lobby
func NewMemoryService(lobby *model.MatchLobby) *MemoryService {
	return &MemoryService{
		lobby:   lobby,
		ready:   make(map[model.PlayerID]bool),
		started: make(chan model.MatchLobby, 1),
	}
}

// CurrentLobby returns a copy of the lobby value object
func (s *MemoryService) CurrentLobby(ctx context.Context) (*model.MatchLobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lobby == nil {
		return nil, model.ErrLobbyNotFound
	}
	lobby := *s.lobby
	lobby.Members = append([]model.PlayerID(nil), s.lobby.Members...)
	return &lobby, nil
}

// SetReady marks a member's readiness
func (s *MemoryService) SetReady(id model.PlayerID, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready[id] = ready
}

// AreAllPlayersReady reports whether every member has readied up
func (s *MemoryService) AreAllPlayersReady(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lobby == nil {
		return false, model.ErrLobbyNotFound
	}
	for _, m := range s.lobby.Members {
		if !s.ready[m] {
			return false, nil
		}
	}
	return true, nil
}

// IsOwner reports whether the identity owns the lobby
func (s *MemoryService) IsOwner(ctx context.Context, identity model.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lobby == nil {
		return false, model.ErrLobbyNotFound
	}
	if !s.lobby.HasMember(identity.PrimaryID) {
		return false, model.ErrNotInLobby
	}
	return s.lobby.IsOwner(identity), nil
}

// LeaveMatchLobby removes the local player from the lobby
func (s *MemoryService) LeaveMatchLobby(ctx context.Context) error {
	return nil
}

// NotifyMatchStarted pushes the lobby to waiting non-owner members
func (s *MemoryService) NotifyMatchStarted() {
	s.mu.RLock()
	lobby := s.lobby
	s.mu.RUnlock()

	if lobby == nil {
		return
	}
	select {
	case s.started <- *lobby:
	default:
	}
}

// MatchStarted delivers the lobby once the owner starts the match
func (s *MemoryService) MatchStarted() <-chan model.MatchLobby {
	return s.started
}
