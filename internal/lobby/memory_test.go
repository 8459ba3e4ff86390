package lobby

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/model"
)

type MemoryServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *MemoryService
}

func TestMemoryServiceSuite(t *testing.T) {
	suite.Run(t, new(MemoryServiceSuite))
}

func (s *MemoryServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = NewMemoryService(&model.MatchLobby{
		ID:      "lobby-1",
		OwnerID: "p_owner",
		Members: []model.PlayerID{"p_owner", "p_guest"},
	})
}

func (s *MemoryServiceSuite) identity(id model.PlayerID) model.Identity {
	return model.Identity{PrimaryID: id, PrimaryAuthenticated: true}
}

func (s *MemoryServiceSuite) TestReadinessNeedsEveryMember() {
	ready, err := s.svc.AreAllPlayersReady(s.ctx)
	s.Require().NoError(err)
	s.False(ready)

	s.svc.SetReady("p_owner", true)
	ready, _ = s.svc.AreAllPlayersReady(s.ctx)
	s.False(ready)

	s.svc.SetReady("p_guest", true)
	ready, _ = s.svc.AreAllPlayersReady(s.ctx)
	s.True(ready)

	s.svc.SetReady("p_guest", false)
	ready, _ = s.svc.AreAllPlayersReady(s.ctx)
	s.False(ready, "readiness is re-evaluated, never latched")
}

func (s *MemoryServiceSuite) TestOwnershipFollowsLobby() {
	owner, err := s.svc.IsOwner(s.ctx, s.identity("p_owner"))
	s.Require().NoError(err)
	s.True(owner)

	owner, err = s.svc.IsOwner(s.ctx, s.identity("p_guest"))
	s.Require().NoError(err)
	s.False(owner)

	_, err = s.svc.IsOwner(s.ctx, s.identity("p_stranger"))
	s.ErrorIs(err, model.ErrNotInLobby)
}

func (s *MemoryServiceSuite) TestCurrentLobbyReturnsCopy() {
	lobby, err := s.svc.CurrentLobby(s.ctx)
	s.Require().NoError(err)

	lobby.Members[0] = "p_mutated"

	fresh, _ := s.svc.CurrentLobby(s.ctx)
	s.Equal(model.PlayerID("p_owner"), fresh.Members[0])
}

func (s *MemoryServiceSuite) TestMatchStartedDeliversOnce() {
	s.svc.NotifyMatchStarted()
	s.svc.NotifyMatchStarted() // buffered channel, second signal dropped

	select {
	case lobby := <-s.svc.MatchStarted():
		s.Equal(model.LobbyID("lobby-1"), lobby.ID)
	default:
		s.FailNow("expected a queued match-started signal")
	}

	select {
	case <-s.svc.MatchStarted():
		s.FailNow("only one signal may be queued")
	default:
	}
}
