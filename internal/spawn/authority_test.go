package spawn

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/team"
	"github.com/ovenrush/matchcore/internal/testutil"
	"github.com/ovenrush/matchcore/internal/transport"
	"github.com/ovenrush/matchcore/internal/transport/loopback"
)

type AuthoritySuite struct {
	suite.Suite
	network   *loopback.Network
	transport *loopback.Transport
	teams     *team.Authority
	authority *Authority
}

func TestAuthoritySuite(t *testing.T) {
	suite.Run(t, new(AuthoritySuite))
}

func (s *AuthoritySuite) SetupTest() {
	s.network = loopback.NewNetwork()
	s.transport = s.network.NewTransport("p_host", "Hosty")
	s.Require().NoError(s.transport.StartHost(context.Background()))

	s.teams = team.New(team.Config{Enabled: true, TeamCount: 2, PlayersPerTeam: 4}, nil, testutil.NopLogger())
	s.authority = New(s.transport, s.teams, testutil.NopLogger(), Config{SpawnPointCount: 4})
}

func (s *AuthoritySuite) TestSpawnAllocatesPointAndTeam() {
	s.Require().NoError(s.authority.Spawn(1, "p_1", "Alice", false))

	record, ok := s.authority.Record(1)
	s.Require().True(ok)
	s.Equal(model.PlayerID("p_1"), record.PlayerID)
	s.GreaterOrEqual(record.SpawnPointID, 0)
	s.NotEqual(model.UnassignedTeam, record.TeamID)
}

func (s *AuthoritySuite) TestSpawnIsIdempotentPerParticipant() {
	s.Require().NoError(s.authority.Spawn(1, "p_1", "Alice", false))

	err := s.authority.Spawn(1, "p_1", "Alice", false)
	s.ErrorIs(err, model.ErrAlreadySpawned)
	s.Len(s.authority.Records(), 1)
}

func (s *AuthoritySuite) TestSpawnPointsAreExclusive() {
	for i := model.ParticipantID(1); i <= 4; i++ {
		s.Require().NoError(s.authority.Spawn(i, model.PlayerID(fmt.Sprintf("p_%d", i)), "P", false))
	}

	seen := make(map[int]bool)
	for _, rec := range s.authority.Records() {
		s.False(seen[rec.SpawnPointID], "spawn point shared")
		seen[rec.SpawnPointID] = true
	}
}

func (s *AuthoritySuite) TestSpawnFailsWhenPointsExhausted() {
	for i := model.ParticipantID(1); i <= 4; i++ {
		s.Require().NoError(s.authority.Spawn(i, model.PlayerID(fmt.Sprintf("p_%d", i)), "P", false))
	}

	err := s.authority.Spawn(9, "p_9", "Late", false)
	s.ErrorIs(err, model.ErrSpawnAllocationFailed)
}

func (s *AuthoritySuite) TestReleaseFreesPointForReuse() {
	for i := model.ParticipantID(1); i <= 4; i++ {
		s.Require().NoError(s.authority.Spawn(i, model.PlayerID(fmt.Sprintf("p_%d", i)), "P", false))
	}

	s.authority.Release(2)
	s.NoError(s.authority.Spawn(9, "p_9", "Late", false))
}

func (s *AuthoritySuite) TestReleaseIsIdempotent() {
	s.Require().NoError(s.authority.Spawn(1, "p_1", "Alice", false))

	s.authority.Release(1)
	s.authority.Release(1)
	s.Empty(s.authority.Records())
}

func (s *AuthoritySuite) TestReleaseRemovesPlayerFromTeam() {
	s.Require().NoError(s.authority.Spawn(1, "p_1", "Alice", false))
	s.authority.Release(1)

	for _, t := range s.teams.Snapshot().Teams {
		s.False(t.HasMember("p_1"))
	}
}

func (s *AuthoritySuite) TestApprovalIsUnconditionalButDefersSpawning() {
	resp := s.authority.ApproveConnection(transport.ApprovalRequest{
		Peer: transport.Peer{ID: 7, PlayerID: "p_7"},
	})
	s.True(resp.Approved)
	s.False(resp.CreatePlayerObject)
	s.Empty(s.authority.Records(), "approval alone must not spawn")
}

func (s *AuthoritySuite) TestInjectBotsSpawnsIndistinguishableRecords() {
	s.Require().NoError(s.authority.Spawn(s.transport.LocalPeerID(), "p_host", "Hosty", false))
	s.authority.InjectBots(2)

	records := s.authority.Records()
	s.Require().Len(records, 3)

	bots := 0
	for _, rec := range records {
		if rec.IsBot {
			bots++
			s.NotEmpty(rec.DisplayName)
			s.NotContains(rec.DisplayName, "Bot")
			s.NotEmpty(rec.PlayerID)
		}
	}
	s.Equal(2, bots)
}

func (s *AuthoritySuite) TestReplicatedViewHidesBotFlag() {
	s.authority.InjectBots(1)
	records := s.authority.Records()
	s.Require().Len(records, 1)

	replicated := records[0].Replicated()
	s.Equal(records[0].DisplayName, replicated.DisplayName)
	s.Equal(records[0].SpawnPointID, replicated.SpawnPointID)
	// The replicated struct has no bot field at all; spot-check the
	// populated fields a human record would also carry.
	s.NotEmpty(replicated.PlayerID)
}

func (s *AuthoritySuite) TestInjectBotsStopsAtCapacity() {
	s.authority.InjectBots(10)
	s.Len(s.authority.Records(), 4)
}

func (s *AuthoritySuite) TestDespawnBotOnlyAffectsBots() {
	s.Require().NoError(s.authority.Spawn(1, "p_1", "Alice", false))
	s.authority.InjectBots(1)

	s.authority.DespawnBot(1) // human, must be a no-op
	_, stillThere := s.authority.Record(1)
	s.True(stillThere)

	for _, rec := range s.authority.Records() {
		if rec.IsBot {
			s.authority.DespawnBot(rec.ParticipantID)
		}
	}
	s.Len(s.authority.Records(), 1)
}

func (s *AuthoritySuite) TestBotsUseSharedPeerIDSequence() {
	s.authority.InjectBots(1)
	records := s.authority.Records()
	s.Require().Len(records, 1)
	s.NotEqual(transport.ServerPeerID, records[0].ParticipantID)
}
