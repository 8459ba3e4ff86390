package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/testutil"
	"github.com/ovenrush/matchcore/internal/transport"
)

type WSSuite struct {
	suite.Suite
	host *Transport
	ctx  context.Context
}

func TestWSSuite(t *testing.T) {
	suite.Run(t, new(WSSuite))
}

func (s *WSSuite) SetupTest() {
	s.host = New("p_host", "Hosty", Config{ListenAddr: "127.0.0.1:0"}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *WSSuite) TearDownTest() {
	s.host.Shutdown()
}

func (s *WSSuite) newClient(playerID model.PlayerID) *Transport {
	return New(playerID, string(playerID), Config{}, testutil.NopLogger())
}

func (s *WSSuite) waitPeer(ch <-chan model.ParticipantID) model.ParticipantID {
	select {
	case id := <-ch:
		return id
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for peer event")
		return 0
	}
}

func (s *WSSuite) TestHostStartsAndClientJoins() {
	connected := make(chan model.ParticipantID, 1)
	s.host.OnPeerConnected(func(p transport.Peer) { connected <- p.ID })
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.newClient("p_client")
	defer client.Shutdown()
	s.Require().NoError(client.StartClient(s.ctx, s.host.Addr()))

	peerID := s.waitPeer(connected)
	s.Equal(peerID, client.LocalPeerID())
	s.NotEqual(transport.ServerPeerID, client.LocalPeerID())
}

func (s *WSSuite) TestApprovalRejectionRefusesClient() {
	s.host.SetConnectionApproval(func(req transport.ApprovalRequest) transport.ApprovalResponse {
		return transport.ApprovalResponse{Approved: false, Reason: "match full"}
	})
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.newClient("p_client")
	err := client.StartClient(s.ctx, s.host.Addr())
	s.Require().Error(err)
	s.Contains(err.Error(), "match full")
}

func (s *WSSuite) TestClientDisconnectReachesHost() {
	connected := make(chan model.ParticipantID, 1)
	disconnected := make(chan model.ParticipantID, 1)
	s.host.OnPeerConnected(func(p transport.Peer) { connected <- p.ID })
	s.host.OnPeerDisconnected(func(id model.ParticipantID) { disconnected <- id })
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.newClient("p_client")
	s.Require().NoError(client.StartClient(s.ctx, s.host.Addr()))
	joined := s.waitPeer(connected)

	client.Shutdown()
	s.Equal(joined, s.waitPeer(disconnected))
}

func (s *WSSuite) TestHostShutdownReachesClientAsServerPeer() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.newClient("p_client")
	lost := make(chan model.ParticipantID, 1)
	client.OnPeerDisconnected(func(id model.ParticipantID) { lost <- id })
	s.Require().NoError(client.StartClient(s.ctx, s.host.Addr()))

	s.host.Shutdown()
	s.Equal(transport.ServerPeerID, s.waitPeer(lost))
}

func (s *WSSuite) TestBroadcastReachesClient() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.newClient("p_client")
	defer client.Shutdown()
	got := make(chan transport.Message, 1)
	client.OnMessage(func(msg transport.Message) { got <- msg })
	s.Require().NoError(client.StartClient(s.ctx, s.host.Addr()))

	s.Require().NoError(s.host.Broadcast(transport.KindTeamState, model.TeamState{}))

	select {
	case msg := <-got:
		s.Equal(transport.KindTeamState, msg.Kind)
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for broadcast")
	}
}

func (s *WSSuite) TestClientPingMeasuresRoundTrip() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.newClient("p_client")
	defer client.Shutdown()
	s.Require().NoError(client.StartClient(s.ctx, s.host.Addr()))

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	rtt, err := client.Ping(ctx)
	s.Require().NoError(err)
	s.GreaterOrEqual(rtt, time.Duration(0))
}
