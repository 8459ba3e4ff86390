package loopback

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/transport"
)

type LoopbackSuite struct {
	suite.Suite
	network *Network
	host    *Transport
	ctx     context.Context
}

func TestLoopbackSuite(t *testing.T) {
	suite.Run(t, new(LoopbackSuite))
}

func (s *LoopbackSuite) SetupTest() {
	s.network = NewNetwork()
	s.host = s.network.NewTransport("p_host", "Hosty")
	s.ctx = context.Background()
}

func (s *LoopbackSuite) TestStartHostAssignsServerPeerID() {
	s.Require().NoError(s.host.StartHost(s.ctx))
	s.Equal(transport.ServerPeerID, s.host.LocalPeerID())
}

func (s *LoopbackSuite) TestSecondHostIsRefused() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	other := s.network.NewTransport("p_other", "Other")
	s.Error(other.StartHost(s.ctx))
}

func (s *LoopbackSuite) TestClientWithoutHostIsRefused() {
	client := s.network.NewTransport("p_client", "Client")
	s.Error(client.StartClient(s.ctx, ""))
}

func (s *LoopbackSuite) TestFailNextStartRefusesOnce() {
	s.host.FailNextStart = true
	s.Error(s.host.StartHost(s.ctx))
	s.NoError(s.host.StartHost(s.ctx))
}

func (s *LoopbackSuite) TestClientConnectionRunsApproval() {
	var approved []model.PlayerID
	s.host.SetConnectionApproval(func(req transport.ApprovalRequest) transport.ApprovalResponse {
		approved = append(approved, req.Peer.PlayerID)
		return transport.ApprovalResponse{Approved: true}
	})
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.network.NewTransport("p_client", "Client")
	s.Require().NoError(client.StartClient(s.ctx, ""))

	s.Equal([]model.PlayerID{"p_client"}, approved)
	s.NotEqual(transport.ServerPeerID, client.LocalPeerID())
}

func (s *LoopbackSuite) TestRejectedClientDoesNotConnect() {
	s.host.SetConnectionApproval(func(req transport.ApprovalRequest) transport.ApprovalResponse {
		return transport.ApprovalResponse{Approved: false, Reason: "match full"}
	})
	var connected int
	s.host.OnPeerConnected(func(transport.Peer) { connected++ })
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.network.NewTransport("p_client", "Client")
	s.Error(client.StartClient(s.ctx, ""))
	s.Zero(connected)
}

func (s *LoopbackSuite) TestClientShutdownSignalsHost() {
	var lost []model.ParticipantID
	s.host.OnPeerDisconnected(func(id model.ParticipantID) { lost = append(lost, id) })
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.network.NewTransport("p_client", "Client")
	s.Require().NoError(client.StartClient(s.ctx, ""))
	peerID := client.LocalPeerID()

	client.Shutdown()
	s.Equal([]model.ParticipantID{peerID}, lost)
}

func (s *LoopbackSuite) TestHostShutdownSignalsClientsWithServerPeerID() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	client := s.network.NewTransport("p_client", "Client")
	var lost []model.ParticipantID
	client.OnPeerDisconnected(func(id model.ParticipantID) { lost = append(lost, id) })
	s.Require().NoError(client.StartClient(s.ctx, ""))

	s.host.Shutdown()
	s.Equal([]model.ParticipantID{transport.ServerPeerID}, lost)
}

func (s *LoopbackSuite) TestShutdownIsIdempotent() {
	s.Require().NoError(s.host.StartHost(s.ctx))
	s.host.Shutdown()
	s.host.Shutdown()
}

func (s *LoopbackSuite) TestBroadcastReachesAllClients() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	var got []string
	client := s.network.NewTransport("p_client", "Client")
	client.OnMessage(func(msg transport.Message) {
		var v string
		_ = json.Unmarshal(msg.Data, &v)
		got = append(got, msg.Kind+":"+v)
	})
	s.Require().NoError(client.StartClient(s.ctx, ""))

	s.Require().NoError(s.host.Broadcast("greeting", "hello"))
	s.Equal([]string{"greeting:hello"}, got)
}

func (s *LoopbackSuite) TestReservePeerIDSharesSequenceWithClients() {
	s.Require().NoError(s.host.StartHost(s.ctx))

	reserved := s.host.ReservePeerID()
	client := s.network.NewTransport("p_client", "Client")
	s.Require().NoError(client.StartClient(s.ctx, ""))

	s.NotEqual(reserved, client.LocalPeerID())
	s.NotEqual(transport.ServerPeerID, reserved)
}
