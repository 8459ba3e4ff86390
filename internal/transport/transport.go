// Package transport defines the start/stop/role contract of the network
// layer. In-match replication of game state lives elsewhere; this is
// only the lifecycle surface the match core depends on.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ovenrush/matchcore/internal/model"
)

// ServerPeerID is the well-known connection id of the host's own
// connection. A client observing a disconnect for this id has lost its
// link to the host.
const ServerPeerID model.ParticipantID = 0

// Message kinds replicated through the transport
const (
	KindTeamState       = "team_state"
	KindPlayerSpawned   = "player_spawned"
	KindPlayerDespawned = "player_despawned"
	KindPing            = "ping"
	KindPong            = "pong"
)

// Message is one replicated payload
type Message struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Peer describes one connected participant
type Peer struct {
	ID          model.ParticipantID
	PlayerID    model.PlayerID
	DisplayName string
}

// ApprovalRequest carries an inbound connection for the approval hook
type ApprovalRequest struct {
	Peer Peer
}

// ApprovalResponse is the approval hook's decision. CreatePlayerObject
// false defers instantiation to the spawn authority instead of the
// transport's automatic binding.
type ApprovalResponse struct {
	Approved           bool
	CreatePlayerObject bool
	Reason             string
}

// ApprovalFunc gates every inbound connection on the host. It must
// return quickly; a slow approval starves other connecting peers.
type ApprovalFunc func(ApprovalRequest) ApprovalResponse

// Transport is the network lifecycle contract. Implementations start in
// exactly one of host or client mode and deliver disconnect signals
// until Shutdown.
type Transport interface {
	// StartHost starts the transport in host mode
	StartHost(ctx context.Context) error

	// StartClient starts the transport in client mode, connecting to
	// the host at the given address
	StartClient(ctx context.Context, hostAddr string) error

	// Shutdown stops the transport. Safe to call more than once.
	Shutdown()

	// LocalPeerID returns the local connection id. On the host this is
	// ServerPeerID.
	LocalPeerID() model.ParticipantID

	// ReservePeerID allocates a connection id from the same sequence
	// used for real peers, for synthetic participants
	ReservePeerID() model.ParticipantID

	// SetAutoSpawn toggles automatic player instantiation for approved
	// peers. Must be called before StartHost to guarantee no peer is
	// spawned without the spawn authority.
	SetAutoSpawn(enabled bool)

	// SetConnectionApproval installs the approval hook (host mode)
	SetConnectionApproval(fn ApprovalFunc)

	// OnPeerConnected registers the callback fired after a peer is
	// approved and connected (host mode)
	OnPeerConnected(fn func(Peer))

	// OnPeerDisconnected registers the disconnect callback. On the
	// host it fires per lost client; on a client it fires with
	// ServerPeerID when the host connection is lost.
	OnPeerDisconnected(fn func(model.ParticipantID))

	// Broadcast replicates a payload to all connected peers (host mode)
	Broadcast(kind string, payload any) error

	// OnMessage registers the callback for replicated payloads
	// (client mode)
	OnMessage(fn func(Message))

	// Ping measures round-trip time to the host (client mode) or the
	// slowest peer (host mode)
	Ping(ctx context.Context) (time.Duration, error)
}

// Marshal encodes a payload into a Message
func Marshal(kind string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: kind, Data: data}, nil
}
