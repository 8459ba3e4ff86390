// Package loopback wires transports together in-process. It backs
// local play and the integration tests with the exact lifecycle
// semantics of the networked implementation.
package loopback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/transport"
)

// Network connects loopback transports in one process. The first
// transport to StartHost becomes the host; later clients connect
// through its approval hook.
type Network struct {
	mu       sync.Mutex
	host     *Transport
	peers    map[model.ParticipantID]*Transport
	nextPeer model.ParticipantID
}

// NewNetwork creates an empty loopback network
func NewNetwork() *Network {
	return &Network{
		peers:    make(map[model.ParticipantID]*Transport),
		nextPeer: transport.ServerPeerID + 1,
	}
}

// NewTransport creates a transport for one participant on this network
func (n *Network) NewTransport(playerID model.PlayerID, displayName string) *Transport {
	return &Transport{
		network:     n,
		playerID:    playerID,
		displayName: displayName,
		autoSpawn:   true,
	}
}

func (n *Network) reservePeerID() model.ParticipantID {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextPeer
	n.nextPeer++
	return id
}

// Transport is one participant's loopback endpoint
type Transport struct {
	network     *Network
	playerID    model.PlayerID
	displayName string

	// FailNextStart makes the next start attempt refuse, simulating a
	// transport that cannot bind
	FailNextStart bool

	mu           sync.Mutex
	running      bool
	isHost       bool
	localPeer    model.ParticipantID
	autoSpawn    bool
	approval     transport.ApprovalFunc
	onConnect    func(transport.Peer)
	onDisconnect func(model.ParticipantID)
	onMessage    func(transport.Message)
}

// Ensure Transport implements the contract
var _ transport.Transport = (*Transport)(nil)

// StartHost registers this transport as the network's host
func (t *Transport) StartHost(ctx context.Context) error {
	if t.FailNextStart {
		t.FailNextStart = false
		return errors.New("loopback: start refused")
	}

	t.network.mu.Lock()
	defer t.network.mu.Unlock()

	if t.network.host != nil {
		return errors.New("loopback: network already has a host")
	}

	t.mu.Lock()
	t.running = true
	t.isHost = true
	t.localPeer = transport.ServerPeerID
	t.mu.Unlock()

	t.network.host = t
	return nil
}

// StartClient connects to the network's host through its approval hook
func (t *Transport) StartClient(ctx context.Context, hostAddr string) error {
	if t.FailNextStart {
		t.FailNextStart = false
		return errors.New("loopback: start refused")
	}

	t.network.mu.Lock()
	host := t.network.host
	t.network.mu.Unlock()

	if host == nil {
		return errors.New("loopback: no host on network")
	}

	peer := transport.Peer{
		ID:          t.network.reservePeerID(),
		PlayerID:    t.playerID,
		DisplayName: t.displayName,
	}

	host.mu.Lock()
	approval := host.approval
	onConnect := host.onConnect
	host.mu.Unlock()

	if approval != nil {
		resp := approval(transport.ApprovalRequest{Peer: peer})
		if !resp.Approved {
			return errors.New("loopback: connection rejected: " + resp.Reason)
		}
	}

	t.mu.Lock()
	t.running = true
	t.isHost = false
	t.localPeer = peer.ID
	t.mu.Unlock()

	t.network.mu.Lock()
	t.network.peers[peer.ID] = t
	t.network.mu.Unlock()

	if onConnect != nil {
		onConnect(peer)
	}
	return nil
}

// Shutdown stops the transport. A host shutdown disconnects every
// client; a client shutdown signals the host. Safe to call repeatedly.
func (t *Transport) Shutdown() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	isHost := t.isHost
	localPeer := t.localPeer
	t.mu.Unlock()

	if isHost {
		t.network.mu.Lock()
		t.network.host = nil
		peers := make([]*Transport, 0, len(t.network.peers))
		for _, p := range t.network.peers {
			peers = append(peers, p)
		}
		t.network.peers = make(map[model.ParticipantID]*Transport)
		t.network.mu.Unlock()

		for _, p := range peers {
			p.hostLost()
		}
		return
	}

	t.network.mu.Lock()
	delete(t.network.peers, localPeer)
	host := t.network.host
	t.network.mu.Unlock()

	if host != nil {
		host.mu.Lock()
		onDisconnect := host.onDisconnect
		host.mu.Unlock()
		if onDisconnect != nil {
			onDisconnect(localPeer)
		}
	}
}

// hostLost delivers the host-connection disconnect to a client
func (t *Transport) hostLost() {
	t.mu.Lock()
	wasRunning := t.running
	onDisconnect := t.onDisconnect
	t.mu.Unlock()

	if wasRunning && onDisconnect != nil {
		onDisconnect(transport.ServerPeerID)
	}
}

// LocalPeerID returns the local connection id
func (t *Transport) LocalPeerID() model.ParticipantID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.localPeer
}

// ReservePeerID allocates an id from the network's shared sequence
func (t *Transport) ReservePeerID() model.ParticipantID {
	return t.network.reservePeerID()
}

// SetAutoSpawn toggles automatic instantiation of approved peers
func (t *Transport) SetAutoSpawn(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoSpawn = enabled
}

// AutoSpawnEnabled reports the current auto-spawn setting
func (t *Transport) AutoSpawnEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.autoSpawn
}

// SetConnectionApproval installs the approval hook
func (t *Transport) SetConnectionApproval(fn transport.ApprovalFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.approval = fn
}

// OnPeerConnected registers the post-approval connection callback
func (t *Transport) OnPeerConnected(fn func(transport.Peer)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnect = fn
}

// OnPeerDisconnected registers the disconnect callback
func (t *Transport) OnPeerDisconnected(fn func(model.ParticipantID)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = fn
}

// Broadcast delivers a payload to every connected client
func (t *Transport) Broadcast(kind string, payload any) error {
	msg, err := transport.Marshal(kind, payload)
	if err != nil {
		return err
	}

	t.network.mu.Lock()
	peers := make([]*Transport, 0, len(t.network.peers))
	for _, p := range t.network.peers {
		peers = append(peers, p)
	}
	t.network.mu.Unlock()

	for _, p := range peers {
		p.mu.Lock()
		onMessage := p.onMessage
		p.mu.Unlock()
		if onMessage != nil {
			onMessage(msg)
		}
	}
	return nil
}

// OnMessage registers the replicated-payload callback
func (t *Transport) OnMessage(fn func(transport.Message)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMessage = fn
}

// Ping measures the in-process round trip, which is effectively zero
func (t *Transport) Ping(ctx context.Context) (time.Duration, error) {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	if !running {
		return 0, errors.New("loopback: transport not running")
	}
	start := time.Now()
	return time.Since(start), nil
}
