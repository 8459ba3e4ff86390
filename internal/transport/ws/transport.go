// Package ws is the networked transport implementation. The host runs
// an HTTP server with a websocket endpoint; clients dial it. It carries
// only the lifecycle and replication surface the match core needs.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/transport"
)

const (
	kindJoin     = "join"
	kindWelcome  = "welcome"
	kindRejected = "rejected"

	writeWait        = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

// joinPayload is the first message a client sends after dialing
type joinPayload struct {
	PlayerID    model.PlayerID `json:"player_id"`
	DisplayName string         `json:"display_name"`
}

// welcomePayload assigns the client its connection id
type welcomePayload struct {
	PeerID model.ParticipantID `json:"peer_id"`
}

// rejectedPayload carries the approval refusal reason
type rejectedPayload struct {
	Reason string `json:"reason"`
}

// pingPayload carries a nonce echoed back in the pong
type pingPayload struct {
	Nonce uint64 `json:"nonce"`
}

// Config holds websocket transport settings
type Config struct {
	// ListenAddr is the host-mode bind address (e.g. :0 for ephemeral)
	ListenAddr string
}

// DefaultConfig returns default websocket transport configuration
func DefaultConfig() Config {
	return Config{ListenAddr: ":7777"}
}

// peerConn is one connected client on the host side
type peerConn struct {
	peer transport.Peer
	conn *websocket.Conn
	mu   sync.Mutex // guards writes
}

func (p *peerConn) write(msg transport.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

// Transport is one participant's websocket endpoint
type Transport struct {
	playerID    model.PlayerID
	displayName string
	cfg         Config
	logger      *slog.Logger

	mu           sync.Mutex
	running      bool
	isHost       bool
	localPeer    model.ParticipantID
	nextPeer     model.ParticipantID
	autoSpawn    bool
	approval     transport.ApprovalFunc
	onConnect    func(transport.Peer)
	onDisconnect func(model.ParticipantID)
	onMessage    func(transport.Message)

	// host mode
	server   *http.Server
	listener net.Listener
	peers    map[model.ParticipantID]*peerConn

	// client mode
	conn    *websocket.Conn
	connMu  sync.Mutex // guards client writes
	netOnce sync.Once  // host-loss delivery

	// ping correlation
	pingMu    sync.Mutex
	pingNonce uint64
	pending   map[uint64]chan struct{}
}

// Ensure Transport implements the contract
var _ transport.Transport = (*Transport)(nil)

// New creates a websocket transport for one participant
func New(playerID model.PlayerID, displayName string, cfg Config, logger *slog.Logger) *Transport {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	return &Transport{
		playerID:    playerID,
		displayName: displayName,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "ws-transport")),
		nextPeer:    transport.ServerPeerID + 1,
		autoSpawn:   true,
		peers:       make(map[model.ParticipantID]*peerConn),
		pending:     make(map[uint64]chan struct{}),
	}
}

// StartHost binds the listener and serves the websocket endpoint
func (t *Transport) StartHost(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return errors.New("ws: transport already running")
	}

	listener, err := net.Listen("tcp", t.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("ws: listen: %w", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/ws", t.handleJoin).Methods(http.MethodGet)

	t.listener = listener
	t.server = &http.Server{Handler: router}
	t.running = true
	t.isHost = true
	t.localPeer = transport.ServerPeerID

	go func() {
		if err := t.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Warn("host server stopped", slog.String("error", err.Error()))
		}
	}()

	t.logger.Info("transport started in host mode", slog.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound host address, empty when not hosting
func (t *Transport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: handshakeTimeout,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// handleJoin upgrades an inbound connection and runs it through the
// approval hook before registering the peer
func (t *Transport) handleJoin(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	var join transport.Message
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	if err := conn.ReadJSON(&join); err != nil || join.Kind != kindJoin {
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	var payload joinPayload
	if err := json.Unmarshal(join.Data, &payload); err != nil {
		_ = conn.Close()
		return
	}

	peer := transport.Peer{
		ID:          t.ReservePeerID(),
		PlayerID:    payload.PlayerID,
		DisplayName: payload.DisplayName,
	}

	t.mu.Lock()
	approval := t.approval
	onConnect := t.onConnect
	t.mu.Unlock()

	if approval != nil {
		resp := approval(transport.ApprovalRequest{Peer: peer})
		if !resp.Approved {
			msg, _ := transport.Marshal(kindRejected, rejectedPayload{Reason: resp.Reason})
			_ = conn.WriteJSON(msg)
			_ = conn.Close()
			return
		}
	}

	pc := &peerConn{peer: peer, conn: conn}
	welcome, _ := transport.Marshal(kindWelcome, welcomePayload{PeerID: peer.ID})
	if err := pc.write(welcome); err != nil {
		_ = conn.Close()
		return
	}

	t.mu.Lock()
	t.peers[peer.ID] = pc
	t.mu.Unlock()

	if onConnect != nil {
		onConnect(peer)
	}

	go t.readPeer(pc)
}

// readPeer pumps one client connection until it drops
func (t *Transport) readPeer(pc *peerConn) {
	for {
		var msg transport.Message
		if err := pc.conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Kind {
		case transport.KindPong:
			t.resolvePong(msg)
		case transport.KindPing:
			// Client-side latency probe; echo it back
			_ = pc.write(transport.Message{Kind: transport.KindPong, Data: msg.Data})
		}
	}

	_ = pc.conn.Close()

	t.mu.Lock()
	_, known := t.peers[pc.peer.ID]
	delete(t.peers, pc.peer.ID)
	onDisconnect := t.onDisconnect
	running := t.running
	t.mu.Unlock()

	if known && running && onDisconnect != nil {
		onDisconnect(pc.peer.ID)
	}
}

// StartClient dials the host and completes the join handshake
func (t *Transport) StartClient(ctx context.Context, hostAddr string) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return errors.New("ws: transport already running")
	}
	t.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, "ws://"+hostAddr+"/ws", nil)
	if err != nil {
		return fmt.Errorf("ws: dial host: %w", err)
	}

	join, _ := transport.Marshal(kindJoin, joinPayload{
		PlayerID:    t.playerID,
		DisplayName: t.displayName,
	})
	if err := conn.WriteJSON(join); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ws: join: %w", err)
	}

	var reply transport.Message
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	if err := conn.ReadJSON(&reply); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ws: handshake: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	switch reply.Kind {
	case kindWelcome:
		var welcome welcomePayload
		if err := json.Unmarshal(reply.Data, &welcome); err != nil {
			_ = conn.Close()
			return fmt.Errorf("ws: handshake: %w", err)
		}
		t.mu.Lock()
		t.running = true
		t.isHost = false
		t.localPeer = welcome.PeerID
		t.conn = conn
		t.netOnce = sync.Once{}
		t.mu.Unlock()
	case kindRejected:
		var rejected rejectedPayload
		_ = json.Unmarshal(reply.Data, &rejected)
		_ = conn.Close()
		return errors.New("ws: connection rejected: " + rejected.Reason)
	default:
		_ = conn.Close()
		return errors.New("ws: unexpected handshake reply: " + reply.Kind)
	}

	go t.readHost(conn)

	t.logger.Info("transport started in client mode", slog.String("host", hostAddr))
	return nil
}

// readHost pumps the host connection until it drops
func (t *Transport) readHost(conn *websocket.Conn) {
	for {
		var msg transport.Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Kind {
		case transport.KindPing:
			t.clientWrite(transport.Message{Kind: transport.KindPong, Data: msg.Data})
		case transport.KindPong:
			t.resolvePong(msg)
		default:
			t.mu.Lock()
			onMessage := t.onMessage
			t.mu.Unlock()
			if onMessage != nil {
				onMessage(msg)
			}
		}
	}

	_ = conn.Close()

	// Losing the read loop is indistinguishable from losing the host
	t.netOnce.Do(func() {
		t.mu.Lock()
		onDisconnect := t.onDisconnect
		running := t.running
		t.mu.Unlock()
		if running && onDisconnect != nil {
			onDisconnect(transport.ServerPeerID)
		}
	})
}

func (t *Transport) clientWrite(msg transport.Message) {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn == nil {
		return
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = t.conn.WriteJSON(msg)
}

// Shutdown stops the transport. Safe to call more than once.
func (t *Transport) Shutdown() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	isHost := t.isHost
	server := t.server
	conn := t.conn
	peers := t.peers
	t.peers = make(map[model.ParticipantID]*peerConn)
	t.mu.Unlock()

	if isHost {
		for _, pc := range peers {
			_ = pc.conn.Close()
		}
		if server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = server.Shutdown(ctx)
			cancel()
		}
		return
	}

	if conn != nil {
		_ = conn.Close()
	}
}

// LocalPeerID returns the local connection id
func (t *Transport) LocalPeerID() model.ParticipantID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.localPeer
}

// ReservePeerID allocates an id from the host's peer sequence
func (t *Transport) ReservePeerID() model.ParticipantID {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextPeer
	t.nextPeer++
	return id
}

// SetAutoSpawn toggles automatic instantiation of approved peers
func (t *Transport) SetAutoSpawn(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoSpawn = enabled
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

// Broadcast replicates a payload to every connected client
func (t *Transport) Broadcast(kind string, payload any) error {
	msg, err := transport.Marshal(kind, payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	peers := make([]*peerConn, 0, len(t.peers))
	for _, pc := range t.peers {
		peers = append(peers, pc)
	}
	t.mu.Unlock()

	for _, pc := range peers {
		if err := pc.write(msg); err != nil {
			t.logger.Warn("broadcast write failed",
				slog.Uint64("peer", uint64(pc.peer.ID)),
				slog.String("error", err.Error()),
			)
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

// Ping measures round-trip time over the application channel
func (t *Transport) Ping(ctx context.Context) (time.Duration, error) {
	t.pingMu.Lock()
	t.pingNonce++
	nonce := t.pingNonce
	done := make(chan struct{})
	t.pending[nonce] = done
	t.pingMu.Unlock()

	defer func() {
		t.pingMu.Lock()
		delete(t.pending, nonce)
		t.pingMu.Unlock()
	}()

	msg, err := transport.Marshal(transport.KindPing, pingPayload{Nonce: nonce})
	if err != nil {
		return 0, err
	}

	start := time.Now()

	t.mu.Lock()
	isHost := t.isHost
	running := t.running
	peers := make([]*peerConn, 0, len(t.peers))
	for _, pc := range t.peers {
		peers = append(peers, pc)
	}
	t.mu.Unlock()

	if !running {
		return 0, errors.New("ws: transport not running")
	}

	if isHost {
		if len(peers) == 0 {
			return 0, nil
		}
		for _, pc := range peers {
			_ = pc.write(msg)
		}
	} else {
		t.clientWrite(msg)
	}

	select {
	case <-done:
		return time.Since(start), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// resolvePong completes a pending ping measurement
func (t *Transport) resolvePong(msg transport.Message) {
	var payload pingPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return
	}

	t.pingMu.Lock()
	done, ok := t.pending[payload.Nonce]
	if ok {
		delete(t.pending, payload.Nonce)
	}
	t.pingMu.Unlock()

	if ok {
		close(done)
	}
}
