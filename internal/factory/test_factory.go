package factory

import (
	"context"
	"sync"
	"time"

	"github.com/ovenrush/matchcore/internal/dependencies/mocks"
	"github.com/ovenrush/matchcore/internal/lobby"
	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/providers/local"
	"github.com/ovenrush/matchcore/internal/session"
	"github.com/ovenrush/matchcore/internal/storage/memory"
	"github.com/ovenrush/matchcore/internal/testutil"
	"github.com/ovenrush/matchcore/internal/transport/loopback"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	Notifications *RecordingNotifier
	Loopback      *loopback.Transport
}

// NewTestApp creates one participant's App on the given loopback
// network, with a deterministic identity and mocked dependencies
func NewTestApp(playerID model.PlayerID, network *loopback.Network, lobbySvc lobby.Service) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	notifier := &RecordingNotifier{}
	transport := network.NewTransport(playerID, string(playerID))

	app := newWithDependencies(store, mockClock, Config{
		Transport:       transport,
		Lobby:           lobbySvc,
		Primary:         &fixedPrimary{userID: playerID},
		Secondary:       local.NewSecondary(),
		Notifier:        notifier,
		SessionConfig:   session.Config{LobbyPollInterval: 5 * time.Millisecond},
		LatencyInterval: time.Hour,
	}, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		Notifications: notifier,
		Loopback:      transport,
	}
}

// fixedPrimary is a primary provider with a predetermined user id, so
// tests can build lobbies before anyone has signed in
type fixedPrimary struct {
	userID model.PlayerID
}

func (p *fixedPrimary) Name() string { return "device" }

func (p *fixedPrimary) EnsureCredential(ctx context.Context, deviceModel string) error {
	return nil
}

func (p *fixedPrimary) Login(ctx context.Context, credentialType, displayName string) (model.PlayerID, error) {
	return p.userID, nil
}

func (p *fixedPrimary) ClearCredential(ctx context.Context, userID model.PlayerID) error {
	return nil
}

// RecordingNotifier captures notifications for assertions. Safe for
// delivery from transport callbacks.
type RecordingNotifier struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

// Info records an informational notification
func (n *RecordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

// Warn records a warning notification
func (n *RecordingNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, msg)
}

// Infos returns a copy of the recorded informational notifications
func (n *RecordingNotifier) Infos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...)
}

// Warns returns a copy of the recorded warnings
func (n *RecordingNotifier) Warns() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.warns...)
}
