package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/dependencies/mocks"
	"github.com/ovenrush/matchcore/internal/model"
	"github.com/ovenrush/matchcore/internal/storage/memory"
	"github.com/ovenrush/matchcore/internal/testutil"
)

// fakePrimary is a scriptable primary provider
type fakePrimary struct {
	ensureErr    error
	loginErr     error
	loginHangs   bool
	userID       model.PlayerID
	ensureCalls  int
	loginCalls   int
	clearedUsers []model.PlayerID
}

func (p *fakePrimary) Name() string { return "device" }

func (p *fakePrimary) EnsureCredential(ctx context.Context, deviceModel string) error {
	p.ensureCalls++
	return p.ensureErr
}

func (p *fakePrimary) Login(ctx context.Context, credentialType, displayName string) (model.PlayerID, error) {
	p.loginCalls++
	if p.loginHangs {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if p.loginErr != nil {
		return "", p.loginErr
	}
	return p.userID, nil
}

func (p *fakePrimary) ClearCredential(ctx context.Context, userID model.PlayerID) error {
	p.clearedUsers = append(p.clearedUsers, userID)
	return nil
}

// fakeSecondary is a scriptable secondary provider
type fakeSecondary struct {
	signInErr  error
	userID     string
	signedOut  bool
	signInSeen string
}

func (p *fakeSecondary) Name() string { return "community" }

func (p *fakeSecondary) SignInWithExternalToken(ctx context.Context, providerName, token string) (string, error) {
	p.signInSeen = token
	if p.signInErr != nil {
		return "", p.signInErr
	}
	return p.userID, nil
}

func (p *fakeSecondary) SignOut(ctx context.Context) { p.signedOut = true }

type BrokerSuite struct {
	suite.Suite
	primary   *fakePrimary
	secondary *fakeSecondary
	storage   *memory.Storage
	broker    *Broker
	ctx       context.Context
}

func TestBrokerSuite(t *testing.T) {
	suite.Run(t, new(BrokerSuite))
}

func (s *BrokerSuite) SetupTest() {
	s.primary = &fakePrimary{userID: "p_local"}
	s.secondary = &fakeSecondary{userID: "sec_local"}
	s.storage = memory.New()
	s.broker = s.newBroker(DefaultConfig())
	s.ctx = context.Background()
}

func (s *BrokerSuite) newBroker(cfg Config) *Broker {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return New(s.primary, s.secondary, s.storage, clk, testutil.NopLogger(), cfg)
}

func (s *BrokerSuite) TestAuthenticateSucceedsWithBothProviders() {
	identity, err := s.broker.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.PlayerID("p_local"), identity.PrimaryID)
	s.True(identity.PrimaryAuthenticated)
	s.True(identity.SecondaryAuthenticated)
	s.Equal("sec_local", identity.SecondaryID)
	s.True(identity.SignedIn())
}

func (s *BrokerSuite) TestSecondaryFailureStillSucceeds() {
	s.secondary.signInErr = errors.New("provider unavailable")

	identity, err := s.broker.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.True(identity.PrimaryAuthenticated)
	s.False(identity.SecondaryAuthenticated)
	s.Empty(identity.SecondaryID)
	s.True(identity.SignedIn())
}

func (s *BrokerSuite) TestExistingCredentialCountsAsSuccess() {
	s.primary.ensureErr = ErrCredentialExists

	identity, err := s.broker.Authenticate(s.ctx)
	s.Require().NoError(err)
	s.True(identity.PrimaryAuthenticated)
}

func (s *BrokerSuite) TestPrimaryEnsureFailureIsFatal() {
	s.primary.ensureErr = errors.New("provider rejected device")

	_, err := s.broker.Authenticate(s.ctx)
	s.ErrorIs(err, model.ErrPrimaryAuthFailed)
	s.Zero(s.primary.loginCalls)
}

func (s *BrokerSuite) TestPrimaryLoginFailureIsFatal() {
	s.primary.loginErr = errors.New("banned")

	_, err := s.broker.Authenticate(s.ctx)
	s.ErrorIs(err, model.ErrPrimaryAuthFailed)
}

func (s *BrokerSuite) TestPrimaryTimeoutSurfacesTypedFailure() {
	s.primary.loginHangs = true
	cfg := DefaultConfig()
	cfg.PrimaryTimeout = 20 * time.Millisecond
	broker := s.newBroker(cfg)

	start := time.Now()
	_, err := broker.Authenticate(s.ctx)
	s.ErrorIs(err, model.ErrPrimaryAuthFailed)
	s.Less(time.Since(start), 5*time.Second, "must not hang indefinitely")
}

func (s *BrokerSuite) TestSecondaryStrictlyFollowsPrimary() {
	_, err := s.broker.Authenticate(s.ctx)
	s.Require().NoError(err)

	// The secondary provider signs in with the primary id as token,
	// so it cannot have run before the primary phase resolved it.
	s.Equal("p_local", s.secondary.signInSeen)
}

func (s *BrokerSuite) TestAuthenticatePersistsLoginMethod() {
	_, err := s.broker.Authenticate(s.ctx)
	s.Require().NoError(err)

	settings, err := s.storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("device", settings.LastLoginMethod)
}

func (s *BrokerSuite) TestTrySilentLoginWithoutPersistedMethod() {
	_, ok := s.broker.TrySilentLogin(s.ctx)
	s.False(ok)
	s.Zero(s.primary.loginCalls)
}

func (s *BrokerSuite) TestTrySilentLoginUsesPersistedMethod() {
	_, err := s.broker.Authenticate(s.ctx)
	s.Require().NoError(err)

	identity, ok := s.broker.TrySilentLogin(s.ctx)
	s.True(ok)
	s.True(identity.PrimaryAuthenticated)
}

func (s *BrokerSuite) TestTrySilentLoginSwallowsFailure() {
	_, _ = s.broker.Authenticate(s.ctx)
	s.primary.loginErr = errors.New("session expired")

	_, ok := s.broker.TrySilentLogin(s.ctx)
	s.False(ok)
}

func (s *BrokerSuite) TestSignOutClearsBothProviders() {
	_, _ = s.broker.Authenticate(s.ctx)

	s.broker.SignOut(s.ctx)

	s.True(s.secondary.signedOut)
	s.Equal([]model.PlayerID{"p_local"}, s.primary.clearedUsers)
	s.Nil(s.broker.Identity())
}
