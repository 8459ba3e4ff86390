// Package local provides in-process identity providers so the client
// can run a full match lifecycle without external services. They follow
// the same contract as the hosted providers, including the
// already-exists outcome on credential creation.
package local

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovenrush/matchcore/internal/identity"
	"github.com/ovenrush/matchcore/internal/model"
)

// credential is one registered device credential
type credential struct {
	userID     model.PlayerID
	secret     string
	secretHash string
}

// PrimaryProvider is an in-memory primary identity provider keyed by
// device model. Secrets are verified against bcrypt hashes, matching
// the hosted provider's behavior.
type PrimaryProvider struct {
	mu          sync.Mutex
	credentials map[string]*credential

	// LoginErr, when set, makes every login fail (for testing outages)
	LoginErr error
}

// Ensure the provider satisfies the broker contract
var _ identity.PrimaryProvider = (*PrimaryProvider)(nil)

// NewPrimary creates a new local primary provider
func NewPrimary() *PrimaryProvider {
	return &PrimaryProvider{
		credentials: make(map[string]*credential),
	}
}

// Name identifies the provider in persisted settings
func (p *PrimaryProvider) Name() string { return "device" }

// EnsureCredential registers a device-bound credential, returning
// identity.ErrCredentialExists when the device is already registered
func (p *PrimaryProvider) EnsureCredential(ctx context.Context, deviceModel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.credentials[deviceModel]; ok {
		return identity.ErrCredentialExists
	}

	secret := randomSecret()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.credentials[deviceModel] = &credential{
		userID:     model.PlayerID("p_" + uuid.NewString()),
		secret:     secret,
		secretHash: string(hash),
	}
	return nil
}

// Login verifies the stored device secret and returns the user id
func (p *PrimaryProvider) Login(ctx context.Context, credentialType, displayName string) (model.PlayerID, error) {
	if p.LoginErr != nil {
		return "", p.LoginErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The local provider holds a single device per process
	for _, cred := range p.credentials {
		if err := bcrypt.CompareHashAndPassword([]byte(cred.secretHash), []byte(cred.secret)); err != nil {
			return "", err
		}
		return cred.userID, nil
	}
	return "", identity.ErrCredentialExists // no credential registered yet
}

// ClearCredential removes the credential for the given user
func (p *PrimaryProvider) ClearCredential(ctx context.Context, userID model.PlayerID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for device, cred := range p.credentials {
		if cred.userID == userID {
			delete(p.credentials, device)
		}
	}
	return nil
}

// SecondaryProvider is an in-memory secondary identity provider
type SecondaryProvider struct {
	mu       sync.Mutex
	signedIn bool

	// SignInErr, when set, makes sign-in fail (for testing the
	// best-effort path)
	SignInErr error
}

// Ensure the provider satisfies the broker contract
var _ identity.SecondaryProvider = (*SecondaryProvider)(nil)

// NewSecondary creates a new local secondary provider
func NewSecondary() *SecondaryProvider {
	return &SecondaryProvider{}
}

// Name identifies the provider in logs
func (p *SecondaryProvider) Name() string { return "community" }

// SignInWithExternalToken signs in using the primary identity as token
func (p *SecondaryProvider) SignInWithExternalToken(ctx context.Context, providerName, token string) (string, error) {
	if p.SignInErr != nil {
		return "", p.SignInErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.signedIn = true
	return "sec_" + token, nil
}

// SignOut ends the secondary session
func (p *SecondaryProvider) SignOut(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.signedIn = false
}

// randomSecret generates a random device secret
func randomSecret() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
