package identity

import (
	"context"
	"errors"

	"github.com/ovenrush/matchcore/internal/model"
)

// ErrCredentialExists is returned by PrimaryProvider.EnsureCredential
// when a device credential is already registered. The broker treats it
// as success.
var ErrCredentialExists = errors.New("device credential already exists")

// PrimaryProvider is the mandatory identity provider. Its success gates
// all gameplay; there is no fallback for it.
type PrimaryProvider interface {
	// Name identifies the provider for settings persistence
	Name() string

	// EnsureCredential registers a stable device-bound credential,
	// returning ErrCredentialExists if one is already present
	EnsureCredential(ctx context.Context, deviceModel string) error

	// Login exchanges the device credential for a primary session and
	// returns the provider-issued user id
	Login(ctx context.Context, credentialType, displayName string) (model.PlayerID, error)

	// ClearCredential removes the device credential for the given user
	ClearCredential(ctx context.Context, userID model.PlayerID) error
}

// SecondaryProvider is the optional identity provider, linked via the
// primary identity as an external token. Its failure never gates
// gameplay.
type SecondaryProvider interface {
	// Name identifies the provider for logging
	Name() string

	// SignInWithExternalToken signs in using the primary identity as an
	// external-token credential and returns the secondary user id
	SignInWithExternalToken(ctx context.Context, providerName, token string) (string, error)

	// SignOut ends the secondary session, if any
	SignOut(ctx context.Context)
}
