// Package model contains the core domain types shared across services
package model

// PlayerID is the durable player identity issued by the primary
// identity provider
type PlayerID string

// Identity is the result of the two-phase sign-in. The primary phase is
// mandatory; the secondary phase is best-effort, so an identity with
// SecondaryAuthenticated false is still fully signed in.
type Identity struct {
	PrimaryID              PlayerID
	SecondaryID            string
	PrimaryAuthenticated   bool
	SecondaryAuthenticated bool
}

// SignedIn reports whether the identity can be used for play
func (i Identity) SignedIn() bool {
	return i.PrimaryAuthenticated
}
