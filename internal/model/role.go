package model

// NetworkRole is the local participant's role in a match.
// It is computed once per match attempt and never recomputed mid-match;
// there is no host migration.
type NetworkRole string

const (
	RoleHost   NetworkRole = "host"
	RoleClient NetworkRole = "client"
)

// RoleFor derives the local participant's role from the lobby ownership.
// Exactly one lobby member resolves to RoleHost.
func RoleFor(identity Identity, lobby *MatchLobby) NetworkRole {
	if lobby.IsOwner(identity) {
		return RoleHost
	}
	return RoleClient
}
