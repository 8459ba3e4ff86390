package model

// LobbyID identifies a match lobby issued by the external lobby service
type LobbyID string

// MatchLobby is the value object supplied by the lobby service once
// matchmaking has produced a ready lobby. It is read-only to this core.
type MatchLobby struct {
	ID      LobbyID
	OwnerID PlayerID
	Members []PlayerID

	// HostAddr is the connection endpoint advertised by the owner,
	// used by non-owners to reach the host transport.
	HostAddr string
}

// HasMember reports whether the given player is part of the lobby
func (l *MatchLobby) HasMember(id PlayerID) bool {
	for _, m := range l.Members {
		if m == id {
			return true
		}
	}
	return false
}

// IsOwner reports whether the given identity owns the lobby
func (l *MatchLobby) IsOwner(identity Identity) bool {
	return identity.PrimaryID == l.OwnerID
}
