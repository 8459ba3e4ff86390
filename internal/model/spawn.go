package model

// ParticipantID is a transport-level connection id. Bots receive ids
// reserved through the same transport sequence as real peers.
type ParticipantID uint64

// SpawnRecord tracks one spawned participant. Records are owned
// exclusively by the host: one per connected transport peer plus one
// per injected bot. A spawn point, once assigned, is held until release.
type SpawnRecord struct {
	ParticipantID ParticipantID
	PlayerID      PlayerID
	DisplayName   string
	IsBot         bool
	TeamID        int
	SpawnPointID  int
}

// Replicated returns the view of this record that is broadcast to
// clients. Bots must be indistinguishable from humans here, so the
// bot flag is deliberately absent.
func (r *SpawnRecord) Replicated() ReplicatedPlayer {
	return ReplicatedPlayer{
		ParticipantID: r.ParticipantID,
		PlayerID:      r.PlayerID,
		DisplayName:   r.DisplayName,
		TeamID:        r.TeamID,
		SpawnPointID:  r.SpawnPointID,
	}
}

// ReplicatedPlayer is the client-visible state of a spawned participant
type ReplicatedPlayer struct {
	ParticipantID ParticipantID `json:"participant_id"`
	PlayerID      PlayerID      `json:"player_id"`
	DisplayName   string        `json:"display_name"`
	TeamID        int           `json:"team_id"`
	SpawnPointID  int           `json:"spawn_point_id"`
}
