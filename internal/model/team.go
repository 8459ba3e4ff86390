package model

// UnassignedTeam marks a participant that no team had capacity for
const UnassignedTeam = -1

// Team holds one team's membership and score. The authoritative copy
// lives only on the host; clients hold a replicated read-only mirror.
type Team struct {
	ID        int
	MemberIDs []PlayerID
	Score     int
}

// HasMember reports whether the player is on this team
func (t *Team) HasMember(id PlayerID) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the team
func (t *Team) Clone() Team {
	members := make([]PlayerID, len(t.MemberIDs))
	copy(members, t.MemberIDs)
	return Team{ID: t.ID, MemberIDs: members, Score: t.Score}
}

// TeamState is the replicated snapshot of all teams, broadcast to
// clients strictly after the authoritative update is committed
type TeamState struct {
	Teams []Team `json:"teams"`
}

// TeamByID returns the team with the given id, or nil
func (s *TeamState) TeamByID(id int) *Team {
	for i := range s.Teams {
		if s.Teams[i].ID == id {
			return &s.Teams[i]
		}
	}
	return nil
}
