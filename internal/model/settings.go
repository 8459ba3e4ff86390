package model

import "time"

// Settings is the only on-disk state this core owns: the last
// successful login method, used to attempt silent re-authentication on
// the next cold start. The primary provider owns all other persistence.
type Settings struct {
	LastLoginMethod string
	UpdatedAt       time.Time
}

// Profile is the cloud-synced player profile. A player with an empty
// display name is blocked at the main menu until one is entered.
type Profile struct {
	PlayerID    PlayerID
	DisplayName string
	CreatedAt   time.Time
	SyncedAt    time.Time
}
