package redis

import "github.com/ovenrush/matchcore/internal/model"

const keyPrefix = "matchcore:"

// settingsKey is the single device settings blob
func settingsKey() string {
	return keyPrefix + "settings"
}

// profileKey returns the key for a player profile
func profileKey(id model.PlayerID) string {
	return keyPrefix + "profile:" + string(id)
}
