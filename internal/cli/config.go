package cli

import (
	jlconfig "github.com/JeremyLoy/config"
)

// Config holds CLI configuration. Every field can come from the
// environment; flags override what the environment set.
type Config struct {
	// PlayerName is the display name replicated to other participants
	PlayerName string `config:"MATCHCORE_PLAYER_NAME"`
	// Transport selects the network transport ("ws" or "loopback")
	Transport string `config:"MATCHCORE_TRANSPORT"`
	// ListenAddr is the address a host binds its transport to
	ListenAddr string `config:"MATCHCORE_LISTEN_ADDR"`
	// JoinAddr, when set, joins an existing host instead of hosting
	JoinAddr string `config:"MATCHCORE_JOIN_ADDR"`
	// Bots is how many bots a host injects into the match
	Bots int `config:"MATCHCORE_BOTS"`
	// Storage selects the settings/profile backend ("memory" or "redis")
	Storage string `config:"MATCHCORE_STORAGE"`
	// RedisURL configures the redis backend
	RedisURL string `config:"MATCHCORE_REDIS_URL"`
	// Verbose enables debug logging
	Verbose bool `config:"MATCHCORE_VERBOSE"`
}

// DefaultConfig returns a Config seeded from the environment
func DefaultConfig() *Config {
	cfg := &Config{
		Transport:  "ws",
		ListenAddr: ":9400",
		Storage:    "memory",
	}
	// Unset environment variables leave the seeded defaults in place
	_ = jlconfig.FromEnv().To(cfg)
	return cfg
}
