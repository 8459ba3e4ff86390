package model

import "errors"

// Common errors used across the application
var (
	// Authentication errors
	ErrPrimaryAuthFailed   = errors.New("primary authentication failed")
	ErrSecondaryAuthFailed = errors.New("secondary authentication failed")

	// Lobby errors
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrLobbyNotReady = errors.New("lobby is not ready")
	ErrNotInLobby    = errors.New("player is not in lobby")

	// Match errors
	ErrTransportStartFailed = errors.New("network transport failed to start")
	ErrHostLost             = errors.New("host connection lost")
	ErrMatchInProgress      = errors.New("match is in progress")

	// Spawn errors
	ErrSpawnAllocationFailed = errors.New("no spawn point available")
	ErrAlreadySpawned        = errors.New("participant is already spawned")

	// Player data errors
	ErrProfileNotFound = errors.New("player profile not found")

	// Bootstrap errors
	ErrUpdateRequired    = errors.New("a mandatory client update is required")
	ErrUnderMaintenance  = errors.New("service is under maintenance")
	ErrConfigUnavailable = errors.New("remote config unavailable")
)
