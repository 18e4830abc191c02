package types

import (
	"errors"
)

var (
	// ErrInit is returned when the native engine or its player could not be constructed.
	ErrInit = errors.New("unable to initialize the embedded player")

	// ErrLock is returned when the internal serialization point is unusable
	// (a previous native call panicked while holding it).
	ErrLock = errors.New("the player lock is poisoned")

	ErrUnsupportedPlatform = errors.New("unsupported platform for the embedded player")

	// ErrSurfaceUnavailable means the surface handle exists but the host has not realized it yet.
	ErrSurfaceUnavailable = errors.New("the display surface is not available")

	ErrMediaCreation  = errors.New("unable to create media")
	ErrPlaybackStart  = errors.New("unable to start playback")
	ErrBinaryNotFound = errors.New("player binary not found in PATH")
)
