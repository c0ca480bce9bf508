package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoreUnavailable marks failures of the persistence layer.
// The interpreter never proceeds on an unpersisted state.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrNoGraph is returned when no valid graph is loaded.
var ErrNoGraph = errors.New("no graph loaded")

// ErrLockTimeout is returned when a distributed session lock cannot be acquired.
var ErrLockTimeout = errors.New("session lock timeout")
