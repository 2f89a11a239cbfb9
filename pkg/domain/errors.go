package domain

import "errors"

// Lookup errors.
var (
	// ErrViewNotFound is returned when a view ID is not part of the session.
	ErrViewNotFound = errors.New("view not found")
	// ErrNoActiveView is returned when an action needs a current view and there is none.
	ErrNoActiveView = errors.New("no active view")
	// ErrSnapshotNotFound is returned by snapshot stores for unknown keys.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Service errors.
var (
	// ErrRequestFailed wraps any transport or service failure. Requests are never retried.
	ErrRequestFailed = errors.New("request failed")
)

// Interactive stepping errors. None of them modify the tree.
var (
	ErrNoInteractiveSession = errors.New("no interactive session")
	ErrUnknownNode          = errors.New("unknown step node")
	ErrNodeExpanded         = errors.New("step node already expanded")
	ErrExpansionPending     = errors.New("step node expansion already in flight")
	ErrStaleTree            = errors.New("interactive tree was reset")
	ErrNodeCollision        = errors.New("step node id collides with an existing node")
	ErrEmptyStep            = errors.New("step response has no nodes")
)

// Link and parsing errors.
var (
	ErrMalformedPermalink = errors.New("malformed permalink")
	ErrMalformedFixedLink = errors.New("malformed fixed link")
	ErrUnknownModel       = errors.New("unknown model")
	ErrUnknownAction      = errors.New("unknown action")
	ErrUnknownTab         = errors.New("unknown tab")
)
