package client

import "errors"

var (
	// ErrAuthRequired means the viewer must sign in before the action can
	// run. Callers redirect to the login surface; no mutation happened.
	ErrAuthRequired = errors.New("authentication required")

	// ErrDataUnavailable means a remote read failed. Callers show a retry
	// affordance.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrPlaybackUnsupported means the audio handle reported an error.
	// Playback stays disabled for the card until a different episode is
	// selected.
	ErrPlaybackUnsupported = errors.New("playback unsupported")

	// ErrMutationFailed means an engagement write failed and the local
	// state was rolled back to the pre-action snapshot.
	ErrMutationFailed = errors.New("mutation failed")

	// ErrTogglePending rejects a like/bookmark toggle while the previous
	// toggle for the same episode has not settled. Issuing it anyway would
	// race a stale snapshot.
	ErrTogglePending = errors.New("toggle already in flight")
)
