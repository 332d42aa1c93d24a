package orchestrator

import (
	"errors"

	"popup-orchestrator/internal/playback"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateIdle       State = "IDLE"
	StateGenerating State = "GENERATING"
	StatePlaying    State = "PLAYING"
	StateError      State = "ERROR"
)

// transitions lists the legal moves out of each state. Reset from Generating
// is allowed so a user can abandon a slow generation call.
var transitions = map[State][]State{
	StateIdle:       {StateGenerating},
	StateGenerating: {StatePlaying, StateError, StateIdle},
	StatePlaying:    {StateIdle, StateError},
	StateError:      {StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrorKind classifies why a session is in StateError.
type ErrorKind string

const (
	KindValidationRejected ErrorKind = "validation_rejected"
	KindGenerationFailed   ErrorKind = "generation_failed"
	KindPlaybackDisabled   ErrorKind = "playback_disabled"
	KindConnectionLost     ErrorKind = "connection_lost"
)

// User-facing messages. Raw internal errors are never shown.
const (
	MsgGenerationFailed = "Something went wrong while consulting the music spirits. Please try again."
	MsgPlaybackDisabled = "The owner of this video has disabled playback on external sites."
	MsgConnectionLost   = "The player was disconnected. Please try again."
)

// Failure is the user-readable error attached to StateError.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Snapshot is a point-in-time copy of a session for the user surface.
type Snapshot struct {
	State      State                  `json:"state"`
	Identifier string                 `json:"identifier,omitempty"`
	VideoTitle string                 `json:"videoTitle,omitempty"`
	Warning    bool                   `json:"warning"`
	Error      *Failure               `json:"error,omitempty"`
	Readiness  string                 `json:"readiness,omitempty"`
	Playback   *playback.SessionState `json:"playback,omitempty"`
}

var (
	// ErrEmptyIdentifier is returned when a blank identifier is submitted.
	ErrEmptyIdentifier = errors.New("identifier is required")

	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
)
