package music

import "errors"

var (
	// ErrNoMatch means the search came back empty even after the fallback query.
	ErrNoMatch = errors.New("no match found")
	// ErrLookupUnavailable wraps provider or network failures during search.
	ErrLookupUnavailable = errors.New("lookup backend unavailable")
	// ErrStreamUnresolvable means a resolved track could not be turned into a stream at play time.
	ErrStreamUnresolvable = errors.New("stream unresolvable")
	// ErrSessionConflict rejects requests for another channel while the guild is actively playing.
	ErrSessionConflict = errors.New("session already active in another channel")
	// ErrPersistenceCorrupt marks a snapshot that failed to decode.
	ErrPersistenceCorrupt = errors.New("persisted snapshot is corrupt")
	// ErrPermissionDenied is returned by gateways that cannot join or speak.
	ErrPermissionDenied = errors.New("missing voice permissions")

	ErrNothingPlaying  = errors.New("nothing is playing")
	ErrNotConnected    = errors.New("not connected to voice")
	ErrSeekOutOfRange  = errors.New("seek offset out of range")
	ErrShuffleTooShort = errors.New("not enough tracks to shuffle")
	ErrInvalidLoopMode = errors.New("invalid loop mode")
	ErrInvalidOffset   = errors.New("invalid offset")
	ErrQueueIndex      = errors.New("queue position out of range")
	// ErrDisplayGone is returned by display sinks when the message was deleted.
	ErrDisplayGone = errors.New("status display no longer exists")
)

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, ErrNoMatch) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrStreamUnresolvable)
}
