package music

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceGateway opens voice sessions for a guild.
type VoiceGateway interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (VoiceSession, error)
}

// PlayRequest starts audio on a session. OnEnd must be called exactly once,
// from a goroutine that holds none of the caller's locks, when the audio
// stops for any reason.
type PlayRequest struct {
	Locator string
	Offset  time.Duration
	Volume  float64
	OnEnd   func(reason EndReason, err error)
}

// VoiceSession is a connected voice channel. Play replaces whatever is
// currently playing and starts unpaused; the replaced playback still
// reports its OnEnd. None of the methods may block on the audio pipeline.
type VoiceSession interface {
	ChannelID() snowflake.ID
	Play(req PlayRequest) error
	SetPaused(paused bool)
	SetVolume(volume float64)
	Stop()
	Disconnect(ctx context.Context) error
}

// Candidate is a search hit before it is stamped with a requester.
type Candidate struct {
	URI        string
	Title      string
	Author     string
	Duration   time.Duration
	ArtworkURL string
}

// Loaded is the result of opening a direct link. Playlist entries may come
// back without a URI, in which case they are searched by title and author.
type Loaded struct {
	Entries  []Candidate
	Playlist bool
}

// SearchBackend looks up tracks from text or links.
type SearchBackend interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
	Load(ctx context.Context, uri string) (Loaded, error)
}

// LocatorBackend turns a source URI into a short-lived direct media URI.
type LocatorBackend interface {
	Locate(ctx context.Context, uri string) (string, error)
}

// MessageRef points at a posted status display.
type MessageRef struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// DisplaySink renders cards and prompts into text channels. Edit returns
// an error wrapping ErrDisplayGone when the message no longer exists.
type DisplaySink interface {
	PostCard(ctx context.Context, channelID snowflake.ID, card Card) (MessageRef, error)
	EditCard(ctx context.Context, ref MessageRef, card Card) error
	Delete(ctx context.Context, ref MessageRef) error
	PromptRestore(ctx context.Context, channelID, guildID snowflake.ID, trackCount int) (MessageRef, error)
	Notify(ctx context.Context, channelID snowflake.ID, text string) error
}

// Store persists guild snapshots. Implementations do no locking of their own.
type Store interface {
	Save(ctx context.Context, guildID snowflake.ID, snap Snapshot) error
	// Load returns nil when no usable snapshot exists.
	Load(ctx context.Context, guildID snowflake.ID) (*Snapshot, error)
	Delete(ctx context.Context, guildID snowflake.ID) error
}
