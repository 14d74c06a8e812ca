package music

import (
	"sort"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. Tests swap it for a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// armedTimer lets an expiring callback confirm it is still the armed one.
type armedTimer struct {
	t Timer
}

// GuildState is everything the bot holds for one guild. Every field below
// mu is guarded by it; connMu serializes voice connection attempts.
type GuildState struct {
	GuildID snowflake.ID

	connMu sync.Mutex
	mu     sync.Mutex

	queue     []Track
	loopMode  LoopMode
	volume    float64
	current   *Track
	startedAt time.Time
	pausedAt  time.Time
	paused    bool

	// gen increments whenever the current playback is replaced, so end
	// callbacks from an older playback can be told apart.
	gen uint64

	session     VoiceSession
	connectedAt time.Time
	humans      int

	textChannelID snowflake.ID
	statusRef     MessageRef

	aloneTimer *armedTimer
	idleTimer  *armedTimer
	restore    *pendingRestore
}

func newGuildState(guildID snowflake.ID, volume float64) *GuildState {
	return &GuildState{
		GuildID: guildID,
		volume:  volume,
		humans:  -1,
	}
}

// elapsedLocked is the playback position, frozen while paused and clamped
// to the track length when one is known.
func (s *GuildState) elapsedLocked(now time.Time) time.Duration {
	if s.current == nil || s.startedAt.IsZero() {
		return 0
	}
	ref := now
	if s.paused {
		ref = s.pausedAt
	}
	d := ref.Sub(s.startedAt)
	if d < 0 {
		d = 0
	}
	if s.current.Duration > 0 && d > s.current.Duration {
		d = s.current.Duration
	}
	return d
}

func (s *GuildState) snapshotLocked() Snapshot {
	tracks := make([]Track, 0, len(s.queue)+1)
	if s.current != nil {
		tracks = append(tracks, *s.current)
	}
	tracks = append(tracks, s.queue...)
	return Snapshot{
		Tracks:   tracks,
		LoopMode: s.loopMode,
		Volume:   s.volume,
	}
}

// View is a copy of a guild's state for rendering.
type View struct {
	GuildID       snowflake.ID
	ChannelID     snowflake.ID
	TextChannelID snowflake.ID
	Connected     bool
	Current       *Track
	Queue         []Track
	LoopMode      LoopMode
	Volume        float64
	Paused        bool
	Elapsed       time.Duration
	StatusRef     MessageRef
	RestoreOpen   bool
}

func (s *GuildState) View(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(now)
}

func (s *GuildState) viewLocked(now time.Time) View {
	v := View{
		GuildID:       s.GuildID,
		TextChannelID: s.textChannelID,
		Connected:     s.session != nil,
		Queue:         append([]Track(nil), s.queue...),
		LoopMode:      s.loopMode,
		Volume:        s.volume,
		Paused:        s.paused,
		Elapsed:       s.elapsedLocked(now),
		StatusRef:     s.statusRef,
		RestoreOpen:   s.restore != nil,
	}
	if s.session != nil {
		v.ChannelID = s.session.ChannelID()
	}
	if s.current != nil {
		t := *s.current
		v.Current = &t
	}
	return v
}

// dropStatusRef forgets the card reference if it still points at ref.
func (s *GuildState) dropStatusRef(ref MessageRef) {
	s.mu.Lock()
	if s.statusRef == ref {
		s.statusRef = MessageRef{}
	}
	s.mu.Unlock()
}

// Registry maps guilds to their state, creating entries lazily.
type Registry struct {
	mu            sync.Mutex
	guilds        map[snowflake.ID]*GuildState
	defaultVolume float64
}

func NewRegistry(defaultVolume float64) *Registry {
	return &Registry{
		guilds:        make(map[snowflake.ID]*GuildState),
		defaultVolume: defaultVolume,
	}
}

func (r *Registry) Get(guildID snowflake.ID) *GuildState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.guilds[guildID]
	if !ok {
		st = newGuildState(guildID, r.defaultVolume)
		r.guilds[guildID] = st
	}
	return st
}

func (r *Registry) Lookup(guildID snowflake.ID) (*GuildState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.guilds[guildID]
	return st, ok
}

// All returns every known guild, ordered by ID.
func (r *Registry) All() []*GuildState {
	r.mu.Lock()
	out := make([]*GuildState, 0, len(r.guilds))
	for _, st := range r.guilds {
		out = append(out, st)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out
}
