package music

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const (
	testGuild   snowflake.ID = 100
	testVoice   snowflake.ID = 200
	otherVoice  snowflake.ID = 201
	testText    snowflake.ID = 300
	testUser    snowflake.ID = 400
	anotherUser snowflake.ID = 401
)

// --- search backend ---

type fakeBackend struct {
	mu       sync.Mutex
	results  map[string][]Candidate
	loads    map[string]Loaded
	fail     error
	searches []string
	// auto answers any search not in results with a hit named after it.
	auto bool
	// hold parks Load for a uri until its channel is closed; held reports
	// each parked call.
	hold map[string]chan struct{}
	held chan string
}

func (b *fakeBackend) holdLoad(uri string) (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hold == nil {
		b.hold = map[string]chan struct{}{}
		b.held = make(chan string, 8)
	}
	ch := make(chan struct{})
	b.hold[uri] = ch
	return func() { close(ch) }
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{results: map[string][]Candidate{}, loads: map[string]Loaded{}, auto: true}
}

func (b *fakeBackend) Search(_ context.Context, q string) ([]Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searches = append(b.searches, q)
	if b.fail != nil {
		return nil, b.fail
	}
	if r, ok := b.results[q]; ok {
		return r, nil
	}
	if b.auto {
		return []Candidate{{URI: "https://example.com/" + strings.ReplaceAll(q, " ", "_"), Title: q, Author: "artist", Duration: 3 * time.Minute}}, nil
	}
	return nil, nil
}

func (b *fakeBackend) Load(_ context.Context, uri string) (Loaded, error) {
	b.mu.Lock()
	if ch, ok := b.hold[uri]; ok {
		b.mu.Unlock()
		b.held <- uri
		<-ch
		b.mu.Lock()
	}
	defer b.mu.Unlock()
	if b.fail != nil {
		return Loaded{}, b.fail
	}
	if l, ok := b.loads[uri]; ok {
		return l, nil
	}
	title := uri[strings.LastIndex(uri, "/")+1:]
	return Loaded{Entries: []Candidate{{URI: uri, Title: strings.ReplaceAll(title, "_", " "), Duration: 3 * time.Minute}}}, nil
}

func (b *fakeBackend) searchLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.searches...)
}

// --- stream locator ---

type fakeLocator struct {
	mu   sync.Mutex
	bad  map[string]bool
	hits int
}

func (l *fakeLocator) Locate(_ context.Context, uri string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits++
	if l.bad[uri] {
		return "", errors.New("format unavailable")
	}
	return "stream:" + uri, nil
}

// --- voice ---

type fakeSession struct {
	mu           sync.Mutex
	channelID    snowflake.ID
	plays        []PlayRequest
	paused       bool
	volume       float64
	stops        int
	disconnected bool
}

func (s *fakeSession) ChannelID() snowflake.ID { return s.channelID }

func (s *fakeSession) Play(req PlayRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays = append(s.plays, req)
	s.paused = false
	s.volume = req.Volume
	return nil
}

func (s *fakeSession) SetPaused(p bool) {
	s.mu.Lock()
	s.paused = p
	s.mu.Unlock()
}

func (s *fakeSession) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *fakeSession) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *fakeSession) Disconnect(context.Context) error {
	s.mu.Lock()
	s.disconnected = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) lastPlay(t *testing.T) PlayRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.plays) == 0 {
		t.Fatal("nothing was played")
	}
	return s.plays[len(s.plays)-1]
}

func (s *fakeSession) playCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plays)
}

type fakeGateway struct {
	mu       sync.Mutex
	sessions []*fakeSession
	err      error
}

func (g *fakeGateway) Connect(_ context.Context, _, channelID snowflake.ID) (VoiceSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	s := &fakeSession{channelID: channelID}
	g.sessions = append(g.sessions, s)
	return s, nil
}

func (g *fakeGateway) last(t *testing.T) *fakeSession {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sessions) == 0 {
		t.Fatal("no voice session was opened")
	}
	return g.sessions[len(g.sessions)-1]
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// --- display ---

type fakeSink struct {
	mu       sync.Mutex
	nextID   snowflake.ID
	posted   []Card
	edits    int
	deleted  []MessageRef
	prompts  int
	notices  []string
	gone     map[MessageRef]bool
	promptID MessageRef
	// deleteErr is returned by every Delete.
	deleteErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{nextID: 1000, gone: map[MessageRef]bool{}}
}

func (s *fakeSink) PostCard(_ context.Context, channelID snowflake.ID, card Card) (MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.posted = append(s.posted, card)
	return MessageRef{ChannelID: channelID, MessageID: s.nextID}, nil
}

func (s *fakeSink) EditCard(_ context.Context, ref MessageRef, _ Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone[ref] {
		return ErrDisplayGone
	}
	s.edits++
	return nil
}

func (s *fakeSink) Delete(_ context.Context, ref MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ref)
	return s.deleteErr
}

func (s *fakeSink) PromptRestore(_ context.Context, channelID, _ snowflake.ID, _ int) (MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.prompts++
	s.promptID = MessageRef{ChannelID: channelID, MessageID: s.nextID}
	return s.promptID, nil
}

func (s *fakeSink) Notify(_ context.Context, _ snowflake.ID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, text)
	return nil
}

func (s *fakeSink) noticed(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

// --- store ---

type memStore struct {
	mu    sync.Mutex
	snaps map[snowflake.ID]Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: map[snowflake.ID]Snapshot{}}
}

func (m *memStore) Save(_ context.Context, guildID snowflake.ID, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Tracks = append([]Track(nil), snap.Tracks...)
	m.snaps[guildID] = snap
	return nil
}

func (m *memStore) Load(_ context.Context, guildID snowflake.ID) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[guildID]
	if !ok || len(s.Tracks) == 0 {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) Delete(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, guildID)
	return nil
}

func (m *memStore) get(guildID snowflake.ID) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[guildID]
	return s, ok
}

// --- time ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	was := !m.stopped
	m.stopped = true
	return was
}

type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

// fire runs every armed timer with the given duration, as if it expired.
func (m *manualTimers) fire(d time.Duration) int {
	m.mu.Lock()
	var due []*manualTimer
	for _, t := range m.timers {
		if t.d == d && !t.stopped {
			t.stopped = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

func (m *manualTimers) armed(d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if t.d == d && !t.stopped {
			n++
		}
	}
	return n
}

// --- harness ---

const (
	testAlone   = 2 * time.Minute
	testIdle    = 10 * time.Second
	testRestore = time.Minute
)

type harness struct {
	c       *Controller
	backend *fakeBackend
	locator *fakeLocator
	gateway *fakeGateway
	sink    *fakeSink
	store   *memStore
	clock   *fakeClock
	timers  *manualTimers
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: newFakeBackend(),
		locator: &fakeLocator{bad: map[string]bool{}},
		gateway: &fakeGateway{},
		sink:    newFakeSink(),
		store:   newMemStore(),
		clock:   &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		timers:  &manualTimers{},
	}
	h.c = NewController(Options{
		Gateway:        h.gateway,
		Resolver:       NewTrackResolver(h.backend, nil, 100),
		Streams:        NewStreamResolver(h.locator, nil),
		Store:          h.store,
		Display:        h.sink,
		DefaultVolume:  0.3,
		AloneTimeout:   testAlone,
		IdleGrace:      testIdle,
		RestoreTimeout: testRestore,
		Now:            h.clock.Now,
		AfterFunc:      h.timers.AfterFunc,
		Shuffle: func(n int, swap func(i, j int)) {
			for i := 0; i < n/2; i++ {
				swap(i, n-1-i)
			}
		},
	})
	return h
}

func (h *harness) play(t *testing.T, query string) EnqueueResult {
	t.Helper()
	res, err := h.c.Enqueue(context.Background(), EnqueueRequest{
		GuildID:        testGuild,
		VoiceChannelID: testVoice,
		TextChannelID:  testText,
		RequesterID:    testUser,
		Query:          query,
	})
	if err != nil {
		t.Fatalf("Enqueue(%q): %v", query, err)
	}
	return res
}

// finish ends the current playback as if the stream ran out.
func (h *harness) finish(t *testing.T) {
	t.Helper()
	h.gateway.last(t).lastPlay(t).OnEnd(EndFinished, nil)
}

func (h *harness) view(t *testing.T) View {
	t.Helper()
	v, ok := h.c.View(testGuild)
	if !ok {
		t.Fatal("guild has no state")
	}
	return v
}

func titles(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, tr := range tracks {
		out[i] = tr.Title
	}
	return out
}

func currentTitle(v View) string {
	if v.Current == nil {
		return ""
	}
	return v.Current.Title
}
