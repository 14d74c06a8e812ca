package music

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/sys"
)

// Snapshot is the persisted form of a guild queue. The track that was
// playing, if any, comes first.
type Snapshot struct {
	Tracks   []Track
	LoopMode LoopMode
	Volume   float64
	SavedAt  time.Time
}

const snapshotVersion = 1

type snapshotRecord struct {
	Version  int           `json:"version"`
	Queue    []trackRecord `json:"queue"`
	LoopMode string        `json:"loop_mode"`
	Volume   float64       `json:"volume"`
	SavedAt  time.Time     `json:"saved_at"`
}

type trackRecord struct {
	URI         string       `json:"uri"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	DurationMS  int64        `json:"duration"`
	ArtworkURL  string       `json:"artwork_url,omitempty"`
	RequesterID snowflake.ID `json:"requester_id"`
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	rec := snapshotRecord{
		Version:  snapshotVersion,
		Queue:    make([]trackRecord, 0, len(s.Tracks)),
		LoopMode: s.LoopMode.String(),
		Volume:   s.Volume,
		SavedAt:  s.SavedAt,
	}
	for _, t := range s.Tracks {
		rec.Queue = append(rec.Queue, trackRecord{
			URI:         t.URI,
			Title:       t.Title,
			Author:      t.Author,
			DurationMS:  t.Duration.Milliseconds(),
			ArtworkURL:  t.ArtworkURL,
			RequesterID: t.RequesterID,
		})
	}
	return json.Marshal(rec)
}

// DecodeSnapshot parses a stored payload. Anything structurally wrong is
// reported as ErrPersistenceCorrupt.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrPersistenceCorrupt, err)
	}
	if rec.Version > snapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unknown version %d", ErrPersistenceCorrupt, rec.Version)
	}
	mode, err := ParseLoopMode(rec.LoopMode)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrPersistenceCorrupt, err)
	}

	snap := Snapshot{
		Tracks:   make([]Track, 0, len(rec.Queue)),
		LoopMode: mode,
		Volume:   clampVolume(rec.Volume),
		SavedAt:  rec.SavedAt,
	}
	for i, t := range rec.Queue {
		if t.URI == "" {
			return Snapshot{}, fmt.Errorf("%w: entry %d has no uri", ErrPersistenceCorrupt, i)
		}
		snap.Tracks = append(snap.Tracks, Track{
			URI:         t.URI,
			Title:       t.Title,
			Author:      t.Author,
			Duration:    time.Duration(t.DurationMS) * time.Millisecond,
			ArtworkURL:  t.ArtworkURL,
			RequesterID: t.RequesterID,
		})
	}
	return snap, nil
}

// SQLStore keeps snapshots in the bot's sqlite database.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Save(ctx context.Context, guildID snowflake.ID, snap Snapshot) error {
	if len(snap.Tracks) == 0 {
		return s.Delete(ctx, guildID)
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = s.now().UTC()
	}
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return sys.SaveMusicSnapshot(ctx, s.db, guildID, payload, len(snap.Tracks))
}

// Load deletes and ignores corrupt or empty rows so the restore prompt is
// never offered for something that cannot be restored.
func (s *SQLStore) Load(ctx context.Context, guildID snowflake.ID) (*Snapshot, error) {
	payload, err := sys.GetMusicSnapshot(ctx, s.db, guildID)
	if err != nil || payload == nil {
		return nil, err
	}
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		sys.LogMusicWarn(sys.MsgMusicSnapshotCorrupt, guildID, err)
		if delErr := s.Delete(ctx, guildID); delErr != nil {
			sys.LogMusicWarn(sys.MsgMusicSnapshotDelFail, guildID, delErr)
		}
		return nil, nil
	}
	if len(snap.Tracks) == 0 {
		if err := s.Delete(ctx, guildID); err != nil {
			sys.LogMusicWarn(sys.MsgMusicSnapshotDelFail, guildID, err)
		}
		return nil, nil
	}
	return &snap, nil
}

func (s *SQLStore) Delete(ctx context.Context, guildID snowflake.ID) error {
	return sys.DeleteMusicSnapshot(ctx, s.db, guildID)
}
