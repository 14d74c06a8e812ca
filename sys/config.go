package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token         string
	GuildID       string
	DatabasePath  string
	Silent        bool
	YoutubePrefix string
	YTMusicPrefix string
	YoutubeProxy  string

	Music MusicConfig
}

// MusicConfig holds the playback engine tunables.
type MusicConfig struct {
	DefaultVolume      int
	NowPlayingInterval time.Duration
	AloneTimeout       time.Duration
	IdleGrace          time.Duration
	RestoreTimeout     time.Duration
	PlaylistLimit      int
	LookupRetries      int
	LookupRate         float64
}

var GlobalConfig *Config

// LoadConfig initializes the configuration from environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		dbPath = filepath.Join(folder, GetProjectName()+".db")
	}

	silent, _ := strconv.ParseBool(os.Getenv("SILENT"))

	cfg := &Config{
		Token:         os.Getenv("DISCORD_TOKEN"),
		GuildID:       os.Getenv("GUILD_ID"),
		DatabasePath:  dbPath,
		Silent:        silent,
		YoutubePrefix: envOr("VOICE_YT_PREFIX", "[YT]"),
		YTMusicPrefix: envOr("VOICE_YTM_PREFIX", "[YTM]"),
		YoutubeProxy:  os.Getenv("YOUTUBE_PROXY"),
	}

	music, err := loadMusicConfig()
	if err != nil {
		return nil, err
	}
	cfg.Music = music

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	GlobalConfig = cfg
	return cfg, nil
}

// DefaultMusicConfig returns the tunables used when nothing is configured.
func DefaultMusicConfig() MusicConfig {
	return MusicConfig{
		DefaultVolume:      30,
		NowPlayingInterval: 10 * time.Second,
		AloneTimeout:       2 * time.Minute,
		IdleGrace:          10 * time.Second,
		RestoreTimeout:     60 * time.Second,
		PlaylistLimit:      100,
		LookupRetries:      3,
		LookupRate:         4,
	}
}

func loadMusicConfig() (MusicConfig, error) {
	m := DefaultMusicConfig()
	var err error

	if v := os.Getenv("MUSIC_DEFAULT_VOLUME"); v != "" {
		if m.DefaultVolume, err = strconv.Atoi(v); err != nil {
			return m, fmt.Errorf("invalid MUSIC_DEFAULT_VOLUME: %w", err)
		}
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"MUSIC_NOW_PLAYING_INTERVAL", &m.NowPlayingInterval},
		{"MUSIC_ALONE_TIMEOUT", &m.AloneTimeout},
		{"MUSIC_IDLE_GRACE", &m.IdleGrace},
		{"MUSIC_RESTORE_TIMEOUT", &m.RestoreTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		if *d.dst, err = time.ParseDuration(v); err != nil {
			return m, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}
	if v := os.Getenv("MUSIC_PLAYLIST_LIMIT"); v != "" {
		if m.PlaylistLimit, err = strconv.Atoi(v); err != nil {
			return m, fmt.Errorf("invalid MUSIC_PLAYLIST_LIMIT: %w", err)
		}
	}
	if v := os.Getenv("MUSIC_LOOKUP_RETRIES"); v != "" {
		if m.LookupRetries, err = strconv.Atoi(v); err != nil {
			return m, fmt.Errorf("invalid MUSIC_LOOKUP_RETRIES: %w", err)
		}
	}
	if v := os.Getenv("MUSIC_LOOKUP_RATE"); v != "" {
		if m.LookupRate, err = strconv.ParseFloat(v, 64); err != nil {
			return m, fmt.Errorf("invalid MUSIC_LOOKUP_RATE: %w", err)
		}
	}
	return m, nil
}

// Validate ensures the configuration is valid and meets requirements.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf(MsgConfigInvalidGuild)
	}
	return c.Music.Validate()
}

func (m MusicConfig) Validate() error {
	if m.DefaultVolume < 0 || m.DefaultVolume > 100 {
		return fmt.Errorf("MUSIC_DEFAULT_VOLUME must be between 0 and 100, got %d", m.DefaultVolume)
	}
	if m.NowPlayingInterval < time.Second {
		return fmt.Errorf("MUSIC_NOW_PLAYING_INTERVAL must be at least 1s")
	}
	if m.AloneTimeout <= 0 || m.IdleGrace < 0 || m.RestoreTimeout <= 0 {
		return fmt.Errorf("music timeouts must be positive")
	}
	if m.PlaylistLimit < 1 {
		return fmt.Errorf("MUSIC_PLAYLIST_LIMIT must be at least 1")
	}
	if m.LookupRetries < 1 {
		return fmt.Errorf("MUSIC_LOOKUP_RETRIES must be at least 1")
	}
	if m.LookupRate <= 0 {
		return fmt.Errorf("MUSIC_LOOKUP_RATE must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "bot"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") || strings.HasSuffix(projectName, ".test") {
			if modData, err := os.ReadFile("go.mod"); err == nil {
				lines := strings.Split(string(modData), "\n")
				if len(lines) > 0 && strings.HasPrefix(lines[0], "module ") {
					parts := strings.Split(lines[0], "/")
					projectName = strings.TrimSpace(parts[len(parts)-1])
				}
			}
		}
	}
	return projectName
}
