package sys

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultMusicConfigIsValid(t *testing.T) {
	if err := DefaultMusicConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestLoadMusicConfigFromEnv(t *testing.T) {
	t.Setenv("MUSIC_DEFAULT_VOLUME", "55")
	t.Setenv("MUSIC_ALONE_TIMEOUT", "5m")
	t.Setenv("MUSIC_LOOKUP_RATE", "2.5")

	m, err := loadMusicConfig()
	if err != nil {
		t.Fatal(err)
	}
	if m.DefaultVolume != 55 {
		t.Errorf("DefaultVolume = %d, want 55", m.DefaultVolume)
	}
	if m.AloneTimeout != 5*time.Minute {
		t.Errorf("AloneTimeout = %v, want 5m", m.AloneTimeout)
	}
	if m.LookupRate != 2.5 {
		t.Errorf("LookupRate = %v, want 2.5", m.LookupRate)
	}
	if m.RestoreTimeout != DefaultMusicConfig().RestoreTimeout {
		t.Errorf("RestoreTimeout = %v, want the default", m.RestoreTimeout)
	}
}

func TestLoadMusicConfigRejectsGarbage(t *testing.T) {
	t.Setenv("MUSIC_IDLE_GRACE", "soon")
	if _, err := loadMusicConfig(); err == nil || !strings.Contains(err.Error(), "MUSIC_IDLE_GRACE") {
		t.Fatalf("err = %v, want MUSIC_IDLE_GRACE error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
		ok   bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing token", func(c *Config) { c.Token = "" }, false},
		{"short guild", func(c *Config) { c.GuildID = "123" }, false},
		{"volume too loud", func(c *Config) { c.Music.DefaultVolume = 150 }, false},
		{"fast presenter", func(c *Config) { c.Music.NowPlayingInterval = 100 * time.Millisecond }, false},
		{"no retries", func(c *Config) { c.Music.LookupRetries = 0 }, false},
		{"zero grace", func(c *Config) { c.Music.IdleGrace = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Token: "token", GuildID: "123456789012345678", Music: DefaultMusicConfig()}
			tt.edit(c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
