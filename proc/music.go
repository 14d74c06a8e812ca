package proc

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/music/audio"
	"github.com/leeineian/minuet/music/youtube"
	"github.com/leeineian/minuet/sys"
)

var (
	musicOnce       sync.Once
	musicMu         sync.RWMutex
	musicController *music.Controller
	musicBackend    *youtube.Backend
)

func init() {
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		musicOnce.Do(func() {
			setupMusic(ctx, client)
			sys.RegisterDaemon(sys.LogMusic, startNowPlayingDaemon)
		})
	})
	sys.RegisterVoiceStateUpdateHandler(onMusicVoiceStateUpdate)
}

// Music returns the playback controller, or nil before the client is ready.
func Music() *music.Controller {
	musicMu.RLock()
	defer musicMu.RUnlock()
	return musicController
}

// MusicSearch returns the search backend used for autocomplete.
func MusicSearch() *youtube.Backend {
	musicMu.RLock()
	defer musicMu.RUnlock()
	return musicBackend
}

func setupMusic(ctx context.Context, client *bot.Client) {
	cfg := sys.GlobalConfig
	mc := sys.DefaultMusicConfig()
	var yt youtube.Options
	if cfg != nil {
		mc = cfg.Music
		yt = youtube.Options{
			Proxy:         cfg.YoutubeProxy,
			YoutubePrefix: cfg.YoutubePrefix,
			YTMusicPrefix: cfg.YTMusicPrefix,
		}
	}
	yt.PlaylistLimit = mc.PlaylistLimit

	backend := youtube.New(yt)
	lookup := music.NewRetryPolicy(mc.LookupRetries, 500*time.Millisecond, mc.LookupRate)
	streams := music.NewRetryPolicy(mc.LookupRetries, 500*time.Millisecond, mc.LookupRate)
	connect := music.NewRetryPolicy(5, time.Second, 0)

	var store music.Store
	if sys.DB != nil {
		store = music.NewSQLStore(sys.DB)
	}

	c := music.NewController(music.Options{
		Gateway:        audio.NewGateway(client),
		Resolver:       music.NewTrackResolver(backend, lookup, mc.PlaylistLimit),
		Streams:        music.NewStreamResolver(backend, streams),
		Store:          store,
		Display:        newDisplaySink(client),
		DefaultVolume:  float64(mc.DefaultVolume) / 100,
		AloneTimeout:   mc.AloneTimeout,
		IdleGrace:      mc.IdleGrace,
		RestoreTimeout: mc.RestoreTimeout,
		ConnectRetry:   connect,
		Context:        ctx,
	})

	musicMu.Lock()
	musicController = c
	musicBackend = backend
	musicMu.Unlock()

	if sys.DB != nil {
		if n, err := sys.CountMusicSnapshots(ctx, sys.DB); err == nil && n > 0 {
			sys.LogMusic("%d guilds have a saved queue waiting", n)
		}
	}
}

func startNowPlayingDaemon(ctx context.Context) (bool, func(), func()) {
	c := Music()
	if c == nil {
		return false, nil, nil
	}
	interval := sys.DefaultMusicConfig().NowPlayingInterval
	if sys.GlobalConfig != nil {
		interval = sys.GlobalConfig.Music.NowPlayingInterval
	}
	p := c.Presenter(interval)
	return true, func() { p.Run(ctx) }, func() {
		sys.LogMusic(sys.MsgMusicShutdown)
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Shutdown(sctx)
	}
}

// onMusicVoiceStateUpdate tracks the bot being kicked and listeners coming
// and going in the bot's channel.
func onMusicVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	c := Music()
	if c == nil {
		return
	}
	client := event.Client()
	guildID := event.VoiceState.GuildID

	if event.VoiceState.UserID == client.ID() {
		if event.VoiceState.ChannelID == nil {
			sys.LogVoice("Bot disconnected by external event in guild %s", guildID)
			_ = c.HandleVoiceLost(sys.AppContext, guildID)
			return
		}
	}

	channelID, ok := c.ChannelOf(guildID)
	if !ok {
		return
	}
	c.Inactivity.OnOccupancy(guildID, countListeners(client, guildID, channelID))
}

// countListeners counts the non-bot members in a voice channel.
func countListeners(client *bot.Client, guildID, channelID snowflake.ID) int {
	humans := 0
	for state := range client.Caches.VoiceStates(guildID) {
		if state.ChannelID == nil || *state.ChannelID != channelID || state.UserID == client.ID() {
			continue
		}
		if m, ok := client.Caches.Member(guildID, state.UserID); !ok || !m.User.Bot {
			humans++
		}
	}
	return humans
}
