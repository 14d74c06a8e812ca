package home

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/proc"
	"github.com/leeineian/minuet/sys"
)

const (
	StatsAnsiReset    = "\u001b[0m"
	StatsAnsiPink     = "\u001b[35m"
	StatsAnsiPinkBold = "\u001b[35;1m"
)

type StatsSnapshot struct {
	Ping        int64
	GatewayPing int64
	DBLatency   time.Duration
	Uptime      time.Duration
	Sessions    int
	Tracks      int
	Snapshots   int
}

func statsTitle(text string) string {
	return fmt.Sprintf("%s%s%s", StatsAnsiPink, text, StatsAnsiReset)
}

func statsLine(key, val string) string {
	return fmt.Sprintf("%s> %s:%s %s%s%s", StatsAnsiPink, key, StatsAnsiReset, StatsAnsiPinkBold, val, StatsAnsiReset)
}

func init() {
	adminPerm := discord.PermissionAdministrator

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "stats",
		Description:              "Display bot and playback statistics (Admin Only)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
	}, handleStats)
}

func handleStats(event *events.ApplicationCommandInteractionCreate) {
	s := StatsSnapshot{
		Ping:        time.Since(snowflake.ID(event.ID()).Time()).Milliseconds(),
		GatewayPing: event.Client().Gateway.Latency().Milliseconds(),
		Uptime:      time.Since(sys.StartupTime),
	}

	start := time.Now()
	_, _ = sys.GetBotConfig(sys.AppContext, "ping_test")
	s.DBLatency = time.Since(start)

	if c := proc.Music(); c != nil {
		s.Sessions, s.Tracks = c.Usage()
	}
	if sys.DB != nil {
		if n, err := sys.CountMusicSnapshots(sys.AppContext, sys.DB); err == nil {
			s.Snapshots = n
		}
	}

	container := sys.NewV2Container(sys.NewTextDisplay(RenderStats(s)))
	if err := sys.RespondInteractionV2(event.Client(), event, container, true); err != nil {
		sys.LogDebug("Failed to send stats: %v", err)
	}
}

// RenderStats formats a snapshot as an ANSI code block.
func RenderStats(s StatsSnapshot) string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	days := int(s.Uptime.Hours()) / 24
	hours := int(s.Uptime.Hours()) % 24
	minutes := int(s.Uptime.Minutes()) % 60

	lines := []string{
		statsTitle("System"),
		statsLine("Go Version", runtime.Version()),
		statsLine("Memory", fmt.Sprintf("%.2f MB", float64(m.HeapAlloc)/1024/1024)),
		statsLine("Goroutines", fmt.Sprintf("%d", runtime.NumGoroutine())),
		"",
		statsTitle("App"),
		statsLine("Uptime", fmt.Sprintf("%dd %dh %dm", days, hours, minutes)),
	}
	if s.GatewayPing > 0 {
		lines = append(lines, statsLine("Gateway", fmt.Sprintf("%dms", s.GatewayPing)))
	}
	if s.Ping > 0 {
		lines = append(lines, statsLine("API Latency", fmt.Sprintf("%dms", s.Ping)))
	}
	lines = append(lines, statsLine("Database", fmt.Sprintf("%.2fms", float64(s.DBLatency.Microseconds())/1000)))

	lines = append(lines,
		"",
		statsTitle("Music"),
		statsLine("Voice Sessions", fmt.Sprintf("%d", s.Sessions)),
		statsLine("Queued Tracks", fmt.Sprintf("%d", s.Tracks)),
		statsLine("Saved Queues", fmt.Sprintf("%d", s.Snapshots)),
	)
	return fmt.Sprintf("```ansi\n%s\n```", strings.Join(lines, "\n"))
}
