package sys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	// Style definitions
	infoColor     = color.New(color.FgHiBlack)
	warnColor     = color.New(color.FgHiYellow)
	errorColor    = color.New(color.FgHiRed)
	fatalColor    = color.New(color.FgHiRed, color.Bold)
	databaseColor = color.New(color.FgHiBlack)
	loaderColor   = color.New(color.FgHiBlue)
	musicColor    = color.New(color.FgHiMagenta)
	voiceColor    = color.New(color.FgHiCyan)
	statusColor   = color.New(color.FgHiGreen)

	IsSilent  = false
	LogToFile = false

	// Global default logger
	Logger *slog.Logger

	// Log file handling
	logFile *os.File
	logMu   sync.Mutex
)

const DefaultTimeFormat = "15:04:05"

func init() {
	InitLogger(false, false)
}

// InitLogger initializes the global structured logger
func InitLogger(silent bool, saveToFile bool) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	LogToFile = saveToFile
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout
	var err error

	if LogToFile {
		logName := GetProjectName() + ".log"
		logFile, err = os.OpenFile(filepath.Clean(logName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", logName, err)
		} else {
			writer = io.MultiWriter(os.Stdout, logFile)
		}
	}

	color.NoColor = false

	handler := NewBotLogHandler(writer, &BotLogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func SetSilentMode(silent bool) {
	InitLogger(silent, LogToFile)
}

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), slog.LevelError+4, msg)
	os.Exit(1)
}

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

func LogDatabase(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "database"))
}

func LogLoader(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "loader"))
}

func LogMusic(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "music"))
}

// LogMusicWarn is LogMusic at warning level.
func LogMusicWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...), slog.String("component", "music"))
}

func LogStatus(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "status"))
}

func LogVoice(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "voice"))
}

// --- Custom Slog Handler ---

type BotLogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

type BotLogHandler struct {
	w    io.Writer
	opts *BotLogHandlerOptions
	mu   *sync.Mutex
}

func NewBotLogHandler(w io.Writer, opts *BotLogHandlerOptions) *BotLogHandler {
	if opts == nil {
		opts = &BotLogHandlerOptions{Level: slog.LevelInfo}
	}
	return &BotLogHandler{
		w:    w,
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *BotLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Silent {
		return false
	}
	return level >= h.opts.Level.Level()
}

func (h *BotLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Silent {
		return nil
	}

	timeStr := time.Now().Format(DefaultTimeFormat)
	var levelStr string
	var levelColor *color.Color

	switch {
	case r.Level >= slog.LevelError+4:
		levelStr = "FATAL"
		levelColor = fatalColor
	case r.Level >= slog.LevelError:
		levelStr = "ERROR"
		levelColor = errorColor
	case r.Level >= slog.LevelWarn:
		levelStr = "WARN"
		levelColor = warnColor
	case r.Level >= slog.LevelInfo:
		levelStr = "INFO"
		levelColor = infoColor
	default:
		levelStr = "DEBUG"
		levelColor = infoColor
	}

	component := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	// 15:04:05 [LEVEL] [COMPONENT] Message
	fmt.Fprintf(h.w, "%s", timeStr)

	if component != "" {
		if levelStr != "INFO" {
			fmt.Fprintf(h.w, " %s", levelColor.Sprintf("[%s]", levelStr))
		}
		compColor := getComponentColor(component)
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(compColor, fmt.Sprintf("[%s] %s", component, r.Message)))
	} else {
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(levelColor, fmt.Sprintf("[%s] %s", levelStr, r.Message)))
	}

	return nil
}

func (h *BotLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *BotLogHandler) WithGroup(name string) slog.Handler       { return h }

func getComponentColor(name string) *color.Color {
	switch name {
	case "DATABASE":
		return databaseColor
	case "LOADER":
		return loaderColor
	case "MUSIC":
		return musicColor
	case "VOICE":
		return voiceColor
	case "STATUS":
		return statusColor
	default:
		return color.New(color.FgCyan)
	}
}

// colorizeWithResets re-applies the outer colour after every ANSI reset
// found in text so nested colouring survives inside component logs.
func colorizeWithResets(c *color.Color, text string) string {
	if !strings.Contains(text, "\x1b[0m") {
		return c.Sprint(text)
	}

	marker := "@@@MSG@@@"
	wrapped := c.Sprint(marker)
	idx := strings.Index(wrapped, marker)
	if idx <= 0 {
		return text
	}
	startSeq := wrapped[:idx]

	modifiedText := strings.ReplaceAll(text, "\x1b[0m", "\x1b[0m"+startSeq)
	return c.Sprint(modifiedText)
}

// @core
const (
	MsgConfigFailedToLoad = "Failed to load config: %v"
	MsgConfigMissingToken = "DISCORD_TOKEN is not set in .env file"
	MsgConfigInvalidGuild = "invalid GUILD_ID: must be a valid Snowflake"

	MsgDatabaseInitSuccess = "Database initialized successfully"
	MsgDatabaseInitFail    = "Failed to initialize database: %v"
	MsgDatabaseTableError  = "Failed to create table: %w"
	MsgDatabasePragmaError = "Failed to set pragma %s: %w"

	MsgBotStarting      = "Starting %s..."
	MsgBotReady         = "%s is ready! (ID: %s) (PID: %d) (%dms)"
	MsgBotShutdown      = "Shutting down %s..."
	MsgBotKillingOld    = "Killing running instance... (PID: %d)"
	MsgBotKillFail      = "Failed to kill old instance: %v"
	MsgBotOldTerminated = "Old instance terminated."
	MsgBotPIDWriteFail  = "Failed to write PID file: %v"
	MsgBotRegisterFail  = "Command registration failed: %v"
	MsgBotClientFail    = "Failed to create client: %v"
	MsgBotGatewayFail   = "Failed to open gateway: %v"
)

// @loader
const (
	MsgLoaderSyncCommands       = "Syncing commands (%s mode)..."
	MsgLoaderUpToDate           = "Commands are up to date. (Hash: %s)"
	MsgLoaderProdFail           = "failed to register global commands: %w"
	MsgLoaderProdRegistered     = "Registered global command: %s"
	MsgLoaderDevStarting        = "Registering commands to guild: %s"
	MsgLoaderDevFail            = "Failed to register guild commands: %v"
	MsgLoaderDevRegistered      = "Registered guild command: %s"
	MsgLoaderDevGlobalClear     = "Clearing global commands..."
	MsgLoaderDevGlobalClearFail = "Failed to clear global commands: %v"
	MsgLoaderCleanup            = "Clearing stale commands from guild %s"
	MsgLoaderPanicRecovered     = "Recovered from panic: %v"
	MsgDaemonStarting           = "Starting..."
	MsgStatusRotated            = "Presence set to %q (next in %v)"
	MsgStatusUpdateFail         = "Failed to update presence: %v"
)

// @music
const (
	// System logs
	MsgMusicConnecting        = "Connecting to channel %s in guild %s"
	MsgMusicConnectRetry      = "Retrying voice connection in %v (Attempt %d/%d)"
	MsgMusicConnectFail       = "Failed to connect to voice in guild %s: %v"
	MsgMusicDisconnected      = "Disconnected from guild %s (%s)"
	MsgMusicNowPlaying        = "Now playing in guild %s: %s"
	MsgMusicTrackEnded        = "Track ended in guild %s: %s (%s)"
	MsgMusicStreamFail        = "Could not resolve stream for %s in guild %s: %v"
	MsgMusicQueueFinished     = "Queue finished in guild %s"
	MsgMusicSnapshotSaveFail  = "Failed to save snapshot for guild %s: %v"
	MsgMusicSnapshotLoadFail  = "Failed to load snapshot for guild %s: %v"
	MsgMusicSnapshotCorrupt   = "Discarding unreadable snapshot for guild %s: %v"
	MsgMusicSnapshotDelFail   = "Failed to delete snapshot for guild %s: %v"
	MsgMusicRestorePrompted   = "Offering restore of %d tracks in guild %s"
	MsgMusicRestoreDecided    = "Restore in guild %s resolved: %s"
	MsgMusicRestoreAborted    = "Restore in guild %s abandoned, the session ended first; snapshot kept"
	MsgMusicRestoreSkipped    = "Skipping unrecoverable track %s: %v"
	MsgMusicInactivityArmed   = "Inactivity timer armed for guild %s (%s, %v)"
	MsgMusicInactivityCleared = "Inactivity timer cleared for guild %s (%s)"
	MsgMusicDisplayFail       = "Failed to update now playing card in guild %s: %v"
	MsgMusicDisplayGone       = "Now playing card vanished in guild %s, dropping reference"
	MsgMusicNotifyFail        = "Failed to notify channel %s: %v"
	MsgMusicLookupRetry       = "Lookup attempt %d/%d failed: %v"
	MsgMusicShutdown          = "Shutting down music sessions..."
	MsgMusicTranscoderFail    = "Transcoder %s failed: %v"

	// User-facing messages
	MsgMusicQueued          = "🎵 Added to queue: **%s**"
	MsgMusicQueuedFront     = "⏭️ Playing next: **%s**"
	MsgMusicQueuedBatch     = "📃 Added **%d/%d** tracks to the queue."
	MsgMusicBatchFailures   = "Could not find:\n%s"
	MsgMusicPaused          = "⏸️ Paused."
	MsgMusicResumed         = "▶️ Resumed."
	MsgMusicAlreadyPaused   = "Playback is already paused."
	MsgMusicAlreadyPlaying  = "Playback is not paused."
	MsgMusicSkipped         = "⏭️ Skipped **%s**."
	MsgMusicStopped         = "⏹️ Stopped playback and cleared the queue."
	MsgMusicLeft            = "👋 Left the voice channel."
	MsgMusicCleared         = "🗑️ Cleared %d tracks from the queue."
	MsgMusicShuffled        = "🔀 Shuffled %d tracks."
	MsgMusicLoopSet         = "🔁 Loop mode: **%s**"
	MsgMusicVolumeSet       = "🔊 Volume set to **%d%%**."
	MsgMusicSeeked          = "⏩ Jumped to **%s**."
	MsgMusicRemoved         = "🗑️ Removed **%s** from the queue."
	MsgMusicQueueFinishedTx = "✅ Queue finished."
	MsgMusicAloneLeaving    = "👋 Everyone left, so I did too."
	MsgMusicQueueSaved      = " Your queue was saved."
	MsgMusicIdleLeaving     = "👋 Nothing left to play, leaving the channel."
	MsgMusicTrackFailed     = "⚠️ Could not play **%s**, skipping."
	MsgMusicRestorePrompt   = "💾 I found a saved queue of **%d** tracks from last time. Restore it?"
	MsgMusicRestoreDone     = "💾 Restored **%d** saved tracks."
	MsgMusicRestoreDropped  = "🗑️ Saved queue discarded."
	MsgMusicRestoreGone     = "This restore prompt is no longer active."
	MsgMusicRestoreWaiting  = "\n-# Answer the restore prompt first, your request is queued after it."
	MsgMusicQueueEmpty      = "_The queue is empty._"
	MsgMusicQueueMore       = "\n*...and %d more*"
	MsgMusicNothingNext     = "Nothing"

	ErrMusicNotInGuild       = "This command only works in a server."
	ErrMusicNotInVoice       = "Join a voice channel first."
	ErrMusicNoMatch          = "No results found for that search."
	ErrMusicLookupDown       = "The music search service is unavailable right now, try again later."
	ErrMusicSessionConflict  = "I'm already playing in another channel."
	ErrMusicPermissionDenied = "I can't join or speak in that channel."
	ErrMusicNothingPlaying   = "Nothing is playing right now."
	ErrMusicNotConnected     = "I'm not connected to a voice channel."
	ErrMusicSeekRange        = "That position is beyond the end of the track."
	ErrMusicSeekFormat       = "Invalid position. Try `1:30`, `90`, `1m30s` or `2 minutes`."
	ErrMusicShuffleShort     = "Need at least two queued tracks to shuffle."
	ErrMusicRemoveRange      = "There is no track at that position."
	ErrMusicGeneric          = "Something went wrong: %v"
)
