package home

import (
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/proc"
	"github.com/leeineian/minuet/sys"
)

func init() {
	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:        "music",
		Description: "Play music in your voice channel",
		Contexts:    []discord.InteractionContextType{discord.InteractionContextTypeGuild},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:        "play",
				Description: "Add a song, link or playlist to the end of the queue",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:         "query",
						Description:  "A search, a link or a playlist link",
						Required:     true,
						Autocomplete: true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "playnext",
				Description: "Add a song, link or playlist to the front of the queue",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:         "query",
						Description:  "A search, a link or a playlist link",
						Required:     true,
						Autocomplete: true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{Name: "pause", Description: "Pause playback"},
			discord.ApplicationCommandOptionSubCommand{Name: "resume", Description: "Resume playback"},
			discord.ApplicationCommandOptionSubCommand{Name: "skip", Description: "Skip the current track"},
			discord.ApplicationCommandOptionSubCommand{Name: "stop", Description: "Stop playback and clear the queue"},
			discord.ApplicationCommandOptionSubCommand{Name: "leave", Description: "Leave the voice channel"},
			discord.ApplicationCommandOptionSubCommand{Name: "queue", Description: "Show the queue"},
			discord.ApplicationCommandOptionSubCommand{Name: "nowplaying", Description: "Show the current track"},
			discord.ApplicationCommandOptionSubCommand{Name: "clear", Description: "Remove every queued track"},
			discord.ApplicationCommandOptionSubCommand{Name: "shuffle", Description: "Shuffle the queue"},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "loop",
				Description: "Set the loop mode",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "mode",
						Description: "What to repeat",
						Required:    true,
						Choices: []discord.ApplicationCommandOptionChoiceString{
							{Name: "Off", Value: "off"},
							{Name: "Track", Value: "track"},
							{Name: "Queue", Value: "queue"},
						},
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "volume",
				Description: "Set the playback volume",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "percent",
						Description: "Volume from 0 to 100",
						Required:    true,
						MinValue:    sys.IntPtr(0),
						MaxValue:    sys.IntPtr(100),
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "seek",
				Description: "Jump to a position in the current track",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "position",
						Description: "For example 1:30, 90, 1m30s or 2 minutes",
						Required:    true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "remove",
				Description: "Remove a track from the queue",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "position",
						Description: "Position in the queue, starting at 1",
						Required:    true,
						MinValue:    sys.IntPtr(1),
					},
				},
			},
		},
	}, func(event *events.ApplicationCommandInteractionCreate) {
		data := event.SlashCommandInteractionData()
		if data.SubCommandName == nil {
			return
		}
		if event.GuildID() == nil {
			musicReply(event, ErrMusicText(errNotInGuild), true)
			return
		}
		if proc.Music() == nil {
			musicReply(event, ErrMusicText(music.ErrNotConnected), true)
			return
		}

		switch *data.SubCommandName {
		case "play":
			handleMusicPlay(event, data, false)
		case "playnext":
			handleMusicPlay(event, data, true)
		case "pause":
			handleMusicPause(event)
		case "resume":
			handleMusicResume(event)
		case "skip":
			handleMusicSkip(event)
		case "stop":
			handleMusicStop(event)
		case "leave":
			handleMusicLeave(event)
		case "queue":
			handleMusicQueue(event)
		case "nowplaying":
			handleMusicNowPlaying(event)
		case "clear":
			handleMusicClear(event)
		case "shuffle":
			handleMusicShuffle(event)
		case "loop":
			handleMusicLoop(event, data)
		case "volume":
			handleMusicVolume(event, data)
		case "seek":
			handleMusicSeek(event, data)
		case "remove":
			handleMusicRemove(event, data)
		}
	})

	sys.RegisterAutocompleteHandler("music", handleMusicAutocomplete)
	sys.RegisterComponentHandler(proc.MusicButtonPause, handleMusicButton)
	sys.RegisterComponentHandler(proc.MusicButtonSkip, handleMusicButton)
	sys.RegisterComponentHandler(proc.MusicButtonStop, handleMusicButton)
	sys.RegisterComponentHandler(proc.MusicButtonLoop, handleMusicButton)
	sys.RegisterComponentHandler(proc.MusicButtonLeave, handleMusicButton)
	sys.RegisterComponentHandler(proc.RestoreButtonPrefix, handleRestoreButton)
}

var (
	errNotInGuild = errors.New("not in a guild")
	errNotInVoice = errors.New("not in a voice channel")
)

// ErrMusicText turns a controller error into the message shown to the user.
func ErrMusicText(err error) string {
	switch {
	case errors.Is(err, errNotInGuild):
		return sys.ErrMusicNotInGuild
	case errors.Is(err, errNotInVoice):
		return sys.ErrMusicNotInVoice
	case errors.Is(err, music.ErrNoMatch):
		return sys.ErrMusicNoMatch
	case errors.Is(err, music.ErrLookupUnavailable):
		return sys.ErrMusicLookupDown
	case errors.Is(err, music.ErrSessionConflict):
		return sys.ErrMusicSessionConflict
	case errors.Is(err, music.ErrPermissionDenied):
		return sys.ErrMusicPermissionDenied
	case errors.Is(err, music.ErrNothingPlaying):
		return sys.ErrMusicNothingPlaying
	case errors.Is(err, music.ErrNotConnected):
		return sys.ErrMusicNotConnected
	case errors.Is(err, music.ErrSeekOutOfRange):
		return sys.ErrMusicSeekRange
	case errors.Is(err, music.ErrInvalidOffset):
		return sys.ErrMusicSeekFormat
	case errors.Is(err, music.ErrShuffleTooShort):
		return sys.ErrMusicShuffleShort
	case errors.Is(err, music.ErrQueueIndex):
		return sys.ErrMusicRemoveRange
	}
	return fmt.Sprintf(sys.ErrMusicGeneric, err)
}

func musicReply(event *events.ApplicationCommandInteractionCreate, msg string, ephemeral bool) {
	if err := sys.RespondInteractionV2(event.Client(), event, sys.NewV2Container(sys.NewTextDisplay(msg)), ephemeral); err != nil {
		sys.LogMusicWarn("Failed to respond to /music: %v", err)
	}
}

// musicResult replies with msg on success and the mapped error otherwise.
func musicResult(event *events.ApplicationCommandInteractionCreate, msg string, err error) {
	if err != nil {
		musicReply(event, ErrMusicText(err), true)
		return
	}
	musicReply(event, msg, false)
}

func musicDeferred(event *events.ApplicationCommandInteractionCreate, run func() (string, error)) {
	_ = event.DeferCreateMessage(false)
	msg, err := run()
	if err != nil {
		msg = ErrMusicText(err)
	}
	if err := sys.EditInteractionV2(event.Client(), event, sys.NewV2Container(sys.NewTextDisplay(msg))); err != nil {
		sys.LogMusicWarn("Failed to respond to /music: %v", err)
	}
}
