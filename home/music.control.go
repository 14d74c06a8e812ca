package home

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/proc"
	"github.com/leeineian/minuet/sys"
)

func handleMusicPause(event *events.ApplicationCommandInteractionCreate) {
	changed, err := proc.Music().Pause(sys.AppContext, *event.GuildID())
	if err == nil && !changed {
		musicReply(event, sys.MsgMusicAlreadyPaused, true)
		return
	}
	musicResult(event, sys.MsgMusicPaused, err)
}

func handleMusicResume(event *events.ApplicationCommandInteractionCreate) {
	changed, err := proc.Music().Resume(sys.AppContext, *event.GuildID())
	if err == nil && !changed {
		musicReply(event, sys.MsgMusicAlreadyPlaying, true)
		return
	}
	musicResult(event, sys.MsgMusicResumed, err)
}

// Skip, stop, leave and seek may wait on the network, so they answer late.

func handleMusicSkip(event *events.ApplicationCommandInteractionCreate) {
	musicDeferred(event, func() (string, error) {
		skipped, err := proc.Music().Skip(sys.AppContext, *event.GuildID())
		return fmt.Sprintf(sys.MsgMusicSkipped, skipped.Label()), err
	})
}

func handleMusicStop(event *events.ApplicationCommandInteractionCreate) {
	musicDeferred(event, func() (string, error) {
		return sys.MsgMusicStopped, proc.Music().Stop(sys.AppContext, *event.GuildID())
	})
}

func handleMusicLeave(event *events.ApplicationCommandInteractionCreate) {
	musicDeferred(event, func() (string, error) {
		return sys.MsgMusicLeft, proc.Music().Disconnect(sys.AppContext, *event.GuildID(), music.ReasonCommand)
	})
}

func handleMusicClear(event *events.ApplicationCommandInteractionCreate) {
	n, err := proc.Music().Clear(sys.AppContext, *event.GuildID())
	musicResult(event, fmt.Sprintf(sys.MsgMusicCleared, n), err)
}

func handleMusicShuffle(event *events.ApplicationCommandInteractionCreate) {
	n, err := proc.Music().Shuffle(sys.AppContext, *event.GuildID())
	musicResult(event, fmt.Sprintf(sys.MsgMusicShuffled, n), err)
}

func handleMusicLoop(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	mode, err := music.ParseLoopMode(data.String("mode"))
	if err == nil {
		err = proc.Music().SetLoop(sys.AppContext, *event.GuildID(), mode)
	}
	musicResult(event, fmt.Sprintf(sys.MsgMusicLoopSet, mode), err)
}

func handleMusicVolume(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	v, err := proc.Music().SetVolume(sys.AppContext, *event.GuildID(), float64(data.Int("percent"))/100)
	musicResult(event, fmt.Sprintf(sys.MsgMusicVolumeSet, int(v*100+0.5)), err)
}

func handleMusicSeek(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	offset, err := music.ParseOffset(data.String("position"), time.Now())
	if err != nil {
		musicReply(event, ErrMusicText(err), true)
		return
	}
	musicDeferred(event, func() (string, error) {
		_, err := proc.Music().Seek(sys.AppContext, *event.GuildID(), offset)
		return fmt.Sprintf(sys.MsgMusicSeeked, music.FormatClock(offset)), err
	})
}

func handleMusicRemove(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	removed, err := proc.Music().Remove(sys.AppContext, *event.GuildID(), data.Int("position"))
	musicResult(event, fmt.Sprintf(sys.MsgMusicRemoved, removed.Label()), err)
}
