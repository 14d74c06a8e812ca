package home

import (
	"fmt"

	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/proc"
	"github.com/leeineian/minuet/sys"
)

func handleMusicButton(event *events.ComponentInteractionCreate) {
	guildID := event.GuildID()
	c := proc.Music()
	if guildID == nil || c == nil {
		return
	}

	botChannel, ok := c.ChannelOf(*guildID)
	if !ok {
		componentReply(event, sys.ErrMusicNotConnected)
		return
	}
	vs, ok := event.Client().Caches.VoiceState(*guildID, event.User().ID)
	if !ok || vs.ChannelID == nil || *vs.ChannelID != botChannel {
		componentReply(event, sys.ErrMusicNotInVoice)
		return
	}

	ctx := sys.AppContext
	switch event.Data.CustomID() {
	case proc.MusicButtonPause:
		if _, err := c.TogglePause(ctx, *guildID); err != nil {
			componentReply(event, ErrMusicText(err))
			return
		}
		refreshCard(event, *guildID)
	case proc.MusicButtonLoop:
		if _, err := c.CycleLoop(ctx, *guildID); err != nil {
			componentReply(event, ErrMusicText(err))
			return
		}
		refreshCard(event, *guildID)
	case proc.MusicButtonSkip:
		componentDeferred(event, func() (string, error) {
			skipped, err := c.Skip(ctx, *guildID)
			return fmt.Sprintf(sys.MsgMusicSkipped, skipped.Label()), err
		})
	case proc.MusicButtonStop:
		componentDeferred(event, func() (string, error) {
			return sys.MsgMusicStopped, c.Stop(ctx, *guildID)
		})
	case proc.MusicButtonLeave:
		componentDeferred(event, func() (string, error) {
			return sys.MsgMusicLeft, c.Disconnect(ctx, *guildID, music.ReasonCommand)
		})
	}
}

// refreshCard redraws the card the button sits on.
func refreshCard(event *events.ComponentInteractionCreate, guildID snowflake.ID) {
	v, ok := proc.Music().View(guildID)
	if !ok {
		return
	}
	card, ok := music.BuildCard(v)
	if !ok {
		componentReply(event, sys.ErrMusicNothingPlaying)
		return
	}
	if err := sys.UpdateInteractionV2(event.Client(), event, proc.RenderCard(card)); err != nil {
		sys.LogMusicWarn("Failed to refresh now playing card: %v", err)
	}
}

func handleRestoreButton(event *events.ComponentInteractionCreate) {
	c := proc.Music()
	if c == nil {
		return
	}
	guildID, accept, err := proc.ParseRestoreButton(event.Data.CustomID())
	if err != nil || event.GuildID() == nil || *event.GuildID() != guildID {
		componentReply(event, sys.MsgMusicRestoreGone)
		return
	}
	if v, ok := c.View(guildID); !ok || !v.RestoreOpen {
		componentReply(event, sys.MsgMusicRestoreGone)
		return
	}

	_ = event.DeferUpdateMessage()
	if !c.Restore.Answer(sys.AppContext, guildID, accept) {
		sys.LogMusic(sys.MsgMusicRestoreDecided, guildID, "already settled")
	}
}

func componentReply(event *events.ComponentInteractionCreate, msg string) {
	if err := sys.RespondInteractionV2(event.Client(), event, sys.NewV2Container(sys.NewTextDisplay(msg)), true); err != nil {
		sys.LogMusicWarn("Failed to answer button: %v", err)
	}
}

func componentDeferred(event *events.ComponentInteractionCreate, run func() (string, error)) {
	_ = event.DeferCreateMessage(true)
	msg, err := run()
	if err != nil {
		msg = ErrMusicText(err)
	}
	if err := sys.EditInteractionV2(event.Client(), event, sys.NewV2Container(sys.NewTextDisplay(msg))); err != nil {
		sys.LogMusicWarn("Failed to answer button: %v", err)
	}
}
