package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/proc"
	"github.com/leeineian/minuet/sys"
)

const maxListedFailures = 10

func handleMusicPlay(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, front bool) {
	guildID := *event.GuildID()
	user := event.User()
	vs, ok := event.Client().Caches.VoiceState(guildID, user.ID)
	if !ok || vs.ChannelID == nil {
		musicReply(event, ErrMusicText(errNotInVoice), true)
		return
	}
	query := data.String("query")

	_ = event.DeferCreateMessage(false)
	sys.LogMusic("User %s (%s) requested playback: %s", user.Username, user.ID, query)

	res, err := proc.Music().Enqueue(sys.AppContext, music.EnqueueRequest{
		GuildID:        guildID,
		VoiceChannelID: *vs.ChannelID,
		TextChannelID:  event.Channel().ID(),
		RequesterID:    user.ID,
		Query:          query,
		Front:          front,
	})
	msg := ErrMusicText(err)
	if err == nil {
		msg = EnqueueMessage(res, front)
	}
	if err := sys.EditInteractionV2(event.Client(), event, sys.NewV2Container(sys.NewTextDisplay(msg))); err != nil {
		sys.LogMusicWarn("Failed to answer /music play: %v", err)
	}
}

// EnqueueMessage summarises what a play request added.
func EnqueueMessage(res music.EnqueueResult, front bool) string {
	var b strings.Builder
	if res.Playlist || len(res.Tracks) > 1 {
		fmt.Fprintf(&b, sys.MsgMusicQueuedBatch, len(res.Tracks), res.Total)
	} else if len(res.Tracks) == 1 {
		format := sys.MsgMusicQueued
		if front {
			format = sys.MsgMusicQueuedFront
		}
		fmt.Fprintf(&b, format, res.Tracks[0].Label())
	}

	if len(res.Failed) > 0 {
		failed := res.Failed
		more := 0
		if len(failed) > maxListedFailures {
			more = len(failed) - maxListedFailures
			failed = failed[:maxListedFailures]
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, sys.MsgMusicBatchFailures, "- "+strings.Join(failed, "\n- "))
		if more > 0 {
			fmt.Fprintf(&b, sys.MsgMusicQueueMore, more)
		}
	}

	if res.RestorePending {
		b.WriteString(sys.MsgMusicRestoreWaiting)
	}
	return b.String()
}

func handleMusicAutocomplete(event *events.AutocompleteInteractionCreate) {
	f := event.Data.Focused()
	if f.Name != "query" {
		return
	}
	backend := proc.MusicSearch()
	if backend == nil {
		_ = event.AutocompleteResult(nil)
		return
	}

	var cs []discord.AutocompleteChoice
	for i, s := range backend.Suggest(sys.AppContext, f.String()) {
		if i >= 25 {
			break
		}
		if len(s.Value) > 100 {
			continue
		}
		cs = append(cs, discord.AutocompleteChoiceString{Name: s.Name, Value: s.Value})
	}
	_ = event.AutocompleteResult(cs)
}
