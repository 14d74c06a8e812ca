package proc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/music/audio"
	"github.com/leeineian/minuet/sys"
)

// Component IDs of the card and prompt buttons.
const (
	MusicButtonPause = "music:pause"
	MusicButtonSkip  = "music:skip"
	MusicButtonStop  = "music:stop"
	MusicButtonLoop  = "music:loop"
	MusicButtonLeave = "music:leave"

	RestoreButtonPrefix = "restore:"
)

// displaySink renders music cards as ComponentsV2 messages.
type displaySink struct {
	client *bot.Client
}

func newDisplaySink(client *bot.Client) *displaySink {
	return &displaySink{client: client}
}

func (d *displaySink) PostCard(ctx context.Context, channelID snowflake.ID, card music.Card) (music.MessageRef, error) {
	msg, err := sys.SendMessageV2(d.client, channelID, RenderCard(card))
	if err != nil {
		return music.MessageRef{}, err
	}
	if c := Music(); c != nil {
		if voiceID, ok := c.ChannelOf(card.GuildID); ok {
			status := sys.Truncate("🎶 "+card.Title, 500)
			if err := audio.SetVoiceStatus(d.client, voiceID, status); err != nil {
				sys.LogVoice("Failed to set voice status in %s: %v", voiceID, err)
			}
		}
	}
	return music.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

func (d *displaySink) EditCard(ctx context.Context, ref music.MessageRef, card music.Card) error {
	_, err := sys.EditMessageV2(d.client, ref.ChannelID, ref.MessageID, RenderCard(card))
	return classifyDisplayError(err)
}

// Delete treats an already deleted message as success.
func (d *displaySink) Delete(ctx context.Context, ref music.MessageRef) error {
	err := classifyDisplayError(d.client.Rest.DeleteMessage(ref.ChannelID, ref.MessageID))
	if errors.Is(err, music.ErrDisplayGone) {
		return nil
	}
	return err
}

func (d *displaySink) PromptRestore(ctx context.Context, channelID, guildID snowflake.ID, trackCount int) (music.MessageRef, error) {
	msg, err := sys.SendMessageV2(d.client, channelID, RenderRestorePrompt(guildID, trackCount))
	if err != nil {
		return music.MessageRef{}, err
	}
	return music.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

func (d *displaySink) Notify(ctx context.Context, channelID snowflake.ID, text string) error {
	_, err := sys.SendMessageV2(d.client, channelID, sys.NewV2Container(sys.NewTextDisplay(text)))
	return err
}

// classifyDisplayError maps "Unknown Message" responses to music.ErrDisplayGone.
func classifyDisplayError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *rest.Error
	if errors.As(err, &restErr) {
		if restErr.Code == 10008 || (restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound) {
			return fmt.Errorf("%w: %v", music.ErrDisplayGone, err)
		}
	}
	if strings.Contains(err.Error(), "Unknown Message") {
		return fmt.Errorf("%w: %v", music.ErrDisplayGone, err)
	}
	return err
}

// RenderCard builds the now playing card.
func RenderCard(card music.Card) sys.Container {
	var head strings.Builder
	head.WriteString("### ")
	if card.Paused {
		head.WriteString("⏸️ Paused\n")
	} else {
		head.WriteString("🎶 Now Playing\n")
	}
	if card.URI != "" {
		fmt.Fprintf(&head, "**[%s](%s)**", escapeMarkdown(card.Title), card.URI)
	} else {
		fmt.Fprintf(&head, "**%s**", escapeMarkdown(card.Title))
	}
	if card.Author != "" {
		fmt.Fprintf(&head, "\n%s", escapeMarkdown(card.Author))
	}

	var top any
	if card.ArtworkURL != "" {
		top = sys.NewSection(head.String(), sys.NewThumbnail(card.ArtworkURL))
	} else {
		top = sys.NewTextDisplay(head.String())
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s `%s`\n", card.Bar, card.Clock())
	if card.RequesterID != 0 {
		fmt.Fprintf(&body, "Requested by <@%s>\n", card.RequesterID)
	}
	fmt.Fprintf(&body, "**Up next:** %s\n", escapeMarkdown(card.NextUp))
	fmt.Fprintf(&body, "-# %d in queue · Loop: %s · Volume: %d%%", card.QueueLength, card.LoopMode, card.Volume)

	pauseLabel := "⏸️"
	if card.Paused {
		pauseLabel = "▶️"
	}
	buttons := discord.NewActionRow(
		discord.NewSecondaryButton(pauseLabel, MusicButtonPause),
		discord.NewSecondaryButton("⏭️", MusicButtonSkip),
		discord.NewSecondaryButton("⏹️", MusicButtonStop),
		discord.NewSecondaryButton("🔁", MusicButtonLoop),
		discord.NewDangerButton("👋", MusicButtonLeave),
	)

	return sys.NewV2Container(top, sys.NewTextDisplay(body.String()), sys.NewSeparator(true), buttons)
}

// RenderRestorePrompt builds the yes/no restore question.
func RenderRestorePrompt(guildID snowflake.ID, trackCount int) sys.Container {
	buttons := discord.NewActionRow(
		discord.NewSuccessButton("Restore", RestoreButtonPrefix+"yes:"+guildID.String()),
		discord.NewSecondaryButton("Discard", RestoreButtonPrefix+"no:"+guildID.String()),
	)
	return sys.NewV2Container(sys.NewTextDisplay(fmt.Sprintf(sys.MsgMusicRestorePrompt, trackCount)), buttons)
}

// ParseRestoreButton reads a restore button ID back into its guild and answer.
func ParseRestoreButton(customID string) (guildID snowflake.ID, accept bool, err error) {
	parts := strings.Split(strings.TrimPrefix(customID, RestoreButtonPrefix), ":")
	if len(parts) != 2 || (parts[0] != "yes" && parts[0] != "no") {
		return 0, false, fmt.Errorf("malformed restore button %q", customID)
	}
	guildID, err = snowflake.Parse(parts[1])
	if err != nil {
		return 0, false, err
	}
	return guildID, parts[0] == "yes", nil
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "~", "\\~", "|", "\\|", "[", "\\[", "]", "\\]")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
