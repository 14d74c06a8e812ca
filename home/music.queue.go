package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/proc"
	"github.com/leeineian/minuet/sys"
)

const queuePageSize = 10

func handleMusicQueue(event *events.ApplicationCommandInteractionCreate) {
	v, ok := proc.Music().View(*event.GuildID())
	if !ok || !v.Connected {
		musicReply(event, sys.ErrMusicNotConnected, true)
		return
	}
	if err := sys.RespondInteractionV2(event.Client(), event, RenderQueue(v), true); err != nil {
		sys.LogMusicWarn("Failed to display queue: %v", err)
	}
}

func handleMusicNowPlaying(event *events.ApplicationCommandInteractionCreate) {
	v, ok := proc.Music().View(*event.GuildID())
	if !ok {
		musicReply(event, sys.ErrMusicNothingPlaying, true)
		return
	}
	card, ok := music.BuildCard(v)
	if !ok {
		musicReply(event, sys.ErrMusicNothingPlaying, true)
		return
	}
	if err := sys.RespondInteractionV2(event.Client(), event, proc.RenderCard(card), true); err != nil {
		sys.LogMusicWarn("Failed to display now playing: %v", err)
	}
}

// RenderQueue lists the current track and the first page of the queue.
func RenderQueue(v music.View) sys.Container {
	var components []any

	if v.Current != nil {
		components = append(components, sys.NewTextDisplay("**Now Playing:**"))
		line := v.Current.Label()
		if v.Current.URI != "" {
			line = fmt.Sprintf("[%s](%s)", v.Current.Title, v.Current.URI)
			if v.Current.Author != "" {
				line += " · " + v.Current.Author
			}
		}
		components = append(components, sys.NewTextDisplay(line))
		components = append(components, sys.NewSeparator(true))
	}

	components = append(components, sys.NewTextDisplay("**Queue:**"))
	if len(v.Queue) == 0 {
		components = append(components, sys.NewTextDisplay(sys.MsgMusicQueueEmpty))
	} else {
		var list strings.Builder
		for i, t := range v.Queue {
			if i >= queuePageSize {
				break
			}
			fmt.Fprintf(&list, "`%d.` %s", i+1, t.Label())
			if t.Duration > 0 {
				fmt.Fprintf(&list, " `%s`", music.FormatClock(t.Duration))
			}
			list.WriteString("\n")
		}
		if len(v.Queue) > queuePageSize {
			fmt.Fprintf(&list, sys.MsgMusicQueueMore, len(v.Queue)-queuePageSize)
		}
		components = append(components, sys.NewTextDisplay(list.String()))
	}

	components = append(components, sys.NewSeparator(true))
	components = append(components, sys.NewTextDisplay(fmt.Sprintf("-# Loop: %s · Volume: %d%%", v.LoopMode, int(v.Volume*100+0.5))))
	return sys.NewV2Container(components...)
}
