package proc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/leeineian/minuet/sys"
)

const defaultPresence = "/music play"

func init() {
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		presenceOnce.Do(func() {
			sys.RegisterDaemon(sys.LogStatus, func(ctx context.Context) (bool, func(), func()) {
				return true, func() { runPresence(ctx, client) }, nil
			})
		})
	})
}

var (
	presenceOnce sync.Once
	lastPresence string
)

func rotationInterval() time.Duration {
	return time.Duration(30+rand.Intn(31)) * time.Second
}

func runPresence(ctx context.Context, client *bot.Client) {
	for {
		next := rotationInterval()
		updatePresence(ctx, client, next)
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return
		}
	}
}

func updatePresence(ctx context.Context, client *bot.Client, next time.Duration) {
	var sessions, tracks int
	if c := Music(); c != nil {
		sessions, tracks = c.Usage()
	}
	text := pickPresence(presenceChoices(sessions, tracks, time.Since(sys.StartupTime)), lastPresence, rand.Intn)
	lastPresence = text

	err := client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		gateway.WithListeningActivity(text),
	)
	if err != nil {
		sys.LogStatus(sys.MsgStatusUpdateFail, err)
		return
	}
	sys.LogStatus(sys.MsgStatusRotated, text, next)
}

// presenceChoices lists the statuses worth showing right now.
func presenceChoices(sessions, tracks int, uptime time.Duration) []string {
	choices := []string{defaultPresence}
	switch {
	case sessions == 1:
		choices = append(choices, "music in 1 server")
	case sessions > 1:
		choices = append(choices, fmt.Sprintf("music in %d servers", sessions))
	}
	if tracks > 0 {
		choices = append(choices, fmt.Sprintf("%d queued tracks", tracks))
	}
	choices = append(choices, fmt.Sprintf("for %dh %dm", int(uptime.Hours()), int(uptime.Minutes())%60))
	return choices
}

// pickPresence picks a status other than last when there is one.
func pickPresence(choices []string, last string, intn func(int) int) string {
	var fresh []string
	for _, c := range choices {
		if c != last {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return choices[0]
	}
	return fresh[intn(len(fresh))]
}
