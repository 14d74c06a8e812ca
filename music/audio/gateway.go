// Package audio plays located streams into Discord voice channels.
package audio

import (
	"context"
	"fmt"
	"net/http"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/sys"
)

var requiredPermissions = discord.PermissionViewChannel | discord.PermissionConnect | discord.PermissionSpeak

// Gateway implements music.VoiceGateway.
type Gateway struct {
	client *bot.Client
}

func NewGateway(client *bot.Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) Connect(ctx context.Context, guildID, channelID snowflake.ID) (music.VoiceSession, error) {
	if err := g.checkPermissions(guildID, channelID); err != nil {
		return nil, err
	}

	sys.LogVoice("Joining channel %s in guild %s", channelID, guildID)
	conn := g.client.VoiceManager.CreateConn(guildID)
	if err := conn.Open(ctx, channelID, false, false); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	s := newSession(guildID, channelID, conn)
	s.onDisconnect = func() {
		if err := SetVoiceStatus(g.client, channelID, ""); err != nil {
			sys.LogVoice("Failed to clear voice status in %s: %v", channelID, err)
		}
	}
	return s, nil
}

// checkPermissions fails fast when the cache says the bot cannot join or
// speak. Missing cache entries are not treated as a denial.
func (g *Gateway) checkPermissions(guildID, channelID snowflake.ID) error {
	ch, ok := g.client.Caches.Channel(channelID)
	if !ok {
		return nil
	}
	gc, ok := ch.(discord.GuildChannel)
	if !ok {
		return nil
	}
	self, ok := g.client.Caches.Member(guildID, g.client.ApplicationID)
	if !ok {
		return nil
	}
	perms := g.client.Caches.MemberPermissionsInChannel(gc, self)
	if !perms.Has(requiredPermissions) {
		return fmt.Errorf("%w: missing %s in <#%s>", music.ErrPermissionDenied, requiredPermissions.Remove(perms), channelID)
	}
	return nil
}

// SetVoiceStatus sets the status line shown under a voice channel. An empty
// status clears it.
func SetVoiceStatus(client *bot.Client, channelID snowflake.ID, status string) error {
	route := rest.NewEndpoint(http.MethodPut, "/channels/{channel.id}/voice-status")
	return client.Rest.Do(route.Compile(nil, channelID.String()), map[string]string{"status": status}, nil)
}
