package proc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/music"
)

func TestParseRestoreButton(t *testing.T) {
	id := snowflake.ID(123456789012345678)
	guild, accept, err := ParseRestoreButton(RestoreButtonPrefix + "yes:" + id.String())
	if err != nil || guild != id || !accept {
		t.Fatalf("got %v %v %v", guild, accept, err)
	}
	guild, accept, err = ParseRestoreButton(RestoreButtonPrefix + "no:" + id.String())
	if err != nil || guild != id || accept {
		t.Fatalf("got %v %v %v", guild, accept, err)
	}
	for _, bad := range []string{"restore:maybe:1", "restore:yes", "restore:yes:abc"} {
		if _, _, err := ParseRestoreButton(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestClassifyDisplayError(t *testing.T) {
	if classifyDisplayError(nil) != nil {
		t.Fatal("nil should stay nil")
	}

	req, _ := http.NewRequest(http.MethodPatch, "https://discord.com/api/v10/channels/1/messages/2", nil)
	notFound := &rest.Error{
		Request:  req,
		Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		Code:     10008,
	}
	if err := classifyDisplayError(notFound); !errors.Is(err, music.ErrDisplayGone) {
		t.Errorf("404 not classified: %v", err)
	}

	byText := errors.New("10008: Unknown Message")
	if err := classifyDisplayError(byText); !errors.Is(err, music.ErrDisplayGone) {
		t.Errorf("unknown message not classified: %v", err)
	}

	other := errors.New("rate limited")
	if err := classifyDisplayError(other); errors.Is(err, music.ErrDisplayGone) {
		t.Errorf("unrelated error classified as gone: %v", err)
	}
}

func TestRenderCard(t *testing.T) {
	card := music.Card{
		Title:       "Song_Name",
		URI:         "https://example.com/song",
		Author:      "Artist",
		ArtworkURL:  "https://example.com/art.jpg",
		RequesterID: 42,
		Elapsed:     30 * time.Second,
		Duration:    3 * time.Minute,
		Bar:         music.ProgressBar(30*time.Second, 3*time.Minute),
		NextUp:      "Other",
		QueueLength: 2,
		LoopMode:    music.LoopQueue,
		Volume:      30,
	}
	data, err := json.Marshal(RenderCard(card))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{`Song\\_Name`, "https://example.com/art.jpg", "@42", "Loop: queue", "Volume: 30%", MusicButtonSkip, "0:30 / 3:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("card JSON missing %q", want)
		}
	}
}

func TestRenderRestorePrompt(t *testing.T) {
	data, err := json.Marshal(RenderRestorePrompt(7, 3))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"restore:yes:7", "restore:no:7", "**3**"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt JSON missing %q", want)
		}
	}
}

func TestPresenceChoices(t *testing.T) {
	got := presenceChoices(3, 12, 90*time.Minute)
	want := []string{"/music play", "music in 3 servers", "12 queued tracks", "for 1h 30m"}
	if len(got) != len(want) {
		t.Fatalf("presenceChoices = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("choice %d = %q, want %q", i, got[i], want[i])
		}
	}

	if got := presenceChoices(0, 0, 0); len(got) != 2 {
		t.Errorf("idle choices = %q, want default and uptime only", got)
	}
}

func TestPickPresenceAvoidsRepeat(t *testing.T) {
	first := func(int) int { return 0 }
	if got := pickPresence([]string{"a", "b"}, "a", first); got != "b" {
		t.Errorf("pickPresence = %q, want b", got)
	}
	if got := pickPresence([]string{"a"}, "a", first); got != "a" {
		t.Errorf("pickPresence with one choice = %q, want a", got)
	}
}
