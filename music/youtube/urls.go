package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var videoIDRegex = regexp.MustCompile(`(?:\?|&)v=([^&#]+)`)

// extractVideoID returns the YouTube video id of a link, or "".
func extractVideoID(u string) string {
	id := ""
	if m := videoIDRegex.FindStringSubmatch(u); len(m) > 1 {
		id = m[1]
	} else {
		for _, marker := range []string{"youtu.be/", "shorts/"} {
			if i := strings.Index(u, marker); i >= 0 {
				id = strings.SplitN(u[i+len(marker):], "?", 2)[0]
				break
			}
		}
	}
	if len(id) > 50 {
		return ""
	}
	return id
}

func isYouTubeURL(u string) bool {
	return strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be")
}

// isPlaylistURL reports links that name a collection rather than one track.
func isPlaylistURL(u string) bool {
	lower := strings.ToLower(u)
	if isYouTubeURL(lower) {
		return strings.Contains(lower, "list=") && extractVideoID(u) == ""
	}
	for _, p := range []string{"/playlist", "/album/", "/sets/"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func musicURL(id string) string {
	return "https://music.youtube.com/watch?v=" + id
}

func thumbnailURL(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
}

// parseDurationColon parses "3:20" or "1:05:20".
func parseDurationColon(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}

// scrapeOpenGraph pulls a title and artist out of a page's meta tags, for
// links yt-dlp refuses (DRM protected streaming sites).
func scrapeOpenGraph(ctx context.Context, client *http.Client, u string) (title, artist string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	og := parseOpenGraph(io.LimitReader(resp.Body, 1<<20))

	title = og["og:title"]
	for _, suffix := range []string{" - song and lyrics by", " | Spotify"} {
		if i := strings.Index(title, suffix); i != -1 {
			title = title[:i]
		}
	}
	if desc := og["og:description"]; desc != "" && strings.Contains(strings.ToLower(u), "spotify") {
		artist = strings.TrimSpace(strings.Split(desc, " · ")[0])
	}
	if title == "" {
		return "", "", errors.New("could not extract metadata")
	}
	return title, artist, nil
}

// parseOpenGraph collects the og:* meta properties of a document head.
func parseOpenGraph(r io.Reader) map[string]string {
	og := map[string]string{}
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return og
		case html.EndTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Head {
				return og
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.Meta || !hasAttr {
				continue
			}
			var prop, content string
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "property", "name":
					prop = string(val)
				case "content":
					content = string(val)
				}
			}
			if strings.HasPrefix(prop, "og:") && content != "" {
				if _, seen := og[prop]; !seen {
					og[prop] = content
				}
			}
		}
	}
}
