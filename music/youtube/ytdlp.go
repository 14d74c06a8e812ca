package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/leeineian/minuet/sys"
	"github.com/lrstanley/go-ytdlp"
)

var (
	cachedJSArgs []string
	jsOnce       sync.Once
)

const audioFormat = "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio/best"

type ytdlpEntry struct {
	URL       string
	Title     string
	Uploader  string
	Duration  time.Duration
	Thumbnail string
}

// newYtdlp returns a quiet yt-dlp command routed through the proxy, if any.
func newYtdlp(proxy string) *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings()
	if proxy != "" {
		cmd.Proxy(proxy)
	}
	return cmd
}

// buildYtdlpArgs returns the arguments shared by every invocation.
func buildYtdlpArgs() []string {
	jsOnce.Do(func() {
		for _, rt := range []string{"node", "deno", "quickjs"} {
			if path, err := exec.LookPath(rt); err == nil {
				cachedJSArgs = append(cachedJSArgs, "--js-runtimes", rt+":"+path)
				break
			}
		}
	})

	args := append([]string(nil), cachedJSArgs...)
	return append(args,
		"--no-check-certificates",
		"--extractor-args", "youtube:player_client=android,web",
		"--socket-timeout", "30",
		"--retries", "5",
	)
}

// parseEntries reads tab separated url, title, uploader, duration, thumbnail lines.
func parseEntries(stdout string) []ytdlpEntry {
	var out []ytdlpEntry
	for _, l := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(l, "\t")
		if len(ps) < 3 || ps[0] == "" || ps[0] == "NA" {
			continue
		}
		e := ytdlpEntry{URL: ps[0], Title: na(ps[1]), Uploader: na(ps[2])}
		if len(ps) > 3 {
			if d, err := time.ParseDuration(ps[3] + "s"); err == nil {
				e.Duration = d
			}
		}
		if len(ps) > 4 {
			e.Thumbnail = na(ps[4])
		}
		out = append(out, e)
	}
	return out
}

func na(s string) string {
	if s == "NA" {
		return ""
	}
	return s
}

// ytdlpSearch runs a yt-dlp search. prefix is "ytsearch" or "ytmsearch".
func ytdlpSearch(ctx context.Context, proxy, prefix, q string, m int) ([]ytdlpEntry, error) {
	res, err := newYtdlp(proxy).
		FlatPlaylist().
		Print("%(url)s\t%(title)s\t%(uploader)s\t%(duration)s").
		PlaylistItems(fmt.Sprintf("1-%d", m)).
		IgnoreConfig().
		Run(ctx, append(buildYtdlpArgs(), fmt.Sprintf("%s%d:%s", prefix, m, q))...)
	if err != nil {
		return nil, err
	}
	var out []ytdlpEntry
	for _, e := range parseEntries(res.Stdout) {
		if extractVideoID(e.URL) != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// ytdlpMetadata describes a single link without downloading it.
func ytdlpMetadata(ctx context.Context, proxy, u string) (*ytdlpEntry, error) {
	res, err := newYtdlp(proxy).
		Print("%(webpage_url)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(thumbnail)s").
		IgnoreConfig().
		Run(ctx, append(buildYtdlpArgs(), "--no-playlist", "--skip-download", u)...)
	if err != nil {
		stderr := ""
		if res != nil {
			stderr = strings.ToLower(res.Stderr)
		}
		if strings.Contains(stderr, "drm") {
			return nil, fmt.Errorf("%w: %v", errDRM, err)
		}
		return nil, err
	}
	es := parseEntries(res.Stdout)
	if len(es) == 0 {
		return nil, errors.New("yt-dlp returned no metadata")
	}
	return &es[0], nil
}

var errDRM = errors.New("drm protected")

// ytdlpPlaylist lists up to m entries of a playlist link.
func ytdlpPlaylist(ctx context.Context, proxy, u string, m int) ([]ytdlpEntry, error) {
	cmd := newYtdlp(proxy).
		FlatPlaylist().
		Print("%(url)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(id)s").
		PlaylistItems(fmt.Sprintf("1-%d", m)).
		IgnoreConfig().
		BuildCommand(ctx, append(buildYtdlpArgs(), u, "--yes-playlist")...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp playlist failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	youtube := isYouTubeURL(u)
	var out []ytdlpEntry
	for _, l := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		ps := strings.Split(l, "\t")
		if len(ps) < 3 {
			continue
		}
		e := ytdlpEntry{URL: na(ps[0]), Title: na(ps[1]), Uploader: na(ps[2])}
		if len(ps) > 3 {
			if d, err := time.ParseDuration(ps[3] + "s"); err == nil {
				e.Duration = d
			}
		}
		if youtube && len(ps) > 4 && ps[4] != "" && ps[4] != "NA" {
			e.URL = watchURL(ps[4])
		}
		out = append(out, e)
	}
	return out, nil
}

// ytdlpStreamURL resolves the direct media URL of the best audio format.
func ytdlpStreamURL(ctx context.Context, proxy, u string) (string, error) {
	u = strings.Replace(u, "music.youtube.com", "www.youtube.com", 1)
	res, err := newYtdlp(proxy).
		Print("%(url)s").
		IgnoreConfig().
		Run(ctx, append(buildYtdlpArgs(), "--no-playlist", "-f", audioFormat, "--skip-download", u)...)
	if err != nil {
		if res != nil {
			sys.LogVoice("yt-dlp stream lookup failed: %v, stderr: %s (URL: %s)", err, strings.TrimSpace(res.Stderr), u)
		}
		return "", err
	}
	for _, l := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if l = strings.TrimSpace(l); strings.HasPrefix(l, "http") {
			return l, nil
		}
	}
	return "", errors.New("yt-dlp printed no stream url")
}
