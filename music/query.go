package music

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	bracketedPattern = regexp.MustCompile(`[\(\[\{][^\)\]\}]*[\)\]\}]`)
	noisePattern     = regexp.MustCompile(`(?i)\b(official|video|audio|lyrics?|visualizer|feat|ft|hd|hq|mv)\b\.?`)
	punctPattern     = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
	spacePattern     = regexp.MustCompile(`\s+`)
	dashReplacer     = strings.NewReplacer("–", "-", "—", "-", "|", " - ")
)

// CleanQuery strips bracketed annotations, noise words and punctuation from
// a free-text search.
func CleanQuery(q string) string {
	q = dashReplacer.Replace(q)
	q = bracketedPattern.ReplaceAllString(q, " ")
	q = noisePattern.ReplaceAllString(q, " ")
	q = punctPattern.ReplaceAllString(q, " ")
	q = spacePattern.ReplaceAllString(q, " ")
	q = strings.Trim(strings.TrimSpace(q), "-")
	return strings.TrimSpace(q)
}

// SimplifyQuery is the fallback search: the part after the first
// "artist - title" separator, cleaned. Empty when nothing simpler exists.
func SimplifyQuery(q string) string {
	cleaned := CleanQuery(q)
	idx := strings.Index(cleaned, " - ")
	if idx < 0 {
		return ""
	}
	return CleanQuery(cleaned[idx+3:])
}

// IsLink reports whether the input should be loaded directly instead of searched.
func IsLink(q string) bool {
	u, err := url.Parse(strings.TrimSpace(q))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
