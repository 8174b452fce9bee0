// Package media turns a user-supplied video link into an embeddable
// YouTube or Vimeo reference, or falls back to a plain link.
package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Kind tags the variant of a resolved link.
type Kind string

const (
	KindYouTube Kind = "youtube"
	KindVimeo   Kind = "vimeo"
	KindPlain   Kind = "link"
)

// Link is the result of resolving a media URL. VideoID is set for the
// embed kinds. Diagnostic is set when the URL looked like a video link but
// no usable identifier could be extracted.
type Link struct {
	Kind       Kind   `json:"kind"`
	VideoID    string `json:"videoId,omitempty"`
	URL        string `json:"url"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Empty reports whether there is nothing to show.
func (l Link) Empty() bool {
	return l.Kind == KindPlain && l.URL == ""
}

// EmbedURL returns the player URL for embed kinds and "" otherwise.
func (l Link) EmbedURL() string {
	switch l.Kind {
	case KindYouTube:
		return fmt.Sprintf("https://www.youtube.com/embed/%s?rel=0&modestbranding=1&playsinline=1", l.VideoID)
	case KindVimeo:
		return fmt.Sprintf("https://player.vimeo.com/video/%s", l.VideoID)
	default:
		return ""
	}
}

const youtubeIDLen = 11

var youtubeID = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// Fallback patterns, tried in order. Each requires the identifier to end at
// a non-identifier character or the end of input, so a longer token is never
// cut down to 11 characters.
var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?.*v=|youtube\.com/watch\?v=)([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
	regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
}

// Resolve classifies raw. It never fails: anything that is not a
// recognizable video link comes back as a plain link carrying raw unchanged.
func Resolve(raw string) Link {
	normalized := normalize(raw)
	if normalized == "" {
		return Link{Kind: KindPlain}
	}

	host := hostOf(normalized)

	if strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be") {
		if id := youtubeVideoID(normalized); id != "" {
			return Link{Kind: KindYouTube, VideoID: id, URL: normalized}
		}
		return Link{
			Kind:       KindPlain,
			URL:        normalized,
			Diagnostic: "could not parse YouTube video id",
		}
	}

	if strings.Contains(host, "vimeo.com") {
		if id := vimeoVideoID(normalized); id != "" {
			return Link{Kind: KindVimeo, VideoID: id, URL: normalized}
		}
	}

	return Link{Kind: KindPlain, URL: raw}
}

// normalize strips all whitespace and adds an https scheme when none is present.
func normalize(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return s
}

func hostOf(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func youtubeVideoID(s string) string {
	if id := structuredYouTubeID(s); youtubeID.MatchString(id) {
		return id
	}

	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// structuredYouTubeID reads the id from the parsed URL: the v query
// parameter, the segment after embed/shorts/v, or the first segment of a
// youtu.be link. The candidate is cut at the first ?, # or &.
func structuredYouTubeID(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	var id string
	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case strings.Contains(host, "youtu.be"):
		id = segments[0]
	case u.Query().Get("v") != "":
		id = u.Query().Get("v")
	default:
		for i := 0; i+1 < len(segments); i++ {
			switch segments[i] {
			case "embed", "shorts", "v":
				id = segments[i+1]
			}
			if id != "" {
				break
			}
		}
	}

	if i := strings.IndexAny(id, "?#&"); i >= 0 {
		id = id[:i]
	}
	if len(id) != youtubeIDLen {
		return ""
	}
	return id
}

// vimeoVideoID returns the path segment right after vimeo.com/.
func vimeoVideoID(s string) string {
	_, rest, ok := strings.Cut(s, "vimeo.com/")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "?#/"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
