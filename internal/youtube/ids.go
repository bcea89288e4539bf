package youtube

import (
	"regexp"

	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
)

// Platform identifier shapes. Playlist IDs are 34 characters with a fixed
// prefix set; video IDs are 11 characters. Both draw from the URL-safe
// base64 alphabet.
var (
	playlistIDPattern = regexp.MustCompile(`^(?:PL|UU|FL|LL|OL|RD)[A-Za-z0-9_-]{32}$`)
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// URL shapes tried in priority order. The first structural match wins.
	playlistURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/playlist/([A-Za-z0-9_-]+)`),
	}

	videoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/embed/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/shorts/([A-Za-z0-9_-]+)`),
	}
)

// ExtractPlaylistID accepts a bare playlist identifier or any recognized
// playlist URL shape and returns the validated identifier. The length and
// charset check applies even after a URL pattern matched.
func ExtractPlaylistID(input string) (string, error) {
	if playlistIDPattern.MatchString(input) {
		return input, nil
	}

	for _, pattern := range playlistURLPatterns {
		if m := pattern.FindStringSubmatch(input); m != nil {
			if playlistIDPattern.MatchString(m[1]) {
				return m[1], nil
			}
			return "", apperrors.Newf(apperrors.KindInvalidIdentifier,
				"malformed playlist identifier %q", m[1])
		}
	}

	return "", apperrors.Newf(apperrors.KindInvalidIdentifier,
		"unrecognized playlist URL or identifier %q", input)
}

// ExtractVideoID accepts a bare video identifier or any recognized video
// URL shape and returns the validated identifier
func ExtractVideoID(input string) (string, error) {
	if videoIDPattern.MatchString(input) {
		return input, nil
	}

	for _, pattern := range videoURLPatterns {
		if m := pattern.FindStringSubmatch(input); m != nil {
			if videoIDPattern.MatchString(m[1]) {
				return m[1], nil
			}
			return "", apperrors.Newf(apperrors.KindInvalidIdentifier,
				"malformed video identifier %q", m[1])
		}
	}

	return "", apperrors.Newf(apperrors.KindInvalidIdentifier,
		"unrecognized video URL or identifier %q", input)
}
