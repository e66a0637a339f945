package ingest

import (
	"path"
	"regexp"
	"strings"

	"github.com/MMN3003/telegram-commander/internal/models"
)

// Sentinel labels for URLs that match none of the known naming conventions.
// Items with unparseable metadata still flow through grouping and batching.
const (
	UnknownSeasonEpisode = "Unknown Season and Episode"
	UnknownResolution    = "Unknown Resolution"
)

var (
	// show.S01.E03. or show.S01.03. between dots, E prefix optional
	seasonEpisodeRegex = regexp.MustCompile(`(?i)\.s(\d+)\.(?:e(\d+)|(\d{2}))\.`)
	// bare two-digit episode between dots: show.07.mp4
	bareEpisodeRegex = regexp.MustCompile(`\.(\d{2})\.`)
	resolutionRegex  = regexp.MustCompile(`(?i)\.(480p|720p|1080p)\.`)
)

// Classify determines the media kind from the URL's extension alone
func Classify(url string) models.MediaKind {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(LastSegment(url)), "."))
	switch ext {
	case "png", "jpg", "jpeg":
		return models.KindImage
	case "mkv", "mp4":
		return models.KindVideo
	default:
		return models.KindUnknown
	}
}

// LastSegment returns the final path segment of a URL, without query or
// fragment.
func LastSegment(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return url[strings.LastIndex(url, "/")+1:]
}

// DisplayName derives a human-readable title: final path segment, extension
// stripped, separator dashes replaced with spaces.
func DisplayName(url string) string {
	segment := LastSegment(url)
	segment = strings.TrimSuffix(segment, path.Ext(segment))
	return strings.ReplaceAll(segment, "-", " ")
}

// SeasonEpisode extracts season and episode labels from a URL, preserving
// leading zeros from the source token. Two conventions are tried in order:
// S<digits>.E<digits> (E optional) yields both labels, a bare two-digit
// number between dots yields only the episode. Neither matching yields the
// sentinel as the episode label.
func SeasonEpisode(url string) (season, episode string) {
	if m := seasonEpisodeRegex.FindStringSubmatch(url); m != nil {
		ep := m[2]
		if ep == "" {
			ep = m[3]
		}
		return "Season " + m[1], "Episode " + ep
	}
	if m := bareEpisodeRegex.FindStringSubmatch(url); m != nil {
		return "", "Episode " + m[1]
	}
	return "", UnknownSeasonEpisode
}

// SeasonEpisodeLabel renders the combined label used in caption lines
func SeasonEpisodeLabel(url string) string {
	season, episode := SeasonEpisode(url)
	if season == "" {
		return episode
	}
	return season + " " + episode
}

// Resolution extracts a resolution token between dots, uppercased, or the
// sentinel when absent.
func Resolution(url string) string {
	if m := resolutionRegex.FindStringSubmatch(url); m != nil {
		return strings.ToUpper(m[1])
	}
	return UnknownResolution
}
