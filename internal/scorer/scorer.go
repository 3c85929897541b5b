// Package scorer implements the composite relevance score (C5) the
// aggregator ranks candidates by: title, artist, album, and duration
// sub-scores, each weighted, evaluated over the primary query and every
// alias combination the query resolver discovered.
package scorer

import (
	"math"
	"regexp"
	"strings"

	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/similarity"
)

const (
	weightTitle  = 40.0
	weightArtist = 30.0
	weightAlbum  = 20.0
)

var tokenSplitRe = regexp.MustCompile(`[\s,]+`)

// Score returns the rounded composite relevance score of candidate against
// target, taking the maximum across the primary query and every
// title/artist alias combination in target.SearchAliases.
func Score(target lyricmodel.SongInformation, candidate lyricmodel.LyricCandidate) int {
	best := scoreOne(target.Title, target.Artists, target, candidate)

	for _, titleAlias := range target.SearchAliases.Titles {
		if s := scoreOne(titleAlias, target.Artists, target, candidate); s > best {
			best = s
		}
	}
	for _, artistAlias := range target.SearchAliases.Artists {
		if s := scoreOne(target.Title, []string{artistAlias}, target, candidate); s > best {
			best = s
		}
	}
	for _, titleAlias := range target.SearchAliases.Titles {
		for _, artistAlias := range target.SearchAliases.Artists {
			if s := scoreOne(titleAlias, []string{artistAlias}, target, candidate); s > best {
				best = s
			}
		}
	}

	return int(math.Round(best))
}

func scoreOne(title string, artists []string, target lyricmodel.SongInformation, candidate lyricmodel.LyricCandidate) float64 {
	total := similarity.Similarity(title, candidate.Title) * weightTitle
	total += artistScore(artists, candidate.Artist) * weightArtist

	if target.Album != "" && candidate.Album != "" {
		total += similarity.Similarity(target.Album, candidate.Album) * weightAlbum
	}

	if target.DurationMs > 0 && candidate.DurationMs > 0 {
		total += durationScore(target.DurationMs, candidate.DurationMs)
	}

	return total
}

// durationScore implements spec.md §4.5's graduated penalty/bonus table.
func durationScore(targetMs, candidateMs int) float64 {
	d := targetMs - candidateMs
	if d < 0 {
		d = -d
	}
	switch {
	case d <= 1000:
		return 10
	case d <= 3000:
		return 7
	case d <= 5000:
		return 4
	case d <= 10000:
		return 0
	case d <= 20000:
		return -5
	default:
		return -10
	}
}

// artistScore compares a set of target artist names against a single
// candidate artist string, per spec.md §4.5.
func artistScore(targetArtists []string, candidateArtist string) float64 {
	t := tokenSet(strings.Join(targetArtists, ","))
	c := tokenSet(candidateArtist)

	if subsetOf(t, c) || subsetOf(c, t) {
		return 1.0
	}

	jaccard := jaccardSimilarity(t, c)
	if jaccard > 0.5 {
		return jaccard
	}

	fallback := similarity.Similarity(strings.Join(targetArtists, " "), candidateArtist)
	return math.Max(jaccard, fallback)
}

func tokenSet(s string) map[string]struct{} {
	s = strings.ReplaceAll(s, "&", ",")
	s = strings.ReplaceAll(s, "/", ",")
	tokens := tokenSplitRe.Split(s, -1)

	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func subsetOf(a, b map[string]struct{}) bool {
	if len(a) == 0 {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
