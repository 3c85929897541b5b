// Package resolver implements QueryResolver: turning a song's ISRC into
// an ordered list of alternate title/artist query pairs, coalescing
// concurrent lookups for the same ISRC into a single registry call.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"lyricsync/internal/lyricerr"
	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/registry"
	"lyricsync/internal/similarity"
)

// QueryPair is one title/artist combination worth querying providers
// with.
type QueryPair struct {
	Title  string
	Artist string
}

// Registry is the subset of registry.Client this package depends on.
type Registry interface {
	LookupISRC(ctx context.Context, isrc string) ([]registry.Recording, error)
}

// Resolver resolves a song's alternate query forms, coalescing
// concurrent requests for the same ISRC behind a single registry call.
type Resolver struct {
	reg   Registry
	group singleflight.Group
	cache sync.Map // isrc string -> []registry.Recording
}

// New builds a Resolver backed by reg.
func New(reg Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve returns the ordered sequence of query pairs for song, per
// spec: language-priority sorted registry results with a manual-override
// fallback prepended when confidence is low.
func (r *Resolver) Resolve(ctx context.Context, song lyricmodel.SongInformation) []QueryPair {
	fallback := QueryPair{Title: song.Title, Artist: song.PrimaryArtist()}

	if song.ISRC == "" {
		return []QueryPair{fallback}
	}

	recordings := r.lookup(ctx, song.ISRC)

	pairs := dedupe(recordings)
	sortByLanguagePriority(pairs)

	if needsFallback(song.Title, pairs) {
		pairs = prependIfAbsent(pairs, fallback)
	}

	if len(pairs) == 0 {
		return []QueryPair{fallback}
	}
	return pairs
}

// lookup fetches recordings for isrc, coalescing concurrent callers and
// caching the result (including empty results) for the life of the
// process. Registry failures are logged and treated as "no results".
func (r *Resolver) lookup(ctx context.Context, isrc string) []registry.Recording {
	if cached, ok := r.cache.Load(isrc); ok {
		return cached.([]registry.Recording)
	}

	v, err, _ := r.group.Do(isrc, func() (interface{}, error) {
		if cached, ok := r.cache.Load(isrc); ok {
			return cached, nil
		}
		recordings, err := r.reg.LookupISRC(ctx, isrc)
		if err != nil {
			return []registry.Recording{}, err
		}
		r.cache.Store(isrc, recordings)
		return recordings, nil
	})
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrRegistryUnavailable, err)).Str("isrc", isrc).Msg("registry lookup failed, falling back")
		return nil
	}
	return v.([]registry.Recording)
}

func dedupe(recordings []registry.Recording) []QueryPair {
	seen := make(map[string]bool, len(recordings))
	pairs := make([]QueryPair, 0, len(recordings))
	for _, rec := range recordings {
		key := rec.Title + "|" + rec.PrimaryArtistName
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, QueryPair{Title: rec.Title, Artist: rec.PrimaryArtistName})
	}
	return pairs
}

// languagePriority ranks CJK-dominant text above Japanese-dominant text
// above everything else.
func languagePriority(s string) int {
	hasHan, hasKana := false, false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			hasHan = true
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			hasKana = true
		}
	}
	switch {
	case hasHan && !hasKana:
		return 3
	case hasKana:
		return 2
	default:
		return 1
	}
}

func sortByLanguagePriority(pairs []QueryPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return languagePriority(pairs[i].Title) > languagePriority(pairs[j].Title)
	})
}

func needsFallback(targetTitle string, pairs []QueryPair) bool {
	if len(pairs) == 0 {
		return true
	}
	best := 0.0
	for _, p := range pairs {
		if s := similarity.Similarity(targetTitle, p.Title); s > best {
			best = s
		}
	}
	return best < 0.8
}

func prependIfAbsent(pairs []QueryPair, fallback QueryPair) []QueryPair {
	for _, p := range pairs {
		if p == fallback {
			return pairs
		}
	}
	out := make([]QueryPair, 0, len(pairs)+1)
	out = append(out, fallback)
	out = append(out, pairs...)
	return out
}
