// Package aggregator implements the Aggregator: concurrent fan-out to
// every registered lyric provider, per-batch scoring, and a streaming
// partial-result callback as each provider completes.
package aggregator

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/providers"
	"lyricsync/internal/resolver"
	"lyricsync/internal/scorer"
)

// Resolver is the subset of resolver.Resolver this package depends on.
type Resolver interface {
	Resolve(ctx context.Context, song lyricmodel.SongInformation) []resolver.QueryPair
}

// OnPartial is invoked once per provider, in completion order, with that
// provider's batch already scored and sorted descending.
type OnPartial func(batch []lyricmodel.LyricCandidate)

// Aggregator fans a query out to every configured provider and fuses the
// results into one globally-ranked sequence.
type Aggregator struct {
	providers []providers.Provider
	resolver  Resolver
}

// New builds an Aggregator over the given providers. resolver may be nil,
// in which case searchAliases is left untouched.
func New(resolver Resolver, provs ...providers.Provider) *Aggregator {
	return &Aggregator{providers: provs, resolver: resolver}
}

// Search runs every provider concurrently, scoring and streaming each
// provider's batch as it completes, then returns the full result set
// sorted by score descending.
func (a *Aggregator) Search(ctx context.Context, song lyricmodel.SongInformation, limit int, onPartial OnPartial) []lyricmodel.LyricCandidate {
	if a.resolver != nil {
		song = withAliases(song, a.resolver.Resolve(ctx, song))
	}

	if len(a.providers) == 0 {
		return []lyricmodel.LyricCandidate{}
	}

	results := make(chan []lyricmodel.LyricCandidate, len(a.providers))
	var wg sync.WaitGroup

	for _, p := range a.providers {
		wg.Add(1)
		go func(p providers.Provider) {
			defer wg.Done()
			batch := runProvider(ctx, p, song, limit)
			scoreBatch(song, batch)
			sortDescending(batch)
			results <- batch
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	all := make([]lyricmodel.LyricCandidate, 0, limit)
	for batch := range results {
		if onPartial != nil {
			onPartial(batch)
		}
		all = append(all, batch...)
	}

	sortDescending(all)
	return all
}

func runProvider(ctx context.Context, p providers.Provider, song lyricmodel.SongInformation, limit int) []lyricmodel.LyricCandidate {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("provider", p.Name()).Msg("provider panicked, treating as empty batch")
		}
	}()
	batch := p.Search(ctx, song, limit)
	if batch == nil {
		return []lyricmodel.LyricCandidate{}
	}
	return batch
}

func scoreBatch(song lyricmodel.SongInformation, batch []lyricmodel.LyricCandidate) {
	for i := range batch {
		batch[i].Score = scorer.Score(song, batch[i])
	}
}

func sortDescending(batch []lyricmodel.LyricCandidate) {
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Score > batch[j].Score
	})
}

func withAliases(song lyricmodel.SongInformation, pairs []resolver.QueryPair) lyricmodel.SongInformation {
	if len(pairs) == 0 {
		return song
	}
	titles := make([]string, 0, len(pairs))
	artists := make([]string, 0, len(pairs))
	for _, p := range pairs {
		titles = append(titles, p.Title)
		artists = append(artists, p.Artist)
	}
	song.SearchAliases = lyricmodel.SongAliases{Titles: titles, Artists: artists}
	return song
}
