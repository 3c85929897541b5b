// Package selection implements the SelectionController: the load
// pipeline that checks local, embedded, persisted, cached, and
// text-cached lyrics before falling back to the aggregator, plus the
// auto-promotion/lock state machine that governs which streamed
// candidate gets published, and the select operation that commits a
// user's explicit choice.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/aggregator"
	"lyricsync/internal/lrc"
	"lyricsync/internal/lyricerr"
	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/store"
)

const (
	localScore     = 101
	embeddedScore  = 100
	textCacheScore = 99
	selectFloor    = 45
	lockFloor      = 70
	defaultLimit   = 10
)

const (
	localSourceName     = "Local File"
	embeddedSourceName  = "Embedded (ID3)"
	textCacheSourceName = "Text Cache"
)

// Aggregator is the subset of aggregator.Aggregator this package depends
// on, kept as an interface so tests can substitute a fake.
type Aggregator interface {
	Search(ctx context.Context, song lyricmodel.SongInformation, limit int, onPartial aggregator.OnPartial) []lyricmodel.LyricCandidate
}

// LoadOptions carries the per-call inputs load needs beyond the song
// descriptor itself.
type LoadOptions struct {
	// LocalLrcContent, when non-empty, is lyric text supplied by an
	// external collaborator (e.g. a sidecar .lrc file) that always wins
	// over every other source absent a standing user selection.
	LocalLrcContent string
	// Limit bounds how many candidates each provider may return.
	// Defaults to 10. It is not part of the search-cache key, so a
	// search-cache hit is replayed as stored whatever Limit is.
	Limit int
}

// Listener receives an immutable snapshot of the parsed lyrics every
// time the controller publishes a new selection.
type Listener func(data lyricmodel.LyricsData)

// Controller is the SelectionController. All mutation of its state
// happens behind mu; the aggregator's provider tasks run independently
// and rejoin through onPartial.
type Controller struct {
	store     store.Store
	textCache store.Store
	agg       Aggregator

	token atomic.Uint64

	mu            sync.Mutex
	currentKey    string
	currentLimit  int
	currentLyrics lyricmodel.LyricsData
	lastResults   []lyricmodel.LyricCandidate

	listenersMu sync.Mutex
	listeners   []Listener
}

// Option configures a Controller.
type Option func(*Controller)

// WithTextCache enables the raw-text FileStore lookup that runs ahead of
// the aggregator, below the search cache but above a network fetch.
func WithTextCache(cache store.Store) Option {
	return func(c *Controller) { c.textCache = cache }
}

// New builds a Controller backed by st for persistence and agg for
// network lookups.
func New(st store.Store, agg Aggregator, opts ...Option) *Controller {
	c := &Controller{store: st, agg: agg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to be called on every published lyrics change.
func (c *Controller) Subscribe(fn Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// CurrentLyrics returns the most recently published lyrics.
func (c *Controller) CurrentLyrics() lyricmodel.LyricsData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLyrics
}

// LastResults returns the candidate list backing the current selection.
func (c *Controller) LastResults() []lyricmodel.LyricCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]lyricmodel.LyricCandidate, len(c.lastResults))
	copy(out, c.lastResults)
	return out
}

// GetLyricFromCache reports the persisted selection for song, if any,
// without touching the network.
func (c *Controller) GetLyricFromCache(ctx context.Context, song lyricmodel.SongInformation) (lyricmodel.LyricCandidate, bool) {
	key := persistenceKey(song)
	record, ok := c.loadRecord(ctx, store.SelectionKey(key))
	if !ok || !record.HasSelection {
		return lyricmodel.LyricCandidate{}, false
	}
	for _, cand := range record.Results {
		if cand.ID == record.SelectedID {
			return cand, true
		}
	}
	return lyricmodel.LyricCandidate{}, false
}

// Load runs the load pipeline for song: local file, embedded lyrics,
// persisted selection, search cache, text cache, then the aggregator,
// in that priority order. It returns lyricerr.ErrInputMalformed if song
// has neither a title nor an ISRC, lyricerr.ErrNoCandidates if no
// candidate could be found at all, or lyricerr.ErrStaleRequest if a
// newer Load call superseded this one before it finished.
func (c *Controller) Load(ctx context.Context, song lyricmodel.SongInformation, opts LoadOptions) error {
	if song.Title == "" && song.ISRC == "" {
		return lyricerr.ErrInputMalformed
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	key := persistenceKey(song)
	searchKey := store.SearchKey(key)
	selKey := store.SelectionKey(key)
	reqToken := c.beginRequest()

	var local, embedded *lyricmodel.LyricCandidate
	if opts.LocalLrcContent != "" {
		local = &lyricmodel.LyricCandidate{
			ID: "local:" + key, Source: localSourceName, Score: localScore,
			LyricText: opts.LocalLrcContent, Title: song.Title, Artist: song.PrimaryArtist(),
		}
	}
	if song.EmbeddedLyrics != "" {
		embedded = &lyricmodel.LyricCandidate{
			ID: "embedded:" + key, Source: embeddedSourceName, Score: embeddedScore,
			LyricText: song.EmbeddedLyrics, Title: song.Title, Artist: song.PrimaryArtist(),
		}
	}

	record, hasRecord := c.loadRecord(ctx, selKey)
	hasPersistedSelection := hasRecord && record.HasSelection

	if local != nil && !hasPersistedSelection {
		return c.commit(reqToken, key, limit, []lyricmodel.LyricCandidate{*local}, local.ID)
	}
	if embedded != nil && !hasPersistedSelection {
		return c.commit(reqToken, key, limit, []lyricmodel.LyricCandidate{*embedded}, embedded.ID)
	}

	if hasPersistedSelection {
		results := prepend(prepend(record.Results, embedded), local)
		return c.commit(reqToken, key, limit, results, record.SelectedID)
	}

	if cached, ok := c.loadRecord(ctx, searchKey); ok && len(cached.Results) > 0 {
		return c.commit(reqToken, key, limit, cached.Results, cached.Results[0].ID)
	}

	if cand, ok := c.loadTextCache(key, song); ok {
		return c.commit(reqToken, key, limit, []lyricmodel.LyricCandidate{cand}, cand.ID)
	}

	results, selectedID := c.runAggregator(ctx, reqToken, song, limit)
	if !c.isCurrent(reqToken) {
		return lyricerr.ErrStaleRequest
	}

	results = prepend(prepend(results, embedded), local)
	if len(results) == 0 {
		log.Warn().Str("key", key).Msg("no lyric candidates found")
		return lyricerr.ErrNoCandidates
	}
	selectedID = results[0].ID

	c.persistFinal(ctx, searchKey, selKey, results, selectedID)
	c.cacheText(key, results[indexOfID(results, selectedID)])
	return c.commit(reqToken, key, limit, results, selectedID)
}

// loadTextCache checks the optional raw-text FileStore for key, wrapping
// a hit as a single synthetic candidate.
func (c *Controller) loadTextCache(key string, song lyricmodel.SongInformation) (lyricmodel.LyricCandidate, bool) {
	if c.textCache == nil {
		return lyricmodel.LyricCandidate{}, false
	}
	text, ok, err := c.textCache.Get(context.Background(), store.TextKey(key))
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrPersistenceUnavailable, err)).Str("key", key).Msg("text cache read failed")
		return lyricmodel.LyricCandidate{}, false
	}
	if !ok || text == "" {
		return lyricmodel.LyricCandidate{}, false
	}
	return lyricmodel.LyricCandidate{
		ID: "textcache:" + key, Source: textCacheSourceName, Score: textCacheScore,
		LyricText: text, Title: song.Title, Artist: song.PrimaryArtist(),
	}, true
}

// cacheText writes the winning candidate's raw lyric text into the
// optional FileStore so a later restart can skip the aggregator
// entirely for this track.
func (c *Controller) cacheText(key string, winner lyricmodel.LyricCandidate) {
	if c.textCache == nil || winner.LyricText == "" {
		return
	}
	if err := c.textCache.Put(context.Background(), store.TextKey(key), winner.LyricText); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrPersistenceUnavailable, err)).Str("key", key).Msg("text cache write failed")
	}
}

// runAggregator drives the aggregator and the auto-promotion/lock state
// machine described by spec §4.10 step 6, returning the controller's own
// authoritative candidate ordering (selection pinned at front once
// chosen) rather than the aggregator's raw globally-sorted output.
func (c *Controller) runAggregator(ctx context.Context, reqToken uint64, song lyricmodel.SongInformation, limit int) ([]lyricmodel.LyricCandidate, string) {
	acc := newAccumulator()

	c.agg.Search(ctx, song, limit, func(batch []lyricmodel.LyricCandidate) {
		if !c.isCurrent(reqToken) {
			return // stale: a newer Load call superseded this request
		}
		if selected, ok := acc.merge(batch); ok {
			c.publishCandidate(reqToken, selected)
		}
	})

	return acc.orderedResults()
}

// isCurrent reports whether reqToken still matches the active request.
func (c *Controller) isCurrent(reqToken uint64) bool {
	return c.token.Load() == reqToken
}

func (c *Controller) beginRequest() uint64 {
	return c.token.Add(1)
}

// commit installs results/selectedID as the controller's current state
// if reqToken is still the active request, then publishes the selected
// candidate's parsed lyrics.
func (c *Controller) commit(reqToken uint64, key string, limit int, results []lyricmodel.LyricCandidate, selectedID string) error {
	if len(results) == 0 {
		return lyricerr.ErrNoCandidates
	}
	idx := indexOfID(results, selectedID)
	if idx < 0 {
		idx = 0
	}

	c.mu.Lock()
	if !c.isCurrent(reqToken) {
		c.mu.Unlock()
		return lyricerr.ErrStaleRequest
	}
	c.currentKey = key
	c.currentLimit = limit
	c.lastResults = results
	c.mu.Unlock()

	c.publishCandidate(reqToken, results[idx])
	return nil
}

func (c *Controller) publishCandidate(reqToken uint64, candidate lyricmodel.LyricCandidate) {
	data := parseCandidateText(candidate)

	c.mu.Lock()
	if !c.isCurrent(reqToken) {
		c.mu.Unlock()
		return
	}
	c.currentLyrics = data
	c.mu.Unlock()

	c.listenersMu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.Unlock()

	for _, l := range listeners {
		l(data)
	}
}

// Select commits lastResults[index] as the active selection, parsing its
// lyric text with the enhanced parser (which degrades to plain standard
// parsing when no syllable markers are present). If save is true and
// both the active key and the candidate's id are non-empty, the
// selection is persisted. Returns lyricerr.ErrInvalidSelectionIndex if
// index is outside the current candidate list.
func (c *Controller) Select(ctx context.Context, index int, save bool) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.lastResults) {
		c.mu.Unlock()
		return lyricerr.ErrInvalidSelectionIndex
	}
	candidate := c.lastResults[index]
	key := c.currentKey
	results := make([]lyricmodel.LyricCandidate, len(c.lastResults))
	copy(results, c.lastResults)
	c.mu.Unlock()

	data := parseCandidateText(candidate)

	c.mu.Lock()
	c.currentLyrics = data
	c.mu.Unlock()

	c.listenersMu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.Unlock()
	for _, l := range listeners {
		l(data)
	}

	if save && key != "" && candidate.ID != "" {
		c.persistSelection(ctx, store.SelectionKey(key), results, candidate.ID)
	}
	return nil
}

func parseCandidateText(candidate lyricmodel.LyricCandidate) lyricmodel.LyricsData {
	data := lrc.ParseEnhanced(candidate.LyricText)
	if data.Metadata == nil {
		data.Metadata = map[string]string{}
	}
	data.Metadata["source"] = candidate.Source
	data.Metadata["score"] = strconv.Itoa(candidate.Score)
	if data.Metadata["ti"] == "" && candidate.Title != "" {
		data.Metadata["ti"] = candidate.Title
	}
	if data.Metadata["ar"] == "" && candidate.Artist != "" {
		data.Metadata["ar"] = candidate.Artist
	}
	return data
}

func (c *Controller) loadRecord(ctx context.Context, key string) (lyricmodel.PersistenceRecord, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrPersistenceUnavailable, err)).Str("key", key).Msg("persistence read failed")
		return lyricmodel.PersistenceRecord{}, false
	}
	if !ok || raw == "" {
		return lyricmodel.PersistenceRecord{}, false
	}
	var record lyricmodel.PersistenceRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("persistence record malformed")
		return lyricmodel.PersistenceRecord{}, false
	}
	return record, true
}

func (c *Controller) persistFinal(ctx context.Context, searchKey, persistKey string, results []lyricmodel.LyricCandidate, selectedID string) {
	c.writeRecord(ctx, searchKey, lyricmodel.PersistenceRecord{Results: results})
	c.writeRecord(ctx, persistKey, lyricmodel.PersistenceRecord{Results: results, SelectedID: selectedID, HasSelection: selectedID != ""})
}

func (c *Controller) persistSelection(ctx context.Context, persistKey string, results []lyricmodel.LyricCandidate, selectedID string) {
	c.writeRecord(ctx, persistKey, lyricmodel.PersistenceRecord{Results: results, SelectedID: selectedID, HasSelection: true})
}

func (c *Controller) writeRecord(ctx context.Context, key string, record lyricmodel.PersistenceRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to encode persistence record")
		return
	}
	if err := c.store.Put(ctx, key, string(raw)); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrPersistenceUnavailable, err)).Str("key", key).Msg("persistence write failed")
	}
}

func persistenceKey(song lyricmodel.SongInformation) string {
	if song.PersistenceID != "" {
		return song.PersistenceID
	}
	artists := ""
	for i, a := range song.Artists {
		if i > 0 {
			artists += ","
		}
		artists += a
	}
	return fmt.Sprintf("%s|%s", song.Title, artists)
}

func indexOfID(results []lyricmodel.LyricCandidate, id string) int {
	for i, r := range results {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// prepend places candidate at the front of results if it is non-nil and
// not already present by id.
func prepend(results []lyricmodel.LyricCandidate, candidate *lyricmodel.LyricCandidate) []lyricmodel.LyricCandidate {
	if candidate == nil {
		return results
	}
	if indexOfID(results, candidate.ID) >= 0 {
		return results
	}
	out := make([]lyricmodel.LyricCandidate, 0, len(results)+1)
	out = append(out, *candidate)
	out = append(out, results...)
	return out
}

// accumulator tracks every candidate seen across an aggregator run and
// the auto-promotion/lock decision spec §4.10 step 6 describes: once a
// selection's score reaches the lock floor, no later candidate —
// however high its score — displaces it.
type accumulator struct {
	byID          map[string]lyricmodel.LyricCandidate
	selectedID    string
	selectedScore int
	locked        bool
}

func newAccumulator() *accumulator {
	return &accumulator{byID: make(map[string]lyricmodel.LyricCandidate)}
}

// merge folds batch into the accumulator and returns the newly-selected
// candidate (and true) if this merge promotes a new selection.
func (a *accumulator) merge(batch []lyricmodel.LyricCandidate) (lyricmodel.LyricCandidate, bool) {
	for _, cand := range batch {
		a.byID[cand.ID] = cand
	}
	if a.locked || len(a.byID) == 0 {
		return lyricmodel.LyricCandidate{}, false
	}

	top := a.topCandidate()
	if top.Score <= selectFloor || top.Score <= a.selectedScore {
		return lyricmodel.LyricCandidate{}, false
	}

	a.selectedID = top.ID
	a.selectedScore = top.Score
	if a.selectedScore >= lockFloor {
		a.locked = true
	}
	return top, true
}

func (a *accumulator) topCandidate() lyricmodel.LyricCandidate {
	candidates := a.sorted()
	return candidates[0]
}

func (a *accumulator) sorted() []lyricmodel.LyricCandidate {
	candidates := make([]lyricmodel.LyricCandidate, 0, len(a.byID))
	for _, c := range a.byID {
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// orderedResults returns every seen candidate with the locked/selected
// one pinned at the front, followed by the rest sorted descending.
func (a *accumulator) orderedResults() ([]lyricmodel.LyricCandidate, string) {
	candidates := a.sorted()
	if a.selectedID == "" {
		return candidates, ""
	}

	selected, rest := lyricmodel.LyricCandidate{}, make([]lyricmodel.LyricCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == a.selectedID {
			selected = c
			continue
		}
		rest = append(rest, c)
	}
	return append([]lyricmodel.LyricCandidate{selected}, rest...), a.selectedID
}
