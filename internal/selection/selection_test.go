package selection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lyricsync/internal/aggregator"
	"lyricsync/internal/lyricerr"
	"lyricsync/internal/lyricmodel"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]string{}} }

func (f *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeStore) Put(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

type staticAggregator struct {
	batches [][]lyricmodel.LyricCandidate
}

func (a *staticAggregator) Search(ctx context.Context, song lyricmodel.SongInformation, limit int, onPartial aggregator.OnPartial) []lyricmodel.LyricCandidate {
	var all []lyricmodel.LyricCandidate
	for _, batch := range a.batches {
		onPartial(batch)
		all = append(all, batch...)
	}
	return all
}

func TestLoadAutoPromotionAndLock(t *testing.T) {
	scores := []int{40, 50, 60, 75, 90}
	agg := &staticAggregator{}
	for i, s := range scores {
		agg.batches = append(agg.batches, []lyricmodel.LyricCandidate{
			{ID: "c" + string(rune('0'+i)), Source: "x", LyricText: "lyrics", Score: s},
		})
	}

	var published []int
	c := New(newFakeStore(), agg)
	c.Subscribe(func(data lyricmodel.LyricsData) {
		published = append(published, mustScore(data))
	})

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}}
	if err := c.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	want := []int{50, 60, 75}
	if len(published) < len(want) {
		t.Fatalf("published = %v, want at least %v", published, want)
	}
	for i, w := range want {
		if published[i] != w {
			t.Errorf("published[%d] = %d, want %d", i, published[i], w)
		}
	}
	for _, p := range published {
		if p == 90 {
			t.Errorf("published scores %v should never include 90 (locked at 75)", published)
		}
	}
}

func mustScore(data lyricmodel.LyricsData) int {
	v := data.Metadata["score"]
	n := 0
	for _, ch := range v {
		n = n*10 + int(ch-'0')
	}
	return n
}

func TestLoadLocalContentTakesPriority(t *testing.T) {
	agg := &staticAggregator{}
	c := New(newFakeStore(), agg)

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, EmbeddedLyrics: "[00:01.00]Embedded"}
	err := c.Load(context.Background(), song, LoadOptions{LocalLrcContent: "[00:01.00]Local"})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	data := c.CurrentLyrics()
	if data.Metadata["source"] != localSourceName {
		t.Errorf("source = %q, want %q", data.Metadata["source"], localSourceName)
	}
}

func TestLoadEmbeddedUsedWhenNoLocal(t *testing.T) {
	agg := &staticAggregator{}
	c := New(newFakeStore(), agg)

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, EmbeddedLyrics: "[00:01.00]Embedded"}
	if err := c.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	data := c.CurrentLyrics()
	if data.Metadata["source"] != embeddedSourceName {
		t.Errorf("source = %q, want %q", data.Metadata["source"], embeddedSourceName)
	}
}

func TestLoadNoCandidatesReturnsErrNoCandidates(t *testing.T) {
	agg := &staticAggregator{}
	c := New(newFakeStore(), agg)

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}}
	err := c.Load(context.Background(), song, LoadOptions{})
	if !errors.Is(err, lyricerr.ErrNoCandidates) {
		t.Errorf("Load() error = %v, want lyricerr.ErrNoCandidates", err)
	}
}

func TestLoadRejectsMalformedInput(t *testing.T) {
	c := New(newFakeStore(), &staticAggregator{})

	err := c.Load(context.Background(), lyricmodel.SongInformation{}, LoadOptions{})
	if !errors.Is(err, lyricerr.ErrInputMalformed) {
		t.Errorf("Load() error = %v, want lyricerr.ErrInputMalformed", err)
	}
}

func TestLoadThenReloadUsesPersistedSelection(t *testing.T) {
	agg := &staticAggregator{batches: [][]lyricmodel.LyricCandidate{
		{{ID: "p1", Source: "provider", LyricText: "lyrics", Score: 80}},
	}}
	st := newFakeStore()
	c := New(st, agg)

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, PersistenceID: "track-1"}
	if err := c.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}

	c2 := New(st, &staticAggregator{})
	if err := c2.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("second Load() error = %v, want persisted selection replay", err)
	}
	data := c2.CurrentLyrics()
	if data.Metadata["source"] != "provider" {
		t.Errorf("replayed source = %q, want %q", data.Metadata["source"], "provider")
	}
}

func TestSelectPersistsAndRoundTrips(t *testing.T) {
	agg := &staticAggregator{batches: [][]lyricmodel.LyricCandidate{
		{{ID: "a", Source: "A", LyricText: "[00:01.00]A lyrics", Score: 50}},
		{{ID: "b", Source: "B", LyricText: "[00:01.00]B lyrics", Score: 60}},
	}}
	st := newFakeStore()
	c := New(st, agg)

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, PersistenceID: "track-2"}
	if err := c.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	results := c.LastResults()
	idx := -1
	for i, r := range results {
		if r.ID == "a" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("results = %+v, want candidate 'a' present", results)
	}

	if err := c.Select(context.Background(), idx, true); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	c2 := New(st, &staticAggregator{})
	if err := c2.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("reload Load() error = %v", err)
	}
	if c2.CurrentLyrics().Metadata["source"] != "A" {
		t.Errorf("reloaded source = %q, want A (the explicitly selected candidate)", c2.CurrentLyrics().Metadata["source"])
	}
}

func TestSelectInvalidIndexReturnsErrInvalidSelectionIndex(t *testing.T) {
	c := New(newFakeStore(), &staticAggregator{})
	err := c.Select(context.Background(), 0, false)
	if !errors.Is(err, lyricerr.ErrInvalidSelectionIndex) {
		t.Errorf("Select() error = %v, want lyricerr.ErrInvalidSelectionIndex", err)
	}
}

func TestLoadUsesTextCacheAheadOfAggregator(t *testing.T) {
	st := newFakeStore()
	textCache := newFakeStore()
	agg := &staticAggregator{} // would return ErrNoCandidates if consulted

	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, PersistenceID: "track-3"}
	textCache.data["text:track-3"] = "[00:01.00]Cached text"

	c := New(st, agg, WithTextCache(textCache))
	if err := c.Load(context.Background(), song, LoadOptions{}); err != nil {
		t.Fatalf("Load() error = %v, want nil (should have used text cache)", err)
	}
	if c.CurrentLyrics().Metadata["source"] != textCacheSourceName {
		t.Errorf("source = %q, want %q", c.CurrentLyrics().Metadata["source"], textCacheSourceName)
	}
}
