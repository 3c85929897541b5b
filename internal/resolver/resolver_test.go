package resolver

import (
	"context"
	"sync/atomic"
	"testing"

	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/registry"
)

type fakeRegistry struct {
	calls      int32
	recordings []registry.Recording
	err        error
}

func (f *fakeRegistry) LookupISRC(ctx context.Context, isrc string) ([]registry.Recording, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.recordings, nil
}

func TestResolveNoISRCReturnsFallback(t *testing.T) {
	r := New(&fakeRegistry{})
	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}}

	got := r.Resolve(context.Background(), song)
	if len(got) != 1 || got[0] != (QueryPair{Title: "Song", Artist: "Artist"}) {
		t.Fatalf("Resolve() = %+v", got)
	}
}

func TestResolveDeduplicates(t *testing.T) {
	reg := &fakeRegistry{recordings: []registry.Recording{
		{Title: "Song", PrimaryArtistName: "Artist"},
		{Title: "Song", PrimaryArtistName: "Artist"},
	}}
	r := New(reg)
	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, ISRC: "US1234567890"}

	got := r.Resolve(context.Background(), song)
	if len(got) != 1 {
		t.Fatalf("Resolve() = %+v, want 1 deduped pair", got)
	}
}

func TestResolveLanguagePriority(t *testing.T) {
	reg := &fakeRegistry{recordings: []registry.Recording{
		{Title: "English Title", PrimaryArtistName: "Artist"},
		{Title: "中文标题", PrimaryArtistName: "Artist"},
	}}
	r := New(reg)
	song := lyricmodel.SongInformation{Title: "中文标题", Artists: []string{"Artist"}, ISRC: "US1234567890"}

	got := r.Resolve(context.Background(), song)
	if got[0].Title != "中文标题" {
		t.Fatalf("expected CJK-dominant title first, got %+v", got)
	}
}

func TestResolveOverrideDetectionPrependsFallback(t *testing.T) {
	reg := &fakeRegistry{recordings: []registry.Recording{
		{Title: "Original Title", PrimaryArtistName: "X"},
	}}
	r := New(reg)
	song := lyricmodel.SongInformation{Title: "Completely Different", Artists: []string{"Y"}, ISRC: "US1234567890"}

	got := r.Resolve(context.Background(), song)
	if len(got) != 2 || got[0].Title != "Completely Different" {
		t.Fatalf("Resolve() = %+v, want fallback prepended", got)
	}
}

func TestResolveRegistryErrorFallsBackWithoutPanicking(t *testing.T) {
	reg := &fakeRegistry{err: context.DeadlineExceeded}
	r := New(reg)
	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, ISRC: "US1234567890"}

	got := r.Resolve(context.Background(), song)
	if len(got) != 1 || got[0] != (QueryPair{Title: "Song", Artist: "Artist"}) {
		t.Fatalf("Resolve() = %+v, want single fallback pair", got)
	}
}

func TestResolveCoalescesConcurrentCalls(t *testing.T) {
	reg := &fakeRegistry{recordings: []registry.Recording{{Title: "Song", PrimaryArtistName: "Artist"}}}
	r := New(reg)
	song := lyricmodel.SongInformation{Title: "Song", Artists: []string{"Artist"}, ISRC: "US1234567890"}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			r.Resolve(context.Background(), song)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if atomic.LoadInt32(&reg.calls) != 1 {
		t.Errorf("registry called %d times, want 1 (coalesced + cached)", reg.calls)
	}
}
