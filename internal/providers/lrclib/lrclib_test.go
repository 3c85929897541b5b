package lrclib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lyricsync/internal/lyricmodel"
)

func TestSearchPrefersSyncedOverPlainLyrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"trackName":"Test Song","artistName":"Test Artist","albumName":"Test Album","duration":200,"syncedLyrics":"[00:01.00]Hello","plainLyrics":"Hello"}]`))
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	got := client.Search(context.Background(), lyricmodel.SongInformation{Title: "Test Song", Artists: []string{"Test Artist"}}, 5)

	if len(got) != 1 || got[0].LyricText != "[00:01.00]Hello" {
		t.Fatalf("Search() = %+v, want synced lyrics", got)
	}
	if got[0].DurationMs != 200000 {
		t.Errorf("DurationMs = %d, want 200000", got[0].DurationMs)
	}
}

func TestSearchFallsBackToPlainLyrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"trackName":"Test Song","artistName":"Test Artist","plainLyrics":"Hello there"}]`))
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	got := client.Search(context.Background(), lyricmodel.SongInformation{Title: "Test Song"}, 5)

	if len(got) != 1 || got[0].LyricText != "Hello there" {
		t.Fatalf("Search() = %+v, want plain lyrics fallback", got)
	}
}

func TestSearchSkipsInstrumentalResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"trackName":"Instrumental","instrumental":true,"plainLyrics":"should not appear"}]`))
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	got := client.Search(context.Background(), lyricmodel.SongInformation{Title: "Instrumental"}, 5)

	if len(got) != 0 {
		t.Errorf("Search() = %+v, want instrumental results skipped", got)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"trackName":"A","plainLyrics":"x"},{"trackName":"B","plainLyrics":"y"},{"trackName":"C","plainLyrics":"z"}]`))
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	got := client.Search(context.Background(), lyricmodel.SongInformation{Title: "A"}, 2)

	if len(got) != 2 {
		t.Errorf("Search() returned %d candidates, want 2 (limit)", len(got))
	}
}
