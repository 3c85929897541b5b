package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		userAgent:  UserAgent,
		limiter:    time.NewTicker(time.Millisecond),
	}
}

func TestLookupISRCParsesArtistCredit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recordings":[{"title":"A Song","artist-credit":[{"name":"An Artist","artist":{"name":"An Artist (official)"}}]}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	defer client.Close()

	recordings, err := client.LookupISRC(context.Background(), "USRC17607839")
	if err != nil {
		t.Fatalf("LookupISRC() error = %v", err)
	}
	if len(recordings) != 1 {
		t.Fatalf("recordings = %+v, want 1 entry", recordings)
	}
	if recordings[0].Title != "A Song" || recordings[0].PrimaryArtistName != "An Artist" {
		t.Errorf("recordings[0] = %+v, want {A Song, An Artist}", recordings[0])
	}
}

func TestLookupISRCFallsBackToArtistNameWhenCreditNameEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recordings":[{"title":"A Song","artist-credit":[{"name":"","artist":{"name":"Fallback Name"}}]}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	defer client.Close()

	recordings, err := client.LookupISRC(context.Background(), "USRC17607839")
	if err != nil {
		t.Fatalf("LookupISRC() error = %v", err)
	}
	if len(recordings) != 1 || recordings[0].PrimaryArtistName != "Fallback Name" {
		t.Errorf("recordings = %+v, want PrimaryArtistName = Fallback Name", recordings)
	}
}

func TestLookupISRCRejectsEmptyISRC(t *testing.T) {
	client := newTestClient(httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	defer client.Close()

	if _, err := client.LookupISRC(context.Background(), ""); err == nil {
		t.Error("LookupISRC(\"\") error = nil, want error")
	}
}

func TestLookupISRCPropagatesHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server)
	defer client.Close()

	if _, err := client.LookupISRC(context.Background(), "USRC17607839"); err == nil {
		t.Error("LookupISRC() error = nil, want error on 503")
	}
}

func TestLookupISRCNoMatchesReturnsEmptyNoError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recordings":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	defer client.Close()

	recordings, err := client.LookupISRC(context.Background(), "USRC17607839")
	if err != nil {
		t.Fatalf("LookupISRC() error = %v", err)
	}
	if len(recordings) != 0 {
		t.Errorf("recordings = %+v, want empty", recordings)
	}
}
