// Package lrclib adapts the LRCLIB search endpoint to the
// providers.Provider contract.
package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/lyricerr"
	"lyricsync/internal/lyricmodel"
)

type searchResult struct {
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	Duration     int    `json:"duration"` // seconds
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Client queries the public LRCLIB search endpoint. LRCLIB has no
// separate search-then-fetch step: one request returns full lyric text.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds an LRCLIB provider with a 5s request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    "https://lrclib.net/api",
	}
}

// Name identifies this provider in LyricCandidate.Source.
func (c *Client) Name() string { return "lrclib" }

// Search finds up to limit lyric candidates for song on LRCLIB.
func (c *Client) Search(ctx context.Context, song lyricmodel.SongInformation, limit int) []lyricmodel.LyricCandidate {
	results, err := c.search(ctx, song.Title, song.PrimaryArtist())
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrProviderUnavailable, err)).Str("provider", c.Name()).Msg("search failed")
		return []lyricmodel.LyricCandidate{}
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]lyricmodel.LyricCandidate, 0, len(results))
	for i, r := range results {
		if r.Instrumental {
			continue
		}
		lyric := r.SyncedLyrics
		if lyric == "" {
			lyric = r.PlainLyrics
		}
		if lyric == "" {
			continue
		}
		candidates = append(candidates, lyricmodel.LyricCandidate{
			ID:         fmt.Sprintf("lrclib:%s:%d", r.TrackName, i),
			Source:     c.Name(),
			LyricText:  lyric,
			Title:      r.TrackName,
			Artist:     r.ArtistName,
			Album:      r.AlbumName,
			DurationMs: r.Duration * 1000,
		})
	}
	return candidates
}

func (c *Client) search(ctx context.Context, title, artist string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", "lyricsync/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return results, nil
}
