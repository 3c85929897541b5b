// Package registry talks to an external recording registry that maps an
// ISRC to the titles and primary artists it has been released under. The
// public MusicBrainz recording-search endpoint is the conforming
// implementation used here.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// BaseURL is the MusicBrainz web service root.
	BaseURL = "https://musicbrainz.org/ws/2"

	// UserAgent identifies this application, as MusicBrainz requires.
	UserAgent = "lyricsync/1.0.0 (+https://example.invalid/lyricsync)"

	// RateLimit is the minimum spacing between requests MusicBrainz allows.
	RateLimit = 1 * time.Second
)

// Recording is one title/artist pairing a recording has been released
// under.
type Recording struct {
	Title             string
	PrimaryArtistName string
}

// Client queries the recording registry over HTTP, honoring its rate
// limit.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *time.Ticker
}

// NewClient builds a registry client with the default MusicBrainz
// endpoint and a 30s request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		userAgent:  UserAgent,
		limiter:    time.NewTicker(RateLimit),
	}
}

// Close stops the internal rate limiter.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Stop()
	}
}

type searchResponse struct {
	Recordings []struct {
		Title        string `json:"title"`
		ArtistCredit []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"artist-credit"`
	} `json:"recordings"`
}

// LookupISRC returns every {title, primaryArtistName} pair the registry
// has on file for isrc. An empty, non-error result means "registry
// reachable, nothing found".
func (c *Client) LookupISRC(ctx context.Context, isrc string) ([]Recording, error) {
	if isrc == "" {
		return nil, fmt.Errorf("registry: isrc must not be empty")
	}

	<-c.limiter.C

	query := url.QueryEscape(fmt.Sprintf("isrc:%s", isrc))
	reqURL := fmt.Sprintf("%s/recording?query=%s&fmt=json", c.baseURL, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("registry: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("registry: decode response: %w", err)
	}

	recordings := make([]Recording, 0, len(parsed.Recordings))
	for _, r := range parsed.Recordings {
		artist := ""
		if len(r.ArtistCredit) > 0 {
			artist = r.ArtistCredit[0].Name
			if artist == "" {
				artist = r.ArtistCredit[0].Artist.Name
			}
		}
		recordings = append(recordings, Recording{Title: r.Title, PrimaryArtistName: artist})
	}

	log.Debug().Str("isrc", isrc).Int("count", len(recordings)).Msg("registry lookup complete")
	return recordings, nil
}
