// Package netease adapts the NetEase Cloud Music search and lyric
// endpoints to the providers.Provider contract.
package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/lyricerr"
	"lyricsync/internal/lyricmodel"
)

type searchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs []songResult `json:"songs"`
	} `json:"result"`
}

type songResult struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"ar"`
	Album struct {
		Name string `json:"name"`
	} `json:"al"`
	DurationMs int `json:"dt"`
}

type lyricResponse struct {
	Code int `json:"code"`
	Lrc  struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

// Client queries NetEase Cloud Music's public web API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
}

// NewClient builds a NetEase provider. cookie is the session cookie some
// lyric lookups require; if empty it falls back to the NETEASE_COOKIE
// environment variable, matching the teacher's deployment convention.
func NewClient(cookie string) *Client {
	if cookie == "" {
		cookie = os.Getenv("NETEASE_COOKIE")
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    "https://music.163.com",
		cookie:     cookie,
	}
}

// Name identifies this provider in LyricCandidate.Source.
func (c *Client) Name() string { return "netease" }

// Search finds up to limit lyric candidates for song on NetEase.
func (c *Client) Search(ctx context.Context, song lyricmodel.SongInformation, limit int) []lyricmodel.LyricCandidate {
	songs, err := c.searchSongs(ctx, song.Title, limit)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrProviderUnavailable, err)).Str("provider", c.Name()).Msg("search failed")
		return []lyricmodel.LyricCandidate{}
	}

	candidates := make([]lyricmodel.LyricCandidate, 0, len(songs))
	for _, s := range songs {
		lyric, err := c.fetchLyric(ctx, s.ID)
		if err != nil || lyric == "" {
			continue
		}
		artist := ""
		if len(s.Artists) > 0 {
			artist = s.Artists[0].Name
		}
		candidates = append(candidates, lyricmodel.LyricCandidate{
			ID:         fmt.Sprintf("netease:%d", s.ID),
			Source:     c.Name(),
			LyricText:  lyric,
			Title:      s.Name,
			Artist:     artist,
			Album:      s.Album.Name,
			DurationMs: s.DurationMs,
		})
	}
	return candidates
}

func (c *Client) searchSongs(ctx context.Context, keyword string, limit int) ([]songResult, error) {
	reqURL := fmt.Sprintf("%s/api/cloudsearch/pc?s=%s&type=1&offset=0&limit=%d", c.baseURL, url.QueryEscape(keyword), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Result.Songs, nil
}

func (c *Client) fetchLyric(ctx context.Context, songID int) (string, error) {
	reqURL := fmt.Sprintf("%s/api/song/lyric?id=%s&lv=-1&kv=-1&tv=-1", c.baseURL, strconv.Itoa(songID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build lyric request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lyric request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lyric status %d", resp.StatusCode)
	}

	var parsed lyricResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode lyric response: %w", err)
	}
	return strings.TrimSpace(parsed.Lrc.Lyric), nil
}
