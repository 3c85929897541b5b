// Package qqmusic adapts the QQ Music search and lyric endpoints to the
// providers.Provider contract. The teacher's client left these two calls
// as TODO stubs; this fills in the documented wire shape.
package qqmusic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/lyricerr"
	"lyricsync/internal/lyricmodel"
)

type searchResponse struct {
	Data struct {
		Song struct {
			List []songResult `json:"list"`
		} `json:"song"`
	} `json:"data"`
}

type songResult struct {
	SongMID string `json:"songmid"`
	SongName string `json:"songname"`
	Singer  []struct {
		Name string `json:"name"`
	} `json:"singer"`
	AlbumName string `json:"albumname"`
	Interval  int    `json:"interval"` // seconds
}

// Client queries QQ Music's public search and lyric endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
}

// NewClient builds a QQ Music provider. cookie is the session cookie
// some lyric lookups require; if empty it falls back to the
// QQMUSIC_COOKIE environment variable, matching the teacher's convention.
func NewClient(cookie string) *Client {
	if cookie == "" {
		cookie = os.Getenv("QQMUSIC_COOKIE")
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    "https://c.y.qq.com",
		cookie:     cookie,
	}
}

// Name identifies this provider in LyricCandidate.Source.
func (c *Client) Name() string { return "qqmusic" }

// Search finds up to limit lyric candidates for song on QQ Music.
func (c *Client) Search(ctx context.Context, song lyricmodel.SongInformation, limit int) []lyricmodel.LyricCandidate {
	songs, err := c.searchSongs(ctx, song.Title, limit)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", lyricerr.ErrProviderUnavailable, err)).Str("provider", c.Name()).Msg("search failed")
		return []lyricmodel.LyricCandidate{}
	}

	candidates := make([]lyricmodel.LyricCandidate, 0, len(songs))
	for _, s := range songs {
		lyric, err := c.fetchLyric(ctx, s.SongMID)
		if err != nil || lyric == "" {
			continue
		}
		artist := ""
		if len(s.Singer) > 0 {
			artist = s.Singer[0].Name
		}
		candidates = append(candidates, lyricmodel.LyricCandidate{
			ID:         fmt.Sprintf("qqmusic:%s", s.SongMID),
			Source:     c.Name(),
			LyricText:  lyric,
			Title:      s.SongName,
			Artist:     artist,
			Album:      s.AlbumName,
			DurationMs: s.Interval * 1000,
		})
	}
	return candidates
}

func (c *Client) searchSongs(ctx context.Context, keyword string, limit int) ([]songResult, error) {
	reqURL := fmt.Sprintf("%s/soso/fcgi-bin/client_search_cp?w=%s&n=%d&format=json", c.baseURL, url.QueryEscape(keyword), limit)

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
	return parsed.Data.Song.List, nil
}

// fcg_query_lyric_new.fcg wraps its payload in a JSONP callback, e.g.
// MusicJsonCallback({"lyric":"<base64>"}). fetchLyric strips the wrapper
// before decoding.
func (c *Client) fetchLyric(ctx context.Context, songMID string) (string, error) {
	reqURL := fmt.Sprintf("%s/lyric/fcgi-bin/fcg_query_lyric_new.fcg?songmid=%s&format=json&g_tk=5381", c.baseURL, url.QueryEscape(songMID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build lyric request: %w", err)
	}
	req.Header.Set("Referer", "https://y.qq.com")
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

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read lyric response: %w", err)
	}

	payload := stripJSONP(string(raw))

	var parsed struct {
		Lyric string `json:"lyric"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return "", fmt.Errorf("decode lyric response: %w", err)
	}
	if parsed.Lyric == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(parsed.Lyric)
	if err != nil {
		return "", fmt.Errorf("decode base64 lyric: %w", err)
	}
	return string(decoded), nil
}

func stripJSONP(body string) string {
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < 0 || end < start {
		return body
	}
	return body[start : end+1]
}
