// Package identify turns an arbitrary "now playing" string (as reported
// by a desktop media player) into structured SongInformation. A cheap
// local split handles the common "Artist - Title" shape; an LLM is only
// consulted when that heuristic fails and an LLM is configured, avoiding the
// teacher's behavior of calling the model on every lookup.
package identify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/lyricmodel"
)

// separatorRe matches the common "Artist - Title" / "Artist – Title"
// media-player title shape.
var separatorRe = regexp.MustCompile(`^\s*(.+?)\s*[-–]\s*(.+?)\s*$`)

// llmExtraction is the JSON shape the LLM prompt asks for.
type llmExtraction struct {
	IsSong bool   `json:"is_song"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Extractor resolves a raw "now playing" identifier into SongInformation,
// falling back to an LLM client when configured and the local heuristic
// is unavailable.
type Extractor struct {
	client     llmClient
	llmEnabled bool
	maxRetries int
	retryDelay time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLLM enables the LLM fallback path using client.
func WithLLM(client llmClient) Option {
	return func(e *Extractor) {
		e.client = client
		e.llmEnabled = client != nil
	}
}

// New builds an Extractor. Without WithLLM, Extract only ever uses the
// local heuristic and reports false when it cannot parse raw.
func New(opts ...Option) *Extractor {
	e := &Extractor{maxRetries: 3, retryDelay: time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract resolves raw into a SongInformation. ok is false when raw
// could not be identified as a song at all (neither heuristic nor LLM
// produced a usable title).
func (e *Extractor) Extract(ctx context.Context, raw string) (lyricmodel.SongInformation, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return lyricmodel.SongInformation{}, false, nil
	}

	if song, ok := splitHeuristic(raw); ok {
		return song, true, nil
	}

	if !e.llmEnabled {
		return lyricmodel.SongInformation{}, false, nil
	}
	return e.extractWithLLM(ctx, raw)
}

// splitHeuristic recognizes "Artist - Title" without calling the LLM.
func splitHeuristic(raw string) (lyricmodel.SongInformation, bool) {
	m := separatorRe.FindStringSubmatch(raw)
	if m == nil || m[1] == "" || m[2] == "" {
		return lyricmodel.SongInformation{}, false
	}
	return lyricmodel.SongInformation{Title: m[2], Artists: []string{m[1]}}, true
}

func (e *Extractor) extractWithLLM(ctx context.Context, raw string) (lyricmodel.SongInformation, bool, error) {
	prompt := formatPrompt(raw)

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return lyricmodel.SongInformation{}, false, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}

		raw, err := e.client.CompleteText(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("identify: LLM call failed")
			continue
		}

		var extraction llmExtraction
		if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("identify: malformed LLM response")
			continue
		}
		if !extraction.IsSong {
			return lyricmodel.SongInformation{}, false, nil
		}
		return lyricmodel.SongInformation{Title: extraction.Title, Artists: []string{extraction.Artist}}, true, nil
	}
	return lyricmodel.SongInformation{}, false, fmt.Errorf("identify: LLM extraction failed after %d attempts: %w", e.maxRetries, lastErr)
}

func formatPrompt(raw string) string {
	return fmt.Sprintf(`Extract song information and respond with exactly this JSON shape: {"is_song": true, "title": "<title>", "artist": "<artist>"}. The input is a media title; if it names a song, return that JSON, otherwise return {"is_song": false}. Do not wrap the response in markdown. Input: %s`, raw)
}
