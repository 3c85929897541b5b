// Package lrc implements the standard and enhanced LRC parsers (C3/C4):
// standard parsing is a callable producing LyricsData; enhanced parsing is a
// decorator over it, not a separate inheritance hierarchy.
package lrc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lyricsync/internal/lyricmodel"
)

var (
	metadataLineRe = regexp.MustCompile(`^\[([A-Za-z]+):(.*)\]$`)
	timeTagRe      = regexp.MustCompile(`\[(\d{1,2}):(\d{2})(?:\.(\d{2,3}))?\]`)
)

type timedEntry struct {
	startMs int
	text    string
}

// ParseStandard parses standard LRC text (`[mm:ss.xx]Text` lines plus
// `[key:value]` metadata tags) into a LyricsData. It never returns an
// error: malformed lines are skipped silently (InputMalformed, recovered
// locally), and input with no timestamps yields an empty line list plus
// whatever metadata could be extracted.
func ParseStandard(text string) lyricmodel.LyricsData {
	metadata := make(map[string]string)
	var entries []timedEntry

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := metadataLineRe.FindStringSubmatch(line); m != nil {
			metadata[m[1]] = m[2]
			continue
		}

		matches := timeTagRe.FindAllStringSubmatchIndex(line, -1)
		if matches == nil {
			continue
		}

		lineText := stripTimeTags(line, matches)
		for _, m := range matches {
			ms, ok := parseTimeTag(line, m)
			if !ok {
				continue
			}
			entries = append(entries, timedEntry{startMs: ms, text: lineText})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].startMs < entries[j].startMs })

	lines := make([]lyricmodel.LyricLine, 0, len(entries))
	groupStart := 0
	lastLayer := 0
	for i, e := range entries {
		layer := 0
		if i > 0 {
			if e.startMs-groupStart <= 1 && e.startMs-groupStart >= -1 {
				layer = lastLayer + 1
			} else {
				groupStart = e.startMs
				layer = 0
			}
		} else {
			groupStart = e.startMs
		}
		lastLayer = layer
		lines = append(lines, lyricmodel.LyricLine{
			StartTimeMs: e.startMs,
			Text:        e.text,
			Layer:       layer,
		})
	}

	return lyricmodel.LyricsData{Lines: lines, Metadata: metadata}
}

func splitLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}

// stripTimeTags removes every matched `[mm:ss.xx]` span from line, returning
// the trimmed remainder.
func stripTimeTags(line string, matches [][]int) string {
	var b strings.Builder
	prev := 0
	for _, m := range matches {
		b.WriteString(line[prev:m[0]])
		prev = m[1]
	}
	b.WriteString(line[prev:])
	return strings.TrimSpace(b.String())
}

// parseTimeTag converts one timeTagRe submatch (indices into line) to
// absolute milliseconds.
func parseTimeTag(line string, m []int) (int, bool) {
	min, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil {
		return 0, false
	}
	sec, err := strconv.Atoi(line[m[4]:m[5]])
	if err != nil {
		return 0, false
	}

	ms := 0
	if m[6] != -1 {
		fracStr := line[m[6]:m[7]]
		frac, err := strconv.Atoi(fracStr)
		if err != nil {
			return 0, false
		}
		switch len(fracStr) {
		case 2:
			ms = frac * 10
		case 3:
			ms = frac
		default:
			return 0, false
		}
	}

	return min*60*1000 + sec*1000 + ms, true
}
