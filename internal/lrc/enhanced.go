package lrc

import (
	"regexp"
	"strings"

	"lyricsync/internal/lyricmodel"
)

var markerRe = regexp.MustCompile(`<(\d{1,2}):(\d{2})(?:\.(\d{2,3}))?>`)

// ParseEnhanced runs ParseStandard, then decorates each resulting line whose
// text carries `<mm:ss.xx>` syllable markers with a Syllable slice and a
// rewritten, marker-free Text. Lines without markers are returned
// unchanged.
func ParseEnhanced(text string) lyricmodel.LyricsData {
	data := ParseStandard(text)
	for i := range data.Lines {
		data.Lines[i] = splitSyllables(data.Lines[i])
	}
	return data
}

func splitSyllables(line lyricmodel.LyricLine) lyricmodel.LyricLine {
	matches := markerRe.FindAllStringSubmatchIndex(line.Text, -1)
	if matches == nil {
		return line
	}

	times := make([]int, 0, len(matches))
	for _, m := range matches {
		ms, ok := parseTimeTag(line.Text, m)
		if !ok {
			return line
		}
		times = append(times, ms)
	}

	texts := make([]string, 0, len(matches))
	for i, m := range matches {
		start := m[1]
		end := len(line.Text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		texts = append(texts, line.Text[start:end])
	}

	syllables := make([]lyricmodel.Syllable, 0, len(times))
	for i, t := range times {
		duration := 0
		if i+1 < len(times) {
			duration = times[i+1] - t
			if duration < 0 {
				duration = 0
			}
		}
		syllables = append(syllables, lyricmodel.Syllable{
			StartTimeMs: t - line.StartTimeMs,
			DurationMs:  duration,
			Text:        texts[i],
		})
	}

	line.Syllables = syllables
	line.Text = strings.Join(texts, "")
	return line
}
