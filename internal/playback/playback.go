// Package playback implements the Synchronizer: mapping a playback
// position in milliseconds to a lyric line index and intra-line
// progress fraction.
package playback

import (
	"lyricsync/internal/lyricmodel"
)

// defaultLineDurationMs is the fallback duration assumed for a line with
// no following line and no syllable timing to bound it.
const defaultLineDurationMs = 5000

// FindLineIndex returns the largest index i such that
// lines[i].StartTimeMs <= timeMs, or -1 if no such line exists. lines
// must be sorted non-decreasingly by StartTimeMs. Runs in O(log N).
func FindLineIndex(lines []lyricmodel.LyricLine, timeMs int) int {
	lo, hi := 0, len(lines)-1
	result := -1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if lines[mid].StartTimeMs <= timeMs {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// LineProgress returns the fraction, clamped to [0,1], of line that has
// elapsed by timeMs. next is the line immediately following line, or nil
// if line is the last one.
func LineProgress(line lyricmodel.LyricLine, next *lyricmodel.LyricLine, timeMs int) float64 {
	end := lineEnd(line, next)

	if end <= line.StartTimeMs {
		return 1.0
	}

	frac := float64(timeMs-line.StartTimeMs) / float64(end-line.StartTimeMs)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

func lineEnd(line lyricmodel.LyricLine, next *lyricmodel.LyricLine) int {
	if next != nil {
		return next.StartTimeMs
	}
	if len(line.Syllables) > 0 {
		last := line.Syllables[len(line.Syllables)-1]
		return line.StartTimeMs + last.StartTimeMs + last.DurationMs
	}
	return line.StartTimeMs + defaultLineDurationMs
}
