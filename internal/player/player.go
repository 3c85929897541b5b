// Package player polls the desktop media player (via playerctl) for the
// currently playing track and its position.
package player

import (
	"os/exec"
	"strconv"
	"strings"

	"lyricsync/internal/lyricmodel"
)

// GetCurrentSong returns the playing track as SongInformation, parsed
// from playerctl's artist/title/album/length metadata fields.
func GetCurrentSong() (lyricmodel.SongInformation, error) {
	format := `{{artist}}|{{title}}|{{album}}|{{mpris:length}}`
	out, err := exec.Command("playerctl", "metadata", "--format", format).Output()
	if err != nil {
		return lyricmodel.SongInformation{}, err
	}

	fields := strings.SplitN(strings.TrimSpace(string(out)), "|", 4)
	for len(fields) < 4 {
		fields = append(fields, "")
	}

	durationMs := 0
	if microseconds, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
		durationMs = int(microseconds / 1000)
	}

	return lyricmodel.SongInformation{
		Title:      fields[1],
		Artists:    []string{fields[0]},
		Album:      fields[2],
		DurationMs: durationMs,
	}, nil
}

// GetCurrentPositionMs returns the player's current playback position.
func GetCurrentPositionMs() int {
	out, err := exec.Command("playerctl", "position").Output()
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return int(seconds * 1000)
}
