package scorer

import "testing"

import "lyricsync/internal/lyricmodel"

func TestScorePerfectMatch(t *testing.T) {
	target := lyricmodel.SongInformation{
		Title:      "Test Song",
		Artists:    []string{"Test Artist"},
		Album:      "Test Album",
		DurationMs: 200000,
	}
	candidate := lyricmodel.LyricCandidate{
		Title:      "Test Song",
		Artist:     "Test Artist",
		Album:      "Test Album",
		DurationMs: 200000,
		LyricText:  "x",
	}

	if got := Score(target, candidate); got != 100 {
		t.Errorf("Score() = %d, want 100", got)
	}

	candidate.DurationMs = 205000
	if got := Score(target, candidate); got != 94 {
		t.Errorf("Score() with duration 205000 = %d, want 94", got)
	}

	candidate.DurationMs = 225000
	if got := Score(target, candidate); got != 80 {
		t.Errorf("Score() with duration 225000 = %d, want 80", got)
	}
}

func TestScoreMonotonicOnDurationProximity(t *testing.T) {
	target := lyricmodel.SongInformation{Title: "A", Artists: []string{"B"}, DurationMs: 100000}
	near := lyricmodel.LyricCandidate{Title: "A", Artist: "B", DurationMs: 100500, LyricText: "x"}
	far := lyricmodel.LyricCandidate{Title: "A", Artist: "B", DurationMs: 125000, LyricText: "x"}

	if Score(target, near) < Score(target, far) {
		t.Errorf("closer duration should not score lower: near=%d far=%d", Score(target, near), Score(target, far))
	}
}

func TestArtistScoreInclusion(t *testing.T) {
	got := artistScore([]string{"Beyonce"}, "Beyonce feat. Jay-Z")
	if got != 1.0 {
		t.Errorf("artistScore inclusion = %v, want 1.0", got)
	}
}

func TestArtistScoreDisjoint(t *testing.T) {
	got := artistScore([]string{"Completely Different Band"}, "Someone Else")
	if got >= 0.5 {
		t.Errorf("artistScore for disjoint names = %v, want < 0.5", got)
	}
}

func TestScoreUsesAliases(t *testing.T) {
	target := lyricmodel.SongInformation{
		Title:   "Original Title",
		Artists: []string{"Original Artist"},
		SearchAliases: lyricmodel.SongAliases{
			Titles: []string{"Alias Title"},
		},
	}
	candidate := lyricmodel.LyricCandidate{
		Title:     "Alias Title",
		Artist:    "Original Artist",
		LyricText: "x",
	}

	primaryOnly := Score(lyricmodel.SongInformation{Title: target.Title, Artists: target.Artists}, candidate)
	withAlias := Score(target, candidate)

	if withAlias <= primaryOnly {
		t.Errorf("alias match should score higher: withAlias=%d primaryOnly=%d", withAlias, primaryOnly)
	}
}
