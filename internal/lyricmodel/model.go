// Package lyricmodel holds the plain data types shared by every other
// package in lyricsync: the song descriptor consumed by the resolver and
// providers, the candidates providers and the scorer exchange, and the
// parsed lyric structure the synchronizer walks.
package lyricmodel

// SongAliases holds the alternate titles/artists the query resolver and
// aggregator discover for a SongInformation, used by the scorer's alias
// enumeration.
type SongAliases struct {
	Titles  []string
	Artists []string
}

// SongInformation describes the track a caller wants lyrics for.
type SongInformation struct {
	Title           string
	Artists         []string
	Album           string
	DurationMs      int
	SourceID        string
	PersistenceID   string
	ISRC            string
	EmbeddedLyrics  string
	SearchAliases   SongAliases
}

// PrimaryArtist returns the first artist, or "" if none are set.
func (s SongInformation) PrimaryArtist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0]
}

// LyricCandidate is one scored result for one track from one provider (or a
// synthetic local/embedded source).
type LyricCandidate struct {
	ID         string
	Source     string
	LyricText  string
	Title      string
	Artist     string
	Album      string
	DurationMs int
	Score      int
}

// Valid reports whether the candidate satisfies the invariant that a
// candidate with empty lyric text must never be emitted by a provider.
func (c LyricCandidate) Valid() bool {
	return c.LyricText != ""
}

// Syllable is one per-word span inside an enhanced-LRC line, with its start
// time relative to the owning line's start time.
type Syllable struct {
	StartTimeMs int
	DurationMs  int
	Text        string
}

// LyricLine is one timestamped line of lyrics, optionally split into
// syllables and tagged with a layer (0 = primary, 1 = translation, 2 =
// romanization, ...).
type LyricLine struct {
	StartTimeMs int
	Text        string
	Syllables   []Syllable
	Layer       int
}

// LyricsData is the parsed output of the standard/enhanced LRC parser:
// lines sorted non-decreasingly by start time, plus any `[key:value]`
// metadata tags the source carried.
type LyricsData struct {
	Lines    []LyricLine
	Metadata map[string]string
}

// PersistenceRecord is what the selection controller persists per track:
// the candidates last seen and which one (if any) was selected.
type PersistenceRecord struct {
	Results    []LyricCandidate
	SelectedID string
	HasSelection bool
}
