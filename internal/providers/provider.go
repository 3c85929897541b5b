// Package providers defines the common contract lyric providers satisfy.
// Concrete providers live in subpackages (netease, qqmusic, lrclib); the
// aggregator fans out to whichever are configured.
package providers

import (
	"context"

	"lyricsync/internal/lyricmodel"
)

// Provider searches one remote lyric source. Implementations must never
// let an error escape Search: network or parse failures downgrade to an
// empty, non-nil slice.
type Provider interface {
	Name() string
	Search(ctx context.Context, song lyricmodel.SongInformation, limit int) []lyricmodel.LyricCandidate
}
