// Package lyricerr defines the sentinel error kinds shared across the
// lyric lookup and synchronization pipeline. Components compare against
// these with errors.Is rather than inventing ad hoc string checks.
package lyricerr

import "errors"

var (
	// ErrInputMalformed is returned when caller-supplied song information
	// is missing fields required to proceed (e.g. no title and no ISRC).
	ErrInputMalformed = errors.New("lyricsync: input malformed")

	// ErrProviderUnavailable is returned when a lyric provider could not be
	// reached or returned a response that could not be parsed.
	ErrProviderUnavailable = errors.New("lyricsync: provider unavailable")

	// ErrRegistryUnavailable is returned when the external recording
	// registry (ISRC lookup) could not be reached.
	ErrRegistryUnavailable = errors.New("lyricsync: registry unavailable")

	// ErrPersistenceUnavailable is returned when the backing store could
	// not be read from or written to.
	ErrPersistenceUnavailable = errors.New("lyricsync: persistence unavailable")

	// ErrNoCandidates is returned when no provider produced a usable lyric
	// candidate for a query.
	ErrNoCandidates = errors.New("lyricsync: no candidates found")

	// ErrInvalidSelectionIndex is returned when Select is called with an
	// index outside the current candidate list.
	ErrInvalidSelectionIndex = errors.New("lyricsync: invalid selection index")

	// ErrStaleRequest is returned when a request's generation token no
	// longer matches the controller's current generation, meaning a newer
	// request superseded it.
	ErrStaleRequest = errors.New("lyricsync: stale request")
)
