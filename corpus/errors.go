package corpus

import "errors"

// Error kinds surfaced across the builder boundary. Everything a caller can
// see wraps exactly one of these; branch with errors.Is.
var (
	// ErrAuth means the Genius API rejected the access token. Never retried.
	ErrAuth = errors.New("access token rejected")

	// ErrNotFound means the artist (or a single song page) does not exist on
	// Genius. Fatal for artist resolution, recorded-as-empty for one song.
	ErrNotFound = errors.New("not found")

	// ErrTransient covers network failures, 5xx responses, timeouts and
	// malformed payloads. Retried locally with bounded attempts.
	ErrTransient = errors.New("transient remote failure")

	// ErrCacheCorrupt means a cache entry exists on disk but cannot be read
	// back as a valid corpus. Deleting the entry and re-running recovers.
	ErrCacheCorrupt = errors.New("cache entry corrupt")
)
