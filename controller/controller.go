package controller

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"lyricist/builder"
	"lyricist/cache"
	"lyricist/corpus"
	"lyricist/history"
	"lyricist/search"
)

// Controller composes the corpus builder and the search engine behind the
// one operation callers care about: "which songs by this artist contain
// these lyrics?". The history store is optional; when present every build
// and search is recorded for diagnostics.
type Controller struct {
	builder *builder.Builder
	store   *cache.Store
	history *history.Store
}

func New(b *builder.Builder, store *cache.Store, h *history.Store) *Controller {
	return &Controller{
		builder: b,
		store:   store,
		history: h,
	}
}

// FindLyric builds (or loads) the artist's corpus and returns the songs
// whose lyrics contain the queries, in catalog order. With matchAll false a
// song matches any query, with matchAll true it must contain all of them.
func (c *Controller) FindLyric(ctx context.Context, artistName string, queries []string, matchAll bool) ([]corpus.Song, error) {
	corp, stats, err := c.builder.Build(ctx, artistName)
	if err != nil {
		return nil, err
	}

	if stats.FromCache {
		log.Debugf("Using cached corpus for %q (%d songs)", artistName, stats.SongCount)
	}
	c.recordFetch(stats)

	matches := search.FindAll(corp, queries, matchAll)
	c.recordSearch(artistName, queries, len(matches))

	return matches, nil
}

// Invalidate removes the artist's cache entry so the next search re-fetches.
func (c *Controller) Invalidate(artistName string) error {
	return c.store.Delete(artistName)
}

func (c *Controller) recordFetch(stats *builder.Stats) {
	if c.history == nil {
		return
	}
	err := c.history.RecordFetch(stats.ArtistName, stats.ArtistID, stats.SongCount,
		stats.FailedSongs, stats.FromCache, stats.Duration)
	if err != nil {
		log.Warnf("Failed to record fetch in history: %v", err)
	}
}

func (c *Controller) recordSearch(artistName string, queries []string, matchCount int) {
	if c.history == nil {
		return
	}
	if err := c.history.RecordSearch(artistName, strings.Join(queries, " | "), matchCount); err != nil {
		log.Warnf("Failed to record search in history: %v", err)
	}
}
