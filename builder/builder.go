package builder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"lyricist/cache"
	"lyricist/corpus"
	"lyricist/genius"
	"lyricist/lyrics"
)

// Stats summarizes one corpus build for diagnostics.
type Stats struct {
	ArtistID    int64
	ArtistName  string
	SongCount   int
	FailedSongs int
	FromCache   bool
	Duration    time.Duration
}

// Builder drives the fetch-once, reuse-forever policy: on a cache hit it
// loads the stored corpus, on a miss it resolves the artist, lists the full
// catalog, fetches and normalizes every lyric page, and commits the result
// as one atomic cache entry.
type Builder struct {
	client *genius.Client
	store  *cache.Store

	Concurrency int
	Retries     int
	Backoff     time.Duration
}

func New(client *genius.Client, store *cache.Store) *Builder {
	return &Builder{
		client:      client,
		store:       store,
		Concurrency: 4,
		Retries:     3,
		Backoff:     500 * time.Millisecond,
	}
}

// Build returns the artist's corpus, fetching it remotely only when no cache
// entry exists. A corrupt cache entry is surfaced, never silently rebuilt.
func (b *Builder) Build(ctx context.Context, artistName string) (*corpus.Corpus, *Stats, error) {
	start := time.Now()

	if b.store.Exists(artistName) {
		c, err := b.store.Load(artistName)
		if err != nil {
			return nil, nil, err
		}
		stats := &Stats{
			ArtistID:   c.ArtistID,
			ArtistName: c.ArtistName,
			SongCount:  len(c.Songs),
			FromCache:  true,
			Duration:   time.Since(start),
		}
		return c, stats, nil
	}

	span := sentry.StartSpan(ctx, "builder.build")
	span.Description = "Build lyric corpus from Genius"
	span.SetTag("artist", artistName)
	defer span.Finish()

	log.Debugf("No cache entry for %q, building corpus", artistName)

	var artist genius.ArtistRef
	err := b.withRetry(ctx, "resolve artist", func() error {
		var err error
		artist, err = b.client.ResolveArtist(ctx, artistName)
		return err
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, nil, err
	}

	var refs []genius.SongRef
	err = b.withRetry(ctx, "list songs", func() error {
		var err error
		refs, err = b.client.ListSongs(ctx, artist.ID)
		return err
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, nil, err
	}

	log.Infof("Fetching lyrics for %d songs by %s", len(refs), artist.Name)

	songs, failed, err := b.fetchAll(ctx, refs)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, nil, err
	}
	if failed > 0 {
		log.Warnf("%d of %d lyric pages could not be fetched, recorded with empty lyrics", failed, len(refs))
	}

	c := &corpus.Corpus{
		ArtistID:   artist.ID,
		ArtistName: artist.Name,
		FetchedAt:  time.Now().UTC(),
		Songs:      songs,
	}

	if err := b.store.Save(artistName, c); err != nil {
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, nil, err
	}

	span.Status = sentry.SpanStatusOK
	span.SetData("song_count", len(songs))
	span.SetData("failed_songs", failed)

	stats := &Stats{
		ArtistID:    artist.ID,
		ArtistName:  artist.Name,
		SongCount:   len(songs),
		FailedSongs: failed,
		Duration:    time.Since(start),
	}
	return c, stats, nil
}

// fetchAll fetches and normalizes every lyric page with bounded parallelism.
// Results are placed by listing index, so catalog order survives whatever
// order the fetches complete in. A song whose page is gone or whose fetches
// exhaust retries keeps its title with empty lyrics; only context
// cancellation aborts the whole pass.
func (b *Builder) fetchAll(ctx context.Context, refs []genius.SongRef) ([]corpus.Song, int, error) {
	songs := make([]corpus.Song, len(refs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Concurrency)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			songs[i] = corpus.Song{ID: ref.ID, Title: ref.Title, URL: ref.URL}

			var raw string
			err := b.withRetry(gctx, "fetch lyric page", func() error {
				var err error
				raw, err = b.client.FetchLyricPage(gctx, ref.URL)
				return err
			})
			if err != nil {
				if gctx.Err() != nil {
					return fmt.Errorf("%w: %v", corpus.ErrTransient, gctx.Err())
				}
				log.Debugf("Giving up on lyrics for %q: %v", ref.Title, err)
				failed.Add(1)
				return nil
			}

			result := lyrics.Normalize(raw)
			if !result.Available {
				log.Tracef("No lyric container on page for %q", ref.Title)
			}
			songs[i].Lyrics = result.Text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return songs, int(failed.Load()), nil
}

// withRetry runs op, retrying transient failures with exponential backoff.
// Auth and not-found errors are terminal and returned immediately.
func (b *Builder) withRetry(ctx context.Context, what string, op func() error) error {
	backoff := b.Backoff
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, corpus.ErrTransient) {
			return err
		}
		if attempt >= b.Retries {
			return fmt.Errorf("%s failed after %d attempts: %w", what, attempt, err)
		}

		log.Debugf("Attempt %d to %s failed (%v), retrying in %s", attempt, what, err, backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", corpus.ErrTransient, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
