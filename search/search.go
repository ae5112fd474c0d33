// Package search performs literal substring search over a lyric corpus.
// Matching is case-sensitive, results keep catalog order, and songs with no
// lyric text never match a non-empty query.
package search

import (
	"strings"

	"lyricist/corpus"
)

// Find returns the songs whose lyrics contain substr, in catalog order.
// An empty substr matches every song that has any lyric text.
func Find(c *corpus.Corpus, substr string) []corpus.Song {
	return FindAll(c, []string{substr}, false)
}

// FindAll matches against multiple substrings. With matchAll false a song
// matches when it contains ANY of the substrings, with matchAll true it must
// contain ALL of them.
func FindAll(c *corpus.Corpus, substrs []string, matchAll bool) []corpus.Song {
	if c == nil || len(substrs) == 0 {
		return nil
	}

	var matches []corpus.Song
	for _, song := range c.Songs {
		if song.Lyrics == "" {
			continue // nothing to search
		}
		if containsAny(song.Lyrics, substrs, matchAll) {
			matches = append(matches, song)
		}
	}
	return matches
}

func containsAny(lyrics string, substrs []string, matchAll bool) bool {
	for _, s := range substrs {
		found := strings.Contains(lyrics, s)
		if matchAll && !found {
			return false
		}
		if !matchAll && found {
			return true
		}
	}
	return matchAll
}
