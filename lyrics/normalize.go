package lyrics

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// Result is the outcome of normalizing a lyric page. Available is false when
// the page carries no lyric container (instrumental, removed, or markup
// change); Text is always empty in that case.
type Result struct {
	Text      string
	Available bool
}

var (
	brTag         = regexp.MustCompile(`(?i)<br\s*/?>`)
	sectionHeader = regexp.MustCompile(`(?m)^\[[^\[\]]*\]\n?`)
	blankLines    = regexp.MustCompile(`\n{2,}`)
)

// Normalize extracts plain searchable text from a raw Genius song page.
// It is deterministic and never fails: malformed or container-less pages
// yield an unavailable Result, not an error.
func Normalize(rawHTML string) Result {
	// goquery collapses <br> into nothing, so turn them into newlines first
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(brTag.ReplaceAllString(rawHTML, "\n")))
	if err != nil {
		log.Tracef("Failed to parse lyric page: %v", err)
		return Result{}
	}

	containers := doc.Find("div[data-lyrics-container='true']")
	if containers.Length() == 0 {
		return Result{}
	}

	var parts []string
	containers.Each(func(i int, s *goquery.Selection) {
		// Annotation/interaction chrome inside the container is not lyric text
		s.Find("[data-exclude-from-selection='true']").Remove()
		parts = append(parts, s.Text())
	})

	text := strings.Join(parts, "\n")
	text = norm.NFKD.String(text)
	text = sectionHeader.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)

	if text == "" {
		return Result{}
	}
	return Result{Text: text, Available: true}
}
