// Package schedule extracts box-score game codes from a season schedule page.
package schedule

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var boxScoreHref = regexp.MustCompile(`/boxscores/(\d{9}[a-z]{3})\.htm$`)

// ExtractGameCodes returns the game code of every played game linked from a
// schedule page, in page order and without duplicates. Played games are
// linked with the text "boxscore"; unplayed games link the same address
// as "preview" and are skipped.
func ExtractGameCodes(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	seen := make(map[string]bool)
	codes := make([]string, 0, 272)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !strings.Contains(strings.ToLower(a.Text()), "boxscore") {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		m := boxScoreHref.FindStringSubmatch(strings.TrimSpace(href))
		if m == nil {
			return
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			codes = append(codes, m[1])
		}
	})

	return codes, nil
}
