package pbp

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	containerSelector = "#all_pbp"
	tableSelector     = "table#pbp"
)

// ExtractRows returns every body row of the play-by-play table in a box-score
// page. The table is looked up by id, first in the live document and then
// inside the HTML comments the site wraps deferred tables in.
func ExtractRows(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return nil, ErrNoPlayByPlay
	}

	table, err := findTable(container)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, 256)
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, rowFromSelection(tr))
	})
	return rows, nil
}

func findTable(container *goquery.Selection) (*goquery.Selection, error) {
	if t := container.Find(tableSelector); t.Length() > 0 {
		return t.First(), nil
	}

	var fallback *goquery.Selection
	for _, comment := range commentTexts(container) {
		if !strings.Contains(comment, "<table") {
			continue
		}
		frag, err := goquery.NewDocumentFromReader(strings.NewReader(comment))
		if err != nil {
			return nil, fmt.Errorf("parsing embedded table: %w", err)
		}
		if t := frag.Find(tableSelector); t.Length() > 0 {
			return t.First(), nil
		}
		if fallback == nil {
			if t := frag.Find("table"); t.Length() > 0 {
				fallback = t.First()
			}
		}
	}
	if fallback != nil {
		return fallback, nil
	}

	if t := container.Find("table"); t.Length() > 0 {
		return t.First(), nil
	}
	return nil, ErrNoTable
}

// commentTexts collects the contents of every comment node below sel.
func commentTexts(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode {
				out = append(out, c.Data)
				continue
			}
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

func rowFromSelection(tr *goquery.Selection) Row {
	row := Row{Header: tr.HasClass("thead")}
	tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		row.Fields = append(row.Fields, strings.TrimSpace(cell.Text()))
	})
	return row
}
