package statsweb

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/net/html"

	"github.com/resultatbasen/ingest/internal/usecase"
)

// Column labels recognized in a results table header. Positions are
// derived from the labels, never assumed; only RESULTAT is mandatory.
const (
	labelResult    = "RESULTAT"
	labelWind      = "VIND"
	labelPlacement = "PLASS"
	labelClub      = "KLUBB"
	labelDate      = "DATO"
	labelVenue     = "STED"
	labelArena     = "ARENA"
)

type columnIndex struct {
	result    int
	wind      int
	placement int
	club      int
	date      int
	venue     int
}

// ParseResultPage walks one athlete page's header/table hierarchy and
// emits its raw records. The walk is a state machine over document
// order: a section header sets indoor/outdoor, an event header names
// the event and resets approval, an approval sub-header flips it, and
// a results table is only read while an event is named. Tables outside
// a named event are navigation and skipped. Malformed rows are dropped
// and counted, never an error.
func ParseResultPage(r io.Reader) (usecase.SourcePage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return usecase.SourcePage{}, fmt.Errorf("parse result page: %w", err)
	}

	page := usecase.SourcePage{
		Athlete: parseAthleteHeader(doc),
	}

	var (
		inSection bool
		indoor    bool
		eventName string
		approved  = true
	)

	doc.Find("h2, h3, h4, table").Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "h2":
			text := strings.ToUpper(selectionText(sel))
			switch {
			case strings.Contains(text, "INNEND"):
				inSection, indoor = true, true
				eventName = ""
			case strings.Contains(text, "UTEND"):
				inSection, indoor = true, false
				eventName = ""
			}
		case "h3":
			if !inSection {
				return
			}
			eventName = selectionText(sel)
			approved = true
		case "h4":
			if eventName == "" {
				return
			}
			text := strings.ToUpper(selectionText(sel))
			if strings.Contains(text, "IKKE GODKJENT") {
				approved = false
			} else if strings.Contains(text, "GODKJENT") {
				approved = true
			}
		case "table":
			if eventName == "" {
				return
			}
			records, dropped := parseResultsTable(sel, eventName, indoor, approved)
			page.Records = append(page.Records, records...)
			page.DroppedRows += dropped
		}
	})

	return page, nil
}

// ParseAthleteIDs extracts the athlete identifiers linked from a
// search result page, in document order, without duplicates.
func ParseAthleteIDs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var ids []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		id := athleteIDFromHref(href)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids, nil
}

func parseResultsTable(table *goquery.Selection, eventName string, indoor, approved bool) ([]usecase.RawRecord, int) {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, 0
	}

	cols, ok := parseHeaderRow(rows.First())
	if !ok {
		// Not a results table.
		return nil, 0
	}

	var (
		records []usecase.RawRecord
		dropped int
	)
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= cols.result {
			dropped++
			return
		}

		rec := usecase.RawRecord{
			EventName:   eventName,
			Indoor:      indoor,
			Approved:    approved,
			Performance: cellText(cells, cols.result),
			Wind:        cellText(cells, cols.wind),
			Placement:   cellText(cells, cols.placement),
			Club:        cellText(cells, cols.club),
			Date:        cellText(cells, cols.date),
		}
		rec.VenueText, rec.VenueTitle = venueCell(cells, cols.venue)
		if rec.Performance == "" {
			dropped++
			return
		}
		records = append(records, rec)
	})

	return records, dropped
}

// parseHeaderRow maps column labels to positions. A table qualifies as
// a results table only when a RESULTAT-labeled cell is present.
func parseHeaderRow(row *goquery.Selection) (columnIndex, bool) {
	cols := columnIndex{result: -1, wind: -1, placement: -1, club: -1, date: -1, venue: -1}

	cells := row.Find("th")
	if cells.Length() == 0 {
		cells = row.Find("td")
	}
	cells.Each(func(i int, cell *goquery.Selection) {
		label := strings.ToUpper(selectionText(cell))
		switch {
		case strings.HasPrefix(label, labelResult):
			cols.result = i
		case strings.HasPrefix(label, labelWind):
			cols.wind = i
		case strings.HasPrefix(label, labelPlacement):
			cols.placement = i
		case strings.HasPrefix(label, labelClub):
			cols.club = i
		case strings.HasPrefix(label, labelDate):
			cols.date = i
		case strings.HasPrefix(label, labelVenue), strings.HasPrefix(label, labelArena):
			cols.venue = i
		}
	})

	return cols, cols.result >= 0
}

// parseAthleteHeader reads the page's identity header, shaped like
// "Kari Nordmann (1995)". The birth year group is optional.
func parseAthleteHeader(doc *goquery.Document) usecase.RawAthlete {
	header := selectionText(doc.Find("h1").First())
	if header == "" {
		return usecase.RawAthlete{}
	}

	var out usecase.RawAthlete
	if open := strings.LastIndex(header, "("); open >= 0 {
		if end := strings.Index(header[open:], ")"); end > 0 {
			if year, err := strconv.Atoi(strings.TrimSpace(header[open+1 : open+end])); err == nil && year > 1800 {
				out.BirthYear = year
			}
		}
		header = strings.TrimSpace(header[:open])
	}

	fields := strings.Fields(header)
	switch len(fields) {
	case 0:
	case 1:
		out.LastName = fields[0]
	default:
		out.FirstName = strings.Join(fields[:len(fields)-1], " ")
		out.LastName = fields[len(fields)-1]
	}
	return out
}

func athleteIDFromHref(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	id := u.Query().Get("athlete")
	if id == "" {
		return ""
	}
	if _, err := strconv.Atoi(id); err != nil {
		return ""
	}
	return id
}

func cellText(cells *goquery.Selection, index int) string {
	if index < 0 || index >= cells.Length() {
		return ""
	}
	return selectionText(cells.Eq(index))
}

func venueCell(cells *goquery.Selection, index int) (text, title string) {
	if index < 0 || index >= cells.Length() {
		return "", ""
	}
	cell := cells.Eq(index)
	text = selectionText(cell)
	if t, ok := cell.Attr("title"); ok {
		title = strings.TrimSpace(t)
	} else if t, ok := cell.Find("[title]").First().Attr("title"); ok {
		title = strings.TrimSpace(t)
	}
	return text, title
}

// selectionText flattens a selection's text nodes with collapsed
// whitespace, using a pooled buffer since pages carry thousands of
// cells.
func selectionText(sel *goquery.Selection) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, node := range sel.Nodes {
		collectText(node, buf)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

func collectText(n *html.Node, buf *bytebufferpool.ByteBuffer) {
	if n.Type == html.TextNode {
		_, _ = buf.WriteString(n.Data)
		_ = buf.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}
