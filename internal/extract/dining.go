package extract

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgoulah/campusscraper/pkg/models"
)

// Column layout of the dining hours table. The column between open and
// close only holds a dash.
const (
	colLocation = 0
	colName     = 1
	colOpen     = 2
	colClose    = 4
	minCells    = 5
)

// DiningRows returns the rendered text of every data cell in every table
// body row, in document order
func DiningRows(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	rows := make([][]string, 0)
	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return RenderedText(td)
		})
		rows = append(rows, cells)
	})

	return rows, nil
}

// diningFold is the state carried from one row to the next. Merged location
// cells render as empty, so the last non-empty location applies until a
// new one appears.
type diningFold struct {
	location string
	records  []models.DiningRecord
}

func (f diningFold) step(cells []string) diningFold {
	if len(cells) < minCells {
		return f
	}

	location := strings.TrimSpace(cells[colLocation])
	name := strings.TrimSpace(cells[colName])
	open := normalizeTime(cells[colOpen])
	closeTime := normalizeTime(cells[colClose])

	if location != "" {
		f.location = location
	}

	if name == "" {
		return f
	}

	hours := models.HoursClosed
	if open != "" && closeTime != "" {
		hours = open + " - " + closeTime
	}

	f.records = append(f.records, models.DiningRecord{
		Location: f.location,
		Name:     name,
		Hours:    hours,
	})
	return f
}

// DiningRecords converts one day's rows into records
func DiningRecords(rows [][]string) []models.DiningRecord {
	acc := diningFold{records: make([]models.DiningRecord, 0, len(rows))}
	for _, cells := range rows {
		acc = acc.step(cells)
	}
	return acc.records
}

func normalizeTime(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// DaySlugs returns n lowercase weekday names starting with now's weekday
func DaySlugs(now time.Time, n int) []string {
	slugs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		slugs = append(slugs, strings.ToLower(now.AddDate(0, 0, i).Weekday().String()))
	}
	return slugs
}
