package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	parkingTableSelector = "table.parking"
	parkingCells         = 3
)

// ParseParking parses garage availability markup and extracts its records
func ParseParking(r io.Reader) ([]models.ParkingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return ParkingRecords(doc), nil
}

// ParkingRecords reads every parking table in document order. Each table
// body row with exactly three cells becomes a record for that table's garage.
func ParkingRecords(doc *goquery.Document) []models.ParkingRecord {
	tables := doc.Find(parkingTableSelector)
	logrus.WithField("count", tables.Length()).Info("Found parking structures in the HTML")

	records := make([]models.ParkingRecord, 0)
	tables.Each(func(i int, table *goquery.Selection) {
		garage := fmt.Sprintf("Unknown_%d", i+1)
		if caption := table.Find("caption").First(); caption.Length() > 0 {
			garage = StrippedText(caption)
		}
		logrus.WithField("garage", garage).Debug("Processing table")

		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
				return StrippedText(td)
			})
			if len(cells) != parkingCells {
				return
			}

			record := models.ParkingRecord{
				Garage:          garage,
				Level:           cells[0],
				PermitType:      cells[1],
				AvailableSpaces: cells[2],
			}
			logrus.WithFields(logrus.Fields{
				"garage":           record.Garage,
				"level":            record.Level,
				"permit_type":      record.PermitType,
				"available_spaces": record.AvailableSpaces,
			}).Debug("Parsed row")
			records = append(records, record)
		})
	})

	return records
}

// StrippedText trims every text node under sel and concatenates the
// non-empty pieces without a separator, so "<b> 12 </b> spaces" becomes
// "12spaces".
func StrippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}
