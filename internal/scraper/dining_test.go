package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages   map[string]string
	failOn  string
	fetched []string
}

func (f *fakeFetcher) FetchDay(_ context.Context, day string) (string, error) {
	f.fetched = append(f.fetched, day)
	if day == f.failOn {
		return "", errkind.Wrap(errkind.ErrParse, context.DeadlineExceeded, "waiting for table on %s", day)
	}
	return f.pages[day], nil
}

func hoursPage(rows ...string) string {
	var b bytes.Buffer
	b.WriteString("<html><body><table><tbody>")
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// 2025-10-14 is a Tuesday
var tuesday = time.Date(2025, 10, 14, 8, 0, 0, 0, time.Local)

func TestDiningScraperEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"tuesday": hoursPage(`<tr><td>Dining Hall</td><td>Grill</td><td>11:00 am</td><td>-</td><td>2:00 pm</td></tr>`),
	}}

	var out bytes.Buffer
	s := NewDiningScraper(fetcher, 1, &out)
	s.now = func() time.Time { return tuesday }

	report, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "\n==== TUESDAY ====\n\nDining Hall — Grill — 11:00 am - 2:00 pm", report.Render())
	assert.Equal(t, "Scraping Tuesday...\n", out.String())
}

func TestDiningScraperWeek(t *testing.T) {
	pages := map[string]string{}
	for _, day := range []string{"tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "monday"} {
		pages[day] = hoursPage(
			fmt.Sprintf(`<tr><td>Union</td><td>Coffee %s</td><td>7:00&nbsp;am</td><td>-</td><td>9:00&nbsp;pm</td></tr>`, day),
			`<tr><td></td><td>Pizza</td><td></td><td></td><td></td></tr>`,
		)
	}
	fetcher := &fakeFetcher{pages: pages}

	var out bytes.Buffer
	s := NewDiningScraper(fetcher, 7, &out)
	s.now = func() time.Time { return tuesday }

	report, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Sections, 7)

	assert.Equal(t, "tuesday", report.Sections[0].Day)
	assert.Equal(t, "monday", report.Sections[6].Day)
	assert.Equal(t, []models.DiningRecord{
		{Location: "Union", Name: "Coffee sunday", Hours: "7:00 am - 9:00 pm"},
		{Location: "Union", Name: "Pizza", Hours: "closed"},
	}, report.Sections[5].Records)
	assert.Equal(t, 14, report.RecordCount())
	assert.Contains(t, out.String(), "Scraping Monday...\n")
}

func TestDiningScraperStopsAtFailingDay(t *testing.T) {
	fetcher := &fakeFetcher{
		pages:  map[string]string{"tuesday": hoursPage()},
		failOn: "wednesday",
	}

	var out bytes.Buffer
	s := NewDiningScraper(fetcher, 7, &out)
	s.now = func() time.Time { return tuesday }

	_, err := s.Scrape(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrParse))
	assert.ErrorContains(t, err, "scraping wednesday")
	assert.Equal(t, []string{"tuesday", "wednesday"}, fetcher.fetched)
}

func TestDiningScraperEmptyDay(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"tuesday": hoursPage()}}

	var out bytes.Buffer
	s := NewDiningScraper(fetcher, 1, &out)
	s.now = func() time.Time { return tuesday }

	report, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "\n==== TUESDAY ====\n", report.Render())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Tuesday", capitalize("tuesday"))
	assert.Equal(t, "", capitalize(""))
}
