package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/internal/extract"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
)

// PageFetcher returns the rendered dining page for a weekday slug
type PageFetcher interface {
	FetchDay(ctx context.Context, day string) (string, error)
}

// DiningScraper collects a week of dining hours, one page per day
type DiningScraper struct {
	fetcher PageFetcher
	days    int
	now     func() time.Time
	out     io.Writer // progress lines
}

// NewDiningScraper creates a dining scraper covering today and the next days-1 days
func NewDiningScraper(fetcher PageFetcher, days int, out io.Writer) *DiningScraper {
	return &DiningScraper{
		fetcher: fetcher,
		days:    days,
		now:     time.Now,
		out:     out,
	}
}

// Scrape fetches and extracts every day in order. The first failing day
// aborts the run.
func (s *DiningScraper) Scrape(ctx context.Context) (models.DiningReport, error) {
	report := models.DiningReport{Sections: make([]models.DaySection, 0, s.days)}

	for _, day := range extract.DaySlugs(s.now(), s.days) {
		fmt.Fprintf(s.out, "Scraping %s...\n", capitalize(day))

		section, err := s.ScrapeDay(ctx, day)
		if err != nil {
			return models.DiningReport{}, err
		}
		report.Sections = append(report.Sections, section)
	}

	return report, nil
}

// ScrapeDay fetches one day's page and extracts its records
func (s *DiningScraper) ScrapeDay(ctx context.Context, day string) (models.DaySection, error) {
	log := logrus.WithField("day", day)

	page, err := s.fetcher.FetchDay(ctx, day)
	if err != nil {
		log.WithError(err).Error("Failed to fetch dining page")
		return models.DaySection{}, fmt.Errorf("scraping %s: %w", day, err)
	}

	rows, err := extract.DiningRows(strings.NewReader(page))
	if err != nil {
		log.WithError(err).Error("Failed to parse dining page")
		return models.DaySection{}, errkind.Wrap(errkind.ErrParse, err, "scraping %s", day)
	}

	records := extract.DiningRecords(rows)
	log.WithFields(logrus.Fields{
		"rows":    len(rows),
		"records": len(records),
	}).Info("Extracted dining hours")

	return models.DaySection{Day: day, Records: records}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
