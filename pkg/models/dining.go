package models

import (
	"fmt"
	"strings"
)

// HoursClosed is recorded when a venue has no open or close time for the day
const HoursClosed = "closed"

// DiningRecord represents one venue listing on the dining hours page
type DiningRecord struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	Hours    string `json:"hours"` // "<open> - <close>" or "closed"
}

// Line renders the record the way it appears in dining.txt
func (r DiningRecord) Line() string {
	return fmt.Sprintf("%s — %s — %s", r.Location, r.Name, r.Hours)
}

// DaySection holds the records scraped for a single weekday
type DaySection struct {
	Day     string         `json:"day"` // lowercase weekday slug, e.g. "tuesday"
	Records []DiningRecord `json:"records"`
}

// Header returns the banner line written before the day's records
func (s DaySection) Header() string {
	return fmt.Sprintf("\n==== %s ====\n", strings.ToUpper(s.Day))
}

// DiningReport is the full week of dining hours produced by one run
type DiningReport struct {
	Sections []DaySection `json:"sections"`
}

// Render joins every header and record line with newlines
func (r DiningReport) Render() string {
	var lines []string
	for _, section := range r.Sections {
		lines = append(lines, section.Header())
		for _, record := range section.Records {
			lines = append(lines, record.Line())
		}
	}
	return strings.Join(lines, "\n")
}

// RecordCount returns the number of records across all days
func (r DiningReport) RecordCount() int {
	total := 0
	for _, section := range r.Sections {
		total += len(section.Records)
	}
	return total
}
