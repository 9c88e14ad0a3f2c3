// Package extract turns scraped HTML tables into records.
//
// The functions here are pure: they take markup or cell text and return
// records, leaving fetching and persistence to the scraper and storage
// packages. Rows that do not have the expected shape are skipped rather
// than reported as errors.
package extract
