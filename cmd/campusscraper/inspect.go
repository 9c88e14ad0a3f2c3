package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jgoulah/campusscraper/internal/extract"
	"github.com/jgoulah/campusscraper/internal/scraper"
	"github.com/spf13/cobra"
)

var inspectVisible bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [day]",
	Short: "Show the raw dining table cells for one day",
	Long: `Renders the dining page for a weekday (default today) and prints every table row
with its cell texts and whether the extractor keeps it. Useful when the page layout changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectVisible, "visible", false, "Show browser window")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	day := strings.ToLower(time.Now().Weekday().String())
	if len(args) == 1 {
		day = strings.ToLower(args[0])
	}
	if !isWeekday(day) {
		return fmt.Errorf("unknown day: %s (use a weekday name such as tuesday)", day)
	}

	ctx := cmd.Context()

	fetcher, err := scraper.NewBrowserFetcher(ctx, scraper.BrowserOptions{
		BaseURL:           cfg.GetDiningBaseURL(),
		WaitTimeout:       cfg.GetDiningWaitTimeout(),
		NavigationTimeout: cfg.GetDiningNavigationTimeout(),
		Visible:           inspectVisible,
	})
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer fetcher.Close()

	fmt.Printf("Rendering %s...\n", fetcher.URL(day))
	page, err := fetcher.FetchDay(ctx, day)
	if err != nil {
		return err
	}

	rows, err := extract.DiningRows(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	fmt.Printf("\nFound %d table rows:\n", len(rows))
	for i, cells := range rows {
		status := "ok"
		switch {
		case len(cells) < 5:
			status = fmt.Sprintf("skipped (%d cells)", len(cells))
		case strings.TrimSpace(cells[1]) == "":
			status = "skipped (no name)"
		}

		quoted := make([]string, len(cells))
		for j, c := range cells {
			quoted[j] = fmt.Sprintf("%d=%q", j, c)
		}
		fmt.Printf("[%3d] %-22s %s\n", i, status, strings.Join(quoted, " "))
	}

	records := extract.DiningRecords(rows)
	fmt.Printf("\nExtracted %d records:\n", len(records))
	for _, r := range records {
		fmt.Println(r.Line())
	}

	return nil
}

func isWeekday(day string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == day {
			return true
		}
	}
	return false
}
