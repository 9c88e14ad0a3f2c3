package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jgoulah/campusscraper/internal/scraper"
	"github.com/jgoulah/campusscraper/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	diningVisible bool
	diningOutput  string
	diningDays    int
)

var diningCmd = &cobra.Command{
	Use:   "dining",
	Short: "Scrape dining hours for the coming week",
	Long: `Renders the dining hours page once per day, starting today, and writes every
location's hours to a text file grouped by weekday. The file is replaced on each run
and is only written once every day has been scraped.`,
	Args: cobra.NoArgs,
	RunE: runDining,
}

func init() {
	diningCmd.Flags().BoolVar(&diningVisible, "visible", false, "Show browser window (for debugging)")
	diningCmd.Flags().StringVar(&diningOutput, "output", "", "output file (default from config, data/scraped_data/dining.txt)")
	diningCmd.Flags().IntVar(&diningDays, "days", 0, "number of days to scrape starting today (default from config, 7)")
	rootCmd.AddCommand(diningCmd)
}

func runDining(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Dining scrape started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))
	logrus.Info("=== Starting dining hours scraper ===")

	output := diningOutput
	if output == "" {
		output = cfg.GetDiningOutput()
	}
	days := diningDays
	if days <= 0 {
		days = cfg.GetDiningDays()
	}

	ctx := cmd.Context()

	fetcher, err := scraper.NewBrowserFetcher(ctx, scraper.BrowserOptions{
		BaseURL:           cfg.GetDiningBaseURL(),
		WaitTimeout:       cfg.GetDiningWaitTimeout(),
		NavigationTimeout: cfg.GetDiningNavigationTimeout(),
		Visible:           diningVisible || cfg.Dining.Visible,
	})
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer fetcher.Close()

	report, err := scraper.NewDiningScraper(fetcher, days, os.Stdout).Scrape(ctx)
	if err != nil {
		return fmt.Errorf("scraping dining hours: %w", err)
	}

	if err := storage.WriteDiningReport(output, report); err != nil {
		return err
	}

	abs, err := filepath.Abs(output)
	if err != nil {
		abs = output
	}

	fmt.Printf("✅ Scraped data saved to '%s'\n", abs)
	logrus.WithField("records", report.RecordCount()).Info("Scraping completed successfully.")
	return nil
}
