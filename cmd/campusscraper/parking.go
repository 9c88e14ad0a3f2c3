package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jgoulah/campusscraper/internal/publisher"
	"github.com/jgoulah/campusscraper/internal/scraper"
	"github.com/jgoulah/campusscraper/internal/storage"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	parkingOutput  string
	parkingCSV     string
	parkingPublish bool
	parkingQuiet   bool
)

var parkingCmd = &cobra.Command{
	Use:   "parking",
	Short: "Scrape garage availability and append it to the history file",
	Long: `Fetches the garage availability page, prints every level/permit row and appends
a timestamped snapshot to the JSON history file.

When the database is enabled in config the snapshot is also stored there, and with
--publish it is pushed to the configured MQTT broker.`,
	Args: cobra.NoArgs,
	RunE: runParking,
}

func init() {
	parkingCmd.Flags().StringVar(&parkingOutput, "output", "", "history file (default from config, Data/scraped_data/utd_parking_triple_code.json)")
	parkingCmd.Flags().StringVar(&parkingCSV, "csv", "", "also append rows to this CSV file")
	parkingCmd.Flags().BoolVar(&parkingPublish, "publish", false, "publish the snapshot to MQTT")
	parkingCmd.Flags().BoolVar(&parkingQuiet, "quiet", false, "do not print records")
	rootCmd.AddCommand(parkingCmd)
}

func runParking(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)
	log.Info("=== Starting parking scraper ===")

	output := parkingOutput
	if output == "" {
		output = cfg.GetParkingOutput()
	}

	s := scraper.NewParkingScraper(scraper.ParkingOptions{
		URL:       cfg.GetParkingURL(),
		UserAgent: cfg.GetUserAgent(),
		Timeout:   cfg.GetParkingTimeout(),
		VerifyTLS: cfg.Parking.VerifyTLS,
	})

	records, err := s.Scrape(cmd.Context())
	if err != nil {
		return fmt.Errorf("scraping parking: %w", err)
	}

	if !parkingQuiet {
		printRecords(os.Stdout, records)
	}

	snapshot := models.NewParkingSnapshot(records, time.Now())

	if _, err := storage.AppendSnapshot(output, snapshot); err != nil {
		return err
	}

	if parkingCSV != "" {
		if err := storage.AppendCSV(parkingCSV, snapshot); err != nil {
			return err
		}
	}

	if cfg.Database.Enabled {
		if err := mirrorSnapshot(runID, snapshot); err != nil {
			return err
		}
	}

	if parkingPublish {
		if err := publishSnapshot(snapshot); err != nil {
			return err
		}
	}

	log.WithField("records", snapshot.RecordCount).Info("Scraping completed successfully.")
	return nil
}

func printRecords(w io.Writer, records []models.ParkingRecord) {
	for _, r := range records {
		fmt.Fprintln(w, r)
	}
}

func mirrorSnapshot(runID string, snapshot models.ParkingSnapshot) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	id, err := db.InsertSnapshot(runID, snapshot)
	if err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}

	logrus.WithFields(logrus.Fields{"run_id": runID, "snapshot_id": id}).Info("Stored snapshot in database")
	return nil
}

func publishSnapshot(snapshot models.ParkingSnapshot) error {
	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	n, err := pub.PublishSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}

	fmt.Printf("✓ Published %d messages to MQTT\n", n)
	return nil
}
