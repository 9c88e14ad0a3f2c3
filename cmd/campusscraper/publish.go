package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/campusscraper/internal/storage"
	"github.com/spf13/cobra"
)

var publishFile string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the latest parking snapshot to MQTT",
	Long:  `Reads the most recent snapshot from the parking history file and publishes it to the MQTT broker configured in config.yaml.`,
	Args:  cobra.NoArgs,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishFile, "file", "", "history file (default from config)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Check if MQTT is configured
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	path := publishFile
	if path == "" {
		path = cfg.GetParkingOutput()
	}

	h, err := storage.LoadHistory(path)
	if err != nil {
		return err
	}

	latest := h.Latest()
	if latest == nil {
		return fmt.Errorf("no snapshots found in %s", path)
	}

	fmt.Printf("Publishing snapshot from %s (%d records)...\n", latest.Timestamp, latest.RecordCount)
	return publishSnapshot(*latest)
}
