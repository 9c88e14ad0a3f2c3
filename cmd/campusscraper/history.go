package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/campusscraper/internal/storage"
	"github.com/spf13/cobra"
)

var (
	historyFile  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the snapshots in the parking history file",
	Long:  `Reads the JSON history written by the parking command and shows when each snapshot was taken and how many records it holds.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFile, "file", "", "history file (default from config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "only show the most recent N entries (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyFile
	if path == "" {
		path = cfg.GetParkingOutput()
	}

	h, err := storage.LoadHistory(path)
	if err != nil {
		return err
	}

	entries := h.List()
	if len(entries) == 0 {
		fmt.Printf("No snapshots found in %s\n", path)
		return nil
	}

	if h.Migrated {
		fmt.Println("(legacy array format; converted on the next parking run)")
	}

	shown := entries
	if historyLimit > 0 && len(shown) > historyLimit {
		shown = shown[len(shown)-historyLimit:]
	}

	fmt.Println("----------------------------------------------------------")
	fmt.Printf("%-5s  %-19s  %7s  %s\n", "#", "Timestamp", "Records", "Age")
	fmt.Println("----------------------------------------------------------")

	for _, e := range shown {
		if e.Snapshot == nil {
			fmt.Printf("%-5d  %-19s\n", e.Index+1, "(not a snapshot)")
			continue
		}

		age := "-"
		if t, err := e.Snapshot.TakenAt(); err == nil {
			age = humanize.Time(t)
		}
		fmt.Printf("%-5d  %-19s  %7d  %s\n", e.Index+1, e.Snapshot.Timestamp, e.Snapshot.RecordCount, age)
	}

	fmt.Println("----------------------------------------------------------")
	fmt.Printf("Total: %d entries\n", len(entries))
	return nil
}
