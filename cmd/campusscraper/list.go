package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listGarage string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List parking snapshots stored in the database",
	Long:  `Displays parking availability stored in the database by previous parking runs, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listGarage, "garage", "", "Filter by garage name")
	listCmd.Flags().IntVar(&listLimit, "limit", 5, "Number of snapshots to show (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("database is not enabled in config")
	}

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	snapshots, err := db.ListSnapshots(listGarage, listLimit)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots found")
		return nil
	}

	for _, s := range snapshots {
		fmt.Printf("\n%s (%s, %d records)\n", s.TakenAt.Format("2006-01-02 15:04:05"), humanize.Time(s.TakenAt), s.RecordCount)
		fmt.Println("----------------------------------------------------------")
		fmt.Printf("%-24s  %-12s  %-12s  %s\n", "Garage", "Level", "Permit", "Spaces")
		fmt.Println("----------------------------------------------------------")

		if len(s.Records) == 0 {
			fmt.Println("(no matching records)")
			continue
		}
		for _, r := range s.Records {
			fmt.Printf("%-24s  %-12s  %-12s  %s\n", r.Garage, r.Level, r.PermitType, r.AvailableSpaces)
		}
	}

	return nil
}
