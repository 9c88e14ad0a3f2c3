package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jgoulah/campusscraper/internal/config"
	"github.com/jgoulah/campusscraper/internal/database"
	"github.com/jgoulah/campusscraper/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logFile  string
	logLevel string

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "campusscraper",
	Short: "Scrape campus dining hours and parking availability",
	Long: `campusscraper collects published schedules from the university's public web services.

The dining command renders the dining hours page for the next seven days and writes them to a text file.
The parking command reads garage availability and appends a timestamped snapshot to a JSON history file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "diagnostic log file (default from config, scraper.log)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// setup loads the config and opens the log file before any command runs
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := logFile
	if path == "" {
		path = cfg.GetLogFile()
		if cmd == parkingCmd {
			path = cfg.GetParkingLogFile()
		}
	}
	level := logLevel
	if level == "" {
		level = cfg.GetLogLevel()
	}

	logCloser, err = logger.Setup(path, level)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	return nil
}

// closeLog flushes the log file once the command has finished
func closeLog() {
	if logCloser != nil {
		logCloser.Close()
	}
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the snapshot mirror database
func openDB() (*database.DB, error) {
	driver := cfg.GetDBDriver()
	dsn := cfg.GetDBDSN()

	if driver == "sqlite" {
		// Ensure directory exists
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	return database.New(driver, dsn)
}
