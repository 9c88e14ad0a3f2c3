package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDiningBaseURL  = "https://services.utdallas.edu/dining/#"
	DefaultDiningOutput   = "data/scraped_data/dining.txt"
	DefaultParkingURL     = "https://services.utdallas.edu/transit/garages/_code.php/_code.php/_code.php/"
	DefaultParkingOutput  = "Data/scraped_data/utd_parking_triple_code.json"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	DefaultLogFile        = "scraper.log"
	DefaultParkingLogFile = "utd_parking_triple_code.log"
	DefaultLogLevel       = "debug"
	DefaultDBDriver       = "sqlite"
	DefaultDBPath         = "data.db"
	DefaultMQTTTopic      = "campus_parking"
	DefaultMQTTClientID   = "campusscraper"
	defaultDays           = 7
	defaultWaitTimeout    = 5 * time.Second
	defaultNavTimeout     = 30 * time.Second
	defaultParkingTimeout = 15 * time.Second
)

// Config holds the application configuration
type Config struct {
	Dining   DiningConfig   `yaml:"dining"`
	Parking  ParkingConfig  `yaml:"parking"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	MQTT     MQTTConfig     `yaml:"mqtt,omitempty"`
}

// DiningConfig controls the browser-rendered dining hours scrape
type DiningConfig struct {
	BaseURL           string        `yaml:"base_url,omitempty"`    // weekday slug is appended
	OutputPath        string        `yaml:"output_path,omitempty"` // overwritten each run
	Days              int           `yaml:"days,omitempty"`        // today plus the following days
	WaitTimeout       time.Duration `yaml:"wait_timeout,omitempty"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout,omitempty"`
	Visible           bool          `yaml:"visible,omitempty"`
}

// ParkingConfig controls the garage availability scrape
type ParkingConfig struct {
	URL        string        `yaml:"url,omitempty"`
	OutputPath string        `yaml:"output_path,omitempty"` // JSON history, appended each run
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	UserAgent  string        `yaml:"user_agent,omitempty"`
	// The garage endpoint serves a certificate that does not verify, so
	// verification is skipped unless explicitly turned back on.
	VerifyTLS  bool          `yaml:"verify_tls,omitempty"`
}

// LogConfig controls the diagnostic log file
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// DatabaseConfig enables mirroring parking snapshots into SQL
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver,omitempty"` // "sqlite" or "postgres"
	DSN     string `yaml:"dsn,omitempty"`    // file path for sqlite, connection string for postgres
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // e.g., "localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // e.g., "campus_parking"
	ClientID    string `yaml:"client_id,omitempty"`
}

// Load reads the config file, then applies .env and environment overrides
func Load(configPath string) (*Config, error) {
	cfg, err := loadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// applyEnv overrides file values with CAMPUSSCRAPER_* variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"CAMPUSSCRAPER_DINING_BASE_URL":   &c.Dining.BaseURL,
		"CAMPUSSCRAPER_DINING_OUTPUT":     &c.Dining.OutputPath,
		"CAMPUSSCRAPER_PARKING_URL":       &c.Parking.URL,
		"CAMPUSSCRAPER_PARKING_OUTPUT":    &c.Parking.OutputPath,
		"CAMPUSSCRAPER_LOG_FILE":          &c.Log.File,
		"CAMPUSSCRAPER_LOG_LEVEL":         &c.Log.Level,
		"CAMPUSSCRAPER_DB_DRIVER":         &c.Database.Driver,
		"CAMPUSSCRAPER_DB_DSN":            &c.Database.DSN,
		"CAMPUSSCRAPER_MQTT_BROKER":       &c.MQTT.Broker,
		"CAMPUSSCRAPER_MQTT_USERNAME":     &c.MQTT.Username,
		"CAMPUSSCRAPER_MQTT_PASSWORD":     &c.MQTT.Password,
		"CAMPUSSCRAPER_MQTT_TOPIC_PREFIX": &c.MQTT.TopicPrefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"CAMPUSSCRAPER_DB_ENABLED":   &c.Database.Enabled,
		"CAMPUSSCRAPER_MQTT_ENABLED": &c.MQTT.Enabled,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// 0600 since the file may carry broker credentials
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Default returns a config with every default filled in, used by `config init`
func Default() *Config {
	c := &Config{}
	return &Config{
		Dining: DiningConfig{
			BaseURL:           c.GetDiningBaseURL(),
			OutputPath:        c.GetDiningOutput(),
			Days:              c.GetDiningDays(),
			WaitTimeout:       c.GetDiningWaitTimeout(),
			NavigationTimeout: c.GetDiningNavigationTimeout(),
		},
		Parking: ParkingConfig{
			URL:        c.GetParkingURL(),
			OutputPath: c.GetParkingOutput(),
			Timeout:    c.GetParkingTimeout(),
			UserAgent:  c.GetUserAgent(),
		},
		Log: LogConfig{
			File:  c.GetLogFile(),
			Level: c.GetLogLevel(),
		},
		Database: DatabaseConfig{
			Driver: c.GetDBDriver(),
			DSN:    c.GetDBDSN(),
		},
		MQTT: MQTTConfig{
			Broker:      "localhost:1883",
			TopicPrefix: c.GetMQTTTopicPrefix(),
			ClientID:    c.GetMQTTClientID(),
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOrDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// GetDiningBaseURL returns the dining page URL the weekday slug is appended to
func (c *Config) GetDiningBaseURL() string {
	return orDefault(c.Dining.BaseURL, DefaultDiningBaseURL)
}

// GetDiningOutput returns the dining.txt path
func (c *Config) GetDiningOutput() string {
	return orDefault(c.Dining.OutputPath, DefaultDiningOutput)
}

// GetDiningDays returns how many days to scrape starting today, default 7
func (c *Config) GetDiningDays() int {
	if c.Dining.Days <= 0 {
		return defaultDays
	}
	return c.Dining.Days
}

// GetDiningWaitTimeout returns how long to wait for the hours table to appear
func (c *Config) GetDiningWaitTimeout() time.Duration {
	return durationOrDefault(c.Dining.WaitTimeout, defaultWaitTimeout)
}

// GetDiningNavigationTimeout returns the per-day page load limit
func (c *Config) GetDiningNavigationTimeout() time.Duration {
	return durationOrDefault(c.Dining.NavigationTimeout, defaultNavTimeout)
}

// GetParkingURL returns the garage availability endpoint
func (c *Config) GetParkingURL() string {
	return orDefault(c.Parking.URL, DefaultParkingURL)
}

// GetParkingOutput returns the JSON history path
func (c *Config) GetParkingOutput() string {
	return orDefault(c.Parking.OutputPath, DefaultParkingOutput)
}

// GetParkingTimeout returns the HTTP timeout for the garage request, default 15s
func (c *Config) GetParkingTimeout() time.Duration {
	return durationOrDefault(c.Parking.Timeout, defaultParkingTimeout)
}

// GetUserAgent returns the User-Agent sent with the garage request
func (c *Config) GetUserAgent() string {
	return orDefault(c.Parking.UserAgent, DefaultUserAgent)
}

// GetLogFile returns the diagnostic log path
func (c *Config) GetLogFile() string {
	return orDefault(c.Log.File, DefaultLogFile)
}

// GetParkingLogFile returns the log path for parking runs. An explicit
// log.file applies to every command.
func (c *Config) GetParkingLogFile() string {
	return orDefault(c.Log.File, DefaultParkingLogFile)
}

// GetLogLevel returns the minimum logged level
func (c *Config) GetLogLevel() string {
	return orDefault(c.Log.Level, DefaultLogLevel)
}

// GetDBDriver returns the database/sql driver name for the snapshot mirror
func (c *Config) GetDBDriver() string {
	return orDefault(c.Database.Driver, DefaultDBDriver)
}

// GetDBDSN returns the database location for the snapshot mirror
func (c *Config) GetDBDSN() string {
	return orDefault(c.Database.DSN, DefaultDBPath)
}

// GetMQTTTopicPrefix returns the topic root for published availability
func (c *Config) GetMQTTTopicPrefix() string {
	return orDefault(c.MQTT.TopicPrefix, DefaultMQTTTopic)
}

// GetMQTTClientID returns the MQTT client identifier
func (c *Config) GetMQTTClientID() string {
	return orDefault(c.MQTT.ClientID, DefaultMQTTClientID)
}
