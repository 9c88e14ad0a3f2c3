package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, DefaultDiningBaseURL, cfg.GetDiningBaseURL())
	assert.Equal(t, DefaultDiningOutput, cfg.GetDiningOutput())
	assert.Equal(t, 7, cfg.GetDiningDays())
	assert.Equal(t, 5*time.Second, cfg.GetDiningWaitTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetDiningNavigationTimeout())
	assert.Equal(t, DefaultParkingURL, cfg.GetParkingURL())
	assert.Equal(t, DefaultParkingOutput, cfg.GetParkingOutput())
	assert.Equal(t, 15*time.Second, cfg.GetParkingTimeout())
	assert.Equal(t, DefaultUserAgent, cfg.GetUserAgent())
	assert.False(t, cfg.Parking.VerifyTLS)
	assert.Equal(t, "sqlite", cfg.GetDBDriver())
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	yml := `
dining:
  base_url: http://localhost:8080/dining/#
  days: 3
  wait_timeout: 2s
parking:
  output_path: out/history.json
  timeout: 1m
  verify_tls: true
database:
  enabled: true
  driver: postgres
  dsn: postgres://scraper@localhost/campus
mqtt:
  enabled: true
  broker: broker.local:1883
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/dining/#", cfg.GetDiningBaseURL())
	assert.Equal(t, 3, cfg.GetDiningDays())
	assert.Equal(t, 2*time.Second, cfg.GetDiningWaitTimeout())
	assert.Equal(t, "out/history.json", cfg.GetParkingOutput())
	assert.Equal(t, time.Minute, cfg.GetParkingTimeout())
	assert.True(t, cfg.Parking.VerifyTLS)
	assert.Equal(t, "postgres", cfg.GetDBDriver())
	assert.Equal(t, "postgres://scraper@localhost/campus", cfg.GetDBDSN())
	assert.Equal(t, "broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, DefaultMQTTTopic, cfg.GetMQTTTopicPrefix())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dining: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".env", []byte("CAMPUSSCRAPER_PARKING_URL=http://127.0.0.1:9000/garages\n"), 0644))

	// Setenv restores the variable afterwards; godotenv only fills unset ones
	t.Setenv("CAMPUSSCRAPER_PARKING_URL", "")
	require.NoError(t, os.Unsetenv("CAMPUSSCRAPER_PARKING_URL"))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/garages", cfg.GetParkingURL())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CAMPUSSCRAPER_DINING_OUTPUT": "/tmp/dining.txt",
		"CAMPUSSCRAPER_LOG_LEVEL":     "info",
		"CAMPUSSCRAPER_DB_ENABLED":    "true",
		"CAMPUSSCRAPER_MQTT_BROKER":   "mqtt:1883",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := &Config{Dining: DiningConfig{OutputPath: "from-file.txt"}}
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, "/tmp/dining.txt", cfg.GetDiningOutput())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "mqtt:1883", cfg.MQTT.Broker)
}

func TestApplyEnvInvalidBool(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "CAMPUSSCRAPER_MQTT_ENABLED" {
			return "sometimes", true
		}
		return "", false
	}

	cfg := &Config{}
	assert.ErrorContains(t, cfg.applyEnv(lookup), "CAMPUSSCRAPER_MQTT_ENABLED")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, Save(path, Default()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := loadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLogFileDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "scraper.log", cfg.GetLogFile())
	assert.Equal(t, "utd_parking_triple_code.log", cfg.GetParkingLogFile())

	cfg.Log.File = "logs/all.log"
	assert.Equal(t, "logs/all.log", cfg.GetLogFile())
	assert.Equal(t, "logs/all.log", cfg.GetParkingLogFile())
}
