package config

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/internal/store"
	"irrigation-monitor/backend/internal/weather"
	"irrigation-monitor/backend/pkg/dialect"
)

type EnvKey string

const (
	EnvGenerate EnvKey = "GENERATE"

	EnvPort      EnvKey = "PORT"
	EnvDataDir   EnvKey = "DATA_DIR"
	EnvLogLevel  EnvKey = "LOG_LEVEL"
	EnvLogToFile EnvKey = "LOG_TO_FILE"

	EnvDBDialect        EnvKey = "DB_DIALECT"
	EnvDBHost           EnvKey = "DB_HOST"
	EnvDBPort           EnvKey = "DB_PORT"
	EnvDBName           EnvKey = "DB_NAME"
	EnvDBUser           EnvKey = "DB_USER"
	EnvDBPass           EnvKey = "DB_PASSWORD"
	EnvDBSSLMode        EnvKey = "DB_SSLMODE"
	EnvDBConnectTimeout EnvKey = "DB_CONNECT_TIMEOUT"

	EnvRedisAddr     EnvKey = "REDIS_ADDR"
	EnvRedisPassword EnvKey = "REDIS_PASSWORD"
	EnvRedisDB       EnvKey = "REDIS_DB"

	EnvMQTTEmbedBroker EnvKey = "MQTT_EMBED_BROKER"
	EnvMQTTBrokerPort  EnvKey = "MQTT_SERVER_PORT"

	EnvMQTTBroker       EnvKey = "MQTT_BROKER"
	EnvMQTTClientID     EnvKey = "MQTT_CLIENT_ID"
	EnvMQTTUsername     EnvKey = "MQTT_USERNAME"
	EnvMQTTPassword     EnvKey = "MQTT_PASSWORD"
	EnvMQTTSensorTopic  EnvKey = "MQTT_SENSOR_TOPIC"
	EnvMQTTCommandTopic EnvKey = "MQTT_COMMAND_TOPIC"
	EnvMQTTFailFast     EnvKey = "MQTT_FAIL_FAST"

	EnvPumpMode        EnvKey = "PUMP_MODE"
	EnvPulseDuration   EnvKey = "PULSE_DURATION"
	EnvIngestQueueSize EnvKey = "INGEST_QUEUE_SIZE"
	EnvSeedDemoData    EnvKey = "SEED_DEMO_DATA"

	EnvWeatherAPIURL  EnvKey = "WEATHER_API_URL"
	EnvWeatherAPIKey  EnvKey = "WEATHER_API_KEY"
	EnvWeatherQuery   EnvKey = "WEATHER_QUERY"
	EnvWeatherTimeout EnvKey = "WEATHER_TIMEOUT"

	EnvRelayPort  EnvKey = "RELAY_PORT"
	EnvRelayTopic EnvKey = "RELAY_TOPIC"
)

const (
	DefaultSensorTopic  = "kebun/data"
	DefaultCommandTopic = "kebun/pompa"
	DefaultRelayTopic   = "sensors/drone01/altitude"
)

type Config struct {
	Port      int
	Generate  bool
	DataDir   string
	LogLevel  slog.Leveler
	LogOutput io.Writer

	// Reading store
	Dialect          dialect.Dialect
	Database         string
	DBConnectTimeout time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Embedded MQTT broker
	MQTTEmbedBroker bool
	MQTTBrokerPort  int

	// MQTT client
	MQTTBroker       string
	MQTTClientID     string
	MQTTUsername     string
	MQTTPassword     string
	MQTTSensorTopic  string
	MQTTCommandTopic string
	MQTTFailFast     bool

	// Irrigation
	PumpMode        irrigation.PumpMode
	PulseDuration   time.Duration
	IngestQueueSize int
	SeedDemoData    bool

	// Rainfall enrichment. Disabled when WeatherAPIKey is empty.
	WeatherAPIURL  string
	WeatherAPIKey  string
	WeatherQuery   string
	WeatherTimeout time.Duration
}

func New() (*Config, error) {
	// Get data directory
	dataDir := getStringEnv(EnvDataDir, "data")

	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logOutput, err := getLogOutput(dataDir)
	if err != nil {
		return nil, err
	}

	dbDialect := dialect.Dialect(strings.ToLower(getStringEnv(EnvDBDialect, string(dialect.SQLite))))
	if err := dbDialect.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database dialect: %w", err)
	}

	// Build database connection string based on dialect
	var dbConnString string

	switch dbDialect {
	case dialect.SQLite:
		dbConnString = filepath.Join(dataDir, "irrigation.db")
	case dialect.PostgreSQL:
		host := getStringEnv(EnvDBHost, "localhost")
		port := getIntEnv(EnvDBPort, 5432)
		dbName := getStringEnv(EnvDBName, "irrigation")
		user := getStringEnv(EnvDBUser, "irrigation")
		password := getStringEnv(EnvDBPass, "")
		sslmode := getStringEnv(EnvDBSSLMode, "disable")

		dbConnString = fmt.Sprintf(
			"postgresql://%s:%s@%s/%s?sslmode=%s",
			url.QueryEscape(user),
			url.QueryEscape(password),
			net.JoinHostPort(host, strconv.Itoa(port)),
			dbName, sslmode,
		)
	case dialect.Memory:
		dbConnString = ""
	}

	pumpMode, err := irrigation.ParsePumpMode(getStringEnv(EnvPumpMode, string(irrigation.PumpModePulse)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvPumpMode, err)
	}

	weatherTimeout := getDurationEnv(EnvWeatherTimeout, irrigation.DefaultRainfallTimeout)
	if weatherTimeout <= 0 || weatherTimeout > irrigation.DefaultRainfallTimeout {
		weatherTimeout = irrigation.DefaultRainfallTimeout
	}

	queueSize := getIntEnv(EnvIngestQueueSize, irrigation.DefaultQueueSize)
	if queueSize < 1 {
		queueSize = irrigation.DefaultQueueSize
	}

	pulse := getDurationEnv(EnvPulseDuration, irrigation.DefaultPulseDuration)
	if pulse <= 0 {
		pulse = irrigation.DefaultPulseDuration
	}

	return &Config{
		Port:             getIntEnv(EnvPort, 8080),
		Generate:         getBoolEnv(EnvGenerate, false),
		DataDir:          dataDir,
		LogLevel:         getLogLevelEnv(EnvLogLevel, slog.LevelInfo),
		LogOutput:        logOutput,
		Dialect:          dbDialect,
		Database:         dbConnString,
		DBConnectTimeout: getDurationEnv(EnvDBConnectTimeout, store.DefaultConnectTimeout),
		RedisAddr:        getStringEnv(EnvRedisAddr, ""),
		RedisPassword:    getStringEnv(EnvRedisPassword, ""),
		RedisDB:          getIntEnv(EnvRedisDB, 0),
		MQTTEmbedBroker:  getBoolEnv(EnvMQTTEmbedBroker, false),
		MQTTBrokerPort:   getIntEnv(EnvMQTTBrokerPort, 1883),
		MQTTBroker:       getStringEnv(EnvMQTTBroker, "tcp://127.0.0.1:1883"),
		MQTTClientID:     getStringEnv(EnvMQTTClientID, "irrigation-monitor-server"),
		MQTTUsername:     getStringEnv(EnvMQTTUsername, ""),
		MQTTPassword:     getStringEnv(EnvMQTTPassword, ""),
		MQTTSensorTopic:  getStringEnv(EnvMQTTSensorTopic, DefaultSensorTopic),
		MQTTCommandTopic: getStringEnv(EnvMQTTCommandTopic, DefaultCommandTopic),
		MQTTFailFast:     getBoolEnv(EnvMQTTFailFast, true),
		PumpMode:         pumpMode,
		PulseDuration:    pulse,
		IngestQueueSize:  queueSize,
		SeedDemoData:     getBoolEnv(EnvSeedDemoData, false),
		WeatherAPIURL:    getStringEnv(EnvWeatherAPIURL, weather.DefaultBaseURL),
		WeatherAPIKey:    getStringEnv(EnvWeatherAPIKey, ""),
		WeatherQuery:     getStringEnv(EnvWeatherQuery, weather.DefaultQuery),
		WeatherTimeout:   weatherTimeout,
	}, nil
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Dialect:        c.Dialect,
		DSN:            c.Database,
		RedisAddr:      c.RedisAddr,
		RedisPassword:  c.RedisPassword,
		RedisDB:        c.RedisDB,
		ConnectTimeout: c.DBConnectTimeout,
	}
}

// WeatherEnabled reports whether rainfall enrichment is configured.
func (c *Config) WeatherEnabled() bool {
	return c.WeatherAPIKey != ""
}

func (c *Config) Close() error {
	return closeLogOutput(c.LogOutput)
}

// RelayConfig configures the altitude relay binary.
type RelayConfig struct {
	Port      int
	LogLevel  slog.Leveler
	LogOutput io.Writer

	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	Topic        string
}

func NewRelay() (*RelayConfig, error) {
	dataDir := getStringEnv(EnvDataDir, "data")
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logOutput, err := getLogOutput(dataDir)
	if err != nil {
		return nil, err
	}

	return &RelayConfig{
		Port:         getIntEnv(EnvRelayPort, 5000),
		LogLevel:     getLogLevelEnv(EnvLogLevel, slog.LevelInfo),
		LogOutput:    logOutput,
		MQTTBroker:   getStringEnv(EnvMQTTBroker, "tcp://127.0.0.1:1883"),
		MQTTClientID: getStringEnv(EnvMQTTClientID, "irrigation-monitor-relay"),
		MQTTUsername: getStringEnv(EnvMQTTUsername, ""),
		MQTTPassword: getStringEnv(EnvMQTTPassword, ""),
		Topic:        getStringEnv(EnvRelayTopic, DefaultRelayTopic),
	}, nil
}

func (c *RelayConfig) Close() error {
	return closeLogOutput(c.LogOutput)
}

func getLogOutput(dataDir string) (io.Writer, error) {
	if !getBoolEnv(EnvLogToFile, false) {
		return os.Stdout, nil
	}

	f, err := os.OpenFile(filepath.Join(dataDir, "app.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return f, nil
}

func closeLogOutput(w io.Writer) error {
	if f, ok := w.(*os.File); ok {
		if f != os.Stdout && f != os.Stderr {
			return f.Close()
		}
	}

	return nil
}

func getStringEnv(key EnvKey, defaultVal string) string {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	return val
}

func getBoolEnv(key EnvKey, defaultVal bool) bool {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	val = strings.ToLower(val)
	switch val {
	case "true", "1":
		return true
	default:
		return false
	}
}

func getIntEnv(key EnvKey, defaultVal int) int {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if intVal, err := strconv.Atoi(val); err == nil {
		return intVal
	}

	return defaultVal
}

// getDurationEnv accepts Go durations ("2s", "500ms") or a bare number of seconds.
func getDurationEnv(key EnvKey, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if d, err := time.ParseDuration(val); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}

func getLogLevelEnv(key EnvKey, defaultVal slog.Leveler) slog.Leveler {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	switch strings.ToUpper(val) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}

	return defaultVal
}
