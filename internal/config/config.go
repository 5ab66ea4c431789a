// Package config loads seatsync.cfg.json through viper and exposes typed
// views of its sections.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "seatsync.cfg.json"

// MemoryConfig holds the in-memory recorder's export settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// WebsocketConfig holds the relay sink settings.
type WebsocketConfig struct {
	URL       string `json:"url" mapstructure:"url"`
	Secret    string `json:"secret" mapstructure:"secret"`
	QueueSize int    `json:"queueSize" mapstructure:"queueSize"`
}

// JournalConfig holds the packet journal settings.
type JournalConfig struct {
	Driver        string        `json:"driver" mapstructure:"driver"`
	Path          string        `json:"path" mapstructure:"path"`
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// TransportConfig selects and configures the packet sinks.
type TransportConfig struct {
	Sinks     []string        `json:"sinks" mapstructure:"sinks"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	Websocket WebsocketConfig `json:"websocket" mapstructure:"websocket"`
	Journal   JournalConfig   `json:"journal" mapstructure:"journal"`
}

// DBConfig holds the Postgres connection used by the journal's postgres
// driver.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// DSN renders the connection string for the postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// InfluxConfig holds mode-change telemetry settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL is the server address assembled from protocol, host and port.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled       bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName   string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout  time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint      string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure      bool          `json:"insecure" mapstructure:"insecure"`
	TraceEndpoint string        `json:"traceEndpoint" mapstructure:"traceEndpoint"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./seatlogs")
	viper.SetDefault("enableThirdPersonView", false)
	viper.SetDefault("protocol.angleStep", 360.0/256.0)

	viper.SetDefault("transport.sinks", []string{"memory"})
	viper.SetDefault("transport.memory.outputDir", "./captures")
	viper.SetDefault("transport.memory.compressOutput", true)
	viper.SetDefault("transport.websocket.url", "ws://localhost:5000/ingest")
	viper.SetDefault("transport.websocket.secret", "")
	viper.SetDefault("transport.websocket.queueSize", 4096)
	viper.SetDefault("transport.journal.driver", "sqlite")
	viper.SetDefault("transport.journal.path", "./seatsync.journal.db")
	viper.SetDefault("transport.journal.batchSize", 256)
	viper.SetDefault("transport.journal.flushInterval", "1s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "seatsync")
	viper.SetDefault("db.sslMode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "seatsync")
	viper.SetDefault("influx.bucket", "seat_modes")
	viper.SetDefault("influx.backupPath", "./seatsync.influx.gz")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "seatsync")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.traceEndpoint", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// LoadDefaults applies the defaults without reading a file.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetAngleStep returns the view-rotation granularity. Non-positive values
// disable quantization.
func GetAngleStep() float64 {
	return viper.GetFloat64("protocol.angleStep")
}

func GetTransportConfig() TransportConfig {
	return TransportConfig{
		Sinks: viper.GetStringSlice("transport.sinks"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("transport.memory.outputDir"),
			CompressOutput: viper.GetBool("transport.memory.compressOutput"),
		},
		Websocket: WebsocketConfig{
			URL:       viper.GetString("transport.websocket.url"),
			Secret:    viper.GetString("transport.websocket.secret"),
			QueueSize: viper.GetInt("transport.websocket.queueSize"),
		},
		Journal: JournalConfig{
			Driver:        viper.GetString("transport.journal.driver"),
			Path:          viper.GetString("transport.journal.path"),
			BatchSize:     viper.GetInt("transport.journal.batchSize"),
			FlushInterval: viper.GetDuration("transport.journal.flushInterval"),
		},
	}
}

func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslMode"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:       viper.GetBool("otel.enabled"),
		ServiceName:   viper.GetString("otel.serviceName"),
		BatchTimeout:  viper.GetDuration("otel.batchTimeout"),
		Endpoint:      viper.GetString("otel.endpoint"),
		Insecure:      viper.GetBool("otel.insecure"),
		TraceEndpoint: viper.GetString("otel.traceEndpoint"),
	}
}

// GetSeatNodes returns one viper node per entry of the "seats" array, in
// order. Entries that are not objects are skipped.
func GetSeatNodes() []*viper.Viper {
	raw, ok := viper.Get("seats").([]any)
	if !ok {
		return nil
	}
	var nodes []*viper.Viper
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		v := viper.New()
		if err := v.MergeConfigMap(m); err != nil {
			continue
		}
		nodes = append(nodes, v)
	}
	return nodes
}
