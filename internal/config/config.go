// Package config loads the process settings from environment variables and the
// optional routes file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"routewatch/internal/models"
	"routewatch/internal/storage"
	"routewatch/pkg/log"
	"routewatch/pkg/routing"
)

// Settings is built once by Load and handed to constructors by value.
type Settings struct {
	Storage StorageSettings
	Routing RoutingSettings
	Kafka   KafkaSettings

	// DatabaseURL is the Postgres connection string of the snapshot catalog.
	DatabaseURL string

	// HTTPAddr is the listen address of the dashboard and of the indexer's
	// metrics endpoint.
	HTTPAddr string

	// RoutesFile replaces the built-in routes when set.
	RoutesFile string

	LogLevel  string
	LogFormat string
}

// StorageSettings locates the bucket holding the snapshots.
type StorageSettings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Prefix    string
}

// RoutingSettings configures the routing API client.
type RoutingSettings struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// KafkaSettings locates the topic carrying bucket notifications.
type KafkaSettings struct {
	Broker  string
	Topic   string
	GroupID string
}

var defaults = map[string]any{
	"routes_bucket_name": "traffic-monitoring-data-lake",
	"routes_region":      "eu-north-1",
	"routes_prefix":      "routes/",
	"tomtom_base_url":    routing.DefaultBaseURL,
	"routing_timeout":    "30s",
	"minio_use_ssl":      false,
	"http_addr":          ":8501",
	"log_level":          "info",
	"log_format":         "console",
}

// Load reads the settings from the environment. Empty variables count as unset.
// Only the storage credentials are required here; each binary checks its own
// extra requirements with RequireIngest or RequireIndexer.
func Load() (Settings, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	timeout, err := parseDuration(v.GetString("routing_timeout"))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid ROUTING_TIMEOUT: %w", err)
	}

	s := Settings{
		Storage: StorageSettings{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			UseSSL:    v.GetBool("minio_use_ssl"),
			Region:    v.GetString("routes_region"),
			Bucket:    v.GetString("routes_bucket_name"),
			Prefix:    v.GetString("routes_prefix"),
		},
		Routing: RoutingSettings{
			APIKey:  v.GetString("tomtom_api_key"),
			BaseURL: v.GetString("tomtom_base_url"),
			Timeout: timeout,
		},
		Kafka: KafkaSettings{
			Broker:  v.GetString("kafka_broker"),
			Topic:   v.GetString("kafka_topic"),
			GroupID: v.GetString("kafka_group_id"),
		},
		DatabaseURL: v.GetString("database_url"),
		HTTPAddr:    v.GetString("http_addr"),
		RoutesFile:  v.GetString("routes_file"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
	}

	var missing []string
	if s.Storage.Endpoint == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}
	if s.Storage.AccessKey == "" {
		missing = append(missing, "MINIO_ACCESS_KEY")
	}
	if s.Storage.SecretKey == "" {
		missing = append(missing, "MINIO_SECRET_KEY")
	}
	if len(missing) > 0 {
		return Settings{}, missingError(missing)
	}

	return s, nil
}

// RequireIngest checks the settings only the ingestor needs.
func (s Settings) RequireIngest() error {
	if s.Routing.APIKey == "" {
		return missingError([]string{"TOMTOM_API_KEY"})
	}
	return nil
}

// RequireIndexer checks the settings only the indexer needs.
func (s Settings) RequireIndexer() error {
	var missing []string
	if s.Kafka.Broker == "" {
		missing = append(missing, "KAFKA_BROKER")
	}
	if s.Kafka.Topic == "" {
		missing = append(missing, "KAFKA_TOPIC")
	}
	if s.Kafka.GroupID == "" {
		missing = append(missing, "KAFKA_GROUP_ID")
	}
	if s.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return missingError(missing)
	}
	return nil
}

// StorageOptions converts the storage settings into client options.
func (s Settings) StorageOptions() storage.Options {
	return storage.Options{
		Endpoint:  s.Storage.Endpoint,
		AccessKey: s.Storage.AccessKey,
		SecretKey: s.Storage.SecretKey,
		UseSSL:    s.Storage.UseSSL,
		Region:    s.Storage.Region,
	}
}

// LogOptions returns logger options seeded from LOG_LEVEL and LOG_FORMAT.
// Command-line flags bound afterwards take precedence.
func (s Settings) LogOptions() *log.Options {
	opts := log.NewOptions()
	opts.Level = s.LogLevel
	opts.Format = s.LogFormat
	return opts
}

// Routes returns the routes of RoutesFile, or the built-in set when it is unset.
func (s Settings) Routes() ([]models.RouteDescriptor, error) {
	if s.RoutesFile == "" {
		return models.DefaultRoutes(), nil
	}
	return LoadRoutes(s.RoutesFile)
}

type routesFile struct {
	Routes []models.RouteDescriptor `mapstructure:"routes"`
}

// LoadRoutes reads a YAML or JSON file with a top-level "routes" list. Every
// route must be valid and names must be unique, since the name selects the
// storage folder.
func LoadRoutes(path string) ([]models.RouteDescriptor, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read routes file %q: %w", path, err)
	}

	var f routesFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("failed to decode routes file %q: %w", path, err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("routes file %q defines no routes", path)
	}

	seen := make(map[string]bool, len(f.Routes))
	for _, r := range f.Routes {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("routes file %q: %w", path, err)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("routes file %q: duplicate route %q", path, r.Name)
		}
		seen[r.Name] = true
	}
	return f.Routes, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func missingError(names []string) error {
	return fmt.Errorf("required environment variables not set: %s", strings.Join(names, ", "))
}
