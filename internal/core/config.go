// Package core provides configuration management for the GreenOps planner
package core

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/namansh70747/greenops-planner/internal/catalog"
)

// Config holds all planner configuration with validation
type Config struct {
	App struct {
		Name      string `yaml:"name"`
		Version   string `yaml:"version"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"app"`

	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		GracefulTimeout time.Duration `yaml:"graceful_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Enabled        bool   `yaml:"enabled"`
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		DBName         string `yaml:"dbname"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Carbon struct {
		Provider string        `yaml:"provider"` // electricitymaps | prometheus | static
		Timeout  time.Duration `yaml:"timeout"`

		ElectricityMaps struct {
			BaseURL string `yaml:"base_url"`
			Token   string `yaml:"token"`
		} `yaml:"electricity_maps"`

		Prometheus struct {
			URL    string `yaml:"url"`
			Metric string `yaml:"metric"`
		} `yaml:"prometheus"`

		Fallback map[string]float64 `yaml:"fallback"`
	} `yaml:"carbon"`

	Estimation struct {
		PowerPerReplicaKW float64 `yaml:"power_per_replica_kw"`
		USDToINR          float64 `yaml:"usd_to_inr"`
	} `yaml:"estimation"`

	Planner struct {
		MinReplicas          int     `yaml:"min_replicas"`
		StrictLatencyFactor  float64 `yaml:"strict_latency_factor"`
		RelaxedLatencyFactor float64 `yaml:"relaxed_latency_factor"`
	} `yaml:"planner"`

	Kubernetes struct {
		Deploy     bool   `yaml:"deploy"`
		Namespace  string `yaml:"namespace"`
		Image      string `yaml:"image"`
		Kubeconfig string `yaml:"kubeconfig"`
	} `yaml:"kubernetes"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Regions []catalog.Region `yaml:"regions"`
}

// Default returns a configuration usable without any file: in-memory event log,
// static carbon data, documented estimation constants.
func Default() *Config {
	var c Config
	c.App.Name = "greenops-planner"
	c.App.Version = "0.1.0"
	c.App.LogLevel = "info"
	c.App.LogFormat = "console"

	c.Server.Address = ":4000"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.GracefulTimeout = 30 * time.Second
	c.Server.AllowedOrigins = []string{"*"}

	c.Database.Host = "localhost"
	c.Database.Port = 5432
	c.Database.User = "greenops"
	c.Database.DBName = "greenops"
	c.Database.MaxConnections = 10

	c.Carbon.Provider = "electricitymaps"
	c.Carbon.Timeout = 3 * time.Second
	c.Carbon.ElectricityMaps.BaseURL = "https://api.electricitymap.org"
	c.Carbon.Prometheus.Metric = "grid_carbon_intensity_gco2_per_kwh"

	c.Estimation.PowerPerReplicaKW = 0.1
	c.Estimation.USDToINR = 85

	c.Planner.MinReplicas = 1
	c.Planner.StrictLatencyFactor = 1.5
	c.Planner.RelaxedLatencyFactor = 0.5

	c.Kubernetes.Namespace = "default"
	c.Kubernetes.Image = "nginx:1.25"

	c.Kafka.Topic = "greenops.deployments"
	return &c
}

// LoadConfig reads configuration from a YAML file on top of Default, applies
// environment overrides and validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.ApplyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks if configuration values are valid
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name cannot be empty")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of: debug, info, warn, error")
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server.address cannot be empty")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host cannot be empty")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user cannot be empty")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database.dbname cannot be empty")
		}
		if c.Database.MaxConnections <= 0 {
			return fmt.Errorf("database.max_connections must be positive")
		}
	}

	switch c.Carbon.Provider {
	case "electricitymaps", "static":
	case "prometheus":
		if !strings.HasPrefix(c.Carbon.Prometheus.URL, "http://") && !strings.HasPrefix(c.Carbon.Prometheus.URL, "https://") {
			return fmt.Errorf("carbon.prometheus.url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("carbon.provider must be one of: electricitymaps, prometheus, static")
	}
	if c.Carbon.Timeout <= 0 {
		return fmt.Errorf("carbon.timeout must be positive")
	}
	for zone, v := range c.Carbon.Fallback {
		if !finite(v) || v < 0 {
			return fmt.Errorf("carbon.fallback[%s] must be non-negative", zone)
		}
	}

	if !finite(c.Estimation.PowerPerReplicaKW) || c.Estimation.PowerPerReplicaKW <= 0 {
		return fmt.Errorf("estimation.power_per_replica_kw must be positive")
	}
	if !finite(c.Estimation.USDToINR) || c.Estimation.USDToINR <= 0 {
		return fmt.Errorf("estimation.usd_to_inr must be positive")
	}

	if c.Planner.MinReplicas < 1 {
		return fmt.Errorf("planner.min_replicas must be at least 1")
	}
	if !finite(c.Planner.StrictLatencyFactor) || c.Planner.StrictLatencyFactor < 1 {
		return fmt.Errorf("planner.strict_latency_factor must be >= 1")
	}
	if math.IsNaN(c.Planner.RelaxedLatencyFactor) || c.Planner.RelaxedLatencyFactor <= 0 || c.Planner.RelaxedLatencyFactor > 1 {
		return fmt.Errorf("planner.relaxed_latency_factor must be within (0,1]")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic cannot be empty when kafka is enabled")
		}
	}

	if len(c.Regions) > 0 {
		if _, err := catalog.New(c.Regions); err != nil {
			return fmt.Errorf("regions: %w", err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GREENOPS_SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("GREENOPS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("GREENOPS_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("GREENOPS_DB_ENABLED"); v != "" {
		c.Database.Enabled = parseBool(v)
	}
	if v := os.Getenv("GREENOPS_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("GREENOPS_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("GREENOPS_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("GREENOPS_DB_NAME"); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv("ELECTRICITY_MAPS_TOKEN"); v != "" {
		c.Carbon.ElectricityMaps.Token = v
	}
	if v := os.Getenv("GREENOPS_CARBON_PROVIDER"); v != "" {
		c.Carbon.Provider = v
	}
	if v := os.Getenv("GREENOPS_PROMETHEUS_URL"); v != "" {
		c.Carbon.Prometheus.URL = v
	}
	if v := os.Getenv("GREENOPS_USD_TO_INR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Estimation.USDToINR = f
		}
	}
	if v := os.Getenv("GREENOPS_POWER_PER_REPLICA_KW"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Estimation.PowerPerReplicaKW = f
		}
	}
	if v := os.Getenv("ENABLE_CIVO_DEPLOY"); v != "" {
		c.Kubernetes.Deploy = parseBool(v)
	}
	if v := os.Getenv("GREENOPS_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
}

// GetDatabaseURL returns PostgreSQL connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable&pool_max_conns=%d",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.MaxConnections,
	)
}

// Catalog builds the region catalog, preferring configured regions over the
// built-in table.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	if len(c.Regions) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(c.Regions)
}

// ElectricityMapsEnabled reports whether live carbon data can be requested.
func (c *Config) ElectricityMapsEnabled() bool {
	return c.Carbon.Provider == "electricitymaps" && c.Carbon.ElectricityMaps.Token != ""
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
