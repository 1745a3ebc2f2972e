package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-board/internal/weather"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	OpenMeteo OpenMeteoConfig `mapstructure:"open_meteo"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`

	// RefreshIntervalSeconds controls how often all locations are refetched.
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds" validate:"gt=0"`

	// CycleTimeout bounds a single fetch cycle.
	CycleTimeout time.Duration `mapstructure:"cycle_timeout" validate:"gt=0"`

	// Locations to track, in display order.
	Locations []weather.Location `mapstructure:"locations" validate:"required,min=1,dive"`
}

type AppConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	Port     string `mapstructure:"port" validate:"required,numeric"`
}

type OpenMeteoConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Timezone    string        `mapstructure:"timezone" validate:"required"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
}

// MQTTConfig enables the state mirror when Broker is set.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic" validate:"required_with=Broker"`
	ClientID string `mapstructure:"client_id"`
}

// RefreshInterval returns RefreshIntervalSeconds as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

var validate = validator.New()

// Load reads configuration from an optional config.yaml and the environment,
// falling back to the built-in defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/weather-board/")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// PORT is what most hosting platforms set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("APP_PORT") == "" {
		v.Set("app.port", port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if len(cfg.Locations) == 0 {
		cfg.Locations = weather.DefaultLocations()
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "weather-board")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", "8080")

	v.SetDefault("open_meteo.base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("open_meteo.timezone", "Europe/Moscow")
	v.SetDefault("open_meteo.http_timeout", "10s")
	v.SetDefault("open_meteo.max_retries", 0)

	v.SetDefault("refresh_interval_seconds", 1800)
	v.SetDefault("cycle_timeout", "1m")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "weather-board/state")
	v.SetDefault("mqtt.client_id", "")
}
