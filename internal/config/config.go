// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"gig-dispatch/internal/domain"
)

// TierConfig is one step of the search ladder as configured. Radius zero
// means the open-marketplace tier.
type TierConfig struct {
	RadiusMiles float64       `mapstructure:"radius_miles"`
	Wait        time.Duration `mapstructure:"wait"`
}

// Config holds all configuration for the dispatcher and worker binaries.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	EtcdEndpoints   []string      `mapstructure:"etcd_endpoints"`
	EtcdTimeout     time.Duration `mapstructure:"etcd_timeout"`
	HttpListenAddr  string        `mapstructure:"http_listen_addr"`
	GrpcListenAddr  string        `mapstructure:"grpc_listen_addr"`
	ElectionTTL     time.Duration `mapstructure:"election_ttl"`
	WorkerLeaseTTL  time.Duration `mapstructure:"worker_lease_ttl"`
	OfferTTL        time.Duration `mapstructure:"offer_ttl"`
	ReservationTTL  time.Duration `mapstructure:"reservation_ttl"`
	JanitorSpec     string        `mapstructure:"janitor_spec"`
	RetentionWindow time.Duration `mapstructure:"retention_window"`
	Tiers           []TierConfig  `mapstructure:"tiers"`
}

// SearchTiers converts the configured ladder into domain tiers.
func (c *Config) SearchTiers() []domain.SearchTier {
	tiers := make([]domain.SearchTier, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		tiers = append(tiers, domain.SearchTier{RadiusMiles: t.RadiusMiles, Wait: t.Wait})
	}
	return tiers
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one search tier must be configured")
	}
	for i, t := range c.Tiers {
		if t.Wait <= 0 {
			return fmt.Errorf("tier %d: wait must be positive", i)
		}
	}
	if c.OfferTTL <= 0 {
		return fmt.Errorf("offer_ttl must be positive")
	}
	if c.ReservationTTL <= 0 {
		return fmt.Errorf("reservation_ttl must be positive")
	}
	if c.WorkerLeaseTTL <= 0 {
		return fmt.Errorf("worker_lease_ttl must be positive")
	}
	return nil
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("etcd_timeout", "5s")
	viper.SetDefault("http_listen_addr", ":8080")
	viper.SetDefault("grpc_listen_addr", ":50052")
	viper.SetDefault("election_ttl", "10s")
	viper.SetDefault("worker_lease_ttl", "15s")
	viper.SetDefault("offer_ttl", "30s")
	viper.SetDefault("reservation_ttl", "120s")
	viper.SetDefault("janitor_spec", "@every 30s")
	viper.SetDefault("retention_window", "24h")
	viper.SetDefault("tiers", []map[string]any{
		{"radius_miles": 2, "wait": "15s"},
		{"radius_miles": 5, "wait": "20s"},
		{"radius_miles": 15, "wait": "30s"},
		{"radius_miles": 0, "wait": "60s"},
	})

	// Set config file details
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Read environment variables
	viper.AutomaticEnv()

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; rely on defaults and env vars.
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
