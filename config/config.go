package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Scoring  ScoringConfig
	Routing  RoutingConfig
	OneClick OneClickConfig
	Logging  LoggingConfig
}

// ScoringConfig controls route scoring and comparison
type ScoringConfig struct {
	// Normalization ceilings used when user preferences supply no maximum.
	// MaxCostCeiling is in canonical smallest units of the quote currency.
	MaxCostCeiling    float64
	MaxLatencySeconds float64

	// Criterion weights; by convention they sum to 1.0 but this is not enforced.
	WeightPrivacy float64
	WeightCost    float64
	WeightLatency float64
	WeightTrust   float64

	// Strategy selects the comparator: "weighted" or "privacy-first".
	Strategy string
}

// RoutingConfig controls discovery and revalidation behaviour
type RoutingConfig struct {
	RouterTimeout   time.Duration // per-router discovery timeout
	MaxRetries      int           // re-discovery attempts after a failed refresh
	TopN            int           // how many ranked routes to surface
	QuoteTTL        time.Duration // lifetime of locally synthesized quotes
	AllowCrossChain bool          // permit SEND intents across chains
}

// OneClickConfig holds credentials for the 1Click execution provider
type OneClickConfig struct {
	JWTToken string
	BaseURL  string
}

// LoggingConfig controls structured logging settings
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".chainroute")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("scoring.max_cost_ceiling", 1_000_000.0)
	viper.SetDefault("scoring.max_latency_seconds", 3600.0)
	viper.SetDefault("scoring.weight_privacy", 0.4)
	viper.SetDefault("scoring.weight_cost", 0.2)
	viper.SetDefault("scoring.weight_latency", 0.2)
	viper.SetDefault("scoring.weight_trust", 0.2)
	viper.SetDefault("scoring.strategy", "weighted")
	viper.SetDefault("routing.router_timeout", "5s")
	viper.SetDefault("routing.max_retries", 2)
	viper.SetDefault("routing.top_n", 5)
	viper.SetDefault("routing.quote_ttl", "60s")
	viper.SetDefault("routing.allow_cross_chain", false)
	viper.SetDefault("oneclick.base_url", "https://1click.chaindefuser.com")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Read from environment variables; nested keys map dots to underscores,
	// so oneclick.jwt_token binds to CHAINROUTE_ONECLICK_JWT_TOKEN.
	viper.SetEnvPrefix("CHAINROUTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Scoring: ScoringConfig{
			MaxCostCeiling:    viper.GetFloat64("scoring.max_cost_ceiling"),
			MaxLatencySeconds: viper.GetFloat64("scoring.max_latency_seconds"),
			WeightPrivacy:     viper.GetFloat64("scoring.weight_privacy"),
			WeightCost:        viper.GetFloat64("scoring.weight_cost"),
			WeightLatency:     viper.GetFloat64("scoring.weight_latency"),
			WeightTrust:       viper.GetFloat64("scoring.weight_trust"),
			Strategy:          viper.GetString("scoring.strategy"),
		},
		Routing: RoutingConfig{
			RouterTimeout:   viper.GetDuration("routing.router_timeout"),
			MaxRetries:      viper.GetInt("routing.max_retries"),
			TopN:            viper.GetInt("routing.top_n"),
			QuoteTTL:        viper.GetDuration("routing.quote_ttl"),
			AllowCrossChain: viper.GetBool("routing.allow_cross_chain"),
		},
		OneClick: OneClickConfig{
			JWTToken: viper.GetString("oneclick.jwt_token"),
			BaseURL:  viper.GetString("oneclick.base_url"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Scoring.MaxCostCeiling <= 0 {
		return fmt.Errorf("scoring.max_cost_ceiling must be greater than 0")
	}
	if c.Scoring.MaxLatencySeconds <= 0 {
		return fmt.Errorf("scoring.max_latency_seconds must be greater than 0")
	}
	if c.Routing.RouterTimeout <= 0 {
		return fmt.Errorf("routing.router_timeout must be greater than 0")
	}
	if c.Routing.MaxRetries < 0 {
		return fmt.Errorf("routing.max_retries cannot be negative")
	}
	if c.Routing.TopN <= 0 {
		return fmt.Errorf("routing.top_n must be greater than 0")
	}
	return nil
}
