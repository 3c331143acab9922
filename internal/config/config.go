// Package config loads and validates the ingestion pipeline's
// configuration, following the teacher CLI's own layering: compiled-in
// defaults, then an optional TOML file, then repeatable --config-opt
// key=value overrides, each layer strictly higher priority than the
// last.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hepdata/collider-ingest/internal/kvflag"
	"github.com/hepdata/collider-ingest/internal/pipeline"
)

// Config is the fully resolved, validated configuration for one
// ingestion run.
type Config struct {
	SeedBrokers []string `toml:"seed_brokers"`

	ProducerCount   int     `toml:"producer_count"`
	ConsumerCount   int     `toml:"consumer_count"`
	BufferCapacity  int     `toml:"buffer_capacity"`
	BatchSize       int     `toml:"batch_size"`
	EnergyThreshold float64 `toml:"energy_threshold_gev"`

	OfferTimeoutMillis int `toml:"offer_timeout_ms"`
	TakeTimeoutMillis  int `toml:"take_timeout_ms"`
	AbortGraceMillis   int `toml:"abort_grace_ms"`

	DatabaseDSN      string `toml:"database_dsn"`
	DatabaseDSNSecret string `toml:"database_dsn_secret_arn"`

	DeadLetterEnabled bool   `toml:"dead_letter_enabled"`
	DeadLetterTopic   string `toml:"dead_letter_topic"`

	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
	ReportFormat string `toml:"report_format"`

	TLSCACert         string `toml:"tls_ca_cert_path"`
	TLSClientCertPath string `toml:"tls_client_cert_path"`
	TLSClientKeyPath  string `toml:"tls_client_key_path"`
	TLSServerName     string `toml:"tls_server_name"`
}

// Default returns the compiled-in defaults, the lowest-priority layer.
func Default() Config {
	d := pipeline.DefaultConfig()
	return Config{
		SeedBrokers:        []string{"localhost:9092"},
		ProducerCount:      d.ProducerCount,
		ConsumerCount:      d.ConsumerCount,
		BufferCapacity:     d.BufferCapacity,
		BatchSize:          d.BatchSize,
		EnergyThreshold:    d.EnergyThreshold,
		OfferTimeoutMillis: int(d.OfferTimeout / time.Millisecond),
		TakeTimeoutMillis:  int(d.TakeTimeout / time.Millisecond),
		AbortGraceMillis:   int(d.AbortGrace / time.Millisecond),
		LogLevel:           "info",
		ReportFormat:       pipeline.DefaultFormat,
	}
}

// Load resolves a Config from, in ascending priority: the compiled-in
// defaults, the TOML file at path (skipped entirely if path is empty
// or skipFile is true), and finally overrides, each a "key=value" pair
// in the same vocabulary as the TOML field names.
func Load(path string, skipFile bool, overrides []string) (Config, error) {
	cfg := Default()

	if !skipFile && path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: decode %q: %w", path, err)
			}
		} else if len(md.Undecoded()) > 0 {
			return Config{}, fmt.Errorf("%w: unknown keys in %q: %v", pipeline.ErrConfiguration, path, md.Undecoded())
		}
	}

	pairs, err := kvflag.Parse(overrides)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	for _, kv := range pairs {
		if err := cfg.applyOverride(kv); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyOverride(kv kvflag.KV) error {
	k, v := kv.K, kv.V

	var err error
	switch k {
	default:
		err = fmt.Errorf("%w: unknown override key %q", pipeline.ErrConfiguration, k)
	case "seed_brokers":
		err = intoStrSlice(v, &c.SeedBrokers)
	case "producer_count":
		c.ProducerCount, err = strconv.Atoi(v)
	case "consumer_count":
		c.ConsumerCount, err = strconv.Atoi(v)
	case "buffer_capacity":
		c.BufferCapacity, err = strconv.Atoi(v)
	case "batch_size":
		c.BatchSize, err = strconv.Atoi(v)
	case "energy_threshold_gev":
		c.EnergyThreshold, err = strconv.ParseFloat(v, 64)
	case "offer_timeout_ms":
		c.OfferTimeoutMillis, err = intoBoundedInt(v)
	case "take_timeout_ms":
		c.TakeTimeoutMillis, err = intoBoundedInt(v)
	case "abort_grace_ms":
		c.AbortGraceMillis, err = intoBoundedInt(v)
	case "database_dsn":
		c.DatabaseDSN = v
	case "database_dsn_secret_arn":
		c.DatabaseDSNSecret = v
	case "dead_letter_enabled":
		c.DeadLetterEnabled, err = strconv.ParseBool(v)
	case "dead_letter_topic":
		c.DeadLetterTopic = v
	case "metrics_addr":
		c.MetricsAddr = v
	case "log_level":
		c.LogLevel = v
	case "report_format":
		c.ReportFormat = v
	case "tls_ca_cert_path":
		c.TLSCACert = v
	case "tls_client_cert_path":
		c.TLSClientCertPath = v
	case "tls_client_key_path":
		c.TLSClientKeyPath = v
	case "tls_server_name":
		c.TLSServerName = v
	}
	return err
}

func intoStrSlice(in string, dst *[]string) error {
	*dst = nil
	for _, on := range strings.Split(in, ",") {
		on = strings.TrimSpace(on)
		if len(on) == 0 {
			return fmt.Errorf("config: invalid empty value in %q", in)
		}
		*dst = append(*dst, on)
	}
	return nil
}

func intoBoundedInt(in string) (int, error) {
	i, err := strconv.Atoi(in)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt32 || i < 0 {
		return 0, fmt.Errorf("config: invalid duration value %s", in)
	}
	return i, nil
}

// Validate reports a ConfigurationError for any field the Coordinator
// would otherwise reject, so misconfiguration is caught before any
// worker is launched.
func (c Config) Validate() error {
	if len(c.DatabaseDSN) == 0 && len(c.DatabaseDSNSecret) == 0 {
		return fmt.Errorf("%w: database_dsn or database_dsn_secret_arn is required", pipeline.ErrConfiguration)
	}
	if c.DeadLetterEnabled && c.DeadLetterTopic == "" {
		return fmt.Errorf("%w: dead_letter_topic is required when dead_letter_enabled", pipeline.ErrConfiguration)
	}
	return c.PipelineConfig().Validate()
}

// PipelineConfig projects Config onto the narrower pipeline.Config the
// Coordinator actually consumes.
func (c Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		ProducerCount:   c.ProducerCount,
		ConsumerCount:   c.ConsumerCount,
		BufferCapacity:  c.BufferCapacity,
		BatchSize:       c.BatchSize,
		EnergyThreshold: c.EnergyThreshold,
		OfferTimeout:    time.Duration(c.OfferTimeoutMillis) * time.Millisecond,
		TakeTimeout:     time.Duration(c.TakeTimeoutMillis) * time.Millisecond,
		AbortGrace:      time.Duration(c.AbortGraceMillis) * time.Millisecond,
	}
}
