// Package config contains the relayer node configuration definitions.
package config

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/dispatcher"
)

const (
	defaultDataDirName = "relaymesh"
	dbFileName         = "state.sql"
)

// Config defines the top level configuration for a relayer node.
type Config struct {
	BaseConfig   `mapstructure:"main"`
	Tracker      TrackerConfig       `mapstructure:"tracker"`
	Quorum       QuorumConfig        `mapstructure:"quorum"`
	Dispatcher   dispatcher.Config   `mapstructure:"dispatcher"`
	Destinations []DestinationConfig `mapstructure:"destinations"`
	LOGGING      LoggerConfig        `mapstructure:"logging"`
}

// BaseConfig defines the default configuration options for the node.
type BaseConfig struct {
	DataDir    string `mapstructure:"data-folder"`
	ConfigFile string `mapstructure:"config"`

	// OriginDomain is the domain identifier of the chain whose message
	// tree this node replicates.
	OriginDomain uint32 `mapstructure:"origin-domain"`

	CollectMetrics bool `mapstructure:"metrics"`
	MetricsPort    int  `mapstructure:"metrics-port"`
}

// LoggerConfig holds the logging configuration.
type LoggerConfig struct {
	Level   string `mapstructure:"level"`
	Encoder string `mapstructure:"encoder"`
}

// TrackerConfig holds the origin-chain polling configuration.
type TrackerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	RateLimit float64       `mapstructure:"rate-limit"`
	RateBurst int           `mapstructure:"rate-burst"`
}

// QuorumConfig holds the validator set configuration.
type QuorumConfig struct {
	// Threshold is the number of distinct validator signatures required
	// to authorize delivery.
	Threshold int `mapstructure:"threshold"`
	// Validators are the authorized validator public keys, hex encoded.
	Validators []string `mapstructure:"validators"`
	// Prefix is the protocol identifier mixed into signed digests.
	Prefix string `mapstructure:"prefix"`
	// CacheSize bounds the fetched-checkpoint cache.
	CacheSize int `mapstructure:"cache-size"`
}

// DestinationConfig configures delivery to one destination chain.
type DestinationConfig struct {
	Domain uint32 `mapstructure:"domain"`
	// Signer is the address submitting on this destination, hex encoded.
	Signer string `mapstructure:"signer"`
}

// DefaultConfig returns the default node configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfig: BaseConfig{
			DataDir:     defaultDataDirName,
			MetricsPort: 9090,
		},
		Tracker: TrackerConfig{
			Interval:  5 * time.Second,
			RateLimit: 10,
			RateBurst: 1,
		},
		Quorum: QuorumConfig{
			Threshold: 1,
			CacheSize: 1024,
		},
		Dispatcher: dispatcher.DefaultConfig(),
		LOGGING: LoggerConfig{
			Level:   "info",
			Encoder: "console",
		},
	}
}

// DatabasePath returns the sqlite file the node persists its state to.
func (cfg *Config) DatabasePath() string {
	return filepath.Join(cfg.DataDir, dbFileName)
}

// ValidatorIDs parses the configured validator public keys.
func (q *QuorumConfig) ValidatorIDs() ([]types.ValidatorID, error) {
	ids := make([]types.ValidatorID, 0, len(q.Validators))
	for _, raw := range q.Validators {
		decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse validator %q: %w", raw, err)
		}
		if len(decoded) != types.ValidatorIDSize {
			return nil, fmt.Errorf("parse validator %q: wrong length %d", raw, len(decoded))
		}
		var id types.ValidatorID
		copy(id[:], decoded)
		ids = append(ids, id)
	}
	return ids, nil
}

// SignerAddress parses the configured signer address.
func (d *DestinationConfig) SignerAddress() (types.Address, error) {
	return types.StringToAddress(d.Signer)
}

// LoadConfig loads a configuration file into cfg, leaving defaults in
// place for everything the file does not mention. An empty path means
// defaults only.
func LoadConfig(path string, cfg *Config) error {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := vip.Unmarshal(cfg, hook); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
