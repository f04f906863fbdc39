// Package config loads baliusd's configuration the way
// pkg/config/config.go loads Synnergy's: a YAML file plus environment
// overrides unmarshaled through viper into a single struct, restructured
// around the runtime's own sections instead of network/consensus/vm.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the unified baliusd configuration.
type Config struct {
	Store struct {
		Path string `mapstructure:"path" json:"path"`
	} `mapstructure:"store" json:"store"`

	Logging struct {
		Level  string `mapstructure:"level" json:"level"`
		Format string `mapstructure:"format" json:"format"`
	} `mapstructure:"logging" json:"logging"`

	Metrics struct {
		Enabled    bool   `mapstructure:"enabled" json:"enabled"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"metrics" json:"metrics"`

	Capabilities struct {
		KV struct {
			Backend string `mapstructure:"backend" json:"backend"` // memory | pogreb | sql
			Path    string `mapstructure:"path" json:"path"`
			DSN     string `mapstructure:"dsn" json:"dsn"`
		} `mapstructure:"kv" json:"kv"`

		Logger struct {
			Backend string `mapstructure:"backend" json:"backend"` // silent | tracing | file | sql
			Path    string `mapstructure:"path" json:"path"`
			DSN     string `mapstructure:"dsn" json:"dsn"`
		} `mapstructure:"logger" json:"logger"`

		Signer struct {
			Backend string            `mapstructure:"backend" json:"backend"` // in_memory
			Keys    map[string]string `mapstructure:"keys" json:"keys"`       // "workerID/keyName" -> hex secret
		} `mapstructure:"signer" json:"signer"`

		Ledger struct {
			Backend string `mapstructure:"backend" json:"backend"` // mock | grpc
			Target  string `mapstructure:"target" json:"target"`
			Service string `mapstructure:"service" json:"service"`
		} `mapstructure:"ledger" json:"ledger"`

		Submit struct {
			Backend  string `mapstructure:"backend" json:"backend"` // mock | http
			Endpoint string `mapstructure:"endpoint" json:"endpoint"`
		} `mapstructure:"submit" json:"submit"`

		HTTP struct {
			Enabled        bool `mapstructure:"enabled" json:"enabled"`
			TimeoutSeconds int  `mapstructure:"timeout_seconds" json:"timeout_seconds"`
		} `mapstructure:"http" json:"http"`
	} `mapstructure:"capabilities" json:"capabilities"`

	Workers []WorkerConfig `mapstructure:"workers" json:"workers"`
}

// WorkerConfig names a worker to register at startup.
type WorkerConfig struct {
	ID     string `mapstructure:"id" json:"id"`
	URL    string `mapstructure:"url" json:"url"`
	Config string `mapstructure:"config" json:"config"` // raw JSON passed to init
}

// Load reads baliusd.yaml (if present) plus environment overrides into a
// Config, matching pkg/config.Load's .env-then-yaml-then-env precedence.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("baliusd")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/baliusd")
	}
	v.SetEnvPrefix("BALIUS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An explicit configPath that does not exist surfaces as a plain
		// fs.ErrNotExist rather than viper.ConfigFileNotFoundError.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./balius.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9090"
	}
	return &cfg, nil
}
