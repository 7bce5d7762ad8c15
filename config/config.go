// Package config loads the process-wide configuration for the backbone:
// broker connection details, store paths, registry reload interval, the
// payload cipher key/IV, and the admin token secret/lifetime. Flags layer
// over environment variables (BACKBONE_ prefix, hyphens as underscores), in
// the teacher's pflag style extended with viper. No config file is read.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved process configuration.
type Config struct {
	LogLevel string

	BrokerURL      string
	BrokerClientID string
	BrokerUsername string
	BrokerPassword string

	AuthDBPath   string
	ConfigDBPath string
	DataDBPath   string

	ReloadInterval time.Duration

	CipherKey string
	CipherIV  string

	TokenSecret   string
	TokenLifetime time.Duration

	AdminHost string
}

// Load parses command-line flags, binds them and their environment
// equivalents into viper, and returns the resolved configuration. args
// should be os.Args[1:] in production and a fixed slice in tests.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("backbone", pflag.ContinueOnError)

	flags.String("log-level", "info", "log output level")
	flags.String("broker-url", "tcp://localhost:1883", "MQTT broker URL")
	flags.String("broker-client-id", "landslide-backbone", "MQTT client id")
	flags.String("broker-username", "", "MQTT username")
	flags.String("broker-password", "", "MQTT password")
	flags.String("auth-db", "data/auth", "auth store directory")
	flags.String("config-db", "data/config", "config store directory")
	flags.String("data-db", "data/sensordata", "sensor data store directory")
	flags.Duration("reload-interval", 30*time.Second, "topic registry reconciliation interval")
	flags.String("cipher-key", "", "AES-128 payload decryption key")
	flags.String("cipher-iv", "", "AES-128 payload decryption IV")
	flags.String("token-secret", "", "admin API token signing secret")
	flags.Duration("token-lifetime", 24*time.Hour, "admin API token lifetime")
	flags.String("admin-host", ":8080", "host URL for the admin HTTP surface")

	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("could not parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("backbone")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("could not bind flags: %w", err)
	}

	cfg := Config{
		LogLevel:       v.GetString("log-level"),
		BrokerURL:      v.GetString("broker-url"),
		BrokerClientID: v.GetString("broker-client-id"),
		BrokerUsername: v.GetString("broker-username"),
		BrokerPassword: v.GetString("broker-password"),
		AuthDBPath:     v.GetString("auth-db"),
		ConfigDBPath:   v.GetString("config-db"),
		DataDBPath:     v.GetString("data-db"),
		ReloadInterval: v.GetDuration("reload-interval"),
		CipherKey:      v.GetString("cipher-key"),
		CipherIV:       v.GetString("cipher-iv"),
		TokenSecret:    v.GetString("token-secret"),
		TokenLifetime:  v.GetDuration("token-lifetime"),
		AdminHost:      v.GetString("admin-host"),
	}

	if cfg.CipherKey == "" || cfg.CipherIV == "" {
		return Config{}, fmt.Errorf("cipher-key and cipher-iv are required")
	}

	return cfg, nil
}
