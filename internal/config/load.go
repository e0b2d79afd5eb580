package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"vdsobench/internal/db"
	"vdsobench/internal/predicate"
	"vdsobench/internal/stress"
)

const EnvPrefix = "VDSOBENCH"

// Load initializes the configuration from .env, an optional YAML file and
// VDSOBENCH_* environment variables. A missing default config file is not an
// error; a missing or unreadable explicit one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("vdsobench")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := SetDefaults(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	slog.Debug("using config file", "path", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers a default for every knob so that environment
// variables resolve even when no config file mentions the key.
func SetDefaults() error {
	viper.SetDefault("verbose", false)

	viper.SetDefault("benchmark.iterations", 1_000_000)
	viper.SetDefault("benchmark.warmup", 10_000)
	viper.SetDefault("benchmark.syscall_iterations", 10_000)
	viper.SetDefault("benchmark.syscall_warmup", 100)

	if err := setStructDefaults("thresholds", predicate.DefaultThresholds()); err != nil {
		return err
	}
	if err := setStructDefaults("stress", stress.DefaultSettings()); err != nil {
		return err
	}

	viper.SetDefault("history.type", "file")
	viper.SetDefault("history.path", db.DefaultFilePath)
	viper.SetDefault("history.dsn", "")

	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("metrics.file", "")

	viper.SetDefault("notify.slack.enabled", false)
	viper.SetDefault("notify.slack.webhook_url", "")

	viper.SetDefault("log.file", "")
	return nil
}

// setStructDefaults flattens v through its yaml tags, so durations land as
// strings like "10ms" that viper decodes back.
func setStructDefaults(prefix string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s defaults: %w", prefix, err)
	}
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to decode %s defaults: %w", prefix, err)
	}
	for key, value := range fields {
		viper.SetDefault(prefix+"."+key, value)
	}
	return nil
}
