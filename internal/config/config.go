// Package config resolves the engine's runtime settings (default
// sector-order assumptions, progress granularity, log folder, autosave
// interval) through a layered config/env/flag stack built on
// github.com/spf13/viper, in the style of the CLI config loaders in the
// example pack (a single diskimg.yaml plus DISKIMG_-prefixed env vars
// plus flag overrides, flags winning).
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved settings set cmd/diskimg and shell/ read from.
type Config struct {
	LogFolder        string `mapstructure:"log_folder"`
	LogEcho          bool   `mapstructure:"log_echo"`
	DefaultOrder     string `mapstructure:"default_order"`
	AutosaveInterval int    `mapstructure:"autosave_interval_sec"`
	ProgressEvery    int    `mapstructure:"progress_every_percent"`
	ServeAddr        string `mapstructure:"serve_addr"`
}

// Defaults mirrors the zero-config behavior the engine had before any
// diskimg.yaml existed.
func Defaults() Config {
	return Config{
		LogFolder:        "./logs/",
		LogEcho:          false,
		DefaultOrder:     "dos",
		AutosaveInterval: 0,
		ProgressEvery:    5,
		ServeAddr:        ":8420",
	}
}

// Load resolves Config from (in ascending priority) built-in defaults,
// a diskimg.yaml found in . or $HOME/.diskimg, DISKIMG_* environment
// variables, and flags already registered on fs. The config file's
// location is not taken from an environment variable.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("log_folder", d.LogFolder)
	v.SetDefault("log_echo", d.LogEcho)
	v.SetDefault("default_order", d.DefaultOrder)
	v.SetDefault("autosave_interval_sec", d.AutosaveInterval)
	v.SetDefault("progress_every_percent", d.ProgressEvery)
	v.SetDefault("serve_addr", d.ServeAddr)

	v.SetConfigName("diskimg")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.diskimg")

	v.SetEnvPrefix("DISKIMG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
