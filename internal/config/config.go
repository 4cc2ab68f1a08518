package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	GatewayHost      string
	GatewayPort      int
	OutputDir        string
	PositionsFile    string
	SettingsFile     string
	PgDSN            string
	PairOverride     []string
	ScheduleMinute   int
	ScheduleFromHour int
	ScheduleToHour   int
	AutoExport       bool
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOLBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("gateway-host", "localhost")
	v.SetDefault("gateway-port", 8194)
	v.SetDefault("output-dir", "./data/marketdata")
	v.SetDefault("positions-file", "./data/fxd_live_opt.csv")
	v.SetDefault("settings-file", "./data/settings.json")
	v.SetDefault("schedule-minute", 15)
	v.SetDefault("schedule-from-hour", 8)
	v.SetDefault("schedule-to-hour", 16)
	v.SetDefault("auto-export", true)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		GatewayHost:      v.GetString("gateway-host"),
		GatewayPort:      v.GetInt("gateway-port"),
		OutputDir:        v.GetString("output-dir"),
		PositionsFile:    v.GetString("positions-file"),
		SettingsFile:     v.GetString("settings-file"),
		PgDSN:            v.GetString("pg-dsn"),
		PairOverride:     getStringSlice(v, "pair"),
		ScheduleMinute:   v.GetInt("schedule-minute"),
		ScheduleFromHour: v.GetInt("schedule-from-hour"),
		ScheduleToHour:   v.GetInt("schedule-to-hour"),
		AutoExport:       v.GetBool("auto-export"),
		LogLevel:         v.GetString("log-level"),
	}

	if cfg.ScheduleMinute < 0 || cfg.ScheduleMinute > 59 {
		return Config{}, fmt.Errorf("schedule-minute out of range: %d", cfg.ScheduleMinute)
	}
	if cfg.ScheduleFromHour > cfg.ScheduleToHour {
		return Config{}, fmt.Errorf("schedule window is empty: %d-%d", cfg.ScheduleFromHour, cfg.ScheduleToHour)
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

// cleanStrings normalizes pair overrides: trimmed, slash-stripped, upper-cased.
func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(strings.ReplaceAll(item, "/", ""))
		if item == "" {
			continue
		}
		out = append(out, strings.ToUpper(item))
	}
	return out
}
