package config

import (
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"trackme/internal/activity"
)

type WorkHoursConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

type Config struct {
	DatabasePath         string                   `mapstructure:"database_path"`
	UserID               string                   `mapstructure:"user_id"`
	PollIntervalSeconds  int                      `mapstructure:"poll_interval_seconds"`
	SyncIntervalSeconds  int                      `mapstructure:"sync_interval_seconds"`
	IdleThresholdMinutes int                      `mapstructure:"idle_threshold_minutes"`
	BufferCap            int                      `mapstructure:"buffer_cap"`
	WorkHours            WorkHoursConfig          `mapstructure:"work_hours"`
	CheckIn              activity.CheckInSettings `mapstructure:"checkin"`
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/trackme")
		viper.AddConfigPath("/etc/trackme/")
	}

	viper.SetEnvPrefix("TRACKME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("database_path", "trackme.db")
	viper.SetDefault("user_id", "local")
	viper.SetDefault("poll_interval_seconds", 3)
	viper.SetDefault("sync_interval_seconds", 30)
	viper.SetDefault("idle_threshold_minutes", 5)
	viper.SetDefault("buffer_cap", 5000)
	viper.SetDefault("work_hours.start", "09:00")
	viper.SetDefault("work_hours.end", "17:00")
	viper.SetDefault("checkin.enabled", true)
	viper.SetDefault("checkin.idle_threshold_minutes", 15)
	viper.SetDefault("checkin.periodic_enabled", false)
	viper.SetDefault("checkin.periodic_interval_minutes", 120)
	viper.SetDefault("checkin.work_hours_only", true)
	viper.SetDefault("checkin.snooze_minutes", 30)
	viper.SetDefault("checkin.notification_method", "log")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.validate()

	log.Printf("Configuration loaded: %+v", cfg)
	return &cfg, nil
}

func (c *Config) validate() {
	if c.PollIntervalSeconds < 1 {
		log.Println("Warning: poll_interval_seconds too low, setting to 1")
		c.PollIntervalSeconds = 1
	}
	if c.SyncIntervalSeconds < 5 {
		log.Println("Warning: sync_interval_seconds too low, setting to 5")
		c.SyncIntervalSeconds = 5
	}
	if c.IdleThresholdMinutes < 1 {
		log.Println("Warning: idle_threshold_minutes too low, setting to 1")
		c.IdleThresholdMinutes = 1
	}
	if c.CheckIn.IdleThresholdMinutes < 1 {
		log.Println("Warning: checkin.idle_threshold_minutes too low, setting to 1")
		c.CheckIn.IdleThresholdMinutes = 1
	}
	if c.CheckIn.SnoozeMinutes < 1 {
		c.CheckIn.SnoozeMinutes = 30
	}
	if m := c.CheckIn.NotificationMethod; m != "log" && m != "desktop" {
		log.Printf("Warning: invalid notification_method %q, defaulting to 'log'", m)
		c.CheckIn.NotificationMethod = "log"
	}
}

// Watch re-unmarshals the config when the file changes on disk and hands
// the result to onChange. Used to pick up check-in settings edits without
// a restart.
func Watch(onChange func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("Config file changed: %s", e.Name)
		var cfg Config
		if err := viper.Unmarshal(&cfg); err != nil {
			log.Printf("Warning: failed to reload config: %v", err)
			return
		}
		cfg.validate()
		onChange(&cfg)
	})
	viper.WatchConfig()
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func (c *Config) IdleThreshold() time.Duration {
	return time.Duration(c.IdleThresholdMinutes) * time.Minute
}
