// Package config loads the recorder CLI configuration from a YAML file,
// AGORA_REC_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thesyncim/recording"
)

// EnvPrefix is the prefix of environment overrides (AGORA_REC_APP_ID, AGORA_REC_MIX_WIDTH ...).
const EnvPrefix = "AGORA_REC"

// Config is the full CLI configuration.
type Config struct {
	AppID       string `mapstructure:"app_id"`
	ChannelKey  string `mapstructure:"channel_key"`
	Channel     string `mapstructure:"channel"`
	UID         uint32 `mapstructure:"uid"`
	UserAccount string `mapstructure:"user_account"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	Log       LogConfig       `mapstructure:"log"`
	Recording RecordingConfig `mapstructure:"recording"`
	Mix       MixConfig       `mapstructure:"mix"`
	Layout    LayoutConfig    `mapstructure:"layout"`
}

// LogConfig controls the Go-side logger and the native engine's log level.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Console     bool   `mapstructure:"console"`
	NativeLevel string `mapstructure:"native_level"`
}

// RecordingConfig maps onto recording.Config.
type RecordingConfig struct {
	Path               string `mapstructure:"path"`
	RootDir            string `mapstructure:"root_dir"`
	CfgFilePath        string `mapstructure:"cfg_file_path"`
	AudioOnly          bool   `mapstructure:"audio_only"`
	VideoOnly          bool   `mapstructure:"video_only"`
	IdleLimitSec       int    `mapstructure:"idle_limit_sec"`
	ChannelProfile     string `mapstructure:"channel_profile"`
	AutoSubscribe      bool   `mapstructure:"auto_subscribe"`
	SubscribeVideoUIDs string `mapstructure:"subscribe_video_uids"`
	SubscribeAudioUIDs string `mapstructure:"subscribe_audio_uids"`
	LowUDPPort         int    `mapstructure:"low_udp_port"`
	HighUDPPort        int    `mapstructure:"high_udp_port"`
	ProxyServer        string `mapstructure:"proxy_server"`
}

// MixConfig holds the mixing canvas settings.
type MixConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Video   bool   `mapstructure:"video"`
	Width   uint32 `mapstructure:"width"`
	Height  uint32 `mapstructure:"height"`
	FPS     int    `mapstructure:"fps"`
	Kbps    int    `mapstructure:"kbps"`
}

// LayoutConfig selects how mixed video regions are arranged.
type LayoutConfig struct {
	Mode             string `mapstructure:"mode"`
	UIDs             string `mapstructure:"uids"`
	MaxResolutionUID uint32 `mapstructure:"max_resolution_uid"`
	KeepLastFrame    bool   `mapstructure:"keep_last_frame"`
	Background       string `mapstructure:"background"`
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"app-id":         "app_id",
	"channel-key":    "channel_key",
	"channel":        "channel",
	"uid":            "uid",
	"user-account":   "user_account",
	"metrics-addr":   "metrics_addr",
	"recording-path": "recording.path",
	"mix":            "mix.enabled",
	"width":          "mix.width",
	"height":         "mix.height",
	"layout":         "layout.mode",
	"log-level":      "log.level",
}

// RegisterFlags adds the recorder flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Path to config file (default searches ./config.yaml, ./config/config.yaml, /etc/agora-recorder/config.yaml)")
	fs.String("app-id", "", "Agora app ID")
	fs.String("channel-key", "", "Channel key (token), empty when the project has no certificate")
	fs.String("channel", "", "Channel name to record")
	fs.Uint32("uid", 0, "Recorder uid (0 lets the server assign one)")
	fs.String("user-account", "", "Join with a user account instead of a uid")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.String("recording-path", "", "Recording SDK applite directory")
	fs.Bool("mix", false, "Enable audio/video mixing")
	fs.Uint32("width", 0, "Mixing canvas width")
	fs.Uint32("height", 0, "Mixing canvas height")
	fs.String("layout", "", "Mixing layout: default, bestfit, vertical")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("app_id", "")
	v.SetDefault("channel_key", "")
	v.SetDefault("channel", "")
	v.SetDefault("uid", 0)
	v.SetDefault("user_account", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log.console", false)
	v.SetDefault("recording.path", "")
	v.SetDefault("recording.root_dir", "")
	v.SetDefault("recording.cfg_file_path", "")
	v.SetDefault("recording.audio_only", false)
	v.SetDefault("recording.video_only", false)
	v.SetDefault("recording.subscribe_video_uids", "")
	v.SetDefault("recording.subscribe_audio_uids", "")
	v.SetDefault("recording.low_udp_port", 0)
	v.SetDefault("recording.high_udp_port", 0)
	v.SetDefault("recording.proxy_server", "")
	v.SetDefault("mix.enabled", false)
	v.SetDefault("layout.uids", "")
	v.SetDefault("layout.max_resolution_uid", 0)
	v.SetDefault("layout.keep_last_frame", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.native_level", "info")
	v.SetDefault("recording.idle_limit_sec", 300)
	v.SetDefault("recording.channel_profile", "communication")
	v.SetDefault("recording.auto_subscribe", true)
	v.SetDefault("mix.video", true)
	v.SetDefault("mix.width", 640)
	v.SetDefault("mix.height", 480)
	v.SetDefault("mix.fps", 15)
	v.SetDefault("mix.kbps", 500)
	v.SetDefault("layout.mode", "default")
	v.SetDefault("layout.background", "#23b9dc")
}

// Load reads the configuration. A missing config file is only an error when
// its path was given explicitly (--config or path).
func Load(fs *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path == "" && fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/agora-recorder")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings needed to join a channel.
func (c Config) Validate() error {
	var errs []error
	if c.AppID == "" {
		errs = append(errs, errors.New("app_id is required"))
	}
	if c.Channel == "" {
		errs = append(errs, errors.New("channel is required"))
	}
	if c.Mix.Enabled && (c.Mix.Width == 0 || c.Mix.Height == 0) {
		errs = append(errs, errors.New("mix.width and mix.height must be positive when mixing is enabled"))
	}
	if _, err := recording.ParseLayoutMode(c.Layout.Mode); err != nil {
		errs = append(errs, err)
	}
	switch c.Recording.ChannelProfile {
	case "", "communication", "live":
	default:
		errs = append(errs, fmt.Errorf("unknown channel profile %q", c.Recording.ChannelProfile))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
