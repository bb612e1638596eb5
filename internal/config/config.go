package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Audio    AudioConfig  `mapstructure:"audio"`
	Device   DeviceConfig `mapstructure:"device"`
	Server   ServerConfig `mapstructure:"server"`
}

type AudioConfig struct {
	MinDuration  float64 `mapstructure:"min_duration"`
	FetchTimeout int     `mapstructure:"fetch_timeout"`
	TempDir      string  `mapstructure:"temp_dir"`
}

type DeviceConfig struct {
	ProbeCommand string `mapstructure:"probe_command"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	Workers         int    `mapstructure:"workers"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			MinDuration:  30,
			FetchTimeout: 60,
			TempDir:      "",
		},
		Device: DeviceConfig{
			ProbeCommand: "nvidia-smi",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    64 * 1024,
			Workers:         2,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.Float64("audio-min-duration", defaults.Audio.MinDuration, "Minimum reference audio length in seconds")
	fs.Int("audio-fetch-timeout", defaults.Audio.FetchTimeout, "Remote audio fetch timeout in seconds")
	fs.String("audio-temp-dir", defaults.Audio.TempDir, "Directory for downloaded audio (default: OS temp dir)")
	fs.String("device-probe-command", defaults.Device.ProbeCommand, "Accelerator probe executable")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum text size accepted by POST /normalize")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent audio checks")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("TTSPREP")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ttsprep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("audio.min_duration", c.Audio.MinDuration)
	v.SetDefault("audio.fetch_timeout", c.Audio.FetchTimeout)
	v.SetDefault("audio.temp_dir", c.Audio.TempDir)
	v.SetDefault("device.probe_command", c.Device.ProbeCommand)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
}

// flagKeys maps each flag registered by RegisterFlags to its config key.
// Flags that were not set explicitly fall through to env, config file and
// defaults.
var flagKeys = map[string]string{
	"log-level":               "log_level",
	"audio-min-duration":      "audio.min_duration",
	"audio-fetch-timeout":     "audio.fetch_timeout",
	"audio-temp-dir":          "audio.temp_dir",
	"device-probe-command":    "device.probe_command",
	"server-listen-addr":      "server.listen_addr",
	"server-max-text-bytes":   "server.max_text_bytes",
	"server-workers":          "server.workers",
	"server-request-timeout":  "server.request_timeout",
	"server-shutdown-timeout": "server.shutdown_timeout",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
