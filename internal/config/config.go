// Package config loads lyricsync's layered configuration: defaults,
// overridden by a TOML file, overridden by environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultSocketPath    = "/tmp/lyricsync.sock"
	DefaultCheckInterval = 5 * time.Second
)

func defaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lyricsync")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lyricsync_cache"
	}
	return filepath.Join(homeDir, ".cache", "lyricsync")
}

func defaultConfigDir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricsync")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "lyricsync")
}

// AppConfig controls the desktop watch loop and the on-disk caches.
type AppConfig struct {
	SocketPath    string
	CheckInterval time.Duration
	CacheDir      string
}

// AIConfig selects and authenticates the LLM used by internal/identify.
type AIConfig struct {
	Enabled    bool
	ModuleName string
	APIKey     string
	BaseURL    string
}

// RedisConfig points internal/store.RedisStore at a Redis instance. When
// Addr is empty, the CLI falls back to the file-backed MemoryStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProvidersConfig carries the per-provider credentials the free lyric
// APIs require (none are public-key APIs; NetEase/QQ Music gate some
// endpoints behind a logged-in session cookie).
type ProvidersConfig struct {
	NeteaseCookie string
	QQMusicCookie string
}

// Config is the fully resolved configuration, after defaults, TOML file,
// and environment variable overrides have all been applied.
type Config struct {
	App       AppConfig
	AI        AIConfig
	Redis     RedisConfig
	Providers ProvidersConfig
}

// Load resolves Config from defaults, an optional TOML file, and
// LYRICSYNC_-prefixed environment variables, in that precedence order
// (lowest to highest).
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(defaultConfigDir())
	v.AddConfigPath(".")

	v.SetEnvPrefix("lyricsync")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.socket_path", DefaultSocketPath)
	v.SetDefault("app.check_interval", DefaultCheckInterval.String())
	v.SetDefault("app.cache_dir", defaultCacheDir())
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.module_name", "gemini")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Warn().Err(err).Msg("config: failed to read config file, using defaults")
		}
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("config: loaded config file")
	}

	checkInterval, err := time.ParseDuration(v.GetString("app.check_interval"))
	if err != nil {
		log.Warn().Err(err).Str("value", v.GetString("app.check_interval")).Msg("config: invalid check_interval, using default")
		checkInterval = DefaultCheckInterval
	}

	cfg := &Config{
		App: AppConfig{
			SocketPath:    v.GetString("app.socket_path"),
			CheckInterval: checkInterval,
			CacheDir:      v.GetString("app.cache_dir"),
		},
		AI: AIConfig{
			Enabled:    v.GetBool("ai.enabled"),
			ModuleName: v.GetString("ai.module_name"),
			APIKey:     v.GetString("ai.api_key"),
			BaseURL:    v.GetString("ai.base_url"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Providers: ProvidersConfig{
			NeteaseCookie: v.GetString("providers.netease_cookie"),
			QQMusicCookie: v.GetString("providers.qqmusic_cookie"),
		},
	}

	if cfg.AI.Enabled && cfg.AI.APIKey == "" {
		log.Warn().Msg("config: ai.enabled is true but ai.api_key is empty; identify will fall back to the local heuristic only")
	}

	return cfg
}
