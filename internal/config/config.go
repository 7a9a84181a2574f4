// Package config loads the service configuration.
//
// Values are layered, later layers winning: built-in defaults, a YAML file,
// a .env file, then STATSMITH_* environment variables. Command-line flags
// are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STATSMITH_"

// Config is the full service configuration.
type Config struct {
	Listen          string        `yaml:"listen"`
	UpstreamTimeout time.Duration `yaml:"upstreamTimeout"`

	Hypixel  Hypixel  `yaml:"hypixel"`
	Mojang   Mojang   `yaml:"mojang"`
	PlayerDB PlayerDB `yaml:"playerdb"`

	Cache       Cache       `yaml:"cache"`
	Leaderboard Leaderboard `yaml:"leaderboard"`
	Artifacts   Artifacts   `yaml:"artifacts"`
	Alerts      Alerts      `yaml:"alerts"`
	Metrics     Metrics     `yaml:"metrics"`
}

// Hypixel configures the Hypixel API client.
type Hypixel struct {
	APIKey string `yaml:"apiKey"`
	URL    string `yaml:"url"`
}

// Mojang configures the Mojang API client.
type Mojang struct {
	APIURL     string `yaml:"apiUrl"`
	SessionURL string `yaml:"sessionUrl"`
}

// PlayerDB configures the PlayerDB client.
type PlayerDB struct {
	URL string `yaml:"url"`
}

// Cache configures the response caches.
type Cache struct {
	// Backend is "memory" or "redis".
	Backend  string `yaml:"backend"`
	Capacity int    `yaml:"capacity"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`

	PlayerTTL     time.Duration `yaml:"playerTTL"`
	CardTTL       time.Duration `yaml:"cardTTL"`
	GuildTTL      time.Duration `yaml:"guildTTL"`
	SkyBlockTTL   time.Duration `yaml:"skyblockTTL"`
	NameTTL       time.Duration `yaml:"nameTTL"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// Leaderboard configures the row store and rebuild schedule.
type Leaderboard struct {
	// Store is "memory" or "mongo".
	Store           string `yaml:"store"`
	MongoURI        string `yaml:"mongoUri"`
	MongoDatabase   string `yaml:"mongoDatabase"`
	MongoCollection string `yaml:"mongoCollection"`

	RebuildInterval time.Duration `yaml:"rebuildInterval"`
	Staleness       time.Duration `yaml:"staleness"`
}

// Artifacts configures where leaderboard snapshots are published.
type Artifacts struct {
	// Backend is "none", "disk", "s3" or "gcs".
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Codec    string `yaml:"codec"`
	Keep     int    `yaml:"keep"`
}

// Alerts configures the alert notifier.
type Alerts struct {
	DiscordWebhook string `yaml:"discordWebhook"`
}

// Metrics configures metric collection.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:          ":8080",
		UpstreamTimeout: 10 * time.Second,
		Cache: Cache{
			Backend:       "memory",
			Capacity:      10000,
			PlayerTTL:     5 * time.Minute,
			CardTTL:       15 * time.Minute,
			GuildTTL:      60 * time.Minute,
			SkyBlockTTL:   5 * time.Minute,
			NameTTL:       60 * time.Minute,
			SweepInterval: time.Minute,
		},
		Leaderboard: Leaderboard{
			Store:           "memory",
			MongoDatabase:   "statsmith",
			MongoCollection: "players",
			RebuildInterval: 24 * time.Hour,
		},
		Artifacts: Artifacts{
			Backend: "none",
			Codec:   "zstd",
			Keep:    7,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "statsmith",
		},
	}
}

// Load builds a configuration from path and envFile, either of which may be
// empty. A missing envFile is ignored; a missing path is an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is like Load without the .env step, reading overrides through
// lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string) func(string) error {
		return func(v string) error { *dst = v; return nil }
	}
	dur := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*dst = d
			return nil
		}
	}
	num := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		}
	}
	flag := func(dst *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*dst = b
			return nil
		}
	}

	overrides := []struct {
		name string
		set  func(string) error
	}{
		{"LISTEN", str(&c.Listen)},
		{"UPSTREAM_TIMEOUT", dur(&c.UpstreamTimeout)},
		{"HYPIXEL_API_KEY", str(&c.Hypixel.APIKey)},
		{"HYPIXEL_URL", str(&c.Hypixel.URL)},
		{"CACHE_BACKEND", str(&c.Cache.Backend)},
		{"CACHE_CAPACITY", num(&c.Cache.Capacity)},
		{"REDIS_ADDR", str(&c.Cache.RedisAddr)},
		{"REDIS_PASSWORD", str(&c.Cache.RedisPassword)},
		{"REDIS_DB", num(&c.Cache.RedisDB)},
		{"LEADERBOARD_STORE", str(&c.Leaderboard.Store)},
		{"MONGO_URI", str(&c.Leaderboard.MongoURI)},
		{"MONGO_DATABASE", str(&c.Leaderboard.MongoDatabase)},
		{"REBUILD_INTERVAL", dur(&c.Leaderboard.RebuildInterval)},
		{"ARTIFACTS_BACKEND", str(&c.Artifacts.Backend)},
		{"ARTIFACTS_PATH", str(&c.Artifacts.Path)},
		{"ARTIFACTS_BUCKET", str(&c.Artifacts.Bucket)},
		{"ARTIFACTS_PREFIX", str(&c.Artifacts.Prefix)},
		{"ARTIFACTS_REGION", str(&c.Artifacts.Region)},
		{"ARTIFACTS_ENDPOINT", str(&c.Artifacts.Endpoint)},
		{"DISCORD_WEBHOOK", str(&c.Alerts.DiscordWebhook)},
		{"METRICS_ENABLED", flag(&c.Metrics.Enabled)},
	}

	for _, o := range overrides {
		v, ok := lookup(EnvPrefix + o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.set(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, o.name, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("upstreamTimeout must be positive"))
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redisAddr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	for name, ttl := range map[string]time.Duration{
		"playerTTL":   c.Cache.PlayerTTL,
		"cardTTL":     c.Cache.CardTTL,
		"guildTTL":    c.Cache.GuildTTL,
		"skyblockTTL": c.Cache.SkyBlockTTL,
		"nameTTL":     c.Cache.NameTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("cache.%s must be positive", name))
		}
	}

	switch c.Leaderboard.Store {
	case "memory":
	case "mongo":
		if c.Leaderboard.MongoURI == "" {
			errs = append(errs, errors.New("leaderboard.mongoUri is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown leaderboard store %q", c.Leaderboard.Store))
	}

	switch c.Artifacts.Backend {
	case "", "none":
	case "disk":
		if c.Artifacts.Path == "" {
			errs = append(errs, errors.New("artifacts.path is required for the disk backend"))
		}
	case "s3", "gcs":
		if c.Artifacts.Bucket == "" {
			errs = append(errs, fmt.Errorf("artifacts.bucket is required for the %s backend", c.Artifacts.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown artifacts backend %q", c.Artifacts.Backend))
	}

	return errors.Join(errs...)
}
