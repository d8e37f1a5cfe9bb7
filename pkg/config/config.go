package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		// Token bucket for POST /api/artists, per client address.
		RegisterBurst float64 `yaml:"register_burst" default:"5"`
		RegisterRate  float64 `yaml:"register_rate" default:"0.5"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Registry struct {
		// Artists registered at startup, in display order.
		Artists         []string      `yaml:"artists"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout" default:"8s"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"registry"`
	News struct {
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url" default:"https://newsapi.org"`
		Timeout     time.Duration `yaml:"timeout" default:"6s"`
		RPS         float64       `yaml:"rps" default:"1"`
		Lookback    time.Duration `yaml:"lookback" default:"720h"`
		PageSize    int           `yaml:"page_size" default:"20"`
		MaxEvidence int           `yaml:"max_evidence" default:"5"`
	} `yaml:"news"`
	Social struct {
		Min int `yaml:"min" default:"60"`
		Max int `yaml:"max" default:"90"`
	} `yaml:"social"`
	Auction struct {
		Timeout   time.Duration  `yaml:"timeout" default:"8s"`
		UserAgent string         `yaml:"user_agent" default:"Mozilla/5.0 (compatible; axii/1.0)"`
		Houses    []AuctionHouse `yaml:"houses"`
	} `yaml:"auction"`
	Images struct {
		Enabled     bool          `yaml:"enabled" default:"true"`
		BaseURL     string        `yaml:"base_url" default:"https://en.wikipedia.org/api/rest_v1"`
		Placeholder string        `yaml:"placeholder" default:"https://via.placeholder.com/300x300?text=No+Image"`
		Timeout     time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"images"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"15m"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"axii"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"axii.artist-events"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"axii"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Store struct {
		SQLite struct {
			Enabled bool   `yaml:"enabled"`
			Path    string `yaml:"path" default:"axii.db"`
		} `yaml:"sqlite"`
	} `yaml:"store"`
}

// AuctionHouse describes one auction search page and where its result count lives.
type AuctionHouse struct {
	Name      string `yaml:"name"`
	SearchURL string `yaml:"search_url"` // %s is replaced by the escaped artist name
	Selector  string `yaml:"selector"`
}

// DefaultAuctionHouses is used when no house is configured.
var DefaultAuctionHouses = []AuctionHouse{
	{
		Name:      "phillips",
		SearchURL: "https://www.phillips.com/search?search=%s",
		Selector:  "div.search-results__count",
	},
}

// Default returns a Config populated only with struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Auction.Houses) == 0 {
		c.Auction.Houses = append([]AuctionHouse(nil), DefaultAuctionHouses...)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Auction.Houses) == 0 {
		c.Auction.Houses = append([]AuctionHouse(nil), DefaultAuctionHouses...)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are used.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
	} else {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	ApplyEnv(c, os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment lookups.
func ApplyEnv(c *Config, getenv func(string) string) {
	if v := getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := getenv("AXII_ARTISTS"); v != "" {
		c.Registry.Artists = splitList(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Social.Min < 0 || c.Social.Max > 100 || c.Social.Min > c.Social.Max {
		return fmt.Errorf("social range must satisfy 0 <= min <= max <= 100, got [%d,%d]", c.Social.Min, c.Social.Max)
	}
	if c.Registry.FetchTimeout <= 0 {
		return fmt.Errorf("registry.fetch_timeout must be positive")
	}
	if c.News.BaseURL == "" {
		return fmt.Errorf("news.base_url is required")
	}
	for i, h := range c.Auction.Houses {
		if h.Name == "" || h.SearchURL == "" || h.Selector == "" {
			return fmt.Errorf("auction.houses[%d]: name, search_url and selector are required", i)
		}
		if n := strings.Count(h.SearchURL, "%s"); n != 1 {
			return fmt.Errorf("auction.houses[%d]: search_url must contain exactly one %%s, found %d", i, n)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
