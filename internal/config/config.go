package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// MaxBatchSize is the most titles MediaWiki accepts in one query for
// clients without the apihighlimits right.
const MaxBatchSize = 50

// Duration decodes TOML strings such as "300ms" or "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type WikiConfig struct {
	APIURL         string   `toml:"api_url"`
	UserAgent      string   `toml:"user_agent"`
	Namespace      int      `toml:"namespace"`
	BatchSize      int      `toml:"batch_size"`
	LinksLimit     int      `toml:"links_limit"`
	RateLimitDelay Duration `toml:"rate_limit_delay"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type FilterConfig struct {
	ExcludePrefixes   []string `toml:"exclude_prefixes"`
	ExcludeKeywords   []string `toml:"exclude_keywords"`
	ExcludeNonEnglish bool     `toml:"exclude_non_english"`
}

type MemgraphConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ConcurrencyConfig struct {
	Workers int `toml:"workers"`
}

type ExportConfig struct {
	Dir          string `toml:"dir"`
	EnrichedFile string `toml:"enriched_file"`
	MissingFile  string `toml:"missing_file"`
	LegacyFile   string `toml:"legacy_file"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type LogConfig struct {
	Mode string `toml:"mode"`
}

type Config struct {
	Wiki        WikiConfig        `toml:"wiki"`
	Filter      FilterConfig      `toml:"filter"`
	Memgraph    MemgraphConfig    `toml:"memgraph"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Export      ExportConfig      `toml:"export"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// Default returns a configuration that crawls the Remilia wiki sequentially
// with a 300ms pause between API calls.
func Default() *Config {
	return &Config{
		Wiki: WikiConfig{
			APIURL:         "https://wiki.remilia.org/api.php",
			UserAgent:      "linkgraph/1.0",
			Namespace:      0,
			BatchSize:      MaxBatchSize,
			LinksLimit:     500,
			RateLimitDelay: Duration{300 * time.Millisecond},
			RequestTimeout: Duration{10 * time.Second},
		},
		Filter: FilterConfig{
			ExcludePrefixes: []string{
				"Category:",
				"File:",
				"Template:",
				"Template talk:",
				"Special:",
				"Help:",
				"MediaWiki:",
				"User:",
				"User talk:",
				"Talk:",
				"Wikipedia:",
			},
			ExcludeKeywords:   []string{"navigation", "Navigation"},
			ExcludeNonEnglish: true,
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Concurrency: ConcurrencyConfig{Workers: 1},
		Export: ExportConfig{
			Dir:          ".",
			EnrichedFile: "remilia_graph_enriched.json",
			MissingFile:  "missing_pages_analysis.json",
			LegacyFile:   "remilia_graph_final.json",
		},
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Mode: "dev"},
	}
}

// Load reads a TOML file on top of Default. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overrides selected fields from environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("WIKI_API_URL"); v != "" {
		c.Wiki.APIURL = v
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BATCH_SIZE %q: %w", v, err)
		}
		c.Wiki.BatchSize = n
	}
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WORKERS %q: %w", v, err)
		}
		c.Concurrency.Workers = n
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
		c.Memgraph.Enabled = true
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Wiki.APIURL) == "" {
		return errors.New("wiki.api_url must not be empty")
	}
	if c.Wiki.BatchSize <= 0 || c.Wiki.BatchSize > MaxBatchSize {
		return fmt.Errorf("wiki.batch_size must be between 1 and %d, got %d", MaxBatchSize, c.Wiki.BatchSize)
	}
	if c.Wiki.LinksLimit <= 0 {
		return fmt.Errorf("wiki.links_limit must be positive, got %d", c.Wiki.LinksLimit)
	}
	if c.Wiki.RateLimitDelay.Duration < 0 {
		return fmt.Errorf("wiki.rate_limit_delay must not be negative, got %s", c.Wiki.RateLimitDelay)
	}
	if c.Wiki.RequestTimeout.Duration < 0 {
		return fmt.Errorf("wiki.request_timeout must not be negative, got %s", c.Wiki.RequestTimeout)
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("concurrency.workers must not be negative, got %d", c.Concurrency.Workers)
	}
	return nil
}
