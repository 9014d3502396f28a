package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceSupabase = "supabase"
	SourcePostgres = "postgres"
	SourceFile     = "file"

	EngineBrowser = "browser"
	EngineHTTP    = "http"

	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
	SinkSupabase = "supabase"
	SinkCSV      = "csv"
	SinkRedis    = "redis"
)

type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Sink     SinkConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type SourceConfig struct {
	Type        string
	SupabaseURL string
	SupabaseKey string
	Table       string
	Column      string
	File        string
}

type ScraperConfig struct {
	BaseURL        string
	Engine         string
	MaxOffers      int
	SettleDelay    time.Duration
	DelayMin       time.Duration
	DelayMax       time.Duration
	SortOffers     bool
	LogEmpty       bool
	FailedURLsFile string
	UserAgent      string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type SinkConfig struct {
	Types             []string
	CredentialsFile   string
	Spreadsheet       string
	SpreadsheetID     string
	Worksheet         string
	Table             string
	SupabaseTable     string
	CSVFile           string
	RedisStream       string
	RedisStreamMaxLen int64
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Source: SourceConfig{
			Type:        getEnvOrDefault("SOURCE_TYPE", SourceSupabase),
			SupabaseURL: os.Getenv("SUPABASE_URL"),
			SupabaseKey: os.Getenv("SUPABASE_KEY"),
			Table:       getEnvOrDefault("SOURCE_TABLE", "Lenovoarvutid"),
			Column:      getEnvOrDefault("SOURCE_COLUMN", "model"),
			File:        getEnvOrDefault("SOURCE_FILE", "products.txt"),
		},
		Scraper: ScraperConfig{
			BaseURL:        getEnvOrDefault("CATALOG_BASE_URL", "https://www.hind.ee"),
			Engine:         getEnvOrDefault("SCRAPER_ENGINE", EngineBrowser),
			MaxOffers:      getIntOrDefault("SCRAPER_MAX_OFFERS", 3),
			SettleDelay:    getDurationOrDefault("SCRAPER_SETTLE_DELAY", 3*time.Second),
			DelayMin:       getDurationOrDefault("SCRAPER_DELAY_MIN", 0),
			DelayMax:       getDurationOrDefault("SCRAPER_DELAY_MAX", 0),
			SortOffers:     getBoolOrDefault("SCRAPER_SORT_OFFERS", false),
			LogEmpty:       getBoolOrDefault("SCRAPER_LOG_EMPTY", false),
			FailedURLsFile: getEnvOrDefault("FAILED_URLS_FILE", "failed_urls.txt"),
			UserAgent:      getEnvOrDefault("SCRAPER_USER_AGENT", defaultUserAgent),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "et-EE,et;q=0.9,en;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Tallinn"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "et-EE"),
			ProxyServer:    os.Getenv("BROWSER_PROXY"),
		},
		Sink: SinkConfig{
			Types:             getStringSliceOrDefault("SINK_TYPES", []string{SinkSheets}),
			CredentialsFile:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			Spreadsheet:       getEnvOrDefault("SHEETS_SPREADSHEET", "Lenovo"),
			SpreadsheetID:     os.Getenv("SHEETS_SPREADSHEET_ID"),
			Worksheet:         getEnvOrDefault("SHEETS_WORKSHEET", "Prices"),
			Table:             getEnvOrDefault("SINK_TABLE", "price_observations"),
			SupabaseTable:     getEnvOrDefault("SUPABASE_SINK_TABLE", "laptop_prices"),
			CSVFile:           getEnvOrDefault("CSV_FILE", "laptop_prices.csv"),
			RedisStream:       getEnvOrDefault("REDIS_STREAM", "stream:price_observations"),
			RedisStreamMaxLen: int64(getIntOrDefault("REDIS_STREAM_MAXLEN", 100000)),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "price_monitor"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 5)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}
	if err := c.ValidateScraper(); err != nil {
		return err
	}
	return c.ValidateSinks()
}

func (c *Config) ValidateSource() error {
	switch c.Source.Type {
	case SourceSupabase:
		if c.Source.SupabaseURL == "" || c.Source.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for SOURCE_TYPE=supabase")
		}
	case SourcePostgres, SourceFile:
	default:
		return fmt.Errorf("unknown SOURCE_TYPE %q", c.Source.Type)
	}
	return nil
}

func (c *Config) ValidateScraper() error {
	if c.Scraper.Engine != EngineBrowser && c.Scraper.Engine != EngineHTTP {
		return fmt.Errorf("unknown SCRAPER_ENGINE %q", c.Scraper.Engine)
	}

	if c.Scraper.MaxOffers < 1 {
		return fmt.Errorf("SCRAPER_MAX_OFFERS must be at least 1")
	}

	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN cannot be greater than SCRAPER_DELAY_MAX")
	}

	return nil
}

func (c *Config) ValidateSinks() error {
	if len(c.Sink.Types) == 0 {
		return fmt.Errorf("SINK_TYPES must name at least one sink")
	}

	for _, t := range c.Sink.Types {
		switch t {
		case SinkSheets:
			if c.Sink.Spreadsheet == "" && c.Sink.SpreadsheetID == "" {
				return fmt.Errorf("SHEETS_SPREADSHEET or SHEETS_SPREADSHEET_ID is required for the sheets sink")
			}
		case SinkSupabase:
			if c.Source.SupabaseURL == "" || c.Source.SupabaseKey == "" {
				return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase sink")
			}
		case SinkPostgres, SinkCSV, SinkRedis:
		default:
			return fmt.Errorf("unknown sink type %q", t)
		}
	}

	return nil
}

func (c *Config) HasSink(kind string) bool {
	for _, t := range c.Sink.Types {
		if t == kind {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
