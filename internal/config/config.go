// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/discovery"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const todayLayout = "2006-01-02"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AppConfig carries the knobs of the analytics run itself.
type AppConfig struct {
	Today           string
	DataDir         string
	ExportDir       string
	MerchantGlobs   []string
	CustomerGlobs   []string
	SalesGlobs      []string
	SalesFileMarker string
	HeaderScanLines int
	SummaryScanRows int
	MinMerchants    int
	ActiveDays      int
	GrowthFactor    float64
	TopN            int
}

type CacheConfig struct {
	Backend       string
	FilePath      string
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	Folder          string
}

var (
	once     sync.Once
	instance *Config
)

// Load returns the process-wide configuration built from .env, the
// environment and defaults.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		instance = New(v)
	})

	return instance
}

// New builds a Config from v after installing defaults on it.
func New(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	dataDir := v.GetString("DATA_DIR")
	defaults := discovery.DefaultPatterns(dataDir)

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			Today:           v.GetString("ANALYTICS_TODAY"),
			DataDir:         dataDir,
			ExportDir:       v.GetString("EXPORT_DIR"),
			MerchantGlobs:   splitPatterns(v.GetString("MERCHANT_GLOBS"), defaults[domain.CategoryMerchants]),
			CustomerGlobs:   splitPatterns(v.GetString("CUSTOMER_GLOBS"), defaults[domain.CategoryCustomers]),
			SalesGlobs:      splitPatterns(v.GetString("SALES_GLOBS"), defaults[domain.CategorySales]),
			SalesFileMarker: v.GetString("SALES_FILE_MARKER"),
			HeaderScanLines: v.GetInt("SALES_HEADER_SCAN_LINES"),
			SummaryScanRows: v.GetInt("SALES_SUMMARY_SCAN_ROWS"),
			MinMerchants:    v.GetInt("MIN_MERCHANTS"),
			ActiveDays:      v.GetInt("ACTIVE_CUSTOMER_DAYS"),
			GrowthFactor:    v.GetFloat64("GROWTH_FACTOR"),
			TopN:            v.GetInt("TOP_N"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
			FilePath:      v.GetString("METRICS_CACHE_PATH"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			RedisKey:      v.GetString("REDIS_SNAPSHOT_KEY"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			Prefix:    v.GetString("S3_PREFIX"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS"),
			Folder:          v.GetString("GOOGLE_DRIVE_FOLDER"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "analytics")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("ANALYTICS_TODAY", "2025-08-11")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("EXPORT_DIR", "")
	v.SetDefault("SALES_FILE_MARKER", "-Revenue Item Sales")
	v.SetDefault("SALES_HEADER_SCAN_LINES", 200)
	v.SetDefault("SALES_SUMMARY_SCAN_ROWS", 20)
	v.SetDefault("MIN_MERCHANTS", 700)
	v.SetDefault("ACTIVE_CUSTOMER_DAYS", 30)
	v.SetDefault("GROWTH_FACTOR", 1.10)
	v.SetDefault("TOP_N", 3)
	v.SetDefault("CACHE_BACKEND", "file")
	v.SetDefault("METRICS_CACHE_PATH", "metrics_cache.json")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_SNAPSHOT_KEY", "analytics:metrics_snapshot")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("LOG_LEVEL", "info")
}

// PipelineOptions converts the app section into the options threaded
// through a pipeline run.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	today, err := time.Parse(todayLayout, strings.TrimSpace(c.App.Today))
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("invalid ANALYTICS_TODAY %q: %w", c.App.Today, err)
	}

	opts := pipeline.DefaultOptions(today)
	opts.Patterns = map[domain.Category][]string{
		domain.CategoryMerchants: c.App.MerchantGlobs,
		domain.CategoryCustomers: c.App.CustomerGlobs,
		domain.CategorySales:     c.App.SalesGlobs,
	}
	opts.ExportDir = c.App.ExportDir
	if c.App.SalesFileMarker != "" {
		opts.SalesFileMarker = c.App.SalesFileMarker
	}
	if c.App.HeaderScanLines > 0 {
		opts.HeaderScanLines = c.App.HeaderScanLines
	}
	if c.App.SummaryScanRows > 0 {
		opts.SummaryScanRows = c.App.SummaryScanRows
	}
	if c.App.ActiveDays > 0 {
		opts.ActiveDays = c.App.ActiveDays
	}
	if c.App.GrowthFactor > 0 {
		opts.GrowthFactor = c.App.GrowthFactor
	}
	if c.App.TopN > 0 {
		opts.TopN = c.App.TopN
	}
	if c.App.MinMerchants < 0 {
		log.Warn().Int("min_merchants", c.App.MinMerchants).Msg("negative merchant floor, disabling check")
		c.App.MinMerchants = 0
	}
	opts.MinMerchants = c.App.MinMerchants

	return opts, nil
}

// splitPatterns splits a comma separated pattern list. Whitespace inside a
// pattern is significant ("*Revenue Item Sales*"), so only the edges are
// trimmed.
func splitPatterns(raw string, fallback []string) []string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
