package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Host      HostConfig     `mapstructure:"host"`
	Downloads DownloadConfig `mapstructure:"downloads"`
	Network   NetworkConfig  `mapstructure:"network"`
	Render    RenderConfig   `mapstructure:"render"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
}

// HostConfig holds content host settings
type HostConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIURL     string `mapstructure:"api_url"`
	CookieFile string `mapstructure:"cookie_file"`
}

// DownloadConfig holds download settings
type DownloadConfig struct {
	SourceDir     string        `mapstructure:"source_dir"`
	BooksDir      string        `mapstructure:"books_dir"`
	MaxWorkers    int           `mapstructure:"max_workers"`
	Notifications bool          `mapstructure:"notifications"`
	Formats       []string      `mapstructure:"formats"` // output format priority
	MetadataTTL   time.Duration `mapstructure:"metadata_ttl"`
}

// NetworkConfig holds network settings
type NetworkConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	Delay             time.Duration `mapstructure:"delay"` // pre-request throttle
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RateLimitWait     time.Duration `mapstructure:"rate_limit_wait"` // 429 fallback when Retry-After is absent
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// RenderConfig holds output document settings
type RenderConfig struct {
	Quality    int    `mapstructure:"quality"`
	DPI        int    `mapstructure:"dpi"`
	FontDir    string `mapstructure:"font_dir"`
	FontFamily string `mapstructure:"font_family"`
	Lang       string `mapstructure:"lang"`
}

// MetricsConfig holds the prometheus endpoint settings
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "litdl")
}

// GetDBPath returns the database file path
func GetDBPath() string {
	return filepath.Join(GetConfigDir(), "litdl.db")
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host.base_url", "https://www.litres.ru")
	v.SetDefault("host.api_url", "https://api.litres.ru")
	v.SetDefault("host.cookie_file", filepath.Join(GetConfigDir(), "cookies.json"))
	v.SetDefault("downloads.source_dir", "books-source")
	v.SetDefault("downloads.books_dir", "books")
	v.SetDefault("downloads.max_workers", 8)
	v.SetDefault("downloads.notifications", false)
	v.SetDefault("downloads.formats", []string{"pdf", "fb2", "mp3"})
	v.SetDefault("downloads.metadata_ttl", 24*time.Hour)
	v.SetDefault("network.timeout", 30*time.Second)
	v.SetDefault("network.delay", time.Second)
	v.SetDefault("network.retry_attempts", 2)
	v.SetDefault("network.rate_limit_wait", 15*time.Second)
	v.SetDefault("network.requests_per_second", 0)
	v.SetDefault("network.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("render.quality", 65)
	v.SetDefault("render.dpi", 300)
	v.SetDefault("render.font_dir", "fonts")
	v.SetDefault("render.font_family", "NotoSans")
	v.SetDefault("render.lang", "ru")
	v.SetDefault("metrics.addr", "")
}

// Init initializes the global viper instance used by the config subcommand
func Init(cfgFile string) error {
	// .env values become ordinary environment overrides
	_ = godotenv.Load()

	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(GetConfigDir())
	}

	// Environment variable overrides
	viper.SetEnvPrefix("LITDL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	return nil
}

// Load initializes configuration and returns it as an explicit struct.
// Components receive this struct (or parts of it) at construction and never
// consult viper afterwards.
func Load(cfgFile string) (*Config, error) {
	if err := Init(cfgFile); err != nil {
		return nil, err
	}
	return decode(viper.GetViper())
}

// Default returns the built-in defaults without reading files or env
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := decode(v)
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Host.CookieFile = expandPath(c.Host.CookieFile)
	c.Downloads.SourceDir = expandPath(c.Downloads.SourceDir)
	c.Downloads.BooksDir = expandPath(c.Downloads.BooksDir)
	c.Render.FontDir = expandPath(c.Render.FontDir)
	c.Host.BaseURL = strings.TrimRight(c.Host.BaseURL, "/")
	c.Host.APIURL = strings.TrimRight(c.Host.APIURL, "/")

	if c.Downloads.MaxWorkers < 1 {
		c.Downloads.MaxWorkers = 1
	}
	if c.Network.RetryAttempts < 1 {
		c.Network.RetryAttempts = 1
	}
	if c.Render.Quality > 100 {
		c.Render.Quality = 100
	}
	if c.Render.Quality < 1 {
		c.Render.Quality = 1
	}
}

// Set sets a configuration value
func Set(key, value string) error {
	viper.Set(key, value)

	// Ensure config directory exists
	configDir := GetConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	return viper.WriteConfigAs(GetConfigPath())
}

// GetValue retrieves a configuration value
func GetValue(key string) interface{} {
	return viper.Get(key)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
