package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"
)

type Config struct {
	Mode   string `yaml:"mode"`
	Alpaca struct {
		BaseURL string `yaml:"base_url"`
		DataURL string `yaml:"data_url"`
		NewsURL string `yaml:"news_url"`
		// KeyID and SecretKey come from ALPACA_API_KEY / ALPACA_SECRET_KEY.
		KeyID     string `yaml:"-"`
		SecretKey string `yaml:"-"`
	} `yaml:"alpaca"`
	News struct {
		NewsAPIURL string `yaml:"newsapi_url"`
		ScraperURL string `yaml:"scraper_url"`
		// NewsAPIKey comes from NEWS_API_KEY.
		NewsAPIKey string `yaml:"-"`
	} `yaml:"news"`
	Watchlist struct {
		Default []string `yaml:"default"`
	} `yaml:"watchlist"`
	Trading struct {
		RiskPercentage     float64 `yaml:"risk_percentage"`
		MaxContracts       int     `yaml:"max_contracts"`
		OptionExpiryMonths int     `yaml:"option_expiry_months"`
		ATMTolerance       float64 `yaml:"atm_tolerance"`
		ProfitTarget       float64 `yaml:"profit_target"`
		MinConfidence      float64 `yaml:"min_confidence"`
		MaxOpportunities   int     `yaml:"max_opportunities"`
		EntryThreshold     float64 `yaml:"entry_threshold"`
		PremiumEstimatePct float64 `yaml:"premium_estimate_pct"`
	} `yaml:"trading"`
	Trend struct {
		VolumeThreshold float64 `yaml:"volume_threshold"`
		ShortPriceMove  float64 `yaml:"short_price_move"`
		FullPriceMove   float64 `yaml:"full_price_move"`
	} `yaml:"trend"`
	Cache struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Network struct {
		RequestTimeout time.Duration `yaml:"request_timeout"`
		Concurrency    int           `yaml:"concurrency"`
	} `yaml:"network"`
	Schedule struct {
		StrategyCron string `yaml:"strategy_cron"`
		ReportCron   string `yaml:"report_cron"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"schedule"`
	Alert struct {
		// Provider is "telegram" or "log".
		Provider string `yaml:"provider"`
		// Token and ChatID come from TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID.
		Token  string `yaml:"-"`
		ChatID int64  `yaml:"-"`
	} `yaml:"alert"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

// Default returns a config with every default applied, for tests and for
// running without a config file.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDryRun
	}
	if c.Alpaca.BaseURL == "" {
		c.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if c.Alpaca.DataURL == "" {
		c.Alpaca.DataURL = "https://data.alpaca.markets"
	}
	if c.Alpaca.NewsURL == "" {
		c.Alpaca.NewsURL = "https://data.alpaca.markets"
	}
	if c.News.NewsAPIURL == "" {
		c.News.NewsAPIURL = "https://newsapi.org"
	}
	if c.News.ScraperURL == "" {
		c.News.ScraperURL = "https://finviz.com"
	}
	if len(c.Watchlist.Default) == 0 {
		c.Watchlist.Default = []string{
			"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX",
			"AMD", "SPY", "QQQ", "IWM",
		}
	}

	t := &c.Trading
	if t.RiskPercentage == 0 {
		t.RiskPercentage = 0.02
	}
	if t.MaxContracts == 0 {
		t.MaxContracts = 5
	}
	if t.OptionExpiryMonths == 0 {
		t.OptionExpiryMonths = 8
	}
	if t.ATMTolerance == 0 {
		t.ATMTolerance = 0.02
	}
	if t.ProfitTarget == 0 {
		t.ProfitTarget = 0.15
	}
	if t.MinConfidence == 0 {
		t.MinConfidence = 0.5
	}
	if t.MaxOpportunities == 0 {
		t.MaxOpportunities = 3
	}
	if t.EntryThreshold == 0 {
		t.EntryThreshold = 0.4
	}
	if t.PremiumEstimatePct == 0 {
		t.PremiumEstimatePct = 0.05
	}

	if c.Trend.VolumeThreshold == 0 {
		c.Trend.VolumeThreshold = 1.5
	}
	if c.Trend.ShortPriceMove == 0 {
		c.Trend.ShortPriceMove = 0.02
	}
	if c.Trend.FullPriceMove == 0 {
		c.Trend.FullPriceMove = 0.05
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 12 * time.Hour
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 15 * time.Second
	}
	if c.Network.Concurrency == 0 {
		c.Network.Concurrency = 4
	}
	if c.Schedule.StrategyCron == "" {
		c.Schedule.StrategyCron = "0 * 9-16 * * 1-5"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 16 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/New_York"
	}
	if c.Alert.Provider == "" {
		c.Alert.Provider = "log"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
	if c.Journal.RetentionDays == 0 {
		c.Journal.RetentionDays = 14
	}
}

// applyEnv reads secrets that never live in the yaml file.
func (c *Config) applyEnv() error {
	c.Alpaca.KeyID = os.Getenv("ALPACA_API_KEY")
	c.Alpaca.SecretKey = os.Getenv("ALPACA_SECRET_KEY")
	c.News.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	c.Alert.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TRADER_MODE"); v != "" {
		c.Mode = strings.ToUpper(v)
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		var id int64
		if _, err := fmt.Sscan(v, &id); err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
		}
		c.Alert.ChatID = id
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Mode != ModeDryRun && c.Mode != ModeLive {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Watchlist.Default) == 0 {
		return errors.New("watchlist.default cannot be empty")
	}
	t := c.Trading
	if t.RiskPercentage <= 0 || t.RiskPercentage > 1 {
		return fmt.Errorf("trading.risk_percentage must be in (0, 1], got %.4f", t.RiskPercentage)
	}
	if t.MaxContracts < 1 {
		return fmt.Errorf("trading.max_contracts must be >= 1, got %d", t.MaxContracts)
	}
	if t.OptionExpiryMonths < 0 {
		return fmt.Errorf("trading.option_expiry_months must be >= 0, got %d", t.OptionExpiryMonths)
	}
	if t.ATMTolerance <= 0 || t.ATMTolerance >= 1 {
		return fmt.Errorf("trading.atm_tolerance must be in (0, 1), got %.4f", t.ATMTolerance)
	}
	if t.ProfitTarget <= 0 {
		return fmt.Errorf("trading.profit_target must be > 0, got %.4f", t.ProfitTarget)
	}
	if t.MinConfidence < 0 || t.EntryThreshold < 0 {
		return errors.New("trading.min_confidence and trading.entry_threshold must be >= 0")
	}
	if t.MaxOpportunities < 1 {
		return fmt.Errorf("trading.max_opportunities must be >= 1, got %d", t.MaxOpportunities)
	}
	if t.PremiumEstimatePct <= 0 || t.PremiumEstimatePct >= 1 {
		return fmt.Errorf("trading.premium_estimate_pct must be in (0, 1), got %.4f", t.PremiumEstimatePct)
	}
	if c.Trend.VolumeThreshold <= 0 {
		return fmt.Errorf("trend.volume_threshold must be > 0, got %.2f", c.Trend.VolumeThreshold)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Network.RequestTimeout <= 0 || c.Network.Concurrency < 1 {
		return errors.New("network.request_timeout must be positive and network.concurrency >= 1")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Alert.Provider != "telegram" && c.Alert.Provider != "log" {
		return fmt.Errorf("alert.provider must be 'telegram' or 'log', got '%s'", c.Alert.Provider)
	}
	return nil
}

// Location is the market timezone used for schedules and journal dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes yaml, applies defaults and env secrets, and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
