package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Exchange ExchangeConfig `mapstructure:"exchange" validate:"required"`
	Candles  CandlesConfig  `mapstructure:"candles" validate:"required"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Risk     RiskConfig     `mapstructure:"risk"`
	News     NewsConfig     `mapstructure:"news"`
	Bot      BotConfig      `mapstructure:"bot"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type ExchangeConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`

	PrivateKey    string `mapstructure:"private_key"`
	WalletAddress string `mapstructure:"wallet_address"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	URL         string        `mapstructure:"url" validate:"required"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"`
}

// CandlesConfig configures the in-memory candle store. The interval is fixed
// per process; the store never mixes bucket widths.
type CandlesConfig struct {
	Interval   string `mapstructure:"interval" validate:"required"` // e.g. "15m"
	MaxCandles int    `mapstructure:"max_candles" validate:"gt=0"`
}

type StrategyConfig struct {
	FastPeriod      int `mapstructure:"fast_period"`
	SlowPeriod      int `mapstructure:"slow_period"`
	LookbackCandles int `mapstructure:"lookback_candles"`

	// Breakout buffers as fractions of price. Majors (BTC/ETH) trade tighter
	// ranges than alts, so they get their own pair.
	MajorBufferMin float64 `mapstructure:"major_buffer_min"`
	MajorBufferMax float64 `mapstructure:"major_buffer_max"`
	AltBufferMin   float64 `mapstructure:"alt_buffer_min"`
	AltBufferMax   float64 `mapstructure:"alt_buffer_max"`
}

type RiskConfig struct {
	MaxLeverage       float64 `mapstructure:"max_leverage"`
	MaxPositions      int     `mapstructure:"max_positions"`
	RiskPerTradePct   float64 `mapstructure:"risk_per_trade_pct"`
	DailyMaxLossPct   float64 `mapstructure:"daily_max_loss_pct"`
	PerCoinMaxLossPct float64 `mapstructure:"per_coin_max_loss_pct"`
}

type NewsConfig struct {
	Feeds          []string      `mapstructure:"feeds"`
	BlockKeywords  []string      `mapstructure:"block_keywords"`
	CoolOff        time.Duration `mapstructure:"cool_off"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type BotConfig struct {
	TopSymbols    int           `mapstructure:"top_symbols" validate:"gt=0"`
	CandleLimit   int           `mapstructure:"candle_limit" validate:"gt=0"`
	Warmup        time.Duration `mapstructure:"warmup"`
	MinLoopPeriod time.Duration `mapstructure:"min_loop_period"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads config.yaml, overrides with environment variables, and validates
// the result. A .env.local file in the working directory is loaded first so
// exchange credentials never have to live in the yaml file.
func Load() *Config {
	// Best effort: the file is optional outside local development.
	_ = godotenv.Load(".env.local")

	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	v.AddConfigPath("./config")

	// Support environment variables with dot notation (e.g., EXCHANGE_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.rest.base_url", "https://api.hyperliquid.xyz")
	v.SetDefault("exchange.rest.timeout", 10*time.Second)
	v.SetDefault("exchange.ws.url", "wss://api.hyperliquid.xyz/ws")
	v.SetDefault("exchange.ws.backoff_base", 5*time.Second)
	v.SetDefault("exchange.ws.backoff_max", 60*time.Second)

	v.SetDefault("candles.interval", "15m")
	v.SetDefault("candles.max_candles", 200)

	v.SetDefault("strategy.fast_period", 20)
	v.SetDefault("strategy.slow_period", 50)
	v.SetDefault("strategy.lookback_candles", 24)
	v.SetDefault("strategy.major_buffer_min", 0.001)
	v.SetDefault("strategy.major_buffer_max", 0.002)
	v.SetDefault("strategy.alt_buffer_min", 0.002)
	v.SetDefault("strategy.alt_buffer_max", 0.004)

	v.SetDefault("risk.max_leverage", 15.0)
	v.SetDefault("risk.max_positions", 8)
	v.SetDefault("risk.risk_per_trade_pct", 0.01)
	v.SetDefault("risk.daily_max_loss_pct", 0.05)
	v.SetDefault("risk.per_coin_max_loss_pct", 0.03)

	v.SetDefault("news.feeds", []string{
		"https://www.coindesk.com/arc/outboundfeeds/rss/",
		"https://cointelegraph.com/rss",
		"https://decrypt.co/feed",
	})
	v.SetDefault("news.block_keywords", []string{
		"hack", "exploit", "rug pull", "insolvency", "bankruptcy", "regulation ban",
	})
	v.SetDefault("news.cool_off", 30*time.Minute)
	v.SetDefault("news.request_timeout", 5*time.Second)

	v.SetDefault("bot.top_symbols", 20)
	v.SetDefault("bot.candle_limit", 100)
	v.SetDefault("bot.warmup", 10*time.Second)
	v.SetDefault("bot.min_loop_period", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}
