package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Market MarketConfig `mapstructure:"market"`
	Engine EngineConfig `mapstructure:"engine"`
	Cron   CronConfig   `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// MarketConfig points at the wallet/market data provider.
type MarketConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// EngineConfig carries the analysis heuristics. The escaped/exited PnL
// threshold and the liquidity cutoffs come from the original heuristics and
// stay configurable rather than hard-coded.
type EngineConfig struct {
	DefaultWindowDays int           `mapstructure:"default_window_days"`
	Workers           int           `mapstructure:"workers"`
	LookupTimeout     time.Duration `mapstructure:"lookup_timeout"`

	EscapedPnLThresholdUSD float64 `mapstructure:"escaped_pnl_threshold_usd"`
	LiquidityLowUSD        float64 `mapstructure:"liquidity_low_usd"`
	LiquidityDrainedUSD    float64 `mapstructure:"liquidity_drained_usd"`
	HolderConcentrationMax float64 `mapstructure:"holder_concentration_max"`
	PriceCollapseRatio     float64 `mapstructure:"price_collapse_ratio"`
	RugMinSignals          int     `mapstructure:"rug_min_signals"`
	VerificationTolerance  float64 `mapstructure:"verification_tolerance"`
	CopyMatchToleranceMs   int64   `mapstructure:"copy_match_tolerance_ms"`
	CopyShortWindowMs      int64   `mapstructure:"copy_short_window_ms"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RefreshReports string `mapstructure:"refresh_reports"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "10m")
	v.SetDefault("market.base_url", "http://localhost:9090")
	v.SetDefault("market.timeout", "15s")
	v.SetDefault("market.retry.max_attempts", 3)
	v.SetDefault("market.retry.base_delay", "200ms")
	v.SetDefault("market.retry.max_delay", "5s")
	v.SetDefault("engine.default_window_days", 30)
	v.SetDefault("engine.workers", 8)
	v.SetDefault("engine.lookup_timeout", "10s")
	v.SetDefault("engine.escaped_pnl_threshold_usd", -50)
	v.SetDefault("engine.liquidity_low_usd", 1000)
	v.SetDefault("engine.liquidity_drained_usd", 50)
	v.SetDefault("engine.holder_concentration_max", 0.5)
	v.SetDefault("engine.price_collapse_ratio", 0.01)
	v.SetDefault("engine.rug_min_signals", 2)
	v.SetDefault("engine.verification_tolerance", 1e-6)
	v.SetDefault("engine.copy_match_tolerance_ms", 60000)
	v.SetDefault("engine.copy_short_window_ms", 3600000)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.refresh_reports", "@every 30m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
