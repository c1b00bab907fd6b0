package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Remote       RemoteConfig
	Session      SessionConfig
	Widget       WidgetConfig
	Redis        RedisConfig
	SQLite       SQLiteConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MYSELLKIT_APP_ENV" default:"dev"`
	Port         string `envconfig:"MYSELLKIT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MYSELLKIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MYSELLKIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig points the engine at the config/tracking/checkout service.
type RemoteConfig struct {
	APIBase      string        `envconfig:"MYSELLKIT_API_BASE" default:"https://mysellkit.com/api/1.1/wf"`
	CheckoutBase string        `envconfig:"MYSELLKIT_CHECKOUT_BASE" default:"https://mysellkit.com"`
	HTTPTimeout  time.Duration `envconfig:"MYSELLKIT_HTTP_TIMEOUT" default:"10s"`
}

func (r RemoteConfig) validate() error {
	if strings.TrimSpace(r.APIBase) == "" {
		return fmt.Errorf("%s is required", EnvAPIBase)
	}
	if strings.TrimSpace(r.CheckoutBase) == "" {
		return fmt.Errorf("%s is required", EnvCheckoutBase)
	}
	return nil
}

type SessionConfig struct {
	// Duration bounds both session-record reuse and the auto-trigger cooldown.
	Duration time.Duration `envconfig:"MYSELLKIT_SESSION_DURATION" default:"24h"`
}

// WidgetConfig holds the timing knobs of the visible widget.
type WidgetConfig struct {
	FloatingShowDelay time.Duration `envconfig:"MYSELLKIT_FLOATING_SHOW_DELAY" default:"300ms"`
	RedirectDelay     time.Duration `envconfig:"MYSELLKIT_REDIRECT_DELAY" default:"150ms"`
	CancelReshowDelay time.Duration `envconfig:"MYSELLKIT_CANCEL_RESHOW_DELAY" default:"500ms"`
	PaneScrollDelay   time.Duration `envconfig:"MYSELLKIT_PANE_SCROLL_DELAY" default:"100ms"`
	ToastDuration     time.Duration `envconfig:"MYSELLKIT_TOAST_DURATION" default:"5s"`
	MobileBreakpoint  int           `envconfig:"MYSELLKIT_MOBILE_BREAKPOINT" default:"768"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MYSELLKIT_REDIS_URL"`
	Address      string        `envconfig:"MYSELLKIT_REDIS_ADDR"`
	Password     string        `envconfig:"MYSELLKIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"MYSELLKIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MYSELLKIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MYSELLKIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MYSELLKIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MYSELLKIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MYSELLKIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SQLiteConfig struct {
	Path string `envconfig:"MYSELLKIT_SQLITE_PATH" default:"mysellkit.db"`
}

type FeatureFlagsConfig struct {
	// UseSQLite selects the sqlite durable store instead of redis.
	UseSQLite bool `envconfig:"MYSELLKIT_USE_SQLITE" default:"false"`
}
