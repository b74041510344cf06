package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level string
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	SessionTTL          time.Duration
	CookieSigningSecret string
	DummyHashOnMiss     bool
	MaxLoginAttempts    int
	LoginWindow         time.Duration
	MinPasswordLength   int
}

// BootstrapConfig holds the account created when admin_users is empty.
type BootstrapConfig struct {
	Username string
	Password string
}

type GateConfig struct {
	ProtectedPrefix string
	LoginPath       string
}

type AuditConfig struct {
	Stream        string
	Retention     time.Duration
	PruneSchedule string
}

type WorkerConfig struct {
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	Log              LogConfig
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Bootstrap        BootstrapConfig
	Gate             GateConfig
	Audit            AuditConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("security.sessionttl must be positive, got %s", c.Security.SessionTTL)
	}
	if c.Bootstrap.Username == "" || c.Bootstrap.Password == "" {
		return errors.New("bootstrap.username and bootstrap.password are required")
	}
	if !strings.HasPrefix(c.Gate.ProtectedPrefix, "/") || !strings.HasPrefix(c.Gate.LoginPath, "/") {
		return errors.New("gate paths must be absolute")
	}
	if strings.Trim(c.Gate.ProtectedPrefix, "/") == "" {
		return errors.New("gate.protectedprefix must not be the site root")
	}
	if strings.HasPrefix(c.Gate.LoginPath, c.Gate.ProtectedPrefix+"/") || c.Gate.LoginPath == c.Gate.ProtectedPrefix {
		return errors.New("gate.loginpath must not be under gate.protectedprefix")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log.level", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.cookiesigningsecret", "")
	v.SetDefault("security.dummyhashonmiss", false)
	v.SetDefault("security.maxloginattempts", 10)
	v.SetDefault("security.loginwindow", "15m")
	v.SetDefault("security.minpasswordlength", 6)

	v.SetDefault("bootstrap.username", "dage666")
	v.SetDefault("bootstrap.password", "dage168")

	v.SetDefault("gate.protectedprefix", "/admin")
	v.SetDefault("gate.loginpath", "/login")

	v.SetDefault("audit.stream", "auth:events")
	v.SetDefault("audit.retention", "2160h") // 90 days
	v.SetDefault("audit.pruneschedule", "0 0 3 * * *")

	v.SetDefault("worker.group", "audit-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "10s")

	v.SetDefault("allowcorsorigins", []string{})
}
