package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const DefaultPath = "./configs/config.local.yaml"

// MinSecretLen is the shortest JWT secret accepted outside development.
const MinSecretLen = 32

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyBytes      int64
	MaxInFlight       int64
	CORSOrigins       []string `mapstructure:"corsOrigins"`
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret string
	Issuer string

	generated bool
}

// Generated reports whether Secret was filled by EnsureSecret.
func (j JWT) Generated() bool { return j.generated }

type Session struct {
	CookieName string
}

type Auth struct {
	BcryptCost          int
	MaxConcurrentHashes int
}

type Redis struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ProfileTTLSec int    `mapstructure:"profileTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	Session Session
	Auth    Auth
	DB      DB
	Redis   Redis `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "go-gin-tasks")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 15)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 10)
	v.SetDefault("app.http.maxBodyBytes", 1<<20)
	v.SetDefault("app.http.maxInFlight", 300)
	v.SetDefault("app.http.corsOrigins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 5)
	v.SetDefault("log.file.maxAgeDays", 14)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "go-gin-tasks")
	v.SetDefault("session.cookieName", "token")
	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("auth.maxConcurrentHashes", 0)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.profileTTLSec", 300)
}

// Load reads the YAML file at path, then applies APP_* environment
// overrides. An explicitly named file must exist; the default one may not.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("jwt.secret", "APP_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("db.dsn", "APP_DB_DSN", "DATABASE_URL")

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// IsProduction is true for every env that is not explicitly a local one.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.App.Env)) {
	case "development", "dev", "local", "test":
		return false
	}
	return true
}

// Validate rejects configurations that must never reach a production-like
// deployment.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		switch {
		case c.JWT.Secret == "":
			errs = append(errs, errors.New("jwt.secret is required"))
		case len(c.JWT.Secret) < MinSecretLen:
			errs = append(errs, fmt.Errorf("jwt.secret must be at least %d bytes", MinSecretLen))
		}
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required"))
		}
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookieName is required"))
	}
	return errors.Join(errs...)
}

// EnsureSecret fills a random, per-process JWT secret when none is set in a
// non-production env. It reports whether it did so.
func (c *Config) EnsureSecret() (bool, error) {
	if c.JWT.Secret != "" {
		return false, nil
	}
	if c.IsProduction() {
		return false, errors.New("jwt.secret is required")
	}
	b := make([]byte, MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		return false, fmt.Errorf("generate jwt secret: %w", err)
	}
	c.JWT.Secret = hex.EncodeToString(b)
	c.JWT.generated = true
	return true, nil
}
