package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InsecureSecret 原实现的默认签名密钥，生产环境必须拒绝
const InsecureSecret = "secret"

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string `mapstructure:"corsorigins"`
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level string
	JSON  bool
	File  string
}

type JWT struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration `mapstructure:"sessionttl"`
}

type Auth struct {
	SaltRounds int `mapstructure:"saltrounds"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Events struct {
	InProcess   bool `mapstructure:"inprocess"`
	Concurrency int  `mapstructure:"concurrency"`
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
	App    App
	Log    Log
	JWT    JWT
	Auth   Auth
	DB     DB
	Redis  Redis  `mapstructure:"redis"`
	Events Events `mapstructure:"events"`
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.App.Env) {
	case "production", "prod":
		return true
	}
	return false
}

func (c *Config) Validate() error {
	if c.Auth.SaltRounds < 4 || c.Auth.SaltRounds > 31 {
		return fmt.Errorf("SALT_ROUNDS must be within [4,31], got %d", c.Auth.SaltRounds)
	}
	if c.App.HTTP.Port <= 0 || c.App.HTTP.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.App.HTTP.Port)
	}
	if c.IsProduction() {
		if c.JWT.Secret == "" || c.JWT.Secret == InsecureSecret {
			return errors.New("JWT_SECRET must be set to a non-default value in production")
		}
		if c.DB.DSN == "" {
			return errors.New("DATABASE_URL is required in production")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "auth-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3000)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.corsorigins", []string{"http://localhost:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")

	v.SetDefault("jwt.secret", InsecureSecret)
	v.SetDefault("jwt.issuer", "auth-service")
	v.SetDefault("jwt.sessionttl", 7*24*time.Hour)

	v.SetDefault("auth.saltrounds", 10)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("events.inprocess", false)
	v.SetDefault("events.concurrency", 4)
}

// 常用的无前缀环境变量（PORT / JWT_SECRET ...）
var envAliases = map[string][]string{
	"app.env":         {"APP_ENV", "NODE_ENV"},
	"app.http.port":   {"PORT"},
	"jwt.secret":      {"JWT_SECRET"},
	"auth.saltrounds": {"SALT_ROUNDS"},
	"db.driver":       {"DB_DRIVER"},
	"db.dsn":          {"DATABASE_URL", "DB_DSN"},
	"redis.addr":      {"REDIS_ADDR"},
	"redis.password":  {"REDIS_PASSWORD"},
	"redis.db":        {"REDIS_DB"},
}

// Load 读取 YAML（可选）+ 环境变量。文件不存在时只用默认值和环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range envAliases {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil || !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
