// Package config loads server settings from the environment, an optional
// .env file, and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverJSONFile = "jsonfile"
	DriverSQLite   = "sqlite"

	PasswordBcrypt        = "bcrypt"
	PasswordPlaintextDemo = "plaintext-demo"
)

type Config struct {
	Port            string  `mapstructure:"PORT" validate:"required,numeric"`
	StoreDriver     string  `mapstructure:"STORE_DRIVER" validate:"oneof=memory jsonfile sqlite"`
	DataPath        string  `mapstructure:"DATA_PATH"`
	DatabasePath    string  `mapstructure:"DATABASE_PATH"`
	JWTSecret       string  `mapstructure:"JWT_SECRET" validate:"min=32"`
	PasswordMode    string  `mapstructure:"PASSWORD_MODE" validate:"oneof=bcrypt plaintext-demo"`
	BcryptCost      int     `mapstructure:"BCRYPT_COST" validate:"gte=4,lte=14"`
	DefaultPassword string  `mapstructure:"DEFAULT_PASSWORD" validate:"required"`
	LogLevel        string  `mapstructure:"LOG_LEVEL"`
	RateLimitRPS    float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst  int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=1"`
	CookieSecure    bool    `mapstructure:"COOKIE_SECURE"`
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"port":         "PORT",
	"store-driver": "STORE_DRIVER",
	"data-path":    "DATA_PATH",
	"db-path":      "DATABASE_PATH",
	"log-level":    "LOG_LEVEL",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("port", "", "HTTP port (env PORT)")
	fs.String("store-driver", "", "memory, jsonfile or sqlite (env STORE_DRIVER)")
	fs.String("data-path", "", "JSON document path for the jsonfile driver (env DATA_PATH)")
	fs.String("db-path", "", "database file for the sqlite driver (env DATABASE_PATH)")
	fs.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
}

// Load reads the configuration. fs may be nil; flags left at their zero
// value do not override the environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3333")
	v.SetDefault("STORE_DRIVER", DriverJSONFile)
	v.SetDefault("DATA_PATH", "data/db.json")
	v.SetDefault("DATABASE_PATH", "clinic.db")
	v.SetDefault("PASSWORD_MODE", PasswordBcrypt)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("DEFAULT_PASSWORD", "password123")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_RPS", 1)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("COOKIE_SECURE", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "DATA_PATH", "DATABASE_PATH", "JWT_SECRET",
		"PASSWORD_MODE", "BCRYPT_COST", "DEFAULT_PASSWORD", "LOG_LEVEL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "COOKIE_SECURE",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				v.Set(key, f.Value.String())
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.PasswordMode = strings.ToLower(cfg.PasswordMode)
	return cfg, nil
}

// Validate reports every setting that would stop the server from starting
// safely.
func (c *Config) Validate() error {
	var errs []error

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	} else if err != nil {
		errs = append(errs, err)
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a slog level", c.LogLevel)
	}
	return level, nil
}

// PlaintextPasswords reports whether passwords are stored unhashed.
func (c *Config) PlaintextPasswords() bool {
	return c.PasswordMode == PasswordPlaintextDemo
}

// validate reports fields by their environment key.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}()

func fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "JWT_SECRET":
		if fe.Value() == "" {
			return errors.New("JWT_SECRET is required")
		}
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	case "BCRYPT_COST":
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %v", fe.Value())
	case "STORE_DRIVER":
		return fmt.Errorf("STORE_DRIVER must be memory, jsonfile or sqlite, got %q", fe.Value())
	case "PASSWORD_MODE":
		return fmt.Errorf("PASSWORD_MODE must be bcrypt or plaintext-demo, got %q", fe.Value())
	}
	return fmt.Errorf("%s is invalid (%s)", fe.Field(), fe.Tag())
}
