package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "3333" {
		t.Errorf("expected default port 3333, got %s", cfg.Port)
	}
	if cfg.StoreDriver != DriverJSONFile {
		t.Errorf("expected default driver jsonfile, got %s", cfg.StoreDriver)
	}
	if cfg.DataPath != "data/db.json" {
		t.Errorf("expected default data path, got %s", cfg.DataPath)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("expected default bcrypt cost 12, got %d", cfg.BcryptCost)
	}
	if cfg.PasswordMode != PasswordBcrypt || cfg.PlaintextPasswords() {
		t.Errorf("expected bcrypt mode, got %s", cfg.PasswordMode)
	}
	if !cfg.CookieSecure {
		t.Error("expected secure cookies by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("BCRYPT_COST", "6")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("expected sqlite, got %s", cfg.StoreDriver)
	}
	if cfg.BcryptCost != 6 {
		t.Errorf("expected bcrypt cost 6, got %d", cfg.BcryptCost)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.CookieSecure {
		t.Error("expected COOKIE_SECURE=false to disable secure cookies")
	}
	if level, err := cfg.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v (%v)", level, err)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--port", "9100", "--store-driver", "memory"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected flag port 9100, got %s", cfg.Port)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("expected flag driver memory, got %s", cfg.StoreDriver)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"JWT_SECRET", "DEFAULT_PASSWORD"} {
		t.Setenv(key, "") // restores the original value afterwards
		os.Unsetenv(key)
	}
	env := "JWT_SECRET=" + testSecret + "\nDEFAULT_PASSWORD=from-dotenv\n"
	if err := os.WriteFile(".env", []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTSecret != testSecret {
		t.Errorf("expected JWT secret from .env, got %q", cfg.JWTSecret)
	}
	if cfg.DefaultPassword != "from-dotenv" {
		t.Errorf("expected default password from .env, got %q", cfg.DefaultPassword)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port: "3333", StoreDriver: DriverMemory, JWTSecret: testSecret, PasswordMode: PasswordBcrypt,
			BcryptCost: 12, DefaultPassword: "password123", LogLevel: "info", RateLimitRPS: 1, RateLimitBurst: 5,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 32 characters"},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 3 }, "BCRYPT_COST"},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 15 }, "BCRYPT_COST"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }, "STORE_DRIVER"},
		{"unknown password mode", func(c *Config) { c.PasswordMode = "md5" }, "PASSWORD_MODE"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"zero rate", func(c *Config) { c.RateLimitRPS = 0 }, "RATE_LIMIT_RPS"},
		{"non-numeric port", func(c *Config) { c.Port = "http" }, "PORT"},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
