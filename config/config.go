// Package config loads service settings from the environment, reading an
// optional .env file first.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/fahoumeabdelali/cfpnc-auth"
)

// Duration accepts Go durations ("1h", "30m"), days ("7d") and plain
// numbers. A plain number is read as seconds ("3600" is one hour), not as
// milliseconds the way jsonwebtoken reads numeric strings. Negative values
// are rejected.
type Duration time.Duration

// Decode implements envconfig.Decoder
func (d *Duration) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*d = 0
		return nil
	}

	parsed, err := parseDuration(value)
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", value)
	}

	*d = Duration(parsed)
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	parsed, err := time.ParseDuration(value)
	if err == nil {
		return parsed, nil
	}

	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, derr := strconv.Atoi(days); derr == nil {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	return 0, fmt.Errorf("invalid duration %q: %w", value, err)
}

type Config struct {
	HTTPAddr       string   `envconfig:"HTTP_ADDR" default:":3000"`
	DBDriver       string   `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN          string   `envconfig:"DB_DSN" default:"file:cfpnc.db?cache=shared"`
	DBDebug        bool     `envconfig:"DB_DEBUG" default:"false"`
	JWTSecret      string   `envconfig:"JWT_SECRET" required:"true"`
	JWTDuring      Duration `envconfig:"JWT_DURING"`
	JWTLogin       Duration `envconfig:"JWT_LOGIN_DURING"`
	JWTRemember    Duration `envconfig:"JWT_REMEMBER_DURING"`
	JWTIssuer      string   `envconfig:"JWT_ISSUER"`
	BcryptCost     int      `envconfig:"BCRYPT_SALT_ROUND" default:"10"`
	UpdateScope    string   `envconfig:"PASSWORD_UPDATE_SCOPE" default:"all"`
	LoginRateLimit int      `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	// SeedRoles is role:perm1|perm2 pairs separated by commas
	SeedRoles map[string]string `envconfig:"SEED_ROLES"`
}

var _ auth.Config = Config{}

// Load reads the files (".env" when none given) into the process
// environment, then parses the environment. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values envconfig cannot
func (c Config) Validate() error {
	switch c.UpdateScope {
	case auth.PasswordUpdateAll, auth.PasswordUpdateSelf:
	default:
		return fmt.Errorf("PASSWORD_UPDATE_SCOPE must be %q or %q, got %q", auth.PasswordUpdateAll, auth.PasswordUpdateSelf, c.UpdateScope)
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_SALT_ROUND must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

// Grants parses SeedRoles into role -> permissions
func (c Config) Grants() map[string][]string {
	out := make(map[string][]string, len(c.SeedRoles))
	for role, perms := range c.SeedRoles {
		list := make([]string, 0)
		for _, p := range strings.Split(perms, "|") {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		out[strings.TrimSpace(role)] = list
	}
	return out
}

func (c Config) GetSigningKey() string {
	return c.JWTSecret
}

func (c Config) GetIssuer() string {
	return c.JWTIssuer
}

func (c Config) GetTokenExpiration() time.Duration {
	return time.Duration(c.JWTLogin)
}

func (c Config) GetExtendedTokenDuration() time.Duration {
	return time.Duration(c.JWTRemember)
}

func (c Config) GetResetTokenExpiration() time.Duration {
	return time.Duration(c.JWTDuring)
}

func (c Config) GetBcryptCost() int {
	return c.BcryptCost
}

func (c Config) GetPasswordUpdateScope() auth.PasswordUpdateScope {
	return c.UpdateScope
}
