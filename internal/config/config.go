package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultConfigPath = "config/config.yaml"
)

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	ClientURL   string `yaml:"client_url"`
}

type DatabaseConfig struct {
	DSN     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	URL             string `yaml:"url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type AuthConfig struct {
	JWTSecret            string `yaml:"jwt_secret"`
	SessionTTLHours      int    `yaml:"session_ttl_hours"`
	ResetTokenTTLMinutes int    `yaml:"reset_token_ttl_minutes"`
	VerificationTTLHours int    `yaml:"verification_ttl_hours"`
	ResetOTPTTLMinutes   int    `yaml:"reset_otp_ttl_minutes"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
}

// LoadConfig reads the file named by CONFIG_PATH (config/config.yaml by default)
// and panics when it cannot be used; the server cannot start without it.
func LoadConfig() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := LoadFile(path)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Email.SMTPPassword = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	c.Server.Environment = strings.ToLower(strings.TrimSpace(c.Server.Environment))
	if c.Server.Environment == "" {
		c.Server.Environment = EnvDevelopment
	}
	if c.Redis.CacheTTLSeconds <= 0 {
		c.Redis.CacheTTLSeconds = 3600
	}
	if c.Auth.SessionTTLHours <= 0 {
		c.Auth.SessionTTLHours = 7 * 24
	}
	if c.Auth.ResetTokenTTLMinutes <= 0 {
		c.Auth.ResetTokenTTLMinutes = 10
	}
	if c.Auth.VerificationTTLHours <= 0 {
		c.Auth.VerificationTTLHours = 24
	}
	if c.Auth.ResetOTPTTLMinutes <= 0 {
		c.Auth.ResetOTPTTLMinutes = 15
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("server.environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Server.Environment)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c AuthConfig) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMinutes) * time.Minute
}

func (c AuthConfig) VerificationTTL() time.Duration {
	return time.Duration(c.VerificationTTLHours) * time.Hour
}

func (c AuthConfig) ResetOTPTTL() time.Duration {
	return time.Duration(c.ResetOTPTTLMinutes) * time.Minute
}

func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
