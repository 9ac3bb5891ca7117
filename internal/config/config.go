// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"time"
)

// Config is assembled from three layers, later ones winning: the embedded
// defaults.yaml, an optional config file, then the process environment.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Session   SessionConfig   `koanf:"session"`
	Admin     AdminConfig     `koanf:"admin"`
	GraphQL   GraphQLConfig   `koanf:"graphql"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"oneof=development staging production test"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url" validate:"required"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
	MetricPrefix string `koanf:"metric_prefix"`
}

type JWTConfig struct {
	PrivateKeyPath string        `koanf:"private_key_path" validate:"required"`
	PublicKeyPath  string        `koanf:"public_key_path" validate:"required"`
	TokenExpire    time.Duration `koanf:"token_expire" validate:"gt=0"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
}

type SessionConfig struct {
	CookieName string        `koanf:"cookie_name"`
	MaxAge     time.Duration `koanf:"max_age" validate:"gte=0"`
	Secure     bool          `koanf:"secure"`
	Domain     string        `koanf:"domain"`
}

// AdminConfig names the master admin account seeded at start-up.
type AdminConfig struct {
	MasterEmail    string `koanf:"master_email" validate:"required,email"`
	MasterPassword string `koanf:"master_password"`
}

type GraphQLConfig struct {
	Path          string `koanf:"path" validate:"startswith=/"`
	MaxDepth      int    `koanf:"max_depth"`
	Introspection bool   `koanf:"introspection"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"gt=0"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
