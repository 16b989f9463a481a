package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "PETTYCASH"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Events   EventsConfig   `mapstructure:"events"`

	ConfigPath string `mapstructure:"-"`
}

type ServerConfig struct {
	Port             string        `mapstructure:"port"`
	Host             string        `mapstructure:"host"`
	Environment      string        `mapstructure:"environment"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type JWTConfig struct {
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
	RememberMeDuration  time.Duration `mapstructure:"remember_me_duration"`
	Issuer              string        `mapstructure:"issuer"`
	PrivateKeyBase64    string        `mapstructure:"private_key"`
	PublicKeyBase64     string        `mapstructure:"public_key"`

	PrivateKey *rsa.PrivateKey `mapstructure:"-"`
	PublicKey  *rsa.PublicKey  `mapstructure:"-"`
}

type SecurityConfig struct {
	BCryptCost         int `mapstructure:"bcrypt_cost"`
	RateLimitPerSecond int `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst"`
}

type LedgerConfig struct {
	BalanceCacheEnabled bool  `mapstructure:"balance_cache_enabled"`
	Denominations       []int `mapstructure:"denominations"`
}

type EventsConfig struct {
	AMQPURL    string `mapstructure:"amqp_url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
	QueueSize  int    `mapstructure:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_allow_origins", []string{"*"})

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "pettycash")
	v.SetDefault("database.password", "pettycash")
	v.SetDefault("database.name", "pettycash")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "pettycash.db")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_queries", false)

	v.SetDefault("jwt.access_token_duration", 12*time.Hour)
	v.SetDefault("jwt.remember_me_duration", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "pettycash")
	v.SetDefault("jwt.private_key", "")
	v.SetDefault("jwt.public_key", "")

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit_per_second", 5)
	v.SetDefault("security.rate_limit_burst", 10)

	v.SetDefault("ledger.balance_cache_enabled", true)
	v.SetDefault("ledger.denominations", []int{1000, 500, 100, 50, 10, 5, 1})

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "pettycash.events")
	v.SetDefault("events.routing_key", "ledger")
	v.SetDefault("events.queue_size", 256)
}

// Load reads .env, an optional config file and PETTYCASH_* environment
// variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	privateKey, publicKey, err := cfg.loadJWTKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to load RSA keys: %w", err)
	}
	cfg.JWT.PrivateKey = privateKey
	cfg.JWT.PublicKey = publicKey

	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver))
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required for sqlite"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("jwt.access_token_duration must be positive"))
	}
	if c.JWT.RememberMeDuration < c.JWT.AccessTokenDuration {
		errs = append(errs, errors.New("jwt.remember_me_duration must not be shorter than jwt.access_token_duration"))
	}
	if c.Security.BCryptCost < 4 || c.Security.BCryptCost > 31 {
		errs = append(errs, errors.New("security.bcrypt_cost must be between 4 and 31"))
	}
	if c.Security.RateLimitPerSecond <= 0 || c.Security.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("security rate limits must be positive"))
	}
	if len(c.Ledger.Denominations) == 0 {
		errs = append(errs, errors.New("ledger.denominations must not be empty"))
	}
	seen := make(map[int]bool, len(c.Ledger.Denominations))
	for _, d := range c.Ledger.Denominations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("ledger.denominations must be positive, got %d", d))
		}
		if seen[d] {
			errs = append(errs, fmt.Errorf("ledger.denominations has duplicate %d", d))
		}
		seen[d] = true
	}
	if c.Events.AMQPURL != "" && c.Events.Exchange == "" {
		errs = append(errs, errors.New("events.exchange is required when events.amqp_url is set"))
	}

	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsTesting() bool {
	return c.Server.Environment == "testing"
}

// loadJWTKeys loads RSA keys for JWT signing and verification
// Priority order:
// 1. jwt.private_key and jwt.public_key (base64 PEM) when both are set
// 2. production without keys is an error
// 3. otherwise a fresh keypair is generated, so tokens do not survive a restart
func (c *Config) loadJWTKeys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if c.JWT.PrivateKeyBase64 != "" && c.JWT.PublicKeyBase64 != "" {
		return loadKeysFromBase64(c.JWT.PrivateKeyBase64, c.JWT.PublicKeyBase64)
	}

	if c.IsProduction() {
		return nil, nil, fmt.Errorf("%s_JWT_PRIVATE_KEY and %s_JWT_PUBLIC_KEY must be set in production", envPrefix, envPrefix)
	}

	slog.Info("generating ephemeral RSA keypair for access tokens", "environment", c.Server.Environment)
	return GenerateRSAKeyPair()
}

func loadKeysFromBase64(privateKeyB64, publicKeyB64 string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKeyBytes, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	publicKeyBytes, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	privateKey, err := loadRSAPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey, err := loadRSAPublicKey(publicKeyBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return privateKey, publicKey, nil
}

// GenerateRSAKeyPair generates a new RSA key pair
func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	return privateKey, &privateKey.PublicKey, nil
}

// loadRSAPrivateKey loads an RSA private key from PEM format
func loadRSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the key")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA private key")
		}

		return privateKey, nil
	}

	return privateKey, nil
}

// loadRSAPublicKey loads an RSA public key from PEM format
func loadRSAPublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the key")
	}

	publicKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPublicKey, ok := publicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}

	return rsaPublicKey, nil
}
