// Package config loads participant configuration from the environment (prefix
// PARTICIPANT_) and an optional config file, then validates it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Participant roles.
const (
	RoleIdP = "idp"
	RoleRP  = "rp"
	RoleAS  = "as"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config is the full participant configuration.
type Config struct {
	Role string `mapstructure:"role" validate:"required,oneof=idp rp as"`
	// NodeID is this participant's node id at the verification backend.
	NodeID   string `mapstructure:"node_id"`
	Addr     string `mapstructure:"addr" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// CallbackBaseURL is how the backend reaches this process, e.g.
	// http://idp-1:5002. Webhook paths are appended to it.
	CallbackBaseURL string `mapstructure:"callback_base_url" validate:"required,url"`
	AdminToken      string `mapstructure:"admin_token"`

	Backend     BackendConfig     `mapstructure:"backend"`
	Store       StoreConfig       `mapstructure:"store"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Bootstrap   BootstrapConfig   `mapstructure:"bootstrap"`
	IdP         IdPConfig         `mapstructure:"idp"`
	AS          ASConfig          `mapstructure:"as"`
}

// BackendConfig points at the verification backend API.
type BackendConfig struct {
	URL        string        `mapstructure:"url" validate:"required,url"`
	APIVersion string        `mapstructure:"api_version" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// StoreConfig selects persistence for each record family.
type StoreConfig struct {
	// Pending selects the pending operation / request policy store.
	Pending string `mapstructure:"pending" validate:"oneof=memory redis"`
	// Identity selects the subject / accessor store.
	Identity string `mapstructure:"identity" validate:"oneof=memory postgres"`
}

// RedisConfig mirrors go-redis options that matter here.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// KeyPrefix namespaces keys when several participants share an instance.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PostgresConfig configures the identity store database.
type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// KafkaConfig enables lifecycle event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// CorrelationConfig bounds how long a callback waits for its pending record.
type CorrelationConfig struct {
	AwaitTimeout    time.Duration `mapstructure:"await_timeout" validate:"gte=0"`
	AwaitInterval   time.Duration `mapstructure:"await_interval" validate:"gt=0"`
	SubjectTxExpiry time.Duration `mapstructure:"subject_tx_timeout" validate:"gt=0"`
}

// BootstrapConfig controls the self-registration retry loop.
type BootstrapConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"gt=0"`
}

// IdPConfig holds identity provider settings.
type IdPConfig struct {
	KeyBits        int    `mapstructure:"key_bits" validate:"gte=1024"`
	AccessorType   string `mapstructure:"accessor_type" validate:"required"`
	UpgradeMessage string `mapstructure:"upgrade_message"`
}

// ASConfig holds authoritative source settings.
type ASConfig struct {
	DataPath     string   `mapstructure:"data_path"`
	Services     []string `mapstructure:"services"`
	MinIAL       float64  `mapstructure:"min_ial"`
	MinAAL       float64  `mapstructure:"min_aal"`
	DefaultDelay int      `mapstructure:"default_delay" validate:"gte=0"`
}

func setDefaults(v *viper.Viper, role string) {
	port := map[string]string{RoleIdP: "5002", RoleRP: "5001", RoleAS: "5003"}[role]
	v.SetDefault("role", role)
	v.SetDefault("node_id", role+"1")
	v.SetDefault("addr", ":"+port)
	v.SetDefault("log_level", "info")
	v.SetDefault("callback_base_url", "http://localhost:"+port)
	v.SetDefault("admin_token", "")

	v.SetDefault("backend.url", "http://localhost:8081")
	v.SetDefault("backend.api_version", "v5")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("store.pending", DriverMemory)
	v.SetDefault("store.identity", DriverMemory)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.key_prefix", role)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 10)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "idsim.lifecycle")

	v.SetDefault("correlation.await_timeout", 2*time.Second)
	v.SetDefault("correlation.await_interval", 50*time.Millisecond)
	v.SetDefault("correlation.subject_tx_timeout", 5*time.Second)

	v.SetDefault("bootstrap.retry_interval", 5*time.Second)

	v.SetDefault("idp.key_bits", 2048)
	v.SetDefault("idp.accessor_type", "RSA")
	v.SetDefault("idp.upgrade_message", "Please give consent for upgrading your identity mode.")

	v.SetDefault("as.data_path", "./data")
	v.SetDefault("as.services", []string{})
	v.SetDefault("as.min_ial", 2.3)
	v.SetDefault("as.min_aal", 2.2)
	v.SetDefault("as.default_delay", 0)
}

// Load reads configuration for role. configFile may be empty.
func Load(role, configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v, role)
	v.SetEnvPrefix("PARTICIPANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags plus cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Pending == DriverRedis && c.Redis.URL == "" {
		return fmt.Errorf("invalid config: redis.url is required when store.pending=redis")
	}
	if c.Store.Identity == DriverPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("invalid config: postgres.dsn is required when store.identity=postgres")
	}
	return nil
}
