package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"1m"`
	QueryTimeout    time.Duration `yaml:"QUERY_TIMEOUT" env:"PG_QUERY_TIMEOUT" env-default:"5s"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// RateConfig bounds how often one owner may try discount codes.
type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"15s"`
}

type Security struct {
	JWTKey            string        `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	SessionCookieName string        `yaml:"SESSION_COOKIE_NAME" env:"SESSION_COOKIE_NAME" env-default:"storefront_session"`
	SessionCookieTTL  time.Duration `yaml:"SESSION_COOKIE_TTL" env:"SESSION_COOKIE_TTL" env-default:"720h"`
	CookieSecure      bool          `yaml:"COOKIE_SECURE" env:"COOKIE_SECURE"`
}

type OTel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
	VariantTTL time.Duration `yaml:"variant_ttl" env:"CACHE_VARIANT_TTL" env-default:"30s"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"STORAGE_AUTO_MIGRATE" env-default:"false"`
}

// Pricing is the only place tax and shipping constants live.
type Pricing struct {
	Currency              string  `yaml:"currency" env:"PRICING_CURRENCY" env-default:"USD"`
	TaxRate               float64 `yaml:"tax_rate" env:"PRICING_TAX_RATE"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold" env:"PRICING_FREE_SHIPPING_THRESHOLD"`
	FlatShippingFee       float64 `yaml:"flat_shipping_fee" env:"PRICING_FLAT_SHIPPING_FEE"`
}

type Loyalty struct {
	PointValue float64 `yaml:"point_value" env:"LOYALTY_POINT_VALUE" env-default:"1"`
	EarnRate   float64 `yaml:"earn_rate" env:"LOYALTY_EARN_RATE"`
}

type Cart struct {
	SessionTTL    time.Duration `yaml:"session_ttl" env:"CART_SESSION_TTL" env-default:"720h"`
	LockTTL       time.Duration `yaml:"lock_ttl" env:"CART_LOCK_TTL" env-default:"10s"`
	LockWait      time.Duration `yaml:"lock_wait" env:"CART_LOCK_WAIT" env-default:"3s"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"CART_SWEEP_INTERVAL"`
	MaxRetries    uint64        `yaml:"max_retries" env:"CART_MAX_RETRIES"`
}

type Orders struct {
	AllowGuestCheckout bool          `yaml:"allow_guest_checkout" env:"ORDERS_ALLOW_GUEST_CHECKOUT"`
	PendingTTL         time.Duration `yaml:"pending_ttl" env:"ORDERS_PENDING_TTL"`
	DefaultPageSize    int           `yaml:"default_page_size" env:"ORDERS_DEFAULT_PAGE_SIZE" env-default:"10"`
	MaxPageSize        int           `yaml:"max_page_size" env:"ORDERS_MAX_PAGE_SIZE" env-default:"100"`
}

type Notifier struct {
	Channel          string        `yaml:"channel" env:"NOTIFIER_CHANNEL" env-default:"storefront:changes"`
	SubscriberBuffer int           `yaml:"subscriber_buffer" env:"NOTIFIER_SUBSCRIBER_BUFFER" env-default:"16"`
	Heartbeat        time.Duration `yaml:"heartbeat" env:"NOTIFIER_HEARTBEAT" env-default:"25s"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	Security     Security     `yaml:"security"`
	OTel         OTel         `yaml:"otel"`
	Cache        CacheConfig  `yaml:"cache"`
	Storage      Storage      `yaml:"storage"`
	Pricing      Pricing      `yaml:"pricing"`
	Loyalty      Loyalty      `yaml:"loyalty"`
	Cart         Cart         `yaml:"cart"`
	Orders       Orders       `yaml:"orders"`
	Notifier     Notifier     `yaml:"notifier"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			log.Fatal("Config path is not set")
		}

	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg

}

// defaults holds the settings whose zero value is meaningful (false, 0).
// cleanenv's env-default would overwrite an explicit zero from YAML, so
// these are prefilled and the file or environment replaces them.
func defaults() Config {
	return Config{
		Security: Security{CookieSecure: true},
		OTel:     OTel{SamplerRatio: 1.0},
		Pricing:  Pricing{TaxRate: 0.10, FreeShippingThreshold: 500, FlatShippingFee: 15},
		Loyalty:  Loyalty{EarnRate: 0.01},
		Cart:     Cart{SweepInterval: 10 * time.Minute, MaxRetries: 3},
		Orders:   Orders{AllowGuestCheckout: true, PendingTTL: 48 * time.Hour},
	}
}

func LoadConfigFromPath(configPath string) (*Config, error) {

	cfg := defaults()

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.User == "" || c.Database.Name == "" {
			return errors.New("config: PG_USER and PG_DBNAME are required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if c.Pricing.TaxRate < 0 || c.Pricing.FlatShippingFee < 0 || c.Pricing.FreeShippingThreshold < 0 {
		return errors.New("config: pricing values must not be negative")
	}

	if c.Loyalty.PointValue <= 0 {
		return errors.New("config: loyalty point_value must be positive")
	}

	if c.Loyalty.EarnRate < 0 {
		return errors.New("config: loyalty earn_rate must not be negative")
	}

	return nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}

// Enabled reports whether a Redis host is configured. Without one, locks,
// notifications and rate limits stay in-process.
func (r *RedisConnect) Enabled() bool {
	return r.Host != ""
}
