package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

const envPrefix = "WASTEBILL"

// BatchNodeOffset moves one-off commands (migrate, invoice run, dispatch) into the
// upper half of the snowflake node space, so they never share a node with a serve
// replica. snowflake_node must be unique per serve replica and below this offset.
const BatchNodeOffset = 512

type Config struct {
	Environment string `mapstructure:"environment" validate:"required,oneof=development staging production test"`
	HTTPAddr    string `mapstructure:"http_addr" validate:"required"`
	SnowflakeID int64  `mapstructure:"snowflake_node" validate:"gte=0,lt=512"`

	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	DSN             string        `mapstructure:"dsn" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig controls the optional per-resident invoicing lock. The database
// uniqueness constraint on (resident, period) is always enforced regardless.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type GatewayConfig struct {
	MerchantID     string `mapstructure:"merchant_id" validate:"required"`
	MerchantSecret string `mapstructure:"merchant_secret" validate:"required"`
	Currency       string `mapstructure:"currency" validate:"required,len=3"`
	// FXRate converts an invoice amount into the gateway currency.
	FXRate      float64 `mapstructure:"fx_rate" validate:"gt=0"`
	CheckoutURL string  `mapstructure:"checkout_url" validate:"required,url"`
	ReturnURL   string  `mapstructure:"return_url" validate:"required,url"`
	CancelURL   string  `mapstructure:"cancel_url" validate:"required,url"`
	NotifyURL   string  `mapstructure:"notify_url" validate:"required,url"`
}

// BillingConfig.Currency is the currency invoices are denominated in before
// conversion at Gateway.FXRate.
type BillingConfig struct {
	DueDays  int    `mapstructure:"due_days" validate:"gte=0"`
	Currency string `mapstructure:"currency" validate:"required,len=3"`
	Country  string `mapstructure:"country" validate:"required"`
}

// SchedulerConfig drives the background jobs of the serve command. InvoiceDay 0
// disables automatic monthly invoicing; RetentionDays 0 keeps notifications forever.
type SchedulerConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	InvoiceDay       int           `mapstructure:"invoice_day" validate:"gte=0,lte=28"`
	RetentionDays    int           `mapstructure:"notification_retention_days" validate:"gte=0"`
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
}

func (g GatewayConfig) Rate() decimal.Decimal {
	return decimal.NewFromFloat(g.FXRate)
}

// BatchNodeID is the snowflake node used by one-off commands.
func (c Config) BatchNodeID() int64 {
	return c.SnowflakeID + BatchNodeOffset
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/wastebill")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
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

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("snowflake_node", 1)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.lock_ttl", 30*time.Second)

	v.SetDefault("gateway.currency", "LKR")
	v.SetDefault("gateway.fx_rate", 300.0)
	v.SetDefault("gateway.checkout_url", "https://sandbox.payhere.lk/pay/checkout")

	v.SetDefault("billing.due_days", 15)
	v.SetDefault("billing.currency", "USD")
	v.SetDefault("billing.country", "Sri Lanka")

	v.SetDefault("scheduler.interval", time.Hour)
	v.SetDefault("scheduler.invoice_day", 1)
	v.SetDefault("scheduler.notification_retention_days", 180)
	v.SetDefault("scheduler.dispatch_interval", 5*time.Second)
}

// bindEnv registers nested keys so AutomaticEnv can resolve them during Unmarshal.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"database.dsn",
		"redis.addr",
		"redis.password",
		"redis.db",
		"gateway.merchant_id",
		"gateway.merchant_secret",
		"gateway.return_url",
		"gateway.cancel_url",
		"gateway.notify_url",
	} {
		_ = v.BindEnv(key)
	}
}
