package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Environment: "test",
		HTTPAddr:    ":8080",
		SnowflakeID: 1,
		Database:    DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
		Gateway: GatewayConfig{
			MerchantID:     "1211144",
			MerchantSecret: "S",
			Currency:       "LKR",
			FXRate:         300,
			CheckoutURL:    "https://sandbox.payhere.lk/pay/checkout",
			ReturnURL:      "https://example.com/return",
			CancelURL:      "https://example.com/cancel",
			NotifyURL:      "https://example.com/payments/notify",
		},
		Billing: BillingConfig{DueDays: 15, Currency: "USD", Country: "Sri Lanka"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Gateway.MerchantSecret = ""
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Gateway.FXRate = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Redis.Enabled = true
	require.Error(t, cfg.Validate())
	cfg.Redis.Addr = "localhost:6379"
	require.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Scheduler.InvoiceDay = 31
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.SnowflakeID = BatchNodeOffset
	require.Error(t, cfg.Validate())
}

func TestBatchNodeIDNeverOverlapsServeNodes(t *testing.T) {
	cfg := validConfig()
	for _, node := range []int64{0, 1, BatchNodeOffset - 1} {
		cfg.SnowflakeID = node
		require.NoError(t, cfg.Validate())
		require.GreaterOrEqual(t, cfg.BatchNodeID(), int64(BatchNodeOffset))
		require.LessOrEqual(t, cfg.BatchNodeID(), int64(1023))
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WASTEBILL_ENVIRONMENT", "test")
	t.Setenv("WASTEBILL_DATABASE_DRIVER", "sqlite")
	t.Setenv("WASTEBILL_DATABASE_DSN", "file::memory:")
	t.Setenv("WASTEBILL_GATEWAY_MERCHANT_ID", "1211144")
	t.Setenv("WASTEBILL_GATEWAY_MERCHANT_SECRET", "S")
	t.Setenv("WASTEBILL_GATEWAY_RETURN_URL", "https://example.com/return")
	t.Setenv("WASTEBILL_GATEWAY_CANCEL_URL", "https://example.com/cancel")
	t.Setenv("WASTEBILL_GATEWAY_NOTIFY_URL", "https://example.com/notify")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "1211144", cfg.Gateway.MerchantID)
	require.Equal(t, "LKR", cfg.Gateway.Currency)
	require.Equal(t, "300", cfg.Gateway.Rate().String())
	require.Equal(t, 15, cfg.Billing.DueDays)
	require.Equal(t, "USD", cfg.Billing.Currency)
	require.Equal(t, time.Hour, cfg.Scheduler.Interval)
	require.Equal(t, 1, cfg.Scheduler.InvoiceDay)
	require.Equal(t, 180, cfg.Scheduler.RetentionDays)
}
