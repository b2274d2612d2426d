package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/clock"
	"github.com/railzwaylabs/wastebill/internal/config"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	paymentdomain "github.com/railzwaylabs/wastebill/internal/payment/domain"
	"github.com/railzwaylabs/wastebill/pkg/db/dbtest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type invoicesMock struct {
	mock.Mock
	invoicedomain.Service
}

func (m *invoicesMock) GenerateForAll(ctx context.Context) (invoicedomain.BatchResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(invoicedomain.BatchResult), args.Error(1)
}

func newScheduler(t *testing.T, db *gorm.DB, now time.Time, cfg config.SchedulerConfig, invoices invoicedomain.Service) *Scheduler {
	t.Helper()
	return New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clock.Fixed(now),
		Cfg:      config.Config{Scheduler: cfg},
		Invoices: invoices,
	})
}

func TestMonthlyInvoicingWaitsForInvoiceDay(t *testing.T) {
	invoices := &invoicesMock{}
	s := newScheduler(t, nil, time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		config.SchedulerConfig{InvoiceDay: 5}, invoices)

	require.NoError(t, s.MonthlyInvoicingJob(context.Background()))
	invoices.AssertNotCalled(t, "GenerateForAll", mock.Anything)
}

func TestMonthlyInvoicingRunsOncePerPeriod(t *testing.T) {
	invoices := &invoicesMock{}
	invoices.On("GenerateForAll", mock.Anything).Return(invoicedomain.BatchResult{
		PeriodKey: "2026-09",
		Created:   []snowflake.ID{1, 2},
	}, nil).Once()

	s := newScheduler(t, nil, time.Date(2026, 10, 5, 6, 0, 0, 0, time.UTC),
		config.SchedulerConfig{InvoiceDay: 5}, invoices)

	require.NoError(t, s.MonthlyInvoicingJob(context.Background()))
	require.NoError(t, s.MonthlyInvoicingJob(context.Background()))
	invoices.AssertNumberOfCalls(t, "GenerateForAll", 1)
}

func TestMonthlyInvoicingRetriesAfterFailure(t *testing.T) {
	invoices := &invoicesMock{}
	invoices.On("GenerateForAll", mock.Anything).
		Return(invoicedomain.BatchResult{}, errors.New("database unavailable")).Once()
	invoices.On("GenerateForAll", mock.Anything).
		Return(invoicedomain.BatchResult{PeriodKey: "2026-09"}, nil).Once()

	s := newScheduler(t, nil, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		config.SchedulerConfig{InvoiceDay: 1}, invoices)

	require.Error(t, s.MonthlyInvoicingJob(context.Background()))
	require.NoError(t, s.MonthlyInvoicingJob(context.Background()))
	require.NoError(t, s.MonthlyInvoicingJob(context.Background()))
	invoices.AssertNumberOfCalls(t, "GenerateForAll", 2)
}

func TestMonthlyInvoicingDisabled(t *testing.T) {
	invoices := &invoicesMock{}
	s := newScheduler(t, nil, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		config.SchedulerConfig{}, invoices)

	require.NoError(t, s.MonthlyInvoicingJob(context.Background()))
	invoices.AssertNotCalled(t, "GenerateForAll", mock.Anything)
}

func TestCleanupNotificationsKeepsRecentRows(t *testing.T) {
	db := dbtest.Open(t, &paymentdomain.NotificationRecord{})
	now := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	for i, age := range []int{200, 181, 10} {
		require.NoError(t, db.Create(&paymentdomain.NotificationRecord{
			ID:         snowflake.ID(i + 1),
			OrderID:    "INV-202609-X",
			StatusCode: paymentdomain.StatusCodeSuccess,
			StatusName: "SUCCESS",
			Amount:     "100.00",
			Currency:   "LKR",
			Outcome:    paymentdomain.OutcomeApplied,
			ReceivedAt: now.AddDate(0, 0, -age),
		}).Error)
	}

	s := newScheduler(t, db, now, config.SchedulerConfig{RetentionDays: 180}, &invoicesMock{})
	require.NoError(t, s.CleanupNotificationsJob(context.Background()))

	var remaining []paymentdomain.NotificationRecord
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, snowflake.ID(3), remaining[0].ID)
}

func TestCleanupNotificationsDisabled(t *testing.T) {
	s := newScheduler(t, nil, time.Now(), config.SchedulerConfig{}, &invoicesMock{})
	require.NoError(t, s.CleanupNotificationsJob(context.Background()))
}
