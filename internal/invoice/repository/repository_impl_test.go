package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/pkg/db"
	"github.com/railzwaylabs/wastebill/pkg/db/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoice(node *snowflake.Node, residentID snowflake.ID, number, period string) *domain.Invoice {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Invoice{
		ID:            node.Generate(),
		InvoiceNumber: number,
		ResidentID:    residentID,
		PeriodKey:     period,
		PeriodStart:   start,
		PeriodEnd:     start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		TotalCharges:  decimal.NewFromInt(100),
		TotalCredits:  decimal.Zero,
		FinalAmount:   decimal.NewFromInt(100),
		Status:        domain.InvoiceStatusPending,
		DueAt:         start.AddDate(0, 1, 15),
		CreatedAt:     start.AddDate(0, 1, 2),
		UpdatedAt:     start.AddDate(0, 1, 2),
	}
}

func TestInsertRejectsSecondInvoiceForResidentPeriod(t *testing.T) {
	conn := dbtest.Open(t, &domain.Invoice{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()
	r := Provide()

	residentID := node.Generate()
	first := newInvoice(node, residentID, "INV-1", "2026-09")
	require.NoError(t, r.Insert(ctx, conn, first))

	err = r.Insert(ctx, conn, newInvoice(node, residentID, "INV-2", "2026-09"))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	// Another period, or another resident in the same period, is accepted.
	require.NoError(t, r.Insert(ctx, conn, newInvoice(node, residentID, "INV-3", "2026-10")))
	require.NoError(t, r.Insert(ctx, conn, newInvoice(node, node.Generate(), "INV-4", "2026-09")))

	got, err := r.FindByResidentPeriod(ctx, conn, residentID, "2026-09")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "INV-1", got.InvoiceNumber)
}

func TestMarkPaidOnlyMovesPendingInvoices(t *testing.T) {
	conn := dbtest.Open(t, &domain.Invoice{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()
	r := Provide()

	inv := newInvoice(node, node.Generate(), "INV-1", "2026-09")
	require.NoError(t, r.Insert(ctx, conn, inv))

	ref := domain.PaymentReference{Method: "VISA", TransactionID: "pay-1", PaidAt: time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC)}
	moved, err := r.MarkPaid(ctx, conn, inv.ID, ref)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = r.MarkPaid(ctx, conn, inv.ID, ref)
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := r.FindByID(ctx, conn, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, got.Status)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "pay-1", *got.TransactionID)
}
