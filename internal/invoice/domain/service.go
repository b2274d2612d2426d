package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Generator produces the monthly invoice for a resident.
type Generator interface {
	GenerateMonthlyInvoice(ctx context.Context, residentID snowflake.ID) (*Invoice, error)
}

type Service interface {
	Generator

	GenerateForAll(ctx context.Context) (BatchResult, error)
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	ListByResident(ctx context.Context, residentID snowflake.ID) ([]*Invoice, error)
	ListByStatus(ctx context.Context, status InvoiceStatus) ([]*Invoice, error)
	ListOverdue(ctx context.Context) ([]*Invoice, error)
}

// BatchResult summarises a GenerateForAll run. Per-resident failures do not stop
// the batch.
type BatchResult struct {
	PeriodKey string                  `json:"period_key"`
	Created   []snowflake.ID          `json:"created"`
	Skipped   map[snowflake.ID]string `json:"skipped"`
	Failed    map[snowflake.ID]string `json:"failed"`
}

var (
	ErrDuplicatePeriod  = errors.New("invoice_already_exists_for_period")
	ErrNothingToInvoice = errors.New("nothing_to_invoice")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrInvalidStatus    = errors.New("invalid_invoice_status")
	ErrLockNotAcquired  = errors.New("invoice_generation_in_progress")

	// ErrClaimConflict means another writer claimed some of the resident's events
	// while this invoice was being built. The transaction is rolled back.
	ErrClaimConflict = errors.New("invoice_event_claim_conflict")
)
