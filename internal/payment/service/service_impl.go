package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/clock"
	"github.com/railzwaylabs/wastebill/internal/config"
	"github.com/railzwaylabs/wastebill/internal/events"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/internal/observability"
	"github.com/railzwaylabs/wastebill/internal/payment/domain"
	"github.com/railzwaylabs/wastebill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Repo     domain.Repository
	Invoices invoicedomain.Repository
	Outbox   *events.Outbox
	Metrics  *observability.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	currency string
	repo     domain.Repository
	invoices invoicedomain.Repository
	outbox   *events.Outbox
	metrics  *observability.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		currency: p.Cfg.Billing.Currency,
		repo:     p.Repo,
		invoices: p.Invoices,
		outbox:   p.Outbox,
		metrics:  p.Metrics,
	}
}

// errSettledConcurrently aborts the transaction when the payments unique index
// shows another writer got there first.
var errSettledConcurrently = errors.New("settled_concurrently")

// Settle moves a PENDING invoice to PAID and records its payment in one
// transaction. An invoice that is already PAID is reported, never overwritten.
func (s *Service) Settle(ctx context.Context, input domain.SettleInput) (*domain.SettleResult, error) {
	source := string(input.Source)
	if input.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	var result *domain.SettleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoices.FindByID(ctx, tx, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		switch invoice.Status {
		case invoicedomain.InvoiceStatusPaid:
			result, err = s.alreadyPaid(ctx, tx, invoice)
			return err
		case invoicedomain.InvoiceStatusPending:
		default:
			return domain.ErrInvoiceNotPayable
		}

		now := s.clock.Now(ctx)
		moved, err := s.invoices.MarkPaid(ctx, tx, invoice.ID, invoicedomain.PaymentReference{
			Method:        input.Method,
			TransactionID: input.TransactionID,
			PaidAt:        now,
		})
		if err != nil {
			return err
		}
		if !moved {
			// Lost the race between the read above and the conditional update.
			result, err = s.alreadyPaid(ctx, tx, invoice)
			return err
		}

		payment := &domain.Payment{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			Amount:        input.Amount,
			Currency:      input.Currency,
			Method:        input.Method,
			TransactionID: input.TransactionID,
			Status:        domain.PaymentStatusSuccess,
			Source:        input.Source,
			CreatedAt:     now,
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			if db.IsUniqueViolation(err) {
				return errSettledConcurrently
			}
			return err
		}

		if err := s.outbox.Append(ctx, tx, events.EventInvoicePaid, invoice.ID, map[string]any{
			"invoice_id":     invoice.ID.String(),
			"invoice_number": invoice.InvoiceNumber,
			"resident_id":    invoice.ResidentID.String(),
			"payment_id":     payment.ID.String(),
			"amount":         payment.Amount.StringFixed(2),
			"currency":       payment.Currency,
			"method":         payment.Method,
			"source":         source,
		}); err != nil {
			return err
		}

		paid, err := s.invoices.FindByID(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		result = &domain.SettleResult{Invoice: paid, Payment: payment}
		return nil
	})
	if errors.Is(err, errSettledConcurrently) {
		return s.reportAlreadyPaid(ctx, input.InvoiceID, source)
	}
	if err != nil {
		s.metrics.ObserveSettlement(source, "error")
		return nil, err
	}

	if result.AlreadyPaid {
		s.metrics.ObserveSettlement(source, "already_paid")
		s.log.Info("invoice already paid, settlement ignored",
			zap.String("invoice_id", input.InvoiceID.String()),
			zap.String("source", source),
			zap.String("transaction_id", input.TransactionID))
		return result, nil
	}

	s.metrics.ObserveSettlement(source, "applied")
	s.log.Info("invoice settled",
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("invoice_number", result.Invoice.InvoiceNumber),
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("source", source),
		zap.String("method", input.Method),
		zap.String("transaction_id", input.TransactionID))
	return result, nil
}

func (s *Service) alreadyPaid(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice) (*domain.SettleResult, error) {
	current, err := s.invoices.FindByID(ctx, tx, invoice.ID)
	if err != nil {
		return nil, err
	}
	payment, err := s.repo.FindByInvoiceID(ctx, tx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return &domain.SettleResult{Invoice: current, Payment: payment, AlreadyPaid: true}, nil
}

func (s *Service) reportAlreadyPaid(ctx context.Context, invoiceID snowflake.ID, source string) (*domain.SettleResult, error) {
	invoice, err := s.invoices.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	result, err := s.alreadyPaid(ctx, s.db, invoice)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSettlement(source, "already_paid")
	return result, nil
}

// RecordManualPayment settles an invoice paid outside the gateway for its full
// amount. Unlike a redelivered notification, paying twice is an error here.
func (s *Service) RecordManualPayment(ctx context.Context, req domain.ManualPaymentRequest) (*domain.SettleResult, error) {
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, domain.ErrInvalidMethod
	}

	invoice, err := s.invoices.FindByID(ctx, s.db, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}

	result, err := s.Settle(ctx, domain.SettleInput{
		InvoiceID:     invoice.ID,
		Amount:        invoice.FinalAmount,
		Currency:      s.currency,
		Method:        method,
		TransactionID: strings.TrimSpace(req.TransactionID),
		Source:        domain.SourceManual,
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyPaid {
		return nil, domain.ErrAlreadyPaid
	}
	return result, nil
}

func (s *Service) GetByInvoice(ctx context.Context, invoiceID snowflake.ID) (*domain.Payment, error) {
	payment, err := s.repo.FindByInvoiceID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}
