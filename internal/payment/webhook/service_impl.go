package webhook

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/clock"
	"github.com/railzwaylabs/wastebill/internal/config"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/internal/observability"
	"github.com/railzwaylabs/wastebill/internal/payment/domain"
	"github.com/railzwaylabs/wastebill/internal/payment/signature"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Cfg        config.Config
	Repo       domain.Repository
	Invoices   invoicedomain.Repository
	PaymentSvc domain.Service
	Metrics    *observability.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	gateway    config.GatewayConfig
	repo       domain.Repository
	invoices   invoicedomain.Repository
	paymentSvc domain.Service
	metrics    *observability.Metrics
}

func NewService(p Params) domain.Reconciler {
	svc := &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.webhook"),
		genID:      p.GenID,
		clock:      p.Clock,
		gateway:    p.Cfg.Gateway,
		repo:       p.Repo,
		invoices:   p.Invoices,
		paymentSvc: p.PaymentSvc,
		metrics:    p.Metrics,
	}
	svc.log.Info("payment webhook ready",
		zap.String("merchant_id", svc.gateway.MerchantID),
		zap.String("secret_digest", signature.SecretDigest(svc.gateway.MerchantSecret)))
	return svc
}

// HandleNotification authenticates a gateway callback and applies it. Fields are
// verified exactly as received. Every outcome returned without error should be
// acknowledged to the gateway.
func (s *Service) HandleNotification(ctx context.Context, n domain.Notification) (domain.Outcome, error) {
	if !signature.VerifyInbound(n, s.gateway.MerchantSecret) {
		s.metrics.ObserveNotification("rejected")
		s.log.Warn("payment.webhook.auth: signature mismatch",
			zap.String("merchant_id", n.MerchantID),
			zap.String("order_id", n.OrderID),
			zap.String("status_code", n.StatusCode))
		return "", domain.ErrInvalidSignature
	}

	invoice, err := s.invoices.FindByNumber(ctx, s.db, n.OrderID)
	if err != nil {
		return "", err
	}

	var (
		outcome  domain.Outcome
		mismatch bool
	)
	switch {
	case invoice == nil:
		outcome = domain.OutcomeOrphaned
		s.log.Warn("notification for unknown order",
			zap.String("order_id", n.OrderID),
			zap.String("payment_id", n.PaymentID),
			zap.String("status", domain.StatusName(n.StatusCode)),
			zap.String("amount", n.Amount),
			zap.String("currency", n.Currency))
	case n.StatusCode == domain.StatusCodeSuccess:
		outcome, mismatch, err = s.settle(ctx, invoice, n)
		if err != nil {
			return "", err
		}
	default:
		outcome = domain.OutcomeStatusRecorded
		s.log.Info("non-success notification recorded",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("order_id", n.OrderID),
			zap.String("status", domain.StatusName(n.StatusCode)))
	}

	if err := s.record(ctx, n, invoice, outcome, mismatch); err != nil {
		return "", err
	}
	s.metrics.ObserveNotification(string(outcome))
	return outcome, nil
}

// settle applies a verified success and reports whether the paid amount or
// currency differs from what checkout asked for. The payment is recorded either
// way.
func (s *Service) settle(ctx context.Context, invoice *invoicedomain.Invoice, n domain.Notification) (domain.Outcome, bool, error) {
	amount, err := decimal.NewFromString(n.Amount)
	if err != nil {
		return "", false, domain.ErrInvalidPayload
	}

	expected := signature.FormatAmount(invoice.FinalAmount.Mul(s.gateway.Rate()))
	mismatch := expected != signature.FormatAmount(amount) || !strings.EqualFold(n.Currency, s.gateway.Currency)
	if mismatch {
		s.log.Warn("paid amount differs from invoice",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("expected", expected+" "+s.gateway.Currency),
			zap.String("received", n.Amount+" "+n.Currency))
	}

	result, err := s.paymentSvc.Settle(ctx, domain.SettleInput{
		InvoiceID:     invoice.ID,
		Amount:        amount,
		Currency:      n.Currency,
		Method:        methodOrDefault(n.Method),
		TransactionID: n.PaymentID,
		Source:        domain.SourceGateway,
	})
	if errors.Is(err, domain.ErrInvoiceNotPayable) {
		s.log.Warn("payment received for unpayable invoice",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("order_id", n.OrderID),
			zap.String("payment_id", n.PaymentID),
			zap.String("invoice_status", string(invoice.Status)),
			zap.String("amount", n.Amount),
			zap.String("currency", n.Currency))
		return domain.OutcomeNotPayable, mismatch, nil
	}
	if err != nil {
		return "", false, err
	}
	if result.AlreadyPaid {
		return domain.OutcomeDuplicate, mismatch, nil
	}
	return domain.OutcomeApplied, mismatch, nil
}

func (s *Service) record(ctx context.Context, n domain.Notification, invoice *invoicedomain.Invoice, outcome domain.Outcome, mismatch bool) error {
	record := &domain.NotificationRecord{
		ID:             s.genID.Generate(),
		OrderID:        n.OrderID,
		PaymentID:      n.PaymentID,
		StatusCode:     n.StatusCode,
		StatusName:     domain.StatusName(n.StatusCode),
		Amount:         n.Amount,
		Currency:       n.Currency,
		Method:         n.Method,
		Outcome:        outcome,
		AmountMismatch: mismatch,
		ReceivedAt:     s.clock.Now(ctx),
	}
	if invoice != nil {
		id := invoice.ID
		record.InvoiceID = &id
	}
	if err := s.repo.InsertNotification(ctx, s.db, record); err != nil {
		// The transition, if any, is already committed; a redelivery is a no-op.
		s.log.Error("failed to record notification",
			zap.String("order_id", n.OrderID),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
		return err
	}
	return nil
}

func methodOrDefault(method string) string {
	if method == "" {
		return "GATEWAY"
	}
	return method
}
