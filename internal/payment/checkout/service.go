package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/config"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/internal/payment/domain"
	"github.com/railzwaylabs/wastebill/internal/payment/signature"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	Invoices  invoicedomain.Repository
	Residents residentdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	gateway   config.GatewayConfig
	country   string
	invoices  invoicedomain.Repository
	residents residentdomain.Repository
}

func NewService(p Params) domain.CheckoutService {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.checkout"),
		gateway:   p.Cfg.Gateway,
		country:   p.Cfg.Billing.Country,
		invoices:  p.Invoices,
		residents: p.Residents,
	}
}

// Prepare builds the signed field set for paying an invoice on the gateway's
// hosted page. The invoice number is the gateway order id.
func (s *Service) Prepare(ctx context.Context, invoiceID snowflake.ID) (*domain.CheckoutRequest, error) {
	invoice, err := s.invoices.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	switch invoice.Status {
	case invoicedomain.InvoiceStatusPaid:
		return nil, domain.ErrAlreadyPaid
	case invoicedomain.InvoiceStatusFailed:
		return nil, domain.ErrInvoiceNotPayable
	}

	resident, err := s.residents.FindByID(ctx, s.db, invoice.ResidentID)
	if err != nil {
		return nil, err
	}
	if resident == nil {
		return nil, residentdomain.ErrResidentNotFound
	}

	localAmount := invoice.FinalAmount.Mul(s.gateway.Rate())
	hash := signature.OutboundHash(
		s.gateway.MerchantID,
		invoice.InvoiceNumber,
		localAmount,
		s.gateway.Currency,
		s.gateway.MerchantSecret,
	)
	fields := map[string]string{
		"merchant_id": s.gateway.MerchantID,
		"return_url":  s.gateway.ReturnURL,
		"cancel_url":  s.gateway.CancelURL,
		"notify_url":  s.gateway.NotifyURL,
		"order_id":    invoice.InvoiceNumber,
		"items":       fmt.Sprintf("Waste collection %s", invoice.PeriodKey),
		"currency":    s.gateway.Currency,
		"amount":      signature.FormatAmount(localAmount),
		"hash":        hash,
		"first_name":  resident.FirstName,
		"last_name":   resident.LastName,
		"email":       resident.Email,
		"phone":       resident.Phone,
		"address":     strings.TrimSpace(resident.Address),
		"city":        resident.City,
		"country":     s.country,
	}

	s.log.Debug("checkout prepared",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("order_id", invoice.InvoiceNumber),
		zap.String("amount", fields["amount"]),
		zap.String("currency", s.gateway.Currency))
	return &domain.CheckoutRequest{Action: s.gateway.CheckoutURL, Fields: fields}, nil
}
