package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	paymentdomain "github.com/railzwaylabs/wastebill/internal/payment/domain"
	"go.uber.org/zap"
)

// HandlePaymentNotification acknowledges gateway callbacks with a bare "OK".
// Signature failures get "rejected" and nothing else.
// POST /payments/notify
func (s *Server) HandlePaymentNotification(c *gin.Context) {
	var n paymentdomain.Notification
	if err := c.ShouldBindWith(&n, binding.Form); err != nil {
		_ = c.Error(err)
		c.String(http.StatusBadRequest, "invalid")
		return
	}

	outcome, err := s.reconciler.HandleNotification(c.Request.Context(), n)
	switch {
	case err == nil:
		c.Header("X-Notification-Outcome", string(outcome))
		c.String(http.StatusOK, "OK")
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		c.String(http.StatusUnauthorized, "rejected")
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		c.String(http.StatusBadRequest, "invalid")
	default:
		_ = c.Error(err)
		s.log.Error("payment notification failed",
			zap.String("order_id", n.OrderID),
			zap.Error(err))
		c.String(http.StatusInternalServerError, "error")
	}
}

// RecordManualPayment
// POST /invoices/:id/payments
func (s *Server) RecordManualPayment(c *gin.Context) {
	invoiceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req paymentdomain.ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = invoiceID

	result, err := s.paymentSvc.RecordManualPayment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, result)
}

// GetInvoicePayment
// GET /invoices/:id/payment
func (s *Server) GetInvoicePayment(c *gin.Context) {
	invoiceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	payment, err := s.paymentSvc.GetByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, payment)
}

// PrepareCheckout returns the signed fields the payer's browser posts to the
// gateway.
// GET /invoices/:id/checkout
func (s *Server) PrepareCheckout(c *gin.Context) {
	invoiceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req, err := s.checkoutSvc.Prepare(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, req)
}
