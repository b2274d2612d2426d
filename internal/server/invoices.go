package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
)

// GenerateInvoice bills the resident for the previous calendar month.
// POST /residents/:id/invoices
func (s *Server) GenerateInvoice(c *gin.Context) {
	residentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := s.invoiceSvc.GenerateMonthlyInvoice(c.Request.Context(), residentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, invoice)
}

// ListResidentInvoices
// GET /residents/:id/invoices
func (s *Server) ListResidentInvoices(c *gin.Context) {
	residentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	invoices, err := s.invoiceSvc.ListByResident(c.Request.Context(), residentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, invoices, len(invoices))
}

// ListInvoices
// GET /invoices?status=PENDING
func (s *Server) ListInvoices(c *gin.Context) {
	status := invoicedomain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status == "" {
		status = invoicedomain.InvoiceStatusPending
	}

	invoices, err := s.invoiceSvc.ListByStatus(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, invoices, len(invoices))
}

// ListOverdueInvoices
// GET /invoices/overdue
func (s *Server) ListOverdueInvoices(c *gin.Context) {
	invoices, err := s.invoiceSvc.ListOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, invoices, len(invoices))
}

// GetInvoice
// GET /invoices/:id
func (s *Server) GetInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, invoice)
}

// GetInvoiceByNumber
// GET /invoices/number/:number
func (s *Server) GetInvoiceByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.GetByNumber(c.Request.Context(), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, invoice)
}
