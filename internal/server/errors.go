package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingmodeldomain "github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	"github.com/railzwaylabs/wastebill/internal/charge"
	collectiondomain "github.com/railzwaylabs/wastebill/internal/collection/domain"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	paymentdomain "github.com/railzwaylabs/wastebill/internal/payment/domain"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	status  int
	code    string
	message string
}

// errorTable maps domain sentinels to their HTTP rendering. Anything not listed
// is a 500 with no detail.
var errorTable = []struct {
	target error
	apiError
}{
	{ErrInvalidRequest, apiError{http.StatusBadRequest, "invalid_request", "request is malformed"}},
	{charge.ErrNegativeWeight, apiError{http.StatusBadRequest, "negative_weight", "weight must not be negative"}},
	{collectiondomain.ErrInvalidBin, apiError{http.StatusBadRequest, "invalid_bin", "bin is required"}},
	{collectiondomain.ErrInvalidCategory, apiError{http.StatusBadRequest, "invalid_waste_category", "unknown waste category"}},
	{residentdomain.ErrInvalidName, apiError{http.StatusBadRequest, "invalid_resident_name", "first name is required"}},
	{residentdomain.ErrInvalidLocality, apiError{http.StatusBadRequest, "invalid_locality_code", "locality code is required"}},
	{residentdomain.ErrResidentNotFound, apiError{http.StatusNotFound, "resident_not_found", "resident not found"}},
	{billingmodeldomain.ErrInvalidName, apiError{http.StatusBadRequest, "invalid_billing_model_name", "billing model name is required"}},
	{billingmodeldomain.ErrInvalidLocality, apiError{http.StatusBadRequest, "invalid_locality_code", "locality code is required"}},
	{billingmodeldomain.ErrInvalidPricing, apiError{http.StatusBadRequest, "invalid_pricing", "pricing is invalid"}},
	{billingmodeldomain.ErrUnknownPricingKind, apiError{http.StatusBadRequest, "unknown_pricing_kind", "pricing kind must be WEIGHT_BASED, FLAT_FEE or HYBRID"}},
	{billingmodeldomain.ErrInvalidPaybackRate, apiError{http.StatusBadRequest, "invalid_payback_rate", "payback rates must be non-negative"}},
	{billingmodeldomain.ErrBillingModelNotFound, apiError{http.StatusNotFound, "billing_model_not_found", "billing model not found"}},
	{billingmodeldomain.ErrNoActiveBillingModel, apiError{http.StatusServiceUnavailable, "no_active_billing_model", "no active billing model is configured"}},
	{invoicedomain.ErrInvoiceNotFound, apiError{http.StatusNotFound, "invoice_not_found", "invoice not found"}},
	{invoicedomain.ErrInvalidStatus, apiError{http.StatusBadRequest, "invalid_invoice_status", "unknown invoice status"}},
	{invoicedomain.ErrDuplicatePeriod, apiError{http.StatusConflict, "invoice_already_exists_for_period", "an invoice already exists for this period"}},
	{invoicedomain.ErrNothingToInvoice, apiError{http.StatusUnprocessableEntity, "nothing_to_invoice", "no unbilled activity for this resident"}},
	{invoicedomain.ErrLockNotAcquired, apiError{http.StatusConflict, "invoice_generation_in_progress", "invoice generation is already running for this resident"}},
	{invoicedomain.ErrClaimConflict, apiError{http.StatusConflict, "invoice_event_claim_conflict", "activity changed during generation, retry"}},
	{paymentdomain.ErrAlreadyPaid, apiError{http.StatusConflict, "invoice_already_paid", "invoice is already paid"}},
	{paymentdomain.ErrInvoiceNotPayable, apiError{http.StatusConflict, "invoice_not_payable", "invoice cannot be paid"}},
	{paymentdomain.ErrInvalidMethod, apiError{http.StatusBadRequest, "invalid_payment_method", "payment method is required"}},
	{paymentdomain.ErrInvalidAmount, apiError{http.StatusBadRequest, "invalid_amount", "amount is invalid"}},
	{paymentdomain.ErrPaymentNotFound, apiError{http.StatusNotFound, "payment_not_found", "payment not found"}},
}

func resolveError(err error) apiError {
	for _, entry := range errorTable {
		if errors.Is(err, entry.target) {
			return entry.apiError
		}
	}
	return apiError{http.StatusInternalServerError, "internal_error", "internal server error"}
}

// AbortWithError renders err as a JSON error and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	resolved := resolveError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(resolved.status, gin.H{
		"error": errorBody{Code: resolved.code, Message: resolved.message},
	})
}

func invalidRequestError() error {
	return ErrInvalidRequest
}
