package server

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	billingmodeldomain "github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
)

type createBillingModelRequest struct {
	Name         string                          `json:"name" binding:"required"`
	LocalityCode string                          `json:"locality_code" binding:"required"`
	PricingKind  billingmodeldomain.PricingKind  `json:"pricing_kind" binding:"required"`
	Pricing      json.RawMessage                 `json:"pricing"`
	PaybackRates billingmodeldomain.PaybackRates `json:"payback_rates"`
	Active       bool                            `json:"active"`
}

type billingModelResponse struct {
	*billingmodeldomain.BillingModel
	PricingKind billingmodeldomain.PricingKind `json:"pricing_kind"`
}

func billingModelView(m *billingmodeldomain.BillingModel) billingModelResponse {
	view := billingModelResponse{BillingModel: m}
	if m.Pricing != nil {
		view.PricingKind = m.Pricing.Kind()
	}
	return view
}

// CreateBillingModel
// POST /billing-models
func (s *Server) CreateBillingModel(c *gin.Context) {
	var req createBillingModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pricing, err := billingmodeldomain.DecodePricing(req.PricingKind, req.Pricing)
	if err != nil {
		if !errors.Is(err, billingmodeldomain.ErrUnknownPricingKind) {
			err = billingmodeldomain.ErrInvalidPricing
		}
		AbortWithError(c, err)
		return
	}

	model, err := s.billingSvc.Create(c.Request.Context(), billingmodeldomain.CreateRequest{
		Name:         req.Name,
		LocalityCode: req.LocalityCode,
		Pricing:      pricing,
		PaybackRates: req.PaybackRates,
		Active:       req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, billingModelView(model))
}

// ListBillingModels
// GET /billing-models
func (s *Server) ListBillingModels(c *gin.Context) {
	models, err := s.billingSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	views := make([]billingModelResponse, 0, len(models))
	for _, m := range models {
		views = append(views, billingModelView(m))
	}
	respondList(c, views, len(views))
}

// GetBillingModel
// GET /billing-models/:id
func (s *Server) GetBillingModel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	model, err := s.billingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, billingModelView(model))
}

// ActivateBillingModel
// POST /billing-models/:id/activate
func (s *Server) ActivateBillingModel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	model, err := s.billingSvc.Activate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, billingModelView(model))
}

// DeactivateBillingModel
// POST /billing-models/:id/deactivate
func (s *Server) DeactivateBillingModel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	model, err := s.billingSvc.Deactivate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, billingModelView(model))
}
