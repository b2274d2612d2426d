package server

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	collectiondomain "github.com/railzwaylabs/wastebill/internal/collection/domain"
	"github.com/shopspring/decimal"
)

type recordCollectionRequest struct {
	ResidentID  snowflake.ID    `json:"resident_id" binding:"required"`
	BinID       snowflake.ID    `json:"bin_id" binding:"required"`
	CollectorID snowflake.ID    `json:"collector_id"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
	CollectedAt time.Time       `json:"collected_at"`
}

type recordRecyclingRequest struct {
	ResidentID snowflake.ID    `json:"resident_id" binding:"required"`
	Category   string          `json:"category" binding:"required"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// RecordCollection
// POST /collections
func (s *Server) RecordCollection(c *gin.Context) {
	var req recordCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ev, err := s.collectionSvc.RecordCollection(c.Request.Context(), collectiondomain.RecordCollectionInput{
		ResidentID:  req.ResidentID,
		BinID:       req.BinID,
		CollectorID: req.CollectorID,
		WeightKg:    req.WeightKg,
		CollectedAt: req.CollectedAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, ev)
}

// RecordRecycling
// POST /recycling
func (s *Server) RecordRecycling(c *gin.Context) {
	var req recordRecyclingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ev, err := s.collectionSvc.RecordRecycling(c.Request.Context(), collectiondomain.RecordRecyclingInput{
		ResidentID: req.ResidentID,
		Category:   req.Category,
		WeightKg:   req.WeightKg,
		RecordedAt: req.RecordedAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, ev)
}
