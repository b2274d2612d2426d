package server

import (
	"github.com/gin-gonic/gin"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
)

type updateLocalityRequest struct {
	LocalityCode string `json:"locality_code" binding:"required"`
}

// CreateResident
// POST /residents
func (s *Server) CreateResident(c *gin.Context) {
	var req residentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resident, err := s.residentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, resident)
}

// GetResident
// GET /residents/:id
func (s *Server) GetResident(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resident, err := s.residentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resident)
}

// UpdateResidentLocality
// PUT /residents/:id/locality
func (s *Server) UpdateResidentLocality(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateLocalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resident, err := s.residentSvc.UpdateLocality(c.Request.Context(), id, req.LocalityCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resident)
}
