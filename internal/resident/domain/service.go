package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resident, error)
	Get(ctx context.Context, id snowflake.ID) (*Resident, error)
	UpdateLocality(ctx context.Context, id snowflake.ID, locality string) (*Resident, error)
}

type CreateRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	LocalityCode string `json:"locality_code"`
}

var (
	ErrResidentNotFound = errors.New("resident_not_found")
	ErrInvalidName      = errors.New("invalid_resident_name")
	ErrInvalidLocality  = errors.New("invalid_locality_code")
)
