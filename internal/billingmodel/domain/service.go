package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Resolver maps a resident to the billing model that prices their activity.
type Resolver interface {
	Resolve(ctx context.Context, residentID snowflake.ID) (*BillingModel, error)
}

type Service interface {
	Resolver

	Create(ctx context.Context, req CreateRequest) (*BillingModel, error)
	Get(ctx context.Context, id snowflake.ID) (*BillingModel, error)
	List(ctx context.Context) ([]*BillingModel, error)
	Activate(ctx context.Context, id snowflake.ID) (*BillingModel, error)
	Deactivate(ctx context.Context, id snowflake.ID) (*BillingModel, error)
}

type CreateRequest struct {
	Name         string
	LocalityCode string
	Pricing      Pricing
	PaybackRates PaybackRates
	Active       bool
}

var (
	// ErrNoActiveBillingModel is a configuration error: nothing can be billed until
	// at least one model is active.
	ErrNoActiveBillingModel = errors.New("no_active_billing_model")
	ErrBillingModelNotFound = errors.New("billing_model_not_found")
	ErrInvalidPricing       = errors.New("invalid_pricing")
	ErrUnknownPricingKind   = errors.New("unknown_pricing_kind")
	ErrInvalidPaybackRate   = errors.New("invalid_payback_rate")
	ErrInvalidLocality      = errors.New("invalid_locality_code")
	ErrInvalidName          = errors.New("invalid_billing_model_name")
)
