// Package domain defines billing models: the pricing rule and recycling payback
// rates in effect for a locality.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type WasteCategory string

const (
	CategoryPlastic WasteCategory = "PLASTIC"
	CategoryPaper   WasteCategory = "PAPER"
	CategoryGlass   WasteCategory = "GLASS"
	CategoryMetal   WasteCategory = "METAL"
	CategoryOrganic WasteCategory = "ORGANIC"
	CategoryEWaste  WasteCategory = "E_WASTE"
)

func NormalizeCategory(raw string) WasteCategory {
	return WasteCategory(strings.ToUpper(strings.TrimSpace(raw)))
}

// PaybackRates maps a recycling category to its credit per kilogram.
type PaybackRates map[WasteCategory]decimal.Decimal

type BillingModel struct {
	ID           snowflake.ID `json:"id"`
	Name         string       `json:"name"`
	LocalityCode string       `json:"locality_code"`
	Pricing      Pricing      `json:"pricing"`
	PaybackRates PaybackRates `json:"payback_rates"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Record is the persisted form of a BillingModel.
type Record struct {
	ID           snowflake.ID   `gorm:"primaryKey;autoIncrement:false"`
	Name         string         `gorm:"type:text;not null"`
	LocalityCode string         `gorm:"type:varchar(64);not null;index"`
	PricingKind  PricingKind    `gorm:"type:varchar(20);not null"`
	Pricing      datatypes.JSON `gorm:"not null"`
	PaybackRates datatypes.JSON `gorm:"not null"`
	Active       bool           `gorm:"not null;default:false;index"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

func (Record) TableName() string { return "billing_models" }
