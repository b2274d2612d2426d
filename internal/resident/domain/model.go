// Package domain holds resident records as seen by billing.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Resident is a billable household. LocalityCode selects the billing model.
type Resident struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	FirstName    string       `json:"first_name" gorm:"type:text;not null"`
	LastName     string       `json:"last_name" gorm:"type:text"`
	Email        string       `json:"email" gorm:"type:text"`
	Phone        string       `json:"phone" gorm:"type:text"`
	Address      string       `json:"address" gorm:"type:text"`
	City         string       `json:"city" gorm:"type:text"`
	LocalityCode string       `json:"locality_code" gorm:"type:varchar(64);not null;index"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

func (Resident) TableName() string { return "residents" }

// NormalizeLocality upper-cases locality codes so "colombo-07" and "COLOMBO-07" match.
func NormalizeLocality(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
