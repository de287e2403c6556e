package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetAccount extends an account with asset-specific valuation fields.
// Exactly one asset account may exist per underlying account.
type AssetAccount struct {
	BaseModel
	AccountID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	TypeID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"type_id"`
	MonthsPerPeriod     int              `gorm:"not null;default:1" json:"months_per_period"`
	InitialValue        *decimal.Decimal `gorm:"type:decimal(22,8)" json:"initial_value"`
	LastValue           *decimal.Decimal `gorm:"type:decimal(22,8)" json:"last_value"`
	MonthlyInterestRate *decimal.Decimal `gorm:"type:decimal(10,4)" json:"monthly_interest_rate"`
	YearlyInterestRate  *decimal.Decimal `gorm:"type:decimal(10,4)" json:"yearly_interest_rate"`
	Roi                 *decimal.Decimal `gorm:"type:decimal(10,4)" json:"roi"`
	PeriodicalEarnings  *decimal.Decimal `gorm:"type:decimal(22,8)" json:"periodical_earnings"`
}

// TableName implements the GORM Tabler interface
func (AssetAccount) TableName() string { return "asset_accounts" }

// PrimaryKeyColumns implements Record
func (AssetAccount) PrimaryKeyColumns() []string { return basePrimaryKey() }

// UpdatableColumns implements Record
func (AssetAccount) UpdatableColumns() []string {
	return append([]string{
		"account_id", "type_id", "months_per_period", "initial_value", "last_value",
		"monthly_interest_rate", "yearly_interest_rate", "roi", "periodical_earnings",
	}, baseColumns()...)
}

// NaturalKeyColumns implements Record
func (AssetAccount) NaturalKeyColumns() []string { return []string{"account_id"} }

// ReferencedBy implements Record
func (AssetAccount) ReferencedBy() []Reference { return nil }
