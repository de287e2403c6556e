package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LiabilityAccount extends an account with debt-tracking fields. ClosingDay
// is the day of the month the liability settles, capped at 28 so every month
// qualifies.
type LiabilityAccount struct {
	BaseModel
	AccountID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	TypeID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"type_id"`
	MonthsPerPeriod     int              `gorm:"not null;default:1" json:"months_per_period"`
	InitialValue        decimal.Decimal  `gorm:"type:decimal(22,8);not null" json:"initial_value"`
	PresentValue        decimal.Decimal  `gorm:"type:decimal(22,8);not null" json:"present_value"`
	MonthlyInterestRate *decimal.Decimal `gorm:"type:decimal(10,4)" json:"monthly_interest_rate"`
	YearlyInterestRate  *decimal.Decimal `gorm:"type:decimal(10,4)" json:"yearly_interest_rate"`
	Payment             decimal.Decimal  `gorm:"type:decimal(22,8);not null" json:"payment"`
	TotalPaid           decimal.Decimal  `gorm:"type:decimal(22,8);not null;default:0" json:"total_paid"`
	OverallPeriods      int              `gorm:"not null;default:1" json:"overall_periods"`
	PeriodsPaid         int              `gorm:"not null;default:1" json:"periods_paid"`
	ClosingDay          int              `gorm:"not null" json:"closing_day"`
}

// TableName implements the GORM Tabler interface
func (LiabilityAccount) TableName() string { return "liability_accounts" }

// PrimaryKeyColumns implements Record
func (LiabilityAccount) PrimaryKeyColumns() []string { return basePrimaryKey() }

// UpdatableColumns implements Record
func (LiabilityAccount) UpdatableColumns() []string {
	return append([]string{
		"account_id", "type_id", "months_per_period", "initial_value", "present_value",
		"monthly_interest_rate", "yearly_interest_rate", "payment", "total_paid",
		"overall_periods", "periods_paid", "closing_day",
	}, baseColumns()...)
}

// NaturalKeyColumns implements Record
func (LiabilityAccount) NaturalKeyColumns() []string { return []string{"account_id"} }

// ReferencedBy implements Record
func (LiabilityAccount) ReferencedBy() []Reference { return nil }
