// Package liabilities manages liability accounts, the debt-tracking
// extension of an account: loans, mortgages, credit lines.
package liabilities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// LiabilityAccountDTO is the transport shape of a liability account.
type LiabilityAccountDTO struct {
	ID                  uuid.UUID        `json:"id"`
	AccountID           uuid.UUID        `json:"account_id" validate:"required"`
	TypeID              uuid.UUID        `json:"type_id" validate:"required"`
	MonthsPerPeriod     int              `json:"months_per_period" validate:"min=1"`
	InitialValue        decimal.Decimal  `json:"initial_value"`
	PresentValue        decimal.Decimal  `json:"present_value"`
	MonthlyInterestRate *decimal.Decimal `json:"monthly_interest_rate"`
	YearlyInterestRate  *decimal.Decimal `json:"yearly_interest_rate"`
	Payment             decimal.Decimal  `json:"payment"`
	TotalPaid           decimal.Decimal  `json:"total_paid"`
	OverallPeriods      int              `json:"overall_periods" validate:"min=1"`
	PeriodsPaid         int              `json:"periods_paid" validate:"min=0"`
	ClosingDay          int              `json:"closing_day" validate:"min=1,max=28"`
	Active              bool             `json:"active"`
}

// Mapper converts between LiabilityAccountDTO and the stored row.
type Mapper struct{}

// FromRow implements record.Mapper.
func (Mapper) FromRow(row tabular.Row) (LiabilityAccountDTO, error) {
	dto := LiabilityAccountDTO{
		Active:          true,
		MonthsPerPeriod: 1,
		OverallPeriods:  1,
	}

	var err error
	if hasColumn(row, "id") {
		if dto.ID, err = row.UUID("id"); err != nil {
			return dto, err
		}
	}
	if dto.AccountID, err = row.UUID("account_id"); err != nil {
		return dto, err
	}
	if dto.TypeID, err = row.UUID("type_id"); err != nil {
		return dto, err
	}
	if dto.InitialValue, err = row.Decimal("initial_value"); err != nil {
		return dto, err
	}
	if dto.PresentValue, err = row.Decimal("present_value"); err != nil {
		return dto, err
	}
	if dto.Payment, err = row.Decimal("payment"); err != nil {
		return dto, err
	}
	if dto.ClosingDay, err = row.Int("closing_day"); err != nil {
		return dto, err
	}
	if hasColumn(row, "months_per_period") {
		months, err := row.Int("months_per_period")
		if err != nil {
			return dto, err
		}
		if months > 0 {
			dto.MonthsPerPeriod = months
		}
	}
	if hasColumn(row, "overall_periods") {
		periods, err := row.Int("overall_periods")
		if err != nil {
			return dto, err
		}
		if periods > 0 {
			dto.OverallPeriods = periods
		}
	}
	if hasColumn(row, "periods_paid") {
		if dto.PeriodsPaid, err = row.Int("periods_paid"); err != nil {
			return dto, err
		}
	}
	if hasColumn(row, "total_paid") {
		if dto.TotalPaid, err = row.Decimal("total_paid"); err != nil {
			return dto, err
		}
	}
	if dto.MonthlyInterestRate, err = record.OptionalDecimal(row, "monthly_interest_rate"); err != nil {
		return dto, err
	}
	if dto.YearlyInterestRate, err = record.OptionalDecimal(row, "yearly_interest_rate"); err != nil {
		return dto, err
	}
	if hasColumn(row, "active") {
		if dto.Active, err = row.Bool("active"); err != nil {
			return dto, err
		}
	}
	return dto, nil
}

// ToModel implements record.Mapper.
func (Mapper) ToModel(dto LiabilityAccountDTO) (models.LiabilityAccount, error) {
	if dto.InitialValue.IsNegative() {
		return models.LiabilityAccount{}, &shared.ShapeMismatchError{
			Field:  "initial_value",
			Reason: "must not be negative",
		}
	}
	if dto.PeriodsPaid > dto.OverallPeriods {
		return models.LiabilityAccount{}, &shared.ShapeMismatchError{
			Field:  "periods_paid",
			Reason: "must not exceed overall_periods",
		}
	}
	return models.LiabilityAccount{
		BaseModel: models.BaseModel{
			ID:     dto.ID,
			Active: dto.Active,
		},
		AccountID:           dto.AccountID,
		TypeID:              dto.TypeID,
		MonthsPerPeriod:     dto.MonthsPerPeriod,
		InitialValue:        dto.InitialValue,
		PresentValue:        dto.PresentValue,
		MonthlyInterestRate: dto.MonthlyInterestRate,
		YearlyInterestRate:  dto.YearlyInterestRate,
		Payment:             dto.Payment,
		TotalPaid:           dto.TotalPaid,
		OverallPeriods:      dto.OverallPeriods,
		PeriodsPaid:         dto.PeriodsPaid,
		ClosingDay:          dto.ClosingDay,
	}, nil
}

// FromModel implements record.Mapper.
func (Mapper) FromModel(m models.LiabilityAccount) LiabilityAccountDTO {
	return LiabilityAccountDTO{
		ID:                  m.ID,
		AccountID:           m.AccountID,
		TypeID:              m.TypeID,
		MonthsPerPeriod:     m.MonthsPerPeriod,
		InitialValue:        m.InitialValue,
		PresentValue:        m.PresentValue,
		MonthlyInterestRate: m.MonthlyInterestRate,
		YearlyInterestRate:  m.YearlyInterestRate,
		Payment:             m.Payment,
		TotalPaid:           m.TotalPaid,
		OverallPeriods:      m.OverallPeriods,
		PeriodsPaid:         m.PeriodsPaid,
		ClosingDay:          m.ClosingDay,
		Active:              m.Active,
	}
}

// NaturalKey implements record.Mapper.
func (Mapper) NaturalKey(dto LiabilityAccountDTO) map[string]any {
	if dto.AccountID == uuid.Nil {
		return nil
	}
	return map[string]any{"account_id": dto.AccountID}
}

func hasColumn(row tabular.Row, name string) bool {
	_, ok := row.Get(name)
	return ok
}
