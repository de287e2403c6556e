// Package assets manages asset accounts, the valuation extension of an
// account: deposits, investments, property.
package assets

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// AssetAccountDTO is the transport shape of an asset account.
type AssetAccountDTO struct {
	ID                  uuid.UUID        `json:"id"`
	AccountID           uuid.UUID        `json:"account_id" validate:"required"`
	TypeID              uuid.UUID        `json:"type_id" validate:"required"`
	MonthsPerPeriod     int              `json:"months_per_period" validate:"min=1"`
	InitialValue        *decimal.Decimal `json:"initial_value"`
	LastValue           *decimal.Decimal `json:"last_value"`
	MonthlyInterestRate *decimal.Decimal `json:"monthly_interest_rate"`
	YearlyInterestRate  *decimal.Decimal `json:"yearly_interest_rate"`
	Roi                 *decimal.Decimal `json:"roi"`
	PeriodicalEarnings  *decimal.Decimal `json:"periodical_earnings"`
	Active              bool             `json:"active"`
}

// Mapper converts between AssetAccountDTO and the stored row.
type Mapper struct{}

// FromRow implements record.Mapper.
func (Mapper) FromRow(row tabular.Row) (AssetAccountDTO, error) {
	dto := AssetAccountDTO{Active: true, MonthsPerPeriod: 1}

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
	if hasColumn(row, "months_per_period") {
		months, err := row.Int("months_per_period")
		if err != nil {
			return dto, err
		}
		if months > 0 {
			dto.MonthsPerPeriod = months
		}
	}
	for column, dest := range map[string]**decimal.Decimal{
		"initial_value":         &dto.InitialValue,
		"last_value":            &dto.LastValue,
		"monthly_interest_rate": &dto.MonthlyInterestRate,
		"yearly_interest_rate":  &dto.YearlyInterestRate,
		"roi":                   &dto.Roi,
		"periodical_earnings":   &dto.PeriodicalEarnings,
	} {
		if *dest, err = record.OptionalDecimal(row, column); err != nil {
			return dto, err
		}
	}
	if hasColumn(row, "active") {
		if dto.Active, err = row.Bool("active"); err != nil {
			return dto, err
		}
	}
	return dto, nil
}

// ToModel implements record.Mapper.
func (Mapper) ToModel(dto AssetAccountDTO) (models.AssetAccount, error) {
	return models.AssetAccount{
		BaseModel: models.BaseModel{
			ID:     dto.ID,
			Active: dto.Active,
		},
		AccountID:           dto.AccountID,
		TypeID:              dto.TypeID,
		MonthsPerPeriod:     dto.MonthsPerPeriod,
		InitialValue:        dto.InitialValue,
		LastValue:           dto.LastValue,
		MonthlyInterestRate: dto.MonthlyInterestRate,
		YearlyInterestRate:  dto.YearlyInterestRate,
		Roi:                 dto.Roi,
		PeriodicalEarnings:  dto.PeriodicalEarnings,
	}, nil
}

// FromModel implements record.Mapper.
func (Mapper) FromModel(m models.AssetAccount) AssetAccountDTO {
	return AssetAccountDTO{
		ID:                  m.ID,
		AccountID:           m.AccountID,
		TypeID:              m.TypeID,
		MonthsPerPeriod:     m.MonthsPerPeriod,
		InitialValue:        m.InitialValue,
		LastValue:           m.LastValue,
		MonthlyInterestRate: m.MonthlyInterestRate,
		YearlyInterestRate:  m.YearlyInterestRate,
		Roi:                 m.Roi,
		PeriodicalEarnings:  m.PeriodicalEarnings,
		Active:              m.Active,
	}
}

// NaturalKey implements record.Mapper.
func (Mapper) NaturalKey(dto AssetAccountDTO) map[string]any {
	if dto.AccountID == uuid.Nil {
		return nil
	}
	return map[string]any{"account_id": dto.AccountID}
}

func hasColumn(row tabular.Row, name string) bool {
	_, ok := row.Get(name)
	return ok
}
