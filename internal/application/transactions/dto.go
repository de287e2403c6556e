// Package transactions manages money movements and the identified templates
// they are categorized under.
package transactions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// IdentifiedTransactionDTO is the transport shape of a transaction template.
type IdentifiedTransactionDTO struct {
	ID                    uuid.UUID       `json:"id"`
	TypeID                uuid.UUID       `json:"type_id" validate:"required"`
	Name                  string          `json:"name" validate:"required,max=200"`
	Tags                  []string        `json:"tags"`
	Description           string          `json:"description" validate:"max=1000"`
	PlannedValue          decimal.Decimal `json:"planned_value"`
	PlannedTransactionDay int             `json:"planned_transaction_day" validate:"min=1,max=28"`
	Active                bool            `json:"active"`
}

// IdentifiedMapper converts between IdentifiedTransactionDTO and the stored row.
type IdentifiedMapper struct{}

// FromRow implements record.Mapper.
func (IdentifiedMapper) FromRow(row tabular.Row) (IdentifiedTransactionDTO, error) {
	dto := IdentifiedTransactionDTO{Active: true}

	var err error
	if hasColumn(row, "id") {
		if dto.ID, err = row.UUID("id"); err != nil {
			return dto, err
		}
	}
	if dto.TypeID, err = row.UUID("type_id"); err != nil {
		return dto, err
	}
	if dto.Name, err = row.String("name"); err != nil {
		return dto, err
	}
	if dto.PlannedValue, err = row.Decimal("planned_value"); err != nil {
		return dto, err
	}
	if dto.PlannedTransactionDay, err = row.Int("planned_transaction_day"); err != nil {
		return dto, err
	}
	if hasColumn(row, "tags") {
		if dto.Tags, err = row.Strings("tags"); err != nil {
			return dto, err
		}
	}
	if hasColumn(row, "description") {
		if dto.Description, err = row.String("description"); err != nil {
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
func (IdentifiedMapper) ToModel(dto IdentifiedTransactionDTO) (models.IdentifiedTransaction, error) {
	if !dto.PlannedValue.IsPositive() {
		return models.IdentifiedTransaction{}, &shared.ShapeMismatchError{
			Field:  "planned_value",
			Reason: "must be positive",
		}
	}
	return models.IdentifiedTransaction{
		BaseModel: models.BaseModel{
			ID:     dto.ID,
			Active: dto.Active,
		},
		TypeID:                dto.TypeID,
		Name:                  dto.Name,
		Tags:                  models.StringList(record.NormalizeTags(dto.Tags)),
		Description:           dto.Description,
		PlannedValue:          dto.PlannedValue,
		PlannedTransactionDay: dto.PlannedTransactionDay,
	}, nil
}

// FromModel implements record.Mapper.
func (IdentifiedMapper) FromModel(m models.IdentifiedTransaction) IdentifiedTransactionDTO {
	return IdentifiedTransactionDTO{
		ID:                    m.ID,
		TypeID:                m.TypeID,
		Name:                  m.Name,
		Tags:                  []string(m.Tags),
		Description:           m.Description,
		PlannedValue:          m.PlannedValue,
		PlannedTransactionDay: m.PlannedTransactionDay,
		Active:                m.Active,
	}
}

// NaturalKey implements record.Mapper.
func (IdentifiedMapper) NaturalKey(dto IdentifiedTransactionDTO) map[string]any {
	if dto.Name == "" {
		return nil
	}
	return map[string]any{"name": dto.Name}
}

// TransactionDTO is the transport shape of a money movement. At least one of
// the two account references must be set: income from outside has no origin,
// spending to outside has no destination, but a movement touching no account
// is meaningless.
type TransactionDTO struct {
	ID                      uuid.UUID       `json:"id"`
	IdentifiedTransactionID *uuid.UUID      `json:"identified_transaction_id"`
	FromAccountID           *uuid.UUID      `json:"from_account_id"`
	ToAccountID             *uuid.UUID      `json:"to_account_id"`
	TransactionTs           time.Time       `json:"transaction_ts" validate:"required"`
	Value                   decimal.Decimal `json:"value"`
	Active                  bool            `json:"active"`
}

// TransactionMapper converts between TransactionDTO and the stored row.
type TransactionMapper struct{}

// FromRow implements record.Mapper.
func (TransactionMapper) FromRow(row tabular.Row) (TransactionDTO, error) {
	dto := TransactionDTO{Active: true}

	var err error
	if hasColumn(row, "id") {
		if dto.ID, err = row.UUID("id"); err != nil {
			return dto, err
		}
	}
	if dto.TransactionTs, err = row.Time("transaction_ts"); err != nil {
		return dto, err
	}
	if dto.Value, err = row.Decimal("value"); err != nil {
		return dto, err
	}
	if dto.IdentifiedTransactionID, err = record.OptionalUUID(row, "identified_transaction_id"); err != nil {
		return dto, err
	}
	if dto.FromAccountID, err = record.OptionalUUID(row, "from_account_id"); err != nil {
		return dto, err
	}
	if dto.ToAccountID, err = record.OptionalUUID(row, "to_account_id"); err != nil {
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
func (TransactionMapper) ToModel(dto TransactionDTO) (models.Transaction, error) {
	if !dto.Value.IsPositive() {
		return models.Transaction{}, &shared.ShapeMismatchError{
			Field:  "value",
			Reason: "must be positive",
		}
	}
	if dto.FromAccountID == nil && dto.ToAccountID == nil {
		return models.Transaction{}, &shared.ShapeMismatchError{
			Field:  "from_account_id",
			Reason: "at least one of from_account_id or to_account_id is required",
		}
	}
	return models.Transaction{
		BaseModel: models.BaseModel{
			ID:     dto.ID,
			Active: dto.Active,
		},
		IdentifiedTransactionID: dto.IdentifiedTransactionID,
		FromAccountID:           dto.FromAccountID,
		ToAccountID:             dto.ToAccountID,
		TransactionTs:           dto.TransactionTs,
		Value:                   dto.Value,
	}, nil
}

// FromModel implements record.Mapper.
func (TransactionMapper) FromModel(m models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                      m.ID,
		IdentifiedTransactionID: m.IdentifiedTransactionID,
		FromAccountID:           m.FromAccountID,
		ToAccountID:             m.ToAccountID,
		TransactionTs:           m.TransactionTs,
		Value:                   m.Value,
		Active:                  m.Active,
	}
}

// NaturalKey implements record.Mapper. Movements have no business key, so
// get-or-create does not apply to them.
func (TransactionMapper) NaturalKey(dto TransactionDTO) map[string]any {
	return nil
}

func hasColumn(row tabular.Row, name string) bool {
	_, ok := row.Get(name)
	return ok
}
