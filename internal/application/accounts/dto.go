// Package accounts manages financial accounts, the ledgers money moves
// between.
package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// AccountDTO is the transport shape of an account.
type AccountDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	Tags        []string   `json:"tags"`
	StartTs     time.Time  `json:"start_ts" validate:"required"`
	EndTs       *time.Time `json:"end_ts"`
	Active      bool       `json:"active"`
}

// Mapper converts between AccountDTO and the stored row.
type Mapper struct{}

// FromRow implements record.Mapper.
func (Mapper) FromRow(row tabular.Row) (AccountDTO, error) {
	dto := AccountDTO{Active: true}

	var err error
	if hasColumn(row, "id") {
		if dto.ID, err = row.UUID("id"); err != nil {
			return dto, err
		}
	}
	if dto.Name, err = row.String("name"); err != nil {
		return dto, err
	}
	if dto.StartTs, err = row.Time("start_ts"); err != nil {
		return dto, err
	}
	if hasColumn(row, "description") {
		if dto.Description, err = row.String("description"); err != nil {
			return dto, err
		}
	}
	if hasColumn(row, "tags") {
		if dto.Tags, err = row.Strings("tags"); err != nil {
			return dto, err
		}
	}
	if hasColumn(row, "end_ts") {
		end, err := row.Time("end_ts")
		if err != nil {
			return dto, err
		}
		if !end.IsZero() {
			dto.EndTs = &end
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
func (Mapper) ToModel(dto AccountDTO) (models.Account, error) {
	if dto.EndTs != nil && !dto.EndTs.After(dto.StartTs) {
		return models.Account{}, &shared.ShapeMismatchError{
			Field:  "end_ts",
			Reason: "must be after start_ts",
		}
	}
	return models.Account{
		BaseModel: models.BaseModel{
			ID:     dto.ID,
			Active: dto.Active,
		},
		Name:        dto.Name,
		Description: dto.Description,
		Tags:        models.StringList(record.NormalizeTags(dto.Tags)),
		StartTs:     dto.StartTs,
		EndTs:       dto.EndTs,
	}, nil
}

// FromModel implements record.Mapper.
func (Mapper) FromModel(m models.Account) AccountDTO {
	return AccountDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Tags:        []string(m.Tags),
		StartTs:     m.StartTs,
		EndTs:       m.EndTs,
		Active:      m.Active,
	}
}

// NaturalKey implements record.Mapper.
func (Mapper) NaturalKey(dto AccountDTO) map[string]any {
	if dto.Name == "" {
		return nil
	}
	return map[string]any{"name": dto.Name}
}

func hasColumn(row tabular.Row, name string) bool {
	_, ok := row.Get(name)
	return ok
}
