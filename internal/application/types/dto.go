// Package types manages classification types: the vocabulary assets,
// liabilities and transaction templates are categorized with.
package types

import (
	"github.com/google/uuid"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Discriminator values accepted for a classification type.
const (
	DiscriminatorAssets       = "assets"
	DiscriminatorLiabilities  = "liabilities"
	DiscriminatorTransactions = "transactions"
)

// TypeDTO is the transport shape of a classification type.
type TypeDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name" validate:"required,max=200"`
	Tags          []string  `json:"tags"`
	Description   string    `json:"description" validate:"max=1000"`
	Discriminator string    `json:"discriminator" validate:"required,oneof=assets liabilities transactions"`
	Active        bool      `json:"active"`
}

// Mapper converts between TypeDTO and the stored row.
type Mapper struct{}

// FromRow implements record.Mapper.
func (Mapper) FromRow(row tabular.Row) (TypeDTO, error) {
	dto := TypeDTO{Active: true}

	var err error
	if hasColumn(row, "id") {
		if dto.ID, err = row.UUID("id"); err != nil {
			return dto, err
		}
	}
	if dto.Name, err = row.String("name"); err != nil {
		return dto, err
	}
	if dto.Discriminator, err = row.String("discriminator"); err != nil {
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
func (Mapper) ToModel(dto TypeDTO) (models.Type, error) {
	return models.Type{
		BaseModel: models.BaseModel{
			ID:     dto.ID,
			Active: dto.Active,
		},
		Name:          dto.Name,
		Tags:          models.StringList(record.NormalizeTags(dto.Tags)),
		Description:   dto.Description,
		Discriminator: dto.Discriminator,
	}, nil
}

// FromModel implements record.Mapper.
func (Mapper) FromModel(m models.Type) TypeDTO {
	return TypeDTO{
		ID:            m.ID,
		Name:          m.Name,
		Tags:          []string(m.Tags),
		Description:   m.Description,
		Discriminator: m.Discriminator,
		Active:        m.Active,
	}
}

// NaturalKey implements record.Mapper.
func (Mapper) NaturalKey(dto TypeDTO) map[string]any {
	if dto.Name == "" {
		return nil
	}
	return map[string]any{"name": dto.Name}
}

func hasColumn(row tabular.Row, name string) bool {
	_, ok := row.Get(name)
	return ok
}
