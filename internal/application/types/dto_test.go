package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papita/transactions/internal/domain/shared/tabular"
)

func TestMapperFromRow(t *testing.T) {
	table, err := tabular.FromMaps(
		[]string{"id", "name", "tags", "description", "discriminator", "active"},
		[]map[string]any{
			{
				"id":            "5a1f8f7e-4a7e-4a2f-9a9a-2f2b6e1c0d3e",
				"name":          "  cash  ",
				"tags":          "liquid, safe , liquid",
				"description":   "cash and equivalents",
				"discriminator": "assets",
				"active":        "yes",
			},
		},
	)
	require.NoError(t, err)

	dto, err := Mapper{}.FromRow(table.Row(0))
	require.NoError(t, err)
	assert.Equal(t, "cash", dto.Name)
	assert.Equal(t, "assets", dto.Discriminator)
	assert.True(t, dto.Active)
	assert.Equal(t, uuid.MustParse("5a1f8f7e-4a7e-4a2f-9a9a-2f2b6e1c0d3e"), dto.ID)
	// Splitting trims; dedup happens on the way to the model.
	assert.Equal(t, []string{"liquid", "safe", "liquid"}, dto.Tags)
}

func TestMapperFromRowDefaults(t *testing.T) {
	table, err := tabular.FromMaps(
		[]string{"name", "discriminator"},
		[]map[string]any{{"name": "cash", "discriminator": "assets"}},
	)
	require.NoError(t, err)

	dto, err := Mapper{}.FromRow(table.Row(0))
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, dto.ID)
	assert.True(t, dto.Active)
	assert.Empty(t, dto.Tags)
}

func TestMapperRoundTrip(t *testing.T) {
	dto := TypeDTO{
		ID:            uuid.New(),
		Name:          "cash",
		Tags:          []string{" liquid ", "safe", "liquid"},
		Description:   "cash and equivalents",
		Discriminator: DiscriminatorAssets,
		Active:        true,
	}

	m, err := Mapper{}.ToModel(dto)
	require.NoError(t, err)
	assert.Equal(t, []string{"liquid", "safe"}, []string(m.Tags))

	back := Mapper{}.FromModel(m)
	assert.Equal(t, dto.ID, back.ID)
	assert.Equal(t, dto.Name, back.Name)
	assert.Equal(t, dto.Discriminator, back.Discriminator)
	assert.True(t, back.Active)
}

func TestMapperNaturalKey(t *testing.T) {
	assert.Equal(t, map[string]any{"name": "cash"}, Mapper{}.NaturalKey(TypeDTO{Name: "cash"}))
	assert.Nil(t, Mapper{}.NaturalKey(TypeDTO{}))
}
