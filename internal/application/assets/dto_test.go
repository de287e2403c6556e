package assets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papita/transactions/internal/domain/shared/tabular"
)

func TestMapperFromRow(t *testing.T) {
	accountID := uuid.New()
	typeID := uuid.New()
	table, err := tabular.FromMaps(
		[]string{"account_id", "type_id", "initial_value", "roi", "months_per_period"},
		[]map[string]any{
			{
				"account_id":        accountID.String(),
				"type_id":           typeID.String(),
				"initial_value":     "1500.50",
				"roi":               "",
				"months_per_period": "3",
			},
			{
				"account_id":    accountID.String(),
				"type_id":       typeID.String(),
				"initial_value": "",
			},
		},
	)
	require.NoError(t, err)

	first, err := Mapper{}.FromRow(table.Row(0))
	require.NoError(t, err)
	assert.Equal(t, accountID, first.AccountID)
	assert.Equal(t, typeID, first.TypeID)
	assert.Equal(t, 3, first.MonthsPerPeriod)
	require.NotNil(t, first.InitialValue)
	assert.True(t, first.InitialValue.Equal(decimal.RequireFromString("1500.50")))
	assert.Nil(t, first.Roi)
	assert.True(t, first.Active)

	second, err := Mapper{}.FromRow(table.Row(1))
	require.NoError(t, err)
	assert.Equal(t, 1, second.MonthsPerPeriod)
	assert.Nil(t, second.InitialValue)
}

func TestMapperFromRowRejectsBadUUID(t *testing.T) {
	table, err := tabular.FromMaps(
		[]string{"account_id", "type_id"},
		[]map[string]any{{"account_id": "not-a-uuid", "type_id": uuid.New().String()}},
	)
	require.NoError(t, err)

	_, err = Mapper{}.FromRow(table.Row(0))
	assert.Error(t, err)
}

func TestMapperRoundTrip(t *testing.T) {
	initial := decimal.RequireFromString("1000")
	roi := decimal.RequireFromString("0.07")
	dto := AssetAccountDTO{
		ID:              uuid.New(),
		AccountID:       uuid.New(),
		TypeID:          uuid.New(),
		MonthsPerPeriod: 6,
		InitialValue:    &initial,
		Roi:             &roi,
		Active:          true,
	}

	m, err := Mapper{}.ToModel(dto)
	require.NoError(t, err)

	back := Mapper{}.FromModel(m)
	assert.Equal(t, dto, back)
}

func TestMapperNaturalKey(t *testing.T) {
	accountID := uuid.New()
	key := Mapper{}.NaturalKey(AssetAccountDTO{AccountID: accountID})
	assert.Equal(t, map[string]any{"account_id": accountID}, key)

	assert.Nil(t, Mapper{}.NaturalKey(AssetAccountDTO{}))
}
