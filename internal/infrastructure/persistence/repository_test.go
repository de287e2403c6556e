package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

func newTypeRepository(t *testing.T) (*Repository[models.Type], *Database) {
	t.Helper()
	db := newTestDatabase(t)
	repo, err := NewRepository[models.Type](db, zap.NewNop())
	require.NoError(t, err)
	return repo, db
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	rows, err := repo.Create(ctx, []models.Type{newTestType("cash")})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)

	found, err := repo.FindByID(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "cash", found.Name)
	assert.True(t, found.Active)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	repo, _ := newTypeRepository(t)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRepositoryFindOne(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, []models.Type{newTestType("cash"), newTestType("stocks")})
	require.NoError(t, err)

	found, err := repo.FindOne(ctx, map[string]any{"name": "stocks"})
	require.NoError(t, err)
	assert.Equal(t, "stocks", found.Name)

	_, err = repo.FindOne(ctx, map[string]any{"name": "bonds"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRepositoryFindOneRejectsBadColumn(t *testing.T) {
	repo, _ := newTypeRepository(t)

	_, err := repo.FindOne(context.Background(), map[string]any{"name; DROP TABLE types": "x"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_FILTER", domainErr.Code)
}

func TestRepositoryFindExcludesSoftDeleted(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, []models.Type{newTestType("cash"), newTestType("stocks")})
	require.NoError(t, err)

	_, err = repo.SoftDelete(ctx, []uuid.UUID{created[0].ID})
	require.NoError(t, err)

	visible, err := repo.Find(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "stocks", visible[0].Name)

	all := shared.DefaultFilter()
	all.IncludeDeleted = true
	everything, err := repo.Find(ctx, all)
	require.NoError(t, err)
	assert.Len(t, everything, 2)
}

func TestRepositoryFindPagination(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	batch := []models.Type{newTestType("a"), newTestType("b"), newTestType("c")}
	_, err := repo.Create(ctx, batch)
	require.NoError(t, err)

	f := shared.DefaultFilter()
	f.OrderBy = "name"
	f.OrderDir = "asc"
	f.Page = 2
	f.PageSize = 2

	rows, err := repo.Find(ctx, f)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Name)

	total, err := repo.Count(ctx, f)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestRepositoryFindIgnoresUnknownSortColumn(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, []models.Type{newTestType("cash")})
	require.NoError(t, err)

	f := shared.DefaultFilter()
	f.OrderBy = "name; DROP TABLE types"
	rows, err := repo.Find(ctx, f)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepositorySoftDeleteIsIdempotent(t *testing.T) {
	repo, db := newTypeRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, []models.Type{newTestType("cash")})
	require.NoError(t, err)
	id := created[0].ID

	affected, err := repo.SoftDelete(ctx, []uuid.UUID{id})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	var first models.Type
	require.NoError(t, db.DB().First(&first, "id = ?", id).Error)
	require.NotNil(t, first.DeletedAt)
	stamped := *first.DeletedAt

	// The second pass must not move the deletion timestamp.
	affected, err = repo.SoftDelete(ctx, []uuid.UUID{id})
	require.NoError(t, err)
	assert.Zero(t, affected)

	var second models.Type
	require.NoError(t, db.DB().First(&second, "id = ?", id).Error)
	require.NotNil(t, second.DeletedAt)
	assert.True(t, second.DeletedAt.Equal(stamped))
}

func TestRepositoryBulkUpsertKeepsDeletionTimestamp(t *testing.T) {
	repo, db := newTypeRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, []models.Type{newTestType("cash")})
	require.NoError(t, err)
	id := created[0].ID

	_, err = repo.SoftDelete(ctx, []uuid.UUID{id})
	require.NoError(t, err)

	var deleted models.Type
	require.NoError(t, db.DB().First(&deleted, "id = ?", id).Error)
	require.NotNil(t, deleted.DeletedAt)
	stamped := *deleted.DeletedAt

	// Overwriting the row must not wipe the one-shot deletion timestamp.
	incoming := created[0]
	incoming.Description = "revived"
	result, err := repo.BulkUpsert(ctx, []models.Type{incoming}, ConflictUpdate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	var after models.Type
	require.NoError(t, db.DB().First(&after, "id = ?", id).Error)
	assert.Equal(t, "revived", after.Description)
	require.NotNil(t, after.DeletedAt)
	assert.True(t, after.DeletedAt.Equal(stamped))
}

func TestRepositorySoftDeleteCascades(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	accounts, err := mustRepo[models.Account](t, db).Create(ctx, []models.Account{newTestAccount("savings")})
	require.NoError(t, err)

	typeRows, err := mustRepo[models.Type](t, db).Create(ctx, []models.Type{newTestType("deposit")})
	require.NoError(t, err)

	initial := decimal.NewFromInt(1000)
	asset := models.AssetAccount{
		BaseModel:    models.BaseModel{Active: true},
		AccountID:    accounts[0].ID,
		TypeID:       typeRows[0].ID,
		InitialValue: &initial,
	}
	assetRepo := mustRepo[models.AssetAccount](t, db)
	_, err = assetRepo.Create(ctx, []models.AssetAccount{asset})
	require.NoError(t, err)

	_, err = mustRepo[models.Account](t, db).SoftDelete(ctx, []uuid.UUID{accounts[0].ID})
	require.NoError(t, err)

	var stored models.AssetAccount
	require.NoError(t, db.DB().First(&stored, "account_id = ?", accounts[0].ID).Error)
	assert.False(t, stored.Active)
	assert.NotNil(t, stored.DeletedAt)
}

func TestRepositoryHardDeleteBlockedByReferences(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	accountRepo := mustRepo[models.Account](t, db)
	accounts, err := accountRepo.Create(ctx, []models.Account{newTestAccount("checking")})
	require.NoError(t, err)

	from := accounts[0].ID
	txRow := models.Transaction{
		BaseModel:     models.BaseModel{Active: true},
		FromAccountID: &from,
		TransactionTs: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Value:         decimal.NewFromInt(50),
	}
	_, err = mustRepo[models.Transaction](t, db).Create(ctx, []models.Transaction{txRow})
	require.NoError(t, err)

	_, err = accountRepo.HardDelete(ctx, []uuid.UUID{from})
	var refErr *shared.ReferentialIntegrityError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "accounts", refErr.Table)
	assert.Equal(t, "transactions", refErr.RefTable)

	// The blocked delete must leave the account untouched.
	_, err = accountRepo.FindByID(ctx, from)
	require.NoError(t, err)
}

func TestRepositoryHardDeleteCascades(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	typeRepo := mustRepo[models.Type](t, db)
	typeRows, err := typeRepo.Create(ctx, []models.Type{newTestType("payroll")})
	require.NoError(t, err)

	identified := models.IdentifiedTransaction{
		BaseModel:    models.BaseModel{Active: true},
		TypeID:       typeRows[0].ID,
		Name:         "monthly salary",
		Tags:         models.StringList{"income"},
		Description:  "salary deposit",
		PlannedValue: decimal.NewFromInt(3000),
	}
	_, err = mustRepo[models.IdentifiedTransaction](t, db).Create(ctx, []models.IdentifiedTransaction{identified})
	require.NoError(t, err)

	affected, err := typeRepo.HardDelete(ctx, []uuid.UUID{typeRows[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	var count int64
	require.NoError(t, db.DB().Model(&models.IdentifiedTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryBulkUpsert(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	existing, err := repo.Create(ctx, []models.Type{newTestType("cash")})
	require.NoError(t, err)

	updated := existing[0]
	updated.Description = "refreshed"
	fresh := newTestType("stocks")

	result, err := repo.BulkUpsert(ctx, []models.Type{updated, fresh}, ConflictUpdate)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)

	stored, err := repo.FindByID(ctx, existing[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.Description)
}

func TestRepositoryEnsureExists(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	row := newTestType("cash")
	require.NoError(t, repo.EnsureExists(ctx, &row))

	again := newTestType("cash")
	require.NoError(t, repo.EnsureExists(ctx, &again))

	total, err := repo.Count(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestRepositoryFindTable(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, []models.Type{newTestType("cash"), newTestType("stocks")})
	require.NoError(t, err)

	table, err := repo.FindTable(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.True(t, table.HasColumn("name"))
	assert.True(t, table.HasColumn("discriminator"))
}

func TestRepositoryRunQuery(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, []models.Type{newTestType("cash"), newTestType("stocks")})
	require.NoError(t, err)

	table, err := repo.RunQuery(ctx, "SELECT discriminator, COUNT(*) AS total FROM types GROUP BY discriminator")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	total, err := table.Row(0).Int("total")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestRepositoryRunQueryRejectsWrites(t *testing.T) {
	repo, _ := newTypeRepository(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"delete", "DELETE FROM types", "WRITE_REJECTED"},
		{"update", "UPDATE types SET name = 'x'", "WRITE_REJECTED"},
		{"stacked statements", "SELECT 1; DELETE FROM types", "MULTI_STATEMENT"},
		{"empty", "   ", "EMPTY_QUERY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.RunQuery(ctx, tt.query)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
}

func mustRepo[M models.Record](t *testing.T, db *Database) *Repository[M] {
	t.Helper()
	repo, err := NewRepository[M](db, zap.NewNop())
	require.NoError(t, err)
	return repo
}
