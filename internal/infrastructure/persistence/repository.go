package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Repository is the generic, entity-typed data-access primitive. It is
// independent of business validation; services own that concern.
type Repository[M models.Record] struct {
	db       *Database
	upserter *Upserter
	log      *zap.Logger
}

// NewRepository creates a repository for one entity type bound to db.
func NewRepository[M models.Record](db *Database, log *zap.Logger) (*Repository[M], error) {
	upserter, err := NewUpserter(db.Dialect())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	var probe M
	return &Repository[M]{
		db:       db,
		upserter: upserter,
		log:      log.Named("repository").With(zap.String("table", probe.TableName())),
	}, nil
}

// Create persists rows and returns them with identifiers assigned.
func (r *Repository[M]) Create(ctx context.Context, rows []M) ([]M, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	err := r.db.Session(ctx, func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID returns the row with the given identifier, soft-deleted or not.
func (r *Repository[M]) FindByID(ctx context.Context, id uuid.UUID) (*M, error) {
	var row M
	err := r.db.DB().WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, r.db.classify(ctx, "find by id", err)
	}
	return &row, nil
}

// FindOne returns the first active row matching all attribute filters.
func (r *Repository[M]) FindOne(ctx context.Context, attrs map[string]any) (*M, error) {
	query := r.db.DB().WithContext(ctx).Where("active = ?", true)
	for col, val := range attrs {
		if !identifierPattern.MatchString(col) {
			return nil, shared.NewDomainError("INVALID_FILTER", fmt.Sprintf("invalid column name %q", col))
		}
		query = query.Where(fmt.Sprintf("%s = ?", col), val)
	}
	var row M
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, r.db.classify(ctx, "find one", err)
	}
	return &row, nil
}

// Find returns the rows matching the filter. Soft-deleted rows stay out of
// the result set unless the filter asks for them.
func (r *Repository[M]) Find(ctx context.Context, f shared.Filter) ([]M, error) {
	query, err := r.applyFilter(r.db.DB().WithContext(ctx), f, true)
	if err != nil {
		return nil, err
	}
	var rows []M
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.db.classify(ctx, "find", err)
	}
	return rows, nil
}

// Count returns how many rows match the filter, ignoring pagination.
func (r *Repository[M]) Count(ctx context.Context, f shared.Filter) (int64, error) {
	var probe M
	query, err := r.applyFilter(r.db.DB().WithContext(ctx).Model(&probe), f, false)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, r.db.classify(ctx, "count", err)
	}
	return total, nil
}

func (r *Repository[M]) applyFilter(query *gorm.DB, f shared.Filter, paginate bool) (*gorm.DB, error) {
	if !f.IncludeDeleted {
		query = query.Where("active = ?", true)
	}
	for col, val := range f.Filters {
		if !identifierPattern.MatchString(col) {
			return nil, shared.NewDomainError("INVALID_FILTER", fmt.Sprintf("invalid column name %q", col))
		}
		query = query.Where(fmt.Sprintf("%s = ?", col), val)
	}

	if paginate {
		orderBy := validateSortField(f.OrderBy, r.allowedSortFields(), "created_at")
		query = query.Order(fmt.Sprintf("%s %s", orderBy, validateSortOrder(f.OrderDir)))

		if f.PageSize > 0 {
			page := f.Page
			if page < 1 {
				page = 1
			}
			query = query.Offset((page - 1) * f.PageSize).Limit(f.PageSize)
		}
	}
	return query, nil
}

func (r *Repository[M]) allowedSortFields() map[string]bool {
	var probe M
	allowed := map[string]bool{"created_at": true, "updated_at": true, "deleted_at": true}
	for _, col := range probe.PrimaryKeyColumns() {
		allowed[col] = true
	}
	for _, col := range probe.UpdatableColumns() {
		allowed[col] = true
	}
	return allowed
}

// validateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func validateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// validateSortField validates the sort field against the allowed columns.
func validateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowed[trimmed] {
		return defaultField
	}
	return trimmed
}

// SoftDelete flags the rows inactive and timestamps them. Re-deleting an
// already-deleted row is a no-op. Cascade references are deactivated within
// the same transaction.
func (r *Repository[M]) SoftDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var probe M
	now := time.Now().UTC()
	values := map[string]any{"active": false, "deleted_at": now, "updated_at": now}

	var affected int64
	err := r.db.Session(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&probe).
			Where("id IN ? AND active = ?", ids, true).
			Updates(values)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected

		for _, ref := range probe.ReferencedBy() {
			if !ref.Cascade {
				continue
			}
			err := tx.Table(ref.Table).
				Where(fmt.Sprintf("%s IN ? AND active = ?", ref.Column), ids, true).
				Updates(values).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// HardDelete physically removes the rows. It fails when a non-cascade
// reference still points at any of them; cascade references are removed in
// the same transaction, so no partial state survives a failure.
func (r *Repository[M]) HardDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var probe M

	var affected int64
	err := r.db.Session(ctx, func(tx *gorm.DB) error {
		for _, ref := range probe.ReferencedBy() {
			if ref.Cascade {
				continue
			}
			var count int64
			err := tx.Table(ref.Table).
				Where(fmt.Sprintf("%s IN ?", ref.Column), ids).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return &shared.ReferentialIntegrityError{
					Table:     probe.TableName(),
					RefTable:  ref.Table,
					RefColumn: ref.Column,
					Count:     count,
				}
			}
		}

		for _, ref := range probe.ReferencedBy() {
			if !ref.Cascade {
				continue
			}
			err := tx.Exec(
				fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", ref.Table, ref.Column), ids,
			).Error
			if err != nil {
				return err
			}
		}

		res := tx.Where("id IN ?", ids).Delete(&probe)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// BulkUpsert writes the batch under the conflict policy within exactly one
// transaction. Row construction belongs to the entity mapping layer; this
// only moves already-shaped rows.
func (r *Repository[M]) BulkUpsert(ctx context.Context, rows []M, policy ConflictPolicy) (UpsertResult, error) {
	if len(rows) == 0 {
		return UpsertResult{}, nil
	}

	var result UpsertResult
	err := r.db.Session(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = UpsertAll(tx, r.upserter, rows, policy)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}

	r.log.Debug("bulk upsert finished",
		zap.String("policy", string(policy)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// EnsureExists inserts row unless its natural key is already taken, going
// through the conflict-resolution primitive rather than read-then-insert so
// concurrent creators of the same key cannot race.
func (r *Repository[M]) EnsureExists(ctx context.Context, row *M) error {
	return r.db.Session(ctx, func(tx *gorm.DB) error {
		return EnsureRow(tx, r.upserter, row)
	})
}

// FindTable performs a tabular bulk read of the rows matching the filter.
func (r *Repository[M]) FindTable(ctx context.Context, f shared.Filter) (*tabular.Table, error) {
	var probe M
	query, err := r.applyFilter(r.db.DB().WithContext(ctx).Model(&probe), f, true)
	if err != nil {
		return nil, err
	}
	rows, err := query.Rows()
	if err != nil {
		return nil, r.db.classify(ctx, "find table", err)
	}
	defer rows.Close()
	return scanTable(rows)
}

// RunQuery executes a read-only aggregate query and returns its result as a
// table. Write statements are rejected before touching the store.
func (r *Repository[M]) RunQuery(ctx context.Context, query string, args ...any) (*tabular.Table, error) {
	if err := assertReadOnly(query); err != nil {
		return nil, err
	}
	rows, err := r.db.DB().WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, r.db.classify(ctx, "run query", err)
	}
	defer rows.Close()
	return scanTable(rows)
}

// assertReadOnly admits single SELECT or WITH statements only.
func assertReadOnly(query string) error {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if trimmed == "" {
		return shared.NewDomainError("EMPTY_QUERY", "query is empty")
	}
	if strings.Contains(trimmed, ";") {
		return shared.NewDomainError("MULTI_STATEMENT", "multiple statements are not allowed")
	}
	first := strings.ToUpper(strings.Fields(trimmed)[0])
	if first != "SELECT" && first != "WITH" {
		return shared.NewDomainError("WRITE_REJECTED",
			fmt.Sprintf("only read statements are allowed, got %s", first))
	}
	return nil
}

func scanTable(rows *sql.Rows) (*tabular.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	table, err := tabular.New(columns...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if raw, ok := v.([]byte); ok {
				values[i] = string(raw)
			}
		}
		if err := table.Append(values...); err != nil {
			return nil, err
		}
	}
	return table, rows.Err()
}
