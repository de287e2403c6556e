package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// ConflictPolicy selects what happens when an incoming row collides with an
// existing one on the conflict target.
type ConflictPolicy string

const (
	// ConflictUpdate overwrites the non-key columns with incoming values.
	ConflictUpdate ConflictPolicy = "update"
	// ConflictNothing keeps the existing row; the incoming row is skipped
	// but still counted as processed.
	ConflictNothing ConflictPolicy = "nothing"
	// ConflictRaise aborts the entire batch on the first collision; no row
	// of the batch is persisted.
	ConflictRaise ConflictPolicy = "raise"
)

// Valid reports whether the policy is one of the three supported modes.
func (p ConflictPolicy) Valid() bool {
	return p == ConflictUpdate || p == ConflictNothing || p == ConflictRaise
}

// UpsertResult reports the outcome of one bulk upsert transaction.
type UpsertResult struct {
	Succeeded int
	Skipped   int
	Failed    int
	RowErrors []shared.RowError
}

// dialectHooks captures the few points where the supported backends differ.
// Everything else in the upsert algorithm is shared.
type dialectHooks interface {
	Dialect() config.Dialect
	// MaxBindParams bounds the number of bound parameters per statement.
	MaxBindParams() int
	IsUniqueViolation(err error) bool
	IsForeignKeyViolation(err error) bool
}

type postgresHooks struct{}

func (postgresHooks) Dialect() config.Dialect { return config.DialectPostgres }

func (postgresHooks) MaxBindParams() int { return 65535 }

func (postgresHooks) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (postgresHooks) IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

type sqliteHooks struct{}

func (sqliteHooks) Dialect() config.Dialect { return config.DialectSQLite }

// The embedded engine caps bound parameters far below the networked one.
func (sqliteHooks) MaxBindParams() int { return 999 }

func (sqliteHooks) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (sqliteHooks) IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// Upserter translates a batch of candidate rows plus a conflict policy into
// the SQL appropriate to one dialect. The UPDATE/NOTHING/RAISE semantics are
// identical across dialects; only the hooks differ.
type Upserter struct {
	hooks dialectHooks
}

// NewUpserter selects the strategy for the given dialect tag.
func NewUpserter(dialect config.Dialect) (*Upserter, error) {
	switch dialect {
	case config.DialectPostgres:
		return &Upserter{hooks: postgresHooks{}}, nil
	case config.DialectSQLite:
		return &Upserter{hooks: sqliteHooks{}}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// Dialect returns the dialect this strategy serves.
func (u *Upserter) Dialect() config.Dialect {
	return u.hooks.Dialect()
}

// ChunkSize returns how many rows fit into one statement given the number of
// bound parameters each row consumes.
func (u *Upserter) ChunkSize(bindsPerRow int) int {
	if bindsPerRow <= 0 {
		bindsPerRow = 1
	}
	size := u.hooks.MaxBindParams() / bindsPerRow
	if size < 1 {
		size = 1
	}
	return size
}

// conflictClause builds the ON CONFLICT clause for the non-raising policies.
func (u *Upserter) conflictClause(policy ConflictPolicy, target, updatable []string) clause.Expression {
	cols := make([]clause.Column, len(target))
	for i, c := range target {
		cols[i] = clause.Column{Name: c}
	}
	if policy == ConflictUpdate {
		return clause.OnConflict{
			Columns:   cols,
			DoUpdates: clause.AssignmentColumns(updatable),
		}
	}
	return clause.OnConflict{
		Columns:   cols,
		DoNothing: true,
	}
}

func (u *Upserter) rowErrorCode(err error) string {
	switch {
	case u.hooks.IsUniqueViolation(err):
		return shared.ErrCodeRowConflict
	case u.hooks.IsForeignKeyViolation(err):
		return shared.ErrCodeRowReference
	default:
		return shared.ErrCodeRowPersist
	}
}

// UpsertAll writes rows within the transaction tx according to policy.
//
// RAISE treats the whole batch as one logical unit: the first collision
// aborts with a ConflictError and the caller's rollback leaves zero rows
// persisted. UPDATE and NOTHING absorb collisions through the conflict
// clause; a chunk that still fails (for example on a broken foreign key) is
// retried row by row under savepoints so one bad row does not sink its
// neighbors.
func UpsertAll[M models.Record](tx *gorm.DB, u *Upserter, rows []M, policy ConflictPolicy) (UpsertResult, error) {
	var probe M
	if len(rows) == 0 {
		return UpsertResult{}, nil
	}
	if !policy.Valid() {
		return UpsertResult{}, fmt.Errorf("unsupported conflict policy: %s", policy)
	}

	pks := probe.PrimaryKeyColumns()
	updatable := probe.UpdatableColumns()
	bindsPerRow := len(pks) + len(updatable) + 1 // +1 for created_at
	chunkSize := u.ChunkSize(bindsPerRow)

	if policy == ConflictRaise {
		if err := tx.CreateInBatches(rows, chunkSize).Error; err != nil {
			if u.hooks.IsUniqueViolation(err) {
				return UpsertResult{}, &shared.ConflictError{Table: probe.TableName(), Err: err}
			}
			return UpsertResult{}, err
		}
		return UpsertResult{Succeeded: len(rows)}, nil
	}

	onConflict := u.conflictClause(policy, pks, updatable)

	var result UpsertResult
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		// The chunk attempt runs under its own savepoint so a failure does
		// not poison the surrounding transaction before the per-row retry.
		var chunkAffected int64
		chunkErr := tx.Transaction(func(sp *gorm.DB) error {
			r := sp.Clauses(onConflict).Create(&batch)
			chunkAffected = r.RowsAffected
			return r.Error
		})
		if chunkErr == nil {
			if policy == ConflictNothing {
				inserted := int(chunkAffected)
				if inserted > len(batch) {
					inserted = len(batch)
				}
				result.Succeeded += inserted
				result.Skipped += len(batch) - inserted
			} else {
				result.Succeeded += len(batch)
			}
			continue
		}

		// Per-row fallback inside savepoints: collisions on the conflict
		// target were already absorbed by the clause, so remaining failures
		// are genuine row defects to report, not reasons to abort the batch.
		for i := range batch {
			row := batch[i]
			var affected int64
			err := tx.Transaction(func(sp *gorm.DB) error {
				r := sp.Clauses(onConflict).Create(&row)
				affected = r.RowsAffected
				return r.Error
			})
			if err != nil {
				result.Failed++
				result.RowErrors = append(result.RowErrors, shared.NewRowError(
					start+i, "", u.rowErrorCode(err), err.Error(),
				))
				continue
			}
			if policy == ConflictNothing && affected == 0 {
				result.Skipped++
			} else {
				result.Succeeded++
			}
		}
	}

	return result, nil
}

// EnsureRow inserts row unless a row with the same natural key already
// exists. It goes through the same conflict primitive as bulk upserts, so
// two concurrent creators of one key cannot both insert.
func EnsureRow[M models.Record](tx *gorm.DB, u *Upserter, row *M) error {
	var probe M
	nk := probe.NaturalKeyColumns()
	if len(nk) == 0 {
		return shared.NewDomainError("NO_NATURAL_KEY",
			fmt.Sprintf("entity %s has no natural key", probe.TableName()))
	}
	return tx.Clauses(u.conflictClause(ConflictNothing, nk, nil)).Create(row).Error
}
