// Package record provides the generic application service shared by every
// persisted entity: validated CRUD, get-or-create on natural keys, and
// tolerance-bounded bulk ingestion of tabular batches.
package record

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Store is the slice of the data layer the service needs. The concrete
// repository satisfies it; tests may substitute fakes.
type Store[M models.Record] interface {
	Create(ctx context.Context, rows []M) ([]M, error)
	FindByID(ctx context.Context, id uuid.UUID) (*M, error)
	FindOne(ctx context.Context, attrs map[string]any) (*M, error)
	Find(ctx context.Context, f shared.Filter) ([]M, error)
	Count(ctx context.Context, f shared.Filter) (int64, error)
	SoftDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
	HardDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
	BulkUpsert(ctx context.Context, rows []M, policy persistence.ConflictPolicy) (persistence.UpsertResult, error)
	EnsureExists(ctx context.Context, row *M) error
	FindTable(ctx context.Context, f shared.Filter) (*tabular.Table, error)
}

// Mapper translates between the transport shape D and the storage shape M.
type Mapper[D any, M models.Record] interface {
	// FromRow parses one tabular row into a DTO, coercing loosely typed
	// cell values. A failure describes the offending column.
	FromRow(row tabular.Row) (D, error)
	// ToModel shapes a validated DTO into a storage row.
	ToModel(dto D) (M, error)
	// FromModel exposes a storage row as a DTO.
	FromModel(m M) D
	// NaturalKey extracts the business-key attributes used for lookup
	// and get-or-create. Empty means the entity has no natural key.
	NaturalKey(dto D) map[string]any
}

// Service implements the entity-agnostic application operations.
type Service[D any, M models.Record] struct {
	store     Store[M]
	mapper    Mapper[D, M]
	validate  *validator.Validate
	tolerance float64
	log       *zap.Logger
}

// NewService wires a service for one entity. The tolerance is the accepted
// fraction of failed rows in a bulk ingestion before the whole batch is
// reported as exceeding it; zero means no failure is tolerated.
func NewService[D any, M models.Record](
	store Store[M],
	mapper Mapper[D, M],
	tolerance float64,
	log *zap.Logger,
) *Service[D, M] {
	if tolerance < 0 {
		tolerance = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	var probe M
	return &Service[D, M]{
		store:     store,
		mapper:    mapper,
		validate:  newValidator(),
		tolerance: tolerance,
		log:       log.Named("record").With(zap.String("entity", probe.TableName())),
	}
}

// newValidator builds a validator that reports field names from json tags,
// matching the column names callers see.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Tolerance returns the configured failure tolerance.
func (s *Service[D, M]) Tolerance() float64 {
	return s.tolerance
}

// Create validates and persists one record, returning the stored shape.
func (s *Service[D, M]) Create(ctx context.Context, dto D) (D, error) {
	var zero D
	if err := s.validate.Struct(dto); err != nil {
		return zero, shapeError(err)
	}
	row, err := s.mapper.ToModel(dto)
	if err != nil {
		return zero, err
	}
	created, err := s.store.Create(ctx, []M{row})
	if err != nil {
		return zero, err
	}
	return s.mapper.FromModel(created[0]), nil
}

// Get returns the record with the given identifier.
func (s *Service[D, M]) Get(ctx context.Context, id uuid.UUID) (D, error) {
	var zero D
	row, err := s.store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	return s.mapper.FromModel(*row), nil
}

// GetBy returns the first active record matching the attributes.
func (s *Service[D, M]) GetBy(ctx context.Context, attrs map[string]any) (D, error) {
	var zero D
	row, err := s.store.FindOne(ctx, attrs)
	if err != nil {
		return zero, err
	}
	return s.mapper.FromModel(*row), nil
}

// List returns one page of records plus the total count.
func (s *Service[D, M]) List(ctx context.Context, f shared.Filter) (shared.Paginated[D], error) {
	rows, err := s.store.Find(ctx, f)
	if err != nil {
		return shared.Paginated[D]{}, err
	}
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return shared.Paginated[D]{}, err
	}
	dtos := make([]D, len(rows))
	for i, row := range rows {
		dtos[i] = s.mapper.FromModel(row)
	}
	return shared.NewPaginated(dtos, total, f.Page, f.PageSize), nil
}

// GetOrCreate returns the record matching the DTO's natural key, creating it
// first when absent. The second result reports whether a creation happened.
// Concurrent callers racing on the same key converge on one row.
func (s *Service[D, M]) GetOrCreate(ctx context.Context, dto D) (D, bool, error) {
	var zero D
	key := s.mapper.NaturalKey(dto)
	if len(key) == 0 {
		var probe M
		return zero, false, shared.NewDomainError("NO_NATURAL_KEY",
			"entity "+probe.TableName()+" has no natural key")
	}

	if existing, err := s.store.FindOne(ctx, key); err == nil {
		return s.mapper.FromModel(*existing), false, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return zero, false, err
	}

	if err := s.validate.Struct(dto); err != nil {
		return zero, false, shapeError(err)
	}
	row, err := s.mapper.ToModel(dto)
	if err != nil {
		return zero, false, err
	}
	if err := s.store.EnsureExists(ctx, &row); err != nil {
		return zero, false, err
	}

	// A losing racer finds the winner's row here.
	stored, err := s.store.FindOne(ctx, key)
	if err != nil {
		return zero, false, err
	}
	created := recordID(*stored) == recordID(row)
	return s.mapper.FromModel(*stored), created, nil
}

// Delete removes the records. Soft deletion flags them inactive and is the
// default; hard deletion physically removes them and their cascading
// references. It returns how many rows were affected.
func (s *Service[D, M]) Delete(ctx context.Context, ids []uuid.UUID, hard bool) (int64, error) {
	if hard {
		return s.store.HardDelete(ctx, ids)
	}
	return s.store.SoftDelete(ctx, ids)
}

// FetchTable returns the matching records in columnar form.
func (s *Service[D, M]) FetchTable(ctx context.Context, f shared.Filter) (*tabular.Table, error) {
	return s.store.FindTable(ctx, f)
}

// UpsertTable ingests a tabular batch under the conflict policy and the
// service's configured tolerance.
func (s *Service[D, M]) UpsertTable(
	ctx context.Context,
	table *tabular.Table,
	policy persistence.ConflictPolicy,
) (shared.UpsertReport, error) {
	return s.UpsertTableWithTolerance(ctx, table, policy, s.tolerance)
}

// UpsertTableWithTolerance ingests a tabular batch under the conflict policy.
// Rows that fail parsing or validation are dropped from the batch and counted
// against the tolerance together with rows the store rejects; the remainder
// commits in one transaction. When the combined failure ratio over the
// original batch size exceeds the tolerance, the committed writes stand and a
// ToleranceExceededError carrying the full report is returned. A negative
// tolerance is treated as zero.
func (s *Service[D, M]) UpsertTableWithTolerance(
	ctx context.Context,
	table *tabular.Table,
	policy persistence.ConflictPolicy,
	tolerance float64,
) (shared.UpsertReport, error) {
	report := shared.UpsertReport{}
	if table == nil || table.Len() == 0 {
		return report, nil
	}
	report.Total = table.Len()

	rows := make([]M, 0, table.Len())
	sourceIndex := make([]int, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		dto, err := s.mapper.FromRow(table.Row(i))
		if err == nil {
			err = s.validate.Struct(dto)
		}
		if err != nil {
			report.Failed++
			report.RowErrors = append(report.RowErrors,
				rowShapeError(i, err))
			continue
		}
		row, err := s.mapper.ToModel(dto)
		if err != nil {
			report.Failed++
			report.RowErrors = append(report.RowErrors,
				rowShapeError(i, err))
			continue
		}
		rows = append(rows, row)
		sourceIndex = append(sourceIndex, i)
	}

	result, err := s.store.BulkUpsert(ctx, rows, policy)
	if err != nil {
		return report, err
	}

	report.Succeeded = result.Succeeded
	report.Skipped = result.Skipped
	report.Failed += result.Failed
	for _, re := range result.RowErrors {
		// Store-level indexes refer to the filtered batch.
		re.Row = sourceIndex[re.Row]
		report.RowErrors = append(report.RowErrors, re)
	}
	report.FailureRatio = float64(report.Failed) / float64(report.Total)

	s.log.Info("bulk ingestion finished",
		zap.String("policy", string(policy)),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	if tolerance < 0 {
		tolerance = 0
	}
	if report.FailureRatio > tolerance {
		return report, &shared.ToleranceExceededError{
			Tolerance: tolerance,
			Report:    report,
		}
	}
	return report, nil
}

// recordID reads the identifier shared by every persisted entity.
func recordID[M models.Record](m M) uuid.UUID {
	v := reflect.ValueOf(m).FieldByName("BaseModel")
	if !v.IsValid() {
		return uuid.Nil
	}
	return v.FieldByName("ID").Interface().(uuid.UUID)
}

// shapeError converts a validation failure into the shape-mismatch type.
func shapeError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &shared.ShapeMismatchError{
			Field:  verrs[0].Field(),
			Reason: "failed on the '" + verrs[0].Tag() + "' rule",
		}
	}
	var shapeErr *shared.ShapeMismatchError
	if errors.As(err, &shapeErr) {
		return shapeErr
	}
	return &shared.ShapeMismatchError{Reason: err.Error()}
}

// rowShapeError converts a per-row failure into a reportable row error.
func rowShapeError(row int, err error) shared.RowError {
	column := ""
	var verrs validator.ValidationErrors
	var shapeErr *shared.ShapeMismatchError
	switch {
	case errors.As(err, &verrs) && len(verrs) > 0:
		column = verrs[0].Field()
	case errors.As(err, &shapeErr):
		column = shapeErr.Field
	}
	return shared.NewRowError(row, column, shared.ErrCodeRowShape, err.Error())
}
