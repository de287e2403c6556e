package transactions

import (
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Registry labels for the two services of this package.
const (
	IdentifiedLabel = "identified_transactions"
	Label           = "transactions"
)

// IdentifiedService exposes transaction-template operations.
type IdentifiedService struct {
	*record.Service[IdentifiedTransactionDTO, models.IdentifiedTransaction]
}

// NewIdentifiedService wires the template service against a store.
func NewIdentifiedService(
	store record.Store[models.IdentifiedTransaction],
	tolerance float64,
	log *zap.Logger,
) *IdentifiedService {
	return &IdentifiedService{
		record.NewService[IdentifiedTransactionDTO, models.IdentifiedTransaction](
			store, IdentifiedMapper{}, tolerance, log),
	}
}

// Label implements registry.TabularService.
func (s *IdentifiedService) Label() string { return IdentifiedLabel }

// Service exposes money-movement operations.
type Service struct {
	*record.Service[TransactionDTO, models.Transaction]
}

// NewService wires the movement service against a store.
func NewService(store record.Store[models.Transaction], tolerance float64, log *zap.Logger) *Service {
	return &Service{
		record.NewService[TransactionDTO, models.Transaction](
			store, TransactionMapper{}, tolerance, log),
	}
}

// Label implements registry.TabularService.
func (s *Service) Label() string { return Label }
