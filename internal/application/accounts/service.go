package accounts

import (
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Label identifies this service in the registry.
const Label = "accounts"

// Service exposes account operations.
type Service struct {
	*record.Service[AccountDTO, models.Account]
}

// NewService wires the service against a store.
func NewService(store record.Store[models.Account], tolerance float64, log *zap.Logger) *Service {
	return &Service{record.NewService[AccountDTO, models.Account](store, Mapper{}, tolerance, log)}
}

// Label implements registry.TabularService.
func (s *Service) Label() string { return Label }
