package liabilities

import (
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Label identifies this service in the registry.
const Label = "liability_accounts"

// Service exposes liability-account operations.
type Service struct {
	*record.Service[LiabilityAccountDTO, models.LiabilityAccount]
}

// NewService wires the service against a store.
func NewService(store record.Store[models.LiabilityAccount], tolerance float64, log *zap.Logger) *Service {
	return &Service{record.NewService[LiabilityAccountDTO, models.LiabilityAccount](store, Mapper{}, tolerance, log)}
}

// Label implements registry.TabularService.
func (s *Service) Label() string { return Label }
