package assets

import (
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Label identifies this service in the registry.
const Label = "asset_accounts"

// Service exposes asset-account operations.
type Service struct {
	*record.Service[AssetAccountDTO, models.AssetAccount]
}

// NewService wires the service against a store.
func NewService(store record.Store[models.AssetAccount], tolerance float64, log *zap.Logger) *Service {
	return &Service{record.NewService[AssetAccountDTO, models.AssetAccount](store, Mapper{}, tolerance, log)}
}

// Label implements registry.TabularService.
func (s *Service) Label() string { return Label }
