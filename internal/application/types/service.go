package types

import (
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/record"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Label identifies this service in the registry.
const Label = "types"

// Service exposes classification-type operations.
type Service struct {
	*record.Service[TypeDTO, models.Type]
}

// NewService wires the service against a store.
func NewService(store record.Store[models.Type], tolerance float64, log *zap.Logger) *Service {
	return &Service{record.NewService[TypeDTO, models.Type](store, Mapper{}, tolerance, log)}
}

// Label implements registry.TabularService.
func (s *Service) Label() string { return Label }
