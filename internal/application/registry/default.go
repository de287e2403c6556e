package registry

import (
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/accounts"
	"github.com/papita/transactions/internal/application/assets"
	"github.com/papita/transactions/internal/application/liabilities"
	"github.com/papita/transactions/internal/application/transactions"
	"github.com/papita/transactions/internal/application/types"
	"github.com/papita/transactions/internal/infrastructure/persistence"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// Default builds a registry carrying every entity service wired against db.
// The tolerance applies to all bulk ingestions.
func Default(db *persistence.Database, tolerance float64, log *zap.Logger) (*Registry, error) {
	r := New()

	typeRepo, err := persistence.NewRepository[models.Type](db, log)
	if err != nil {
		return nil, err
	}
	accountRepo, err := persistence.NewRepository[models.Account](db, log)
	if err != nil {
		return nil, err
	}
	assetRepo, err := persistence.NewRepository[models.AssetAccount](db, log)
	if err != nil {
		return nil, err
	}
	liabilityRepo, err := persistence.NewRepository[models.LiabilityAccount](db, log)
	if err != nil {
		return nil, err
	}
	identifiedRepo, err := persistence.NewRepository[models.IdentifiedTransaction](db, log)
	if err != nil {
		return nil, err
	}
	transactionRepo, err := persistence.NewRepository[models.Transaction](db, log)
	if err != nil {
		return nil, err
	}

	for _, svc := range []TabularService{
		types.NewService(typeRepo, tolerance, log),
		accounts.NewService(accountRepo, tolerance, log),
		assets.NewService(assetRepo, tolerance, log),
		liabilities.NewService(liabilityRepo, tolerance, log),
		transactions.NewIdentifiedService(identifiedRepo, tolerance, log),
		transactions.NewService(transactionRepo, tolerance, log),
	} {
		if err := r.Register(svc); err != nil {
			return nil, err
		}
	}
	return r, nil
}
