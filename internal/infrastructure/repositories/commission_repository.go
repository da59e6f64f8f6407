package repositories

import (
	"context"

	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

const (
	CommissionsCollection           = "commissions"
	CommissionWithdrawalsCollection = "commissionWithdrawals"
)

// CommissionRepository stores platform fees
type CommissionRepository struct {
	coll   *docstore.Collection[entities.Commission]
	logger *zap.Logger
}

func NewCommissionRepository(store *docstore.Store, logger *zap.Logger) *CommissionRepository {
	return &CommissionRepository{
		coll:   docstore.NewCollection[entities.Commission](store, CommissionsCollection),
		logger: logger,
	}
}

func (r *CommissionRepository) Create(ctx context.Context, c *entities.Commission) (*entities.Commission, error) {
	created, err := r.coll.Create(ctx, c)
	if err != nil {
		r.logger.Error("Failed to create commission",
			zap.Error(err),
			zap.String("withdrawal_id", c.WithdrawalID),
		)
		return nil, mapError(err, "commission")
	}
	return created, nil
}

func (r *CommissionRepository) List(ctx context.Context) ([]*entities.Commission, error) {
	items, err := r.coll.Find(ctx, docstore.Query{}.OrderByField(docstore.FieldCreatedAt, true))
	if err != nil {
		r.logger.Error("Failed to list commissions", zap.Error(err))
		return nil, mapError(err, "commissions")
	}
	return toPointers(items), nil
}

func (r *CommissionRepository) ListByWithdrawal(ctx context.Context, withdrawalID string) ([]*entities.Commission, error) {
	items, err := r.coll.Find(ctx, docstore.Query{}.Where("withdrawalId", docstore.OpEq, withdrawalID))
	if err != nil {
		return nil, mapError(err, "commissions")
	}
	return toPointers(items), nil
}

// CommissionWithdrawalRepository stores commission payouts
type CommissionWithdrawalRepository struct {
	coll   *docstore.Collection[entities.CommissionWithdrawal]
	logger *zap.Logger
}

func NewCommissionWithdrawalRepository(store *docstore.Store, logger *zap.Logger) *CommissionWithdrawalRepository {
	return &CommissionWithdrawalRepository{
		coll:   docstore.NewCollection[entities.CommissionWithdrawal](store, CommissionWithdrawalsCollection),
		logger: logger,
	}
}

func (r *CommissionWithdrawalRepository) Create(ctx context.Context, w *entities.CommissionWithdrawal) (*entities.CommissionWithdrawal, error) {
	created, err := r.coll.Create(ctx, w)
	if err != nil {
		r.logger.Error("Failed to create commission withdrawal", zap.Error(err))
		return nil, mapError(err, "commission withdrawal")
	}
	return created, nil
}

func (r *CommissionWithdrawalRepository) List(ctx context.Context) ([]*entities.CommissionWithdrawal, error) {
	items, err := r.coll.Find(ctx, docstore.Query{}.OrderByField(docstore.FieldCreatedAt, true))
	if err != nil {
		return nil, mapError(err, "commission withdrawals")
	}
	return toPointers(items), nil
}
