package repositories

import (
	"context"

	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

const WithdrawalRequestsCollection = "withdrawalRequests"

// WithdrawalRepository stores withdrawal requests
type WithdrawalRepository struct {
	coll   *docstore.Collection[entities.WithdrawalRequest]
	logger *zap.Logger
}

func NewWithdrawalRepository(store *docstore.Store, logger *zap.Logger) *WithdrawalRepository {
	return &WithdrawalRepository{
		coll:   docstore.NewCollection[entities.WithdrawalRequest](store, WithdrawalRequestsCollection),
		logger: logger,
	}
}

func (r *WithdrawalRepository) Create(ctx context.Context, req *entities.WithdrawalRequest) (*entities.WithdrawalRequest, error) {
	created, err := r.coll.Create(ctx, req)
	if err != nil {
		r.logger.Error("Failed to create withdrawal request",
			zap.Error(err),
			zap.String("investor_id", req.InvestorID),
		)
		return nil, mapError(err, "withdrawal request")
	}
	return created, nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*entities.WithdrawalRequest, error) {
	req, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "withdrawal request")
	}
	return req, nil
}

// List returns requests newest first, optionally restricted to one status
func (r *WithdrawalRepository) List(ctx context.Context, status entities.WithdrawalStatus) ([]*entities.WithdrawalRequest, error) {
	q := docstore.Query{}
	if status != "" {
		q = q.Where("status", docstore.OpEq, string(status))
	}
	items, err := r.coll.Find(ctx, q.OrderByField(docstore.FieldCreatedAt, true))
	if err != nil {
		r.logger.Error("Failed to list withdrawal requests", zap.Error(err))
		return nil, mapError(err, "withdrawal requests")
	}
	return toPointers(items), nil
}

func (r *WithdrawalRepository) ListByInvestor(ctx context.Context, investorID string) ([]*entities.WithdrawalRequest, error) {
	q := docstore.Query{}.
		Where("investorId", docstore.OpEq, investorID).
		OrderByField(docstore.FieldCreatedAt, true)
	items, err := r.coll.Find(ctx, q)
	if err != nil {
		return nil, mapError(err, "withdrawal requests")
	}
	return toPointers(items), nil
}

func (r *WithdrawalRepository) Update(ctx context.Context, id string, fields docstore.Fields) error {
	if err := r.coll.Update(ctx, id, fields); err != nil {
		return mapError(err, "withdrawal request")
	}
	return nil
}
