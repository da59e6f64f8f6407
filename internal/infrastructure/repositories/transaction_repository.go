package repositories

import (
	"context"

	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	domainrepos "github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

const TransactionsCollection = "transactions"

// TransactionRepository stores ledger entries in the transactions collection
type TransactionRepository struct {
	coll   *docstore.Collection[entities.Transaction]
	logger *zap.Logger
}

func NewTransactionRepository(store *docstore.Store, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		coll:   docstore.NewCollection[entities.Transaction](store, TransactionsCollection),
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) (*entities.Transaction, error) {
	created, err := r.coll.Create(ctx, tx)
	if err != nil {
		r.logger.Error("Failed to create transaction",
			zap.Error(err),
			zap.String("investor_id", tx.InvestorID),
			zap.String("type", string(tx.Type)),
		)
		return nil, mapError(err, "transaction")
	}
	return created, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entities.Transaction, error) {
	tx, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "transaction")
	}
	return tx, nil
}

// List returns transactions matching filter, most recent first
func (r *TransactionRepository) List(ctx context.Context, filter domainrepos.TransactionFilter) ([]*entities.Transaction, error) {
	q := docstore.Query{}
	if filter.InvestorID != "" {
		q = q.Where("investorId", docstore.OpEq, filter.InvestorID)
	}
	if filter.Type != "" {
		q = q.Where("type", docstore.OpEq, string(filter.Type))
	}
	if filter.Status != "" {
		q = q.Where("status", docstore.OpEq, string(filter.Status))
	}
	q = q.OrderByField("date", true)
	if filter.Limit > 0 {
		q = q.WithLimit(filter.Limit)
	}

	items, err := r.coll.Find(ctx, q)
	if err != nil {
		r.logger.Error("Failed to list transactions", zap.Error(err))
		return nil, mapError(err, "transactions")
	}
	return toPointers(items), nil
}

func (r *TransactionRepository) Update(ctx context.Context, id string, fields docstore.Fields) error {
	if err := r.coll.Update(ctx, id, fields); err != nil {
		return mapError(err, "transaction")
	}
	return nil
}
