package repositories

import (
	"context"

	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

const InvestorsCollection = "investors"

// InvestorRepository stores investors in the investors collection
type InvestorRepository struct {
	coll   *docstore.Collection[entities.Investor]
	logger *zap.Logger
}

func NewInvestorRepository(store *docstore.Store, logger *zap.Logger) *InvestorRepository {
	return &InvestorRepository{
		coll:   docstore.NewCollection[entities.Investor](store, InvestorsCollection),
		logger: logger,
	}
}

func (r *InvestorRepository) Create(ctx context.Context, investor *entities.Investor) (*entities.Investor, error) {
	created, err := r.coll.Create(ctx, investor)
	if err != nil {
		r.logger.Error("Failed to create investor", zap.Error(err), zap.String("name", investor.Name))
		return nil, mapError(err, "investor")
	}
	r.logger.Debug("Investor created", zap.String("investor_id", created.ID))
	return created, nil
}

func (r *InvestorRepository) GetByID(ctx context.Context, id string) (*entities.Investor, error) {
	investor, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "investor")
	}
	return investor, nil
}

// GetByUserID returns the investor linked to a signed-in user
func (r *InvestorRepository) GetByUserID(ctx context.Context, userID string) (*entities.Investor, error) {
	items, err := r.coll.Find(ctx, docstore.Query{}.Where("userId", docstore.OpEq, userID).WithLimit(1))
	if err != nil {
		return nil, mapError(err, "investor")
	}
	if len(items) == 0 {
		return nil, mapError(docstore.ErrNotFound, "investor")
	}
	return &items[0], nil
}

func listInvestorsQuery() docstore.Query {
	return docstore.Query{}.OrderByField("joinDate", true)
}

// List returns all investors, newest joiners first
func (r *InvestorRepository) List(ctx context.Context) ([]*entities.Investor, error) {
	items, err := r.coll.Find(ctx, listInvestorsQuery())
	if err != nil {
		r.logger.Error("Failed to list investors", zap.Error(err))
		return nil, mapError(err, "investors")
	}
	return toPointers(items), nil
}

func (r *InvestorRepository) Update(ctx context.Context, id string, fields docstore.Fields) error {
	if err := r.coll.Update(ctx, id, fields); err != nil {
		return mapError(err, "investor")
	}
	return nil
}

// Watch streams the investor list in List order
func (r *InvestorRepository) Watch(ctx context.Context) (*docstore.Subscription[entities.Investor], error) {
	sub, err := r.coll.Watch(ctx, listInvestorsQuery())
	if err != nil {
		return nil, mapError(err, "investors")
	}
	return sub, nil
}
