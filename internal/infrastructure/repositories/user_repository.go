package repositories

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

const UsersCollection = "users"

// UserRepository stores identities in the users collection
type UserRepository struct {
	coll   *docstore.Collection[entities.User]
	logger *zap.Logger
}

func NewUserRepository(store *docstore.Store, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		coll:   docstore.NewCollection[entities.User](store, UsersCollection),
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	user.Email = strings.ToLower(user.Email)
	created, err := r.coll.Create(ctx, user)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return nil, mapError(err, "user")
	}
	r.logger.Debug("User created successfully", zap.String("user_id", created.ID))
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	user, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

// GetByEmail looks a user up by case-insensitive email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	q := docstore.Query{}.Where("email", docstore.OpEq, strings.ToLower(email)).WithLimit(1)
	items, err := r.coll.Find(ctx, q)
	if err != nil {
		return nil, mapError(err, "user")
	}
	if len(items) == 0 {
		return nil, mapError(docstore.ErrNotFound, "user")
	}
	return &items[0], nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	items, err := r.coll.Find(ctx, docstore.Query{}.OrderByField(docstore.FieldCreatedAt, false))
	if err != nil {
		return nil, mapError(err, "users")
	}
	return toPointers(items), nil
}

func (r *UserRepository) Update(ctx context.Context, id string, fields docstore.Fields) error {
	if err := r.coll.Update(ctx, id, fields); err != nil {
		return mapError(err, "user")
	}
	return nil
}
