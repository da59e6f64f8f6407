package repositories

import (
	"context"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

// Transactor runs a unit of work atomically. Repository calls made with the
// context passed to fn join the transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// InvestorRepository defines the interface for investor persistence
type InvestorRepository interface {
	Create(ctx context.Context, investor *entities.Investor) (*entities.Investor, error)
	GetByID(ctx context.Context, id string) (*entities.Investor, error)
	GetByUserID(ctx context.Context, userID string) (*entities.Investor, error)
	List(ctx context.Context) ([]*entities.Investor, error)
	Update(ctx context.Context, id string, fields docstore.Fields) error
	Watch(ctx context.Context) (*docstore.Subscription[entities.Investor], error)
}

// TransactionFilter narrows a transaction listing. Empty fields match everything.
type TransactionFilter struct {
	InvestorID string
	Type       entities.TransactionType
	Status     entities.TransactionStatus
	Limit      int
}

// TransactionRepository defines the interface for ledger transaction persistence
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.Transaction) (*entities.Transaction, error)
	GetByID(ctx context.Context, id string) (*entities.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*entities.Transaction, error)
	Update(ctx context.Context, id string, fields docstore.Fields) error
}

// WithdrawalRepository defines the interface for withdrawal request persistence
type WithdrawalRepository interface {
	Create(ctx context.Context, req *entities.WithdrawalRequest) (*entities.WithdrawalRequest, error)
	GetByID(ctx context.Context, id string) (*entities.WithdrawalRequest, error)
	List(ctx context.Context, status entities.WithdrawalStatus) ([]*entities.WithdrawalRequest, error)
	ListByInvestor(ctx context.Context, investorID string) ([]*entities.WithdrawalRequest, error)
	Update(ctx context.Context, id string, fields docstore.Fields) error
}

// CommissionRepository defines the interface for commission persistence
type CommissionRepository interface {
	Create(ctx context.Context, c *entities.Commission) (*entities.Commission, error)
	List(ctx context.Context) ([]*entities.Commission, error)
	ListByWithdrawal(ctx context.Context, withdrawalID string) ([]*entities.Commission, error)
}

// CommissionWithdrawalRepository defines the interface for commission payouts
type CommissionWithdrawalRepository interface {
	Create(ctx context.Context, w *entities.CommissionWithdrawal) (*entities.CommissionWithdrawal, error)
	List(ctx context.Context) ([]*entities.CommissionWithdrawal, error)
}

// UserRepository defines the interface for identity persistence
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
	Update(ctx context.Context, id string, fields docstore.Fields) error
}
