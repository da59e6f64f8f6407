package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/domain/entities"
	domainrepos "github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
)

func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	return docstore.NewStore(docstore.NewMemoryBackend(), docstore.NewLocalNotifier(), zaptest.NewLogger(t))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "investor"))
	assert.True(t, apperrors.IsCode(mapError(docstore.ErrNotFound, "investor"), apperrors.ErrCodeNotFound))
	assert.True(t, apperrors.IsCode(mapError(docstore.ErrAlreadyExists, "user"), apperrors.ErrCodeConflict))

	denied := mapError(fmt.Errorf("query: %w", docstore.ErrPermissionDenied), "investors")
	appErr, ok := apperrors.As(denied)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodePermissionDenied, appErr.Code)
	assert.Contains(t, appErr.Message, "grants")

	passthrough := apperrors.Validation("amount", "bad")
	assert.Equal(t, passthrough, mapError(passthrough, "withdrawal"))

	other := mapError(errors.New("socket closed"), "investor")
	assert.True(t, apperrors.IsCode(other, apperrors.ErrCodeInternal))
}

func TestInvestorRepository_LookupsAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestorRepository(newTestStore(t), zaptest.NewLogger(t))

	older, err := repo.Create(ctx, &entities.Investor{Name: "Ada", Country: "UK", JoinDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NotEmpty(t, older.ID)
	newer, err := repo.Create(ctx, &entities.Investor{Name: "Grace", Country: "US", JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), UserID: "user-1"})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	linked, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Grace", linked.Name)

	_, err = repo.GetByUserID(ctx, "user-2")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	require.NoError(t, repo.Update(ctx, older.ID, docstore.Fields{"country": "FR"}))
	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "FR", got.Country)

	err = repo.Update(ctx, "missing", docstore.Fields{"country": "FR"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestTransactionRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(newTestStore(t), zaptest.NewLogger(t))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []entities.Transaction{
		{InvestorID: "inv-1", Type: entities.TransactionTypeDeposit, Amount: decimal.NewFromInt(1000), Status: entities.TransactionStatusCompleted, Date: base},
		{InvestorID: "inv-1", Type: entities.TransactionTypeWithdrawal, Amount: decimal.NewFromInt(-200), Status: entities.TransactionStatusPending, Date: base.Add(time.Hour)},
		{InvestorID: "inv-2", Type: entities.TransactionTypeDeposit, Amount: decimal.NewFromInt(50), Status: entities.TransactionStatusCompleted, Date: base.Add(2 * time.Hour)},
	}
	for i := range entries {
		_, err := repo.Create(ctx, &entries[i])
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, domainrepos.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "inv-2", all[0].InvestorID)

	mine, err := repo.List(ctx, domainrepos.TransactionFilter{InvestorID: "inv-1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, entities.TransactionTypeWithdrawal, mine[0].Type)

	deposits, err := repo.List(ctx, domainrepos.TransactionFilter{Type: entities.TransactionTypeDeposit, Status: entities.TransactionStatusCompleted, Limit: 1})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, "inv-2", deposits[0].InvestorID)
}

func TestUserRepository_CaseInsensitiveEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestStore(t), zaptest.NewLogger(t))

	created, err := repo.Create(ctx, &entities.User{Email: "Ada@Example.com", Role: entities.RoleInvestor})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)

	found, err := repo.GetByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByEmail(ctx, "grace@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
