package investor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/domain/entities"
	domainrepos "github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	"github.com/stack-service/backoffice/internal/infrastructure/repositories"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendDeletionScheduled(ctx context.Context, to, investorName string, scheduledFor time.Time) error {
	args := m.Called(ctx, to, investorName, scheduledFor)
	return args.Error(0)
}

// MockAuditLogger is a mock implementation of AuditLogger
type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) LogEvent(ctx context.Context, actor, action, resourceType, resourceID string, metadata map[string]interface{}) error {
	args := m.Called(ctx, actor, action, resourceType, resourceID, metadata)
	return args.Error(0)
}

func (m *MockAuditLogger) LogFinancialEvent(ctx context.Context, actor, action, resourceType, resourceID string, amount decimal.Decimal, metadata map[string]interface{}) error {
	args := m.Called(ctx, actor, action, resourceType, resourceID, amount, metadata)
	return args.Error(0)
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service      *Service
	transactions *repositories.TransactionRepository
	notifier     *MockNotifier
	audit        *MockAuditLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	zl := zaptest.NewLogger(t)
	store := docstore.NewStore(docstore.NewMemoryBackend(), nil, zl)

	f := &fixture{
		transactions: repositories.NewTransactionRepository(store, zl),
		notifier:     new(MockNotifier),
		audit:        new(MockAuditLogger),
	}
	f.audit.On("LogEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()
	f.audit.On("LogFinancialEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()

	f.service = NewService(store, repositories.NewInvestorRepository(store, zl), f.transactions,
		f.notifier, f.audit, logger.NewLogger(zl))
	f.service.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) create(t *testing.T, deposit int64) *entities.Investor {
	t.Helper()
	inv, err := f.service.Create(context.Background(), &entities.CreateInvestorRequest{
		Name:           "Ada Lovelace",
		Email:          "Ada@Example.com",
		Country:        "UK",
		InitialDeposit: decimal.NewFromInt(deposit),
	}, "admin-1")
	require.NoError(t, err)
	return inv
}

func TestCreate_RecordsInitialDeposit(t *testing.T) {
	f := newFixture(t)

	inv := f.create(t, 10000)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "ada@example.com", inv.Email)
	assert.Equal(t, "10000", inv.CurrentBalance.String())
	assert.Equal(t, "10000", inv.InitialDeposit.String())
	assert.Equal(t, entities.AccountStatusActive, inv.AccountStatus.Kind)
	assert.True(t, inv.IsActive)
	assert.True(t, inv.JoinDate.Equal(testNow))

	txs, err := f.service.Transactions(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entities.TransactionTypeDeposit, txs[0].Type)
	assert.Equal(t, "10000", txs[0].Amount.String())
	assert.Equal(t, entities.TransactionStatusCompleted, txs[0].Status)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		req   entities.CreateInvestorRequest
		field string
	}{
		{"missing name", entities.CreateInvestorRequest{Country: "UK"}, "name"},
		{"missing country", entities.CreateInvestorRequest{Name: "Ada"}, "country"},
		{"negative deposit", entities.CreateInvestorRequest{Name: "Ada", Country: "UK", InitialDeposit: decimal.NewFromInt(-1)}, "initialDeposit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), &tt.req, "admin-1")
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestCreate_ZeroDepositWritesNoLedgerEntry(t *testing.T) {
	f := newFixture(t)

	inv := f.create(t, 0)

	txs, err := f.service.Transactions(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestUpdate_OnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, 1000)
	country := "Kenya"

	updated, err := f.service.Update(context.Background(), inv.ID, &entities.UpdateInvestorRequest{Country: &country}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, "Kenya", updated.Country)
	assert.Equal(t, "Ada Lovelace", updated.Name)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, 1000)
	ctx := context.Background()

	restricted, err := f.service.SetStatus(ctx, inv.ID, entities.AccountStatusRestricted, "pending KYC review", "admin-1")
	require.NoError(t, err)
	assert.True(t, restricted.AccountStatus.IsRestricted())
	assert.Equal(t, "Restricted - pending KYC review", restricted.AccountStatus.String())
	assert.True(t, restricted.IsActive)

	closed, err := f.service.SetStatus(ctx, inv.ID, entities.AccountStatusClosed, "", "admin-1")
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	_, err = f.service.SetStatus(ctx, inv.ID, "Frozen", "", "admin-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestAdjustBalance(t *testing.T) {
	tests := []struct {
		name        string
		kind        entities.BalanceAdjustmentType
		amount      int64
		wantBalance string
		wantDeposit string
		wantType    entities.TransactionType
		wantAmount  string
	}{
		{"earnings", entities.AdjustmentEarnings, 250, "1250", "1000", entities.TransactionTypeEarnings, "250"},
		{"credit", entities.AdjustmentCredit, 100, "1100", "1000", entities.TransactionTypeCredit, "100"},
		{"deposit", entities.AdjustmentDeposit, 500, "1500", "1500", entities.TransactionTypeDeposit, "500"},
		{"debit", entities.AdjustmentDebit, 400, "600", "1000", entities.TransactionTypeWithdrawal, "-400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			inv := f.create(t, 1000)
			ctx := context.Background()

			ledger, err := f.service.AdjustBalance(ctx, inv.ID, &entities.BalanceAdjustmentRequest{
				Type:   tt.kind,
				Amount: decimal.NewFromInt(tt.amount),
			}, "admin-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ledger.Type)
			assert.Equal(t, tt.wantAmount, ledger.Amount.String())

			got, err := f.service.Get(ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, got.CurrentBalance.String())
			assert.Equal(t, tt.wantDeposit, got.InitialDeposit.String())
		})
	}
}

func TestAdjustBalance_Refusals(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, 1000)
	ctx := context.Background()

	_, err := f.service.AdjustBalance(ctx, inv.ID, &entities.BalanceAdjustmentRequest{
		Type: entities.AdjustmentDebit, Amount: decimal.NewFromInt(5000),
	}, "admin-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInsufficientFunds))

	_, err = f.service.AdjustBalance(ctx, inv.ID, &entities.BalanceAdjustmentRequest{
		Type: entities.AdjustmentCredit, Amount: decimal.Zero,
	}, "admin-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	got, err := f.service.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", got.CurrentBalance.String())
}

func TestRequestDeletion_ClosesAndDocuments(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, 2500)
	ctx := context.Background()
	scheduled := testNow.Add(DeletionGracePeriod)
	f.notifier.On("SendDeletionScheduled", mock.Anything, "ada@example.com", "Ada Lovelace", scheduled).Return(nil).Once()

	closed, err := f.service.RequestDeletion(ctx, inv.ID, &entities.DeletionRequestInput{Reason: "client request"}, "admin-1")

	require.NoError(t, err)
	assert.True(t, closed.AccountStatus.IsClosed())
	assert.False(t, closed.IsActive)
	assert.Equal(t, "2500", closed.CurrentBalance.String())
	require.NotNil(t, closed.DeletionRequest)
	assert.Equal(t, "admin-1", closed.DeletionRequest.RequestedBy)
	assert.Equal(t, "2500", closed.DeletionRequest.BalanceSnapshot.String())
	assert.True(t, closed.DeletionRequest.RequestedAt.Equal(testNow))
	assert.True(t, closed.DeletionRequest.ScheduledFor.Equal(scheduled))

	txs, err := f.transactions.List(ctx, domainrepos.TransactionFilter{
		InvestorID: inv.ID,
		Type:       entities.TransactionTypeAccountClosure,
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.IsZero())
	f.notifier.AssertExpectations(t)
}

func TestRequestDeletion_TwiceConflicts(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, 100)
	ctx := context.Background()
	f.notifier.On("SendDeletionScheduled", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	_, err := f.service.RequestDeletion(ctx, inv.ID, nil, "admin-1")
	require.NoError(t, err, "email failures do not fail the request")

	_, err = f.service.RequestDeletion(ctx, inv.ID, nil, "admin-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestTransactions_UnknownInvestor(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Transactions(context.Background(), "missing")

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
