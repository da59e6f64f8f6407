package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/domain/services/analytics"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

type mockWithdrawalService struct {
	mock.Mock
}

func (m *mockWithdrawalService) Submit(ctx context.Context, investorID string, req *entities.SubmitWithdrawalRequest) (*entities.SubmitWithdrawalResponse, error) {
	args := m.Called(ctx, investorID, req)
	resp, _ := args.Get(0).(*entities.SubmitWithdrawalResponse)
	return resp, args.Error(1)
}

func (m *mockWithdrawalService) Approve(ctx context.Context, requestID, reason, adminID string) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID, reason, adminID)
	req, _ := args.Get(0).(*entities.WithdrawalRequest)
	return req, args.Error(1)
}

func (m *mockWithdrawalService) Reject(ctx context.Context, requestID, reason, adminID string) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID, reason, adminID)
	req, _ := args.Get(0).(*entities.WithdrawalRequest)
	return req, args.Error(1)
}

func (m *mockWithdrawalService) Get(ctx context.Context, requestID string) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID)
	req, _ := args.Get(0).(*entities.WithdrawalRequest)
	return req, args.Error(1)
}

func (m *mockWithdrawalService) List(ctx context.Context, status entities.WithdrawalStatus) ([]*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, status)
	reqs, _ := args.Get(0).([]*entities.WithdrawalRequest)
	return reqs, args.Error(1)
}

func (m *mockWithdrawalService) ListForInvestor(ctx context.Context, investorID string) ([]*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, investorID)
	reqs, _ := args.Get(0).([]*entities.WithdrawalRequest)
	return reqs, args.Error(1)
}

type stubInvestorLookup struct {
	investor *entities.Investor
}

func (s stubInvestorLookup) GetByUser(_ context.Context, _ string) (*entities.Investor, error) {
	if s.investor == nil {
		return nil, apperrors.NotFound("investor")
	}
	return s.investor, nil
}

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func TestWithdrawalHandlers_RejectPassesReasonAndAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockWithdrawalService)
	h := NewWithdrawalHandlers(svc, stubInvestorLookup{}, logger.NewLogger(zaptest.NewLogger(t)))

	svc.On("Reject", mock.Anything, "wr-1", "documents missing", "admin-1").
		Return(&entities.WithdrawalRequest{ID: "wr-1", Status: entities.WithdrawalStatusRejected}, nil)

	r := gin.New()
	r.POST("/withdrawals/:id/reject", withUser("admin-1"), h.Reject)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/withdrawals/wr-1/reject", strings.NewReader(`{"reason":"documents missing"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"Rejected"`)
	svc.AssertExpectations(t)
}

func TestWithdrawalHandlers_ListUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockWithdrawalService)
	h := NewWithdrawalHandlers(svc, stubInvestorLookup{}, logger.NewLogger(zaptest.NewLogger(t)))

	svc.On("List", mock.Anything, entities.WithdrawalStatus("Lost")).
		Return(nil, apperrors.Validation("status", "Unknown withdrawal status"))

	r := gin.New()
	r.GET("/withdrawals", h.List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals?status=Lost", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawalHandlers_SubmitOwnWithoutProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockWithdrawalService)
	h := NewWithdrawalHandlers(svc, stubInvestorLookup{}, logger.NewLogger(zaptest.NewLogger(t)))

	r := gin.New()
	r.POST("/me/withdrawals", withUser("u-1"), h.SubmitOwn)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/me/withdrawals", strings.NewReader(`{"amount":"200","method":"bank"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

type stubAnalytics struct{}

func (stubAnalytics) Dashboard(context.Context) (*analytics.Dashboard, error) {
	return &analytics.Dashboard{}, nil
}

func (stubAnalytics) PerformanceReport(context.Context) (*analytics.PerformanceReport, error) {
	return &analytics.PerformanceReport{Investors: []analytics.InvestorPerformance{{ID: "inv-1", Name: "Alice"}}}, nil
}

type stubTransactions struct {
	filter repositories.TransactionFilter
}

func (s *stubTransactions) AllTransactions(_ context.Context, filter repositories.TransactionFilter) ([]*entities.Transaction, error) {
	s.filter = filter
	return []*entities.Transaction{{
		ID:          "tx-1",
		InvestorID:  "inv-1",
		Type:        entities.TransactionTypeDeposit,
		Amount:      decimal.NewFromInt(1000),
		Status:      entities.TransactionStatusCompleted,
		Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Description: "Initial deposit",
	}}, nil
}

func TestAnalyticsHandlers_TransactionsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	txs := &stubTransactions{}
	h := NewAnalyticsHandlers(stubAnalytics{}, txs, logger.NewLogger(zaptest.NewLogger(t)))
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.GET("/exports/transactions.csv", h.TransactionsCSV)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/transactions.csv?type=Deposit", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="transactions-2024-03-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, entities.TransactionTypeDeposit, txs.filter.Type)
	assert.Equal(t,
		"id,investorId,type,amount,status,date,description\n"+
			"tx-1,inv-1,Deposit,1000.00,Completed,2024-03-01T12:00:00Z,Initial deposit\n",
		w.Body.String())
}

func TestAnalyticsHandlers_PerformanceReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAnalyticsHandlers(stubAnalytics{}, &stubTransactions{}, logger.NewLogger(zaptest.NewLogger(t)))
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.GET("/exports/performance-report", h.PerformanceReport)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/performance-report", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="performance-report-2024-03-01.json"`, w.Header().Get("Content-Disposition"))

	var report analytics.PerformanceReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Investors, 1)
	assert.Equal(t, "Alice", report.Investors[0].Name)
}
