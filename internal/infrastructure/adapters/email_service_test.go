package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/domain/entities"
)

func TestNewEmailService_MockMode(t *testing.T) {
	zl := zaptest.NewLogger(t)

	dev := NewEmailService(zl, EmailServiceConfig{APIKey: "key", Environment: "development"})
	assert.True(t, dev.mockMode)
	assert.Nil(t, dev.client)

	noKey := NewEmailService(zl, EmailServiceConfig{Environment: "production"})
	assert.True(t, noKey.mockMode)

	live := NewEmailService(zl, EmailServiceConfig{APIKey: "key", Environment: "production"})
	assert.False(t, live.mockMode)
	assert.NotNil(t, live.client)
}

func TestEmailService_SendWithdrawalDecision(t *testing.T) {
	ctx := context.Background()
	svc := NewEmailService(zaptest.NewLogger(t), EmailServiceConfig{Environment: "development", BaseURL: "http://portal"})

	req := &entities.WithdrawalRequest{
		ID:               "wd-1",
		Amount:           decimal.RequireFromString("500"),
		CommissionAmount: decimal.RequireFromString("75"),
		NetAmount:        decimal.RequireFromString("425"),
		Destination:      "bank ****1234",
	}

	req.Status = entities.WithdrawalStatusApproved
	assert.NoError(t, svc.SendWithdrawalDecision(ctx, "ada@example.com", "Ada", req))

	req.Status = entities.WithdrawalStatusRejected
	req.Reason = "missing documents"
	assert.NoError(t, svc.SendWithdrawalDecision(ctx, "ada@example.com", "Ada", req))

	req.Status = entities.WithdrawalStatusPending
	assert.Error(t, svc.SendWithdrawalDecision(ctx, "ada@example.com", "Ada", req))
}

func TestEmailService_SendDeletionScheduled(t *testing.T) {
	svc := NewEmailService(zaptest.NewLogger(t), EmailServiceConfig{})
	err := svc.SendDeletionScheduled(context.Background(), "ada@example.com", "Ada", time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1234.50", formatUSD(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", formatUSD(decimal.Zero))
}

func TestRetryableSend(t *testing.T) {
	assert.True(t, retryableSend(&sendStatusError{StatusCode: 429}))
	assert.True(t, retryableSend(&sendStatusError{StatusCode: 503}))
	assert.False(t, retryableSend(&sendStatusError{StatusCode: 401, Body: "bad key"}))
	assert.True(t, retryableSend(errors.New("dial tcp: connection refused")))
	assert.False(t, retryableSend(errors.New("malformed message")))
}
