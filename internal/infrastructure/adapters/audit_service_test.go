package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
)

func newTestAuditService(t *testing.T) *AuditService {
	t.Helper()
	zl := zaptest.NewLogger(t)
	store := docstore.NewStore(docstore.NewMemoryBackend(), docstore.NewLocalNotifier(), zl)
	svc := NewAuditService(store, "audit-secret", zl)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		at = at.Add(time.Minute)
		return at
	}
	return svc
}

func TestAuditService_SignsAndVerifiesEvents(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuditService(t)

	require.NoError(t, svc.LogFinancialEvent(ctx, "admin-1", "withdrawal.approve", "withdrawal", "wd-1",
		decimal.RequireFromString("250.00"), map[string]interface{}{"investor_id": "inv-1"}))

	trail, err := svc.ActorTrail(ctx, "admin-1", 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)

	entry := trail[0]
	assert.Equal(t, "success", entry.Status)
	require.NotNil(t, entry.Amount)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("250")))
	assert.NotEmpty(t, entry.Signature)
	assert.True(t, svc.VerifyLogIntegrity(&entry))

	tampered := entry
	tampered.ResourceID = "wd-2"
	assert.False(t, svc.VerifyLogIntegrity(&tampered))
}

func TestAuditService_ActorTrailNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuditService(t)

	require.NoError(t, svc.LogEvent(ctx, "admin-1", "investor.create", "investor", "inv-1", nil))
	require.NoError(t, svc.LogFailedAction(ctx, "admin-1", "withdrawal.approve", "withdrawal", errors.New("already rejected")))
	require.NoError(t, svc.LogEvent(ctx, "admin-2", "investor.update", "investor", "inv-1", nil))

	trail, err := svc.ActorTrail(ctx, "admin-1", 10)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "withdrawal.approve", trail[0].Action)
	assert.Equal(t, "failed", trail[0].Status)
	assert.Equal(t, "already rejected", trail[0].ErrorMessage)
	assert.Equal(t, "investor.create", trail[1].Action)

	limited, err := svc.ActorTrail(ctx, "admin-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
