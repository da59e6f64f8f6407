package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/infrastructure/config"
	"github.com/stack-service/backoffice/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Database:    config.DatabaseConfig{Driver: config.DriverMemory},
		JWT:         config.JWTConfig{Secret: "jwt-secret", AccessTTL: 3600, Issuer: "backoffice"},
		Auth:        config.AuthConfig{PasswordMinLength: 8, AllowSignup: true},
		Withdrawal: config.WithdrawalConfig{
			CommissionRate:         "15",
			MinimumAmount:          "100",
			CommissionAtSubmission: true,
			CommissionAtApproval:   true,
		},
		Analytics: config.AnalyticsConfig{TopCountries: 5, TopPerformers: 5},
		Email:     config.EmailConfig{Environment: "development"},
	}
}

func TestNewContainer_Memory(t *testing.T) {
	log := logger.NewLogger(zaptest.NewLogger(t))

	c, err := NewContainer(context.Background(), memoryConfig(), nil, log)
	require.NoError(t, err)
	defer c.Close(context.Background())

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.WithdrawalService)
	assert.NotNil(t, c.AnalyticsService)
	assert.NotNil(t, c.InvestorService)
	assert.NotNil(t, c.CommissionService)
	assert.NotNil(t, c.IdentityService)
	assert.Nil(t, c.RedisClient)
	assert.Equal(t, "15", c.WithdrawalService.Policy().CommissionRate.String())
	assert.True(t, c.Health.IsHealthy(context.Background()))
}

func TestNewContainer_PostgresNeedsConnection(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = config.DriverPostgres

	_, err := NewContainer(context.Background(), cfg, nil, logger.NewLogger(zaptest.NewLogger(t)))
	assert.Error(t, err)
}

func TestNewContainer_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"

	_, err := NewContainer(context.Background(), cfg, nil, logger.NewLogger(zaptest.NewLogger(t)))
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestWithdrawalPolicy(t *testing.T) {
	policy, err := withdrawalPolicy(config.WithdrawalConfig{
		CommissionRate:         "10",
		MinimumAmount:          "250.50",
		RestoreBalanceOnReject: true,
		SettleLedgerOnDecision: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "10", policy.CommissionRate.String())
	assert.Equal(t, "250.5", policy.MinimumAmount.String())
	assert.False(t, policy.CommissionAtSubmission)
	assert.False(t, policy.CommissionAtApproval)
	assert.True(t, policy.RestoreBalanceOnReject)
	assert.True(t, policy.SettleLedgerOnDecision)

	_, err = withdrawalPolicy(config.WithdrawalConfig{CommissionRate: "fifteen"})
	assert.ErrorContains(t, err, "commission_rate")
}
