package commission

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/domain/services/analytics"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

// PayoutStatusCompleted is the only state a commission payout is written in
const PayoutStatusCompleted = "Completed"

// AuditLogger records commission payouts
type AuditLogger interface {
	LogFinancialEvent(ctx context.Context, actor, action, resourceType, resourceID string, amount decimal.Decimal, metadata map[string]interface{}) error
}

// Service reports platform commission and pays it out
type Service struct {
	tx          repositories.Transactor
	commissions repositories.CommissionRepository
	payouts     repositories.CommissionWithdrawalRepository
	audit       AuditLogger
	logger      *logger.Logger
}

// NewService creates a new commission service
func NewService(
	tx repositories.Transactor,
	commissions repositories.CommissionRepository,
	payouts repositories.CommissionWithdrawalRepository,
	audit AuditLogger,
	logger *logger.Logger,
) *Service {
	return &Service{
		tx:          tx,
		commissions: commissions,
		payouts:     payouts,
		audit:       audit,
		logger:      logger,
	}
}

// List returns every recorded commission, newest first
func (s *Service) List(ctx context.Context) ([]*entities.Commission, error) {
	return s.commissions.List(ctx)
}

// ForWithdrawal returns the commissions written for one withdrawal request
func (s *Service) ForWithdrawal(ctx context.Context, withdrawalID string) ([]*entities.Commission, error) {
	return s.commissions.ListByWithdrawal(ctx, withdrawalID)
}

// Summary totals earned, pending and withdrawn commission
func (s *Service) Summary(ctx context.Context) (*analytics.CommissionTotals, error) {
	commissions, err := s.commissions.List(ctx)
	if err != nil {
		return nil, err
	}
	payouts, err := s.payouts.List(ctx)
	if err != nil {
		return nil, err
	}
	summary := analytics.CommissionSummary(commissions, payouts)
	return &summary, nil
}

// Withdraw pays out earned commission. The amount must be positive and no
// more than what is currently available.
func (s *Service) Withdraw(ctx context.Context, req *entities.CommissionWithdrawalRequest, adminID string) (*entities.CommissionWithdrawal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.Validation("amount", "Please enter a valid amount")
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, apperrors.Validation("method", "Payout method is required")
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, apperrors.Validation("destination", "Payout destination is required")
	}

	var payout *entities.CommissionWithdrawal
	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		summary, err := s.Summary(ctx)
		if err != nil {
			return err
		}
		if amount.GreaterThan(summary.Available) {
			return apperrors.InsufficientFunds("Amount exceeds available commission").
				AddDetail("field", "amount").
				AddDetail("available", summary.Available.String())
		}

		payout, err = s.payouts.Create(ctx, &entities.CommissionWithdrawal{
			Amount:      amount,
			Method:      method,
			Destination: destination,
			RequestedBy: adminID,
			Status:      PayoutStatusCompleted,
		})
		return err
	})
	if err != nil {
		s.logger.CtxWarn(ctx, "Commission withdrawal failed",
			"amount", req.Amount,
			"error", err)
		return nil, err
	}

	if s.audit != nil {
		if err := s.audit.LogFinancialEvent(ctx, adminID, "commission.withdrawn", "commission_withdrawal", payout.ID, amount,
			map[string]interface{}{"method": method}); err != nil {
			s.logger.CtxWarn(ctx, "Failed to record audit event", "error", err)
		}
	}
	s.logger.CtxInfo(ctx, "Commission withdrawn",
		"payout_id", payout.ID,
		"amount", amount.String(),
		"method", method)
	return payout, nil
}

// Withdrawals returns past commission payouts, newest first
func (s *Service) Withdrawals(ctx context.Context) ([]*entities.CommissionWithdrawal, error) {
	return s.payouts.List(ctx)
}
