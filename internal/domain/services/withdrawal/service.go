package withdrawal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
	"github.com/stack-service/backoffice/pkg/metrics"
)

// Notifier delivers decision notices to investors
type Notifier interface {
	SendWithdrawalDecision(ctx context.Context, to, investorName string, req *entities.WithdrawalRequest) error
}

// AuditLogger records money-moving actions
type AuditLogger interface {
	LogFinancialEvent(ctx context.Context, actor, action, resourceType, resourceID string, amount decimal.Decimal, metadata map[string]interface{}) error
}

// Service runs the withdrawal lifecycle: submission, admin decision and listing
type Service struct {
	tx           repositories.Transactor
	investors    repositories.InvestorRepository
	transactions repositories.TransactionRepository
	withdrawals  repositories.WithdrawalRepository
	commissions  repositories.CommissionRepository
	notifier     Notifier
	audit        AuditLogger
	policy       Policy
	logger       *logger.Logger
	now          func() time.Time
}

// NewService creates a new withdrawal service
func NewService(
	tx repositories.Transactor,
	investors repositories.InvestorRepository,
	transactions repositories.TransactionRepository,
	withdrawals repositories.WithdrawalRepository,
	commissions repositories.CommissionRepository,
	notifier Notifier,
	audit AuditLogger,
	policy Policy,
	logger *logger.Logger,
) *Service {
	return &Service{
		tx:           tx,
		investors:    investors,
		transactions: transactions,
		withdrawals:  withdrawals,
		commissions:  commissions,
		notifier:     notifier,
		audit:        audit,
		policy:       policy,
		logger:       logger,
		now:          time.Now,
	}
}

// Policy returns the rules the service enforces
func (s *Service) Policy() Policy {
	return s.policy
}

// Submit validates a withdrawal form and, in one transaction, debits the
// balance and records the request, its ledger entry and the commission.
func (s *Service) Submit(ctx context.Context, investorID string, req *entities.SubmitWithdrawalRequest) (*entities.SubmitWithdrawalResponse, error) {
	investor, err := s.investors.GetByID(ctx, investorID)
	if err != nil {
		return nil, err
	}

	amount, verr := ValidateSubmission(investor, req, s.policy)
	if verr != nil {
		metrics.RecordWithdrawalInvalid(string(verr.Code))
		s.logger.CtxInfo(ctx, "Withdrawal submission refused",
			"investor_id", investorID,
			"code", verr.Code,
			"amount", req.Amount)
		return nil, verr
	}

	commission, net := CalculateCommission(amount, s.policy.CommissionRate)
	resp := &entities.SubmitWithdrawalResponse{
		CommissionAmount: commission,
		NetAmount:        net,
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		// Re-read under the transaction so concurrent submissions cannot overdraw.
		current, err := s.investors.GetByID(ctx, investorID)
		if err != nil {
			return err
		}
		if _, verr := ValidateSubmission(current, req, s.policy); verr != nil {
			return verr
		}

		newBalance := current.CurrentBalance.Sub(amount)
		if err := s.investors.Update(ctx, investorID, docstore.Fields{"currentBalance": newBalance}); err != nil {
			return err
		}

		requestID := uuid.NewString()
		txID := uuid.NewString()

		request, err := s.withdrawals.Create(ctx, &entities.WithdrawalRequest{
			ID:               requestID,
			InvestorID:       investorID,
			InvestorName:     current.Name,
			Amount:           amount,
			CommissionAmount: commission,
			NetAmount:        net,
			Method:           req.Method,
			Destination:      Destination(req),
			Status:           entities.WithdrawalStatusPending,
			TransactionID:    txID,
		})
		if err != nil {
			return err
		}

		status := entities.TransactionStatusPending
		if current.AccountStatus.IsRestricted() {
			status = entities.TransactionStatusPendingReview
		}
		ledger, err := s.transactions.Create(ctx, &entities.Transaction{
			ID:          txID,
			InvestorID:  investorID,
			Type:        entities.TransactionTypeWithdrawal,
			Amount:      amount.Neg(),
			Date:        s.now().UTC(),
			Status:      status,
			Description: "Withdrawal request via " + string(req.Method),
		})
		if err != nil {
			return err
		}

		if s.policy.CommissionAtSubmission {
			fee, err := s.commissions.Create(ctx, &entities.Commission{
				InvestorID:       investorID,
				InvestorName:     current.Name,
				WithdrawalID:     requestID,
				WithdrawalAmount: amount,
				CommissionRate:   s.policy.CommissionRate,
				CommissionAmount: commission,
				Status:           entities.CommissionStatusEarned,
				Source:           entities.CommissionSourceSubmission,
			})
			if err != nil {
				return err
			}
			resp.Commission = fee
		}

		resp.Request = request
		resp.Transaction = ledger
		resp.NewBalance = newBalance
		return nil
	})
	if err != nil {
		s.logger.CtxError(ctx, "Withdrawal submission failed",
			"investor_id", investorID,
			"error", err)
		return nil, err
	}

	metrics.RecordWithdrawalSubmitted(string(req.Method), amount.InexactFloat64())
	if resp.Commission != nil {
		metrics.RecordCommission(string(entities.CommissionSourceSubmission), commission.InexactFloat64())
	}
	s.recordAudit(ctx, investorID, "withdrawal.submitted", resp.Request)

	s.logger.CtxInfo(ctx, "Withdrawal request submitted",
		"withdrawal_id", resp.Request.ID,
		"investor_id", investorID,
		"amount", amount.String(),
		"commission", commission.String(),
		"transaction_status", resp.Transaction.Status)

	return resp, nil
}

// Approve accepts a pending request
func (s *Service) Approve(ctx context.Context, requestID, reason, adminID string) (*entities.WithdrawalRequest, error) {
	return s.Decide(ctx, requestID, entities.DecisionApprove, reason, adminID)
}

// Reject declines a pending request
func (s *Service) Reject(ctx context.Context, requestID, reason, adminID string) (*entities.WithdrawalRequest, error) {
	return s.Decide(ctx, requestID, entities.DecisionReject, reason, adminID)
}

// Decide moves a Pending request to Approved or Rejected. Both states are
// terminal; deciding twice returns a conflict.
func (s *Service) Decide(ctx context.Context, requestID string, decision entities.WithdrawalDecision, reason, adminID string) (*entities.WithdrawalRequest, error) {
	var status entities.WithdrawalStatus
	switch decision {
	case entities.DecisionApprove:
		status = entities.WithdrawalStatusApproved
	case entities.DecisionReject:
		status = entities.WithdrawalStatusRejected
	default:
		return nil, apperrors.Validation("decision", "Decision must be Approve or Reject")
	}

	var approvalFee *entities.Commission
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		approvalFee = nil

		req, err := s.withdrawals.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != entities.WithdrawalStatusPending {
			return apperrors.Conflict("This withdrawal request has already been processed").
				AddDetail("status", string(req.Status))
		}

		fields := docstore.Fields{
			"status":      string(status),
			"processedBy": adminID,
			"processedAt": docstore.ServerTimestamp,
		}
		if reason != "" {
			fields["reason"] = reason
		}
		if err := s.withdrawals.Update(ctx, requestID, fields); err != nil {
			return err
		}

		if s.policy.SettleLedgerOnDecision && req.TransactionID != "" {
			txStatus := entities.TransactionStatusCompleted
			if status == entities.WithdrawalStatusRejected {
				txStatus = entities.TransactionStatusRejected
			}
			if err := s.transactions.Update(ctx, req.TransactionID, docstore.Fields{"status": string(txStatus)}); err != nil {
				return err
			}
		}

		switch status {
		case entities.WithdrawalStatusApproved:
			if !s.policy.CommissionAtApproval {
				return nil
			}
			approved, err := s.withdrawals.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			fee, _ := CalculateCommission(approved.Amount, s.policy.CommissionRate)
			approvalFee, err = s.commissions.Create(ctx, &entities.Commission{
				InvestorID:       approved.InvestorID,
				InvestorName:     approved.InvestorName,
				WithdrawalID:     approved.ID,
				WithdrawalAmount: approved.Amount,
				CommissionRate:   s.policy.CommissionRate,
				CommissionAmount: fee,
				Status:           entities.CommissionStatusEarned,
				Source:           entities.CommissionSourceApproval,
			})
			return err

		case entities.WithdrawalStatusRejected:
			if !s.policy.RestoreBalanceOnReject {
				return nil
			}
			return s.refund(ctx, req)
		}
		return nil
	})
	if err != nil {
		s.logger.CtxWarn(ctx, "Withdrawal decision failed",
			"withdrawal_id", requestID,
			"decision", decision,
			"error", err)
		return nil, err
	}

	decided, err := s.withdrawals.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalDecision(string(decision))
	if approvalFee != nil {
		metrics.RecordCommission(string(entities.CommissionSourceApproval), approvalFee.CommissionAmount.InexactFloat64())
	}
	s.recordAudit(ctx, adminID, "withdrawal."+string(status), decided)
	s.notifyInvestor(ctx, decided)

	s.logger.CtxInfo(ctx, "Withdrawal request decided",
		"withdrawal_id", requestID,
		"status", status,
		"processed_by", adminID)

	return decided, nil
}

// refund returns a rejected amount to the investor with a Credit entry
func (s *Service) refund(ctx context.Context, req *entities.WithdrawalRequest) error {
	investor, err := s.investors.GetByID(ctx, req.InvestorID)
	if err != nil {
		return err
	}
	balance := investor.CurrentBalance.Add(req.Amount)
	if err := s.investors.Update(ctx, investor.ID, docstore.Fields{"currentBalance": balance}); err != nil {
		return err
	}
	_, err = s.transactions.Create(ctx, &entities.Transaction{
		InvestorID:  investor.ID,
		Type:        entities.TransactionTypeCredit,
		Amount:      req.Amount,
		Date:        s.now().UTC(),
		Status:      entities.TransactionStatusCompleted,
		Description: "Refund for rejected withdrawal " + req.ID,
	})
	return err
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, req *entities.WithdrawalRequest) {
	if s.audit == nil || req == nil {
		return
	}
	err := s.audit.LogFinancialEvent(ctx, actor, action, "withdrawal_request", req.ID, req.Amount, map[string]interface{}{
		"investor_id": req.InvestorID,
		"status":      string(req.Status),
		"method":      string(req.Method),
	})
	if err != nil {
		s.logger.CtxWarn(ctx, "Failed to record audit event", "action", action, "error", err)
	}
}

// notifyInvestor is best effort; a failed email never undoes a decision
func (s *Service) notifyInvestor(ctx context.Context, req *entities.WithdrawalRequest) {
	if s.notifier == nil {
		return
	}
	investor, err := s.investors.GetByID(ctx, req.InvestorID)
	if err != nil || investor.Email == "" {
		return
	}
	if err := s.notifier.SendWithdrawalDecision(ctx, investor.Email, investor.Name, req); err != nil {
		s.logger.CtxWarn(ctx, "Failed to send withdrawal decision email",
			"withdrawal_id", req.ID,
			"error", err)
	}
}

// Get returns one withdrawal request
func (s *Service) Get(ctx context.Context, requestID string) (*entities.WithdrawalRequest, error) {
	return s.withdrawals.GetByID(ctx, requestID)
}

// List returns requests newest first; an empty status returns all of them
func (s *Service) List(ctx context.Context, status entities.WithdrawalStatus) ([]*entities.WithdrawalRequest, error) {
	switch status {
	case "", entities.WithdrawalStatusPending, entities.WithdrawalStatusApproved, entities.WithdrawalStatusRejected:
	default:
		return nil, apperrors.Validation("status", "Unknown withdrawal status")
	}
	return s.withdrawals.List(ctx, status)
}

// ListForInvestor returns one investor's requests newest first
func (s *Service) ListForInvestor(ctx context.Context, investorID string) ([]*entities.WithdrawalRequest, error) {
	return s.withdrawals.ListByInvestor(ctx, investorID)
}
