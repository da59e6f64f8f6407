package investor

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
	"github.com/stack-service/backoffice/pkg/sanitize"
)

// DeletionGracePeriod is the delay announced to investors before removal.
// Nothing enforces it.
const DeletionGracePeriod = 90 * 24 * time.Hour

// Notifier tells investors about account changes
type Notifier interface {
	SendDeletionScheduled(ctx context.Context, to, investorName string, scheduledFor time.Time) error
}

// AuditLogger records admin actions on investor accounts
type AuditLogger interface {
	LogEvent(ctx context.Context, actor, action, resourceType, resourceID string, metadata map[string]interface{}) error
	LogFinancialEvent(ctx context.Context, actor, action, resourceType, resourceID string, amount decimal.Decimal, metadata map[string]interface{}) error
}

// Service manages investor accounts and their ledger
type Service struct {
	tx           repositories.Transactor
	investors    repositories.InvestorRepository
	transactions repositories.TransactionRepository
	notifier     Notifier
	audit        AuditLogger
	logger       *logger.Logger
	now          func() time.Time
}

// NewService creates a new investor service
func NewService(
	tx repositories.Transactor,
	investors repositories.InvestorRepository,
	transactions repositories.TransactionRepository,
	notifier Notifier,
	audit AuditLogger,
	logger *logger.Logger,
) *Service {
	return &Service{
		tx:           tx,
		investors:    investors,
		transactions: transactions,
		notifier:     notifier,
		audit:        audit,
		logger:       logger,
		now:          time.Now,
	}
}

// Create opens an account. The initial deposit becomes the current balance
// and is recorded as a completed Deposit.
func (s *Service) Create(ctx context.Context, req *entities.CreateInvestorRequest, adminID string) (*entities.Investor, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "Name is required")
	}
	country := strings.TrimSpace(req.Country)
	if country == "" {
		return nil, apperrors.Validation("country", "Country is required")
	}
	if req.InitialDeposit.IsNegative() {
		return nil, apperrors.Validation("initialDeposit", "Initial deposit cannot be negative")
	}

	joined := s.now().UTC()
	if req.JoinDate != nil && !req.JoinDate.IsZero() {
		joined = req.JoinDate.UTC()
	}

	var created *entities.Investor
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.investors.Create(ctx, &entities.Investor{
			Name:           name,
			Email:          sanitize.Email(req.Email),
			Phone:          req.Phone,
			Country:        country,
			JoinDate:       joined,
			InitialDeposit: req.InitialDeposit,
			CurrentBalance: req.InitialDeposit,
			AccountStatus:  entities.ActiveStatus(),
			IsActive:       true,
			BankDetails:    req.BankDetails,
			TradingData:    req.TradingData,
		})
		if err != nil {
			return err
		}
		if !req.InitialDeposit.IsPositive() {
			return nil
		}
		_, err = s.transactions.Create(ctx, &entities.Transaction{
			InvestorID:  created.ID,
			Type:        entities.TransactionTypeDeposit,
			Amount:      req.InitialDeposit,
			Date:        joined,
			Status:      entities.TransactionStatusCompleted,
			Description: "Initial deposit",
		})
		return err
	})
	if err != nil {
		s.logger.CtxError(ctx, "Failed to create investor", "name", name, "error", err)
		return nil, err
	}

	s.recordFinancial(ctx, adminID, "investor.created", created.ID, req.InitialDeposit, nil)
	s.logger.CtxInfo(ctx, "Investor created",
		"investor_id", created.ID,
		"country", country,
		"initial_deposit", req.InitialDeposit.String())
	return created, nil
}

// Get returns one investor
func (s *Service) Get(ctx context.Context, id string) (*entities.Investor, error) {
	return s.investors.GetByID(ctx, id)
}

// GetByUser returns the investor linked to a user account
func (s *Service) GetByUser(ctx context.Context, userID string) (*entities.Investor, error) {
	return s.investors.GetByUserID(ctx, userID)
}

// List returns all investors, newest first
func (s *Service) List(ctx context.Context) ([]*entities.Investor, error) {
	return s.investors.List(ctx)
}

// Update changes the profile fields present in req
func (s *Service) Update(ctx context.Context, id string, req *entities.UpdateInvestorRequest, adminID string) (*entities.Investor, error) {
	fields := docstore.Fields{}
	if req.Name != nil {
		name := sanitize.Name(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "Name cannot be empty")
		}
		fields["name"] = name
	}
	if req.Email != nil {
		fields["email"] = sanitize.Email(*req.Email)
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Country != nil {
		country := strings.TrimSpace(*req.Country)
		if country == "" {
			return nil, apperrors.Validation("country", "Country cannot be empty")
		}
		fields["country"] = country
	}
	if req.BankDetails != nil {
		fields["bankDetails"] = req.BankDetails
	}
	if req.TradingData != nil {
		fields["tradingData"] = req.TradingData
	}
	if len(fields) == 0 {
		return s.investors.GetByID(ctx, id)
	}

	if err := s.investors.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	s.record(ctx, adminID, "investor.updated", id, map[string]interface{}{"fields": fieldNames(fields)})
	return s.investors.GetByID(ctx, id)
}

// SetStatus changes the account status. Closed accounts are also marked inactive.
func (s *Service) SetStatus(ctx context.Context, id string, kind entities.AccountStatusKind, detail, adminID string) (*entities.Investor, error) {
	if !kind.IsValid() {
		return nil, apperrors.Validation("kind", "Status must be Active, Restricted or Closed")
	}
	status := entities.AccountStatus{Kind: kind, Detail: strings.TrimSpace(detail)}

	if err := s.investors.Update(ctx, id, docstore.Fields{
		"accountStatus": status,
		"isActive":      kind != entities.AccountStatusClosed,
	}); err != nil {
		return nil, err
	}

	s.record(ctx, adminID, "investor.status_changed", id, map[string]interface{}{"status": status.String()})
	s.logger.CtxInfo(ctx, "Investor status changed", "investor_id", id, "status", status.String())
	return s.investors.GetByID(ctx, id)
}

var adjustmentTypes = map[entities.BalanceAdjustmentType]entities.TransactionType{
	entities.AdjustmentDeposit:  entities.TransactionTypeDeposit,
	entities.AdjustmentCredit:   entities.TransactionTypeCredit,
	entities.AdjustmentEarnings: entities.TransactionTypeEarnings,
	entities.AdjustmentDebit:    entities.TransactionTypeWithdrawal,
}

// AdjustBalance credits or debits the balance and writes the matching ledger
// entry in one transaction. Deposits also raise the initial deposit.
func (s *Service) AdjustBalance(ctx context.Context, id string, req *entities.BalanceAdjustmentRequest, adminID string) (*entities.Transaction, error) {
	txType, ok := adjustmentTypes[req.Type]
	if !ok {
		return nil, apperrors.Validation("type", "Type must be Deposit, Credit, Earnings or Debit")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.Validation("amount", "Amount must be greater than zero")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Balance adjustment: " + string(req.Type)
	}

	var ledger *entities.Transaction
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.investors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv.AccountStatus.IsClosed() {
			return apperrors.New(apperrors.ErrCodeAccountClosed, "This account is closed")
		}

		amount := req.Amount
		fields := docstore.Fields{}
		if req.Type == entities.AdjustmentDebit {
			if amount.GreaterThan(inv.CurrentBalance) {
				return apperrors.InsufficientFunds("Debit exceeds the available balance").
					AddDetail("available", inv.CurrentBalance.String())
			}
			amount = amount.Neg()
		}
		if req.Type == entities.AdjustmentDeposit {
			fields["initialDeposit"] = inv.InitialDeposit.Add(amount)
		}
		fields["currentBalance"] = inv.CurrentBalance.Add(amount)

		if err := s.investors.Update(ctx, id, fields); err != nil {
			return err
		}
		ledger, err = s.transactions.Create(ctx, &entities.Transaction{
			InvestorID:  id,
			Type:        txType,
			Amount:      amount,
			Date:        s.now().UTC(),
			Status:      entities.TransactionStatusCompleted,
			Description: description,
		})
		return err
	})
	if err != nil {
		s.logger.CtxWarn(ctx, "Balance adjustment failed",
			"investor_id", id,
			"type", req.Type,
			"error", err)
		return nil, err
	}

	s.recordFinancial(ctx, adminID, "investor.balance_adjusted", id, ledger.Amount, map[string]interface{}{"type": string(req.Type)})
	s.logger.CtxInfo(ctx, "Investor balance adjusted",
		"investor_id", id,
		"type", req.Type,
		"amount", ledger.Amount.String())
	return ledger, nil
}

// RequestDeletion closes the account and records the request with a
// zero-amount ledger entry. The balance is left untouched.
func (s *Service) RequestDeletion(ctx context.Context, id string, input *entities.DeletionRequestInput, adminID string) (*entities.Investor, error) {
	requestedAt := s.now().UTC()
	scheduledFor := requestedAt.Add(DeletionGracePeriod)
	reason := ""
	if input != nil {
		reason = strings.TrimSpace(input.Reason)
	}

	var snapshot decimal.Decimal
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.investors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv.DeletionRequest != nil {
			return apperrors.Conflict("A deletion request already exists for this account")
		}
		snapshot = inv.CurrentBalance

		if err := s.investors.Update(ctx, id, docstore.Fields{
			"accountStatus": entities.AccountStatus{Kind: entities.AccountStatusClosed, Detail: "Account closure requested"},
			"isActive":      false,
			"deletionRequest": entities.DeletionRequest{
				RequestedBy:     adminID,
				RequestedAt:     requestedAt,
				BalanceSnapshot: snapshot,
				ScheduledFor:    scheduledFor,
				Reason:          reason,
			},
		}); err != nil {
			return err
		}

		_, err = s.transactions.Create(ctx, &entities.Transaction{
			InvestorID:  id,
			Type:        entities.TransactionTypeAccountClosure,
			Amount:      decimal.Zero,
			Date:        requestedAt,
			Status:      entities.TransactionStatusPending,
			Description: "Account closure requested. Balance at request: " + snapshot.StringFixed(2),
		})
		return err
	})
	if err != nil {
		s.logger.CtxWarn(ctx, "Deletion request failed", "investor_id", id, "error", err)
		return nil, err
	}

	closed, err := s.investors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.recordFinancial(ctx, adminID, "investor.deletion_requested", id, snapshot, map[string]interface{}{
		"scheduled_for": scheduledFor.Format(time.RFC3339),
	})
	if s.notifier != nil && closed.Email != "" {
		if err := s.notifier.SendDeletionScheduled(ctx, closed.Email, closed.Name, scheduledFor); err != nil {
			s.logger.CtxWarn(ctx, "Failed to send deletion notice", "investor_id", id, "error", err)
		}
	}

	s.logger.CtxInfo(ctx, "Account deletion requested",
		"investor_id", id,
		"requested_by", adminID,
		"balance_snapshot", snapshot.String())
	return closed, nil
}

// Transactions returns one investor's ledger, newest first
func (s *Service) Transactions(ctx context.Context, investorID string) ([]*entities.Transaction, error) {
	if _, err := s.investors.GetByID(ctx, investorID); err != nil {
		return nil, err
	}
	return s.transactions.List(ctx, repositories.TransactionFilter{InvestorID: investorID})
}

// AllTransactions returns the ledger across investors
func (s *Service) AllTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]*entities.Transaction, error) {
	return s.transactions.List(ctx, filter)
}

// Watch subscribes to the live investor list
func (s *Service) Watch(ctx context.Context) (*docstore.Subscription[entities.Investor], error) {
	return s.investors.Watch(ctx)
}

func (s *Service) record(ctx context.Context, actor, action, id string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, actor, action, "investor", id, metadata); err != nil {
		s.logger.CtxWarn(ctx, "Failed to record audit event", "action", action, "error", err)
	}
}

func (s *Service) recordFinancial(ctx context.Context, actor, action, id string, amount decimal.Decimal, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogFinancialEvent(ctx, actor, action, "investor", id, amount, metadata); err != nil {
		s.logger.CtxWarn(ctx, "Failed to record audit event", "action", action, "error", err)
	}
}

func fieldNames(fields docstore.Fields) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	return names
}
