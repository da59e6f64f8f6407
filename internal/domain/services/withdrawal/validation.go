package withdrawal

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stack-service/backoffice/internal/domain/entities"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Policy holds the withdrawal rules set by configuration
type Policy struct {
	// CommissionRate is a percentage of the withdrawal amount
	CommissionRate         decimal.Decimal
	MinimumAmount          decimal.Decimal
	CommissionAtSubmission bool
	CommissionAtApproval   bool
	RestoreBalanceOnReject bool
	// SettleLedgerOnDecision moves the submission ledger entry to Completed
	// or Rejected. Off by default: ledger entries are append-only.
	SettleLedgerOnDecision bool
}

// DefaultPolicy charges 15% at both submission and approval and keeps the
// debit when a request is rejected.
func DefaultPolicy() Policy {
	return Policy{
		CommissionRate:         decimal.NewFromInt(15),
		MinimumAmount:          decimal.NewFromInt(100),
		CommissionAtSubmission: true,
		CommissionAtApproval:   true,
		RestoreBalanceOnReject: false,
		SettleLedgerOnDecision: false,
	}
}

var hundred = decimal.NewFromInt(100)

// CalculateCommission splits amount into the platform fee at rate percent
// (rounded to cents) and the net payout.
func CalculateCommission(amount, rate decimal.Decimal) (commission, net decimal.Decimal) {
	commission = amount.Mul(rate).Div(hundred).Round(2)
	return commission, amount.Sub(commission)
}

// ValidateSubmission checks a withdrawal form against the investor's account in
// a fixed order: account open, positive amount, amount within balance, amount
// at least the minimum, then the method fields. It returns the parsed amount.
func ValidateSubmission(investor *entities.Investor, req *entities.SubmitWithdrawalRequest, policy Policy) (decimal.Decimal, *apperrors.AppError) {
	if investor.AccountStatus.IsClosed() {
		return decimal.Zero, apperrors.New(apperrors.ErrCodeAccountClosed, "This account is closed and cannot request withdrawals")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, apperrors.Validation("amount", "Please enter a valid withdrawal amount")
	}

	if amount.GreaterThan(investor.CurrentBalance) {
		return decimal.Zero, apperrors.InsufficientFunds("Withdrawal amount exceeds your available balance").
			AddDetail("field", "amount").
			AddDetail("available", investor.CurrentBalance.StringFixed(2))
	}

	if amount.LessThan(policy.MinimumAmount) {
		return decimal.Zero, apperrors.New(apperrors.ErrCodeBelowMinimum,
			"Minimum withdrawal amount is $"+policy.MinimumAmount.StringFixed(0)).
			AddDetail("field", "amount")
	}

	if verr := validateMethod(req); verr != nil {
		return decimal.Zero, verr
	}
	return amount, nil
}

func validateMethod(req *entities.SubmitWithdrawalRequest) *apperrors.AppError {
	var (
		details interface{}
		group   string
		missing string
	)
	switch req.Method {
	case entities.WithdrawalMethodBank:
		group, missing = "bank", "Please select a bank account"
		if req.Bank != nil {
			details = req.Bank
		}
	case entities.WithdrawalMethodCrypto:
		group, missing = "crypto", "Please enter a wallet address"
		if req.Crypto != nil {
			details = req.Crypto
		}
	case entities.WithdrawalMethodCard:
		group, missing = "card", "Please fill in all card details"
		if req.Card != nil {
			details = req.Card
		}
	default:
		return apperrors.Validation("method", "Please choose a withdrawal method")
	}

	if details == nil {
		return apperrors.Validation(group, missing)
	}

	if err := validate.Struct(details); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return apperrors.Validation(group+"."+fieldErrs[0].Field(), missing)
		}
		return apperrors.Validation(group, missing)
	}
	return nil
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Destination renders the payout target with account numbers masked
func Destination(req *entities.SubmitWithdrawalRequest) string {
	switch req.Method {
	case entities.WithdrawalMethodBank:
		if req.Bank == nil {
			return ""
		}
		if req.Bank.AccountNumber == "" {
			return req.Bank.BankName
		}
		return req.Bank.BankName + " ****" + lastN(req.Bank.AccountNumber, 4)
	case entities.WithdrawalMethodCrypto:
		if req.Crypto == nil {
			return ""
		}
		addr := req.Crypto.WalletAddress
		if len(addr) > 10 {
			addr = addr[:6] + "..." + lastN(addr, 4)
		}
		if req.Crypto.Network != "" {
			return req.Crypto.Network + " " + addr
		}
		return addr
	case entities.WithdrawalMethodCard:
		if req.Card == nil {
			return ""
		}
		return "**** **** **** " + lastN(req.Card.CardNumber, 4)
	}
	return ""
}
