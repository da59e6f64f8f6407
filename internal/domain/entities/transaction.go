package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the ledger entry type
type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "Deposit"
	TransactionTypeWithdrawal     TransactionType = "Withdrawal"
	TransactionTypeEarnings       TransactionType = "Earnings"
	TransactionTypeCredit         TransactionType = "Credit"
	TransactionTypeAccountClosure TransactionType = "Account Closure"
)

// TransactionStatus represents the ledger entry status
type TransactionStatus string

const (
	TransactionStatusPending       TransactionStatus = "Pending"
	TransactionStatusPendingReview TransactionStatus = "Pending Review"
	TransactionStatusCompleted     TransactionStatus = "Completed"
	TransactionStatusRejected      TransactionStatus = "Rejected"
)

// Transaction is an immutable ledger entry. Amount is negative for withdrawals.
type Transaction struct {
	ID          string            `json:"id"`
	InvestorID  string            `json:"investorId"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Date        time.Time         `json:"date"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
