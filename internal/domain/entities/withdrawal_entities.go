package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the status of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "Pending"
	WithdrawalStatusApproved WithdrawalStatus = "Approved"
	WithdrawalStatusRejected WithdrawalStatus = "Rejected"
)

// IsTerminal reports whether no further decision is possible
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

// WithdrawalMethod is the payout channel chosen by the investor
type WithdrawalMethod string

const (
	WithdrawalMethodBank   WithdrawalMethod = "bank"
	WithdrawalMethodCrypto WithdrawalMethod = "crypto"
	WithdrawalMethodCard   WithdrawalMethod = "card"
)

// WithdrawalRequest is a payout ask awaiting or carrying an admin decision
type WithdrawalRequest struct {
	ID               string           `json:"id"`
	InvestorID       string           `json:"investorId"`
	InvestorName     string           `json:"investorName"`
	Amount           decimal.Decimal  `json:"amount"`
	CommissionAmount decimal.Decimal  `json:"commissionAmount"`
	NetAmount        decimal.Decimal  `json:"netAmount"`
	Method           WithdrawalMethod `json:"method"`
	Destination      string           `json:"destination"`
	Status           WithdrawalStatus `json:"status"`
	TransactionID    string           `json:"transactionId,omitempty"`
	ProcessedBy      string           `json:"processedBy,omitempty"`
	ProcessedAt      *time.Time       `json:"processedAt,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// BankWithdrawalDetails selects the bank account to pay into
type BankWithdrawalDetails struct {
	BankName      string `json:"bankName" validate:"required"`
	AccountNumber string `json:"accountNumber"`
}

// CryptoWithdrawalDetails names the destination wallet
type CryptoWithdrawalDetails struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	Network       string `json:"network"`
}

// CardWithdrawalDetails carries the full card form
type CardWithdrawalDetails struct {
	CardNumber     string `json:"cardNumber" validate:"required,numeric,min=12,max=19"`
	CardholderName string `json:"cardholderName" validate:"required"`
	ExpiryDate     string `json:"expiryDate" validate:"required"`
	CVV            string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// SubmitWithdrawalRequest is the withdrawal form. Amount is the raw form input.
type SubmitWithdrawalRequest struct {
	Amount string                   `json:"amount"`
	Method WithdrawalMethod         `json:"method"`
	Bank   *BankWithdrawalDetails   `json:"bank,omitempty"`
	Crypto *CryptoWithdrawalDetails `json:"crypto,omitempty"`
	Card   *CardWithdrawalDetails   `json:"card,omitempty"`
}

// SubmitWithdrawalResponse reports every record written by a submission
type SubmitWithdrawalResponse struct {
	Request          *WithdrawalRequest `json:"request"`
	Transaction      *Transaction       `json:"transaction"`
	Commission       *Commission        `json:"commission,omitempty"`
	CommissionAmount decimal.Decimal    `json:"commissionAmount"`
	NetAmount        decimal.Decimal    `json:"netAmount"`
	NewBalance       decimal.Decimal    `json:"newBalance"`
}

// WithdrawalDecision is the admin verdict on a pending request
type WithdrawalDecision string

const (
	DecisionApprove WithdrawalDecision = "Approve"
	DecisionReject  WithdrawalDecision = "Reject"
)

// DecisionRequest is the optional body of approve/reject calls
type DecisionRequest struct {
	Reason string `json:"reason"`
}
