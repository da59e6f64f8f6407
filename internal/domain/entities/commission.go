package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus represents the state of a platform fee
type CommissionStatus string

const (
	CommissionStatusEarned  CommissionStatus = "Earned"
	CommissionStatusPending CommissionStatus = "Pending"
)

// CommissionSource records which step of the withdrawal lifecycle wrote the fee
type CommissionSource string

const (
	CommissionSourceSubmission CommissionSource = "submission"
	CommissionSourceApproval   CommissionSource = "approval"
)

// Commission is the platform fee tied to a withdrawal
type Commission struct {
	ID               string           `json:"id"`
	InvestorID       string           `json:"investorId"`
	InvestorName     string           `json:"investorName,omitempty"`
	WithdrawalID     string           `json:"withdrawalId"`
	WithdrawalAmount decimal.Decimal  `json:"withdrawalAmount"`
	CommissionRate   decimal.Decimal  `json:"commissionRate"`
	CommissionAmount decimal.Decimal  `json:"commissionAmount"`
	Status           CommissionStatus `json:"status"`
	Source           CommissionSource `json:"source"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// CommissionWithdrawal is a payout of earned commissions to the platform
type CommissionWithdrawal struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Destination string          `json:"destination"`
	RequestedBy string          `json:"requestedBy"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CommissionWithdrawalRequest is the admin form for a commission payout
type CommissionWithdrawalRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Method      string `json:"method" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}
