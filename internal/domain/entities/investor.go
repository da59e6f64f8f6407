package entities

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// AccountStatusKind is the machine-readable part of an account status
type AccountStatusKind string

const (
	AccountStatusActive     AccountStatusKind = "Active"
	AccountStatusRestricted AccountStatusKind = "Restricted"
	AccountStatusClosed     AccountStatusKind = "Closed"
)

// IsValid checks if the kind is one of the known kinds
func (k AccountStatusKind) IsValid() bool {
	switch k {
	case AccountStatusActive, AccountStatusRestricted, AccountStatusClosed:
		return true
	}
	return false
}

// AccountStatus separates the status kind from the message shown to the investor
type AccountStatus struct {
	Kind   AccountStatusKind `json:"kind"`
	Detail string            `json:"detail,omitempty"`
}

// ActiveStatus returns the default status of a new account
func ActiveStatus() AccountStatus {
	return AccountStatus{Kind: AccountStatusActive}
}

// ParseAccountStatus maps a legacy free-text status such as
// "Restricted - pending KYC review" onto the tagged form.
func ParseAccountStatus(text string) AccountStatus {
	text = strings.TrimSpace(text)

	var kind AccountStatusKind
	switch {
	case indexFold(text, "restricted") >= 0:
		kind = AccountStatusRestricted
	case indexFold(text, "closed") >= 0, indexFold(text, "closure") >= 0:
		kind = AccountStatusClosed
	default:
		kind = AccountStatusActive
	}

	detail := text
	if start, end := matchFold(text, string(kind)); start >= 0 {
		detail = text[end:]
	}
	detail = strings.TrimLeft(detail, " -:–")

	return AccountStatus{Kind: kind, Detail: strings.TrimSpace(detail)}
}

func indexFold(text, word string) int {
	start, _ := matchFold(text, word)
	return start
}

// matchFold finds word in text ignoring case and returns the byte range of
// the match in text, or -1, -1. Windows are cut on rune boundaries of text
// itself because case mapping can change byte lengths.
func matchFold(text, word string) (int, int) {
	fold := cases.Fold()
	target := fold.String(word)
	n := utf8.RuneCountInString(word)

	for start := range text {
		end, count := start, 0
		for end < len(text) && count < n {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
			count++
		}
		if count < n {
			break
		}
		if fold.String(text[start:end]) == target {
			return start, end
		}
	}
	return -1, -1
}

func (s AccountStatus) IsRestricted() bool { return s.Kind == AccountStatusRestricted }

func (s AccountStatus) IsClosed() bool { return s.Kind == AccountStatusClosed }

// String renders the status the way it is displayed to investors
func (s AccountStatus) String() string {
	if s.Detail == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + " - " + s.Detail
}

// UnmarshalJSON accepts the tagged object and legacy free-text strings
func (s *AccountStatus) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = ParseAccountStatus(text)
		return nil
	}

	type plain AccountStatus
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Kind == "" {
		p.Kind = AccountStatusActive
	}
	*s = AccountStatus(p)
	return nil
}

// BankDetails holds the payout bank account on file
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	SwiftCode     string `json:"swiftCode,omitempty"`
}

// TradingData holds the managed trading account summary
type TradingData struct {
	Platform      string `json:"platform,omitempty"`
	Strategy      string `json:"strategy,omitempty"`
	RiskLevel     string `json:"riskLevel,omitempty"`
	TotalTrades   int    `json:"totalTrades"`
	WinningTrades int    `json:"winningTrades"`
}

// DeletionRequest records an admin-initiated account closure
type DeletionRequest struct {
	RequestedBy     string          `json:"requestedBy"`
	RequestedAt     time.Time       `json:"requestedAt"`
	BalanceSnapshot decimal.Decimal `json:"balanceSnapshot"`
	ScheduledFor    time.Time       `json:"scheduledFor"`
	Reason          string          `json:"reason,omitempty"`
}

// Investor represents a client account
type Investor struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	Country         string           `json:"country"`
	JoinDate        time.Time        `json:"joinDate"`
	InitialDeposit  decimal.Decimal  `json:"initialDeposit"`
	CurrentBalance  decimal.Decimal  `json:"currentBalance"`
	AccountStatus   AccountStatus    `json:"accountStatus"`
	IsActive        bool             `json:"isActive"`
	UserID          string           `json:"userId,omitempty"`
	BankDetails     *BankDetails     `json:"bankDetails,omitempty"`
	TradingData     *TradingData     `json:"tradingData,omitempty"`
	DeletionRequest *DeletionRequest `json:"deletionRequest,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// CreateInvestorRequest is the admin form for a new investor
type CreateInvestorRequest struct {
	Name           string          `json:"name" binding:"required"`
	Email          string          `json:"email" binding:"omitempty,email"`
	Phone          string          `json:"phone"`
	Country        string          `json:"country" binding:"required"`
	JoinDate       *time.Time      `json:"joinDate"`
	InitialDeposit decimal.Decimal `json:"initialDeposit"`
	BankDetails    *BankDetails    `json:"bankDetails"`
	TradingData    *TradingData    `json:"tradingData"`
}

// UpdateInvestorRequest carries the profile fields an admin may edit
type UpdateInvestorRequest struct {
	Name        *string      `json:"name"`
	Email       *string      `json:"email" binding:"omitempty,email"`
	Phone       *string      `json:"phone"`
	Country     *string      `json:"country"`
	BankDetails *BankDetails `json:"bankDetails"`
	TradingData *TradingData `json:"tradingData"`
}

// SetStatusRequest changes an account status
type SetStatusRequest struct {
	Kind   AccountStatusKind `json:"kind" binding:"required"`
	Detail string            `json:"detail"`
}

// BalanceAdjustmentType enumerates admin balance operations
type BalanceAdjustmentType string

const (
	AdjustmentDeposit  BalanceAdjustmentType = "Deposit"
	AdjustmentCredit   BalanceAdjustmentType = "Credit"
	AdjustmentEarnings BalanceAdjustmentType = "Earnings"
	AdjustmentDebit    BalanceAdjustmentType = "Debit"
)

// BalanceAdjustmentRequest credits or debits an investor balance
type BalanceAdjustmentRequest struct {
	Type        BalanceAdjustmentType `json:"type" binding:"required"`
	Amount      decimal.Decimal       `json:"amount"`
	Description string                `json:"description"`
}

// DeletionRequestInput is the admin form for an account closure
type DeletionRequestInput struct {
	Reason string `json:"reason"`
}
