// Package analytics computes dashboard figures from fully loaded collections.
// Every ratio whose denominator is zero is reported as zero.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/stack-service/backoffice/internal/domain/entities"
)

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100, or zero when whole is not positive
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func percentOfCount(part, whole int) decimal.Decimal {
	return Percent(decimal.NewFromInt(int64(part)), decimal.NewFromInt(int64(whole)))
}

// Totals are the portfolio-wide money figures
type Totals struct {
	InvestorCount int             `json:"investorCount"`
	AUM           decimal.Decimal `json:"aum"`
	Deposits      decimal.Decimal `json:"deposits"`
	Gains         decimal.Decimal `json:"gains"`
	ROI           decimal.Decimal `json:"roi"`
}

// PortfolioTotals sums balances and deposits across investors
func PortfolioTotals(investors []*entities.Investor) Totals {
	t := Totals{InvestorCount: len(investors)}
	for _, inv := range investors {
		t.AUM = t.AUM.Add(inv.CurrentBalance)
		t.Deposits = t.Deposits.Add(inv.InitialDeposit)
	}
	t.Gains = t.AUM.Sub(t.Deposits)
	t.ROI = Percent(t.Gains, t.Deposits)
	return t
}

// InvestorROI is (currentBalance - initialDeposit) / initialDeposit * 100
func InvestorROI(inv *entities.Investor) decimal.Decimal {
	return Percent(inv.CurrentBalance.Sub(inv.InitialDeposit), inv.InitialDeposit)
}

// Performance classifies an investor against their initial deposit
type Performance string

const (
	PerformanceProfitable Performance = "profitable"
	PerformanceLoss       Performance = "loss"
	PerformanceBreakEven  Performance = "break-even"
)

func ClassifyPerformance(inv *entities.Investor) Performance {
	switch inv.CurrentBalance.Cmp(inv.InitialDeposit) {
	case 1:
		return PerformanceProfitable
	case -1:
		return PerformanceLoss
	}
	return PerformanceBreakEven
}

// PerformanceCounts counts investors per class. All classes are present.
func PerformanceCounts(investors []*entities.Investor) map[Performance]int {
	counts := map[Performance]int{
		PerformanceProfitable: 0,
		PerformanceLoss:       0,
		PerformanceBreakEven:  0,
	}
	for _, inv := range investors {
		counts[ClassifyPerformance(inv)]++
	}
	return counts
}

// WinRate is the share of investors whose balance exceeds their deposit
func WinRate(investors []*entities.Investor) decimal.Decimal {
	wins := 0
	for _, inv := range investors {
		if inv.CurrentBalance.GreaterThan(inv.InitialDeposit) {
			wins++
		}
	}
	return percentOfCount(wins, len(investors))
}

// TransactionTypeSums totals amounts per transaction type. Withdrawals are
// summed as absolute values.
func TransactionTypeSums(txs []*entities.Transaction) map[entities.TransactionType]decimal.Decimal {
	sums := map[entities.TransactionType]decimal.Decimal{
		entities.TransactionTypeDeposit:    decimal.Zero,
		entities.TransactionTypeWithdrawal: decimal.Zero,
		entities.TransactionTypeEarnings:   decimal.Zero,
		entities.TransactionTypeCredit:     decimal.Zero,
	}
	for _, tx := range txs {
		amount := tx.Amount
		if tx.Type == entities.TransactionTypeWithdrawal {
			amount = amount.Abs()
		}
		sums[tx.Type] = sums[tx.Type].Add(amount)
	}
	return sums
}

// CountryCount is one row of the country distribution
type CountryCount struct {
	Country string          `json:"country"`
	Count   int             `json:"count"`
	Share   decimal.Decimal `json:"share"`
}

// CountryDistribution groups investors by country, largest first with ties
// broken by name. topN <= 0 returns every country.
func CountryDistribution(investors []*entities.Investor, topN int) []CountryCount {
	counts := make(map[string]int)
	for _, inv := range investors {
		country := inv.Country
		if country == "" {
			country = "Unknown"
		}
		counts[country]++
	}

	out := make([]CountryCount, 0, len(counts))
	for country, n := range counts {
		out = append(out, CountryCount{
			Country: country,
			Count:   n,
			Share:   percentOfCount(n, len(investors)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// WithdrawalStats summarises the withdrawal queue
type WithdrawalStats struct {
	Total          int             `json:"total"`
	Pending        int             `json:"pending"`
	Approved       int             `json:"approved"`
	Rejected       int             `json:"rejected"`
	SuccessRate    decimal.Decimal `json:"successRate"`
	RejectionRate  decimal.Decimal `json:"rejectionRate"`
	PendingAmount  decimal.Decimal `json:"pendingAmount"`
	ApprovedAmount decimal.Decimal `json:"approvedAmount"`
}

// WithdrawalRates counts requests by status; rates are relative to all requests
func WithdrawalRates(reqs []*entities.WithdrawalRequest) WithdrawalStats {
	s := WithdrawalStats{Total: len(reqs)}
	for _, r := range reqs {
		switch r.Status {
		case entities.WithdrawalStatusPending:
			s.Pending++
			s.PendingAmount = s.PendingAmount.Add(r.Amount)
		case entities.WithdrawalStatusApproved:
			s.Approved++
			s.ApprovedAmount = s.ApprovedAmount.Add(r.Amount)
		case entities.WithdrawalStatusRejected:
			s.Rejected++
		}
	}
	s.SuccessRate = percentOfCount(s.Approved, s.Total)
	s.RejectionRate = percentOfCount(s.Rejected, s.Total)
	return s
}

// CommissionTotals splits recorded commission by state
type CommissionTotals struct {
	Count     int             `json:"count"`
	Earned    decimal.Decimal `json:"earned"`
	Pending   decimal.Decimal `json:"pending"`
	Withdrawn decimal.Decimal `json:"withdrawn"`
	Available decimal.Decimal `json:"available"`
}

// CommissionSummary totals commissions and what has already been paid out.
// Available never goes below zero.
func CommissionSummary(commissions []*entities.Commission, payouts []*entities.CommissionWithdrawal) CommissionTotals {
	t := CommissionTotals{Count: len(commissions)}
	for _, c := range commissions {
		switch c.Status {
		case entities.CommissionStatusEarned:
			t.Earned = t.Earned.Add(c.CommissionAmount)
		case entities.CommissionStatusPending:
			t.Pending = t.Pending.Add(c.CommissionAmount)
		}
	}
	for _, p := range payouts {
		t.Withdrawn = t.Withdrawn.Add(p.Amount)
	}
	t.Available = decimal.Max(t.Earned.Sub(t.Withdrawn), decimal.Zero)
	return t
}

// InvestorPerformance is one investor's row in rankings and reports
type InvestorPerformance struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Country        string          `json:"country"`
	InitialDeposit decimal.Decimal `json:"initialDeposit"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Gain           decimal.Decimal `json:"gain"`
	ROI            decimal.Decimal `json:"roi"`
	Performance    Performance     `json:"performance"`
	Status         string          `json:"status"`
}

func performanceOf(inv *entities.Investor) InvestorPerformance {
	return InvestorPerformance{
		ID:             inv.ID,
		Name:           inv.Name,
		Country:        inv.Country,
		InitialDeposit: inv.InitialDeposit,
		CurrentBalance: inv.CurrentBalance,
		Gain:           inv.CurrentBalance.Sub(inv.InitialDeposit),
		ROI:            InvestorROI(inv),
		Performance:    ClassifyPerformance(inv),
		Status:         inv.AccountStatus.String(),
	}
}

// TopPerformers ranks investors by ROI, then gain, then name. n <= 0 returns all.
func TopPerformers(investors []*entities.Investor, n int) []InvestorPerformance {
	out := make([]InvestorPerformance, 0, len(investors))
	for _, inv := range investors {
		out = append(out, performanceOf(inv))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].ROI.Cmp(out[j].ROI); c != 0 {
			return c > 0
		}
		if c := out[i].Gain.Cmp(out[j].Gain); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
