package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/pkg/logger"
)

// Config controls the size of ranked lists
type Config struct {
	TopCountries  int
	TopPerformers int
}

// DefaultConfig returns the dashboard defaults
func DefaultConfig() Config {
	return Config{TopCountries: 5, TopPerformers: 5}
}

// Display holds the headline figures already formatted for rendering
type Display struct {
	AUM                 string `json:"aum"`
	Deposits            string `json:"deposits"`
	Gains               string `json:"gains"`
	ROI                 string `json:"roi"`
	WinRate             string `json:"winRate"`
	SuccessRate         string `json:"successRate"`
	RejectionRate       string `json:"rejectionRate"`
	AvailableCommission string `json:"availableCommission"`
}

// Dashboard is the admin overview
type Dashboard struct {
	GeneratedAt     time.Time                                    `json:"generatedAt"`
	Totals          Totals                                       `json:"totals"`
	WinRate         decimal.Decimal                              `json:"winRate"`
	Performance     map[Performance]int                          `json:"performance"`
	TransactionSums map[entities.TransactionType]decimal.Decimal `json:"transactionSums"`
	Countries       []CountryCount                               `json:"countries"`
	Withdrawals     WithdrawalStats                              `json:"withdrawals"`
	Commissions     CommissionTotals                             `json:"commissions"`
	TopPerformers   []InvestorPerformance                        `json:"topPerformers"`
	Display         Display                                      `json:"display"`
}

// PerformanceReport is the downloadable snapshot of every investor
type PerformanceReport struct {
	GeneratedAt time.Time             `json:"generatedAt"`
	Totals      Totals                `json:"totals"`
	WinRate     decimal.Decimal       `json:"winRate"`
	Performance map[Performance]int   `json:"performance"`
	Countries   []CountryCount        `json:"countries"`
	Withdrawals WithdrawalStats       `json:"withdrawals"`
	Commissions CommissionTotals      `json:"commissions"`
	Investors   []InvestorPerformance `json:"investors"`
}

// Service loads collections and aggregates them
type Service struct {
	investors    repositories.InvestorRepository
	transactions repositories.TransactionRepository
	withdrawals  repositories.WithdrawalRepository
	commissions  repositories.CommissionRepository
	payouts      repositories.CommissionWithdrawalRepository
	config       Config
	logger       *logger.Logger
	now          func() time.Time
}

// NewService creates a new analytics service
func NewService(
	investors repositories.InvestorRepository,
	transactions repositories.TransactionRepository,
	withdrawals repositories.WithdrawalRepository,
	commissions repositories.CommissionRepository,
	payouts repositories.CommissionWithdrawalRepository,
	config Config,
	logger *logger.Logger,
) *Service {
	return &Service{
		investors:    investors,
		transactions: transactions,
		withdrawals:  withdrawals,
		commissions:  commissions,
		payouts:      payouts,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

type dataset struct {
	investors    []*entities.Investor
	transactions []*entities.Transaction
	withdrawals  []*entities.WithdrawalRequest
	commissions  []*entities.Commission
	payouts      []*entities.CommissionWithdrawal
}

func (s *Service) load(ctx context.Context, withTransactions bool) (*dataset, error) {
	var (
		d   dataset
		err error
	)
	if d.investors, err = s.investors.List(ctx); err != nil {
		return nil, err
	}
	if withTransactions {
		if d.transactions, err = s.transactions.List(ctx, repositories.TransactionFilter{}); err != nil {
			return nil, err
		}
	}
	if d.withdrawals, err = s.withdrawals.List(ctx, ""); err != nil {
		return nil, err
	}
	if d.commissions, err = s.commissions.List(ctx); err != nil {
		return nil, err
	}
	if d.payouts, err = s.payouts.List(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}

// Dashboard computes the admin overview
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.load(ctx, true)
	if err != nil {
		s.logger.CtxError(ctx, "Failed to load dashboard data", "error", err)
		return nil, err
	}

	totals := PortfolioTotals(d.investors)
	winRate := WinRate(d.investors)
	withdrawals := WithdrawalRates(d.withdrawals)
	commissions := CommissionSummary(d.commissions, d.payouts)

	return &Dashboard{
		GeneratedAt:     s.now().UTC(),
		Totals:          totals,
		WinRate:         winRate,
		Performance:     PerformanceCounts(d.investors),
		TransactionSums: TransactionTypeSums(d.transactions),
		Countries:       CountryDistribution(d.investors, s.config.TopCountries),
		Withdrawals:     withdrawals,
		Commissions:     commissions,
		TopPerformers:   TopPerformers(d.investors, s.config.TopPerformers),
		Display: Display{
			AUM:                 FormatCurrency(totals.AUM),
			Deposits:            FormatCurrency(totals.Deposits),
			Gains:               FormatCurrency(totals.Gains),
			ROI:                 FormatPercent(totals.ROI),
			WinRate:             FormatPercent(winRate),
			SuccessRate:         FormatPercent(withdrawals.SuccessRate),
			RejectionRate:       FormatPercent(withdrawals.RejectionRate),
			AvailableCommission: FormatCurrency(commissions.Available),
		},
	}, nil
}

// PerformanceReport computes the per-investor report offered as a download
func (s *Service) PerformanceReport(ctx context.Context) (*PerformanceReport, error) {
	d, err := s.load(ctx, false)
	if err != nil {
		s.logger.CtxError(ctx, "Failed to load report data", "error", err)
		return nil, err
	}

	return &PerformanceReport{
		GeneratedAt: s.now().UTC(),
		Totals:      PortfolioTotals(d.investors),
		WinRate:     WinRate(d.investors),
		Performance: PerformanceCounts(d.investors),
		Countries:   CountryDistribution(d.investors, 0),
		Withdrawals: WithdrawalRates(d.withdrawals),
		Commissions: CommissionSummary(d.commissions, d.payouts),
		Investors:   TopPerformers(d.investors, 0),
	}, nil
}
