package analytics_snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/services/analytics"
	"github.com/stack-service/backoffice/pkg/metrics"
)

// DashboardSource computes the current portfolio dashboard
type DashboardSource interface {
	Dashboard(ctx context.Context) (*analytics.Dashboard, error)
}

type Config struct {
	// Schedule is a cron spec or descriptor such as "@every 5m"
	Schedule   string
	Timeout    time.Duration
	RunOnStart bool
}

func DefaultConfig() Config {
	return Config{
		Schedule:   "@every 5m",
		Timeout:    time.Minute,
		RunOnStart: true,
	}
}

// Scheduler refreshes the portfolio gauges from the dashboard on a schedule
type Scheduler struct {
	cron   *cron.Cron
	source DashboardSource
	config Config
	logger *zap.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	running bool
	lastRun time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// zapCronLogger wraps zap.Logger to implement cron's logger interface
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Printf(format string, args ...interface{}) {
	l.logger.Sugar().Debugf(format, args...)
}

func NewScheduler(source DashboardSource, config Config, logger *zap.Logger) (*Scheduler, error) {
	if config.Schedule == "" {
		config.Schedule = DefaultConfig().Schedule
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", config.Schedule, err)
	}

	cronLogger := cron.VerbosePrintfLogger(&zapCronLogger{logger: logger})
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:   c,
		source: source,
		config: config,
		logger: logger,
		tracer: otel.Tracer("analytics-snapshot"),
	}, nil
}

// Start schedules the job and, when configured, runs it once right away
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(s.config.Schedule, func() { s.execute(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cancel = cancel
	s.running = true
	s.cron.Start()

	if s.config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx)
		}()
	}

	s.logger.Info("Analytics snapshot scheduler started", zap.String("schedule", s.config.Schedule))
	return nil
}

// Stop halts scheduling and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	cancel()
	s.logger.Info("Analytics snapshot scheduler stopped")
}

// LastRun returns the time of the last successful snapshot
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) execute(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Analytics snapshot failed", zap.Error(err))
	}
}

// RunOnce computes the dashboard and publishes it as gauges
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "analytics.snapshot", trace.WithAttributes(
		attribute.String("schedule", s.config.Schedule),
	))
	defer span.End()

	start := time.Now()
	dashboard, err := s.source.Dashboard(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.SnapshotRunsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to compute dashboard: %w", err)
	}

	metrics.SetPortfolioSnapshot(Snapshot(dashboard))
	metrics.SnapshotRunsTotal.WithLabelValues("success").Inc()

	s.mu.Lock()
	s.lastRun = start
	s.mu.Unlock()

	s.logger.Debug("Analytics snapshot published",
		zap.Int("investors", dashboard.Totals.InvestorCount),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Snapshot converts a dashboard into gauge values
func Snapshot(d *analytics.Dashboard) metrics.PortfolioSnapshot {
	return metrics.PortfolioSnapshot{
		AUM:                 d.Totals.AUM.InexactFloat64(),
		Profitable:          d.Performance[analytics.PerformanceProfitable],
		Loss:                d.Performance[analytics.PerformanceLoss],
		BreakEven:           d.Performance[analytics.PerformanceBreakEven],
		PendingWithdrawals:  d.Withdrawals.Pending,
		WinRate:             d.WinRate.InexactFloat64(),
		AvailableCommission: d.Commissions.Available.InexactFloat64(),
	}
}
