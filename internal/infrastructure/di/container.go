package di

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/services/analytics"
	"github.com/stack-service/backoffice/internal/domain/services/commission"
	"github.com/stack-service/backoffice/internal/domain/services/identity"
	"github.com/stack-service/backoffice/internal/domain/services/investor"
	"github.com/stack-service/backoffice/internal/domain/services/withdrawal"
	"github.com/stack-service/backoffice/internal/infrastructure/adapters"
	"github.com/stack-service/backoffice/internal/infrastructure/config"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	"github.com/stack-service/backoffice/internal/infrastructure/repositories"
	"github.com/stack-service/backoffice/pkg/auth"
	"github.com/stack-service/backoffice/pkg/circuitbreaker"
	"github.com/stack-service/backoffice/pkg/health"
	"github.com/stack-service/backoffice/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Logger *logger.Logger
	ZapLog *zap.Logger

	Store       *docstore.Store
	MongoClient *mongo.Client
	RedisClient *redis.Client

	// Repositories
	InvestorRepo             *repositories.InvestorRepository
	TransactionRepo          *repositories.TransactionRepository
	WithdrawalRepo           *repositories.WithdrawalRepository
	CommissionRepo           *repositories.CommissionRepository
	CommissionWithdrawalRepo *repositories.CommissionWithdrawalRepository
	UserRepo                 *repositories.UserRepository

	// External Services
	EmailService *adapters.EmailService
	AuditService *adapters.AuditService
	Tokens       *auth.TokenManager

	// Domain Services
	WithdrawalService *withdrawal.Service
	AnalyticsService  *analytics.Service
	InvestorService   *investor.Service
	CommissionService *commission.Service
	IdentityService   *identity.Service

	Health *health.HealthChecker
}

// NewContainer creates a new dependency injection container. db is only
// required for the postgres driver.
func NewContainer(ctx context.Context, cfg *config.Config, db *sqlx.DB, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     db,
		Logger: log,
		ZapLog: log.Zap(),
		Health: health.NewHealthChecker(5 * time.Second),
	}

	backend, err := c.initializeBackend(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}

	notifier, err := c.initializeNotifier(ctx)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, fmt.Errorf("failed to initialize change notifier: %w", err)
	}
	c.Store = docstore.NewStore(backend, notifier, c.ZapLog)

	c.initializeRepositories()

	c.EmailService = adapters.NewEmailService(c.ZapLog, adapters.EmailServiceConfig{
		APIKey:      cfg.Email.APIKey,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		Environment: cfg.Email.Environment,
		BaseURL:     cfg.Email.BaseURL,
	})

	auditSecret := cfg.Security.AuditSecret
	if auditSecret == "" {
		auditSecret = cfg.JWT.Secret
	}
	c.AuditService = adapters.NewAuditService(c.Store, auditSecret, c.ZapLog)
	c.Tokens = auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTTL)*time.Second)

	if err := c.initializeDomainServices(); err != nil {
		_ = c.Store.Close(ctx)
		return nil, fmt.Errorf("failed to initialize domain services: %w", err)
	}

	return c, nil
}

func (c *Container) initializeBackend(ctx context.Context) (docstore.Backend, error) {
	switch c.Config.Database.Driver {
	case config.DriverPostgres:
		if c.DB == nil {
			return nil, fmt.Errorf("postgres driver selected without a database connection")
		}
		c.Health.Register(health.NewDatabaseChecker(c.DB.DB, 2*time.Second))
		return docstore.Instrument(docstore.NewPostgresBackend(c.DB, c.ZapLog), "postgresql"), nil

	case config.DriverMongo:
		mcfg := c.Config.Database.Mongo
		timeout := time.Duration(mcfg.Timeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		connectCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(mcfg.URI))
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		c.MongoClient = client
		c.Health.Register(health.NewMongoChecker(client, 2*time.Second))
		c.ZapLog.Info("Connected to mongo", zap.String("database", mcfg.Database))
		return docstore.Instrument(docstore.NewMongoBackend(client, mcfg.Database, c.ZapLog), "mongodb"), nil

	case config.DriverMemory:
		c.ZapLog.Warn("Using in-memory document store; data is lost on restart")
		return docstore.NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", c.Config.Database.Driver)
}

func (c *Container) initializeNotifier(ctx context.Context) (docstore.Notifier, error) {
	rcfg := c.Config.Redis
	if !rcfg.Enabled {
		return docstore.NewLocalNotifier(), nil
	}

	var opts *redis.Options
	if rcfg.URL != "" {
		parsed, err := redis.ParseURL(rcfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", rcfg.Host, rcfg.Port),
			Password: rcfg.Password,
			DB:       rcfg.DB,
		}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	c.RedisClient = client
	c.Health.Register(health.NewRedisChecker(client, 2*time.Second))
	breaker := circuitbreaker.New("redis-notifier", circuitbreaker.DefaultConfig())
	return docstore.NewRedisNotifier(client, breaker, c.ZapLog), nil
}

func (c *Container) initializeRepositories() {
	c.InvestorRepo = repositories.NewInvestorRepository(c.Store, c.ZapLog)
	c.TransactionRepo = repositories.NewTransactionRepository(c.Store, c.ZapLog)
	c.WithdrawalRepo = repositories.NewWithdrawalRepository(c.Store, c.ZapLog)
	c.CommissionRepo = repositories.NewCommissionRepository(c.Store, c.ZapLog)
	c.CommissionWithdrawalRepo = repositories.NewCommissionWithdrawalRepository(c.Store, c.ZapLog)
	c.UserRepo = repositories.NewUserRepository(c.Store, c.ZapLog)
}

// initializeDomainServices initializes all domain services with their dependencies
func (c *Container) initializeDomainServices() error {
	policy, err := withdrawalPolicy(c.Config.Withdrawal)
	if err != nil {
		return err
	}

	c.WithdrawalService = withdrawal.NewService(
		c.Store,
		c.InvestorRepo,
		c.TransactionRepo,
		c.WithdrawalRepo,
		c.CommissionRepo,
		c.EmailService,
		c.AuditService,
		policy,
		c.Logger,
	)

	c.AnalyticsService = analytics.NewService(
		c.InvestorRepo,
		c.TransactionRepo,
		c.WithdrawalRepo,
		c.CommissionRepo,
		c.CommissionWithdrawalRepo,
		analytics.Config{
			TopCountries:  c.Config.Analytics.TopCountries,
			TopPerformers: c.Config.Analytics.TopPerformers,
		},
		c.Logger,
	)

	c.InvestorService = investor.NewService(
		c.Store,
		c.InvestorRepo,
		c.TransactionRepo,
		c.EmailService,
		c.AuditService,
		c.Logger,
	)

	c.CommissionService = commission.NewService(
		c.Store,
		c.CommissionRepo,
		c.CommissionWithdrawalRepo,
		c.AuditService,
		c.Logger,
	)

	c.IdentityService = identity.NewService(
		c.Store,
		c.UserRepo,
		c.InvestorRepo,
		c.Tokens,
		identity.Config{
			AdminEmails:       c.Config.Auth.AdminEmails,
			PasswordMinLength: c.Config.Auth.PasswordMinLength,
			AllowSignup:       c.Config.Auth.AllowSignup,
		},
		c.Logger,
	)

	return nil
}

func withdrawalPolicy(cfg config.WithdrawalConfig) (withdrawal.Policy, error) {
	policy := withdrawal.DefaultPolicy()
	if cfg.CommissionRate != "" {
		rate, err := decimal.NewFromString(cfg.CommissionRate)
		if err != nil {
			return policy, fmt.Errorf("invalid withdrawal.commission_rate %q: %w", cfg.CommissionRate, err)
		}
		policy.CommissionRate = rate
	}
	if cfg.MinimumAmount != "" {
		min, err := decimal.NewFromString(cfg.MinimumAmount)
		if err != nil {
			return policy, fmt.Errorf("invalid withdrawal.minimum_amount %q: %w", cfg.MinimumAmount, err)
		}
		policy.MinimumAmount = min
	}
	policy.CommissionAtSubmission = cfg.CommissionAtSubmission
	policy.CommissionAtApproval = cfg.CommissionAtApproval
	policy.RestoreBalanceOnReject = cfg.RestoreBalanceOnReject
	policy.SettleLedgerOnDecision = cfg.SettleLedgerOnDecision
	return policy, nil
}

// Close releases the store and the redis client
func (c *Container) Close(ctx context.Context) error {
	err := c.Store.Close(ctx)
	if c.RedisClient != nil {
		if rErr := c.RedisClient.Close(); rErr != nil && err == nil {
			err = rErr
		}
	}
	return err
}
