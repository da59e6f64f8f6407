package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	"github.com/stack-service/backoffice/pkg/crypto"
	"github.com/stack-service/backoffice/pkg/metrics"
)

const AuditLogsCollection = "auditLogs"

// AuditService persists signed audit events in the auditLogs collection
type AuditService struct {
	coll      *docstore.Collection[entities.AuditLog]
	logger    *zap.Logger
	secretKey string
	now       func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(store *docstore.Store, secretKey string, logger *zap.Logger) *AuditService {
	return &AuditService{
		coll:      docstore.NewCollection[entities.AuditLog](store, AuditLogsCollection),
		logger:    logger,
		secretKey: secretKey,
		now:       time.Now,
	}
}

// LogEvent records a successful action
func (a *AuditService) LogEvent(ctx context.Context, actor, action, resourceType, resourceID string, metadata map[string]interface{}) error {
	return a.logEvent(ctx, &entities.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		Status:       "success",
	})
}

// LogFinancialEvent records an action that moved money
func (a *AuditService) LogFinancialEvent(ctx context.Context, actor, action, resourceType, resourceID string, amount decimal.Decimal, metadata map[string]interface{}) error {
	return a.logEvent(ctx, &entities.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		Amount:       &amount,
		Status:       "success",
	})
}

// LogFailedAction records a refused or failed action
func (a *AuditService) LogFailedAction(ctx context.Context, actor, action, resourceType string, err error) error {
	return a.logEvent(ctx, &entities.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		Status:       "failed",
		ErrorMessage: err.Error(),
	})
}

func (a *AuditService) logEvent(ctx context.Context, log *entities.AuditLog) error {
	log.At = a.now().UTC().Truncate(time.Second)
	log.Signature = a.generateSignature(log)

	created, err := a.coll.Create(ctx, log)
	if err != nil {
		a.logger.Error("Failed to insert audit log",
			zap.Error(err),
			zap.String("action", log.Action),
			zap.String("resource_type", log.ResourceType),
		)
		metrics.RecordAuditEvent(log.Action, log.ResourceType, "error")
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	metrics.RecordAuditEvent(log.Action, log.ResourceType, log.Status)
	a.logger.Info("Audit event logged",
		zap.String("id", created.ID),
		zap.String("actor", log.Actor),
		zap.String("action", log.Action),
		zap.String("resource_type", log.ResourceType),
		zap.String("status", log.Status),
	)
	return nil
}

// signaturePayload joins the fields that identify an audit event
func signaturePayload(log *entities.AuditLog) string {
	amount := ""
	if log.Amount != nil {
		amount = log.Amount.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
		log.Actor,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		amount,
		log.Status,
		log.At.Unix(),
	)
}

func (a *AuditService) generateSignature(log *entities.AuditLog) string {
	return crypto.Sign(signaturePayload(log), a.secretKey)
}

// VerifyLogIntegrity verifies the HMAC signature of an audit log
func (a *AuditService) VerifyLogIntegrity(log *entities.AuditLog) bool {
	return crypto.VerifySignature(signaturePayload(log), log.Signature, a.secretKey)
}

// ActorTrail returns the most recent events recorded for one actor
func (a *AuditService) ActorTrail(ctx context.Context, actor string, limit int) ([]entities.AuditLog, error) {
	q := docstore.Query{}.
		Where("actor", docstore.OpEq, actor).
		OrderByField("at", true).
		WithLimit(limit)
	return a.coll.Find(ctx, q)
}
