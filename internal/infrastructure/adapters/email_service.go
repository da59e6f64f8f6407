package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/pkg/retry"
)

// EmailServiceConfig holds email service configuration
type EmailServiceConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	Environment string // "development", "staging", "production"
	BaseURL     string // investor portal, used in links
}

// EmailService sends investor notices through SendGrid
type EmailService struct {
	logger   *zap.Logger
	config   EmailServiceConfig
	client   *sendgrid.Client
	mockMode bool // Set to true in development/testing
	retry    retry.Config
}

// NewEmailService creates a new email service
func NewEmailService(logger *zap.Logger, config EmailServiceConfig) *EmailService {
	mockMode := config.Environment == "development" || config.APIKey == ""

	var client *sendgrid.Client
	if !mockMode {
		client = sendgrid.NewSendClient(config.APIKey)
	}

	return &EmailService{
		logger:   logger,
		config:   config,
		client:   client,
		mockMode: mockMode,
		retry:    retry.DefaultConfig(),
	}
}

// sendEmail is a helper method to send emails via SendGrid or mock
func (e *EmailService) sendEmail(ctx context.Context, to, subject, htmlContent, textContent string) error {
	if e.mockMode {
		e.logger.Info("Email sent successfully (MOCK)",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("content_preview", textContent[:min(100, len(textContent))]+"..."))
		return nil
	}

	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, toEmail, textContent, htmlContent)

	var statusCode int
	err := retry.Do(ctx, e.retry, func(ctx context.Context) error {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		response, err := e.client.SendWithContext(ctxWithTimeout, message)
		if err != nil {
			return err
		}
		statusCode = response.StatusCode
		if response.StatusCode >= 400 {
			statusErr := &sendStatusError{StatusCode: response.StatusCode, Body: response.Body}
			if !retryableSend(statusErr) {
				return &retry.Permanent{Err: statusErr}
			}
			return statusErr
		}
		return nil
	}, retryableSend)
	if err != nil {
		e.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Int("status_code", statusCode),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.Info("Email sent successfully",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("status_code", statusCode))

	return nil
}

// sendStatusError is a non-2xx reply from SendGrid
type sendStatusError struct {
	StatusCode int
	Body       string
}

func (e *sendStatusError) Error() string {
	return fmt.Sprintf("email service error: status %d, body: %s", e.StatusCode, e.Body)
}

// retryableSend retries throttling, server errors and transient network failures
func retryableSend(err error) bool {
	var statusErr *sendStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return retry.IsTemporaryError(err)
}

func formatUSD(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// SendWithdrawalDecision tells an investor how their withdrawal request was decided
func (e *EmailService) SendWithdrawalDecision(ctx context.Context, to, investorName string, req *entities.WithdrawalRequest) error {
	var subject, headline, body string
	switch req.Status {
	case entities.WithdrawalStatusApproved:
		subject = "Your withdrawal has been approved"
		headline = "Withdrawal approved"
		body = fmt.Sprintf("Your withdrawal of %s has been approved. After the platform commission of %s, %s will be paid to %s.",
			formatUSD(req.Amount), formatUSD(req.CommissionAmount), formatUSD(req.NetAmount), req.Destination)
	case entities.WithdrawalStatusRejected:
		subject = "Your withdrawal request was declined"
		headline = "Withdrawal declined"
		body = fmt.Sprintf("Your withdrawal request of %s was declined.", formatUSD(req.Amount))
		if req.Reason != "" {
			body += " Reason: " + req.Reason + "."
		}
	default:
		return fmt.Errorf("withdrawal %s has no decision to report", req.ID)
	}

	textContent := fmt.Sprintf("Hello %s,\n\n%s\n\nYou can review your requests at %s/withdrawals.\n", investorName, body, e.config.BaseURL)
	htmlContent := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<div style="background-color: #f8f9fa; padding: 30px; border-radius: 8px;">
				<h1 style="color: #333;">%s</h1>
				<p style="color: #666; font-size: 16px;">Hello %s,</p>
				<p style="color: #666; font-size: 16px; line-height: 1.5;">%s</p>
				<p style="color: #888; font-size: 14px;">
					<a href="%s/withdrawals" style="color: #007bff;">Review your requests</a>
				</p>
			</div>
		</body>
		</html>`, headline, investorName, body, e.config.BaseURL)

	return e.sendEmail(ctx, to, subject, htmlContent, textContent)
}

// SendDeletionScheduled confirms an account closure request
func (e *EmailService) SendDeletionScheduled(ctx context.Context, to, investorName string, scheduledFor time.Time) error {
	subject := "Your account closure request"
	body := fmt.Sprintf("Your account has been closed and is scheduled for removal on %s.", scheduledFor.Format("January 2, 2006"))
	textContent := fmt.Sprintf("Hello %s,\n\n%s\n", investorName, body)
	htmlContent := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<p style="color: #666; font-size: 16px;">Hello %s,</p>
			<p style="color: #666; font-size: 16px; line-height: 1.5;">%s</p>
		</body>
		</html>`, investorName, body)

	return e.sendEmail(ctx, to, subject, htmlContent, textContent)
}
