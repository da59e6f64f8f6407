package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/domain/services/analytics"
	"github.com/stack-service/backoffice/internal/domain/services/export"
	"github.com/stack-service/backoffice/pkg/logger"
)

// AnalyticsService computes the dashboard and the performance report
type AnalyticsService interface {
	Dashboard(ctx context.Context) (*analytics.Dashboard, error)
	PerformanceReport(ctx context.Context) (*analytics.PerformanceReport, error)
}

// TransactionLister lists ledger transactions for the CSV export
type TransactionLister interface {
	AllTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]*entities.Transaction, error)
}

// AnalyticsHandlers serves the dashboard and the downloadable exports
type AnalyticsHandlers struct {
	analytics    AnalyticsService
	transactions TransactionLister
	logger       *logger.Logger
	now          func() time.Time
}

func NewAnalyticsHandlers(analytics AnalyticsService, transactions TransactionLister, logger *logger.Logger) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analytics:    analytics,
		transactions: transactions,
		logger:       logger,
		now:          time.Now,
	}
}

// Dashboard returns the aggregate portfolio view
// @Summary Analytics dashboard
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Dashboard
// @Router /api/v1/admin/analytics/dashboard [get]
func (h *AnalyticsHandlers) Dashboard(c *gin.Context) {
	dashboard, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// PerformanceReport downloads the JSON performance snapshot
// @Summary Download performance report
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.PerformanceReport
// @Router /api/v1/admin/exports/performance-report [get]
func (h *AnalyticsHandlers) PerformanceReport(c *gin.Context) {
	report, err := h.analytics.PerformanceReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	attachment(c, export.ReportFilename("performance-report", "json", h.now()), "application/json")
	if err := export.WriteJSON(c.Writer, report); err != nil {
		h.logger.CtxError(c.Request.Context(), "Failed to write performance report", "error", err)
	}
}

// TransactionsCSV downloads the ledger as CSV
// @Summary Download transactions CSV
// @Tags exports
// @Produce text/csv
// @Security BearerAuth
// @Param type query string false "Transaction type"
// @Param status query string false "Transaction status"
// @Success 200 {string} string "CSV file"
// @Router /api/v1/admin/exports/transactions.csv [get]
func (h *AnalyticsHandlers) TransactionsCSV(c *gin.Context) {
	txs, err := h.transactions.AllTransactions(c.Request.Context(), transactionFilter(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	attachment(c, export.ReportFilename("transactions", "csv", h.now()), "text/csv; charset=utf-8")
	if err := export.WriteTransactionsCSV(c.Writer, txs); err != nil {
		h.logger.CtxError(c.Request.Context(), "Failed to write transactions export", "error", err)
	}
}

func attachment(c *gin.Context, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
}
