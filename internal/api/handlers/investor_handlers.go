package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	"github.com/stack-service/backoffice/pkg/logger"
)

// InvestorService is the investor account surface used by the API
type InvestorService interface {
	Create(ctx context.Context, req *entities.CreateInvestorRequest, adminID string) (*entities.Investor, error)
	Get(ctx context.Context, id string) (*entities.Investor, error)
	GetByUser(ctx context.Context, userID string) (*entities.Investor, error)
	List(ctx context.Context) ([]*entities.Investor, error)
	Update(ctx context.Context, id string, req *entities.UpdateInvestorRequest, adminID string) (*entities.Investor, error)
	SetStatus(ctx context.Context, id string, kind entities.AccountStatusKind, detail, adminID string) (*entities.Investor, error)
	AdjustBalance(ctx context.Context, id string, req *entities.BalanceAdjustmentRequest, adminID string) (*entities.Transaction, error)
	RequestDeletion(ctx context.Context, id string, input *entities.DeletionRequestInput, adminID string) (*entities.Investor, error)
	Transactions(ctx context.Context, investorID string) ([]*entities.Transaction, error)
	AllTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]*entities.Transaction, error)
	Watch(ctx context.Context) (*docstore.Subscription[entities.Investor], error)
}

// InvestorHandlers serves investor administration and the investor's own view
type InvestorHandlers struct {
	investors InvestorService
	logger    *logger.Logger
}

func NewInvestorHandlers(investors InvestorService, logger *logger.Logger) *InvestorHandlers {
	return &InvestorHandlers{investors: investors, logger: logger}
}

// List returns every investor, newest join date first
// @Summary List investors
// @Tags investors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.ListResponse[entities.Investor]
// @Router /api/v1/admin/investors [get]
func (h *InvestorHandlers) List(c *gin.Context) {
	investors, err := h.investors.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(investors))
}

// Create adds an investor
// @Summary Create investor
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body entities.CreateInvestorRequest true "Investor"
// @Success 201 {object} entities.Investor
// @Failure 400 {object} entities.ErrorResponse
// @Router /api/v1/admin/investors [post]
func (h *InvestorHandlers) Create(c *gin.Context) {
	var req entities.CreateInvestorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	investor, err := h.investors.Create(c.Request.Context(), &req, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, investor)
}

// Get returns one investor
// @Summary Get investor
// @Tags investors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Success 200 {object} entities.Investor
// @Failure 404 {object} entities.ErrorResponse
// @Router /api/v1/admin/investors/{id} [get]
func (h *InvestorHandlers) Get(c *gin.Context) {
	investor, err := h.investors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

// Update edits profile fields
// @Summary Update investor
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Param request body entities.UpdateInvestorRequest true "Fields"
// @Success 200 {object} entities.Investor
// @Router /api/v1/admin/investors/{id} [put]
func (h *InvestorHandlers) Update(c *gin.Context) {
	var req entities.UpdateInvestorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	investor, err := h.investors.Update(c.Request.Context(), c.Param("id"), &req, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

// SetStatus changes the account status
// @Summary Set investor account status
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Param request body entities.SetStatusRequest true "Status"
// @Success 200 {object} entities.Investor
// @Router /api/v1/admin/investors/{id}/status [patch]
func (h *InvestorHandlers) SetStatus(c *gin.Context) {
	var req entities.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	investor, err := h.investors.SetStatus(c.Request.Context(), c.Param("id"), req.Kind, req.Detail, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

// AdjustBalance credits or debits the balance with a ledger entry
// @Summary Adjust investor balance
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Param request body entities.BalanceAdjustmentRequest true "Adjustment"
// @Success 201 {object} entities.Transaction
// @Failure 422 {object} entities.ErrorResponse
// @Router /api/v1/admin/investors/{id}/balance-adjustments [post]
func (h *InvestorHandlers) AdjustBalance(c *gin.Context) {
	var req entities.BalanceAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	tx, err := h.investors.AdjustBalance(c.Request.Context(), c.Param("id"), &req, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// RequestDeletion closes the account and schedules its removal
// @Summary Request account deletion
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Param request body entities.DeletionRequestInput false "Reason"
// @Success 200 {object} entities.Investor
// @Failure 409 {object} entities.ErrorResponse
// @Router /api/v1/admin/investors/{id}/deletion-request [post]
func (h *InvestorHandlers) RequestDeletion(c *gin.Context) {
	var input entities.DeletionRequestInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil && err != io.EOF {
			respondBadRequest(c, err)
			return
		}
	}

	investor, err := h.investors.RequestDeletion(c.Request.Context(), c.Param("id"), &input, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

// Transactions lists one investor's ledger
// @Summary Investor transactions
// @Tags investors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Success 200 {object} entities.ListResponse[entities.Transaction]
// @Router /api/v1/admin/investors/{id}/transactions [get]
func (h *InvestorHandlers) Transactions(c *gin.Context) {
	txs, err := h.investors.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(txs))
}

// AllTransactions lists the platform ledger, optionally by type and status
// @Summary All transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param type query string false "Transaction type"
// @Param status query string false "Transaction status"
// @Success 200 {object} entities.ListResponse[entities.Transaction]
// @Router /api/v1/admin/transactions [get]
func (h *InvestorHandlers) AllTransactions(c *gin.Context) {
	txs, err := h.investors.AllTransactions(c.Request.Context(), transactionFilter(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(txs))
}

// Stream pushes the investor list as server-sent events whenever it changes.
// The subscription ends when the client disconnects.
// @Summary Live investor list
// @Tags investors
// @Produce text/event-stream
// @Security BearerAuth
// @Router /api/v1/admin/investors/stream [get]
func (h *InvestorHandlers) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.investors.Watch(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer sub.Unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// Streams outlive the server write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-sub.Updates():
			if !ok {
				return false
			}
			if snap.Err != nil {
				h.logger.CtxError(ctx, "Investor stream query failed", "request_id", getRequestID(c), "error", snap.Err)
				c.SSEvent("error", entities.ErrorResponse{Code: "INTERNAL_ERROR", Message: genericErrorMessage})
				return false
			}
			c.SSEvent("investors", entities.NewListResponse(snap.Items))
			return true
		}
	})
}

// Me returns the signed-in investor's own record
// @Summary My investor profile
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.Investor
// @Router /api/v1/me [get]
func (h *InvestorHandlers) Me(c *gin.Context) {
	investor, err := h.investors.GetByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

// MyTransactions lists the signed-in investor's ledger
// @Summary My transactions
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.ListResponse[entities.Transaction]
// @Router /api/v1/me/transactions [get]
func (h *InvestorHandlers) MyTransactions(c *gin.Context) {
	investor, err := h.investors.GetByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	txs, err := h.investors.Transactions(c.Request.Context(), investor.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(txs))
}

func transactionFilter(c *gin.Context) repositories.TransactionFilter {
	return repositories.TransactionFilter{
		Type:   entities.TransactionType(c.Query("type")),
		Status: entities.TransactionStatus(c.Query("status")),
	}
}
