package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/pkg/logger"
)

// WithdrawalService is the withdrawal lifecycle surface used by the API
type WithdrawalService interface {
	Submit(ctx context.Context, investorID string, req *entities.SubmitWithdrawalRequest) (*entities.SubmitWithdrawalResponse, error)
	Approve(ctx context.Context, requestID, reason, adminID string) (*entities.WithdrawalRequest, error)
	Reject(ctx context.Context, requestID, reason, adminID string) (*entities.WithdrawalRequest, error)
	Get(ctx context.Context, requestID string) (*entities.WithdrawalRequest, error)
	List(ctx context.Context, status entities.WithdrawalStatus) ([]*entities.WithdrawalRequest, error)
	ListForInvestor(ctx context.Context, investorID string) ([]*entities.WithdrawalRequest, error)
}

// InvestorLookup resolves the investor record of a signed-in user
type InvestorLookup interface {
	GetByUser(ctx context.Context, userID string) (*entities.Investor, error)
}

// WithdrawalHandlers contains withdrawal handlers
type WithdrawalHandlers struct {
	withdrawals WithdrawalService
	investors   InvestorLookup
	logger      *logger.Logger
}

func NewWithdrawalHandlers(withdrawals WithdrawalService, investors InvestorLookup, logger *logger.Logger) *WithdrawalHandlers {
	return &WithdrawalHandlers{withdrawals: withdrawals, investors: investors, logger: logger}
}

// SubmitForInvestor files a withdrawal on an investor's behalf
// @Summary Submit withdrawal for investor
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor ID"
// @Param request body entities.SubmitWithdrawalRequest true "Withdrawal"
// @Success 201 {object} entities.SubmitWithdrawalResponse
// @Failure 400 {object} entities.ErrorResponse
// @Failure 422 {object} entities.ErrorResponse
// @Router /api/v1/admin/investors/{id}/withdrawals [post]
func (h *WithdrawalHandlers) SubmitForInvestor(c *gin.Context) {
	h.submit(c, c.Param("id"))
}

// SubmitOwn files a withdrawal for the signed-in investor
// @Summary Submit my withdrawal
// @Tags me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body entities.SubmitWithdrawalRequest true "Withdrawal"
// @Success 201 {object} entities.SubmitWithdrawalResponse
// @Failure 400 {object} entities.ErrorResponse
// @Failure 422 {object} entities.ErrorResponse
// @Router /api/v1/me/withdrawals [post]
func (h *WithdrawalHandlers) SubmitOwn(c *gin.Context) {
	investor, err := h.investors.GetByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.submit(c, investor.ID)
}

func (h *WithdrawalHandlers) submit(c *gin.Context, investorID string) {
	var req entities.SubmitWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.withdrawals.Submit(c.Request.Context(), investorID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MyWithdrawals lists the signed-in investor's requests
// @Summary My withdrawals
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.ListResponse[entities.WithdrawalRequest]
// @Router /api/v1/me/withdrawals [get]
func (h *WithdrawalHandlers) MyWithdrawals(c *gin.Context) {
	investor, err := h.investors.GetByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	reqs, err := h.withdrawals.ListForInvestor(c.Request.Context(), investor.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(reqs))
}

// List returns withdrawal requests, optionally by status
// @Summary List withdrawal requests
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending, Approved or Rejected"
// @Success 200 {object} entities.ListResponse[entities.WithdrawalRequest]
// @Router /api/v1/admin/withdrawals [get]
func (h *WithdrawalHandlers) List(c *gin.Context) {
	reqs, err := h.withdrawals.List(c.Request.Context(), entities.WithdrawalStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(reqs))
}

// Get returns one withdrawal request
// @Summary Get withdrawal request
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} entities.WithdrawalRequest
// @Failure 404 {object} entities.ErrorResponse
// @Router /api/v1/admin/withdrawals/{id} [get]
func (h *WithdrawalHandlers) Get(c *gin.Context) {
	req, err := h.withdrawals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Approve approves a pending request
// @Summary Approve withdrawal
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body entities.DecisionRequest false "Note"
// @Success 200 {object} entities.WithdrawalRequest
// @Failure 409 {object} entities.ErrorResponse
// @Router /api/v1/admin/withdrawals/{id}/approve [post]
func (h *WithdrawalHandlers) Approve(c *gin.Context) {
	body, ok := decisionBody(c)
	if !ok {
		return
	}
	req, err := h.withdrawals.Approve(c.Request.Context(), c.Param("id"), body.Reason, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Reject rejects a pending request
// @Summary Reject withdrawal
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body entities.DecisionRequest false "Reason"
// @Success 200 {object} entities.WithdrawalRequest
// @Failure 409 {object} entities.ErrorResponse
// @Router /api/v1/admin/withdrawals/{id}/reject [post]
func (h *WithdrawalHandlers) Reject(c *gin.Context) {
	body, ok := decisionBody(c)
	if !ok {
		return
	}
	req, err := h.withdrawals.Reject(c.Request.Context(), c.Param("id"), body.Reason, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// decisionBody binds the optional decision note. An empty body is allowed.
func decisionBody(c *gin.Context) (entities.DecisionRequest, bool) {
	var body entities.DecisionRequest
	if c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil && err != io.EOF {
		respondBadRequest(c, err)
		return body, false
	}
	return body, true
}
