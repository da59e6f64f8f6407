package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/services/analytics"
	"github.com/stack-service/backoffice/pkg/logger"
)

// CommissionService is the commission surface used by the API
type CommissionService interface {
	List(ctx context.Context) ([]*entities.Commission, error)
	Summary(ctx context.Context) (*analytics.CommissionTotals, error)
	Withdraw(ctx context.Context, req *entities.CommissionWithdrawalRequest, adminID string) (*entities.CommissionWithdrawal, error)
	Withdrawals(ctx context.Context) ([]*entities.CommissionWithdrawal, error)
}

type CommissionHandlers struct {
	commissions CommissionService
	logger      *logger.Logger
}

func NewCommissionHandlers(commissions CommissionService, logger *logger.Logger) *CommissionHandlers {
	return &CommissionHandlers{commissions: commissions, logger: logger}
}

// List returns every commission record
// @Summary List commissions
// @Tags commissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.ListResponse[entities.Commission]
// @Router /api/v1/admin/commissions [get]
func (h *CommissionHandlers) List(c *gin.Context) {
	items, err := h.commissions.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(items))
}

// Summary returns earned, pending, withdrawn and available commission
// @Summary Commission summary
// @Tags commissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.CommissionTotals
// @Router /api/v1/admin/commissions/summary [get]
func (h *CommissionHandlers) Summary(c *gin.Context) {
	summary, err := h.commissions.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Withdrawals lists commission payouts
// @Summary List commission withdrawals
// @Tags commissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.ListResponse[entities.CommissionWithdrawal]
// @Router /api/v1/admin/commissions/withdrawals [get]
func (h *CommissionHandlers) Withdrawals(c *gin.Context) {
	items, err := h.commissions.Withdrawals(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entities.NewListResponse(items))
}

// Withdraw pays out available commission
// @Summary Withdraw commission
// @Tags commissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body entities.CommissionWithdrawalRequest true "Payout"
// @Success 201 {object} entities.CommissionWithdrawal
// @Failure 422 {object} entities.ErrorResponse
// @Router /api/v1/admin/commissions/withdrawals [post]
func (h *CommissionHandlers) Withdraw(c *gin.Context) {
	var req entities.CommissionWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	payout, err := h.commissions.Withdraw(c.Request.Context(), &req, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, payout)
}
