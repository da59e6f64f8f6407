package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/api/middleware"
	"github.com/stack-service/backoffice/internal/domain/entities"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

// IdentityService is the account surface used by the auth and user endpoints
type IdentityService interface {
	SignUp(ctx context.Context, req *entities.SignUpRequest) (*entities.SessionResponse, error)
	SignIn(ctx context.Context, req *entities.SignInRequest) (*entities.SessionResponse, error)
	ListUsers(ctx context.Context) ([]*entities.User, error)
	SetRole(ctx context.Context, userID string, role entities.Role, adminID string) (*entities.User, error)
	LinkInvestor(ctx context.Context, userID, investorID string) (*entities.User, error)
}

// AuthHandlers serves sign-up, sign-in and user administration
type AuthHandlers struct {
	identity IdentityService
	logger   *logger.Logger
}

func NewAuthHandlers(identity IdentityService, logger *logger.Logger) *AuthHandlers {
	return &AuthHandlers{identity: identity, logger: logger}
}

// SignUp registers an email/password account
// @Summary Sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param request body entities.SignUpRequest true "Credentials"
// @Success 201 {object} entities.SessionResponse
// @Failure 400 {object} entities.ErrorResponse
// @Failure 409 {object} entities.ErrorResponse
// @Router /api/v1/auth/signup [post]
func (h *AuthHandlers) SignUp(c *gin.Context) {
	var req entities.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.identity.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// SignIn exchanges credentials for an access token
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body entities.SignInRequest true "Credentials"
// @Success 200 {object} entities.SessionResponse
// @Failure 401 {object} entities.ErrorResponse
// @Router /api/v1/auth/signin [post]
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var req entities.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.identity.SignIn(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Session returns the signed-in user
// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.UserResponse
// @Router /api/v1/auth/session [get]
func (h *AuthHandlers) Session(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.logger, apperrors.Unauthorized("User not authenticated"))
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// ListUsers lists every account
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entities.ListResponse[entities.UserResponse]
// @Router /api/v1/admin/users [get]
func (h *AuthHandlers) ListUsers(c *gin.Context) {
	users, err := h.identity.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	out := make([]entities.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	c.JSON(http.StatusOK, entities.NewListResponse(out))
}

// SetRole changes a user's role
// @Summary Set user role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body entities.SetRoleRequest true "Role"
// @Success 200 {object} entities.UserResponse
// @Router /api/v1/admin/users/{id}/role [patch]
func (h *AuthHandlers) SetRole(c *gin.Context) {
	var req entities.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.identity.SetRole(c.Request.Context(), c.Param("id"), req.Role, getUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// LinkInvestor binds a user to an investor record
// @Summary Link user to investor
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body entities.LinkInvestorRequest true "Investor"
// @Success 200 {object} entities.UserResponse
// @Router /api/v1/admin/users/{id}/investor [patch]
func (h *AuthHandlers) LinkInvestor(c *gin.Context) {
	var req entities.LinkInvestorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.identity.LinkInvestor(c.Request.Context(), c.Param("id"), req.InvestorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}
