package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/domain/entities"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

// Context keys set by Authentication
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// Authenticator resolves a bearer token to the stored user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entities.User, error)
}

// Authentication validates the bearer token and loads the user. The role
// comes from the stored user, not from the token claims.
func Authentication(authenticator Authenticator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperrors.Unauthorized("Authorization header required"))
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") || tokenParts[1] == "" {
			abort(c, apperrors.Unauthorized("Invalid authorization format"))
			return
		}

		user, err := authenticator.Authenticate(c.Request.Context(), tokenParts[1])
		if err != nil {
			appErr, ok := apperrors.As(err)
			if !ok || appErr.StatusCode >= http.StatusInternalServerError {
				log.CtxError(c.Request.Context(), "Authentication lookup failed",
					"request_id", c.GetString("request_id"),
					"error", err)
				abort(c, apperrors.New(apperrors.ErrCodeServiceUnavailable, "Unable to verify credentials"))
				return
			}
			abort(c, appErr)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, string(user.Role))
		c.Next()
	}
}

// RequireRole lets through only users holding one of roles
func RequireRole(log *logger.Logger, roles ...entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := entities.Role(c.GetString(ContextRole))
		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		log.Warnw("Insufficient permissions",
			"request_id", c.GetString("request_id"),
			"user_id", c.GetString(ContextUserID),
			"user_role", userRole,
			"required_roles", roles,
			"path", c.Request.URL.Path,
		)
		abort(c, apperrors.Forbidden("Insufficient permissions"))
	}
}

// CurrentUser returns the user stored by Authentication
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entities.User)
	return user, ok
}

func abort(c *gin.Context, err *apperrors.AppError) {
	details := map[string]interface{}{"request_id": c.GetString("request_id")}
	for k, v := range err.Details {
		details[k] = v
	}
	c.AbortWithStatusJSON(err.StatusCode, entities.ErrorResponse{
		Code:    string(err.Code),
		Message: err.Message,
		Details: details,
	})
}
