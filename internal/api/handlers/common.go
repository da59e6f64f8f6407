package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/api/middleware"
	"github.com/stack-service/backoffice/internal/domain/entities"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

const genericErrorMessage = "Something went wrong while processing the request. Please try again."

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// getUserID returns the authenticated user id
func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// respondError writes err as an ErrorResponse. Application errors keep their
// code and message. Anything else is logged and answered with a generic
// INTERNAL_ERROR so store or driver detail never reaches the client.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(genericErrorMessage, err)
	}

	switch {
	case appErr.Code == apperrors.ErrCodePermissionDenied:
		log.CtxError(c.Request.Context(), "Data store denied access",
			"request_id", getRequestID(c),
			"path", c.FullPath(),
			"error", err)
	case appErr.StatusCode >= http.StatusInternalServerError:
		log.CtxError(c.Request.Context(), "Request failed",
			"request_id", getRequestID(c),
			"path", c.FullPath(),
			"error", err)
		if appErr.Code == apperrors.ErrCodeInternal {
			appErr = apperrors.New(apperrors.ErrCodeInternal, genericErrorMessage)
		}
	}

	details := map[string]interface{}{"request_id": getRequestID(c)}
	for k, v := range appErr.Details {
		details[k] = v
	}
	c.JSON(appErr.StatusCode, entities.ErrorResponse{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: details,
	})
}

// respondBadRequest reports a body that could not be bound
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, entities.ErrorResponse{
		Code:    string(apperrors.ErrCodeValidation),
		Message: "Invalid request format",
		Details: map[string]interface{}{
			"error":      err.Error(),
			"request_id": getRequestID(c),
		},
	})
}
