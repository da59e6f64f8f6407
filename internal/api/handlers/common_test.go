package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/domain/entities"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

func errorRecorder(t *testing.T, err error) (*httptest.ResponseRecorder, entities.ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Set("request_id", "req-1")

	respondError(c, logger.NewLogger(zaptest.NewLogger(t)), err)

	var body entities.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondError_AppErrorKeepsCodeAndDetails(t *testing.T) {
	w, body := errorRecorder(t, apperrors.Validation("amount", "Amount must be a positive number"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "Amount must be a positive number", body.Message)
	assert.Equal(t, "amount", body.Details["field"])
	assert.Equal(t, "req-1", body.Details["request_id"])
}

func TestRespondError_UnknownErrorIsGeneric(t *testing.T) {
	w, body := errorRecorder(t, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Equal(t, genericErrorMessage, body.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestRespondError_WrappedInternalHidesCause(t *testing.T) {
	w, body := errorRecorder(t, apperrors.Internal("data store request failed", errors.New("mongo: timeout")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, genericErrorMessage, body.Message)
	assert.NotContains(t, w.Body.String(), "mongo")
}

func TestRespondError_PermissionDeniedIsActionable(t *testing.T) {
	err := apperrors.Wrap(errors.New("42501"), apperrors.ErrCodePermissionDenied,
		"The data store refused access. Check that the service account has read and write grants on the documents store.")

	w, body := errorRecorder(t, err)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", body.Code)
	assert.Contains(t, body.Message, "grants")
}
