package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_IsMatchesWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("save: %w", apperrors.Wrap(apperrors.ErrStorageFault, stderrors.New("disk full")))

	assert.True(t, stderrors.Is(err, apperrors.ErrStorageFault))
	assert.False(t, stderrors.Is(err, apperrors.ErrOrderNotFound))
	assert.Contains(t, err.Error(), "disk full")
}

func TestError_StatusCodes(t *testing.T) {
	cases := map[*apperrors.Error]int{
		apperrors.ErrInvalidCart:       http.StatusBadRequest,
		apperrors.ErrMissingField:      http.StatusBadRequest,
		apperrors.ErrOrderNotFound:     http.StatusNotFound,
		apperrors.ErrUsernameTaken:     http.StatusConflict,
		apperrors.ErrSoulMarkClaimed:   http.StatusConflict,
		apperrors.ErrUserNotFound:      http.StatusNotFound,
		apperrors.ErrPaymentIncomplete: http.StatusBadRequest,
		apperrors.ErrStorageFault:      http.StatusInternalServerError,
		apperrors.ErrTransientNetwork:  http.StatusServiceUnavailable,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.StatusCode(), e.Code)
	}
	assert.Equal(t, http.StatusInternalServerError, apperrors.WithStatus(apperrors.ErrUpstream, http.StatusInternalServerError).StatusCode())
}

func TestFrom_UnknownErrorIsInternal(t *testing.T) {
	appErr := apperrors.From(stderrors.New("boom"))
	assert.Equal(t, apperrors.KindStorage, appErr.Kind)
	assert.Equal(t, "internal_error", appErr.Code)
	assert.Nil(t, apperrors.From(nil))
}

func TestRespond_TransientSetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	apperrors.Respond(c, apperrors.ErrTransientNetwork)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "processor_unavailable")
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("register: %w", apperrors.ErrUsernameTaken)

	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.False(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.False(t, apperrors.IsKind(stderrors.New("plain"), apperrors.KindConflict))
}
