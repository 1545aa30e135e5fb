package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
)

func performJSON(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
	}{
		{fmt.Errorf("%w: merge session %q", apperr.ErrNotFound, "MRG-x"), http.StatusNotFound},
		{fmt.Errorf("%w: missing package role", apperr.ErrInvalidArgument), http.StatusBadRequest},
		{errors.New("database on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := performJSON(t, func(c *gin.Context) {
			respondServiceError(c, tc.err)
		})
		if w.Code != tc.wantStatus {
			t.Fatalf("respondServiceError(%v) = %d, want %d", tc.err, w.Code, tc.wantStatus)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	w := performJSON(t, NewHealthHandler().HealthCheck)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("health body = %q", w.Body.String())
	}
}
