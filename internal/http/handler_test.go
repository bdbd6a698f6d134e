package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wenwu/saas-platform/panel-service/internal/service"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("package: %w", service.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "forbidden",
			err:        service.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "insufficient funds",
			err:        service.ErrInsufficientFunds,
			wantStatus: http.StatusBadRequest,
			wantCode:   "insufficient_funds",
		},
		{
			name:       "insufficient capacity",
			err:        &service.InsufficientCapacityError{NodeID: "node-1", Dimensions: []string{"ram"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "insufficient_capacity",
		},
		{
			name:       "node in use",
			err:        fmt.Errorf("%w: 3 servers", service.ErrNodeInUse),
			wantStatus: http.StatusBadRequest,
			wantCode:   "node_in_use",
		},
		{
			name:       "invalid action",
			err:        service.ErrInvalidAction,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "invalid billing cycle",
			err:        service.ErrInvalidBillingCycle,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "unknown error stays opaque",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, tt.err)
			require.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantCode != "" {
				require.Equal(t, tt.wantCode, body["code"])
			}
			// Internal errors never leak their cause to the client.
			if tt.wantStatus == http.StatusInternalServerError {
				require.Equal(t, "internal error", body["error"])
			}
		})
	}
}

func TestInsufficientCapacityResponseNamesDimensions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondServiceError(c, &service.InsufficientCapacityError{
		NodeID:     "node-1",
		Dimensions: []string{"ram", "cpu"},
	})

	var body struct {
		Dimensions []string `json:"dimensions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, []string{"ram", "cpu"}, body.Dimensions)
}
