package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBuilderWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	Created(map[string]int{"id": 7}).Header("X-Extra", "1").Write(rr)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Extra"))
	assert.JSONEq(t, `{"status":"success","data":{"id":7}}`, rr.Body.String())
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		kind    string
		message string
	}{
		{
			name:    "validation keeps the rule",
			err:     fmt.Errorf("create record: %w", core.ErrNegativeAmount),
			code:    http.StatusBadRequest,
			kind:    "validation",
			message: core.ErrNegativeAmount.Error(),
		},
		{
			name: "not found",
			err:  fmt.Errorf("update record: %w", core.NotFound("record", 3)),
			code: http.StatusNotFound,
			kind: "not_found",
		},
		{
			name:    "store detail is hidden",
			err:     fmt.Errorf("%w: disk I/O error", core.ErrStore),
			code:    http.StatusInternalServerError,
			kind:    "store",
			message: "internal error",
		},
		{
			name:    "unclassified counts as store",
			err:     errors.New("boom"),
			code:    http.StatusInternalServerError,
			kind:    "store",
			message: "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			FromError(tt.err).Write(rr)
			assert.Equal(t, tt.code, rr.Code)

			var res Result
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Nil(t, res.Data)
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Message)
			}
		})
	}
}
