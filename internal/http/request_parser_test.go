package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr error
	}{
		{"number", `{"amount": 12.5}`, 12.5, nil},
		{"dot string", `{"amount": "12.34"}`, 12.34, nil},
		{"comma string", `{"amount": "12,345"}`, 12.35, nil},
		{"null", `{"amount": null}`, 0, nil},
		{"negative", `{"amount": -3}`, 0, core.ErrNegativeAmount},
		{"garbage", `{"amount": "abc"}`, 0, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Amount Amount `json:"amount"`
			}
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(r, &dst)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, float64(dst.Amount))
		})
	}
}

func TestDecodeJSONErrorsAreValidation(t *testing.T) {
	bodies := map[string]string{
		"empty":         "  ",
		"malformed":     `{"name":`,
		"unknown field": `{"nope": 1}`,
		"too large":     `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			var dst struct {
				Name string `json:"name"`
			}
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			assert.ErrorIs(t, decodeJSON(r, &dst), core.ErrValidation)
		})
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = pathID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, gotErr)
	assert.EqualValues(t, 42, got)

	for _, bad := range []string{"0", "-1", "x"} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+bad, nil))
		assert.ErrorIs(t, gotErr, core.ErrValidation, bad)
	}
}

func TestSessionToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, sessionToken(r))

	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", sessionToken(r))

	r.Header.Set("Authorization", "bearer  from-header ")
	assert.Equal(t, "from-header", sessionToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "from-cookie", sessionToken(r))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\x00\tb\x07 "))
	assert.Equal(t, "line\nnext", sanitizeInput("line\nnext"))
}
