package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"ops@example.com"}`))
		var req emailRequest
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &req))
		assert.Equal(t, "ops@example.com", req.Email)
		assert.NoError(t, ValidateRequest(req))
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","admin":true}`))
		var req emailRequest
		assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &req))
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
		var req emailRequest
		assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &req))
	})
}

func TestValidateRequest(t *testing.T) {
	assert.Error(t, ValidateRequest(emailRequest{}))
	assert.Error(t, ValidateRequest(emailRequest{Email: "not-an-address"}))
}
