package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisperly/backend/internal/apperr"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{"not found", apperr.New(apperr.NotFound, "User not found"), http.StatusNotFound, "User not found"},
		{"forbidden", apperr.New(apperr.Forbidden, "User is not accepting messages"), http.StatusForbidden, "User is not accepting messages"},
		{"conflict", apperr.New(apperr.Conflict, "You have already liked this story"), http.StatusBadRequest, "You have already liked this story"},
		{"internal hides details", errors.New("dial tcp 10.0.0.1:5432: refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
			rec := httptest.NewRecorder()

			Error(rec, req, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, Body{"isAcceptingMessages": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["isAcceptingMessages"])
}

func TestDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":`))
	var v struct{ Content string }
	err := Decode(req, &v)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}
