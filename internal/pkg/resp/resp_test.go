package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomcast/internal/pkg/errs"
)

func TestRespondList(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)

	RespondList(rec, req, []string{"Alice", "Bob"}, 2)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"items":["Alice","Bob"],"count":2}}`, rec.Body.String())
}

func TestRespondListEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)

	RespondList(rec, req, []string{}, 0)

	assert.JSONEq(t, `{"code":0,"message":"success","data":{"items":[],"count":0}}`, rec.Body.String())
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        *errs.CustomError
		wantStatus int
		wantCode   int
	}{
		{name: "business error", err: errs.NewError(errs.ErrInvalidParams), wantStatus: http.StatusOK, wantCode: errs.ErrInvalidParams},
		{name: "storage error", err: errs.NewError(errs.ErrHistoryPersistFailed), wantStatus: http.StatusInternalServerError, wantCode: errs.ErrHistoryPersistFailed},
		{name: "nil falls back to unknown", err: nil, wantStatus: http.StatusInternalServerError, wantCode: errs.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body JSONResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Nil(t, body.Data)
		})
	}
}

func TestRespondJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondJSON(rec, req, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
