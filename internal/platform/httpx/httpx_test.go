package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: no klines", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad length", ErrValidation), http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("password=secret"))
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestBlob(t *testing.T) {
	rr := httptest.NewRecorder()
	Blob(rr, http.StatusOK, "image/svg+xml", []byte("<svg/>"))
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Equal(t, "6", rr.Header().Get("Content-Length"))
	assert.Equal(t, "<svg/>", rr.Body.String())
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Title string `json:"title"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","extra":1}`))
	assert.Error(t, DecodeJSON(req, &target))
}
