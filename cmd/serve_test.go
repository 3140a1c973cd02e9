package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHandler records whether it was invoked.
type stubHandler struct {
	hits int
}

func (h *stubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hits++
	w.WriteHeader(http.StatusOK)
}

func TestNewMux_Health(t *testing.T) {
	mux := newMux(&stubHandler{}, &stubHandler{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestNewMux_Routes(t *testing.T) {
	feedback := &stubHandler{}
	telephony := &stubHandler{}
	mux := newMux(feedback, telephony)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/hooks/okta/mfa-feedback", strings.NewReader("{}")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, feedback.hits)
	assert.Equal(t, 0, telephony.hits)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/hooks/okta/telephony", strings.NewReader("{}")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, telephony.hits)
}

func TestNewMux_MethodNotAllowed(t *testing.T) {
	mux := newMux(&stubHandler{}, &stubHandler{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hooks/okta/mfa-feedback", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
