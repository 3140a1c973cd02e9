// Package hook implements the inbound Okta hook HTTP boundary.
package hook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/internal/model"
)

// Header names on inbound hook requests. Okta sends the one-time challenge
// when the hook is first enabled; auth_secret is the custom header
// configured on the hook endpoint.
const (
	challengeHeader  = "X-Okta-Verification-Challenge"
	authSecretHeader = "Auth_secret"
)

// BatchReconciler turns a delivery's events into one summary.
type BatchReconciler interface {
	Reconcile(ctx context.Context, events []model.AuthenticationEvent) model.BatchSummary
}

// deliveryPayload is the event hook request body.
type deliveryPayload struct {
	Data struct {
		Events []model.AuthenticationEvent `json:"events"`
	} `json:"data"`
}

// Handler answers Okta event hook deliveries: it echoes the one-time
// verification challenge, authenticates the shared secret, and hands the
// event array to the reconciler. Everything it writes is JSON; no failure
// escapes past the handler.
type Handler struct {
	secret     string
	reconciler BatchReconciler
}

// NewHandler creates the event hook handler.
func NewHandler(secret string, reconciler BatchReconciler) *Handler {
	return &Handler{secret: secret, reconciler: reconciler}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The challenge arrives during hook registration, before any custom
	// header is configured, so it is answered ahead of the secret check.
	if challenge := r.Header.Get(challengeHeader); challenge != "" {
		zap.L().Info("answering hook verification challenge")
		writeJSON(w, http.StatusOK, map[string]string{"verification": challenge})
		return
	}

	if !h.authenticated(r) {
		zap.L().Warn("hook delivery rejected: authentication failed")
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return
	}

	deliveryID := uuid.NewString()

	var payload deliveryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		zap.L().Warn("hook delivery rejected: malformed payload",
			zap.String("delivery_id", deliveryID),
			zap.Error(err),
		)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	zap.L().Info("hook delivery received",
		zap.String("delivery_id", deliveryID),
		zap.Int("events", len(payload.Data.Events)),
	)

	summary := h.reconciler.Reconcile(r.Context(), payload.Data.Events)
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) authenticated(r *http.Request) bool {
	return secretsEqual(r.Header.Get(authSecretHeader), h.secret)
}

func secretsEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
