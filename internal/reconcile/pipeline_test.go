package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/verify-feedback/internal/model"
	"github.com/sells-group/verify-feedback/pkg/okta"
	"github.com/sells-group/verify-feedback/pkg/verify"
)

// These tests run the real clients under the reconciler against httptest
// stand-ins for Okta and Twilio Verify.

type fakeBackends struct {
	oktaHits   atomic.Int32
	verifyHits atomic.Int32
}

// newPipeline wires a reconciler against fake Okta and Verify servers.
// oktaFactors maps user id to that user's factor listing; pendingPhones
// holds the numbers that still have a pending verification.
func newPipeline(t *testing.T, oktaFactors map[string][]okta.Factor, pendingPhones map[string]bool) (*Reconciler, *fakeBackends) {
	t.Helper()
	backends := &fakeBackends{}

	oktaMux := http.NewServeMux()
	oktaMux.HandleFunc("GET /api/v1/users/{id}/factors", func(w http.ResponseWriter, r *http.Request) {
		backends.oktaHits.Add(1)
		factors, ok := oktaFactors[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errorSummary":"no such user"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(factors)
	})
	oktaSrv := httptest.NewServer(oktaMux)
	t.Cleanup(oktaSrv.Close)

	verifyMux := http.NewServeMux()
	verifyMux.HandleFunc("POST /v2/Services/VA123/Verifications/{to}", func(w http.ResponseWriter, r *http.Request) {
		backends.verifyHits.Add(1)
		to := r.PathValue("to")
		w.Header().Set("Content-Type", "application/json")
		if !pendingPhones[to] {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"code": 20404, "status": 404})
			return
		}
		json.NewEncoder(w).Encode(verify.Verification{SID: "VE-" + to, Status: "approved", To: to})
	})
	verifySrv := httptest.NewServer(verifyMux)
	t.Cleanup(verifySrv.Close)

	oktaClient := okta.NewClient(oktaSrv.URL, "test-token")
	verifyClient := verify.NewClient("AC123", "token", "VA123", verify.WithBaseURL(verifySrv.URL))

	processor := NewProcessor(NewResolver(oktaClient), NewSubmitter(verifyClient), false)
	return NewReconciler(processor, 0), backends
}

func TestPipeline_MixedDelivery(t *testing.T) {
	t.Parallel()

	reconciler, backends := newPipeline(t,
		map[string][]okta.Factor{
			"00u-sms":  {{ID: "f1", FactorType: "sms", Profile: okta.Profile{PhoneNumber: "+15551234567"}}},
			"00u-call": {{ID: "f2", FactorType: "call", Profile: okta.Profile{PhoneNumber: "+15557654321"}}},
			"00u-push": {{ID: "f3", FactorType: "push"}},
		},
		map[string]bool{"+15551234567": true},
	)

	events := []model.AuthenticationEvent{
		// 0: sms success, pending verification exists.
		{Actor: &model.Actor{ID: "00u-sms"}, Outcome: &model.Outcome{Result: "SUCCESS"},
			DebugContext: &model.DebugContext{DebugData: &model.DebugData{Factor: "SMS_FACTOR"}}},
		// 1: failed MFA, classifies as none.
		{Actor: &model.Actor{ID: "00u-sms"}, Outcome: &model.Outcome{Result: "FAILED"}},
		// 2: call success but verification already resolved.
		{Actor: &model.Actor{ID: "00u-call"}, Outcome: &model.Outcome{Result: "SUCCESS", Reason: "CALL_FACTOR"}},
		// 3: sms success but no sms factor enrolled.
		{Actor: &model.Actor{ID: "00u-push"}, Outcome: &model.Outcome{Result: "SUCCESS"},
			DebugContext: &model.DebugContext{DebugData: &model.DebugData{Factor: "SMS_FACTOR"}}},
		// 4: unknown user, upstream 404 surfaces as an error.
		{Actor: &model.Actor{ID: "00u-missing"}, Outcome: &model.Outcome{Result: "SUCCESS", Reason: "SMS_FACTOR"}},
	}

	summary := reconciler.Reconcile(context.Background(), events)

	require.Len(t, summary.Results, 5)

	assert.Equal(t, model.StatusSuccess, summary.Results[0].Status)
	assert.Equal(t, "+15551234567", summary.Results[0].PhoneNumber)
	assert.Equal(t, "VE-+15551234567", summary.Results[0].VerificationSID)

	assert.Equal(t, model.StatusSkipped, summary.Results[1].Status)
	assert.Equal(t, reasonNotOTPFactor, summary.Results[1].Reason)

	assert.Equal(t, model.StatusSkipped, summary.Results[2].Status)
	assert.Equal(t, reasonNoVerification, summary.Results[2].Reason)

	assert.Equal(t, model.StatusSkipped, summary.Results[3].Status)
	assert.Equal(t, reasonNoPhone, summary.Results[3].Reason)

	assert.Equal(t, model.StatusError, summary.Results[4].Status)
	assert.NotEmpty(t, summary.Results[4].Error)
	assert.Equal(t, "00u-missing", summary.Results[4].UserID)

	// Events 0, 2, 3, 4 hit the factor registry; only 0 and 2 reached the
	// verification service.
	assert.Equal(t, int32(4), backends.oktaHits.Load())
	assert.Equal(t, int32(2), backends.verifyHits.Load())
}

func TestPipeline_SkippedEventsMakeNoCalls(t *testing.T) {
	t.Parallel()

	reconciler, backends := newPipeline(t, map[string][]okta.Factor{}, map[string]bool{})

	events := []model.AuthenticationEvent{
		{Outcome: &model.Outcome{Result: "FAILED"}},
		{Outcome: &model.Outcome{Result: "SUCCESS"}}, // no factor token anywhere
		{},
	}

	summary := reconciler.Reconcile(context.Background(), events)

	require.Len(t, summary.Results, 3)
	for _, res := range summary.Results {
		assert.Equal(t, model.StatusSkipped, res.Status)
	}
	assert.Zero(t, backends.oktaHits.Load())
	assert.Zero(t, backends.verifyHits.Load())
}
