package hook

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/pkg/verify"
)

// telephonyPayload is the Okta telephony inline hook request body. Okta
// generates the OTP code and asks the hook to deliver it.
type telephonyPayload struct {
	Data struct {
		MessageProfile struct {
			PhoneNumber     string `json:"phoneNumber"`
			OTPCode         string `json:"otpCode"`
			DeliveryChannel string `json:"deliveryChannel"`
		} `json:"messageProfile"`
	} `json:"data"`
}

// telephonyResponse is the command envelope Okta expects back from a
// telephony inline hook.
type telephonyResponse struct {
	Commands []telephonyCommand `json:"commands"`
}

type telephonyCommand struct {
	Type  string            `json:"type"`
	Value []telephonyAction `json:"value"`
}

type telephonyAction struct {
	Status              string `json:"status"`
	Provider            string `json:"provider"`
	TransactionID       string `json:"transactionId"`
	TransactionMetadata string `json:"transactionMetadata,omitempty"`
}

// telephonyError is the error envelope for a failed send.
type telephonyError struct {
	Error struct {
		ErrorSummary string                `json:"errorSummary"`
		ErrorCauses  []telephonyErrorCause `json:"errorCauses"`
	} `json:"error"`
}

type telephonyErrorCause struct {
	ErrorSummary string `json:"errorSummary"`
	Reason       string `json:"reason"`
}

// TelephonyHandler answers Okta telephony inline hooks by sending the
// Okta-generated OTP through Twilio Verify as a custom code.
type TelephonyHandler struct {
	secret string
	verify verify.Client
}

// NewTelephonyHandler creates the telephony hook handler.
func NewTelephonyHandler(secret string, client verify.Client) *TelephonyHandler {
	return &TelephonyHandler{secret: secret, verify: client}
}

func (h *TelephonyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(authSecretHeader)
	if !secretsEqual(got, h.secret) {
		zap.L().Warn("telephony hook rejected: authentication failed")
		writeTelephonyError(w, "Authentication failed", "invalid auth_secret header")
		return
	}

	var payload telephonyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		zap.L().Warn("telephony hook rejected: malformed payload", zap.Error(err))
		writeTelephonyError(w, "invalid payload", err.Error())
		return
	}

	profile := payload.Data.MessageProfile
	channel := "call"
	if strings.EqualFold(profile.DeliveryChannel, "sms") {
		channel = "sms"
	}

	v, err := h.verify.CreateVerification(r.Context(), profile.PhoneNumber, channel, profile.OTPCode)
	if err != nil {
		zap.L().Error("telephony send failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		writeTelephonyError(w, "OTP delivery failed", err.Error())
		return
	}

	var attemptSID string
	if n := len(v.SendCodeAttempts); n > 0 {
		attemptSID = v.SendCodeAttempts[n-1].AttemptSID
	}

	zap.L().Info("telephony OTP sent",
		zap.String("channel", channel),
		zap.String("verification_sid", v.SID),
	)

	writeJSON(w, http.StatusOK, telephonyResponse{
		Commands: []telephonyCommand{{
			Type: "com.okta.telephony.action",
			Value: []telephonyAction{{
				Status:              "SUCCESSFUL",
				Provider:            "Twilio Verify",
				TransactionID:       v.SID,
				TransactionMetadata: attemptSID,
			}},
		}},
	})
}

// writeTelephonyError responds with Okta's inline hook error envelope.
// Okta expects 200 with an error body, not an HTTP error status.
func writeTelephonyError(w http.ResponseWriter, summary, reason string) {
	var body telephonyError
	body.Error.ErrorSummary = summary
	body.Error.ErrorCauses = []telephonyErrorCause{{ErrorSummary: summary, Reason: reason}}
	writeJSON(w, http.StatusOK, body)
}
