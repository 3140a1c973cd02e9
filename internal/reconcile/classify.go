// Package reconcile implements the feedback pipeline that closes the loop
// between Okta MFA outcomes and pending Twilio Verify verifications.
package reconcile

import (
	"strings"

	"github.com/sells-group/verify-feedback/internal/model"
)

// Factor tokens as they appear in Okta event payloads, either as the
// structured debug factor or embedded in the free-text outcome reason.
const (
	smsFactorToken  = "SMS_FACTOR"
	callFactorToken = "CALL_FACTOR"
)

// resultSuccess is the outcome.result value for a completed authentication.
const resultSuccess = "SUCCESS"

// Classify maps one authentication event to the OTP channel it used, or
// ChannelNone when the event is not a successful SMS/voice OTP MFA. Pure
// and total: missing fields read as empty strings and classify as none.
//
// The substring match on the free-text reason is a deliberate fallback for
// payloads that lack structured debug data. It is permissive on purpose;
// existing hook integrations rely on its exact behavior.
func Classify(ev model.AuthenticationEvent) model.Channel {
	if ev.OutcomeResult() != resultSuccess {
		return model.ChannelNone
	}
	switch {
	case ev.DebugFactor() == smsFactorToken || strings.Contains(ev.OutcomeReason(), smsFactorToken):
		return model.ChannelSMS
	case ev.DebugFactor() == callFactorToken || strings.Contains(ev.OutcomeReason(), callFactorToken):
		return model.ChannelCall
	}
	return model.ChannelNone
}
