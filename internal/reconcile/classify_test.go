package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/verify-feedback/internal/model"
)

func event(result, reason, debugFactor string) model.AuthenticationEvent {
	ev := model.AuthenticationEvent{}
	if result != "" || reason != "" {
		ev.Outcome = &model.Outcome{Result: result, Reason: reason}
	}
	if debugFactor != "" {
		ev.DebugContext = &model.DebugContext{DebugData: &model.DebugData{Factor: debugFactor}}
	}
	return ev
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   model.AuthenticationEvent
		want model.Channel
	}{
		{"sms debug factor", event("SUCCESS", "", "SMS_FACTOR"), model.ChannelSMS},
		{"call debug factor", event("SUCCESS", "", "CALL_FACTOR"), model.ChannelCall},
		{"sms in reason text", event("SUCCESS", "User verified SMS_FACTOR successfully", ""), model.ChannelSMS},
		{"call in reason text", event("SUCCESS", "User verified CALL_FACTOR successfully", ""), model.ChannelCall},
		{"sms wins over call reason", event("SUCCESS", "CALL_FACTOR", "SMS_FACTOR"), model.ChannelSMS},
		{"failed outcome", event("FAILED", "", "SMS_FACTOR"), model.ChannelNone},
		{"missing outcome", event("", "", "SMS_FACTOR"), model.ChannelNone},
		{"success without factor", event("SUCCESS", "", ""), model.ChannelNone},
		{"unknown factor", event("SUCCESS", "", "PUSH_FACTOR"), model.ChannelNone},
		{"substring match is permissive", event("SUCCESS", "prefixSMS_FACTORsuffix", ""), model.ChannelSMS},
		{"empty event", model.AuthenticationEvent{}, model.ChannelNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.ev))
		})
	}
}

func TestClassify_NonSuccessAlwaysNone(t *testing.T) {
	t.Parallel()

	// Whatever the factor fields say, a non-SUCCESS outcome never yields
	// a channel.
	for _, result := range []string{"FAILURE", "FAILED", "DENY", "skipped", ""} {
		assert.Equal(t, model.ChannelNone, Classify(event(result, "SMS_FACTOR CALL_FACTOR", "SMS_FACTOR")), "result=%q", result)
	}
}
