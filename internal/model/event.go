// Package model defines the hook payload and result types shared by the
// reconciliation pipeline.
package model

// Channel is the OTP delivery channel derived from an authentication event.
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelCall Channel = "call"
	ChannelNone Channel = ""
)

// AuthenticationEvent is one element of an Okta event hook delivery.
// Okta guarantees none of the nested fields, so every level is a pointer
// and reads go through the accessor methods below. Field names follow the
// Okta LogEvent schema.
type AuthenticationEvent struct {
	UUID         string        `json:"uuid,omitempty"`
	EventType    string        `json:"eventType,omitempty"`
	Actor        *Actor        `json:"actor,omitempty"`
	Outcome      *Outcome      `json:"outcome,omitempty"`
	DebugContext *DebugContext `json:"debugContext,omitempty"`
}

// Actor identifies the user the event is about.
type Actor struct {
	ID          string `json:"id,omitempty"`
	AlternateID string `json:"alternateId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Outcome carries the authentication result and a free-text reason.
type Outcome struct {
	Result string `json:"result,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// DebugContext wraps the optional debug data blob.
type DebugContext struct {
	DebugData *DebugData `json:"debugData,omitempty"`
}

// DebugData holds the factor token for MFA events, e.g. "SMS_FACTOR".
type DebugData struct {
	Factor string `json:"factor,omitempty"`
}

// ActorID returns the event's user id, or "" when absent.
func (e AuthenticationEvent) ActorID() string {
	if e.Actor == nil {
		return ""
	}
	return e.Actor.ID
}

// OutcomeResult returns outcome.result, or "" when absent.
func (e AuthenticationEvent) OutcomeResult() string {
	if e.Outcome == nil {
		return ""
	}
	return e.Outcome.Result
}

// OutcomeReason returns outcome.reason, or "" when absent.
func (e AuthenticationEvent) OutcomeReason() string {
	if e.Outcome == nil {
		return ""
	}
	return e.Outcome.Reason
}

// DebugFactor returns debugContext.debugData.factor, or "" when absent.
func (e AuthenticationEvent) DebugFactor() string {
	if e.DebugContext == nil || e.DebugContext.DebugData == nil {
		return ""
	}
	return e.DebugContext.DebugData.Factor
}
