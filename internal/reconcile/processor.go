package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/internal/model"
	"github.com/sells-group/verify-feedback/pkg/verify"
)

// Skip reasons reported in per-event results.
const (
	reasonNotOTPFactor   = "not an SMS/voice OTP factor"
	reasonNoPhone        = "phone number not resolvable"
	reasonNoVerification = "no pending verification"
)

// PhoneResolver resolves a user's OTP channel to an enrolled phone number.
type PhoneResolver interface {
	Resolve(ctx context.Context, userID string, channel model.Channel) (phone string, ok bool, err error)
}

// FeedbackSubmitter marks a pending verification approved.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, phone string) (v *verify.Verification, approved bool, err error)
}

// Processor runs the classify → resolve → submit pipeline for one event.
type Processor struct {
	resolver  PhoneResolver
	submitter FeedbackSubmitter
	verbose   bool
}

// NewProcessor creates a Processor. verbose gates raw per-event payload
// dumps at debug level.
func NewProcessor(resolver PhoneResolver, submitter FeedbackSubmitter, verbose bool) *Processor {
	return &Processor{resolver: resolver, submitter: submitter, verbose: verbose}
}

// ProcessOne produces the feedback result for a single event. It never
// returns an error and never panics outward: every failure, including a
// panic below the resolver or submitter, converts to a StatusError result
// tagged with whatever user id was known. Events that classify as
// ChannelNone return immediately with zero outbound calls.
func (p *Processor) ProcessOne(ctx context.Context, index int, ev model.AuthenticationEvent) (res model.FeedbackResult) {
	res = model.FeedbackResult{EventIndex: index, UserID: ev.ActorID()}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("panic while processing event",
				zap.Int("event_index", index),
				zap.String("user_id", res.UserID),
				zap.Any("panic", r),
			)
			res.Status = model.StatusError
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if p.verbose {
		zap.L().Debug("event payload",
			zap.Int("event_index", index),
			zap.Any("event", ev),
		)
	}

	channel := Classify(ev)
	if channel == model.ChannelNone {
		res.Status = model.StatusSkipped
		res.Reason = reasonNotOTPFactor
		return res
	}

	phone, ok, err := p.resolver.Resolve(ctx, res.UserID, channel)
	if err != nil {
		zap.L().Error("factor resolution failed",
			zap.Int("event_index", index),
			zap.String("user_id", res.UserID),
			zap.Error(err),
		)
		res.Status = model.StatusError
		res.Error = err.Error()
		return res
	}
	if !ok {
		res.Status = model.StatusSkipped
		res.Reason = reasonNoPhone
		return res
	}

	v, approved, err := p.submitter.Submit(ctx, phone)
	if err != nil {
		zap.L().Error("feedback submission failed",
			zap.Int("event_index", index),
			zap.String("user_id", res.UserID),
			zap.Error(err),
		)
		res.Status = model.StatusError
		res.Error = err.Error()
		return res
	}
	if !approved {
		res.Status = model.StatusSkipped
		res.Reason = reasonNoVerification
		return res
	}

	zap.L().Info("verification approved",
		zap.Int("event_index", index),
		zap.String("user_id", res.UserID),
		zap.String("verification_sid", v.SID),
	)
	res.Status = model.StatusSuccess
	res.PhoneNumber = phone
	res.VerificationSID = v.SID
	return res
}
