package reconcile

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/pkg/verify"
)

// Submitter reports completed MFAs to Twilio Verify so the matching pending
// verification transitions to approved.
type Submitter struct {
	verify verify.Client
}

// NewSubmitter creates a Submitter backed by the given Verify client.
func NewSubmitter(client verify.Client) *Submitter {
	return &Submitter{verify: client}
}

// Submit marks the pending verification for phone as approved. approved is
// false, with a nil error, when no pending verification exists for the
// number (already completed, expired, or never created) — the expected
// outcome when MFA completion races OTP expiry, and the reason a repeated
// submission for the same number degrades to a skip instead of failing.
func (s *Submitter) Submit(ctx context.Context, phone string) (*verify.Verification, bool, error) {
	v, err := s.verify.UpdateVerification(ctx, phone, verify.StatusApproved)
	if err != nil {
		if errors.Is(err, verify.ErrNoPendingVerification) {
			zap.L().Debug("no pending verification", zap.String("phone", phone))
			return nil, false, nil
		}
		return nil, false, eris.Wrapf(err, "submit feedback for %s", phone)
	}
	return v, true, nil
}
