package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/internal/model"
	"github.com/sells-group/verify-feedback/pkg/okta"
)

// Resolver looks up the phone number a user enrolled for an OTP channel.
type Resolver struct {
	okta okta.Client
}

// NewResolver creates a Resolver backed by the given Okta client.
func NewResolver(client okta.Client) *Resolver {
	return &Resolver{okta: client}
}

// Resolve scans the user's enrolled factors in listing order and returns
// the phone number of the first factor whose type matches channel. Users
// can enroll different numbers for the sms and call factors, so the lookup
// is keyed by the channel actually used in the MFA.
//
// ok is false when no factor matches, the listing is empty, or userID is
// empty — a skip signal, not an error. Paging stops as soon as a match is
// found; the remaining listing is never drained.
func (r *Resolver) Resolve(ctx context.Context, userID string, channel model.Channel) (string, bool, error) {
	if userID == "" {
		return "", false, nil
	}

	factors := r.okta.ListFactors(ctx, userID)
	for {
		factor, err := factors.Next(ctx)
		if err != nil {
			return "", false, eris.Wrapf(err, "resolve factors for user %s", userID)
		}
		if factor == nil {
			zap.L().Debug("no matching factor enrolled",
				zap.String("user_id", userID),
				zap.String("channel", string(channel)),
			)
			return "", false, nil
		}
		if factor.FactorType == string(channel) {
			zap.L().Debug("resolved MFA phone number",
				zap.String("user_id", userID),
				zap.String("channel", string(channel)),
				zap.String("factor_id", factor.ID),
			)
			return factor.Profile.PhoneNumber, true, nil
		}
	}
}
