package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/verify-feedback/internal/config"
	"github.com/sells-group/verify-feedback/internal/reconcile"
	"github.com/sells-group/verify-feedback/pkg/okta"
	"github.com/sells-group/verify-feedback/pkg/verify"
)

// pipelineEnv bundles the clients and reconciler shared by the serve and
// feedback commands. Clients are built once and shared read-only across
// all concurrent event processing.
type pipelineEnv struct {
	Okta       okta.Client
	Verify     verify.Client
	Reconciler *reconcile.Reconciler
}

// initPipeline validates credentials and wires the reconciliation pipeline.
func initPipeline(cfg *config.Config) (*pipelineEnv, error) {
	if cfg.Okta.BaseURL == "" || cfg.Okta.APIToken == "" {
		return nil, eris.New("okta.base_url and okta.api_token are required")
	}
	if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" || cfg.Twilio.VerifyServiceSID == "" {
		return nil, eris.New("twilio.account_sid, twilio.auth_token, and twilio.verify_service_sid are required")
	}

	oktaOpts := []okta.Option{}
	if cfg.Okta.RequestsPerSecond > 0 {
		oktaOpts = append(oktaOpts, okta.WithRateLimit(cfg.Okta.RequestsPerSecond, int(cfg.Okta.RequestsPerSecond)))
	}
	oktaClient := okta.NewClient(cfg.Okta.BaseURL, cfg.Okta.APIToken, oktaOpts...)
	verifyClient := verify.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.VerifyServiceSID)

	processor := reconcile.NewProcessor(
		reconcile.NewResolver(oktaClient),
		reconcile.NewSubmitter(verifyClient),
		cfg.Log.VerboseEvents,
	)
	reconciler := reconcile.NewReconciler(processor, time.Duration(cfg.Hook.TimeoutWarnSecs)*time.Second)

	return &pipelineEnv{
		Okta:       oktaClient,
		Verify:     verifyClient,
		Reconciler: reconciler,
	}, nil
}
