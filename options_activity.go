package seqtree

import "github.com/goliatone/go-seqtree/pkg/activity"

// WithActivityHooks attaches hooks notified once per successful
// reconstruction. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides emission defaults. Emission is enabled by
// default whenever hooks are present.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *config) {
		cfg.activityConfig = activityCfg
	}
}

// WithActor records who triggered the reconstruction on emitted events.
func WithActor(actorID, userID, tenantID string) Option {
	return func(cfg *config) {
		cfg.actor = actor{actorID: actorID, userID: userID, tenantID: tenantID}
	}
}

type actor struct {
	actorID  string
	userID   string
	tenantID string
}
