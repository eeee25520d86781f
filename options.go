package seqtree

import (
	"time"

	"github.com/goliatone/go-seqtree/pkg/activity"
	"github.com/goliatone/go-seqtree/step"
)

// Option configures Reconstruct.
type Option func(*config)

type config struct {
	evaluator      Evaluator
	filter         string
	filterArgs     map[string]any
	programCache   ProgramCache
	functions      *FunctionRegistry
	logger         Logger
	activityHooks  activity.Hooks
	activityConfig activity.Config
	actor          actor
	runID          string
	defaults       []step.Configuration
	clock          func() time.Time
}

func applyOptions(opts []Option) config {
	cfg := config{
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator sets the evaluator used for the step filter. Without it an
// expr-lang evaluator is built on first use.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithStepFilter keeps only the steps for which expr evaluates to true. Step
// keys are bound as variables, alongside "step", "index", "args", "metadata"
// and "now".
func WithStepFilter(expr string) Option {
	return func(cfg *config) {
		cfg.filter = expr
	}
}

// WithFilterArgs exposes args to the step filter as "args". The map is copied.
func WithFilterArgs(args map[string]any) Option {
	return func(cfg *config) {
		cfg.filterArgs = copyMetadata(args)
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// WithStepDefaults layers defaults underneath every step before it is built.
// Defaults are ordered strongest to weakest; the step itself is always
// strongest.
func WithStepDefaults(defaults ...step.Configuration) Option {
	return func(cfg *config) {
		cfg.defaults = append([]step.Configuration(nil), defaults...)
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(cfg *config) {
		cfg.runID = id
	}
}

// WithClock overrides time.Now for durations and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		cfg.clock = now
	}
}

func (cfg config) now() time.Time {
	if cfg.clock != nil {
		return cfg.clock()
	}
	return time.Now()
}

func (cfg config) loggerOrNoop() Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopLogger{}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
