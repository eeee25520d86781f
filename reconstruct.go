package seqtree

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/layering"
	"github.com/goliatone/go-seqtree/pkg/activity"
	"github.com/goliatone/go-seqtree/step"
	"github.com/google/uuid"
)

// Result holds everything produced by one Reconstruct run.
type Result struct {
	RunID string
	// Tree is the uncompressed reconstruction of the accepted steps.
	Tree *Tree
	// Compressed is Tree with adjacent compatible siblings merged.
	Compressed *IteratorTree
	// Traces locate every accepted step in Tree. Trace.Step is the step's
	// index in the input sequence.
	Traces []Trace
	// Accepted and Dropped partition the input indexes by the step filter.
	Accepted []int
	Dropped  []int
}

// Reconstruct filters steps, builds their tree, compresses it and reports the
// run to the configured logger and activity hooks. Hook failures are logged
// and never fail the run.
func Reconstruct(ctx context.Context, steps []step.Configuration, opts ...Option) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := applyOptions(opts)
	runID := cfg.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := cfg.loggerOrNoop()
	res := &Result{RunID: runID}

	accepted, err := cfg.selectSteps(ctx, runID, steps, res)
	if err != nil {
		return nil, err
	}

	start := cfg.now()
	b := NewBuilder()
	for _, s := range accepted {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "seqtree: build after %d steps", b.Len())
		}
		b.Insert(s)
	}
	res.Tree = b.Tree()
	res.Traces = b.Traces()
	for i := range res.Traces {
		res.Traces[i].Step = res.Accepted[i]
	}
	logger.Log(LogEvent{
		RunID:    runID,
		Stage:    StageBuild,
		Steps:    len(accepted),
		Nodes:    res.Tree.Len(),
		Duration: cfg.now().Sub(start),
	})

	start = cfg.now()
	res.Compressed = Compress(res.Tree)
	logger.Log(LogEvent{
		RunID:    runID,
		Stage:    StageCompress,
		Steps:    len(accepted),
		Nodes:    res.Compressed.Len(),
		Duration: cfg.now().Sub(start),
	})

	cfg.emit(ctx, res)
	return res, nil
}

// selectSteps applies step defaults and the step filter, recording accepted
// and dropped indexes on res.
func (cfg *config) selectSteps(ctx context.Context, runID string, steps []step.Configuration, res *Result) ([]step.Configuration, error) {
	start := cfg.now()
	filter, err := newStepFilter(cfg)
	if err != nil {
		cfg.loggerOrNoop().Log(LogEvent{RunID: runID, Stage: StageFilter, Expr: cfg.filter, Err: err})
		return nil, err
	}

	prepared := steps
	if len(cfg.defaults) > 0 {
		prepared = make([]step.Configuration, len(steps))
		for i, s := range steps {
			prepared[i] = layering.Overlay(append([]step.Configuration{s}, cfg.defaults...)...)
		}
	}
	if filter != nil {
		filter.keys = unionKeys(prepared)
	}

	accepted := make([]step.Configuration, 0, len(steps))
	res.Accepted = make([]int, 0, len(steps))
	for i, s := range prepared {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "seqtree: filter at step %d", i)
		}
		if filter != nil {
			keep, err := filter.Keep(i, s, start)
			if err != nil {
				cfg.loggerOrNoop().Log(LogEvent{
					RunID:  runID,
					Stage:  StageFilter,
					Engine: filter.engine,
					Expr:   filter.expr,
					Steps:  i,
					Err:    err,
				})
				return nil, err
			}
			if !keep {
				res.Dropped = append(res.Dropped, i)
				continue
			}
		}
		res.Accepted = append(res.Accepted, i)
		accepted = append(accepted, s)
	}

	if filter != nil {
		cfg.loggerOrNoop().Log(LogEvent{
			RunID:    runID,
			Stage:    StageFilter,
			Engine:   filter.engine,
			Expr:     filter.expr,
			Steps:    len(accepted),
			Dropped:  len(res.Dropped),
			Duration: cfg.now().Sub(start),
		})
	}
	return accepted, nil
}

// unionKeys lists every key used by steps, in order of first appearance.
func unionKeys(steps []step.Configuration) []string {
	seen := map[string]bool{}
	var keys []string
	for _, s := range steps {
		for _, key := range s.Keys() {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func (cfg *config) emit(ctx context.Context, res *Result) {
	emitter := activity.NewEmitter(cfg.activityHooks, cfg.activityConfig)
	if !emitter.Enabled() {
		return
	}
	start := cfg.now()
	event := activity.BuildSequenceReconstructedEvent(activity.SequenceEventInput{
		ActorID:         cfg.actor.actorID,
		UserID:          cfg.actor.userID,
		TenantID:        cfg.actor.tenantID,
		RunID:           res.RunID,
		Steps:           len(res.Accepted),
		Dropped:         len(res.Dropped),
		Nodes:           res.Tree.Len(),
		CompressedNodes: res.Compressed.Len(),
		Filter:          cfg.filter,
		OccurredAt:      start,
	})
	err := emitter.Emit(ctx, event)
	cfg.loggerOrNoop().Log(LogEvent{
		RunID:    res.RunID,
		Stage:    StageActivity,
		Steps:    len(res.Accepted),
		Duration: cfg.now().Sub(start),
		Err:      err,
	})
}
