package seqtree

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/pkg/activity"
	"github.com/goliatone/go-seqtree/step"
	"github.com/google/uuid"
)

type recordingLogger struct {
	events []LogEvent
}

func (l *recordingLogger) Log(event LogEvent) {
	l.events = append(l.events, event)
}

func (l *recordingLogger) stages() []Stage {
	out := make([]Stage, len(l.events))
	for i, event := range l.events {
		out[i] = event.Stage
	}
	return out
}

func TestReconstructScenario(t *testing.T) {
	res, err := Reconstruct(context.Background(), scenarioSteps())
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Fatalf("expected generated uuid run id, got %q", res.RunID)
	}
	if res.Tree.String() != Build(scenarioSteps()).String() {
		t.Fatalf("unexpected tree:\n%s", res.Tree)
	}
	if !res.Compressed.Equal(Compress(res.Tree)) {
		t.Fatalf("unexpected compression:\n%s", res.Compressed)
	}
	if len(res.Accepted) != 3 || len(res.Dropped) != 0 || len(res.Traces) != 3 {
		t.Fatalf("unexpected partition accepted=%v dropped=%v traces=%d", res.Accepted, res.Dropped, len(res.Traces))
	}
}

func TestReconstructEmpty(t *testing.T) {
	res, err := Reconstruct(context.Background(), nil)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if res.Tree.Len() != 1 || res.Compressed.Len() != 1 || res.Traces != nil {
		t.Fatalf("expected root-only result, got tree=%d compressed=%d", res.Tree.Len(), res.Compressed.Len())
	}
}

func TestReconstructFilterDropsSteps(t *testing.T) {
	logger := &recordingLogger{}
	res, err := Reconstruct(context.Background(), scenarioSteps(),
		WithStepFilter(`p != "7"`),
		WithLogger(logger),
		WithRunID("run-filter"),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(res.Accepted) != 2 || res.Accepted[0] != 0 || res.Accepted[1] != 2 {
		t.Fatalf("unexpected accepted %v", res.Accepted)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != 1 {
		t.Fatalf("unexpected dropped %v", res.Dropped)
	}
	if res.Traces[1].Step != 2 {
		t.Fatalf("traces must report input indexes, got %d", res.Traces[1].Step)
	}
	want := "root\n  fpu=[fpu1] p=[0]\n    filter=[r g]\n"
	if got := res.Compressed.String(); got != want {
		t.Fatalf("unexpected compression:\n%s\nwant:\n%s", got, want)
	}

	stages := logger.stages()
	if len(stages) != 3 || stages[0] != StageFilter || stages[1] != StageBuild || stages[2] != StageCompress {
		t.Fatalf("unexpected stages %v", stages)
	}
	filterEvent := logger.events[0]
	if filterEvent.Engine != "expr" || filterEvent.Dropped != 1 || filterEvent.Steps != 2 || filterEvent.RunID != "run-filter" {
		t.Fatalf("unexpected filter event %+v", filterEvent)
	}
	if logger.events[1].Nodes != res.Tree.Len() || logger.events[2].Nodes != res.Compressed.Len() {
		t.Fatalf("unexpected node counts %+v", logger.events[1:])
	}
}

func TestReconstructFilterByIndexWithCEL(t *testing.T) {
	res, err := Reconstruct(context.Background(), scenarioSteps(),
		WithEvaluator(NewCELEvaluator()),
		WithStepFilter(`index != 1`),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != 1 {
		t.Fatalf("unexpected dropped %v", res.Dropped)
	}
}

func TestReconstructFilterArgsAndFunctions(t *testing.T) {
	res, err := Reconstruct(context.Background(), scenarioSteps(),
		WithStepFilter(`!skipped(p, args.skip)`),
		WithFilterArgs(map[string]any{"skip": "0"}),
		WithCustomFunction("skipped", func(args ...any) (any, error) {
			return args[0] == args[1], nil
		}),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(res.Accepted) != 1 || res.Accepted[0] != 1 {
		t.Fatalf("unexpected accepted %v", res.Accepted)
	}
}

func TestReconstructFilterMustReturnBool(t *testing.T) {
	logger := &recordingLogger{}
	_, err := Reconstruct(context.Background(), scenarioSteps(), WithStepFilter(`p`), WithLogger(logger))
	if !errors.Is(err, ErrFilterResult) {
		t.Fatalf("expected ErrFilterResult, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Step != 0 {
		t.Fatalf("expected EvaluationError for step 0, got %v", err)
	}
	if len(logger.events) != 1 || logger.events[0].Err == nil {
		t.Fatalf("expected failed filter stage to be logged, got %+v", logger.events)
	}
}

func TestReconstructFilterCompileError(t *testing.T) {
	_, err := Reconstruct(context.Background(), scenarioSteps(), WithStepFilter(`p ==`))
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Step != -1 || evalErr.Engine != "expr" {
		t.Fatalf("expected compile failure metadata, got %+v", evalErr)
	}
}

func TestReconstructHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Reconstruct(ctx, scenarioSteps())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReconstructStepDefaults(t *testing.T) {
	res, err := Reconstruct(context.Background(),
		[]step.Configuration{step.Of("p", 1), step.Of("p", 2, "mode", "y")},
		WithStepDefaults(step.Of("fpu", "fpu0", "mode", "x")),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if !res.Traces[0].Configuration.Equal(step.Of("fpu", "fpu0", "mode", "x", "p", 1)) {
		t.Fatalf("unexpected first step %s", res.Traces[0].Configuration)
	}
	if !res.Traces[1].Configuration.Equal(step.Of("fpu", "fpu0", "mode", "y", "p", 2)) {
		t.Fatalf("step values must win over defaults, got %s", res.Traces[1].Configuration)
	}
	want := "root\n  {fpu:fpu0}\n    {mode:x, p:1}\n    {mode:y, p:2}\n"
	if got := res.Tree.String(); got != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", got, want)
	}
}

func TestReconstructEmitsActivity(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	capture := &activity.CaptureHook{}
	logger := &recordingLogger{}
	res, err := Reconstruct(context.Background(), scenarioSteps(),
		WithActivityHooks(activity.Hooks{nil, capture}),
		WithActor("actor-1", "user-1", "tenant-1"),
		WithStepFilter(`p != "7"`),
		WithRunID("run-activity"),
		WithClock(func() time.Time { return at }),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != activity.VerbSequenceReconstructed || event.ObjectID != "run-activity" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.ActorID != "actor-1" || event.TenantID != "tenant-1" || event.Channel != activity.DefaultChannel {
		t.Fatalf("unexpected event attribution %+v", event)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("expected clock timestamp, got %v", event.OccurredAt)
	}
	if event.Metadata["steps"] != 2 || event.Metadata["dropped"] != 1 ||
		event.Metadata["nodes"] != res.Tree.Len() || event.Metadata["compressed_nodes"] != res.Compressed.Len() {
		t.Fatalf("unexpected metadata %v", event.Metadata)
	}
	stages := logger.stages()
	if len(stages) != 4 || stages[3] != StageActivity || logger.events[3].Duration != 0 {
		t.Fatalf("unexpected stages %v", stages)
	}
}

func TestReconstructLogsHookFailures(t *testing.T) {
	logger := &recordingLogger{}
	hook := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("feed unavailable")
	})
	res, err := Reconstruct(context.Background(), scenarioSteps(),
		WithActivityHooks(activity.Hooks{hook}),
		WithLogger(logger),
	)
	if err != nil || res == nil {
		t.Fatalf("hook failures must not fail the run, got %v", err)
	}
	last := logger.events[len(logger.events)-1]
	if last.Stage != StageActivity || last.Err == nil {
		t.Fatalf("expected logged hook failure, got %+v", last)
	}
}

func TestReconstructActivityDisabled(t *testing.T) {
	capture := &activity.CaptureHook{}
	_, err := Reconstruct(context.Background(), scenarioSteps(),
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Enabled: false}),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events when disabled, got %d", len(capture.Events))
	}
}
