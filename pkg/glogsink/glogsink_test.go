package glogsink

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree"
	"github.com/goliatone/go-seqtree/step"
)

func TestFormat(t *testing.T) {
	got := Format(seqtree.LogEvent{
		RunID:    "run-1",
		Stage:    seqtree.StageFilter,
		Engine:   "expr",
		Expr:     `p > 1`,
		Steps:    3,
		Dropped:  2,
		Duration: 5 * time.Millisecond,
	})
	want := `seqtree run=run-1 stage=filter engine=expr expr="p > 1" steps=3 dropped=2 duration=5ms`
	if got != want {
		t.Fatalf("Format:\n got %s\nwant %s", got, want)
	}
}

func TestFormatError(t *testing.T) {
	got := Format(seqtree.LogEvent{
		RunID: "run-2",
		Stage: seqtree.StageActivity,
		Err:   errors.New("hook failed"),
	})
	want := `seqtree run=run-2 stage=activity steps=0 duration=0s err="hook failed"`
	if got != want {
		t.Fatalf("Format:\n got %s\nwant %s", got, want)
	}
}

func TestLoggerDrivesReconstruct(t *testing.T) {
	steps := []step.Configuration{step.Of("a", 1), step.Of("a", 2)}
	_, err := seqtree.Reconstruct(context.Background(), steps,
		seqtree.WithLogger(New(0)),
		seqtree.WithRunID("glog-run"),
	)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
}
