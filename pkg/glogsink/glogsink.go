// Package glogsink writes seqtree stage events to glog.
package glogsink

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/goliatone/go-seqtree"
)

// Logger is a seqtree.Logger backed by glog. Failed stages are always logged
// at error severity; successful stages are logged at info severity once glog's
// verbosity reaches Level.
type Logger struct {
	Level glog.Level
}

// New returns a Logger gated at level.
func New(level glog.Level) Logger {
	return Logger{Level: level}
}

// Log implements seqtree.Logger.
func (l Logger) Log(event seqtree.LogEvent) {
	if event.Err != nil {
		glog.ErrorDepth(1, Format(event))
		return
	}
	if glog.V(l.Level) {
		glog.InfoDepth(1, Format(event))
	}
}

// Format renders event as a single key=value line.
func Format(event seqtree.LogEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "seqtree run=%s stage=%s", event.RunID, event.Stage)
	if event.Engine != "" {
		fmt.Fprintf(&b, " engine=%s", event.Engine)
	}
	if event.Expr != "" {
		fmt.Fprintf(&b, " expr=%q", event.Expr)
	}
	fmt.Fprintf(&b, " steps=%d", event.Steps)
	if event.Dropped > 0 {
		fmt.Fprintf(&b, " dropped=%d", event.Dropped)
	}
	if event.Nodes > 0 {
		fmt.Fprintf(&b, " nodes=%d", event.Nodes)
	}
	fmt.Fprintf(&b, " duration=%s", event.Duration)
	if event.Err != nil {
		fmt.Fprintf(&b, " err=%q", event.Err.Error())
	}
	return b.String()
}
