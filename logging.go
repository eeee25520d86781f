package seqtree

import "time"

// Stage names a phase of Reconstruct.
type Stage string

const (
	StageFilter   Stage = "filter"
	StageBuild    Stage = "build"
	StageCompress Stage = "compress"
	StageActivity Stage = "activity"
)

// LogEvent describes one completed stage of a reconstruction.
type LogEvent struct {
	RunID    string
	Stage    Stage
	Engine   string
	Expr     string
	Steps    int
	Dropped  int
	Nodes    int
	Duration time.Duration
	Err      error
}

// Logger records reconstruction events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to Reconstruct.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
