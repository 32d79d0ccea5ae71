package recorder

import "CycleScope/internal/engine"

// Recorder exports the tables of a finished run.
type Recorder interface {
	RecordRun(res *engine.Result) error
	Close() error
}
