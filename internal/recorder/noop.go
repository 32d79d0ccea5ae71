package recorder

import "CycleScope/internal/engine"

// NoopRecorder is a no-op implementation used when export is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *engine.Result) error { return nil }
func (n *NoopRecorder) Close() error                     { return nil }
