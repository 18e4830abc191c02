package observability

import (
	"sync/atomic"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/field"
	logger "github.com/facebookincubator/go-belt/tool/logger/types"
)

// LogLevelFilter drops the entries above the configured level. The root
// logger is created at the trace level and this filter is what actually
// limits the output, so the level may be changed after the loggers are
// derived.
var LogLevelFilter LogLevelFilterT

type LogLevelFilterT struct {
	level atomic.Int64
}

var _ logger.PreHook = (*LogLevelFilterT)(nil)

func (h *LogLevelFilterT) GetLevel() logger.Level {
	return logger.Level(h.level.Load())
}

func (h *LogLevelFilterT) SetLevel(level logger.Level) {
	h.level.Store(int64(level))
}

func (h *LogLevelFilterT) result(level logger.Level) logger.PreHookResult {
	return logger.PreHookResult{Skip: level > h.GetLevel()}
}

func (h *LogLevelFilterT) ProcessInput(
	traceIDs belt.TraceIDs,
	level logger.Level,
	args ...any,
) logger.PreHookResult {
	return h.result(level)
}

func (h *LogLevelFilterT) ProcessInputf(
	traceIDs belt.TraceIDs,
	level logger.Level,
	format string,
	args ...any,
) logger.PreHookResult {
	return h.result(level)
}

func (h *LogLevelFilterT) ProcessInputFields(
	traceIDs belt.TraceIDs,
	level logger.Level,
	message string,
	fields field.AbstractFields,
) logger.PreHookResult {
	return h.result(level)
}
