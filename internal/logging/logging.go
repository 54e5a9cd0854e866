// Package logging builds the process logger and the boundary noise filter.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a production logger with known-noisy third-party messages
// filtered at the boundary. An empty noisy list disables filtering.
func New(noisy []string) (*zap.Logger, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	if len(noisy) == 0 {
		return log, nil
	}
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &filterCore{Core: c, noisy: noisy}
	})), nil
}

// filterCore drops entries whose message contains a configured substring.
// This replaces ambient patching of the host console with an injectable
// filter owned by the logger.
type filterCore struct {
	zapcore.Core
	noisy []string
}

func (f *filterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for _, s := range f.noisy {
		if strings.Contains(ent.Message, s) {
			return ce
		}
	}
	return f.Core.Check(ent, ce)
}

func (f *filterCore) With(fields []zapcore.Field) zapcore.Core {
	return &filterCore{Core: f.Core.With(fields), noisy: f.noisy}
}
