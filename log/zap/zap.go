// Package zap adapts a *zap.Logger to l2cache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/l2cache"
)

// Logger writes cache events to L. Error values become zap error fields so
// they render with their stack-free message under the "err" key.
type Logger struct{ L *zap.Logger }

var _ l2cache.Logger = Logger{}

// New names the logger "l2cache".
func New(l *zap.Logger) Logger { return Logger{L: l.Named("l2cache")} }

func (z Logger) Debug(msg string, f l2cache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f l2cache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f l2cache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f l2cache.Fields) { z.L.Error(msg, fields(f)...) }

// fields orders keys so output is stable.
func fields(f l2cache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
