// Package logrus adapts a *logrus.Entry to l2cache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/l2cache"
)

type Logger struct{ E *logrus.Entry }

var _ l2cache.Logger = Logger{}

// New tags every entry with component=l2cache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "l2cache")}
}

func (l Logger) Debug(msg string, f l2cache.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f l2cache.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f l2cache.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f l2cache.Fields) { l.entry(f).Error(msg) }

// entry moves an "err" field to logrus' own error key.
func (l Logger) entry(f l2cache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	e := l.E
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		out[k] = v
	}
	return e.WithFields(out)
}
