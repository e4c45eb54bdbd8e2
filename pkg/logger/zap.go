package logger

import (
	"go.uber.org/zap"
)

var zapLogger *zap.Logger

// ReplaceLogger installs a zap logger as the global sink
func ReplaceLogger(l *zap.Logger) {
	zapLogger = l
	global = zapSink{sugar: l.Sugar()}
}

// GetLogger returns the underlying zap logger
func GetLogger() *zap.Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return zapLogger
}

type zapSink struct {
	sugar *zap.SugaredLogger
}

func (s zapSink) Debugf(format string, v ...any) {
	s.sugar.Debugf(format, v...)
}

func (s zapSink) Info(v ...any) {
	s.sugar.Info(v...)
}

func (s zapSink) Infof(format string, v ...any) {
	s.sugar.Infof(format, v...)
}

func (s zapSink) Warnf(format string, v ...any) {
	s.sugar.Warnf(format, v...)
}

func (s zapSink) Errorf(format string, v ...any) {
	s.sugar.Errorf(format, v...)
}
