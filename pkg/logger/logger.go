package logger

// Logger is the leveled logging surface the engine writes to. The
// concrete sink is installed by the CLI once zap is configured; until
// then everything is discarded.
type Logger interface {
	Debugf(format string, v ...any)
	Info(v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

var global Logger = discard{}

// Default returns the active global logger
func Default() Logger {
	return global
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	global.Debugf(format, v...)
}

// Info logs an info message
func Info(v ...any) {
	global.Info(v...)
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	global.Infof(format, v...)
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) {
	global.Warnf(format, v...)
}

// Errorf logs a formatted error message
func Errorf(format string, v ...any) {
	global.Errorf(format, v...)
}

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Info(...any)           {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}
