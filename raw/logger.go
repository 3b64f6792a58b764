package raw

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	loggerSet  bool
)

// Logger returns the raw package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the raw package's logger.
// This must be called before any engine is created. A nil l restores the
// no-op logger.
func SetLogger(l *zap.Logger) {
	loggerSet = l != nil
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// fatalLogger returns the logger used for fail-fast diagnostics.
// A fatal diagnostic must reach stderr even when no logger was configured.
func fatalLogger(l *zap.Logger, configured bool) *zap.Logger {
	if configured {
		return l
	}
	return zap.Must(zap.NewProduction())
}
