package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

var (
	mu      sync.Mutex
	loggers []*logging.DefaultLeveledLogger
)

var levels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

func NewLogger(scope string) logging.LeveledLogger {
	l := loggerFactory.NewLogger(scope)
	if dl, ok := l.(*logging.DefaultLeveledLogger); ok {
		mu.Lock()
		loggers = append(loggers, dl)
		mu.Unlock()
	}
	return l
}

// SetLevel changes the level of every logger created so far and of the
// ones created afterwards.
func SetLevel(level logging.LogLevel) {
	mu.Lock()
	defer mu.Unlock()

	loggerFactory.DefaultLogLevel = level
	for _, l := range loggers {
		l.SetLevel(level)
	}
}

// ParseLevel maps a level name such as "debug" to its logging.LogLevel.
func ParseLevel(name string) (logging.LogLevel, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
