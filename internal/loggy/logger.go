// Package loggy is the engine's logging shim: the teacher's per-id
// Get/Logf/Error API (loggy/logger.go) backed by logrus instead of a
// hand-rolled file writer, so session correlation (spec.md's per-session
// uuid) comes through structured fields rather than string formatting.
package loggy

import (
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ECHO mirrors log output to stderr in addition to the log file,
	// matching the teacher's package-level ECHO switch.
	ECHO bool = false

	// LogFolder is where per-session log files are created.
	LogFolder string = "./logs/"

	mu      sync.Mutex
	loggers = map[string]*Logger{}
	app     = "diskimg"
)

// Logger wraps a logrus.Entry tagged with a session id, preserving the
// teacher's Logf/Log/Error/Debug/Fatal call shape.
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

// Get returns (creating if needed) the logger for session id, keyed by a
// string so both the teacher's integer ids and uuid.UUID session tags
// work uniformly.
func Get(id string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[id]; ok {
		return l
	}
	l := newLogger(id)
	loggers[id] = l
	return l
}

// GetSession is Get keyed by a session uuid (diskimg.DiskImage.Session).
func GetSession(id uuid.UUID) *Logger {
	return Get(id.String())
}

func newLogger(id string) *Logger {
	os.MkdirAll(LogFolder, 0755)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var file *os.File
	if f, err := os.Create(LogFolder + app + "_" + id + ".log"); err == nil {
		file = f
		if ECHO {
			logger.SetOutput(io.MultiWriter(f, os.Stderr))
		} else {
			logger.SetOutput(f)
		}
	} else {
		logger.SetOutput(os.Stderr)
	}

	return &Logger{entry: logger.WithField("session", id), file: file}
}

func (l *Logger) Logf(format string, v ...interface{})   { l.entry.Infof(format, v...) }
func (l *Logger) Log(v ...interface{})                   { l.entry.Info(v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.entry.Errorf(format, v...) }
func (l *Logger) Error(v ...interface{})                 { l.entry.Error(v...) }
func (l *Logger) Debugf(format string, v ...interface{}) { l.entry.Debugf(format, v...) }
func (l *Logger) Debug(v ...interface{})                 { l.entry.Debug(v...) }
func (l *Logger) Fatalf(format string, v ...interface{}) { l.entry.Fatalf(format, v...) }
func (l *Logger) Fatal(v ...interface{})                 { l.entry.Fatal(v...) }

// WithField exposes the underlying structured entry for callers that
// want to attach extra context (track/sector, file path) before logging.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry.WithField(key, value)
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}
