// Package logger wraps logrus with the module-tagged structured variants
// used throughout agentrelay: Debug/Info/Warn/Error for plain messages,
// DebugX/InfoX/WarnX/ErrorX for messages tagged with a module name and
// key/value fields.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	std     = logrus.New()
	logFile *os.File
	mu      sync.Mutex
)

func init() {
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	std.SetLevel(logrus.InfoLevel)
	std.SetOutput(os.Stderr)
}

// SetLevel parses and applies a log level by name (debug, info, warn, error).
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// InitLog opens path for append and duplicates log output to it alongside
// stderr. Call FlushLog on shutdown to release the file handle.
func InitLog(path string) error {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// FlushLog closes the underlying log file, if one was opened via InitLog.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(format string, args ...interface{}) { std.Debugf(format, args...) }
func Info(format string, args ...interface{})  { std.Infof(format, args...) }
func Warn(format string, args ...interface{})  { std.Warnf(format, args...) }
func Error(format string, args ...interface{}) { std.Errorf(format, args...) }

// DebugX logs at debug level, tagging the record with module and any
// trailing key/value pairs as structured fields.
func DebugX(module, format string, kv ...interface{}) { withModule(module, kv...).Debugf(format, kv...) }
func InfoX(module, format string, kv ...interface{})  { withModule(module, kv...).Infof(format, kv...) }
func WarnX(module, format string, kv ...interface{})  { withModule(module, kv...).Warnf(format, kv...) }
func ErrorX(module, format string, kv ...interface{}) { withModule(module, kv...).Errorf(format, kv...) }

func withModule(module string, kv ...interface{}) *logrus.Entry {
	fields := logrus.Fields{"module": module}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return std.WithFields(fields)
}
