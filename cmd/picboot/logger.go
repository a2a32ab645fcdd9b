package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// logrusLogger adapts logrus to bootloader.Logger.
type logrusLogger struct {
	entry *log.Entry
}

func newLogger(verbose bool) *logrusLogger {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return &logrusLogger{entry: log.NewEntry(logger)}
}

func (l *logrusLogger) Debug(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *logrusLogger) Error(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Error(msg)
}

// fields turns alternating keys and values into logrus fields.
// A trailing key without a value is kept under "!BADKEY".
func fields(kv []interface{}) log.Fields {
	f := make(log.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		f["!BADKEY"] = kv[len(kv)-1]
	}
	return f
}
