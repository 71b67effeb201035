// Package logger builds the process-wide logrus logger.
package logger

import (
    "os"
    "time"

    "github.com/sirupsen/logrus"
)

// New returns a JSON logger writing to stdout.  Debug level is enabled
// outside production.
func New(env string) *logrus.Logger {
    log := logrus.New()
    log.Formatter = &logrus.JSONFormatter{
        FieldMap: logrus.FieldMap{
            logrus.FieldKeyTime:  "timestamp",
            logrus.FieldKeyLevel: "severity",
            logrus.FieldKeyMsg:   "message",
        },
        TimestampFormat: time.RFC3339Nano,
    }
    log.Out = os.Stdout
    if env == "prod" || env == "production" {
        log.SetLevel(logrus.InfoLevel)
    } else {
        log.SetLevel(logrus.DebugLevel)
    }
    return log
}
