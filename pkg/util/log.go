package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Migration workers log through entries
// derived from it so every line carries the pair or device it concerns.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(textFormatter())
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// ConfigureLogging sets the level and format in one call. Debug output is
// enabled by verbose; json switches to one JSON object per line.
func ConfigureLogging(verbose, json bool) {
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}
	if json {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05Z07:00",
		})
	} else {
		Logger.SetFormatter(textFormatter())
	}
}

// SetLogOutput redirects log output, mostly for tests.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithDevice returns a logger tagged with a device address or hostname.
func WithDevice(device string) *logrus.Entry {
	return Logger.WithField("device", device)
}

// WithPair returns a logger carrying both ends of a migration.
func WithPair(source, target string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"source": source,
		"target": target,
	})
}

// Warnf logs a formatted warning on the global logger.
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}
