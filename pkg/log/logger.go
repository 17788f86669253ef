package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger shared by the server and the media worker.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stdout
	l.Level = logrus.InfoLevel
	l.Formatter = &logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	}
	return l
}

// Fields is an alias so callers don't import logrus directly.
type Fields = logrus.Fields

// SetOutput sets the logger output.
func SetOutput(out io.Writer) {
	Logger.SetOutput(out)
}

// SetLevel parses a level name ("debug", "info", ...). Unknown names keep info.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		Logger.Warnf("unknown log level %q, using info", name)
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// JSON switches to the JSON formatter, used when running under a collector.
func JSON() {
	Logger.SetFormatter(&logrus.JSONFormatter{})
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

func WithFields(fields Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { Logger.Fatalf(format, args...) }
