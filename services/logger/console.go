package logsvc

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/user"
)

// ConsoleLogger writes structured text logs through logrus.
type ConsoleLogger struct {
	log *logrus.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

// NewLogrus returns the text logger shared by the console & rollbar loggers.
func NewLogrus(out io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.Out = out
	l.Formatter = &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		TimestampFormat:        "2006/01/02 15:04:05",
		FullTimestamp:          true,
	}
	if debug {
		l.Level = logrus.DebugLevel
	}
	return l
}

func NewConsoleLogger(log *logrus.Logger) *ConsoleLogger {
	return &ConsoleLogger{log: log}
}

// entry turns the loose args of a log call into logrus fields.
// expected fmt: error, map[string]interface{}, user.Caller; anything else goes under "args".
func entry(log *logrus.Logger, args []interface{}) *logrus.Entry {
	e := logrus.NewEntry(log)
	var extra []interface{}
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			e = e.WithError(a)
		case map[string]interface{}:
			e = e.WithFields(a)
		case user.Caller:
			e = e.WithFields(logrus.Fields{"user_id": a.UserID, "role": a.Role})
		default:
			extra = append(extra, a)
		}
	}
	if len(extra) > 0 {
		e = e.WithField("args", extra)
	}
	return e
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { entry(l.log, args).Debug(msg) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { entry(l.log, args).Info(msg) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { entry(l.log, args).Warn(msg) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { entry(l.log, args).Error(msg) }
func (l ConsoleLogger) Fatal(msg string, args ...interface{}) { entry(l.log, args).Fatal(msg) }
