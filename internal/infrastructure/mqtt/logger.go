package mqtt

import (
	"fmt"
	"log/slog"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var discardLogger Logger = slog.New(slog.DiscardHandler)

// pahoLogger adapts one Logger level to paho's Println/Printf logger.
type pahoLogger struct {
	log func(msg string, args ...any)
}

func (p pahoLogger) Println(v ...interface{}) {
	p.log(strings.TrimSpace(fmt.Sprintln(v...)), "source", "paho")
}

func (p pahoLogger) Printf(format string, v ...interface{}) {
	p.log(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "paho")
}

// RouteTransportLogs sends paho's own critical, error and warning output
// to logger. paho's loggers are package globals, so this affects every
// client in the process.
func RouteTransportLogs(logger Logger) {
	pahomqtt.CRITICAL = pahoLogger{log: logger.Error}
	pahomqtt.ERROR = pahoLogger{log: logger.Error}
	pahomqtt.WARN = pahoLogger{log: logger.Warn}
}
