package gologger

import (
	"io"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

type ConsoleConfig struct {
	Level  string
	JSON   bool
	Writer io.Writer
}

// NormalizeLevel maps a configured level onto the glog level names.
// Unknown or empty values fall back to info.
func NormalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	case "fatal":
		return glog.Fatal
	default:
		return glog.Info
	}
}

// NewConsoleLogger builds the CLI logger: text lines, or JSON lines when
// cfg.JSON is set, written to cfg.Writer (stderr by default). The result is
// also a LoggerProvider that tags named loggers. Fatal logs without exiting.
func NewConsoleLogger(cfg ConsoleConfig) *glog.BaseLogger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}
	options := []glog.Option{
		glog.WithLevel(NormalizeLevel(cfg.Level)),
		glog.WithWriter(writer),
		glog.WithFatalBehavior(glog.FatalBehaviorLogOnly),
		glog.WithLoggerTypeConsole(),
	}
	if cfg.JSON {
		options = append(options, glog.WithLoggerTypeJSON())
	}
	return glog.NewLogger(options...)
}
