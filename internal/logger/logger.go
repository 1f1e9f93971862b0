package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
)

// New builds the root logger. GS_LOG_LEVEL has already been applied to cfg by config.Load.
func New(cfg config.LoggerConfig, name string) hclog.Logger {
	return NewWithOutput(cfg, name, os.Stderr)
}

func NewWithOutput(cfg config.LoggerConfig, name string, out io.Writer) hclog.Logger {
	level, known := parseLevel(cfg.Level)
	l := hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     out,
		JSONFormat: cfg.JSON,
	})
	if !known {
		l.Warn("unknown log level, using info", "level", cfg.Level)
	}
	return l
}

func parseLevel(s string) (hclog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace, true
	case "DEBUG":
		return hclog.Debug, true
	case "INFO", "":
		return hclog.Info, true
	case "WARN", "WARNING":
		return hclog.Warn, true
	case "ERROR":
		return hclog.Error, true
	case "OFF":
		return hclog.Off, true
	default:
		return hclog.Info, false
	}
}
