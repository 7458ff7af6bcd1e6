package app

import (
	"strings"

	"github.com/sonvt1710/graylog2-server/pkg/logger"
)

// ConfigureLogging initialises the global logger from the log section, defaulting to info/json.
func ConfigureLogging(cfg LogConfig) error {
	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(cfg.Format)
	if format == "" {
		format = "json"
	}
	return logger.Init(level, format)
}
