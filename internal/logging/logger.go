// Package logging builds the service logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Supported formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New initializes a logger writing to out at the given level ("debug",
// "info", ...) with a JSON or text formatter
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case FormatJSON, "":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logger, nil
}
