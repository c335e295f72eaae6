package alert

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// ConsoleSink writes alerts to a terminal with color.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a console sink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{w: os.Stdout}
}

// NewConsoleSinkTo creates a console sink writing to w.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return string(types.AlertConsole) }

// Send writes an alert with color-coded severity.
func (s *ConsoleSink) Send(_ context.Context, alert types.Alert) error {
	var prefix string
	switch alert.Level {
	case types.AlertLevelError:
		prefix = color.RedString("[ERROR]")
	case types.AlertLevelWarning:
		prefix = color.YellowString("[WARN]")
	default:
		prefix = color.CyanString("[INFO]")
	}

	var err error
	if alert.DeploymentID != "" {
		_, err = fmt.Fprintf(s.w, "%s [%s/%s] %s\n", prefix, alert.DeploymentGroup, alert.DeploymentID, alert.Message)
	} else {
		_, err = fmt.Fprintf(s.w, "%s %s\n", prefix, alert.Message)
	}
	return err
}
