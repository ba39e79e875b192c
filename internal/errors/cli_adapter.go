package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// CLIErrorAdapter maps errors to exit codes and user-facing messages.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	e, ok := As(err)
	if !ok {
		return 1
	}
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryNetwork, CategoryMessaging:
		return 8
	case CategoryStorage:
		return 9
	case CategoryInternal:
		return 10
	case CategoryBuild, CategoryPlugin, CategoryContent, CategoryFileSystem:
		return 11
	case CategoryDaemon:
		return 12
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	e, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return e.Error()
	}
	switch e.Category {
	case CategoryConfig, CategoryValidation:
		return e.Message
	default:
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
}

// Report logs err and writes the formatted message to w. It returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if e, ok := As(err); ok {
		attrs := []slog.Attr{slog.String("category", string(e.Category))}
		if e.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		if a.verbose && e.Cause != nil {
			attrs = append(attrs, slog.String("cause", e.Cause.Error()))
		}
		a.logger.LogAttrs(context.Background(), levelFor(e.Severity), e.Message, attrs...)
	} else {
		a.logger.Error("Unclassified error", "error", err)
	}
	fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func levelFor(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
