package plugins

import (
	"errors"
	"fmt"
)

// ErrNoBackup is returned by rollback when no backup file exists for a plugin.
var ErrNoBackup = errors.New("no backup file exists for plugin")

// ValidationError indicates plugin code failed the trust checks and was
// never installed.
type ValidationError struct {
	Reason string // "empty", "html-error-page", "404-response", "not-valid-script"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plugin validation failed: %s", e.Reason)
}

// PluginError represents an error that occurred in a plugin.
type PluginError struct {
	PluginID  string
	Function  string
	Message   string
	Cause     error
	IsTimeout bool
	IsPanic   bool
}

func (e *PluginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plugin %s: function %s: %s: %v", e.PluginID, e.Function, e.Message, e.Cause)
	}
	return fmt.Sprintf("plugin %s: function %s: %s", e.PluginID, e.Function, e.Message)
}

func (e *PluginError) Unwrap() error {
	return e.Cause
}
