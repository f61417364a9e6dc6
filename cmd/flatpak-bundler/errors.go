// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"flatpak-bundler/internal/bundler"
	"flatpak-bundler/internal/config"
	"flatpak-bundler/internal/flatpak"
	"flatpak-bundler/internal/issue"
)

// classifyError maps a bundle failure to an issue catalog ID (0 when no help page
// applies) and a process exit code.
func classifyError(err error) (issueID issue.Id, code int) {
	var (
		ae       *issue.ActionableError
		cfgErr   *bundler.ConfigError
		depErr   *bundler.DependencyError
		toolErr  *flatpak.ToolError
		ioErr    *bundler.IOError
		issueSet bool
	)
	if errors.As(err, &ae) && ae.IssueID != 0 {
		issueID, issueSet = ae.IssueID, true
	}

	switch {
	case errors.Is(err, context.Canceled):
		return issueID, ExitCanceled
	case errors.As(err, &cfgErr):
		if !issueSet {
			issueID = issue.ManifestInvalidId
		}
		return issueID, ExitConfig
	case errors.As(err, &depErr):
		return issue.DependencyMissingId, ExitDependency
	case errors.As(err, &toolErr):
		switch {
		case !toolErr.NotFound():
			issueID = issue.ToolFailedId
		case filepath.Base(toolErr.Invocation.Binary) == flatpak.DefaultBuilderBinary:
			issueID = issue.FlatpakBuilderNotFoundId
		default:
			issueID = issue.FlatpakNotFoundId
		}
		return issueID, ExitTool
	case errors.As(err, &ioErr):
		if errors.Is(err, fs.ErrPermission) {
			issueID = issue.PermissionDeniedId
		}
		return issueID, ExitIO
	case issueSet && (issueID == issue.ManifestNotFoundId || issueID == issue.ManifestInvalidId || issueID == issue.ConfigLoadFailedId):
		return issueID, ExitConfig
	default:
		return issueID, ExitFailure
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method, which shows the full chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderFailure writes the styled error and, for known failure kinds, the issue help
// page, and returns the ExitError the command should fail with. The error itself has
// been printed, so the ExitError carries only the code.
func renderFailure(stderr io.Writer, err error, cfg *config.Config, verbose bool) *ExitError {
	issueID, code := classifyError(err)
	fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	if catalogEntry := issue.Get(issueID); catalogEntry != nil && code != ExitCanceled {
		rendered, renderErr := catalogEntry.Render(cfg.UI.ColorScheme.GlamourStyle())
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", issueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
	return &ExitError{Code: code}
}
