// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"
	"os"

	"flatpak-bundler/internal/bundler"
	"flatpak-bundler/internal/config"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// newLogger returns a slog logger backed by a charm log handler writing to w.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          config.AppName,
		ReportTimestamp: verbose,
	})
	return slog.New(handler)
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newProgressHook returns a phase hook that advances a progress bar over the
// planned phases. The bar is cleared when the pipeline reaches done.
func newProgressHook(w io.Writer, planned []bundler.Phase) bundler.PhaseHook {
	bar := progressbar.NewOptions(len(planned),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("bundling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return func(p bundler.Phase) {
		bar.Describe(p.String())
		_ = bar.Add(1)
		if p == bundler.PhaseDone {
			_ = bar.Finish()
		}
	}
}
