// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import (
	"log/slog"

	"github.com/gogpu/jfa/internal/core"
)

// SetLogger configures the logger for jfa and all its sub-packages.
// By default, jfa produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by jfa:
//   - [slog.LevelDebug]: per-pass diagnostics (step, workgroups, seeds)
//   - [slog.LevelInfo]: lifecycle events (strategy selected, device acquired)
//   - [slog.LevelWarn]: non-fatal issues (fallback, device loss)
//
// Example:
//
//	jfa.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)

	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	if a != nil {
		propagateLogger(a, Logger())
	}
}

// Logger returns the current logger used by jfa. It is never nil.
func Logger() *slog.Logger {
	return core.Logger()
}

// loggerSetter is implemented by accelerators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to an accelerator if it implements
// loggerSetter. Called from both SetLogger and RegisterAccelerator.
func propagateLogger(a Accelerator, l *slog.Logger) {
	if ls, ok := a.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
