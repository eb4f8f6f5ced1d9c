// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package logging configures the process-wide slog logger and carries
// loggers and clocks through contexts.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"

	"github.com/bartekus/cadence/internal/secrets"
)

// ErrInvalidOption is returned for unknown formats and levels.
var ErrInvalidOption = errors.New("invalid logging option")

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	// logFile is the file opened for --log-output, closed when replaced.
	logFile *os.File
)

func init() {
	_ = Configure("text", "warn", "stderr")
}

// Default returns the default logger
func Default() *slog.Logger {
	return defaultLogger
}

// Configure configures the default logger with the given format, level, and output.
// A previously opened log file is closed once the new logger is in place.
func Configure(logFormat, logLevel, logOutput string) error {
	var (
		w  io.Writer
		fd *os.File
	)
	switch logOutput {
	case "stdout", "-":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	default:
		f, err := os.Create(filepath.Clean(logOutput))
		if err != nil {
			return goerr.Wrap(err, "failed to open log file", goerr.V("path", logOutput))
		}
		w, fd = f, f
	}

	logger, err := New(logFormat, logLevel, w)
	if err != nil {
		closeFile(fd)
		return err
	}

	prev := logFile
	defaultLogger, logFile = logger, fd
	closeFile(prev)
	return nil
}

// Close releases the log file opened by Configure, if any, and falls back
// to stderr.
func Close() {
	if logFile == nil {
		return
	}
	prev := logFile
	logFile = nil
	if logger, err := New("text", "warn", os.Stderr); err == nil {
		defaultLogger = logger
	}
	closeFile(prev)
}

func closeFile(f *os.File) {
	if f == nil {
		return
	}
	if err := f.Close(); err != nil {
		defaultLogger.Warn("Fail to close log file", slog.Any("error", err))
	}
}

// New builds a logger writing to w. Secret matches are masked in both formats.
func New(logFormat, logLevel string, w io.Writer) (*slog.Logger, error) {
	filter := masq.New(
		// Mask value with `masq:"secret"` tag
		masq.WithTag("secret"),
		masq.WithType[secrets.Redacted](masq.MaskWithSymbol('*', 16)),
	)

	levelMap := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	level, ok := levelMap[logLevel]
	if !ok {
		return nil, goerr.Wrap(ErrInvalidOption, "invalid log level", goerr.V("value", logLevel))
	}

	var handler slog.Handler
	switch logFormat {
	case "text":
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithSource(true),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgGreen, color.Bold),
					slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
					slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgBlue, color.Bold),
				Time:         color.New(color.FgWhite),
				Message:      color.New(color.FgHiWhite),
				AttrKey:      color.New(color.FgHiCyan),
				AttrValue:    color.New(color.FgHiWhite),
			}),
			clog.WithAttrHook(clog.GoerrHook),
			clog.WithReplaceAttr(filter),
		)

	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		})

	default:
		return nil, goerr.Wrap(ErrInvalidOption, "invalid log format, should be 'json' or 'text'", goerr.V("value", logFormat))
	}

	return slog.New(handler), nil
}
