package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for --log-file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger returns a text logger tagged with a fresh run id. When file is
// set, records go to a rotating file instead of w.
func newLogger(w io.Writer, level, file string) (*slog.Logger, func() error, string, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, nil, "", err
	}

	closeFn := func() error { return nil }

	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		w = lj
		closeFn = lj.Close
	}

	runID := uuid.NewString()
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})).With("run", runID)

	return log, closeFn, runID, nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: use debug, info, warn or error", s)
	}
	return lvl, nil
}
