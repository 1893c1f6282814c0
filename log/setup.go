// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"fmt"
	"io"
	"os"

	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where and how log records are written.
type Config struct {
	Verbosity  int    // legacy geth verbosity, 0 (silent) to 5 (trace)
	Format     string // terminal, logfmt or json
	File       string // rotated log file, stderr when empty
	MaxSize    int    `toml:",omitempty"` // megabytes before rotation
	MaxBackups int    `toml:",omitempty"`
	MaxAge     int    `toml:",omitempty"` // days
	Compress   bool   `toml:",omitempty"`
}

// DefaultConfig logs warnings and above to the terminal.
var DefaultConfig = Config{
	Verbosity:  2,
	Format:     "terminal",
	MaxSize:    100,
	MaxBackups: 10,
	MaxAge:     30,
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the root logger described by cfg. The returned closer
// flushes the log file, if any.
func Setup(cfg Config) (io.Closer, error) {
	var (
		output   io.Writer = colorable.NewColorableStderr()
		closer   io.Closer = nopCloser{}
		useColor           = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	)
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		output, closer, useColor = rotator, rotator, false
	}
	handler, err := newHandler(cfg.Format, output, useColor)
	if err != nil {
		return nil, err
	}
	glogger := gethlog.NewGlogHandler(handler)
	glogger.Verbosity(gethlog.FromLegacyLevel(cfg.Verbosity))
	gethlog.SetDefault(gethlog.NewLogger(glogger))
	return closer, nil
}

func newHandler(format string, output io.Writer, useColor bool) (slog.Handler, error) {
	switch format {
	case "", "terminal":
		return gethlog.NewTerminalHandler(output, useColor), nil
	case "logfmt":
		return gethlog.LogfmtHandler(output), nil
	case "json":
		return gethlog.JSONHandler(output), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
