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

// Package log is a thin layer over the go-ethereum logger that adds
// filtered helpers and handler construction for the command line tools.
package log

import (
	gethlog "github.com/ethereum/go-ethereum/log"
	"golang.org/x/exp/slog"
)

// Logger is the go-ethereum logger interface.
type Logger = gethlog.Logger

const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

// Root returns the process wide logger.
func Root() Logger {
	return gethlog.Root()
}

// New returns a logger carrying the given context on every record.
func New(ctx ...interface{}) Logger {
	return gethlog.Root().With(ctx...)
}

func Trace(msg string, ctx ...interface{}) {
	Root().Write(LevelTrace, msg, ctx...)
}

func Debug(msg string, ctx ...interface{}) {
	Root().Write(LevelDebug, msg, ctx...)
}

func Info(msg string, ctx ...interface{}) {
	Root().Write(LevelInfo, msg, ctx...)
}

func Warn(msg string, ctx ...interface{}) {
	Root().Write(LevelWarn, msg, ctx...)
}

func Error(msg string, ctx ...interface{}) {
	Root().Write(LevelError, msg, ctx...)
}

// Crit logs at the critical level and terminates the process.
func Crit(msg string, ctx ...interface{}) {
	gethlog.Crit(msg, ctx...)
}
