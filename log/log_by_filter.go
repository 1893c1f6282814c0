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
	"sync"
	"sync/atomic"
)

// LoggerFilter is used to print log when check func returns true.
type LoggerFilter interface {
	check() bool
}

// EveryN lets through the first record and then one out of every N. A nil
// filter or a zero N lets everything through.
type EveryN struct {
	N       uint32
	counter uint32
}

func (e *EveryN) check() bool {
	if e == nil || e.N == 0 {
		return true
	}
	c := atomic.AddUint32(&e.counter, 1)
	return (c-1)%e.N == 0
}

var _ LoggerFilter = &EveryN{}

type ifCondition struct {
	Condition bool
}

func (i *ifCondition) check() bool {
	if i == nil || i.Condition {
		return true
	}
	return false
}

var _ LoggerFilter = &ifCondition{}

// Once lets through the first record for each key and drops the rest. The
// zero value is ready to use and safe for concurrent callers.
type Once struct {
	seen sync.Map
}

// Key returns a filter bound to key.
func (o *Once) Key(key interface{}) LoggerFilter {
	return &onceKey{once: o, key: key}
}

type onceKey struct {
	once *Once
	key  interface{}
}

func (k *onceKey) check() bool {
	_, loaded := k.once.seen.LoadOrStore(k.key, struct{}{})
	return !loaded
}

var _ LoggerFilter = &onceKey{}

func TraceBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(LevelTrace, msg, ctx...)
	}
}

func DebugBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(LevelDebug, msg, ctx...)
	}
}

func InfoBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(LevelInfo, msg, ctx...)
	}
}

func WarnBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(LevelWarn, msg, ctx...)
	}
}

func ErrorBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(LevelError, msg, ctx...)
	}
}

func TraceIf(condition bool, msg string, ctx ...interface{}) {
	filter := &ifCondition{condition}
	TraceBy(filter, msg, ctx...)
}

func DebugIf(condition bool, msg string, ctx ...interface{}) {
	filter := &ifCondition{condition}
	DebugBy(filter, msg, ctx...)
}

func InfoIf(condition bool, msg string, ctx ...interface{}) {
	filter := &ifCondition{condition}
	InfoBy(filter, msg, ctx...)
}

func WarnIf(condition bool, msg string, ctx ...interface{}) {
	filter := &ifCondition{condition}
	WarnBy(filter, msg, ctx...)
}

func ErrorIf(condition bool, msg string, ctx ...interface{}) {
	filter := &ifCondition{condition}
	ErrorBy(filter, msg, ctx...)
}
