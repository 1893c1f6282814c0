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
	"bytes"
	"strings"
	"sync"
	"testing"

	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRoot(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := gethlog.Root()
	t.Cleanup(func() { gethlog.SetDefault(prev) })

	out := new(bytes.Buffer)
	gethlog.SetDefault(gethlog.NewLogger(gethlog.NewTerminalHandlerWithLevel(out, LevelTrace, false)))
	return out
}

func TestEveryN(t *testing.T) {
	out := captureRoot(t)
	every := &EveryN{N: 3}
	for i := 0; i < 7; i++ {
		InfoBy(every, "tick", "i", i)
	}
	assert.Equal(t, 3, strings.Count(out.String(), "tick"))
	assert.Contains(t, out.String(), "i=0")
	assert.Contains(t, out.String(), "i=3")
	assert.Contains(t, out.String(), "i=6")

	var nilFilter *EveryN
	assert.True(t, nilFilter.check())
	assert.True(t, (&EveryN{}).check())
}

func TestIf(t *testing.T) {
	out := captureRoot(t)
	WarnIf(false, "hidden")
	WarnIf(true, "shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}

func TestOnce(t *testing.T) {
	out := captureRoot(t)
	var once Once

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			WarnBy(once.Key(7), "missing source", "index", 7)
		}()
	}
	wg.Wait()
	WarnBy(once.Key(8), "missing source", "index", 8)
	assert.Equal(t, 2, strings.Count(out.String(), "missing source"))
}

func TestNewHandler(t *testing.T) {
	for _, format := range []string{"", "terminal", "logfmt", "json"} {
		h, err := newHandler(format, new(bytes.Buffer), false)
		require.NoError(t, err, format)
		require.NotNil(t, h)
	}
	_, err := newHandler("xml", new(bytes.Buffer), false)
	assert.Error(t, err)
}
