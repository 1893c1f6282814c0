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

// Package sourcemap decodes the compressed source mappings emitted by solc.
//
// A mapping is a list of ';' separated entries of the form
//
//	offset:length:file:jump:modifierDepth
//
// where every field is optional and, when empty or missing, takes the value
// of the same field in the previous entry.
package sourcemap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// JumpKind describes how an instruction transfers control with respect to
// the function it belongs to.
type JumpKind byte

const (
	JumpRegular JumpKind = '-' // regular jump inside a function, or no jump
	JumpInto    JumpKind = 'i' // jump into a function
	JumpOut     JumpKind = 'o' // return from a function
)

func (k JumpKind) String() string {
	return string(rune(k))
}

// Position is one decompressed source mapping record.
type Position struct {
	File          int // source file index, negative for compiler generated code
	Offset        int // byte offset into the source
	Length        int // byte length of the mapped range
	Jump          JumpKind
	ModifierDepth int
}

// End returns the first byte after the mapped range.
func (p Position) End() int {
	return p.Offset + p.Length
}

// Contains reports whether the byte offset lies inside [Offset, End).
func (p Position) Contains(offset int) bool {
	return offset >= p.Offset && offset < p.End()
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d:%d:%c:%d", p.Offset, p.Length, p.File, p.Jump, p.ModifierDepth)
}

// initial is the implicit entry preceding the first one of every mapping.
var initial = Position{File: -1, Jump: JumpRegular}

// ErrMalformedPosition is returned when a node position does not describe
// exactly one location.
var ErrMalformedPosition = errors.New("malformed node position")

var errUnknownJump = errors.New("unknown jump kind")

// SyntaxError reports a field of a mapping entry that could not be parsed.
type SyntaxError struct {
	Entry int    // index of the offending entry
	Field int    // index of the offending field inside the entry
	Value string // raw field text
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("source map entry %d field %d: invalid value %q: %v", e.Entry, e.Field, e.Value, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Decompress expands a compressed source map into one Position per entry.
// An empty map yields no positions.
func Decompress(compressed string) ([]Position, error) {
	if compressed == "" {
		return nil, nil
	}
	var (
		entries   = strings.Split(compressed, ";")
		positions = make([]Position, 0, len(entries))
		prev      = initial
	)
	for i, entry := range entries {
		cur, err := decodeEntry(prev, i, entry)
		if err != nil {
			return nil, err
		}
		positions = append(positions, cur)
		prev = cur
	}
	return positions, nil
}

// DecompressLenient decodes every entry it can. An entry with an invalid
// field still yields a position, a copy of the last good entry, and its
// error is reported in errs keyed by entry index. Later entries inherit
// from the last good entry.
func DecompressLenient(compressed string) (positions []Position, errs map[int]*SyntaxError) {
	if compressed == "" {
		return nil, nil
	}
	entries := strings.Split(compressed, ";")
	positions = make([]Position, 0, len(entries))
	prev := initial
	for i, entry := range entries {
		cur, err := decodeEntry(prev, i, entry)
		if err != nil {
			if errs == nil {
				errs = make(map[int]*SyntaxError)
			}
			errs[i] = err
			positions = append(positions, prev)
			continue
		}
		positions = append(positions, cur)
		prev = cur
	}
	return positions, errs
}

func decodeEntry(prev Position, i int, entry string) (Position, *SyntaxError) {
	cur := prev
	for f, field := range strings.Split(entry, ":") {
		if field == "" {
			continue
		}
		var err error
		switch f {
		case 0:
			cur.Offset, err = strconv.Atoi(field)
		case 1:
			cur.Length, err = strconv.Atoi(field)
		case 2:
			cur.File, err = strconv.Atoi(field)
		case 3:
			cur.Jump, err = parseJump(field)
		case 4:
			cur.ModifierDepth, err = strconv.Atoi(field)
		}
		if err != nil {
			return prev, &SyntaxError{Entry: i, Field: f, Value: field, Err: err}
		}
	}
	return cur, nil
}

// DecompressNode decodes the position annotation of a single syntax tree
// node, which must decompress to exactly one record.
func DecompressNode(src string) (Position, error) {
	positions, err := Decompress(src)
	if err != nil {
		return Position{}, err
	}
	if len(positions) != 1 {
		return Position{}, fmt.Errorf("%w: %q decodes to %d records", ErrMalformedPosition, src, len(positions))
	}
	return positions[0], nil
}

// Compress is the inverse of Decompress, omitting every field equal to the
// same field of the previous entry.
func Compress(positions []Position) string {
	var (
		b    strings.Builder
		prev = initial
	)
	for i, p := range positions {
		if i > 0 {
			b.WriteByte(';')
		}
		fields := [5]string{}
		// The first offset is always written, an empty map would otherwise
		// be indistinguishable from a single default entry.
		if i == 0 || p.Offset != prev.Offset {
			fields[0] = strconv.Itoa(p.Offset)
		}
		if p.Length != prev.Length {
			fields[1] = strconv.Itoa(p.Length)
		}
		if p.File != prev.File {
			fields[2] = strconv.Itoa(p.File)
		}
		if p.Jump != prev.Jump {
			fields[3] = p.Jump.String()
		}
		if p.ModifierDepth != prev.ModifierDepth {
			fields[4] = strconv.Itoa(p.ModifierDepth)
		}
		last := -1
		for f := range fields {
			if fields[f] != "" {
				last = f
			}
		}
		b.WriteString(strings.Join(fields[:last+1], ":"))
		prev = p
	}
	return b.String()
}

func parseJump(field string) (JumpKind, error) {
	if len(field) == 1 {
		switch k := JumpKind(field[0]); k {
		case JumpRegular, JumpInto, JumpOut:
			return k, nil
		}
	}
	return 0, errUnknownJump
}
