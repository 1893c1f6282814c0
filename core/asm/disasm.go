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

package asm

import (
	"errors"
	"fmt"

	"github.com/bnb-chain/contract-insight/core/sourcemap"
	"github.com/bnb-chain/contract-insight/core/vm"
	"github.com/bnb-chain/contract-insight/log"
)

// instructionIterator walks legacy bytecode one instruction at a time.
// Push operands running past the end of the code are truncated instead of
// reported, since the tail of runtime code is often metadata, not code.
type instructionIterator struct {
	code    []byte
	pc      uint64
	idx     int
	arg     []byte
	op      vm.OpCode
	started bool
}

func newInstructionIterator(code []byte) *instructionIterator {
	return &instructionIterator{code: code}
}

// Next returns true if there is a next instruction and moves on.
func (it *instructionIterator) Next() bool {
	if uint64(len(it.code)) <= it.pc {
		return false
	}
	if it.started {
		it.pc += uint64(len(it.arg)) + 1
		it.idx++
	} else {
		it.started = true
	}
	if uint64(len(it.code)) <= it.pc {
		return false
	}
	it.op = vm.OpCode(it.code[it.pc])
	it.arg = nil
	if n := it.op.PushLength(); n > 0 {
		end := it.pc + 1 + uint64(n)
		if end > uint64(len(it.code)) {
			end = uint64(len(it.code))
		}
		it.arg = it.code[it.pc+1 : end]
	}
	return true
}

// Disassemble decodes the whole code into instructions. The byte sizes of
// the returned instructions always add up to len(code).
func Disassemble(code []byte) []*Instruction {
	var (
		ins   = make([]*Instruction, 0, len(code)/2)
		it    = newInstructionIterator(code)
		every = &log.EveryN{N: 64}
	)
	for it.Next() {
		op, defined := vm.Lookup(it.op)
		if !defined {
			log.TraceBy(every, "Undefined opcode in code", "pc", it.pc, "op", fmt.Sprintf("%#02x", byte(it.op)))
		}
		size := 1 + len(it.arg)
		ins = append(ins, &Instruction{
			PC:        it.pc,
			Index:     it.idx,
			Op:        it.op,
			Size:      size,
			Bytes:     it.code[it.pc : it.pc+uint64(size)],
			PushData:  it.arg,
			Jump:      it.op.JumpKind(),
			Operation: op,
			Defined:   defined,
		})
	}
	return ins
}

// PositionCountError reports a source map whose entry count differs from the
// number of decoded instructions.
type PositionCountError struct {
	Instructions int
	Positions    int
}

func (e *PositionCountError) Error() string {
	return fmt.Sprintf("source map has %d entries for %d instructions", e.Positions, e.Instructions)
}

// Short reports whether the map ended before the instruction stream, which
// happens for the metadata trailer solc appends after the code.
func (e *PositionCountError) Short() bool {
	return e.Positions < e.Instructions
}

// AttachPositions zips positions onto instructions by index. Any difference
// in length is reported as a *PositionCountError; instructions beyond the
// end of the map keep a nil position and surplus positions are dropped.
func AttachPositions(ins []*Instruction, positions []sourcemap.Position) error {
	n := min(len(ins), len(positions))
	for i := 0; i < n; i++ {
		pos := positions[i]
		ins[i].Position = &pos
	}
	if len(ins) != len(positions) {
		return &PositionCountError{Instructions: len(ins), Positions: len(positions)}
	}
	return nil
}

// IsPositionCount reports whether err is a *PositionCountError.
func IsPositionCount(err error) (*PositionCountError, bool) {
	var perr *PositionCountError
	ok := errors.As(err, &perr)
	return perr, ok
}
