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

// Package asm disassembles EVM runtime bytecode into instructions.
package asm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/bnb-chain/contract-insight/core/sourcemap"
	"github.com/bnb-chain/contract-insight/core/vm"
)

// Instruction is a single decoded opcode together with its immediate
// operand, if any.
type Instruction struct {
	PC        uint64       // byte offset of the opcode
	Index     int          // ordinal position in the instruction stream
	Op        vm.OpCode    // raw opcode byte
	Size      int          // 1, or 1 plus the push operand length actually present
	Bytes     []byte       // raw bytes, opcode included
	PushData  []byte       // push operand, nil for non push opcodes
	Jump      vm.JumpType  // control transfer classification
	Operation vm.Operation // mnemonic and static gas
	Defined   bool         // false for bytes that are not defined opcodes
	Position  *sourcemap.Position
}

// Truncated reports whether a push operand runs past the end of the code.
func (in *Instruction) Truncated() bool {
	return in.Op.IsPush() && len(in.PushData) < in.Op.PushLength()
}

// PushValue returns the value a push instruction places on the stack. A
// truncated operand is right padded with zeroes, mirroring execution.
func (in *Instruction) PushValue() *uint256.Int {
	if !in.Op.IsPush() {
		return nil
	}
	return new(uint256.Int).SetBytes(common.RightPadBytes(in.PushData, in.Op.PushLength()))
}

// GasEstimate returns the static gas of the instruction including the worst
// case dynamic surcharge. It is an upper bound, not an exact cost.
func (in *Instruction) GasEstimate() uint64 {
	return in.Operation.UpperBound()
}

func (in *Instruction) String() string {
	if in.PushData != nil {
		return fmt.Sprintf("%05x: %v %v", in.PC, in.Operation.Name, hexutil.Bytes(in.PushData))
	}
	return fmt.Sprintf("%05x: %v", in.PC, in.Operation.Name)
}

// TotalSize sums the byte length of a list of instructions.
func TotalSize(ins []*Instruction) int {
	var size int
	for _, in := range ins {
		size += in.Size
	}
	return size
}

// TotalGas sums the gas upper bound of a list of instructions.
func TotalGas(ins []*Instruction) uint64 {
	var gas uint64
	for _, in := range ins {
		gas += in.GasEstimate()
	}
	return gas
}
