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

package vm

import (
	"strconv"

	gethvm "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
)

const (
	// Worst-case sizes assumed by the dynamic gas estimates. They are not
	// derived from execution, only from what a typical heavy call would touch.
	estimateCopyWords = 1024
	estimateRetWords  = 256
	estimateHashWords = 10
	estimateExpBytes  = 2
	estimateLogBytes  = 32

	coldAccountSurcharge = params.ColdAccountAccessCostEIP2929 - params.WarmStorageReadCostEIP2929
	coldSloadSurcharge   = params.ColdSloadCostEIP2929 - params.WarmStorageReadCostEIP2929
)

type operation struct {
	name        string
	constantGas uint64
	// estimate is a fixed upper bound for the dynamic part of the cost.
	estimate uint64
	formula  string
}

// Operation is the static description of an opcode.
type Operation struct {
	Name     string
	Gas      uint64 // constant gas charged on every execution
	Estimate uint64 // worst-case dynamic surcharge, never an exact value
	Formula  string // how the dynamic part is actually computed
}

// UpperBound returns the constant gas plus the worst-case surcharge.
func (o Operation) UpperBound() uint64 {
	return o.Gas + o.Estimate
}

// JumpTable contains every opcode known to the disassembler.
type JumpTable [256]*operation

var instructionSet = newInstructionSet()

// Lookup returns the description of an opcode. Bytes that are not defined
// instructions report false and are rendered as INVALID with no gas.
func Lookup(op OpCode) (Operation, bool) {
	entry := instructionSet[op]
	if entry == nil {
		undefinedOpcodeCounter.Inc(1)
		return Operation{Name: "INVALID"}, false
	}
	return Operation{
		Name:     entry.name,
		Gas:      entry.constantGas,
		Estimate: entry.estimate,
		Formula:  entry.formula,
	}, true
}

func newInstructionSet() JumpTable {
	tbl := JumpTable{
		STOP:       {name: "STOP"},
		ADD:        {name: "ADD", constantGas: gethvm.GasFastestStep},
		MUL:        {name: "MUL", constantGas: gethvm.GasFastStep},
		SUB:        {name: "SUB", constantGas: gethvm.GasFastestStep},
		DIV:        {name: "DIV", constantGas: gethvm.GasFastStep},
		SDIV:       {name: "SDIV", constantGas: gethvm.GasFastStep},
		MOD:        {name: "MOD", constantGas: gethvm.GasFastStep},
		SMOD:       {name: "SMOD", constantGas: gethvm.GasFastStep},
		ADDMOD:     {name: "ADDMOD", constantGas: gethvm.GasMidStep},
		MULMOD:     {name: "MULMOD", constantGas: gethvm.GasMidStep},
		SIGNEXTEND: {name: "SIGNEXTEND", constantGas: gethvm.GasFastStep},
		EXP: {
			name:        "EXP",
			constantGas: params.ExpGas,
			estimate:    params.ExpByteEIP158 * estimateExpBytes,
			formula:     "10 + 50 * byte_len_exponent",
		},

		LT:     {name: "LT", constantGas: gethvm.GasFastestStep},
		GT:     {name: "GT", constantGas: gethvm.GasFastestStep},
		SLT:    {name: "SLT", constantGas: gethvm.GasFastestStep},
		SGT:    {name: "SGT", constantGas: gethvm.GasFastestStep},
		EQ:     {name: "EQ", constantGas: gethvm.GasFastestStep},
		ISZERO: {name: "ISZERO", constantGas: gethvm.GasFastestStep},
		AND:    {name: "AND", constantGas: gethvm.GasFastestStep},
		OR:     {name: "OR", constantGas: gethvm.GasFastestStep},
		XOR:    {name: "XOR", constantGas: gethvm.GasFastestStep},
		NOT:    {name: "NOT", constantGas: gethvm.GasFastestStep},
		BYTE:   {name: "BYTE", constantGas: gethvm.GasFastestStep},
		SHL:    {name: "SHL", constantGas: gethvm.GasFastestStep},
		SHR:    {name: "SHR", constantGas: gethvm.GasFastestStep},
		SAR:    {name: "SAR", constantGas: gethvm.GasFastestStep},

		KECCAK256: {
			name:        "KECCAK256",
			constantGas: params.Keccak256Gas,
			estimate:    params.Keccak256WordGas * estimateHashWords,
			formula:     "30 + 6 * data_size_words + mem_expansion_cost",
		},

		ADDRESS: {name: "ADDRESS", constantGas: gethvm.GasQuickStep},
		BALANCE: {
			name:        "BALANCE",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge,
			formula:     "100 if warm, 2600 if cold",
		},
		ORIGIN:       {name: "ORIGIN", constantGas: gethvm.GasQuickStep},
		CALLER:       {name: "CALLER", constantGas: gethvm.GasQuickStep},
		CALLVALUE:    {name: "CALLVALUE", constantGas: gethvm.GasQuickStep},
		CALLDATALOAD: {name: "CALLDATALOAD", constantGas: gethvm.GasFastestStep},
		CALLDATASIZE: {name: "CALLDATASIZE", constantGas: gethvm.GasQuickStep},
		CALLDATACOPY: {
			name:        "CALLDATACOPY",
			constantGas: gethvm.GasFastestStep,
			estimate:    params.CopyGas * estimateCopyWords,
			formula:     "3 + 3 * data_size_words + mem_expansion_cost",
		},
		CODESIZE: {name: "CODESIZE", constantGas: gethvm.GasQuickStep},
		CODECOPY: {
			name:        "CODECOPY",
			constantGas: gethvm.GasFastestStep,
			estimate:    params.CopyGas * estimateRetWords,
			formula:     "3 + 3 * data_size_words + mem_expansion_cost",
		},
		GASPRICE: {name: "GASPRICE", constantGas: gethvm.GasQuickStep},
		EXTCODESIZE: {
			name:        "EXTCODESIZE",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge,
			formula:     "100 if warm, 2600 if cold",
		},
		EXTCODECOPY: {
			name:        "EXTCODECOPY",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge + params.CopyGas*estimateCopyWords,
			formula:     "access_cost + 3 * data_size_words + mem_expansion_cost",
		},
		RETURNDATASIZE: {name: "RETURNDATASIZE", constantGas: gethvm.GasQuickStep},
		RETURNDATACOPY: {
			name:        "RETURNDATACOPY",
			constantGas: gethvm.GasFastestStep,
			estimate:    params.CopyGas * estimateRetWords,
			formula:     "3 + 3 * data_size_words + mem_expansion_cost",
		},
		EXTCODEHASH: {
			name:        "EXTCODEHASH",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge,
			formula:     "100 if warm, 2600 if cold",
		},

		BLOCKHASH:   {name: "BLOCKHASH", constantGas: gethvm.GasExtStep},
		COINBASE:    {name: "COINBASE", constantGas: gethvm.GasQuickStep},
		TIMESTAMP:   {name: "TIMESTAMP", constantGas: gethvm.GasQuickStep},
		NUMBER:      {name: "NUMBER", constantGas: gethvm.GasQuickStep},
		DIFFICULTY:  {name: "DIFFICULTY", constantGas: gethvm.GasQuickStep},
		GASLIMIT:    {name: "GASLIMIT", constantGas: gethvm.GasQuickStep},
		CHAINID:     {name: "CHAINID", constantGas: gethvm.GasQuickStep},
		SELFBALANCE: {name: "SELFBALANCE", constantGas: gethvm.GasFastStep},
		BASEFEE:     {name: "BASEFEE", constantGas: gethvm.GasQuickStep},
		BLOBHASH:    {name: "BLOBHASH", constantGas: gethvm.GasFastestStep},
		BLOBBASEFEE: {name: "BLOBBASEFEE", constantGas: gethvm.GasQuickStep},

		POP:     {name: "POP", constantGas: gethvm.GasQuickStep},
		MLOAD:   {name: "MLOAD", constantGas: gethvm.GasFastestStep},
		MSTORE:  {name: "MSTORE", constantGas: gethvm.GasFastestStep},
		MSTORE8: {name: "MSTORE8", constantGas: gethvm.GasFastestStep},
		SLOAD: {
			name:        "SLOAD",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldSloadSurcharge,
			formula:     "100 if warm, 2100 if cold",
		},
		SSTORE: {
			name:        "SSTORE",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldSloadSurcharge + params.SstoreSetGasEIP2200,
			formula:     "100 if warm and unchanged, up to 22100 when setting a cold zero slot",
		},
		JUMP:     {name: "JUMP", constantGas: gethvm.GasMidStep},
		JUMPI:    {name: "JUMPI", constantGas: gethvm.GasSlowStep},
		PC:       {name: "PC", constantGas: gethvm.GasQuickStep},
		MSIZE:    {name: "MSIZE", constantGas: gethvm.GasQuickStep},
		GAS:      {name: "GAS", constantGas: gethvm.GasQuickStep},
		JUMPDEST: {name: "JUMPDEST", constantGas: params.JumpdestGas},
		TLOAD:    {name: "TLOAD", constantGas: params.WarmStorageReadCostEIP2929},
		TSTORE:   {name: "TSTORE", constantGas: params.WarmStorageReadCostEIP2929},
		MCOPY: {
			name:        "MCOPY",
			constantGas: gethvm.GasFastestStep,
			estimate:    params.CopyGas * estimateRetWords,
			formula:     "3 + 3 * data_size_words + mem_expansion_cost",
		},
		PUSH0: {name: "PUSH0", constantGas: gethvm.GasQuickStep},

		CREATE: {
			name:        "CREATE",
			constantGas: params.CreateGas,
			estimate:    params.CreateDataGas * params.MaxCodeSize,
			formula:     "32000 + mem_expansion_cost + code_deposit_cost",
		},
		CALL: {
			name:        "CALL",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge + params.CallValueTransferGas + params.CallNewAccountGas,
			formula:     "access_cost + value_transfer + new_account + mem_expansion_cost + gas_sent",
		},
		CALLCODE: {
			name:        "CALLCODE",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge + params.CallValueTransferGas,
			formula:     "access_cost + value_transfer + mem_expansion_cost + gas_sent",
		},
		RETURN: {name: "RETURN"},
		DELEGATECALL: {
			name:        "DELEGATECALL",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge,
			formula:     "access_cost + mem_expansion_cost + gas_sent",
		},
		CREATE2: {
			name:        "CREATE2",
			constantGas: params.Create2Gas,
			estimate:    params.CreateDataGas*params.MaxCodeSize + params.Keccak256WordGas*estimateCopyWords,
			formula:     "32000 + 6 * data_size_words + mem_expansion_cost + code_deposit_cost",
		},
		STATICCALL: {
			name:        "STATICCALL",
			constantGas: params.WarmStorageReadCostEIP2929,
			estimate:    coldAccountSurcharge,
			formula:     "access_cost + mem_expansion_cost + gas_sent",
		},
		REVERT:  {name: "REVERT"},
		INVALID: {name: "INVALID"},
		SELFDESTRUCT: {
			name:        "SELFDESTRUCT",
			constantGas: params.SelfdestructGasEIP150,
			estimate:    params.ColdAccountAccessCostEIP2929 + params.CreateBySelfdestructGas,
			formula:     "5000 + cold beneficiary access + new account",
		},
	}
	for i := 0; i < 32; i++ {
		op := PUSH1 + OpCode(i)
		tbl[op] = &operation{name: "PUSH" + strconv.Itoa(i+1), constantGas: gethvm.GasFastestStep}
	}
	for i := 0; i < 16; i++ {
		tbl[DUP1+OpCode(i)] = &operation{name: "DUP" + strconv.Itoa(i+1), constantGas: gethvm.GasFastestStep}
		tbl[SWAP1+OpCode(i)] = &operation{name: "SWAP" + strconv.Itoa(i+1), constantGas: gethvm.GasFastestStep}
	}
	for i := 0; i <= 4; i++ {
		tbl[LOG0+OpCode(i)] = &operation{
			name:        "LOG" + strconv.Itoa(i),
			constantGas: params.LogGas,
			estimate:    params.LogTopicGas*uint64(i) + params.LogDataGas*estimateLogBytes,
			formula:     "375 + 375 * num_topics + 8 * data_size + mem_expansion_cost",
		}
	}
	return tbl
}
