// Copyright 2024 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/bnb-chain/contract-insight/core/asm"
	"github.com/bnb-chain/contract-insight/internal/report"
)

var disasmCommand = &cli.Command{
	Action:    disasm,
	Name:      "disasm",
	Usage:     "Disassemble raw bytecode",
	Flags:     []cli.Flag{hexFlag, fileFlag, gasFlag},
	Description: `
Decodes bytecode given with --hex or read from --file and prints one line
per instruction. Whitespace in the input is ignored.`,
}

// loadBytecode returns the code given on the command line or in a file.
func loadBytecode(hexArg, fileArg string) ([]byte, error) {
	switch {
	case hexArg != "" && fileArg != "":
		return nil, errors.New("only one of --hex and --file may be given")
	case hexArg != "":
		return decodeHexString(hexArg)
	case fileArg != "":
		data, err := os.ReadFile(fileArg)
		if err != nil {
			return nil, err
		}
		return decodeHexString(string(data))
	}
	return nil, errors.New("one of --hex or --file is required")
}

func decodeHexString(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return data, nil
}

func disasm(ctx *cli.Context) error {
	code, err := loadBytecode(ctx.String(hexFlag.Name), ctx.String(fileFlag.Name))
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	report.Listing(w, asm.Disassemble(code), ctx.Bool(gasFlag.Name))
	if n := asm.MetadataLength(code); n > 0 {
		fmt.Fprintf(w, "metadata trailer: %v\n", common.StorageSize(n))
	}
	return nil
}
