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

// Package report renders analysis results for the terminal and for other
// tools.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/bnb-chain/contract-insight/core/asm"
	"github.com/bnb-chain/contract-insight/core/insight"
)

// Options selects the optional parts of a contract report.
type Options struct {
	Asm bool // list the instructions owned by every node
	Gas bool // show static gas upper bounds
	All bool // include nodes without code
}

const separator = "----------------------------"

var (
	headerFmt = color.New(color.FgBlue, color.Bold).SprintfFunc()
	warnFmt   = color.New(color.FgYellow).SprintfFunc()
	errorFmt  = color.New(color.FgRed, color.Bold).SprintfFunc()
	okFmt     = color.New(color.FgGreen).SprintfFunc()
)

// Node kinds whose source text is quoted under the node. Enclosing nodes
// are left out so a line of code is quoted once.
var excerptKinds = map[string]bool{
	"VariableDeclaration":          true,
	"VariableDeclarationStatement": true,
	"ExpressionStatement":          true,
	"Return":                       true,
	"EmitStatement":                true,
	"RevertStatement":              true,
	"YulVariableDeclaration":       true,
	"YulAssignment":                true,
	"YulExpressionStatement":       true,
}

// Contract prints the annotated trees of every file the contract's code
// maps into, followed by the instructions no file accounts for.
func Contract(w io.Writer, c *insight.Contract, opts Options) {
	fmt.Fprintln(w, headerFmt("%s %s bytecode size %d instructions %d", separator, c.Name, c.Size(), len(c.Instructions)))
	if opts.Asm {
		fmt.Fprintln(w, "INSTRUCTIONS")
		Asm(w, "    ", c.Instructions)
		fmt.Fprintln(w, separator)
	}
	for _, i := range c.FileIndices() {
		f := c.Files[i]
		if !f.Touched && !opts.All {
			continue
		}
		printTree(w, f, opts)
	}
	fmt.Fprintln(w, separator)
	Buckets(w, c)
	if opts.Asm {
		for _, b := range insight.Buckets {
			if ins := c.Bucket(b); len(ins) > 0 {
				fmt.Fprintf(w, "%s:\n", b)
				Asm(w, "    ", ins)
			}
		}
	}
	if len(c.Unmatched) > 0 {
		fmt.Fprintln(w, errorFmt("Unmatched instructions %d total size: %d", len(c.Unmatched), asm.TotalSize(c.Unmatched)))
		Asm(w, "    ", c.Unmatched)
	}
	if c.PositionErr != nil && !c.PositionErr.Short() {
		fmt.Fprintln(w, warnFmt("Warning: %v", c.PositionErr))
	}
	fmt.Fprintln(w, "END", separator, c.Name)
}

func printTree(w io.Writer, f *insight.File, opts Options) {
	f.Root.Walk(func(depth int, n *insight.Node) {
		spacer := strings.Repeat(" ", depth*4)
		size := n.Size()
		if opts.All || len(n.Instructions) > 0 {
			label := n.Name
			if label == "" {
				label = n.DeclKind
			}
			txt := spacer + join(n.AbsolutePath, "type", n.Kind, label)
			line := fmt.Sprintf("%-120s  %-20s  size: %d", txt, "instructions: "+strconv.Itoa(len(n.Instructions)), size)
			if opts.Gas {
				line += fmt.Sprintf("  gas estimate: %d", n.GasEstimate())
			}
			fmt.Fprintln(w, line)
		}
		if (opts.All || size > 0) && n.Ranged && excerptKinds[n.Kind] {
			excerpt(w, spacer+"    ", f.Source, n.Start, n.End)
		}
		if opts.Asm && len(n.Own) > 0 {
			Asm(w, spacer, n.Own)
		}
	})
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func excerpt(w io.Writer, spacer, source string, start, end int) {
	if start < 0 || end > len(source) || start >= end {
		return
	}
	for _, line := range strings.Split(source[start:end], "\n") {
		fmt.Fprintln(w, spacer+line)
	}
}

// Buckets prints how many instructions fell into each sentinel bucket.
func Buckets(w io.Writer, c *insight.Contract) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Bucket", "Instructions", "Size", "Note"})
	for _, b := range insight.Buckets {
		ins := c.Bucket(b)
		var note string
		switch b {
		case insight.Internal:
			note = "shared code with no corresponding file"
		case insight.NoPosition:
			if c.MetadataSize > 0 {
				note = fmt.Sprintf("includes %d bytes of metadata", c.MetadataSize)
			}
		case insight.Missing:
			if len(c.Missing) == 0 {
				continue
			}
			ids := make([]string, len(c.Missing))
			for i, id := range c.Missing {
				ids[i] = strconv.Itoa(id)
			}
			note = warnFmt("missing ids: %s", strings.Join(ids, " "))
		case insight.Undecodable:
			if len(ins) == 0 {
				continue
			}
			note = warnFmt("%d source map entries could not be decoded", len(c.MapErrors))
		}
		table.Append([]string{b.String(), strconv.Itoa(len(ins)), strconv.Itoa(asm.TotalSize(ins)), note})
	}
	table.Render()
}

// Asm prints one line per instruction.
func Asm(w io.Writer, spacer string, ins []*asm.Instruction) {
	for _, in := range ins {
		name := in.Operation.Name
		if in.PushData != nil {
			name = fmt.Sprintf("%s 0x%x", name, in.PushData)
		}
		line := fmt.Sprintf("%s %d pc %d opcode ( %2x ) %s size %d", spacer, in.Index, in.PC, byte(in.Op), name, in.Size)
		if pos := in.Position; pos != nil && pos.File >= 0 {
			line += fmt.Sprintf(" location file %d offset %d length %d", pos.File, pos.Offset, pos.Length)
		}
		fmt.Fprintln(w, line)
	}
}

// Listing prints a plain disassembly, with gas bounds when gas is set.
func Listing(w io.Writer, ins []*asm.Instruction, gas bool) {
	for _, in := range ins {
		line := in.String()
		if in.Truncated() {
			line += " " + warnFmt("(truncated)")
		}
		if gas && in.Defined {
			line = fmt.Sprintf("%-80s gas <= %d", line, in.GasEstimate())
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, okFmt("%d instructions, %d bytes", len(ins), asm.TotalSize(ins)))
}
