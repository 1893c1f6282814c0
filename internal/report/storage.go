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

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/bnb-chain/contract-insight/core/storage"
)

// Output formats of the storage command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// StorageTable compares a computed layout with the compiler's one. Only
// mismatching entries are listed unless all is set.
func StorageTable(w io.Writer, name string, cmps []storage.Comparison, all bool) {
	var (
		rows       [][]string
		mismatches int
	)
	for i := range cmps {
		cmp := &cmps[i]
		if !cmp.Match() {
			mismatches++
		} else if !all {
			continue
		}
		rows = append(rows, comparisonRow(cmp))
	}
	if mismatches == 0 {
		fmt.Fprintln(w, okFmt("%s: storage layout matches the compiler (%d entries)", name, len(cmps)))
	} else {
		fmt.Fprintln(w, errorFmt("%s: %d of %d storage entries differ from the compiler", name, mismatches, len(cmps)))
	}
	if len(rows) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Contract", "Label", "Type", "Slot", "Offset", "AstID", "Status"})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func comparisonRow(cmp *storage.Comparison) []string {
	e, ref := cmp.Computed, cmp.Reference
	switch {
	case e == nil:
		return []string{strconv.Itoa(cmp.Index), ref.Contract, ref.Label, ref.Type, ref.Slot, strconv.FormatUint(uint64(ref.Offset), 10),
			strconv.FormatInt(ref.AstID, 10), errorFmt("only in compiler output")}
	case ref == nil:
		return []string{strconv.Itoa(cmp.Index), e.Contract, e.Label, e.Type, e.Slot, strconv.FormatUint(uint64(e.Offset), 10),
			strconv.FormatInt(e.AstID, 10), errorFmt("not in compiler output")}
	}
	row := []string{strconv.Itoa(cmp.Index), e.Contract, e.Label, e.Type, e.Slot, strconv.FormatUint(uint64(e.Offset), 10),
		strconv.FormatInt(e.AstID, 10), okFmt("ok")}
	if len(cmp.Fields) == 0 {
		return row
	}
	want := map[string]string{
		"contract": ref.Contract,
		"label":    ref.Label,
		"type":     ref.Type,
		"slot":     ref.Slot,
		"offset":   strconv.FormatUint(uint64(ref.Offset), 10),
		"astId":    strconv.FormatInt(ref.AstID, 10),
	}
	var diffs []string
	for _, field := range cmp.Fields {
		diffs = append(diffs, fmt.Sprintf("%s: want %s", field, want[field]))
	}
	row[len(row)-1] = errorFmt("%s", strings.Join(diffs, ", "))
	return row
}

// LayoutTable lists a computed layout that has nothing to be compared with.
func LayoutTable(w io.Writer, name string, layout *storage.Layout) {
	fmt.Fprintln(w, warnFmt("%s: no compiler storage layout, showing %d computed entries", name, len(layout.Storage)))
	if len(layout.Storage) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Contract", "Label", "Type", "Slot", "Offset", "AstID"})
	table.SetAutoWrapText(false)
	for i, e := range layout.Storage {
		table.Append([]string{strconv.Itoa(i), e.Contract, e.Label, e.Type, e.Slot, strconv.FormatUint(uint64(e.Offset), 10),
			strconv.FormatInt(e.AstID, 10)})
	}
	table.Render()
}

// Constants lists the state variables that take no storage.
func Constants(w io.Writer, entries []storage.Entry) {
	if len(entries) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Contract", "Constant", "Type", "AstID"})
	for _, e := range entries {
		table.Append([]string{e.Contract, e.Label, e.Type, strconv.FormatInt(e.AstID, 10)})
	}
	table.Render()
}

// WriteLayouts encodes computed layouts keyed by contract name.
func WriteLayouts(w io.Writer, format string, layouts map[string]*storage.Layout) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(layouts)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(layouts); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported layout format %q", format)
	}
}
