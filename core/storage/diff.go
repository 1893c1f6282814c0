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

package storage

// Comparison pairs a computed entry with the compiler's entry at the same
// position. Either side is nil when one layout is longer than the other.
type Comparison struct {
	Index     int
	Computed  *Entry
	Reference *Entry
	Fields    []string // differing fields, empty on a match
}

// Match reports whether both sides are present and agree.
func (c *Comparison) Match() bool {
	return c.Computed != nil && c.Reference != nil && len(c.Fields) == 0
}

// Compare pairs two layouts entry by entry.
func Compare(computed, reference []Entry) []Comparison {
	n := max(len(computed), len(reference))
	out := make([]Comparison, n)
	for i := range out {
		cmp := &out[i]
		cmp.Index = i
		if i < len(computed) {
			cmp.Computed = &computed[i]
		}
		if i < len(reference) {
			cmp.Reference = &reference[i]
		}
		if cmp.Computed == nil || cmp.Reference == nil {
			continue
		}
		cmp.Fields = diffFields(cmp.Computed, cmp.Reference)
	}
	return out
}

// Diff returns only the comparisons that do not match.
func Diff(computed, reference []Entry) []Comparison {
	var out []Comparison
	for _, cmp := range Compare(computed, reference) {
		if !cmp.Match() {
			out = append(out, cmp)
		}
	}
	mismatchMeter.Mark(int64(len(out)))
	return out
}

func diffFields(a, b *Entry) []string {
	var fields []string
	if a.AstID != b.AstID {
		fields = append(fields, "astId")
	}
	if a.Contract != b.Contract {
		fields = append(fields, "contract")
	}
	if a.Label != b.Label {
		fields = append(fields, "label")
	}
	if a.Type != b.Type {
		fields = append(fields, "type")
	}
	if a.Slot != b.Slot {
		fields = append(fields, "slot")
	}
	if a.Offset != b.Offset {
		fields = append(fields, "offset")
	}
	return fields
}
