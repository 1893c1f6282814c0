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

// Package insight correlates the instructions of a contract's runtime code
// with the syntax tree nodes they were compiled from.
package insight

import (
	"errors"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bnb-chain/contract-insight/core/asm"
	"github.com/bnb-chain/contract-insight/core/solast"
	"github.com/bnb-chain/contract-insight/core/sourcemap"
	"github.com/bnb-chain/contract-insight/log"
)

// Bucket collects instructions that cannot be attributed to a source file.
type Bucket int

const (
	Internal    Bucket = iota // file index -1, code the compiler emits on its own
	NoPosition                // no source mapping entry
	Missing                   // file index without a source record
	Undecodable               // source map entry with an invalid field
	numBuckets
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Internal, NoPosition, Missing, Undecodable}

func (b Bucket) String() string {
	switch b {
	case Internal:
		return "internal"
	case NoPosition:
		return "no position"
	case Missing:
		return "missing"
	case Undecodable:
		return "undecodable"
	default:
		return "unknown"
	}
}

// File is one source, user written or compiler generated, with its
// annotated tree.
type File struct {
	Index     int
	Name      string
	Source    string
	Root      *Node
	Touched   bool // at least one instruction maps into the file
	Generated bool
}

// Source is a source file handed to the correlator.
type Source struct {
	Index     int
	Name      string
	Content   string
	AST       *solast.Node
	Generated bool
}

// Input is everything needed to analyse one contract.
type Input struct {
	Name      string // fully qualified contract name
	Code      []byte // runtime code with link placeholders zeroed
	SourceMap string // compressed runtime source map
	Sources   []Source
}

// Contract is the result of analysing one contract.
type Contract struct {
	Name         string
	Code         []byte
	Instructions []*asm.Instruction
	Files        map[int]*File
	Buckets      [numBuckets][]*asm.Instruction
	Missing      []int                          // distinct file indices without a source record
	Unmatched    []*asm.Instruction             // instructions matching no node of their file
	PositionErr  *asm.PositionCountError        // set when the source map length differs from the code
	MapErrors    map[int]*sourcemap.SyntaxError // invalid source map entries by index
	MetadataSize int                            // bytes of metadata trailer at the end of the code
	Elapsed      time.Duration
}

// Bucket returns the instructions filed under b.
func (c *Contract) Bucket(b Bucket) []*asm.Instruction {
	return c.Buckets[b]
}

// FileIndices returns the file indices in ascending order.
func (c *Contract) FileIndices() []int {
	indices := make([]int, 0, len(c.Files))
	for i := range c.Files {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// Size is the total code size.
func (c *Contract) Size() int {
	return len(c.Code)
}

// Process disassembles the contract code, attaches source positions and
// files every instruction under the nodes and buckets it belongs to.
// Problems with the inputs are logged and recorded on the result.
func Process(in *Input) (*Contract, error) {
	start := time.Now()
	defer processTimer.UpdateSince(start)

	positions, mapErrs := sourcemap.DecompressLenient(in.SourceMap)
	c := &Contract{
		Name:         in.Name,
		Code:         in.Code,
		Instructions: asm.Disassemble(in.Code),
		Files:        make(map[int]*File, len(in.Sources)),
		MapErrors:    mapErrs,
		MetadataSize: asm.MetadataLength(in.Code),
	}
	if len(mapErrs) > 0 {
		first := len(positions)
		for i := range mapErrs {
			if i < first {
				first = i
			}
		}
		log.Warn("Source map has invalid entries", "contract", in.Name, "count", len(mapErrs), "first", mapErrs[first])
	}
	if err := asm.AttachPositions(c.Instructions, positions); err != nil {
		var perr *asm.PositionCountError
		if !errors.As(err, &perr) {
			return nil, err
		}
		c.PositionErr = perr
		if perr.Short() {
			log.Debug("Source map shorter than code", "contract", in.Name, "instructions", perr.Instructions, "positions", perr.Positions)
		} else {
			log.Warn("Source map longer than code", "contract", in.Name, "instructions", perr.Instructions, "positions", perr.Positions)
		}
	}
	for _, src := range in.Sources {
		if prev, ok := c.Files[src.Index]; ok {
			log.Warn("Duplicate source index", "contract", in.Name, "index", src.Index, "name", src.Name, "previous", prev.Name)
		}
		c.Files[src.Index] = newFile(src)
	}
	c.correlate()

	contractsCounter.Inc(1)
	instructionsCounter.Inc(int64(len(c.Instructions)))
	c.Elapsed = time.Since(start)
	return c, nil
}

func newFile(src Source) *File {
	f := &File{
		Index:     src.Index,
		Name:      src.Name,
		Source:    src.Content,
		Generated: src.Generated,
	}
	if src.AST != nil {
		f.Root = clone(src.Index, src.Name, src.AST)
	} else {
		f.Root = &Node{Kind: solast.SourceUnit, Name: src.Name, File: src.Index}
	}
	return f
}

func (c *Contract) correlate() {
	var (
		missing = mapset.NewThreadUnsafeSet[int]()
		once    log.Once
	)
	for _, in := range c.Instructions {
		pos := in.Position
		if _, bad := c.MapErrors[in.Index]; bad && pos != nil {
			c.Buckets[Undecodable] = append(c.Buckets[Undecodable], in)
			continue
		}
		switch {
		case pos == nil:
			c.Buckets[NoPosition] = append(c.Buckets[NoPosition], in)
			continue
		case pos.File == -1:
			c.Buckets[Internal] = append(c.Buckets[Internal], in)
			continue
		}
		f, ok := c.Files[pos.File]
		if !ok {
			c.Buckets[Missing] = append(c.Buckets[Missing], in)
			missing.Add(pos.File)
			log.WarnBy(once.Key(pos.File), "Instruction maps to unknown source", "contract", c.Name, "file", pos.File, "pc", in.PC)
			continue
		}
		f.Touched = true
		if !f.Root.attach(in, pos.Offset) {
			c.Unmatched = append(c.Unmatched, in)
			unmatchedCounter.Inc(1)
			log.Error("Instruction not attached to any node", "contract", c.Name, "file", f.Name, "pc", in.PC, "op", in.Operation.Name, "position", pos)
		}
	}
	c.Missing = missing.ToSlice()
	sort.Ints(c.Missing)
	missingCounter.Inc(int64(len(c.Missing)))
}
