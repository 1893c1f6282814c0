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

// Package storage computes the persistent storage layout of a contract from
// its syntax tree, slot for slot and byte for byte as solc assigns it.
package storage

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/bnb-chain/contract-insight/core/solast"
	"github.com/bnb-chain/contract-insight/log"
)

// Entry is the location of one state variable.
type Entry struct {
	Contract string `json:"contract" yaml:"contract"` // source:Name of the declaring contract
	AstID    int64  `json:"astId" yaml:"astId"`
	Label    string `json:"label" yaml:"label"`
	Type     string `json:"type" yaml:"type"`
	Slot     string `json:"slot" yaml:"slot"` // decimal
	Offset   uint   `json:"offset" yaml:"offset"`
	Constant bool   `json:"-" yaml:"-"`
}

// Member is a struct member placed relative to the struct's first slot.
type Member = Entry

// Type describes a storage type the way solc's storageLayout.types does.
type Type struct {
	Encoding      string   `json:"encoding" yaml:"encoding"`
	Label         string   `json:"label" yaml:"label"`
	NumberOfBytes string   `json:"numberOfBytes" yaml:"numberOfBytes"`
	Base          string   `json:"base,omitempty" yaml:"base,omitempty"`
	Key           string   `json:"key,omitempty" yaml:"key,omitempty"`
	Value         string   `json:"value,omitempty" yaml:"value,omitempty"`
	Members       []Member `json:"members,omitempty" yaml:"members,omitempty"`
}

// Type encodings.
const (
	EncodingInplace      = "inplace"
	EncodingMapping      = "mapping"
	EncodingDynamicArray = "dynamic_array"
	EncodingBytes        = "bytes"
)

// Layout is the storage layout of a contract, in the shape of solc's
// storageLayout output.
type Layout struct {
	Storage []Entry          `json:"storage" yaml:"storage"`
	Types   map[string]*Type `json:"types" yaml:"types"`

	// Constants lists constant and immutable state variables, which take
	// no storage.
	Constants []Entry `json:"-" yaml:"-"`
}

// Struct is a resolved struct definition.
type Struct struct {
	ID      int64
	Name    string
	Slots   uint256.Int
	Members []Member

	types []*typeInfo
}

type structState struct {
	desc      *Struct
	err       error
	resolving bool
}

// Calculator computes storage layouts for the contracts of a compilation
// unit. Struct definitions are resolved once, when the calculator is
// created, and shared by every layout.
type Calculator struct {
	unit    *solast.Unit
	structs map[int64]*structState
}

// NewCalculator indexes the unit and resolves all of its structs. Structs
// that cannot be resolved only fail the layouts that use them.
func NewCalculator(unit *solast.Unit) *Calculator {
	c := &Calculator{
		unit:    unit,
		structs: make(map[int64]*structState),
	}
	var ids []int64
	for _, source := range unit.Sources() {
		root, _ := unit.Source(source)
		collectStructs(root, &ids)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if _, err := c.Struct(id); err != nil {
			log.Debug("Unresolvable struct", "id", id, "err", err)
		}
	}
	return c
}

func collectStructs(n *solast.Node, ids *[]int64) {
	if n == nil {
		return
	}
	if n.NodeType == solast.StructDefinition {
		*ids = append(*ids, n.ID)
	}
	for _, child := range n.Nodes {
		collectStructs(child, ids)
	}
}

// Struct returns the descriptor of the struct declared with id.
func (c *Calculator) Struct(id int64) (*Struct, error) {
	state, ok := c.structs[id]
	if ok {
		if state.resolving {
			return nil, fmt.Errorf("%w: struct %d", ErrRecursiveStruct, id)
		}
		return state.desc, state.err
	}
	state = &structState{resolving: true}
	c.structs[id] = state
	state.desc, state.err = c.resolveStruct(id)
	state.resolving = false
	return state.desc, state.err
}

func (c *Calculator) resolveStruct(id int64) (*Struct, error) {
	decl, ok := c.unit.Declaration(id)
	if !ok {
		return nil, &DeclarationError{ID: id, Want: solast.StructDefinition}
	}
	if decl.NodeType != solast.StructDefinition {
		return nil, &DeclarationError{ID: id, Want: solast.StructDefinition, Got: decl.NodeType}
	}
	s := &Struct{
		ID:      id,
		Name:    decl.CanonicalName,
		Members: make([]Member, 0, len(decl.Members)),
		types:   make([]*typeInfo, 0, len(decl.Members)),
	}
	if s.Name == "" {
		s.Name = decl.Name
	}
	var (
		p     packer
		scope = c.unit.Scope(decl)
	)
	for _, member := range decl.Members {
		t, err := c.resolve(member.ID, member.TypeName, member.TypeIdentifier())
		if err != nil {
			return nil, err
		}
		slot, offset, err := p.place(c, t)
		if err != nil {
			return nil, err
		}
		s.Members = append(s.Members, Member{
			Contract: scope,
			AstID:    member.ID,
			Label:    member.Name,
			Type:     t.sig,
			Slot:     slot.Dec(),
			Offset:   offset,
		})
		s.types = append(s.types, t)
	}
	s.Slots = p.end()
	return s, nil
}

// slotCount returns the number of slots a value of type t occupies when
// stored on its own.
func (c *Calculator) slotCount(t *typeInfo) (*uint256.Int, error) {
	switch t.kind {
	case kindStruct:
		s, err := c.Struct(t.structID)
		if err != nil {
			return nil, err
		}
		return new(uint256.Int).Set(&s.Slots), nil
	case kindStaticArray:
		length := new(uint256.Int).SetUint64(t.length)
		if t.base.packable() {
			perSlot := uint256.NewInt(uint64(256 / t.base.bits))
			n := new(uint256.Int).Add(length, new(uint256.Int).SubUint64(perSlot, 1))
			return n.Div(n, perSlot), nil
		}
		base, err := c.slotCount(t.base)
		if err != nil {
			return nil, err
		}
		n, overflow := new(uint256.Int).MulOverflow(base, length)
		if overflow {
			return nil, fmt.Errorf("array %s exceeds the storage space", t.sig)
		}
		return n, nil
	default:
		return uint256.NewInt(1), nil
	}
}

// byteSize returns the number of bytes reported for t in the type table.
func (c *Calculator) byteSize(t *typeInfo) string {
	if t.packable() {
		return strconv.FormatUint(uint64(t.bits/8), 10)
	}
	n, err := c.slotCount(t)
	if err != nil {
		return ""
	}
	return new(uint256.Int).Mul(n, uint256.NewInt(32)).Dec()
}

// packer assigns slots and offsets to a sequence of variables.
type packer struct {
	slot   uint256.Int
	offset uint // bytes used in the current slot
	acc    uint // bits used in the current slot
}

func (p *packer) next() {
	p.slot.AddUint64(&p.slot, 1)
	p.offset, p.acc = 0, 0
}

func (p *packer) place(c *Calculator, t *typeInfo) (uint256.Int, uint, error) {
	if t.packable() {
		if p.acc+t.bits > 256 {
			p.next()
		}
		slot, offset := p.slot, p.offset
		p.acc += t.bits
		p.offset += t.bits / 8
		if p.acc == 256 {
			p.next()
		}
		return slot, offset, nil
	}
	if p.acc != 0 {
		p.next()
	}
	n, err := c.slotCount(t)
	if err != nil {
		return uint256.Int{}, 0, err
	}
	slot := p.slot
	if _, overflow := p.slot.AddOverflow(&p.slot, n); overflow {
		return uint256.Int{}, 0, fmt.Errorf("variable of type %s exceeds the storage space", t.sig)
	}
	return slot, 0, nil
}

// end returns the number of slots used so far.
func (p *packer) end() uint256.Int {
	slots := p.slot
	if p.acc != 0 {
		slots.AddUint64(&slots, 1)
	}
	return slots
}

// Layout computes the storage layout of the contract with the given fully
// qualified name. State variables are laid out starting with the most base
// contract of the inheritance chain.
func (c *Calculator) Layout(fullName string) (*Layout, error) {
	contract, err := c.unit.Contract(fullName)
	if err != nil {
		return nil, err
	}
	bases := contract.LinearizedBaseContracts
	if len(bases) == 0 {
		bases = []int64{contract.ID}
	}
	var (
		layout = &Layout{Storage: []Entry{}, Types: make(map[string]*Type)}
		p      packer
	)
	for i := len(bases) - 1; i >= 0; i-- {
		base, ok := c.unit.Declaration(bases[i])
		if !ok {
			return nil, &DeclarationError{ID: bases[i], Want: solast.ContractDefinition}
		}
		if base.NodeType != solast.ContractDefinition {
			return nil, &DeclarationError{ID: bases[i], Want: solast.ContractDefinition, Got: base.NodeType}
		}
		owner := c.unit.QualifiedName(base)
		for _, v := range base.Nodes {
			if v == nil || v.NodeType != solast.VariableDeclaration {
				continue
			}
			t, err := c.resolve(v.ID, v.TypeName, v.TypeIdentifier())
			if err != nil {
				return nil, err
			}
			entry := Entry{
				Contract: owner,
				AstID:    v.ID,
				Label:    v.Name,
				Type:     t.sig,
				Constant: v.IsConstant(),
			}
			if entry.Constant {
				layout.Constants = append(layout.Constants, entry)
				continue
			}
			slot, offset, err := p.place(c, t)
			if err != nil {
				return nil, err
			}
			entry.Slot, entry.Offset = slot.Dec(), offset
			layout.Storage = append(layout.Storage, entry)
			c.register(layout.Types, t)
		}
	}
	layoutsCounter.Inc(1)
	entriesCounter.Inc(int64(len(layout.Storage)))
	return layout, nil
}

// register adds t and the types it is built from to the type table.
func (c *Calculator) register(types map[string]*Type, t *typeInfo) {
	if _, ok := types[t.sig]; ok {
		return
	}
	entry := &Type{
		Encoding:      EncodingInplace,
		Label:         t.label,
		NumberOfBytes: c.byteSize(t),
	}
	types[t.sig] = entry
	switch t.kind {
	case kindStaticArray:
		entry.Base = t.base.sig
		c.register(types, t.base)
	case kindDynamicArray:
		entry.Encoding, entry.Base = EncodingDynamicArray, t.base.sig
		c.register(types, t.base)
	case kindMapping:
		entry.Encoding, entry.Key, entry.Value = EncodingMapping, t.key.sig, t.value.sig
		c.register(types, t.key)
		c.register(types, t.value)
	case kindBytes:
		entry.Encoding = EncodingBytes
	case kindStruct:
		s, err := c.Struct(t.structID)
		if err != nil {
			return
		}
		entry.Members = s.Members
		for _, mt := range s.types {
			c.register(types, mt)
		}
	}
}
