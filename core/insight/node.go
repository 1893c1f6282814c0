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

package insight

import (
	"github.com/bnb-chain/contract-insight/core/asm"
	"github.com/bnb-chain/contract-insight/core/solast"
	"github.com/bnb-chain/contract-insight/log"
)

// shape lists the child fields a node kind carries.
type shape uint8

const (
	withNodes shape = 1 << iota
	withBody
	withExpression
	withStatements
	withCases
)

// shapes is the closed table of node kinds with children. Kinds that are
// not listed are leaves.
var shapes = map[string]shape{
	// Solidity
	"SourceUnit":          withNodes,
	"ContractDefinition":  withNodes,
	"FunctionDefinition":  withBody,
	"ModifierDefinition":  withBody,
	"Block":               withStatements,
	"UncheckedBlock":      withStatements,
	"ForStatement":        withBody,
	"WhileStatement":      withBody,
	"DoWhileStatement":    withBody,
	"ExpressionStatement": withExpression,
	"Return":              withExpression,
	"FunctionCall":        withExpression,
	"FunctionCallOptions": withExpression,
	"MemberAccess":        withExpression,

	// Yul
	"YulBlock":               withStatements,
	"YulFunctionDefinition":  withBody,
	"YulForLoop":             withBody,
	"YulIf":                  withBody,
	"YulSwitch":              withExpression | withCases,
	"YulCase":                withBody,
	"YulExpressionStatement": withExpression,
}

// Node is a syntax tree node annotated with the instructions compiled
// from it.
type Node struct {
	ID           int64
	Kind         string // nodeType
	Name         string
	DeclKind     string // kind attribute of functions, contracts and literals
	AbsolutePath string
	Src          string
	File         int

	Ranged     bool
	Start, End int // byte range [Start, End) when Ranged

	// Instructions holds every instruction mapped inside the node range,
	// descendants included. Own holds those for which no descendant is a
	// closer match.
	Instructions []*asm.Instruction
	Own          []*asm.Instruction

	Nodes      []*Node
	Body       *Node
	Expression *Node
	Statements []*Node
	Cases      []*Node
}

// Children returns the child nodes in field order.
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, len(n.Nodes)+len(n.Statements)+len(n.Cases)+2)
	children = append(children, n.Nodes...)
	if n.Body != nil {
		children = append(children, n.Body)
	}
	if n.Expression != nil {
		children = append(children, n.Expression)
	}
	children = append(children, n.Statements...)
	return append(children, n.Cases...)
}

// Walk calls fn for n and every descendant in pre-order.
func (n *Node) Walk(fn func(depth int, node *Node)) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node)) {
	fn(depth, n)
	for _, child := range n.Children() {
		child.walk(depth+1, fn)
	}
}

// Size is the number of code bytes attributed to the node.
func (n *Node) Size() int {
	return asm.TotalSize(n.Instructions)
}

// OwnSize is the number of code bytes owned by the node itself.
func (n *Node) OwnSize() int {
	return asm.TotalSize(n.Own)
}

// GasEstimate is the static gas upper bound of the node's instructions.
func (n *Node) GasEstimate() uint64 {
	return asm.TotalGas(n.Instructions)
}

func (n *Node) contains(offset int) bool {
	return !n.Ranged || (offset >= n.Start && offset < n.End)
}

// attach files the instruction under every node containing offset and
// returns false if none does. Children are only searched below a matching
// parent, so a node never holds an instruction its parent lacks. Ownership
// goes to the deepest ranged match, or the deepest unranged one when no
// ranged node matches.
func (n *Node) attach(in *asm.Instruction, offset int) bool {
	m := &match{}
	n.match(in, offset, 0, m)
	if m.owner == nil {
		return false
	}
	m.owner.Own = append(m.owner.Own, in)
	return true
}

type match struct {
	owner  *Node
	depth  int
	ranged bool
}

func (n *Node) match(in *asm.Instruction, offset, depth int, m *match) {
	if !n.contains(offset) {
		return
	}
	n.Instructions = append(n.Instructions, in)
	switch {
	case m.owner == nil,
		n.Ranged && !m.ranged,
		n.Ranged == m.ranged && depth > m.depth:
		m.owner, m.depth, m.ranged = n, depth, n.Ranged
	}
	for _, child := range n.Children() {
		child.match(in, offset, depth+1, m)
	}
}

// clone copies the identity and range of a syntax tree into a fresh
// annotated tree, following only the children its shape declares.
func clone(file int, fileName string, src *solast.Node) *Node {
	n := &Node{
		ID:           src.ID,
		Kind:         src.NodeType,
		Name:         src.Name,
		DeclKind:     src.Kind,
		AbsolutePath: src.AbsolutePath,
		Src:          src.Src,
		File:         file,
	}
	if src.Src != "" {
		if pos, err := src.Position(); err != nil {
			malformedCounter.Inc(1)
			log.Warn("Malformed node position", "file", fileName, "id", src.ID, "kind", src.NodeType, "src", src.Src, "err", err)
		} else {
			n.Ranged, n.Start, n.End = true, pos.Offset, pos.End()
		}
	}
	s := shapes[src.NodeType]
	if s&withNodes != 0 {
		n.Nodes = cloneList(file, fileName, src.Nodes)
	}
	if s&withBody != 0 && src.Body != nil {
		n.Body = clone(file, fileName, src.Body)
	}
	if s&withExpression != 0 && src.Expression != nil {
		n.Expression = clone(file, fileName, src.Expression)
	}
	if s&withStatements != 0 {
		n.Statements = cloneList(file, fileName, src.Statements)
	}
	if s&withCases != 0 {
		n.Cases = cloneList(file, fileName, src.Cases)
	}
	return n
}

func cloneList(file int, fileName string, list []*solast.Node) []*Node {
	if len(list) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(list))
	for _, src := range list {
		if src != nil {
			out = append(out, clone(file, fileName, src))
		}
	}
	return out
}
