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

package solast

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrContractNotFound is returned when a qualified name matches no
	// contract definition.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDuplicateContract is returned when a qualified name matches more
	// than one contract definition.
	ErrDuplicateContract = errors.New("duplicate contract definition")
)

// Unit is the set of syntax trees of one compilation, indexed by
// declaration id.
type Unit struct {
	sources map[string]*Node
	names   []string
	decls   map[int64]*Node
	owner   map[int64]string
	parent  map[int64]*Node
}

// NewUnit indexes the source units of a compilation, keyed by source name.
func NewUnit(sources map[string]*Node) *Unit {
	u := &Unit{
		sources: sources,
		names:   make([]string, 0, len(sources)),
		decls:   make(map[int64]*Node),
		owner:   make(map[int64]string),
		parent:  make(map[int64]*Node),
	}
	for name, root := range sources {
		u.names = append(u.names, name)
		if root != nil {
			u.index(name, nil, root)
		}
	}
	sort.Strings(u.names)
	return u
}

func (u *Unit) index(source string, parent, n *Node) {
	u.decls[n.ID] = n
	u.owner[n.ID] = source
	if parent != nil {
		u.parent[n.ID] = parent
	}
	for _, child := range n.Nodes {
		if child != nil {
			u.index(source, n, child)
		}
	}
}

// Sources returns the source names of the unit in lexical order.
func (u *Unit) Sources() []string {
	return u.names
}

// Source returns the syntax tree root of a source.
func (u *Unit) Source(name string) (*Node, bool) {
	n, ok := u.sources[name]
	return n, ok && n != nil
}

// Declaration returns the top level or contract level declaration with
// the given id.
func (u *Unit) Declaration(id int64) (*Node, bool) {
	n, ok := u.decls[id]
	return n, ok
}

// QualifiedName returns the source:Name form of a declaration.
func (u *Unit) QualifiedName(n *Node) string {
	return u.owner[n.ID] + ":" + n.Name
}

// Scope returns the qualified name of the contract enclosing a
// declaration, or the source name for file level declarations.
func (u *Unit) Scope(n *Node) string {
	if p, ok := u.parent[n.ID]; ok && p.NodeType == ContractDefinition {
		return u.QualifiedName(p)
	}
	return u.owner[n.ID]
}

// Contract resolves a fully qualified source:Name contract name.
func (u *Unit) Contract(fullName string) (*Node, error) {
	i := strings.LastIndex(fullName, ":")
	if i < 0 {
		return nil, fmt.Errorf("%w: %q is not a qualified name", ErrContractNotFound, fullName)
	}
	root, ok := u.Source(fullName[:i])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, fullName)
	}
	var found *Node
	for _, n := range root.Nodes {
		if n == nil || n.NodeType != ContractDefinition || n.Name != fullName[i+1:] {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateContract, fullName)
		}
		found = n
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, fullName)
	}
	return found, nil
}

// Contracts returns the qualified names of every contract, interface and
// library in the unit.
func (u *Unit) Contracts() []string {
	var names []string
	for _, source := range u.names {
		root := u.sources[source]
		if root == nil {
			continue
		}
		for _, n := range root.Nodes {
			if n != nil && n.NodeType == ContractDefinition {
				names = append(names, source+":"+n.Name)
			}
		}
	}
	return names
}
