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

// Package solast models the parts of the solc JSON syntax tree used for
// instruction correlation and storage layout computation.
package solast

import (
	"strconv"
	"strings"

	"github.com/bnb-chain/contract-insight/core/sourcemap"
)

// Node kinds referenced by the storage calculator.
const (
	SourceUnit              = "SourceUnit"
	ContractDefinition      = "ContractDefinition"
	VariableDeclaration     = "VariableDeclaration"
	StructDefinition        = "StructDefinition"
	EnumDefinition          = "EnumDefinition"
	UserDefinedValueTypeDef = "UserDefinedValueTypeDefinition"
	ElementaryTypeName      = "ElementaryTypeName"
	ArrayTypeName           = "ArrayTypeName"
	Mapping                 = "Mapping"
	UserDefinedTypeName     = "UserDefinedTypeName"
	FunctionTypeName        = "FunctionTypeName"
)

// Attribute values.
const (
	ContractKindInterface = "interface"
	ContractKindLibrary   = "library"
	MutabilityConstant    = "constant"
	MutabilityImmutable   = "immutable"
	VisibilityExternal    = "external"
)

// TypeDescriptions carries the compiler's rendering of an expression type.
type TypeDescriptions struct {
	TypeIdentifier string `json:"typeIdentifier"`
	TypeString     string `json:"typeString"`
}

// Node is a syntax tree node. Only the fields read by this module are
// decoded; every other attribute of the compiler output is ignored.
type Node struct {
	ID           int64  `json:"id"`
	NodeType     string `json:"nodeType"`
	Src          string `json:"src"`
	Name         string `json:"name,omitempty"`
	Kind         string `json:"kind,omitempty"`
	AbsolutePath string `json:"absolutePath,omitempty"`

	Nodes      []*Node `json:"nodes,omitempty"`
	Body       *Node   `json:"body,omitempty"`
	Expression *Node   `json:"expression,omitempty"`
	Statements []*Node `json:"statements,omitempty"`
	Cases      []*Node `json:"cases,omitempty"` // YulSwitch

	// Contract definitions
	ContractKind            string  `json:"contractKind,omitempty"`
	Abstract                bool    `json:"abstract,omitempty"`
	LinearizedBaseContracts []int64 `json:"linearizedBaseContracts,omitempty"`

	// Variable declarations
	StateVariable    bool              `json:"stateVariable,omitempty"`
	Constant         bool              `json:"constant,omitempty"`
	Mutability       string            `json:"mutability,omitempty"`
	TypeName         *TypeName         `json:"typeName,omitempty"`
	TypeDescriptions *TypeDescriptions `json:"typeDescriptions,omitempty"`

	// Struct and enum definitions
	CanonicalName  string    `json:"canonicalName,omitempty"`
	Members        []*Node   `json:"members,omitempty"`
	UnderlyingType *TypeName `json:"underlyingType,omitempty"`
}

// Position decodes the node's src attribute.
func (n *Node) Position() (sourcemap.Position, error) {
	return sourcemap.DecompressNode(n.Src)
}

// IsConstant reports whether a variable declaration occupies no storage.
func (n *Node) IsConstant() bool {
	return n.Constant || n.Mutability == MutabilityConstant || n.Mutability == MutabilityImmutable
}

// TypeIdentifier returns the compiler's type identifier of a declaration,
// falling back to the one attached to its type name.
func (n *Node) TypeIdentifier() string {
	if n.TypeDescriptions != nil && n.TypeDescriptions.TypeIdentifier != "" {
		return n.TypeDescriptions.TypeIdentifier
	}
	if n.TypeName != nil && n.TypeName.TypeDescriptions != nil {
		return n.TypeName.TypeDescriptions.TypeIdentifier
	}
	return ""
}

// TypeString returns the human readable type of a declaration.
func (n *Node) TypeString() string {
	if n.TypeDescriptions != nil && n.TypeDescriptions.TypeString != "" {
		return n.TypeDescriptions.TypeString
	}
	if n.TypeName != nil && n.TypeName.TypeDescriptions != nil {
		return n.TypeName.TypeDescriptions.TypeString
	}
	return ""
}

// Literal is the subset of a literal expression used for array lengths.
type Literal struct {
	NodeType string `json:"nodeType"`
	Value    string `json:"value"`
}

// TypeName is a type expression attached to a declaration.
type TypeName struct {
	ID               int64             `json:"id"`
	NodeType         string            `json:"nodeType"`
	Name             string            `json:"name,omitempty"`
	TypeDescriptions *TypeDescriptions `json:"typeDescriptions,omitempty"`

	// ArrayTypeName
	BaseType *TypeName `json:"baseType,omitempty"`
	Length   *Literal  `json:"length,omitempty"`

	// Mapping
	KeyType   *TypeName `json:"keyType,omitempty"`
	ValueType *TypeName `json:"valueType,omitempty"`

	// UserDefinedTypeName
	ReferencedDeclaration int64 `json:"referencedDeclaration,omitempty"`

	// FunctionTypeName
	Visibility string `json:"visibility,omitempty"`
}

// TypeString returns the human readable rendering of the type.
func (t *TypeName) TypeString() string {
	if t.TypeDescriptions == nil {
		return t.Name
	}
	return t.TypeDescriptions.TypeString
}

// ArrayLength returns the static length of an array type, and false for a
// dynamic array. Lengths given as constant expressions are recovered from
// the rendered type string.
func (t *TypeName) ArrayLength() (uint64, bool) {
	if t.Length == nil {
		return 0, false
	}
	if n, err := strconv.ParseUint(t.Length.Value, 0, 64); err == nil && t.Length.Value != "" {
		return n, true
	}
	s := t.TypeString()
	j := strings.LastIndex(s, "]")
	if j < 0 {
		return 0, false
	}
	i := strings.LastIndex(s[:j], "[")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(s[i+1:j], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
