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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenAST = `{
  "id": 40, "nodeType": "SourceUnit", "src": "0:300:0", "absolutePath": "contracts/Token.sol",
  "nodes": [
    {"id": 1, "nodeType": "PragmaDirective", "src": "0:23:0"},
    {"id": 30, "nodeType": "ContractDefinition", "src": "25:270:0", "name": "Token",
     "contractKind": "contract", "linearizedBaseContracts": [30],
     "nodes": [
       {"id": 5, "nodeType": "StructDefinition", "src": "50:40:0", "name": "Info", "canonicalName": "Token.Info",
        "members": [
          {"id": 3, "nodeType": "VariableDeclaration", "src": "60:10:0", "name": "a",
           "typeName": {"id": 2, "nodeType": "ElementaryTypeName", "name": "uint8",
                        "typeDescriptions": {"typeIdentifier": "t_uint8", "typeString": "uint8"}}}
        ]},
       {"id": 9, "nodeType": "VariableDeclaration", "src": "95:20:0", "name": "fixedList",
        "stateVariable": true, "mutability": "mutable",
        "typeName": {"id": 8, "nodeType": "ArrayTypeName",
                     "baseType": {"id": 6, "nodeType": "ElementaryTypeName", "name": "uint256"},
                     "length": {"nodeType": "Literal", "value": "3"},
                     "typeDescriptions": {"typeIdentifier": "t_array$_t_uint256_$3_storage_ptr", "typeString": "uint256[3]"}},
        "typeDescriptions": {"typeIdentifier": "t_array$_t_uint256_$3_storage", "typeString": "uint256[3]"}},
       {"id": 12, "nodeType": "VariableDeclaration", "src": "120:30:0", "name": "LIMIT",
        "stateVariable": true, "constant": true, "mutability": "constant",
        "typeDescriptions": {"typeIdentifier": "t_uint256", "typeString": "uint256"}},
       {"id": 15, "nodeType": "VariableDeclaration", "src": "155:30:0", "name": "owner",
        "stateVariable": true, "mutability": "immutable",
        "typeDescriptions": {"typeIdentifier": "t_address", "typeString": "address"}},
       {"id": 20, "nodeType": "FunctionDefinition", "src": "190:100:0", "name": "f", "kind": "function",
        "body": {"id": 19, "nodeType": "Block", "src": "220:70:0",
                 "statements": [{"id": 18, "nodeType": "ExpressionStatement", "src": "230:10:0",
                                 "expression": {"id": 17, "nodeType": "Identifier", "src": "230:5:0", "name": "x"}}]}}
     ]}
  ]
}`

func decodeUnit(t *testing.T) *Unit {
	t.Helper()
	var root Node
	require.NoError(t, json.Unmarshal([]byte(tokenAST), &root))
	return NewUnit(map[string]*Node{"contracts/Token.sol": &root})
}

func TestDecode(t *testing.T) {
	u := decodeUnit(t)
	root, ok := u.Source("contracts/Token.sol")
	require.True(t, ok)
	assert.Equal(t, SourceUnit, root.NodeType)
	assert.Equal(t, "contracts/Token.sol", root.AbsolutePath)

	fn, ok := u.Declaration(20)
	require.True(t, ok)
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Statements, 1)
	assert.Equal(t, "x", fn.Body.Statements[0].Expression.Name)

	pos, err := fn.Position()
	require.NoError(t, err)
	assert.Equal(t, 190, pos.Offset)
	assert.Equal(t, 290, pos.End())
}

func TestDeclarations(t *testing.T) {
	u := decodeUnit(t)

	info, ok := u.Declaration(5)
	require.True(t, ok)
	assert.Equal(t, StructDefinition, info.NodeType)
	require.Len(t, info.Members, 1)
	assert.Equal(t, "t_uint8", info.Members[0].TypeIdentifier())

	fixed, _ := u.Declaration(9)
	assert.False(t, fixed.IsConstant())
	assert.Equal(t, "t_array$_t_uint256_$3_storage", fixed.TypeIdentifier())
	n, ok := fixed.TypeName.ArrayLength()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), n)

	limit, _ := u.Declaration(12)
	assert.True(t, limit.IsConstant())
	owner, _ := u.Declaration(15)
	assert.True(t, owner.IsConstant())

	token, _ := u.Declaration(30)
	assert.Equal(t, "contracts/Token.sol:Token", u.QualifiedName(token))
	assert.Equal(t, "contracts/Token.sol:Token", u.Scope(info))
	assert.Equal(t, "contracts/Token.sol", u.Scope(token))

	_, ok = u.Declaration(17)
	assert.False(t, ok, "expressions are not declarations")
}

func TestArrayLength(t *testing.T) {
	tests := []struct {
		name  string
		typ   TypeName
		want  uint64
		fixed bool
	}{
		{"dynamic", TypeName{NodeType: ArrayTypeName}, 0, false},
		{"literal", TypeName{Length: &Literal{Value: "4"}}, 4, true},
		{"hex literal", TypeName{Length: &Literal{Value: "0x10"}}, 16, true},
		{"underscored", TypeName{Length: &Literal{Value: "1_000"}}, 1000, true},
		{"constant expression", TypeName{
			Length:           &Literal{NodeType: "Identifier"},
			TypeDescriptions: &TypeDescriptions{TypeString: "uint8[2][5]"},
		}, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := tt.typ.ArrayLength()
			assert.Equal(t, tt.fixed, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestContract(t *testing.T) {
	u := decodeUnit(t)

	c, err := u.Contract("contracts/Token.sol:Token")
	require.NoError(t, err)
	assert.Equal(t, int64(30), c.ID)
	assert.Equal(t, []string{"contracts/Token.sol:Token"}, u.Contracts())

	_, err = u.Contract("contracts/Token.sol:Nope")
	assert.ErrorIs(t, err, ErrContractNotFound)
	_, err = u.Contract("Token")
	assert.ErrorIs(t, err, ErrContractNotFound)
	_, err = u.Contract("contracts/Other.sol:Token")
	assert.ErrorIs(t, err, ErrContractNotFound)

	root, _ := u.Source("contracts/Token.sol")
	root.Nodes = append(root.Nodes, &Node{ID: 99, NodeType: ContractDefinition, Name: "Token"})
	_, err = u.Contract("contracts/Token.sol:Token")
	assert.ErrorIs(t, err, ErrDuplicateContract)
}
