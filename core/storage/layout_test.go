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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/contract-insight/core/solast"
)

const source = "contracts/Vault.sol"

func elem(id int64, name, ident string) *solast.TypeName {
	return &solast.TypeName{
		ID:               id,
		NodeType:         solast.ElementaryTypeName,
		Name:             name,
		TypeDescriptions: &solast.TypeDescriptions{TypeIdentifier: ident, TypeString: name},
	}
}

func array(id int64, base *solast.TypeName, length, ident, label string) *solast.TypeName {
	t := &solast.TypeName{
		ID:               id,
		NodeType:         solast.ArrayTypeName,
		BaseType:         base,
		TypeDescriptions: &solast.TypeDescriptions{TypeIdentifier: ident, TypeString: label},
	}
	if length != "" {
		t.Length = &solast.Literal{NodeType: "Literal", Value: length}
	}
	return t
}

func userType(id, ref int64, ident, label string) *solast.TypeName {
	return &solast.TypeName{
		ID:                    id,
		NodeType:              solast.UserDefinedTypeName,
		ReferencedDeclaration: ref,
		TypeDescriptions:      &solast.TypeDescriptions{TypeIdentifier: ident, TypeString: label},
	}
}

func variable(id int64, name string, t *solast.TypeName) *solast.Node {
	return &solast.Node{
		ID:            id,
		NodeType:      solast.VariableDeclaration,
		Name:          name,
		StateVariable: true,
		Mutability:    "mutable",
		TypeName:      t,
	}
}

func contract(id int64, name string, bases []int64, nodes ...*solast.Node) *solast.Node {
	return &solast.Node{
		ID:                      id,
		NodeType:                solast.ContractDefinition,
		Name:                    name,
		ContractKind:            "contract",
		LinearizedBaseContracts: append([]int64{id}, bases...),
		Nodes:                   nodes,
	}
}

func newUnit(nodes ...*solast.Node) *solast.Unit {
	root := &solast.Node{ID: 1000, NodeType: solast.SourceUnit, AbsolutePath: source, Nodes: nodes}
	return solast.NewUnit(map[string]*solast.Node{source: root})
}

func slotsOf(t *testing.T, l *Layout) []string {
	t.Helper()
	slots := make([]string, len(l.Storage))
	for i, e := range l.Storage {
		slots[i] = e.Slot
	}
	return slots
}

func TestDecodeTypeIdentifier(t *testing.T) {
	tests := []struct {
		ident, want string
	}{
		{"t_uint256", "t_uint256"},
		{"t_mapping$_t_address_$_t_uint256_$", "t_mapping(t_address,t_uint256)"},
		{"t_struct$_Info_$12_storage", "t_struct(Info)12_storage"},
		{"t_array$_t_uint256_$2_storage", "t_array(t_uint256)2_storage"},
		{"t_array$_t_struct$_Info_$12_storage_$dyn_storage", "t_array(t_struct(Info)12_storage)dyn_storage"},
		{
			"t_mapping$_t_address_$_t_mapping$_t_address_$_t_uint256_$_$",
			"t_mapping(t_address,t_mapping(t_address,t_uint256))",
		},
		{"t_function_internal_nonpayable$__$returns$__$", "t_function_internal_nonpayable()returns()"},
		{"t_contract$_My$$$Token_$7", "t_contract(My$Token)7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecodeTypeIdentifier(tt.ident), tt.ident)
	}
	assert.Equal(t, "t_struct(Info)12_storage", Signature("t_struct$_Info_$12_storage_ptr"))
	assert.Equal(t, "t_string_storage", Signature("t_string_storage_ptr"))
}

func TestElementaryBits(t *testing.T) {
	tests := []struct {
		name string
		bits uint
		ok   bool
	}{
		{"bool", 8, true},
		{"address", 160, true},
		{"address payable", 160, true},
		{"uint", 256, true},
		{"uint16", 16, true},
		{"int64", 64, true},
		{"bytes4", 32, true},
		{"byte", 8, true},
		{"bytes", 0, true},
		{"string", 0, true},
		{"fixed128x18", 128, true},
		{"uint7", 0, false},
		{"bytes33", 0, false},
		{"uint512", 0, false},
		{"var", 0, false},
	}
	for _, tt := range tests {
		bits, ok := elementaryBits(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.bits, bits, tt.name)
	}
}

func TestPackSmallThenWord(t *testing.T) {
	unit := newUnit(contract(10, "Vault", nil,
		variable(1, "a", elem(2, "uint16", "t_uint16")),
		variable(3, "b", elem(4, "uint256", "t_uint256")),
	))
	layout, err := NewCalculator(unit).Layout(source + ":Vault")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, slotsOf(t, layout))

	var p packer
	c := NewCalculator(unit)
	for _, bits := range []uint{16, 256} {
		_, _, err := p.place(c, &typeInfo{kind: kindValue, bits: bits})
		require.NoError(t, err)
	}
	slots := p.end()
	assert.Equal(t, uint64(2), slots.Uint64())
}

func TestPackArrays(t *testing.T) {
	unit := newUnit(contract(10, "Vault", nil,
		variable(1, "a", elem(2, "uint128", "t_uint128")),
		variable(3, "b", elem(4, "uint128", "t_uint128")),
		variable(5, "fixed", array(7, elem(6, "uint256", "t_uint256"), "2", "t_array$_t_uint256_$2_storage_ptr", "uint256[2]")),
		variable(8, "list", array(10, elem(9, "uint256", "t_uint256"), "", "t_array$_t_uint256_$dyn_storage_ptr", "uint256[]")),
		variable(11, "last", elem(12, "bool", "t_bool")),
	))
	layout, err := NewCalculator(unit).Layout(source + ":Vault")
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "0", "1", "3", "4"}, slotsOf(t, layout))
	assert.Equal(t, uint(16), layout.Storage[1].Offset)
	assert.Equal(t, "t_array(t_uint256)2_storage", layout.Storage[2].Type)
	assert.Equal(t, "t_array(t_uint256)dyn_storage", layout.Storage[3].Type)

	fixed := layout.Types["t_array(t_uint256)2_storage"]
	require.NotNil(t, fixed)
	assert.Equal(t, EncodingInplace, fixed.Encoding)
	assert.Equal(t, "64", fixed.NumberOfBytes)
	assert.Equal(t, "t_uint256", fixed.Base)

	list := layout.Types["t_array(t_uint256)dyn_storage"]
	require.NotNil(t, list)
	assert.Equal(t, EncodingDynamicArray, list.Encoding)
	assert.Equal(t, "32", list.NumberOfBytes)
}

func TestPackSmallArrayElements(t *testing.T) {
	unit := newUnit(contract(10, "Vault", nil,
		variable(1, "bytesList", array(3, elem(2, "uint8", "t_uint8"), "40", "", "uint8[40]")),
		variable(4, "triples", array(6, elem(5, "uint24", "t_uint24"), "11", "", "uint24[11]")),
		variable(7, "tail", elem(8, "uint8", "t_uint8")),
	))
	layout, err := NewCalculator(unit).Layout(source + ":Vault")
	require.NoError(t, err)
	// 40 bytes span two slots, 11 three byte values at ten per slot span two.
	assert.Equal(t, []string{"0", "2", "4"}, slotsOf(t, layout))
	assert.Equal(t, "t_array(t_uint8)40_storage", layout.Storage[0].Type)
}

func TestConstantsExcluded(t *testing.T) {
	limit := variable(3, "LIMIT", elem(4, "uint256", "t_uint256"))
	limit.Constant, limit.Mutability = true, solast.MutabilityConstant
	owner := variable(5, "owner", elem(6, "address", "t_address"))
	owner.Mutability = solast.MutabilityImmutable

	unit := newUnit(contract(10, "Vault", nil,
		variable(1, "a", elem(2, "uint8", "t_uint8")),
		limit,
		owner,
		variable(7, "b", elem(8, "uint8", "t_uint8")),
	))
	layout, err := NewCalculator(unit).Layout(source + ":Vault")
	require.NoError(t, err)
	require.Len(t, layout.Storage, 2)
	assert.Equal(t, "b", layout.Storage[1].Label)
	assert.Equal(t, "0", layout.Storage[1].Slot)
	assert.Equal(t, uint(1), layout.Storage[1].Offset)

	require.Len(t, layout.Constants, 2)
	assert.True(t, layout.Constants[0].Constant)
	assert.Empty(t, layout.Constants[0].Slot)
}

func TestInheritanceOrder(t *testing.T) {
	base := contract(20, "Base", nil, variable(21, "a", elem(22, "uint8", "t_uint8")))
	child := contract(30, "Child", []int64{20},
		variable(31, "b", elem(32, "uint8", "t_uint8")),
		variable(33, "c", elem(34, "uint256", "t_uint256")),
	)
	unit := newUnit(base, child)
	layout, err := NewCalculator(unit).Layout(source + ":Child")
	require.NoError(t, err)

	want := []Entry{
		{Contract: source + ":Base", AstID: 21, Label: "a", Type: "t_uint8", Slot: "0", Offset: 0},
		{Contract: source + ":Child", AstID: 31, Label: "b", Type: "t_uint8", Slot: "0", Offset: 1},
		{Contract: source + ":Child", AstID: 33, Label: "c", Type: "t_uint256", Slot: "1", Offset: 0},
	}
	assert.Equal(t, want, layout.Storage)
	assert.Empty(t, Diff(layout.Storage, want))
}

func TestStructsAndMappings(t *testing.T) {
	info := &solast.Node{
		ID: 40, NodeType: solast.StructDefinition, Name: "Info", CanonicalName: "Vault.Info",
		Members: []*solast.Node{
			variable(41, "x", elem(42, "uint8", "t_uint8")),
			variable(43, "y", elem(44, "uint256", "t_uint256")),
			variable(45, "z", elem(46, "uint8", "t_uint8")),
		},
	}
	kind := &solast.Node{ID: 50, NodeType: solast.EnumDefinition, Name: "Kind", CanonicalName: "Vault.Kind"}
	infoType := userType(61, 40, "t_struct$_Info_$40_storage_ptr", "struct Vault.Info")
	balances := &solast.TypeName{
		ID:        63,
		NodeType:  solast.Mapping,
		KeyType:   elem(64, "address", "t_address"),
		ValueType: userType(65, 40, "t_struct$_Info_$40_storage", "struct Vault.Info"),
		TypeDescriptions: &solast.TypeDescriptions{
			TypeIdentifier: "t_mapping$_t_address_$_t_struct$_Info_$40_storage_$",
			TypeString:     "mapping(address => struct Vault.Info)",
		},
	}
	unit := newUnit(contract(10, "Vault", nil,
		info,
		kind,
		variable(60, "info", infoType),
		variable(62, "balances", balances),
		variable(66, "kind", userType(67, 50, "t_enum$_Kind_$50", "enum Vault.Kind")),
		variable(68, "flag", elem(69, "bool", "t_bool")),
	))
	c := NewCalculator(unit)

	s, err := c.Struct(40)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), s.Slots.Uint64())
	assert.Equal(t, "Vault.Info", s.Name)
	assert.Equal(t, source+":Vault", s.Members[0].Contract)

	layout, err := c.Layout(source + ":Vault")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "3", "4", "4"}, slotsOf(t, layout))
	assert.Equal(t, uint(1), layout.Storage[3].Offset)
	assert.Equal(t, "t_struct(Info)40_storage", layout.Storage[0].Type)
	assert.Equal(t, "t_mapping(t_address,t_struct(Info)40_storage)", layout.Storage[1].Type)

	st := layout.Types["t_struct(Info)40_storage"]
	require.NotNil(t, st)
	assert.Equal(t, "96", st.NumberOfBytes)
	assert.Equal(t, "struct Vault.Info", st.Label)
	require.Len(t, st.Members, 3)
	assert.Equal(t, "2", st.Members[2].Slot)

	m := layout.Types["t_mapping(t_address,t_struct(Info)40_storage)"]
	require.NotNil(t, m)
	assert.Equal(t, EncodingMapping, m.Encoding)
	assert.Equal(t, "t_address", m.Key)
	assert.Equal(t, "t_struct(Info)40_storage", m.Value)
	assert.Equal(t, "1", layout.Types["t_enum(Kind)50"].NumberOfBytes)
	assert.Equal(t, "20", layout.Types["t_address"].NumberOfBytes)
}

func TestRecursiveStruct(t *testing.T) {
	node := &solast.Node{ID: 40, NodeType: solast.StructDefinition, Name: "Node", CanonicalName: "Vault.Node"}
	node.Members = []*solast.Node{
		variable(41, "value", elem(42, "uint256", "t_uint256")),
		variable(43, "children", array(45, userType(44, 40, "t_struct$_Node_$40_storage_ptr", "struct Vault.Node"),
			"", "t_array$_t_struct$_Node_$40_storage_$dyn_storage_ptr", "struct Vault.Node[]")),
	}
	loop := &solast.Node{ID: 50, NodeType: solast.StructDefinition, Name: "Loop", CanonicalName: "Vault.Loop"}
	loop.Members = []*solast.Node{variable(51, "self", userType(52, 50, "t_struct$_Loop_$50_storage_ptr", "struct Vault.Loop"))}

	unit := newUnit(
		contract(10, "Tree", nil, node, variable(60, "root", userType(61, 40, "t_struct$_Node_$40_storage_ptr", "struct Vault.Node"))),
		contract(20, "Broken", nil, loop, variable(70, "loop", userType(71, 50, "t_struct$_Loop_$50_storage_ptr", "struct Vault.Loop"))),
	)
	c := NewCalculator(unit)

	layout, err := c.Layout(source + ":Tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, slotsOf(t, layout))
	assert.Equal(t, "64", layout.Types["t_struct(Node)40_storage"].NumberOfBytes)

	_, err = c.Layout(source + ":Broken")
	assert.ErrorIs(t, err, ErrRecursiveStruct)
}

func TestLayoutErrors(t *testing.T) {
	unit := newUnit(
		contract(10, "Unknown", nil, variable(1, "v", &solast.TypeName{ID: 2, NodeType: "FancyTypeName"})),
		contract(20, "Dangling", nil, variable(3, "v", userType(4, 999, "", "struct Gone"))),
		contract(30, "Orphan", []int64{999}),
	)
	c := NewCalculator(unit)

	_, err := c.Layout(source + ":Unknown")
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "FancyTypeName", unknown.Kind)
	assert.Equal(t, int64(1), unknown.Declaration)

	_, err = c.Layout(source + ":Dangling")
	var decl *DeclarationError
	require.ErrorAs(t, err, &decl)
	assert.Equal(t, int64(999), decl.ID)

	_, err = c.Layout(source + ":Orphan")
	require.ErrorAs(t, err, &decl)

	_, err = c.Layout(source + ":Missing")
	assert.ErrorIs(t, err, ErrContractNotFound)

	dup := newUnit(contract(10, "Twice", nil), contract(11, "Twice", nil))
	_, err = NewCalculator(dup).Layout(source + ":Twice")
	assert.ErrorIs(t, err, ErrDuplicateContract)
}

func TestFunctionAndValueTypes(t *testing.T) {
	price := &solast.Node{
		ID: 40, NodeType: solast.UserDefinedValueTypeDef, Name: "Price",
		UnderlyingType: elem(41, "uint64", "t_uint64"),
	}
	token := &solast.Node{ID: 50, NodeType: solast.ContractDefinition, Name: "Token", ContractKind: "contract"}
	unit := newUnit(token, price, contract(10, "Vault", nil,
		variable(1, "price", userType(2, 40, "t_userDefinedValueType$_Price_$40", "Price")),
		variable(3, "hook", &solast.TypeName{ID: 4, NodeType: solast.FunctionTypeName, Visibility: "internal",
			TypeDescriptions: &solast.TypeDescriptions{TypeIdentifier: "t_function_internal_nonpayable$__$returns$__$"}}),
		variable(5, "callback", &solast.TypeName{ID: 6, NodeType: solast.FunctionTypeName, Visibility: "external"}),
		variable(7, "token", userType(8, 50, "t_contract$_Token_$50", "contract Token")),
	))
	layout, err := NewCalculator(unit).Layout(source + ":Vault")
	require.NoError(t, err)

	// 8 + 8 bytes, then 24 no longer fit, then the 20 byte contract reference.
	assert.Equal(t, []string{"0", "0", "1", "2"}, slotsOf(t, layout))
	assert.Equal(t, uint(8), layout.Storage[1].Offset)
	assert.Equal(t, "t_userDefinedValueType(Price)40", layout.Storage[0].Type)
	assert.Equal(t, "t_function_internal_nonpayable()returns()", layout.Storage[1].Type)
	assert.Equal(t, "t_contract(Token)50", layout.Storage[3].Type)
	assert.Equal(t, "24", layout.Types[layout.Storage[2].Type].NumberOfBytes)
}

func TestDiff(t *testing.T) {
	computed := []Entry{
		{AstID: 1, Label: "a", Type: "t_uint8", Slot: "0"},
		{AstID: 2, Label: "b", Type: "t_uint8", Slot: "0", Offset: 1},
	}
	reference := []Entry{
		{AstID: 1, Label: "a", Type: "t_uint8", Slot: "0"},
		{AstID: 2, Label: "b", Type: "t_uint16", Slot: "1"},
		{AstID: 3, Label: "c", Type: "t_uint8", Slot: "2"},
	}
	all := Compare(computed, reference)
	require.Len(t, all, 3)
	assert.True(t, all[0].Match())

	diff := Diff(computed, reference)
	require.Len(t, diff, 2)
	assert.Equal(t, []string{"type", "slot", "offset"}, diff[0].Fields)
	assert.Nil(t, diff[1].Computed)
	assert.Equal(t, "c", diff[1].Reference.Label)
}
