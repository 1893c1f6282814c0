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
	"strconv"
	"strings"

	"github.com/bnb-chain/contract-insight/core/solast"
)

// DecodeTypeIdentifier turns a solc type identifier into the signature
// used by the compiler's storage layout output, e.g.
//
//	t_mapping$_t_address_$_t_uint256_$  =>  t_mapping(t_address,t_uint256)
//	t_struct$_Info_$12_storage          =>  t_struct(Info)12_storage
func DecodeTypeIdentifier(ident string) string {
	var b strings.Builder
	b.Grow(len(ident))
	for i := 0; i < len(ident); {
		rest := ident[i:]
		switch {
		case strings.HasPrefix(rest, "$$$"):
			b.WriteByte('$')
			i += 3
		case strings.HasPrefix(rest, "_$_") && (len(rest) == 3 || rest[3] != '$'):
			b.WriteByte(',')
			i += 3
		case strings.HasPrefix(rest, "$_"):
			b.WriteByte('(')
			i += 2
		case strings.HasPrefix(rest, "_$"):
			b.WriteByte(')')
			i += 2
		default:
			b.WriteByte(ident[i])
			i++
		}
	}
	return b.String()
}

// Signature returns the storage layout signature of a type identifier.
// Storage pointers, as found on type names and struct members, are reported
// as the storage location they point to.
func Signature(ident string) string {
	return DecodeTypeIdentifier(strings.TrimSuffix(ident, "_ptr"))
}

type kind int

const (
	kindValue kind = iota
	kindStruct
	kindStaticArray
	kindDynamicArray
	kindMapping
	kindBytes
)

// typeInfo is a resolved storage type.
type typeInfo struct {
	kind     kind
	bits     uint // width of value types
	sig      string
	label    string
	length   uint64 // static arrays
	base     *typeInfo
	key      *typeInfo
	value    *typeInfo
	structID int64
}

func (t *typeInfo) packable() bool {
	return t.kind == kindValue
}

// elementaryBits sizes an elementary type name. Dynamic byte arrays report
// ok with zero bits.
func elementaryBits(name string) (uint, bool) {
	name = strings.TrimSuffix(name, " payable")
	switch name {
	case "bool", "byte":
		return 8, true
	case "address":
		return 160, true
	case "uint", "int":
		return 256, true
	case "string", "bytes":
		return 0, true
	}
	var prefix string
	switch {
	case strings.HasPrefix(name, "uint"):
		prefix = "uint"
	case strings.HasPrefix(name, "int"):
		prefix = "int"
	case strings.HasPrefix(name, "bytes"):
		n, err := strconv.ParseUint(name[len("bytes"):], 10, 8)
		if err != nil || n == 0 || n > 32 {
			return 0, false
		}
		return uint(n) * 8, true
	case strings.HasPrefix(name, "ufixed"):
		prefix = "ufixed"
	case strings.HasPrefix(name, "fixed"):
		prefix = "fixed"
	default:
		return 0, false
	}
	digits := name[len(prefix):]
	if prefix == "ufixed" || prefix == "fixed" {
		if digits == "" {
			return 128, true
		}
		if i := strings.IndexByte(digits, 'x'); i >= 0 {
			digits = digits[:i]
		}
	}
	n, err := strconv.ParseUint(digits, 10, 16)
	if err != nil || n == 0 || n > 256 || n%8 != 0 {
		return 0, false
	}
	return uint(n), true
}

// canonicalElementary expands the aliases solc accepts in source.
func canonicalElementary(name string) string {
	switch name {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	case "byte":
		return "bytes1"
	case "address payable":
		return "address_payable"
	}
	return name
}

// trimLocation drops the data location solc appends to reference type
// strings.
func trimLocation(label string) string {
	for _, suffix := range []string{" storage ref", " storage pointer", " memory", " calldata"} {
		label = strings.TrimSuffix(label, suffix)
	}
	return label
}

// resolve classifies the type name of declaration decl. The identifier,
// when known, provides the exact signature.
func (c *Calculator) resolve(decl int64, t *solast.TypeName, ident string) (*typeInfo, error) {
	if t == nil {
		return nil, &UnknownTypeError{Declaration: decl}
	}
	if ident == "" && t.TypeDescriptions != nil {
		ident = t.TypeDescriptions.TypeIdentifier
	}
	info := &typeInfo{label: trimLocation(t.TypeString())}

	switch t.NodeType {
	case solast.ElementaryTypeName:
		name := t.Name
		if name == "" {
			name = info.label
		}
		bits, ok := elementaryBits(name)
		if !ok {
			return nil, &UnknownTypeError{Declaration: decl, Kind: t.NodeType, Name: name}
		}
		if info.label == "" {
			info.label = name
		}
		if bits == 0 {
			info.kind = kindBytes
			info.sig = "t_" + name + "_storage"
		} else {
			info.kind, info.bits = kindValue, bits
			info.sig = "t_" + canonicalElementary(strings.TrimSpace(name))
		}

	case solast.ArrayTypeName:
		base, err := c.resolve(decl, t.BaseType, "")
		if err != nil {
			return nil, err
		}
		info.base = base
		if n, ok := t.ArrayLength(); ok {
			info.kind, info.length = kindStaticArray, n
			info.sig = "t_array(" + base.sig + ")" + strconv.FormatUint(n, 10) + "_storage"
		} else {
			info.kind = kindDynamicArray
			info.sig = "t_array(" + base.sig + ")dyn_storage"
		}

	case solast.Mapping:
		key, err := c.resolve(decl, t.KeyType, "")
		if err != nil {
			return nil, err
		}
		// Dynamic keys keep their memory pointer identifier.
		if kt := t.KeyType.TypeDescriptions; kt != nil && strings.HasSuffix(kt.TypeIdentifier, "_memory_ptr") {
			key.sig = DecodeTypeIdentifier(kt.TypeIdentifier)
		}
		value, err := c.resolve(decl, t.ValueType, "")
		if err != nil {
			return nil, err
		}
		info.kind, info.key, info.value = kindMapping, key, value
		info.sig = "t_mapping(" + key.sig + "," + value.sig + ")"

	case solast.UserDefinedTypeName:
		if err := c.resolveUserDefined(decl, t, info); err != nil {
			return nil, err
		}

	case solast.FunctionTypeName:
		info.kind, info.bits = kindValue, 64
		if t.Visibility == solast.VisibilityExternal {
			info.bits = 192
		}
		info.sig = "t_function_" + t.Visibility

	default:
		return nil, &UnknownTypeError{Declaration: decl, Kind: t.NodeType, Name: info.label}
	}
	if ident != "" {
		info.sig = Signature(ident)
	}
	return info, nil
}

func (c *Calculator) resolveUserDefined(decl int64, t *solast.TypeName, info *typeInfo) error {
	ref, ok := c.unit.Declaration(t.ReferencedDeclaration)
	if !ok {
		return &DeclarationError{ID: t.ReferencedDeclaration, Want: "type definition"}
	}
	id := strconv.FormatInt(ref.ID, 10)
	switch ref.NodeType {
	case solast.StructDefinition:
		info.kind, info.structID = kindStruct, ref.ID
		info.sig = "t_struct(" + ref.Name + ")" + id + "_storage"
		if info.label == "" {
			info.label = "struct " + ref.CanonicalName
		}
	case solast.EnumDefinition:
		info.kind, info.bits = kindValue, 8
		info.sig = "t_enum(" + ref.Name + ")" + id
		if info.label == "" {
			info.label = "enum " + ref.CanonicalName
		}
	case solast.ContractDefinition:
		info.kind, info.bits = kindValue, 160
		info.sig = "t_contract(" + ref.Name + ")" + id
		if info.label == "" {
			info.label = "contract " + ref.Name
		}
	case solast.UserDefinedValueTypeDef:
		underlying, err := c.resolve(ref.ID, ref.UnderlyingType, "")
		if err != nil {
			return err
		}
		if !underlying.packable() {
			return &UnknownTypeError{Declaration: decl, Kind: ref.NodeType, Name: ref.Name}
		}
		info.kind, info.bits = kindValue, underlying.bits
		info.sig = "t_userDefinedValueType(" + ref.Name + ")" + id
		if info.label == "" {
			info.label = ref.Name
		}
	default:
		return &DeclarationError{ID: ref.ID, Want: "type definition", Got: ref.NodeType}
	}
	return nil
}
