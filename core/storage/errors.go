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
	"errors"
	"fmt"

	"github.com/bnb-chain/contract-insight/core/solast"
)

var (
	// ErrRecursiveStruct is returned when a struct contains itself by value.
	ErrRecursiveStruct = errors.New("recursive struct")

	ErrContractNotFound  = solast.ErrContractNotFound
	ErrDuplicateContract = solast.ErrDuplicateContract
)

// UnknownTypeError is returned for a type name the calculator cannot size.
type UnknownTypeError struct {
	Declaration int64  // id of the declaration carrying the type
	Kind        string // nodeType of the type name
	Name        string // type name or type string
}

func (e *UnknownTypeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("declaration %d: unknown type kind %q", e.Declaration, e.Kind)
	}
	return fmt.Sprintf("declaration %d: unknown %s %q", e.Declaration, e.Kind, e.Name)
}

// DeclarationError is returned when a type refers to a declaration that is
// missing or of an unexpected kind.
type DeclarationError struct {
	ID   int64
	Want string
	Got  string
}

func (e *DeclarationError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("declaration %d not found, want %s", e.ID, e.Want)
	}
	return fmt.Sprintf("declaration %d is a %s, want %s", e.ID, e.Got, e.Want)
}
