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

package asm

// MetadataLength returns the size of the CBOR metadata trailer solc appends
// to runtime code, including the two byte length suffix, or zero when the
// code does not end with one.
func MetadataLength(code []byte) int {
	if len(code) < 2 {
		return 0
	}
	n := int(code[len(code)-2])<<8 | int(code[len(code)-1])
	if n == 0 || n+2 > len(code) {
		return 0
	}
	// The trailer is a CBOR map with a handful of entries (ipfs, bzzr0,
	// bzzr1, experimental, solc).
	if head := code[len(code)-2-n]; head < 0xa1 || head > 0xa5 {
		return 0
	}
	return n + 2
}
