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

package buildinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/contract-insight/core/asm"
	"github.com/bnb-chain/contract-insight/core/insight"
	"github.com/bnb-chain/contract-insight/core/storage"
)

const (
	fixtureDir    = "testdata/build-info"
	fixture       = fixtureDir + "/8f0e2a7d4c1b3e5f6a7b8c9d0e1f2a3b.json"
	legacyFixture = "testdata/legacy/2c7d1f9e4b3a5d6c8e0f1a2b3c4d5e6f.json" // solc 0.7.6
	counterName   = "contracts/Counter.sol:Counter"
)

func TestLoad(t *testing.T) {
	b, err := Load(fixture)
	require.NoError(t, err)
	assert.Equal(t, "0.8.14", b.SolcVersion)
	assert.Equal(t, fixture, b.Path)
	assert.Equal(t, []string{
		"contracts/Counter.sol:Base",
		"contracts/Counter.sol:Counter",
		"contracts/MathLib.sol:MathLib",
	}, b.FullNames())

	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestContractLookup(t *testing.T) {
	b, err := Load(fixture)
	require.NoError(t, err)

	c, err := b.Contract(counterName)
	require.NoError(t, err)
	assert.NotEmpty(t, c.EVM.DeployedBytecode.Object)

	_, err = b.Contract("contracts/Counter.sol:Base")
	assert.ErrorIs(t, err, ErrAbstractContract)
	_, err = b.Contract("contracts/Counter.sol:Nope")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

const duplicateDoc = `{
  "solcVersion": "0.8.14",
  "output": {
    "sources": {"a.sol": {"id": 0, "ast": {"id": 3, "nodeType": "SourceUnit", "src": "0:40:0", "nodes": [
      {"id": 1, "nodeType": "ContractDefinition", "src": "0:15:0", "name": "A"},
      {"id": 2, "nodeType": "ContractDefinition", "src": "20:15:0", "name": "A"}
    ]}}},
    "contracts": {"a.sol": {"A": {"evm": {"bytecode": {"object": "6000"}, "deployedBytecode": {"object": "00"}}}}}
  }
}`

func TestContractDuplicate(t *testing.T) {
	b, err := Decode([]byte(duplicateDoc))
	require.NoError(t, err)

	_, err = b.Contract("a.sol:A")
	assert.ErrorIs(t, err, ErrDuplicateContract)
	_, err = b.Contract("a.sol")
	assert.ErrorIs(t, err, ErrContractNotFound)
	_, err = b.Contract("b.sol:A")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestNormalize(t *testing.T) {
	bc := &Bytecode{
		Object: "73__$5d4e1b6a0a6b8d2c1f3e4a5b6c7d8e9f0a$__50",
		LinkReferences: map[string]map[string][]LinkReference{
			"contracts/MathLib.sol": {"MathLib": {{Start: 1, Length: 20}}},
		},
	}
	code, err := bc.Normalize()
	require.NoError(t, err)
	require.Len(t, code, 22)
	assert.Equal(t, byte(0x73), code[0])
	assert.Equal(t, make([]byte, 20), code[1:21])
	assert.Equal(t, byte(0x50), code[21])

	bc.LinkReferences["contracts/MathLib.sol"]["MathLib"][0].Start = 10
	_, err = bc.Normalize()
	assert.Error(t, err)

	_, err = (&Bytecode{Object: "60zz"}).Normalize()
	assert.Error(t, err)

	code, err = (&Bytecode{Object: "0x6080"}).Normalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80}, code)
}

func TestInput(t *testing.T) {
	b, err := Load(fixture)
	require.NoError(t, err)

	in, err := b.RuntimeInput(counterName)
	require.NoError(t, err)
	assert.Len(t, in.Code, 30)
	require.Len(t, in.Sources, 3)
	assert.Equal(t, "contracts/Counter.sol", in.Sources[0].Name)
	assert.Contains(t, in.Sources[0].Content, "contract Counter is Base")
	assert.True(t, in.Sources[2].Generated)
	assert.Equal(t, 2, in.Sources[2].Index)

	c, err := insight.Process(in)
	require.NoError(t, err)
	assert.Len(t, c.Instructions, 8)
	assert.Empty(t, c.Missing)
	assert.Empty(t, c.Unmatched)
	assert.Len(t, c.Bucket(insight.Internal), 1)
	assert.Len(t, c.Bucket(insight.NoPosition), 1)

	var total int
	for _, i := range c.FileIndices() {
		total += c.Files[i].Root.Size()
	}
	for _, bucket := range insight.Buckets {
		total += asm.TotalSize(c.Bucket(bucket))
	}
	assert.Equal(t, len(in.Code), total)
	assert.True(t, c.Files[0].Touched)
	assert.False(t, c.Files[1].Touched)
	assert.True(t, c.Files[2].Touched)

	_, err = b.RuntimeInput("contracts/Counter.sol:Base")
	assert.ErrorIs(t, err, ErrAbstractContract)
}

func TestStorageMatchesCompiler(t *testing.T) {
	tests := []struct {
		path     string
		version  string
		contract string
		entries  int
	}{
		{fixture, "0.8.14", counterName, 3},
		{legacyFixture, "0.7.6", "contracts/Vault.sol:Vault", 6},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			b, err := Load(tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.version, b.SolcVersion)

			layout, err := storage.NewCalculator(b.Unit()).Layout(tt.contract)
			require.NoError(t, err)
			ref, err := b.ReferenceLayout(tt.contract)
			require.NoError(t, err)
			require.NotNil(t, ref)

			assert.Len(t, layout.Storage, tt.entries)
			assert.Empty(t, storage.Diff(layout.Storage, ref.Storage))
			assert.Equal(t, ref, layout)
		})
	}

	b, err := Load(fixture)
	require.NoError(t, err)
	ref, err := b.ReferenceLayout("contracts/Nope.sol:Nope")
	assert.ErrorIs(t, err, ErrContractNotFound)
	assert.Nil(t, ref)
}

func TestStore(t *testing.T) {
	s, err := Open(fixtureDir, 1)
	require.NoError(t, err)
	assert.Len(t, s.Files(), 1)
	assert.Len(t, s.FullNames(), 3)

	first, err := s.Get(counterName)
	require.NoError(t, err)
	again, err := s.Get("contracts/MathLib.sol:MathLib")
	require.NoError(t, err)
	assert.Same(t, first, again, "both contracts come from the same cached file")

	_, err = s.Get("contracts/Nope.sol:Nope")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestStoreErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	_, err = Open(dir, 0)
	assert.Error(t, err)
}
