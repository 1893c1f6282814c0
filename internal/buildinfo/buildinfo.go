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

// Package buildinfo reads the build-info files Hardhat writes next to its
// artifacts: the full solc standard JSON input and output of one
// compilation.
package buildinfo

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/bnb-chain/contract-insight/core/insight"
	"github.com/bnb-chain/contract-insight/core/solast"
	"github.com/bnb-chain/contract-insight/core/storage"
)

var (
	// ErrAbstractContract is returned for contracts without bytecode.
	ErrAbstractContract = errors.New("abstract contract, no bytecode")

	ErrContractNotFound  = solast.ErrContractNotFound
	ErrDuplicateContract = solast.ErrDuplicateContract
)

// BuildInfo is one Hardhat build-info file.
type BuildInfo struct {
	ID              string `json:"id"`
	Format          string `json:"_format"`
	SolcVersion     string `json:"solcVersion"`
	SolcLongVersion string `json:"solcLongVersion"`
	Input           Input  `json:"input"`
	Output          Output `json:"output"`

	Path string `json:"-"`

	unitOnce sync.Once
	unit     *solast.Unit
}

type Input struct {
	Language string                 `json:"language"`
	Sources  map[string]InputSource `json:"sources"`
}

type InputSource struct {
	Content string `json:"content"`
}

type Output struct {
	Sources   map[string]OutputSource         `json:"sources"`
	Contracts map[string]map[string]*Contract `json:"contracts"`
}

type OutputSource struct {
	ID  int          `json:"id"`
	AST *solast.Node `json:"ast"`
}

// Contract is the compiler output for a single contract.
type Contract struct {
	EVM           EVM             `json:"evm"`
	StorageLayout *storage.Layout `json:"storageLayout,omitempty"`
}

type EVM struct {
	Bytecode         Bytecode `json:"bytecode"`
	DeployedBytecode Bytecode `json:"deployedBytecode"`
}

// Bytecode is creation or runtime code as emitted by solc. Object is hex
// without prefix and may contain __$...$__ library placeholders.
type Bytecode struct {
	Object           string                                `json:"object"`
	SourceMap        string                                `json:"sourceMap"`
	LinkReferences   map[string]map[string][]LinkReference `json:"linkReferences,omitempty"`
	GeneratedSources []GeneratedSource                     `json:"generatedSources,omitempty"`
}

// LinkReference locates a library address placeholder, in bytes.
type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// GeneratedSource is a Yul helper source the compiler produced.
type GeneratedSource struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Language string       `json:"language"`
	Contents string       `json:"contents"`
	AST      *solast.Node `json:"ast"`
}

// Load reads and decodes a build-info file.
func Load(path string) (*BuildInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading build info")
	}
	b, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding build info %s", path)
	}
	b.Path = path
	return b, nil
}

// Decode decodes a build-info document.
func Decode(data []byte) (*BuildInfo, error) {
	b := new(BuildInfo)
	if err := json.Unmarshal(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

// FullNames returns the source:Name of every contract in the output.
func (b *BuildInfo) FullNames() []string {
	var names []string
	for source, contracts := range b.Output.Contracts {
		for name := range contracts {
			names = append(names, source+":"+name)
		}
	}
	sort.Strings(names)
	return names
}

// Unit returns the indexed syntax trees of the compilation.
func (b *BuildInfo) Unit() *solast.Unit {
	b.unitOnce.Do(func() {
		sources := make(map[string]*solast.Node, len(b.Output.Sources))
		for name, src := range b.Output.Sources {
			sources[name] = src.AST
		}
		b.unit = solast.NewUnit(sources)
	})
	return b.unit
}

// Contract returns the output of the contract with the given fully
// qualified name. ErrAbstractContract is returned for contracts without
// code and ErrDuplicateContract when the source declares the name twice.
func (b *BuildInfo) Contract(fullName string) (*Contract, error) {
	c, ok := b.lookup(fullName)
	if !ok {
		return nil, errors.Wrap(ErrContractNotFound, fullName)
	}
	if _, err := b.Unit().Contract(fullName); errors.Is(err, ErrDuplicateContract) {
		return nil, errors.Wrap(ErrDuplicateContract, fullName)
	}
	if c == nil || c.EVM.Bytecode.Object == "" {
		return nil, errors.Wrap(ErrAbstractContract, fullName)
	}
	return c, nil
}

// Normalize decodes the bytecode, replacing library placeholders with the
// zero address.
func (bc *Bytecode) Normalize() ([]byte, error) {
	object := strings.TrimPrefix(bc.Object, "0x")
	if len(bc.LinkReferences) > 0 {
		hex := []byte(object)
		for _, libs := range bc.LinkReferences {
			for _, refs := range libs {
				for _, ref := range refs {
					start, end := 2*ref.Start, 2*(ref.Start+ref.Length)
					if start < 0 || end > len(hex) || start > end {
						return nil, errors.Errorf("link reference %d+%d out of range", ref.Start, ref.Length)
					}
					for i := start; i < end; i++ {
						hex[i] = '0'
					}
				}
			}
		}
		object = string(hex)
	}
	code, err := hexutil.Decode("0x" + object)
	if err != nil {
		return nil, errors.Wrap(err, "decoding bytecode")
	}
	return code, nil
}

// RuntimeInput assembles everything the correlator needs to analyse the
// runtime code of a contract: the normalized code, its source map, the user sources
// and the compiler generated ones.
func (b *BuildInfo) RuntimeInput(fullName string) (*insight.Input, error) {
	c, err := b.Contract(fullName)
	if err != nil {
		return nil, err
	}
	deployed := &c.EVM.DeployedBytecode
	code, err := deployed.Normalize()
	if err != nil {
		return nil, errors.Wrapf(err, "normalizing runtime code of %s", fullName)
	}
	in := &insight.Input{
		Name:      fullName,
		Code:      code,
		SourceMap: deployed.SourceMap,
		Sources:   make([]insight.Source, 0, len(b.Output.Sources)+len(deployed.GeneratedSources)),
	}
	names := make([]string, 0, len(b.Output.Sources))
	for name := range b.Output.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		src := b.Output.Sources[name]
		in.Sources = append(in.Sources, insight.Source{
			Index:   src.ID,
			Name:    name,
			Content: b.Input.Sources[name].Content,
			AST:     src.AST,
		})
	}
	for _, gen := range deployed.GeneratedSources {
		in.Sources = append(in.Sources, insight.Source{
			Index:     gen.ID,
			Name:      gen.Name,
			Content:   gen.Contents,
			AST:       gen.AST,
			Generated: true,
		})
	}
	return in, nil
}

// ReferenceLayout returns the storage layout the compiler reported for a
// contract, or nil when the output selection did not include it.
func (b *BuildInfo) ReferenceLayout(fullName string) (*storage.Layout, error) {
	c, ok := b.lookup(fullName)
	if !ok {
		return nil, errors.Wrap(ErrContractNotFound, fullName)
	}
	if c == nil {
		return nil, nil
	}
	return c.StorageLayout, nil
}

func (b *BuildInfo) lookup(fullName string) (*Contract, bool) {
	i := strings.LastIndex(fullName, ":")
	if i < 0 {
		return nil, false
	}
	c, ok := b.Output.Contracts[fullName[:i]][fullName[i+1:]]
	return c, ok
}
