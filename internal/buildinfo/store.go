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
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"

	"github.com/bnb-chain/contract-insight/log"
)

// DefaultCacheSize is the number of decoded build-info files kept in memory.
const DefaultCacheSize = 8

var (
	cacheHitCounter  = metrics.NewRegisteredCounter("buildinfo/cache/hit", nil)
	cacheMissCounter = metrics.NewRegisteredCounter("buildinfo/cache/miss", nil)
)

// indexDoc is the part of a build-info file needed to know which contracts
// it holds.
type indexDoc struct {
	Output struct {
		Contracts map[string]map[string]json.RawMessage `json:"contracts"`
	} `json:"output"`
}

// Store resolves contract names to the build-info files compiling them.
// Decoded files are kept in an LRU cache; a Store is safe for concurrent
// use once opened.
type Store struct {
	dir   string
	files []string
	index map[string]string // full name => build-info path
	names []string
	cache *lru.Cache[string, *BuildInfo]
}

// Open scans dir, recursively, for build-info files and indexes the
// contracts they contain. Unreadable files are skipped with a warning.
func Open(dir string, cacheSize int) (*Store, error) {
	if !common.FileExist(dir) {
		return nil, errors.Errorf("artifacts directory %s does not exist", dir)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	s := &Store{
		dir:   dir,
		index: make(map[string]string),
		cache: lru.NewCache[string, *BuildInfo](cacheSize),
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		s.files = append(s.files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning artifacts directory")
	}
	sort.Strings(s.files)
	for _, path := range s.files {
		if err := s.indexFile(path); err != nil {
			log.Warn("Skipping build info", "path", path, "err", err)
		}
	}
	if len(s.index) == 0 {
		return nil, errors.Errorf("no contracts found in %s", dir)
	}
	for name := range s.index {
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	log.Debug("Indexed build info", "dir", dir, "files", len(s.files), "contracts", len(s.names))
	return s, nil
}

func (s *Store) indexFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc indexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for source, contracts := range doc.Output.Contracts {
		for name := range contracts {
			fullName := source + ":" + name
			if prev, ok := s.index[fullName]; ok {
				log.Warn("Contract compiled more than once", "contract", fullName, "used", prev, "ignored", path)
				continue
			}
			s.index[fullName] = path
		}
	}
	return nil
}

// Dir returns the scanned directory.
func (s *Store) Dir() string {
	return s.dir
}

// Files returns the build-info files found, in lexical order.
func (s *Store) Files() []string {
	return s.files
}

// FullNames returns every indexed contract name in lexical order.
func (s *Store) FullNames() []string {
	return s.names
}

// Get returns the decoded build info compiling the named contract.
func (s *Store) Get(fullName string) (*BuildInfo, error) {
	path, ok := s.index[fullName]
	if !ok {
		return nil, errors.Wrap(ErrContractNotFound, fullName)
	}
	if b, ok := s.cache.Get(path); ok {
		cacheHitCounter.Inc(1)
		return b, nil
	}
	cacheMissCounter.Inc(1)
	b, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(path, b)
	return b, nil
}
