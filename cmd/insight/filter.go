// Copyright 2024 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"regexp"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// nameFilter selects contracts by their source:Name. A name is kept when it
// matches one of the only patterns (or there are none) and none of the
// except patterns.
type nameFilter struct {
	only   []*regexp.Regexp
	except []*regexp.Regexp
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	unique := mapset.NewThreadUnsafeSet[string]()
	for _, p := range patterns {
		if p != "" {
			unique.Add(p)
		}
	}
	sorted := unique.ToSlice()
	sort.Strings(sorted)

	res := make([]*regexp.Regexp, 0, len(sorted))
	for _, p := range sorted {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling contract filter %q", p)
		}
		res = append(res, re)
	}
	return res, nil
}

func newNameFilter(only, except []string) (*nameFilter, error) {
	o, err := compilePatterns(only)
	if err != nil {
		return nil, err
	}
	e, err := compilePatterns(except)
	if err != nil {
		return nil, err
	}
	return &nameFilter{only: o, except: e}, nil
}

func matchAny(res []*regexp.Regexp, name string) bool {
	for _, re := range res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (f *nameFilter) keep(name string) bool {
	if len(f.only) > 0 && !matchAny(f.only, name) {
		return false
	}
	return !matchAny(f.except, name)
}

// apply returns the kept names, in input order.
func (f *nameFilter) apply(names []string) []string {
	var kept []string
	for _, name := range names {
		if f.keep(name) {
			kept = append(kept, name)
		}
	}
	return kept
}
