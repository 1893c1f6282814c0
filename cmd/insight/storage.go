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
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/bnb-chain/contract-insight/core/storage"
	"github.com/bnb-chain/contract-insight/internal/buildinfo"
	"github.com/bnb-chain/contract-insight/internal/report"
	"github.com/bnb-chain/contract-insight/log"
)

var storageCommand = &cli.Command{
	Action: checkStorage,
	Name:   "storage",
	Usage:  "Compute storage layouts from the AST and check them against the compiler",
	Flags:  append(selectionFlags, allFlag, formatFlag),
	Description: `
The storage layout of every selected contract is computed from its AST. In
table format it is compared with the layout reported by the compiler and
the differing entries are listed; json and yaml print the computed layouts.`,
}

type layoutResult struct {
	layout    *storage.Layout
	reference *storage.Layout
	err       error
}

func computeLayout(store *buildinfo.Store, name string) *layoutResult {
	b, err := store.Get(name)
	if err != nil {
		return &layoutResult{err: err}
	}
	layout, err := storage.NewCalculator(b.Unit()).Layout(name)
	if err != nil {
		return &layoutResult{err: err}
	}
	ref, err := b.ReferenceLayout(name)
	return &layoutResult{layout: layout, reference: ref, err: err}
}

func checkStorage(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	switch cfg.Format {
	case report.FormatTable, report.FormatJSON, report.FormatYAML:
	default:
		return fmt.Errorf("unknown storage format %q", cfg.Format)
	}
	sel, err := selectContracts(&cfg)
	if err != nil {
		return err
	}
	var (
		start   = time.Now()
		results = make([]*layoutResult, len(sel.names))
	)
	if err := sel.run(&cfg, func(i int, name string) {
		results[i] = computeLayout(sel.store, name)
	}); err != nil {
		return err
	}

	var (
		w       = ctx.App.Writer
		all     = ctx.Bool(allFlag.Name)
		layouts = make(map[string]*storage.Layout)
		failed  []string
		differ  []string
		entries int
	)
	for i, res := range results {
		name := sel.names[i]
		switch {
		case res == nil:
			continue
		case res.err != nil:
			failed = append(failed, name)
			log.Error("Failed to compute storage layout", "contract", name, "err", res.err)
			continue
		}
		entries += len(res.layout.Storage)
		if cfg.Format != report.FormatTable {
			layouts[name] = res.layout
			continue
		}
		if res.reference == nil {
			report.LayoutTable(w, name, res.layout)
		} else {
			if len(storage.Diff(res.layout.Storage, res.reference.Storage)) > 0 {
				differ = append(differ, name)
			}
			report.StorageTable(w, name, storage.Compare(res.layout.Storage, res.reference.Storage), all)
		}
		if all {
			report.Constants(w, res.layout.Constants)
		}
	}
	if cfg.Format != report.FormatTable {
		if err := report.WriteLayouts(w, cfg.Format, layouts); err != nil {
			return err
		}
	}
	computed, skipped := countLayouts(results)
	log.Info("Storage layouts computed", "contracts", computed, "skipped", skipped, "entries", entries,
		"differing", len(differ), "failed", len(failed), "elapsed", common.PrettyDuration(time.Since(start)))

	switch {
	case len(failed) > 0:
		return fmt.Errorf("storage layout failed for %s", strings.Join(failed, ", "))
	case len(differ) > 0:
		return fmt.Errorf("storage layout differs from the compiler for %s", strings.Join(differ, ", "))
	}
	return nil
}

// countLayouts returns how many layouts were computed and how many
// contracts were never started before the timeout.
func countLayouts(results []*layoutResult) (computed, skipped int) {
	for _, res := range results {
		switch {
		case res == nil:
			skipped++
		case res.err == nil:
			computed++
		}
	}
	return computed, skipped
}
