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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/bnb-chain/contract-insight/common/gopool"
	"github.com/bnb-chain/contract-insight/core/insight"
	"github.com/bnb-chain/contract-insight/internal/buildinfo"
	"github.com/bnb-chain/contract-insight/internal/report"
	"github.com/bnb-chain/contract-insight/log"
)

var analyzeCommand = &cli.Command{
	Action:    analyze,
	Name:      "analyze",
	Usage:     "Attribute deployed bytecode to the source code that produced it",
	Flags:     append(selectionFlags, asmFlag, gasFlag, allFlag),
	Description: `
For every selected contract the deployed bytecode is disassembled, its
instructions are mapped to source positions and filed under the AST nodes
containing them. The report shows the bytes and instructions per node,
optionally the gas estimate and the assembly of every node.`,
}

// selection is the set of contracts a command works on.
type selection struct {
	store *buildinfo.Store
	names []string
}

func selectContracts(cfg *insightConfig) (*selection, error) {
	store, err := buildinfo.Open(cfg.Artifacts, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	filter, err := newNameFilter(cfg.Only, cfg.Except)
	if err != nil {
		return nil, err
	}
	names := filter.apply(store.FullNames())
	if len(names) == 0 {
		return nil, fmt.Errorf("no contract in %s matches the filters", cfg.Artifacts)
	}
	log.Info("Selected contracts", "files", len(store.Files()), "contracts", len(names), "total", len(store.FullNames()))
	return &selection{store: store, names: names}, nil
}

// run calls fn for every selected contract on the worker pool, giving up on
// the contracts not yet started once the timeout expires.
func (s *selection) run(cfg *insightConfig, fn func(i int, name string)) error {
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	err := gopool.Run(ctx, cfg.Workers, len(s.names), func(_ context.Context, i int) {
		fn(i, s.names[i])
	})
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Timed out, remaining contracts skipped", "timeout", common.PrettyDuration(cfg.Timeout))
		return nil
	}
	return err
}

type analysis struct {
	contract *insight.Contract
	err      error
}

func analyzeContract(store *buildinfo.Store, name string) *analysis {
	b, err := store.Get(name)
	if err != nil {
		return &analysis{err: err}
	}
	in, err := b.RuntimeInput(name)
	if err != nil {
		return &analysis{err: err}
	}
	c, err := insight.Process(in)
	return &analysis{contract: c, err: err}
}

func analyze(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	sel, err := selectContracts(&cfg)
	if err != nil {
		return err
	}
	var (
		start   = time.Now()
		results = make([]*analysis, len(sel.names))
	)
	if err := sel.run(&cfg, func(i int, name string) {
		results[i] = analyzeContract(sel.store, name)
	}); err != nil {
		return err
	}

	var (
		w    = ctx.App.Writer
		opts = report.Options{Asm: ctx.Bool(asmFlag.Name), Gas: ctx.Bool(gasFlag.Name), All: ctx.Bool(allFlag.Name)}
	)
	var done, abstract, skipped, failed, code, unmatched int
	for i, res := range results {
		name := sel.names[i]
		switch {
		case res == nil:
			skipped++
		case errors.Is(res.err, buildinfo.ErrAbstractContract):
			abstract++
			log.Debug("Skipping abstract contract", "contract", name)
		case res.err != nil:
			failed++
			log.Error("Failed to analyze contract", "contract", name, "err", res.err)
		default:
			done++
			code += res.contract.Size()
			unmatched += len(res.contract.Unmatched)
			report.Contract(w, res.contract, opts)
		}
	}
	log.Info("Analysis finished", "contracts", done, "abstract", abstract, "skipped", skipped, "failed", failed,
		"code", common.StorageSize(code), "unmatched", unmatched, "elapsed", common.PrettyDuration(time.Since(start)))
	if failed > 0 {
		return fmt.Errorf("%d of %d contracts failed", failed, len(sel.names))
	}
	return nil
}
