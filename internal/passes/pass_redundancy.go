/*
 * Copyright 2024 the llvm-opt-passes Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package passes

import (
    `fmt`
    `io`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
    `github.com/stellaagbim/llvm-opt-passes/internal/log`
)

// RedundancyStats summarizes one analysis run.
type RedundancyStats struct {
    TotalInstructions     uint
    RedundantInstructions uint
    UniqueExpressions     uint
}

// _RedundantPair is one redundant instruction with its dominating
// replacement.
type _RedundantPair struct {
    Redundant   *ir.Instruction
    Replacement *ir.Instruction
}

// RedundancyInfo maps each redundant instruction to an equivalent
// instruction that strictly dominates it. Pairs keep discovery order.
type RedundancyInfo struct {
    pairs   []_RedundantPair
    byinst  map[*ir.Instruction]*ir.Instruction
    Stats   RedundancyStats
}

func (self *RedundancyInfo) HasRedundancies() bool {
    return len(self.pairs) > 0
}

func (self *RedundancyInfo) IsRedundant(p *ir.Instruction) bool {
    _, ok := self.byinst[p]
    return ok
}

// Replacement returns the provider for a redundant instruction, nil
// otherwise.
func (self *RedundancyInfo) Replacement(p *ir.Instruction) *ir.Instruction {
    return self.byinst[p]
}

// AnalyzeRedundancy runs value numbering over fn in dominator tree
// preorder and reports every instruction whose value is already computed
// by a dominating instruction.
func AnalyzeRedundancy(fn *ir.Function, am *AnalysisManager) *RedundancyInfo {
    l := log.WithPass("custom-redundancy")
    l.Debugf("processing function @%s", fn.Name)

    dt := am.DomTree()
    vnt := NewValueNumberTable()
    ret := &RedundancyInfo {
        byinst: make(map[*ir.Instruction]*ir.Instruction),
    }

    /* arguments first, they are available everywhere */
    for _, a := range fn.Args {
        vnt.ValueNumber(a)
    }

    /* preorder guarantees every possible provider of a dominating value
     * is inserted before its query point is reached */
    dt.Preorder().ForEach(func(bb *ir.BasicBlock) {
        for _, p := range bb.Instructions() {
            ret.Stats.TotalInstructions++

            /* non-analyzable instructions still get numbered so later
             * expressions can use them as operands */
            if !Analyzable(p) {
                vnt.ValueNumber(p)
                continue
            }

            key := vnt.MakeKey(p)
            if prov := vnt.FindAvailable(key, p, dt); prov != nil {
                ret.pairs = append(ret.pairs, _RedundantPair { Redundant: p, Replacement: prov })
                ret.byinst[p] = prov
                ret.Stats.RedundantInstructions++
                l.Tracef("  redundant: %s, replaced by %s", p.Dump(), prov)
            } else {
                vnt.Insert(key, p)
                ret.Stats.UniqueExpressions++
            }
            vnt.ValueNumber(p)
        }
    })

    l.Debugf("@%s: %d instructions, %d redundant, %d unique expressions",
        fn.Name, ret.Stats.TotalInstructions, ret.Stats.RedundantInstructions, ret.Stats.UniqueExpressions)
    return ret
}

// RedundancyPrinter renders the analysis result for a function, without
// changing anything.
type RedundancyPrinter struct {
    Out io.Writer
}

func NewRedundancyPrinter(out io.Writer) *RedundancyPrinter {
    return &RedundancyPrinter { Out: out }
}

func (self *RedundancyPrinter) Name() string {
    return "print<custom-redundancy>"
}

func (self *RedundancyPrinter) Run(fn *ir.Function, am *AnalysisManager) (bool, PreservedAnalyses) {
    ri := AnalyzeRedundancy(fn, am)
    fmt.Fprintf(self.Out, "Redundancy analysis for function @%s\n", fn.Name)
    fmt.Fprintf(self.Out, "  total instructions:     %d\n", ri.Stats.TotalInstructions)
    fmt.Fprintf(self.Out, "  redundant instructions: %d\n", ri.Stats.RedundantInstructions)
    fmt.Fprintf(self.Out, "  unique expressions:     %d\n", ri.Stats.UniqueExpressions)
    if ri.HasRedundancies() {
        fmt.Fprintf(self.Out, "\nRedundant instructions:\n")
        for _, pair := range ri.pairs {
            fmt.Fprintf(self.Out, "  %s\n", pair.Redundant.Dump())
            fmt.Fprintf(self.Out, "    -> replaceable by: %s\n", pair.Replacement.Dump())
        }
    }
    fmt.Fprintf(self.Out, "\n")
    return false, PreserveAll()
}
