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
    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
    `github.com/stellaagbim/llvm-opt-passes/internal/log`
)

// ElimStats counts eliminated instructions across the pass lifetime.
type ElimStats struct {
    Eliminated   uint
    TypeSkipped  uint
}

// RedundancyElim rewrites every redundant instruction found by the
// redundancy analysis to reference its dominating equivalent, then
// erases it.
type RedundancyElim struct {
    Stats ElimStats
}

func NewRedundancyElim() *RedundancyElim {
    return new(RedundancyElim)
}

func (self *RedundancyElim) Name() string {
    return "custom-redundancy-elim"
}

/* terminal follows replacement chains: if the replacement is itself
 * redundant, redirect straight to the end of the chain */
func (self *RedundancyElim) terminal(ri *RedundancyInfo, p *ir.Instruction) *ir.Instruction {
    for {
        next := ri.Replacement(p)
        if next == nil {
            return p
        }
        p = next
    }
}

func (self *RedundancyElim) Run(fn *ir.Function, am *AnalysisManager) (bool, PreservedAnalyses) {
    l := log.WithPass(self.Name())
    ri := AnalyzeRedundancy(fn, am)
    if !ri.HasRedundancies() {
        return false, PreserveAll()
    }

    /* redirect first, erase in bulk afterwards */
    var dead []*ir.Instruction
    for _, pair := range ri.pairs {
        rep := self.terminal(ri, pair.Replacement)

        /* defensive type guard, a mismatch skips the pair */
        if pair.Redundant.Type() != rep.Type() {
            l.Debugf("  type mismatch, skipping: %s", pair.Redundant.Dump())
            self.Stats.TypeSkipped++
            continue
        }

        l.Tracef("  replacing %s with %s", pair.Redundant.Dump(), rep)
        ir.ReplaceAllUsesWith(pair.Redundant, rep)
        dead = append(dead, pair.Redundant)
        self.Stats.Eliminated++
    }
    for _, p := range dead {
        p.EraseFromParent()
    }

    l.Debugf("@%s: eliminated %d instructions", fn.Name, len(dead))
    if len(dead) == 0 {
        return false, PreserveAll()
    }

    /* uses moved but the block structure did not */
    return true, PreserveNone().Preserve(AnalysisCFG, AnalysisDomTree)
}
