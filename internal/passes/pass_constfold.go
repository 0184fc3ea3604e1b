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

// FoldStats counts the folding candidates by opcode family, plus the
// total number of instructions actually folded.
type FoldStats struct {
    BinaryOps   uint
    Comparisons uint
    Casts       uint
    Selects     uint
    GEPs        uint
    Folded      uint
}

// ConstFold replaces every instruction whose operands are compile time
// constants with the evaluated constant, iterating to a fixed point so
// chains of constants collapse completely.
type ConstFold struct {
    Eval  *Evaluator
    Stats FoldStats
}

func NewConstFold(eval *Evaluator) *ConstFold {
    return &ConstFold { Eval: eval }
}

func (self *ConstFold) Name() string {
    return "custom-constant-fold"
}

/* foldable screens an instruction by shape before evaluation */
func (self *ConstFold) foldable(p *ir.Instruction) bool {
    op := p.Opcode()
    switch {
        case p.Volatile() || p.Atomic(): {
            return false
        }

        case op.IsBinary() || op.IsCompare(): {
            return ir.IsConst(p.Operand(0)) && ir.IsConst(p.Operand(1))
        }

        case op.IsCast(): {
            return ir.IsConst(p.Operand(0))
        }

        case op == ir.OpSelect: {
            /* a constant condition picks the live arm verbatim */
            return ir.IsConst(p.Operand(0))
        }

        case op == ir.OpGetElementPtr: {
            for _, v := range p.Operands() {
                if !ir.IsConst(v) {
                    return false
                }
            }
            return true
        }

        default: {
            return false
        }
    }
}

/* record tallies a successful candidate by opcode family */
func (self *ConstFold) record(p *ir.Instruction) {
    op := p.Opcode()
    switch {
        case op.IsCompare()           : self.Stats.Comparisons++
        case op.IsBinary()            : self.Stats.BinaryOps++
        case op.IsCast()              : self.Stats.Casts++
        case op == ir.OpSelect        : self.Stats.Selects++
        case op == ir.OpGetElementPtr : self.Stats.GEPs++
    }
}

func (self *ConstFold) Run(fn *ir.Function, am *AnalysisManager) (bool, PreservedAnalyses) {
    l := log.WithPass(self.Name())
    l.Debugf("processing function @%s", fn.Name)
    changed := false

    for {
        /* Phase A: collect the candidates without mutating anything */
        var candidates []*ir.Instruction
        for _, bb := range fn.Blocks {
            for _, p := range bb.Instructions() {
                if self.foldable(p) && self.Eval.TryEvaluate(p) != nil {
                    candidates = append(candidates, p)
                    self.record(p)
                    l.Tracef("  candidate: %s", p.Dump())
                }
            }
        }
        if len(candidates) == 0 {
            break
        }

        /* Phase B: evaluate and redirect the uses; a candidate whose
         * evaluation fails here is left untouched */
        var dead []*ir.Instruction
        for _, p := range candidates {
            c := self.Eval.TryEvaluate(p)
            if c == nil {
                continue
            }
            l.Tracef("  folding %s -> %s", p.Dump(), c)
            ir.ReplaceAllUsesWith(p, c)
            dead = append(dead, p)
            self.Stats.Folded++
        }

        /* Phase C: bulk erasure, never during iteration */
        for _, p := range dead {
            p.EraseFromParent()
        }
        if len(dead) == 0 {
            break
        }
        changed = true
    }

    l.Debugf("folded %d instructions in @%s", self.Stats.Folded, fn.Name)
    if !changed {
        return false, PreserveAll()
    }
    return true, PreserveNone()
}
