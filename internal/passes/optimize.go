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
    `os`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

type _PassDescriptor struct {
    desc string
    make func() Pass
}

var _passes = map[string]_PassDescriptor {
    "custom-constant-fold": {
        desc: "Aggressive Constant Folding",
        make: func() Pass { return NewConstFold(NewEvaluator(nil)) },
    },
    "custom-redundancy-elim": {
        desc: "Value Numbering Redundancy Elimination",
        make: func() Pass { return NewRedundancyElim() },
    },
    "custom-loop-unroll": {
        desc: "Trip Count Driven Loop Unrolling",
        make: func() Pass { return NewLoopUnroll(DefaultUnrollConfig()) },
    },
    "print<custom-redundancy>": {
        desc: "Redundancy Analysis Printer",
        make: func() Pass { return NewRedundancyPrinter(os.Stdout) },
    },
    "custom-optimize": {
        desc: "Constant Folding + Redundancy Elimination + Loop Unrolling",
        make: func() Pass { return NewOptimize() },
    },
}

// Lookup resolves a registered pass name to a fresh pass instance, or
// nil for an unknown name.
func Lookup(name string) Pass {
    if d, ok := _passes[name]; ok {
        return d.make()
    }
    return nil
}

// Names lists every registered entry point.
func Names() []string {
    ret := make([]string, 0, len(_passes))
    for _, n := range []string {
        "custom-constant-fold",
        "custom-loop-unroll",
        "custom-redundancy-elim",
        "print<custom-redundancy>",
        "custom-optimize",
    } {
        if _, ok := _passes[n]; ok {
            ret = append(ret, n)
        }
    }
    return ret
}

// Optimize is the composite pipeline: constant folding, then redundancy
// elimination, then loop unrolling.
type Optimize struct {
    Fold   *ConstFold
    Elim   *RedundancyElim
    Unroll *LoopUnroll
}

func NewOptimize() *Optimize {
    return &Optimize {
        Fold   : NewConstFold(NewEvaluator(nil)),
        Elim   : NewRedundancyElim(),
        Unroll : NewLoopUnroll(DefaultUnrollConfig()),
    }
}

func (self *Optimize) Name() string {
    return "custom-optimize"
}

func (self *Optimize) Run(fn *ir.Function, am *AnalysisManager) (bool, PreservedAnalyses) {
    changed := false
    keep := PreserveAll()

    /* fixed order: fold, eliminate, unroll; each stage invalidates what
     * the previous one did not preserve */
    for _, p := range []Pass { self.Fold, self.Elim, self.Unroll } {
        c, pa := p.Run(fn, am)
        am.Invalidate(pa)
        if c {
            changed = true
            keep = intersect(keep, pa)
        }
    }
    return changed, keep
}

/* intersect keeps the analyses both sets preserve */
func intersect(a PreservedAnalyses, b PreservedAnalyses) PreservedAnalyses {
    if a.All() {
        return b
    }
    if b.All() {
        return a
    }
    ret := PreserveNone()
    for _, n := range []string { AnalysisCFG, AnalysisDomTree, AnalysisLoopInfo, AnalysisScev } {
        if a.Preserves(n) && b.Preserves(n) {
            ret = ret.Preserve(n)
        }
    }
    return ret
}

// RunPass is the host entry point: resolve, run, invalidate.
func RunPass(name string, fn *ir.Function, am *AnalysisManager) (bool, bool) {
    p := Lookup(name)
    if p == nil {
        return false, false
    }
    changed, pa := p.Run(fn, am)
    am.Invalidate(pa)
    return changed, true
}
