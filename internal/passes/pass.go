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
    `github.com/stellaagbim/llvm-opt-passes/internal/analysis`
    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

/* analysis identifiers for preservation sets */
const (
    AnalysisCFG      = "cfg"
    AnalysisDomTree  = "domtree"
    AnalysisLoopInfo = "loopinfo"
    AnalysisScev     = "scev"
)

// PreservedAnalyses names the analyses a pass guarantees are still valid
// after it ran. The host reuses those and recomputes the rest.
type PreservedAnalyses struct {
    all   bool
    names map[string]struct{}
}

func PreserveAll() PreservedAnalyses {
    return PreservedAnalyses { all: true }
}

func PreserveNone() PreservedAnalyses {
    return PreservedAnalyses{}
}

// Preserve marks additional analyses as preserved.
func (self PreservedAnalyses) Preserve(names ...string) PreservedAnalyses {
    if self.names == nil {
        self.names = make(map[string]struct{}, len(names))
    }
    for _, n := range names {
        self.names[n] = struct{}{}
    }
    return self
}

func (self PreservedAnalyses) Preserves(name string) bool {
    if self.all {
        return true
    }
    _, ok := self.names[name]
    return ok
}

func (self PreservedAnalyses) All() bool {
    return self.all
}

// Pass is one transformation over a single function. It reports whether
// the IR changed together with the analyses that survived.
type Pass interface {
    Name() string
    Run(fn *ir.Function, am *AnalysisManager) (bool, PreservedAnalyses)
}

// AnalysisManager lazily builds and caches the per-function analyses the
// passes consume: the dominator tree, loop info and scalar evolution.
// Passes report preservation sets and the manager drops what was not
// preserved. One manager serves exactly one function.
type AnalysisManager struct {
    fn *ir.Function
    dl *ir.DataLayout
    dt *analysis.DominatorTree
    li *analysis.LoopInfo
    se *analysis.ScalarEvolution
}

func NewAnalysisManager(fn *ir.Function, dl *ir.DataLayout) *AnalysisManager {
    if dl == nil {
        dl = ir.DefaultDataLayout()
    }
    return &AnalysisManager { fn: fn, dl: dl }
}

func (self *AnalysisManager) Function() *ir.Function {
    return self.fn
}

func (self *AnalysisManager) DataLayout() *ir.DataLayout {
    return self.dl
}

func (self *AnalysisManager) DomTree() *analysis.DominatorTree {
    if self.dt == nil {
        self.dt = analysis.BuildDominatorTree(self.fn)
    }
    return self.dt
}

func (self *AnalysisManager) LoopInfo() *analysis.LoopInfo {
    if self.li == nil {
        self.li = analysis.BuildLoopInfo(self.fn, self.DomTree())
    }
    return self.li
}

func (self *AnalysisManager) ScalarEvolution() *analysis.ScalarEvolution {
    if self.se == nil {
        self.se = analysis.BuildScalarEvolution(self.LoopInfo())
    }
    return self.se
}

// Invalidate drops every cached analysis the preservation set does not
// cover. Loop info and scalar evolution also fall when the dominator
// tree falls, they are built on top of it.
func (self *AnalysisManager) Invalidate(pa PreservedAnalyses) {
    if pa.All() {
        return
    }
    if !pa.Preserves(AnalysisDomTree) {
        self.dt = nil
        self.li = nil
        self.se = nil
    }
    if !pa.Preserves(AnalysisLoopInfo) {
        self.li = nil
        self.se = nil
    }
    if !pa.Preserves(AnalysisScev) {
        self.se = nil
    }
}
