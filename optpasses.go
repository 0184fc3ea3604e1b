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

// Package optpasses is an SSA optimization framework: aggressive
// constant folding, value numbering based redundancy elimination and
// trip count driven loop unrolling over a typed SSA IR.
//
// Host pipelines address the transformations by their registered names:
//
//     custom-constant-fold
//     custom-loop-unroll
//     custom-redundancy-elim
//     print<custom-redundancy>
//     custom-optimize
//
// custom-optimize composes the three transformations in fold, eliminate,
// unroll order.
package optpasses

import (
    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
    `github.com/stellaagbim/llvm-opt-passes/internal/passes`
)

// Result is what one pass run reports back to the host.
type Result struct {
    Changed bool
}

// Run executes the named pass over fn with the given options.
func Run(name string, fn *ir.Function, options ...Option) (Result, error) {
    opt := newOptions(options...)
    p := opt.build(name)
    if p == nil {
        return Result{}, UnknownPassError { Name: name }
    }

    am := passes.NewAnalysisManager(fn, opt.layout)
    changed, pa := p.Run(fn, am)
    am.Invalidate(pa)
    return Result { Changed: changed }, nil
}

// Optimize runs the full pipeline over fn.
func Optimize(fn *ir.Function, options ...Option) (Result, error) {
    return Run("custom-optimize", fn, options...)
}

// RegisteredPasses lists every pass name Run accepts.
func RegisteredPasses() []string {
    return passes.Names()
}
