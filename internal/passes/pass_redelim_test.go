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
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

func TestElim_CommutativePair(t *testing.T) {
    fn := ir.NewFunction("comm", ir.I64, ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    x, y := fn.Args[0], fn.Args[1]
    u := ib.Add(x, y)
    v := ib.Add(y, x)
    w := ib.Add(u, v)
    ib.Ret(w)

    am := NewAnalysisManager(fn, nil)
    p := NewRedundancyElim()
    changed, pa := p.Run(fn, am)
    require.True(t, changed)
    require.True(t, pa.Preserves(AnalysisCFG))
    require.True(t, pa.Preserves(AnalysisDomTree))
    require.False(t, pa.Preserves(AnalysisScev))
    ir.Verify(fn)

    /* v is gone and w computes u + u */
    require.Equal(t, 3, bb.NumInstructions())
    require.Same(t, u, w.Operand(0))
    require.Same(t, u, w.Operand(1))
    require.Equal(t, uint(1), p.Stats.Eliminated)
}

func TestElim_ChainsFollowToTerminal(t *testing.T) {
    fn := ir.NewFunction("chain", ir.I64, ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    x, y := fn.Args[0], fn.Args[1]
    a := ib.Add(x, y)
    b := ib.Add(x, y)
    c := ib.Add(x, y)
    s := ib.Add(ib.Add(a, b), c)
    ib.Ret(s)

    am := NewAnalysisManager(fn, nil)
    p := NewRedundancyElim()
    changed, _ := p.Run(fn, am)
    require.True(t, changed)
    ir.Verify(fn)

    /* b and c both collapse onto a */
    require.Equal(t, uint(2), p.Stats.Eliminated)
    require.Empty(t, b.Users())
    require.Empty(t, c.Users())
    require.Len(t, a.Users(), 3)
}

func TestElim_NoRedundanciesLeavesIrIdentical(t *testing.T) {
    fn := ir.NewFunction("clean", ir.I64, ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    x, y := fn.Args[0], fn.Args[1]
    u := ib.Add(x, y)
    v := ib.Sub(x, y)
    ib.Ret(ib.Mul(u, v))

    before := fn.String()
    changed, pa := NewRedundancyElim().Run(fn, NewAnalysisManager(fn, nil))
    require.False(t, changed)
    require.True(t, pa.All())
    require.Equal(t, before, fn.String())
}

func TestElim_FoldThenElimThenFoldIsStable(t *testing.T) {
    fn := ir.NewFunction("stable", ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    x := fn.Args[0]
    a := ib.Add(x, ir.Int(ir.I64, 10))
    b := ib.Add(x, ir.Int(ir.I64, 10))
    ib.Ret(ib.Add(a, b))

    am := NewAnalysisManager(fn, nil)
    _, pa := NewConstFold(NewEvaluator(nil)).Run(fn, am)
    am.Invalidate(pa)
    changed, pa := NewRedundancyElim().Run(fn, am)
    require.True(t, changed)
    am.Invalidate(pa)

    /* elimination introduces no new constant chains */
    after := fn.String()
    changed, _ = NewConstFold(NewEvaluator(nil)).Run(fn, am)
    require.False(t, changed)
    require.Equal(t, after, fn.String())
}

func TestElim_Deterministic(t *testing.T) {
    build := func() string {
        fn := ir.NewFunction("det", ir.I64, ir.I64)
        bb := fn.NewBlock("entry")
        ib := ir.NewBuilder(bb)
        x, y := fn.Args[0], fn.Args[1]
        var vals []ir.Value
        for i := 0; i < 6; i++ {
            vals = append(vals, ib.Add(x, y))
            vals = append(vals, ib.Mul(x, y))
        }
        acc := vals[0]
        for _, v := range vals[1:] {
            acc = ib.Add(acc, v)
        }
        ib.Ret(acc)
        NewRedundancyElim().Run(fn, NewAnalysisManager(fn, nil))
        return fn.String()
    }

    /* byte-identical output across runs */
    first := build()
    for i := 0; i < 8; i++ {
        require.Equal(t, first, build())
    }
}
