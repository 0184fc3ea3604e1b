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

func TestOptimize_RegistryNames(t *testing.T) {
    require.Equal(t, []string {
        "custom-constant-fold",
        "custom-loop-unroll",
        "custom-redundancy-elim",
        "print<custom-redundancy>",
        "custom-optimize",
    }, Names())

    for _, n := range Names() {
        require.NotNil(t, Lookup(n), n)
        require.Equal(t, n, Lookup(n).Name())
    }
    require.Nil(t, Lookup("no-such-pass"))
}

func TestOptimize_ConstantChainEndToEnd(t *testing.T) {
    fn := ir.NewFunction("chain")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    a := ib.Add(ir.Int(ir.I64, 10), ir.Int(ir.I64, 20))
    b := ib.Mul(a, ir.Int(ir.I64, 2))
    c := ib.SDiv(b, ir.Int(ir.I64, 3))
    ret := ib.Ret(c)

    changed, ok := RunPass("custom-optimize", fn, NewAnalysisManager(fn, nil))
    require.True(t, ok)
    require.True(t, changed)
    ir.Verify(fn)

    require.Equal(t, 1, bb.NumInstructions())
    require.Equal(t, int64(20), ret.Operand(0).(*ir.ConstInt).V)
}

func TestOptimize_FoldFeedsElimination(t *testing.T) {
    fn := ir.NewFunction("feed", ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    x := fn.Args[0]

    /* the two offsets fold to the same constant and the adds collapse
     * into one */
    k1 := ib.Add(ir.Int(ir.I64, 3), ir.Int(ir.I64, 4))
    k2 := ib.Mul(ir.Int(ir.I64, 7), ir.Int(ir.I64, 1))
    u := ib.Add(x, k1)
    v := ib.Add(x, k2)
    ib.Ret(ib.Add(u, v))

    changed, ok := RunPass("custom-optimize", fn, NewAnalysisManager(fn, nil))
    require.True(t, ok)
    require.True(t, changed)
    ir.Verify(fn)

    /* one add of x with 7, one final add, one return */
    require.Equal(t, 3, bb.NumInstructions())
    require.Equal(t, int64(28), execFn(fn, 7))
}

func TestOptimize_SumLoopFullPipeline(t *testing.T) {
    fn := sumLoop(4)
    changed, ok := RunPass("custom-optimize", fn, NewAnalysisManager(fn, nil))
    require.True(t, ok)
    require.True(t, changed)
    ir.Verify(fn)

    /* the loop is gone and the result still adds up */
    require.Len(t, fn.Blocks, 2)
    require.Equal(t, gauss(4), execFn(fn))
}

func TestOptimize_Deterministic(t *testing.T) {
    build := func() string {
        fn := sumLoop(16)
        RunPass("custom-optimize", fn, NewAnalysisManager(fn, nil))
        return fn.String()
    }
    first := build()
    for i := 0; i < 8; i++ {
        require.Equal(t, first, build())
    }
}

func TestOptimize_NoChangePreservesAll(t *testing.T) {
    fn := ir.NewFunction("inert", ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    ib.Ret(ib.Add(fn.Args[0], ir.Int(ir.I64, 1)))

    p := NewOptimize()
    changed, pa := p.Run(fn, NewAnalysisManager(fn, nil))
    require.False(t, changed)
    require.True(t, pa.All())
    require.Equal(t, 2, bb.NumInstructions())
}
