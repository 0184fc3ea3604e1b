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

package optpasses

import (
    `strings`
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
    `github.com/stellaagbim/llvm-opt-passes/internal/passes`
)

func TestApi_OptimizeConstantChain(t *testing.T) {
    fn := ir.NewFunction("chain")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    a := ib.Add(ir.Int(ir.I64, 10), ir.Int(ir.I64, 20))
    b := ib.Mul(a, ir.Int(ir.I64, 2))
    c := ib.SDiv(b, ir.Int(ir.I64, 3))
    ret := ib.Ret(c)

    r, err := Optimize(fn)
    require.NoError(t, err)
    require.True(t, r.Changed)
    require.Equal(t, int64(20), ret.Operand(0).(*ir.ConstInt).V)
}

func TestApi_UnknownPass(t *testing.T) {
    fn := ir.NewFunction("f")
    ir.NewBuilder(fn.NewBlock("entry")).Ret(nil)

    _, err := Run("no-such-pass", fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "custom-optimize")
}

func TestApi_PrinterWithOutput(t *testing.T) {
    fn := ir.NewFunction("p", ir.I64, ir.I64)
    ib := ir.NewBuilder(fn.NewBlock("entry"))
    u := ib.Add(fn.Args[0], fn.Args[1])
    v := ib.Add(fn.Args[1], fn.Args[0])
    ib.Ret(ib.Add(u, v))

    var sb strings.Builder
    r, err := Run("print<custom-redundancy>", fn, WithOutput(&sb))
    require.NoError(t, err)
    require.False(t, r.Changed)
    require.Contains(t, sb.String(), "redundant instructions: 1")
}

func TestApi_RemarkEmitter(t *testing.T) {
    fn := ir.NewFunction("loop")
    entry := fn.NewBlock("entry")
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")

    ir.NewBuilder(entry).Br(loop)
    lb := ir.NewBuilder(loop)
    i := lb.Phi(ir.I64)
    next := lb.Add(i, ir.Int(ir.I64, 1))
    cond := lb.ICmp(ir.PredSLT, next, ir.Int(ir.I64, 4))
    lb.CondBr(cond, loop, exit)
    i.AddIncoming(ir.Int(ir.I64, 0), entry)
    i.AddIncoming(next, loop)
    ir.NewBuilder(exit).Ret(nil)

    em := new(passes.CollectEmitter)
    r, err := Run("custom-loop-unroll", fn, WithRemarkEmitter(em))
    require.NoError(t, err)
    require.True(t, r.Changed)
    require.Len(t, em.Remarks, 1)
    require.Equal(t, "applied", em.Remarks[0].Kind)
}

func TestApi_RegisteredPasses(t *testing.T) {
    require.Len(t, RegisteredPasses(), 5)
}
