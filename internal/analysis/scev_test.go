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

package analysis

import (
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

func tripCountOf(t *testing.T, init int64, bound int64, step int64, pred ir.Predicate) uint {
    fn, _ := buildCountedLoop("tc", init, bound, step, pred)
    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)
    require.Len(t, li.TopLevel(), 1)
    se := BuildScalarEvolution(li)
    return se.SmallConstantTripCount(li.TopLevel()[0])
}

func TestScev_TripCounts(t *testing.T) {
    require.Equal(t, uint(8), tripCountOf(t, 0, 8, 1, ir.PredSLT))
    require.Equal(t, uint(4), tripCountOf(t, 0, 16, 4, ir.PredSLT))
    require.Equal(t, uint(16), tripCountOf(t, 0, 16, 1, ir.PredNE))
    require.Equal(t, uint(9), tripCountOf(t, 0, 8, 1, ir.PredSLE))
    require.Equal(t, uint(5), tripCountOf(t, 10, 0, -2, ir.PredSGT))
    require.Equal(t, uint(3), tripCountOf(t, 0, 3, 1, ir.PredULT))
}

func TestScev_UnknownBound(t *testing.T) {
    fn := ir.NewFunction("dyn", ir.I64)
    entry := fn.NewBlock("entry")
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")

    ir.NewBuilder(entry).Br(loop)
    lb := ir.NewBuilder(loop)
    i := lb.Phi(ir.I64)
    next := lb.Add(i, ir.Int(ir.I64, 1))
    cond := lb.ICmp(ir.PredSLT, next, fn.Args[0])
    lb.CondBr(cond, loop, exit)
    i.AddIncoming(ir.Int(ir.I64, 0), entry)
    i.AddIncoming(next, loop)
    ir.NewBuilder(exit).Ret(nil)
    ir.Verify(fn)

    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)
    se := BuildScalarEvolution(li)
    lp := li.TopLevel()[0]

    /* bound is a runtime argument: count unknown, induction still found */
    require.Equal(t, uint(0), se.SmallConstantTripCount(lp))
    require.Equal(t, uint(1), se.SmallConstantTripMultiple(lp))
    ind := se.InductionOf(lp)
    require.NotNil(t, ind)
    require.Equal(t, int64(1), ind.Step)
    require.True(t, ind.CmpOnNext)
    require.Same(t, fn.Args[0], ind.Bound)
}

func TestScev_TripMultiple(t *testing.T) {
    fn, _ := buildCountedLoop("mult", 0, 16, 1, ir.PredSLT)
    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)
    se := BuildScalarEvolution(li)
    require.Equal(t, uint(16), se.SmallConstantTripMultiple(li.TopLevel()[0]))
}

func TestScev_NonCanonicalHasNoInduction(t *testing.T) {
    fn := ir.NewFunction("odd")
    entry := fn.NewBlock("entry")
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")

    ir.NewBuilder(entry).Br(loop)
    lb := ir.NewBuilder(loop)
    i := lb.Phi(ir.I64)

    /* multiplicative update is out of pattern */
    next := lb.Mul(i, ir.Int(ir.I64, 2))
    cond := lb.ICmp(ir.PredSLT, next, ir.Int(ir.I64, 100))
    lb.CondBr(cond, loop, exit)
    i.AddIncoming(ir.Int(ir.I64, 1), entry)
    i.AddIncoming(next, loop)
    ir.NewBuilder(exit).Ret(nil)
    ir.Verify(fn)

    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)
    se := BuildScalarEvolution(li)
    require.Nil(t, se.InductionOf(li.TopLevel()[0]))
    require.Equal(t, uint(0), se.SmallConstantTripCount(li.TopLevel()[0]))
}
