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

/* buildCountedLoop builds a canonical loop running from init to bound
 * with the given step, with the body and latch fused into one block:
 *
 *   entry -> loop -> exit
 *             ^_|
 */
func buildCountedLoop(name string, init int64, bound int64, step int64, pred ir.Predicate) (*ir.Function, *ir.Instruction) {
    fn := ir.NewFunction(name)
    entry := fn.NewBlock("entry")
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")

    ir.NewBuilder(entry).Br(loop)

    lb := ir.NewBuilder(loop)
    i := lb.Phi(ir.I64)
    sum := lb.Phi(ir.I64)
    next := lb.Add(i, ir.Int(ir.I64, step))
    acc := lb.Add(sum, i)
    cond := lb.ICmp(pred, next, ir.Int(ir.I64, bound))
    lb.CondBr(cond, loop, exit)

    i.AddIncoming(ir.Int(ir.I64, init), entry)
    i.AddIncoming(next, loop)
    sum.AddIncoming(ir.Int(ir.I64, 0), entry)
    sum.AddIncoming(acc, loop)

    ir.NewBuilder(exit).Ret(acc)
    ir.Verify(fn)
    return fn, acc
}

func TestLoop_SingleBlockLoop(t *testing.T) {
    fn, _ := buildCountedLoop("count", 0, 8, 1, ir.PredSLT)
    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)

    require.Len(t, li.TopLevel(), 1)
    lp := li.TopLevel()[0]
    require.Equal(t, 1, lp.NumBlocks())
    require.Same(t, lp.Header, lp.Latch)
    require.True(t, lp.Canonical())
    require.Equal(t, "entry", lp.Preheader().Label())
    require.Len(t, lp.Exits(), 1)
    require.Equal(t, "exit", lp.Exits()[0].Label())
    require.True(t, li.IsHeader(lp.Header))
    require.False(t, li.IsHeader(fn.Entry()))
}

func TestLoop_Nesting(t *testing.T) {
    fn := ir.NewFunction("nest")
    entry := fn.NewBlock("entry")
    outer := fn.NewBlock("outer")
    inner := fn.NewBlock("inner")
    outlatch := fn.NewBlock("outer.latch")
    exit := fn.NewBlock("exit")

    ir.NewBuilder(entry).Br(outer)

    ob := ir.NewBuilder(outer)
    i := ob.Phi(ir.I64)
    ob.Br(inner)

    nb := ir.NewBuilder(inner)
    j := nb.Phi(ir.I64)
    jn := nb.Add(j, ir.Int(ir.I64, 1))
    jc := nb.ICmp(ir.PredSLT, jn, ir.Int(ir.I64, 4))
    nb.CondBr(jc, inner, outlatch)
    j.AddIncoming(ir.Int(ir.I64, 0), outer)
    j.AddIncoming(jn, inner)

    lb := ir.NewBuilder(outlatch)
    in := lb.Add(i, ir.Int(ir.I64, 1))
    ic := lb.ICmp(ir.PredSLT, in, ir.Int(ir.I64, 4))
    lb.CondBr(ic, outer, exit)
    i.AddIncoming(ir.Int(ir.I64, 0), entry)
    i.AddIncoming(in, outlatch)

    ir.NewBuilder(exit).Ret(nil)
    ir.Verify(fn)

    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)
    require.Len(t, li.TopLevel(), 1)

    top := li.TopLevel()[0]
    require.Same(t, outer, top.Header)
    require.Len(t, top.Subloops, 1)
    require.Same(t, inner, top.Subloops[0].Header)
    require.Same(t, top, top.Subloops[0].Parent)

    /* innermost first in post-order */
    post := li.PostorderLoops()
    require.Len(t, post, 2)
    require.Same(t, inner, post[0].Header)
    require.Same(t, outer, post[1].Header)

    /* block mapping resolves to the innermost loop */
    require.Same(t, post[0], li.LoopFor(inner))
    require.Same(t, top, li.LoopFor(outlatch))
    require.Nil(t, li.LoopFor(entry))
}

func TestLoop_NonCanonicalWithoutPreheader(t *testing.T) {
    fn := ir.NewFunction("twoway", ir.I1)
    a := fn.NewBlock("a")
    b := fn.NewBlock("b")
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")

    ir.NewBuilder(a).CondBr(fn.Args[0], b, loop)
    ir.NewBuilder(b).Br(loop)

    lb := ir.NewBuilder(loop)
    cond := lb.ICmp(ir.PredEQ, ir.Int(ir.I64, 0), ir.Int(ir.I64, 0))
    lb.CondBr(cond, loop, exit)
    ir.NewBuilder(exit).Ret(nil)
    ir.Verify(fn)

    dt := BuildDominatorTree(fn)
    li := BuildLoopInfo(fn, dt)
    require.Len(t, li.TopLevel(), 1)

    /* two outside predecessor edges, no preheader */
    lp := li.TopLevel()[0]
    require.Nil(t, lp.Preheader())
    require.False(t, lp.Canonical())
}
