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
    `github.com/stellaagbim/llvm-opt-passes/internal/log`
)

type UnrollResult uint8

const (
    Unmodified UnrollResult = iota
    UnrolledOk
)

// UnrollOptions parameterize one mechanical unroll.
type UnrollOptions struct {
    Factor        uint
    TripCount     uint // 0 = unknown at compile time
    TripMultiple  uint
    Runtime       bool // guard + unrolled main loop + scalar epilogue
    RuntimeMinTC  uint // entry guard threshold, at least Factor
    PreserveLCSSA bool
}

// UnrollPrimitive performs the mechanical unrolling once a strategy has
// been decided. Returns Unmodified whenever the loop shape is outside
// what the primitive handles; the caller reports that as a miss and
// moves on.
type UnrollPrimitive interface {
    Unroll(fn *ir.Function, lp *analysis.Loop, ind *analysis.Induction, opts UnrollOptions) UnrollResult
}

// LoopUnroller is the shipped primitive. It handles canonical loops
// whose body and latch are one single block with a recognized induction
// and a unique exit block reached only from that latch. Anything wider
// is refused.
type LoopUnroller struct{}

func NewLoopUnroller() *LoopUnroller {
    return new(LoopUnroller)
}

/* admissible screens the loop shape common to all three modes */
func (self *LoopUnroller) admissible(lp *analysis.Loop, ind *analysis.Induction) bool {
    if ind == nil || !lp.Canonical() || lp.NumBlocks() != 1 {
        return false
    }
    exits := lp.Exits()
    if len(exits) != 1 {
        return false
    }

    /* the exit must be reached from the latch alone, its phis and any
     * loop-carried exports stay rewireable that way */
    for _, p := range exits[0].Preds() {
        if p != lp.Latch {
            return false
        }
    }
    return true
}

func (self *LoopUnroller) Unroll(fn *ir.Function, lp *analysis.Loop, ind *analysis.Induction, opts UnrollOptions) UnrollResult {
    if opts.Factor < 1 || !self.admissible(lp, ind) {
        return Unmodified
    }
    switch {
        case opts.Runtime: {
            mintc := opts.RuntimeMinTC
            if mintc < opts.Factor {
                mintc = opts.Factor
            }
            return self.unrollRuntime(fn, lp, ind, opts.Factor, mintc)
        }

        case opts.TripCount > 0 && opts.Factor == opts.TripCount: {
            return self.unrollFull(fn, lp, ind, opts.TripCount)
        }

        case opts.TripCount > 0 && opts.Factor < opts.TripCount: {
            /* a factor that does not divide the trip count would need a
             * remainder loop, which this primitive does not emit */
            if opts.TripCount % opts.Factor != 0 {
                return Unmodified
            }
            return self.unrollPartial(fn, lp, ind, opts.Factor)
        }

        default: {
            return Unmodified
        }
    }
}

/* bodyWork lists the non-phi, non-terminator instructions of the body */
func bodyWork(body *ir.BasicBlock) []*ir.Instruction {
    var ret []*ir.Instruction
    for _, p := range body.Instructions() {
        if p.Opcode() != ir.OpPhi && !p.IsTerminator() {
            ret = append(ret, p)
        }
    }
    return ret
}

/* usedOnlyByTerm reports whether every user of p is the body terminator,
 * such values exist only to steer the branch and need no per-copy clone */
func usedOnlyByTerm(p *ir.Instruction, body *ir.BasicBlock) bool {
    users := p.Users()
    if len(users) == 0 {
        return false
    }
    for _, u := range users {
        if u != body.Term() {
            return false
        }
    }
    return true
}

/* remap rewrites the operands of a cloned instruction through m */
func remap(p *ir.Instruction, m map[ir.Value]ir.Value) {
    for i, v := range p.Operands() {
        if r, ok := m[v]; ok {
            p.SetOperand(i, r)
        }
    }
}

/* lookupOr returns the mapping of v, or v itself for loop invariants */
func lookupOr(m map[ir.Value]ir.Value, v ir.Value) ir.Value {
    if r, ok := m[v]; ok {
        return r
    }
    return v
}

// unrollFull replaces the loop with tripCount straight-line copies of
// its body emitted into the preheader, then deletes the loop block. The
// induction variable dissolves into the per-copy constants and whatever
// is left dead stays for a later cleanup.
func (self *LoopUnroller) unrollFull(fn *ir.Function, lp *analysis.Loop, ind *analysis.Induction, tripCount uint) UnrollResult {
    body := lp.Header
    ph := lp.Preheader()
    exit := lp.Exits()[0]
    work := bodyWork(body)
    phis := body.Phis()

    /* flattening the loop into the preheader needs an unconditional
     * edge to redirect */
    if ph.Term().Opcode() != ir.OpBr {
        return Unmodified
    }

    /* iteration state: the value of each phi at the top of the next
     * iteration */
    cur := make(map[ir.Value]ir.Value, len(phis))
    for _, p := range phis {
        cur[ir.Value(p)] = p.IncomingFor(ph)
    }

    /* the preheader now flows straight through the copies */
    ph.Term().EraseFromParent()
    pb := ir.NewBuilder(ph)

    var last map[ir.Value]ir.Value
    var prev map[ir.Value]ir.Value
    for k := uint(0); k < tripCount; k++ {
        m := make(map[ir.Value]ir.Value, len(phis) + len(work))
        for _, p := range phis {
            m[ir.Value(p)] = cur[ir.Value(p)]
        }

        /* phi state entering the final iteration is what external users
         * of the phis observe */
        if k == tripCount - 1 {
            prev = make(map[ir.Value]ir.Value, len(phis))
            for _, p := range phis {
                prev[ir.Value(p)] = cur[ir.Value(p)]
            }
        }

        /* replicate the body */
        for _, p := range work {
            if usedOnlyByTerm(p, body) {
                continue
            }
            c := p.Clone()
            remap(c, m)
            pb.Insert(c)
            m[ir.Value(p)] = c
        }

        /* advance the iteration state along the back edge */
        for _, p := range phis {
            cur[ir.Value(p)] = lookupOr(m, p.IncomingFor(body))
        }
        last = m
    }
    pb.Br(exit)

    /* external users of body values see the final copies, external
     * users of the phis see the final iteration state */
    for _, p := range work {
        if c, ok := last[ir.Value(p)]; ok {
            ir.ReplaceAllUsesWith(p, c)
        }
    }
    for _, p := range phis {
        ir.ReplaceAllUsesWith(p, prev[ir.Value(p)])
    }

    /* the exit phis now flow in from the preheader */
    for _, p := range exit.Phis() {
        for i := 0; i < p.NumIncoming(); i++ {
            if p.IncomingBlock(i) == body {
                p.SetIncomingBlock(i, ph)
            }
        }
    }

    fn.EraseBlock(body)
    log.WithPass("custom-loop-unroll").Tracef("fully unrolled %s by %d", body.Label(), tripCount)
    return UnrolledOk
}

// unrollPartial replicates the body factor times inside the loop block.
// The first copy is the original code; the back edge and the latch
// condition move to the last copy, which multiplies the effective step
// by the factor. Callers guarantee the factor divides the trip count,
// so no remainder loop is needed.
func (self *LoopUnroller) unrollPartial(fn *ir.Function, lp *analysis.Loop, ind *analysis.Induction, factor uint) UnrollResult {
    body := lp.Header
    term := body.Term()
    work := bodyWork(body)
    phis := body.Phis()

    /* copy 1 is the original body itself */
    m := make(map[ir.Value]ir.Value, len(phis) + len(work))
    cur := make(map[ir.Value]ir.Value, len(phis))
    for _, p := range phis {
        cur[ir.Value(p)] = p.IncomingFor(body)
    }

    var lastCmp *ir.Instruction
    for k := uint(2); k <= factor; k++ {
        m = make(map[ir.Value]ir.Value, len(phis) + len(work))
        for _, p := range phis {
            m[ir.Value(p)] = cur[ir.Value(p)]
        }
        for _, p := range work {
            /* branch-only values are cloned just once, in the copy the
             * branch actually consumes */
            if usedOnlyByTerm(p, body) && k != factor {
                continue
            }
            c := p.Clone()
            remap(c, m)
            fn.Autoname(c)
            body.InsertBefore(c, term)
            m[ir.Value(p)] = c
            if p == ind.Cmp {
                lastCmp = c
            }
        }
        for _, p := range phis {
            cur[ir.Value(p)] = lookupOr(m, p.IncomingFor(body))
        }
    }

    /* the latch condition is the final copy's comparison */
    if lastCmp != nil {
        term.SetOperand(0, lastCmp)
    }

    /* back edges carry the final copy's values */
    for _, p := range phis {
        for i := 0; i < p.NumIncoming(); i++ {
            if p.IncomingBlock(i) == body {
                p.SetOperand(i, cur[ir.Value(p)])
            }
        }
    }

    /* values escaping the loop are the last executed copy's */
    for _, p := range work {
        c, ok := m[ir.Value(p)]
        if !ok || c == ir.Value(p) {
            continue
        }
        users := append([]*ir.Instruction(nil), p.Users()...)
        for _, u := range users {
            if u.Parent() != body {
                for i, v := range u.Operands() {
                    if v == ir.Value(p) {
                        u.SetOperand(i, c)
                    }
                }
            }
        }
    }

    log.WithPass("custom-loop-unroll").Tracef("partially unrolled %s by %d", body.Label(), factor)
    return UnrolledOk
}

// unrollRuntime emits
//
//   preheader -> guard -+-> main (factor copies) -> epilogue guard -+
//                       |                  ^___|        |           |
//                       +------------> scalar loop <----+           |
//                                          |  ^_|                   |
//                                          +--------> exit <--------+
//
// The guard enters the unrolled main loop only when the induction can
// take factor more steps; the scalar loop, which is the original body,
// mops up the remainder one iteration at a time.
func (self *LoopUnroller) unrollRuntime(fn *ir.Function, lp *analysis.Loop, ind *analysis.Induction, factor uint, mintc uint) UnrollResult {
    body := lp.Header
    ph := lp.Preheader()
    exit := lp.Exits()[0]
    work := bodyWork(body)
    phis := body.Phis()
    ity := ind.Phi.Type()
    pred := ind.Cmp.Predicate()

    /* running factor iterations at once is only sound when passing the
     * strided test implies passing every intermediate one */
    if !monotonic(pred, ind.Step) {
        return Unmodified
    }

    /* snapshot the escaping values before any rewiring; exit phis are
     * rewired through their incoming edges and need no reformed phi */
    escapes := make(map[*ir.Instruction][]*ir.Instruction)
    for _, p := range work {
        for _, u := range p.Users() {
            if u.Parent() != body && !(u.Opcode() == ir.OpPhi && u.Parent() == exit) {
                escapes[p] = append(escapes[p], u)
            }
        }
    }

    /* the strided offset replicates the latch test factor steps ahead;
     * the entry guard may demand more iterations than one unrolled pass */
    offset := int64(factor) * ind.Step
    entry := int64(mintc) * ind.Step
    if !ind.CmpOnNext {
        offset = int64(factor - 1) * ind.Step
        entry = int64(mintc - 1) * ind.Step
    }

    guard := fn.NewBlock(body.Label() + ".guard")
    main := fn.NewBlock(body.Label() + ".unrolled")
    eguard := fn.NewBlock(body.Label() + ".epil.guard")

    /* retarget the preheader into the guard */
    phterm := ph.Term()
    for i := 0; i < phterm.NumTargets(); i++ {
        if phterm.Target(i) == body {
            phterm.SetTarget(i, guard)
        }
    }

    /* guard: enter the main loop only with factor iterations in hand */
    gb := ir.NewBuilder(guard)
    gv := gb.Add(ind.Init, ir.Int(ity, entry))
    gc := gb.ICmp(pred, gv, ind.Bound)
    if ind.ExitOnTrue {
        gb.CondBr(gc, body, main)
    } else {
        gb.CondBr(gc, main, body)
    }

    /* main: loop-carried phis seeded from the guard */
    mb := ir.NewBuilder(main)
    cur := make(map[ir.Value]ir.Value, len(phis))
    mphi := make(map[*ir.Instruction]*ir.Instruction, len(phis))
    for _, p := range phis {
        q := mb.Phi(p.Type())
        q.AddIncoming(p.IncomingFor(ph), guard)
        mphi[p] = q
        cur[ir.Value(p)] = q
    }

    /* factor copies of the body */
    var m map[ir.Value]ir.Value
    for k := uint(1); k <= factor; k++ {
        m = make(map[ir.Value]ir.Value, len(phis) + len(work))
        for _, p := range phis {
            m[ir.Value(p)] = cur[ir.Value(p)]
        }
        for _, p := range work {
            if usedOnlyByTerm(p, body) {
                continue
            }
            c := p.Clone()
            remap(c, m)
            mb.Insert(c)
            m[ir.Value(p)] = c
        }
        for _, p := range phis {
            cur[ir.Value(p)] = lookupOr(m, p.IncomingFor(body))
        }
    }

    /* main latch: retest the strided condition on the advanced state */
    mv := mb.Add(cur[ir.Value(ind.Phi)], ir.Int(ity, offset))
    mc := mb.ICmp(pred, mv, ind.Bound)
    if ind.ExitOnTrue {
        mb.CondBr(mc, eguard, main)
    } else {
        mb.CondBr(mc, main, eguard)
    }
    for _, p := range phis {
        mphi[p].AddIncoming(cur[ir.Value(p)], main)
    }

    /* epilogue guard: the remainder may be zero, repeat the scalar latch
     * test of the last unrolled copy */
    eb := ir.NewBuilder(eguard)
    var ev ir.Value
    if ind.CmpOnNext {
        ev = cur[ir.Value(ind.Phi)]
    } else {
        ev = m[ir.Value(ind.Phi)]
    }
    ec := eb.ICmp(pred, ev, ind.Bound)
    if ind.ExitOnTrue {
        eb.CondBr(ec, exit, body)
    } else {
        eb.CondBr(ec, body, exit)
    }

    /* the scalar loop now also starts from the guard or the epilogue
     * guard, with the corresponding iteration state */
    for _, p := range phis {
        for i := 0; i < p.NumIncoming(); i++ {
            if p.IncomingBlock(i) == ph {
                p.SetIncomingBlock(i, guard)
            }
        }
        p.AddIncoming(cur[ir.Value(p)], eguard)
    }

    /* exit phis gain the direct edge from the epilogue guard */
    exitValue := func(v ir.Value) ir.Value {
        if p, ok := v.(*ir.Instruction); ok && p.Parent() == body {
            if p.Opcode() == ir.OpPhi {
                return cur[v]
            }
            return lookupOr(m, v)
        }
        return v
    }
    for _, p := range exit.Phis() {
        if v := p.IncomingFor(body); v != nil {
            p.AddIncoming(exitValue(v), eguard)
        }
    }

    /* values escaping into straight-line code lose dominance once the
     * exit has two predecessors, reform them as exit phis */
    for _, p := range work {
        users := escapes[p]
        if len(users) == 0 {
            continue
        }
        px := ir.New(ir.OpPhi, p.Type())
        fn.Autoname(px)
        exit.InsertBefore(px, exit.Instructions()[0])
        px.AddIncoming(p, body)
        px.AddIncoming(exitValue(ir.Value(p)), eguard)
        for _, u := range users {
            for i, v := range u.Operands() {
                if v == ir.Value(p) {
                    u.SetOperand(i, px)
                }
            }
        }
    }

    log.WithPass("custom-loop-unroll").Tracef("runtime unrolled %s by %d", body.Label(), factor)
    return UnrolledOk
}

/* monotonic reports whether passing the strided latch test implies
 * passing every intermediate scalar test */
func monotonic(pred ir.Predicate, step int64) bool {
    switch pred {
        case ir.PredSLT, ir.PredSLE, ir.PredULT, ir.PredULE: {
            return step > 0
        }
        case ir.PredSGT, ir.PredSGE, ir.PredUGT, ir.PredUGE: {
            return step < 0
        }
        default: {
            return false
        }
    }
}
