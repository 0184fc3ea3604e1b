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
    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

// _MaxTripCount bounds the symbolic iteration below. Loops with larger
// constant trip counts report as unknown, which matches the "small
// constant" contract.
const _MaxTripCount = 65536

// Induction describes the canonical induction of a loop: a header phi
// fed by the preheader and by an add in the loop body, tested by the
// latch comparison against a bound.
type Induction struct {
    Phi       *ir.Instruction // i = phi [init, preheader], [next, latch]
    Next      *ir.Instruction // next = add i, step
    Cmp       *ir.Instruction // latch condition
    Init      ir.Value
    Bound     ir.Value
    Step      int64
    CmpOnNext bool // the comparison tests next rather than i
    ExitOnTrue bool // the latch branches out of the loop when true
}

// ScalarEvolution answers constant trip count queries by recognizing the
// canonical induction pattern and simulating it.
type ScalarEvolution struct {
    li *LoopInfo
}

func BuildScalarEvolution(li *LoopInfo) *ScalarEvolution {
    return &ScalarEvolution { li: li }
}

// InductionOf recognizes the canonical induction variable of lp, or
// returns nil when the loop does not match the pattern.
func (self *ScalarEvolution) InductionOf(lp *Loop) *Induction {
    ph := lp.Preheader()
    latch := lp.Latch

    /* only canonical loops have a recognizable induction */
    if ph == nil || latch == nil {
        return nil
    }

    /* the latch must end in a conditional branch with exactly one edge
     * back to the header */
    term := latch.Term()
    if term == nil || term.Opcode() != ir.OpCondBr {
        return nil
    }
    var exitOnTrue bool
    if term.Target(0) == lp.Header && !lp.Contains(term.Target(1)) {
        exitOnTrue = false
    } else if term.Target(1) == lp.Header && !lp.Contains(term.Target(0)) {
        exitOnTrue = true
    } else {
        return nil
    }

    /* the condition must be an integer comparison in the loop */
    cmp, ok := term.Operand(0).(*ir.Instruction)
    if !ok || cmp.Opcode() != ir.OpICmp || !lp.Contains(cmp.Parent()) {
        return nil
    }

    /* try every header phi as the induction candidate */
    for _, phi := range lp.Header.Phis() {
        ind := self.matchInduction(lp, ph, latch, cmp, phi)
        if ind != nil {
            ind.ExitOnTrue = exitOnTrue
            return ind
        }
    }
    return nil
}

/* matchInduction checks one phi against the i / i+step / cmp pattern */
func (self *ScalarEvolution) matchInduction(lp *Loop, ph *ir.BasicBlock, latch *ir.BasicBlock, cmp *ir.Instruction, phi *ir.Instruction) *Induction {
    if phi.NumIncoming() != 2 {
        return nil
    }
    init := phi.IncomingFor(ph)
    back := phi.IncomingFor(latch)
    if init == nil || back == nil {
        return nil
    }

    /* the back edge value must be phi + constant step */
    next, ok := back.(*ir.Instruction)
    if !ok || next.Opcode() != ir.OpAdd || !lp.Contains(next.Parent()) {
        return nil
    }
    var step *ir.ConstInt
    if next.Operand(0) == phi {
        step, _ = next.Operand(1).(*ir.ConstInt)
    } else if next.Operand(1) == phi {
        step, _ = next.Operand(0).(*ir.ConstInt)
    }
    if step == nil || step.V == 0 {
        return nil
    }

    /* the comparison must test phi or next against a loop invariant bound */
    var iv ir.Value
    var bound ir.Value
    if cmp.Operand(0) == phi || cmp.Operand(0) == next {
        iv, bound = cmp.Operand(0), cmp.Operand(1)
    } else if cmp.Operand(1) == phi || cmp.Operand(1) == next {
        /* swapped operands are out of pattern, the caller can
         * canonicalize the comparison if it wants them */
        return nil
    } else {
        return nil
    }
    if p, ok := bound.(*ir.Instruction); ok && lp.Contains(p.Parent()) {
        return nil
    }

    return &Induction {
        Phi       : phi,
        Next      : next,
        Cmp       : cmp,
        Init      : init,
        Bound     : bound,
        Step      : step.V,
        CmpOnNext : iv == next,
    }
}

// SmallConstantTripCount returns the exact number of body executions of
// lp when it is a compile time constant, and 0 when unknown.
func (self *ScalarEvolution) SmallConstantTripCount(lp *Loop) uint {
    ind := self.InductionOf(lp)
    if ind == nil {
        return 0
    }

    /* both ends must be constant */
    init, ok := ind.Init.(*ir.ConstInt)
    if !ok {
        return 0
    }
    bound, ok := ind.Bound.(*ir.ConstInt)
    if !ok {
        return 0
    }

    /* simulate the induction */
    n := uint(0)
    i := init.V
    for n < _MaxTripCount {
        n++
        v := i
        if ind.CmpOnNext {
            v = i + ind.Step
        }
        taken := evalPredicate(ind.Cmp.Predicate(), v, bound.V)
        i += ind.Step
        if taken == ind.ExitOnTrue {
            return n
        }
    }
    return 0
}

// SmallConstantTripMultiple returns the largest known divisor of the
// trip count. When the count itself is known the count is its own
// largest divisor; otherwise nothing is known and the multiple is 1.
func (self *ScalarEvolution) SmallConstantTripMultiple(lp *Loop) uint {
    if tc := self.SmallConstantTripCount(lp); tc > 0 {
        return tc
    } else {
        return 1
    }
}

/* evalPredicate evaluates an integer comparison */
func evalPredicate(pred ir.Predicate, x int64, y int64) bool {
    switch pred {
        case ir.PredEQ  : return x == y
        case ir.PredNE  : return x != y
        case ir.PredSLT : return x < y
        case ir.PredSLE : return x <= y
        case ir.PredSGT : return x > y
        case ir.PredSGE : return x >= y
        case ir.PredULT : return uint64(x) < uint64(y)
        case ir.PredULE : return uint64(x) <= uint64(y)
        case ir.PredUGT : return uint64(x) > uint64(y)
        case ir.PredUGE : return uint64(x) >= uint64(y)
        default         : return false
    }
}
