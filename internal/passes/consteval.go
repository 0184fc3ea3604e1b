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
    `math`
    `math/bits`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

// Evaluator performs target-aware compile time evaluation of single
// instructions. TryEvaluate returns nil whenever the result is not a
// defined compile time value: a non-constant operand, division by zero,
// signed overflow on a no-wrap instruction, an out-of-range float to
// int conversion. A nil result is never an error, the instruction just
// stays as it is.
type Evaluator struct {
    DL *ir.DataLayout
}

func NewEvaluator(dl *ir.DataLayout) *Evaluator {
    if dl == nil {
        dl = ir.DefaultDataLayout()
    }
    return &Evaluator { DL: dl }
}

func (self *Evaluator) TryEvaluate(p *ir.Instruction) ir.Value {
    op := p.Opcode()
    switch {
        case op.IsBinary()            : return self.evalBinary(p)
        case op.IsCompare()           : return self.evalCompare(p)
        case op.IsCast()              : return self.evalCast(p)
        case op == ir.OpSelect        : return self.evalSelect(p)
        case op == ir.OpGetElementPtr : return self.evalGEP(p)
        default                       : return nil
    }
}

func (self *Evaluator) evalBinary(p *ir.Instruction) ir.Value {
    switch p.Opcode() {
        case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv: {
            return self.evalFloatBinary(p)
        }
    }

    x, ok := p.Operand(0).(*ir.ConstInt)
    if !ok {
        return nil
    }
    y, ok := p.Operand(1).(*ir.ConstInt)
    if !ok {
        return nil
    }

    var r int64
    switch p.Opcode() {
        case ir.OpAdd  : r = x.V + y.V
        case ir.OpSub  : r = x.V - y.V
        case ir.OpMul  : r = x.V * y.V
        case ir.OpAnd  : r = x.V & y.V
        case ir.OpOr   : r = x.V | y.V
        case ir.OpXor  : r = x.V ^ y.V

        case ir.OpSDiv: {
            if y.V == 0 || (x.V == math.MinInt64 && y.V == -1) {
                return nil
            }
            r = x.V / y.V
        }

        case ir.OpUDiv: {
            if y.V == 0 {
                return nil
            }
            r = int64(uint64(x.V) / uint64(y.V))
        }

        case ir.OpSRem: {
            if y.V == 0 || (x.V == math.MinInt64 && y.V == -1) {
                return nil
            }
            r = x.V % y.V
        }

        case ir.OpURem: {
            if y.V == 0 {
                return nil
            }
            r = int64(uint64(x.V) % uint64(y.V))
        }

        case ir.OpShl: {
            if uint64(y.V) >= uint64(p.Type().Bits()) {
                return nil
            }
            r = x.V << uint64(y.V)
        }

        case ir.OpLShr: {
            if uint64(y.V) >= uint64(p.Type().Bits()) {
                return nil
            }
            r = int64(zext(x.V, p.Type()) >> uint64(y.V))
        }

        case ir.OpAShr: {
            if uint64(y.V) >= uint64(p.Type().Bits()) {
                return nil
            }
            r = x.V >> uint64(y.V)
        }

        default: {
            return nil
        }
    }

    /* a no-wrap instruction whose exact result does not fit its type
     * traps, leave it alone */
    if p.NoWrap() && signedOverflows(p.Opcode(), x.V, y.V, p.Type()) {
        return nil
    }
    return ir.Int(p.Type(), r)
}

func (self *Evaluator) evalFloatBinary(p *ir.Instruction) ir.Value {
    x, ok := p.Operand(0).(*ir.ConstFloat)
    if !ok {
        return nil
    }
    y, ok := p.Operand(1).(*ir.ConstFloat)
    if !ok {
        return nil
    }
    switch p.Opcode() {
        case ir.OpFAdd : return ir.Float(p.Type(), x.V + y.V)
        case ir.OpFSub : return ir.Float(p.Type(), x.V - y.V)
        case ir.OpFMul : return ir.Float(p.Type(), x.V * y.V)
        case ir.OpFDiv : return ir.Float(p.Type(), x.V / y.V)
        default        : return nil
    }
}

func (self *Evaluator) evalCompare(p *ir.Instruction) ir.Value {
    if p.Opcode() == ir.OpICmp {
        if x, ok := p.Operand(0).(*ir.ConstInt); ok {
            if y, ok := p.Operand(1).(*ir.ConstInt); ok {
                return ir.Int(ir.I1, b2i(evalIntPredicate(p.Predicate(), x.V, y.V)))
            }
        }
        if x, ok := p.Operand(0).(*ir.ConstPtr); ok {
            if y, ok := p.Operand(1).(*ir.ConstPtr); ok {
                return self.evalPtrCompare(p, x, y)
            }
        }
        return nil
    }

    x, ok := p.Operand(0).(*ir.ConstFloat)
    if !ok {
        return nil
    }
    y, ok := p.Operand(1).(*ir.ConstFloat)
    if !ok {
        return nil
    }
    var r bool
    switch p.Predicate() {
        case ir.PredOEQ : r = x.V == y.V
        case ir.PredONE : r = x.V != y.V
        case ir.PredOLT : r = x.V < y.V
        case ir.PredOLE : r = x.V <= y.V
        case ir.PredOGT : r = x.V > y.V
        case ir.PredOGE : r = x.V >= y.V
        default         : return nil
    }
    return ir.Int(ir.I1, b2i(r))
}

func (self *Evaluator) evalPtrCompare(p *ir.Instruction, x *ir.ConstPtr, y *ir.ConstPtr) ir.Value {
    if x.Sym == y.Sym {
        return ir.Int(ir.I1, b2i(evalIntPredicate(p.Predicate(), x.Off, y.Off)))
    }

    /* distinct symbols only settle equality */
    switch p.Predicate() {
        case ir.PredEQ : return ir.Int(ir.I1, 0)
        case ir.PredNE : return ir.Int(ir.I1, 1)
        default        : return nil
    }
}

func (self *Evaluator) evalCast(p *ir.Instruction) ir.Value {
    switch p.Opcode() {
        case ir.OpTrunc: {
            if x, ok := p.Operand(0).(*ir.ConstInt); ok {
                return ir.Int(p.Type(), x.V)
            }
        }

        case ir.OpSExt: {
            if x, ok := p.Operand(0).(*ir.ConstInt); ok {
                return ir.Int(p.Type(), x.V)
            }
        }

        case ir.OpZExt: {
            if x, ok := p.Operand(0).(*ir.ConstInt); ok {
                return ir.Int(p.Type(), int64(zext(x.V, x.Ty)))
            }
        }

        case ir.OpSIToFP: {
            if x, ok := p.Operand(0).(*ir.ConstInt); ok {
                return ir.Float(p.Type(), float64(x.V))
            }
        }

        case ir.OpFPToSI: {
            if x, ok := p.Operand(0).(*ir.ConstFloat); ok {
                return self.evalFPToSI(p, x)
            }
        }
    }
    return nil
}

/* evalFPToSI folds float to int only when the value is exactly in range */
func (self *Evaluator) evalFPToSI(p *ir.Instruction, x *ir.ConstFloat) ir.Value {
    v := math.Trunc(x.V)
    if math.IsNaN(v) || math.IsInf(v, 0) {
        return nil
    }
    bits := p.Type().Bits()
    lo := -math.Pow(2, float64(bits - 1))
    hi := math.Pow(2, float64(bits - 1))
    if v < lo || v >= hi {
        return nil
    }
    return ir.Int(p.Type(), int64(v))
}

// evalSelect folds a select with a constant condition to the live arm,
// constant or not.
func (self *Evaluator) evalSelect(p *ir.Instruction) ir.Value {
    cond, ok := p.Operand(0).(*ir.ConstInt)
    if !ok {
        return nil
    }
    if cond.V != 0 {
        return p.Operand(1)
    } else {
        return p.Operand(2)
    }
}

func (self *Evaluator) evalGEP(p *ir.Instruction) ir.Value {
    base, ok := p.Operand(0).(*ir.ConstPtr)
    if !ok {
        return nil
    }
    off := base.Off
    scale := self.DL.SizeOf(p.ElemType())
    for i := 1; i < p.NumOperands(); i++ {
        idx, ok := p.Operand(i).(*ir.ConstInt)
        if !ok {
            return nil
        }
        off += idx.V * scale
    }
    return ir.Pointer(base.Sym, off)
}

func evalIntPredicate(pred ir.Predicate, x int64, y int64) bool {
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

/* signedOverflows reports whether op on x, y exceeds the signed range
 * of ty */
func signedOverflows(op ir.Opcode, x int64, y int64, ty *ir.Type) bool {
    var r int64
    var carry bool
    switch op {
        case ir.OpAdd: {
            r = x + y
            carry = (x > 0 && y > 0 && r < 0) || (x < 0 && y < 0 && r >= 0)
        }
        case ir.OpSub: {
            r = x - y
            carry = (x >= 0 && y < 0 && r < 0) || (x < 0 && y > 0 && r >= 0)
        }
        case ir.OpMul: {
            hi, lo := bits.Mul64(uint64(abs64(x)), uint64(abs64(y)))
            r = x * y
            carry = hi != 0 || lo > uint64(math.MaxInt64)
        }
        default: {
            return false
        }
    }
    if carry {
        return true
    }

    /* narrow types overflow when truncation changes the value */
    if ty.Bits() < 64 {
        return ir.Int(ty, r).V != r
    }
    return false
}

func abs64(v int64) int64 {
    if v < 0 {
        return -v
    } else {
        return v
    }
}

func zext(v int64, ty *ir.Type) uint64 {
    switch ty.Bits() {
        case 1  : return uint64(v) & 1
        case 8  : return uint64(uint8(v))
        case 16 : return uint64(uint16(v))
        case 32 : return uint64(uint32(v))
        default : return uint64(v)
    }
}

func b2i(v bool) int64 {
    if v {
        return 1
    } else {
        return 0
    }
}
