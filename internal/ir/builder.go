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

package ir

// Builder appends instructions to a basic block, naming each result
// value sequentially within the function.
type Builder struct {
    bb *BasicBlock
}

func NewBuilder(bb *BasicBlock) *Builder {
    return &Builder { bb: bb }
}

func (self *Builder) Block() *BasicBlock {
    return self.bb
}

// SetBlock retargets the builder to another block.
func (self *Builder) SetBlock(bb *BasicBlock) {
    self.bb = bb
}

/* emit names and appends p to the current block */
func (self *Builder) emit(p *Instruction) *Instruction {
    self.bb.fn.nameinstr(p)
    self.bb.Append(p)
    return p
}

// Insert names and appends a detached instruction, such as one produced
// by Clone, at the end of the current block.
func (self *Builder) Insert(p *Instruction) *Instruction {
    return self.emit(p)
}

func (self *Builder) Binary(op Opcode, x Value, y Value) *Instruction {
    if !op.IsBinary() {
        panic("ir: not a binary opcode: " + op.String())
    }
    return self.emit(New(op, x.Type()).AddOperand(x).AddOperand(y))
}

func (self *Builder) Add(x Value, y Value) *Instruction { return self.Binary(OpAdd, x, y) }
func (self *Builder) Sub(x Value, y Value) *Instruction { return self.Binary(OpSub, x, y) }
func (self *Builder) Mul(x Value, y Value) *Instruction { return self.Binary(OpMul, x, y) }
func (self *Builder) SDiv(x Value, y Value) *Instruction { return self.Binary(OpSDiv, x, y) }
func (self *Builder) UDiv(x Value, y Value) *Instruction { return self.Binary(OpUDiv, x, y) }
func (self *Builder) And(x Value, y Value) *Instruction { return self.Binary(OpAnd, x, y) }
func (self *Builder) Or(x Value, y Value) *Instruction { return self.Binary(OpOr, x, y) }
func (self *Builder) Xor(x Value, y Value) *Instruction { return self.Binary(OpXor, x, y) }

func (self *Builder) ICmp(pred Predicate, x Value, y Value) *Instruction {
    return self.emit(New(OpICmp, I1).SetPredicate(pred).AddOperand(x).AddOperand(y))
}

func (self *Builder) FCmp(pred Predicate, x Value, y Value) *Instruction {
    return self.emit(New(OpFCmp, I1).SetPredicate(pred).AddOperand(x).AddOperand(y))
}

func (self *Builder) Cast(op Opcode, ty *Type, v Value) *Instruction {
    if !op.IsCast() {
        panic("ir: not a cast opcode: " + op.String())
    }
    return self.emit(New(op, ty).AddOperand(v))
}

func (self *Builder) Select(cond Value, x Value, y Value) *Instruction {
    return self.emit(New(OpSelect, x.Type()).AddOperand(cond).AddOperand(x).AddOperand(y))
}

func (self *Builder) GEP(elem *Type, base Value, index ...Value) *Instruction {
    p := New(OpGetElementPtr, Ptr).SetElemType(elem).AddOperand(base)
    for _, v := range index {
        p.AddOperand(v)
    }
    return self.emit(p)
}

func (self *Builder) Load(ty *Type, addr Value) *Instruction {
    return self.emit(New(OpLoad, ty).AddOperand(addr))
}

func (self *Builder) Store(v Value, addr Value) *Instruction {
    return self.emit(New(OpStore, Void).AddOperand(v).AddOperand(addr))
}

func (self *Builder) Alloca(ty *Type) *Instruction {
    return self.emit(New(OpAlloca, Ptr).SetElemType(ty))
}

func (self *Builder) Call(ty *Type, fn string, pure bool, args ...Value) *Instruction {
    p := New(OpCall, ty).SetCallee(fn, pure)
    for _, v := range args {
        p.AddOperand(v)
    }
    return self.emit(p)
}

// Phi emits an empty phi; incoming edges are attached by the caller with
// AddIncoming. Phis always sit at the head of their block, so emitting
// one after a non-phi instruction is a contract violation.
func (self *Builder) Phi(ty *Type) *Instruction {
    for _, p := range self.bb.ins {
        if p.Opcode() != OpPhi {
            panic("ir: phi emitted after a non-phi instruction in " + self.bb.Label())
        }
    }
    return self.emit(New(OpPhi, ty))
}

func (self *Builder) Br(to *BasicBlock) *Instruction {
    return self.emit(New(OpBr, Void).AddTarget(to))
}

func (self *Builder) CondBr(cond Value, then *BasicBlock, els *BasicBlock) *Instruction {
    return self.emit(New(OpCondBr, Void).AddOperand(cond).AddTarget(then).AddTarget(els))
}

func (self *Builder) Ret(v Value) *Instruction {
    p := New(OpRet, Void)
    if v != nil {
        p.AddOperand(v)
    }
    return self.emit(p)
}
