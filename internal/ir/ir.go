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

import (
    `fmt`
    `strings`
)

type Opcode uint8

const (
    OpInvalid Opcode = iota

    /* integer arithmetic */
    OpAdd
    OpSub
    OpMul
    OpSDiv
    OpUDiv
    OpSRem
    OpURem

    /* bitwise */
    OpShl
    OpLShr
    OpAShr
    OpAnd
    OpOr
    OpXor

    /* floating point arithmetic */
    OpFAdd
    OpFSub
    OpFMul
    OpFDiv

    /* comparisons */
    OpICmp
    OpFCmp

    /* casts */
    OpTrunc
    OpZExt
    OpSExt
    OpFPToSI
    OpSIToFP

    /* misc value operations */
    OpSelect
    OpGetElementPtr

    /* memory */
    OpLoad
    OpStore
    OpAlloca

    /* control and special */
    OpPhi
    OpCall
    OpBr
    OpCondBr
    OpRet
)

var _OpNames = [...]string {
    OpInvalid       : "invalid",
    OpAdd           : "add",
    OpSub           : "sub",
    OpMul           : "mul",
    OpSDiv          : "sdiv",
    OpUDiv          : "udiv",
    OpSRem          : "srem",
    OpURem          : "urem",
    OpShl           : "shl",
    OpLShr          : "lshr",
    OpAShr          : "ashr",
    OpAnd           : "and",
    OpOr            : "or",
    OpXor           : "xor",
    OpFAdd          : "fadd",
    OpFSub          : "fsub",
    OpFMul          : "fmul",
    OpFDiv          : "fdiv",
    OpICmp          : "icmp",
    OpFCmp          : "fcmp",
    OpTrunc         : "trunc",
    OpZExt          : "zext",
    OpSExt          : "sext",
    OpFPToSI        : "fptosi",
    OpSIToFP        : "sitofp",
    OpSelect        : "select",
    OpGetElementPtr : "getelementptr",
    OpLoad          : "load",
    OpStore         : "store",
    OpAlloca        : "alloca",
    OpPhi           : "phi",
    OpCall          : "call",
    OpBr            : "br",
    OpCondBr        : "condbr",
    OpRet           : "ret",
}

func (self Opcode) String() string {
    if int(self) < len(_OpNames) && _OpNames[self] != "" {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("op_%d", uint8(self))
    }
}

// IsCommutative reports whether the opcode yields the same result when
// its two operands are swapped.
func (self Opcode) IsCommutative() bool {
    switch self {
        case OpAdd  : fallthrough
        case OpMul  : fallthrough
        case OpFAdd : fallthrough
        case OpFMul : fallthrough
        case OpAnd  : fallthrough
        case OpOr   : fallthrough
        case OpXor  : return true
        default     : return false
    }
}

func (self Opcode) IsTerminator() bool {
    switch self {
        case OpBr     : fallthrough
        case OpCondBr : fallthrough
        case OpRet    : return true
        default       : return false
    }
}

func (self Opcode) IsCast() bool {
    switch self {
        case OpTrunc  : fallthrough
        case OpZExt   : fallthrough
        case OpSExt   : fallthrough
        case OpFPToSI : fallthrough
        case OpSIToFP : return true
        default       : return false
    }
}

func (self Opcode) IsBinary() bool {
    return self >= OpAdd && self <= OpFDiv
}

func (self Opcode) IsCompare() bool {
    return self == OpICmp || self == OpFCmp
}

type Predicate uint8

const (
    PredNone Predicate = iota
    PredEQ
    PredNE
    PredSLT
    PredSLE
    PredSGT
    PredSGE
    PredULT
    PredULE
    PredUGT
    PredUGE
    PredOEQ
    PredONE
    PredOLT
    PredOLE
    PredOGT
    PredOGE
)

var _PredNames = [...]string {
    PredNone : "",
    PredEQ   : "eq",
    PredNE   : "ne",
    PredSLT  : "slt",
    PredSLE  : "sle",
    PredSGT  : "sgt",
    PredSGE  : "sge",
    PredULT  : "ult",
    PredULE  : "ule",
    PredUGT  : "ugt",
    PredUGE  : "uge",
    PredOEQ  : "oeq",
    PredONE  : "one",
    PredOLT  : "olt",
    PredOLE  : "ole",
    PredOGT  : "ogt",
    PredOGE  : "oge",
}

func (self Predicate) String() string {
    return _PredNames[self]
}

// Instruction is a single SSA instruction: an opcode, a result type, an
// ordered operand list and a small set of attributes. Every instruction
// produces exactly one result value (void-typed results included), so an
// Instruction is itself a Value.
type Instruction struct {
    _UserList
    op       Opcode
    ty       *Type
    id       string
    blk      *BasicBlock
    operands []Value

    /* attributes */
    pred     Predicate
    inBounds bool
    volatile bool
    atomic   bool
    noWrap   bool
    elem     *Type         // GEP element type
    callee   string        // call target
    pure     bool          // callee is known memory-pure
    incoming []*BasicBlock // phi, parallel to operands
    targets  []*BasicBlock // br / condbr successors
}

// New creates a detached instruction with no operands. The caller is
// expected to attach operands and append it to a block, usually through
// a Builder.
func New(op Opcode, ty *Type) *Instruction {
    return &Instruction { op: op, ty: ty }
}

func (self *Instruction) Opcode() Opcode {
    return self.op
}

func (self *Instruction) Type() *Type {
    return self.ty
}

func (self *Instruction) Name() string {
    return self.id
}

func (self *Instruction) SetName(id string) {
    self.id = id
}

func (self *Instruction) Parent() *BasicBlock {
    return self.blk
}

func (self *Instruction) NumOperands() int {
    return len(self.operands)
}

func (self *Instruction) Operand(i int) Value {
    return self.operands[i]
}

func (self *Instruction) Operands() []Value {
    return self.operands
}

func (self *Instruction) AddOperand(v Value) *Instruction {
    self.operands = append(self.operands, v)
    v.addUser(self)
    return self
}

func (self *Instruction) SetOperand(i int, v Value) {
    self.operands[i].delUser(self)
    self.operands[i] = v
    v.addUser(self)
}

func (self *Instruction) Predicate() Predicate {
    return self.pred
}

func (self *Instruction) SetPredicate(p Predicate) *Instruction {
    self.pred = p
    return self
}

func (self *Instruction) InBounds() bool {
    return self.inBounds
}

func (self *Instruction) SetInBounds(v bool) *Instruction {
    self.inBounds = v
    return self
}

func (self *Instruction) Volatile() bool {
    return self.volatile
}

func (self *Instruction) SetVolatile(v bool) *Instruction {
    self.volatile = v
    return self
}

func (self *Instruction) Atomic() bool {
    return self.atomic
}

func (self *Instruction) SetAtomic(v bool) *Instruction {
    self.atomic = v
    return self
}

func (self *Instruction) NoWrap() bool {
    return self.noWrap
}

func (self *Instruction) SetNoWrap(v bool) *Instruction {
    self.noWrap = v
    return self
}

func (self *Instruction) ElemType() *Type {
    return self.elem
}

func (self *Instruction) SetElemType(ty *Type) *Instruction {
    self.elem = ty
    return self
}

func (self *Instruction) Callee() string {
    return self.callee
}

func (self *Instruction) CalleePure() bool {
    return self.pure
}

func (self *Instruction) SetCallee(fn string, pure bool) *Instruction {
    self.callee = fn
    self.pure = pure
    return self
}

func (self *Instruction) IsTerminator() bool {
    return self.op.IsTerminator()
}

/* phi accessors */

func (self *Instruction) NumIncoming() int {
    return len(self.incoming)
}

func (self *Instruction) IncomingBlock(i int) *BasicBlock {
    return self.incoming[i]
}

func (self *Instruction) IncomingValue(i int) Value {
    return self.operands[i]
}

func (self *Instruction) AddIncoming(v Value, bb *BasicBlock) *Instruction {
    if self.op != OpPhi {
        panic("ir: AddIncoming on non-phi instruction")
    }
    self.AddOperand(v)
    self.incoming = append(self.incoming, bb)
    return self
}

// IncomingFor returns the value flowing in from bb, or nil if bb is not
// a predecessor edge of this phi.
func (self *Instruction) IncomingFor(bb *BasicBlock) Value {
    for i, p := range self.incoming {
        if p == bb {
            return self.operands[i]
        }
    }
    return nil
}

// SetIncomingBlock retargets the i-th incoming edge.
func (self *Instruction) SetIncomingBlock(i int, bb *BasicBlock) {
    self.incoming[i] = bb
}

// RemoveIncoming drops the edge from bb, if present.
func (self *Instruction) RemoveIncoming(bb *BasicBlock) {
    for i, p := range self.incoming {
        if p == bb {
            self.operands[i].delUser(self)
            self.operands = append(self.operands[:i], self.operands[i + 1:]...)
            self.incoming = append(self.incoming[:i], self.incoming[i + 1:]...)
            return
        }
    }
}

/* branch accessors */

func (self *Instruction) NumTargets() int {
    return len(self.targets)
}

func (self *Instruction) Target(i int) *BasicBlock {
    return self.targets[i]
}

func (self *Instruction) SetTarget(i int, bb *BasicBlock) {
    self.targets[i] = bb
}

func (self *Instruction) AddTarget(bb *BasicBlock) *Instruction {
    self.targets = append(self.targets, bb)
    return self
}

// Successors returns the control flow successors of a terminator, in
// target order.
func (self *Instruction) Successors() []*BasicBlock {
    if !self.IsTerminator() {
        panic("ir: Successors on non-terminator instruction")
    }
    return self.targets
}

// MayHaveSideEffects reports whether executing the instruction can be
// observed beyond its result value.
func (self *Instruction) MayHaveSideEffects() bool {
    switch {
        case self.volatile             : return true
        case self.atomic               : return true
        case self.op == OpStore        : return true
        case self.op == OpCall         : return !self.pure
        default                        : return false
    }
}

// Clone returns a detached copy of the instruction with the same opcode,
// type and attributes, and the same operand values. Phi incoming blocks
// and branch targets are copied as-is; the caller remaps them.
func (self *Instruction) Clone() *Instruction {
    p := New(self.op, self.ty)
    p.pred = self.pred
    p.inBounds = self.inBounds
    p.volatile = self.volatile
    p.atomic = self.atomic
    p.noWrap = self.noWrap
    p.elem = self.elem
    p.callee = self.callee
    p.pure = self.pure

    /* copy the operand edges */
    for _, v := range self.operands {
        p.AddOperand(v)
    }

    /* copy phi edges and branch targets */
    p.incoming = append([]*BasicBlock(nil), self.incoming...)
    p.targets = append([]*BasicBlock(nil), self.targets...)
    return p
}

/* replaceUsesOfWith rewrites every operand edge from v to w */
func (self *Instruction) replaceUsesOfWith(v Value, w Value) {
    for i, op := range self.operands {
        if op == v {
            self.SetOperand(i, w)
        }
    }
}

// EraseFromParent removes the instruction from its block and detaches
// every operand edge. Erasing an instruction that still has users is a
// contract violation.
func (self *Instruction) EraseFromParent() {
    if len(self.users) != 0 {
        panic("ir: erasing an instruction that still has users: " + self.String())
    }

    /* detach the operand edges first */
    for _, v := range self.operands {
        v.delUser(self)
    }

    /* then unlink from the block */
    self.operands = self.operands[:0]
    if self.blk != nil {
        self.blk.remove(self)
        self.blk = nil
    }
}

// String renders the instruction as an operand reference. Void-typed
// instructions cannot be referenced, so they render in full.
func (self *Instruction) String() string {
    if self.ty.IsVoid() {
        return self.Dump()
    } else {
        return "%" + self.id
    }
}

// Dump renders the full instruction text.
func (self *Instruction) Dump() string {
    var sb strings.Builder

    /* result binding for value-producing instructions */
    if !self.ty.IsVoid() {
        sb.WriteString("%" + self.id)
        sb.WriteString(" = ")
    }

    /* opcode, with predicate and flags where applicable */
    sb.WriteString(self.op.String())
    if self.pred != PredNone {
        sb.WriteString("." + self.pred.String())
    }
    if self.noWrap {
        sb.WriteString(" nsw")
    }
    if self.inBounds {
        sb.WriteString(" inbounds")
    }
    if self.volatile {
        sb.WriteString(" volatile")
    }
    if self.atomic {
        sb.WriteString(" atomic")
    }

    /* special forms */
    switch self.op {
        case OpPhi: {
            sb.WriteString(" " + self.ty.String())
            for i, v := range self.operands {
                if i != 0 {
                    sb.WriteString(",")
                }
                sb.WriteString(fmt.Sprintf(" [%s, %s]", v, self.incoming[i].Label()))
            }
            return sb.String()
        }

        case OpBr: {
            sb.WriteString(" " + self.targets[0].Label())
            return sb.String()
        }

        case OpCondBr: {
            sb.WriteString(fmt.Sprintf(" %s, %s, %s", self.operands[0], self.targets[0].Label(), self.targets[1].Label()))
            return sb.String()
        }

        case OpCall: {
            sb.WriteString(" @" + self.callee)
        }

        case OpGetElementPtr: {
            sb.WriteString(" " + self.elem.String() + ",")
        }
    }

    /* result type then the operand list */
    if !self.ty.IsVoid() {
        sb.WriteString(" " + self.ty.String())
    }
    for i, v := range self.operands {
        if i != 0 {
            sb.WriteString(",")
        }
        sb.WriteString(" " + v.String())
    }
    return sb.String()
}
