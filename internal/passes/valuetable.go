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
)

// ExpressionKey is the canonical identity of a computation: opcode,
// result type, operand value numbers (sorted for commutative opcodes),
// comparison predicate and the GEP in-bounds flag. Two instructions with
// equal keys compute the same value in any program state, given SSA form
// and side-effect freedom.
type ExpressionKey struct {
    Opcode    uint32
    Type      *ir.Type
    Operands  []uint32
    Predicate uint32
    InBounds  bool
}

// Hash mixes the opcode, operand numbers and type with the golden-ratio
// constant, then xors in the predicate and the in-bounds flag.
func (self ExpressionKey) Hash() uint64 {
    h := uint64(self.Opcode)
    for _, vn := range self.Operands {
        h ^= uint64(vn) + 0x9e3779b9 + (h << 6) + (h >> 2)
    }
    h ^= uint64(typeid(self.Type)) + 0x9e3779b9 + (h << 6) + (h >> 2)
    h ^= uint64(self.Predicate)
    if self.InBounds {
        h ^= 1
    }
    return h
}

// Equal is field-wise equality.
func (self ExpressionKey) Equal(other ExpressionKey) bool {
    if self.Opcode != other.Opcode || self.Type != other.Type {
        return false
    }
    if self.Predicate != other.Predicate || self.InBounds != other.InBounds {
        return false
    }
    if len(self.Operands) != len(other.Operands) {
        return false
    }
    for i, vn := range self.Operands {
        if vn != other.Operands[i] {
            return false
        }
    }
    return true
}

/* typeid maps an interned type to a stable small integer */
func typeid(ty *ir.Type) uint32 {
    return uint32(ty.Kind()) << 16 | uint32(ty.Bits())
}

type _ExprEntry struct {
    key ExpressionKey
    ins *ir.Instruction
}

// ValueNumberTable assigns dense value numbers, starting at 1, to SSA
// values and indexes analyzable expressions by their canonical key.
// Buckets keep insertion order, so every query is deterministic.
type ValueNumberTable struct {
    next   uint32
    nexpr  uint
    vals   map[ir.Value]uint32
    lits   map[_LitKey]uint32
    exprs  map[uint64][]_ExprEntry
}

/* _LitKey numbers constant literals by value rather than by node, the
 * IR does not intern them */
type _LitKey struct {
    ty  *ir.Type
    i   int64
    f   float64
    sym string
}

func litkey(v ir.Value) (_LitKey, bool) {
    switch p := v.(type) {
        case *ir.ConstInt   : return _LitKey { ty: p.Ty, i: p.V }, true
        case *ir.ConstFloat : return _LitKey { ty: p.Ty, f: p.V }, true
        case *ir.ConstPtr   : return _LitKey { ty: ir.Ptr, i: p.Off, sym: p.Sym }, true
        default             : return _LitKey{}, false
    }
}

func NewValueNumberTable() *ValueNumberTable {
    return &ValueNumberTable {
        next  : 1,
        vals  : make(map[ir.Value]uint32),
        lits  : make(map[_LitKey]uint32),
        exprs : make(map[uint64][]_ExprEntry),
    }
}

// ValueNumber returns the value number of v, assigning a fresh one on
// first sight. Idempotent; equal constant literals share one number.
func (self *ValueNumberTable) ValueNumber(v ir.Value) uint32 {
    if k, ok := litkey(v); ok {
        if vn, ok := self.lits[k]; ok {
            return vn
        }
        vn := self.next
        self.next++
        self.lits[k] = vn
        return vn
    }
    if vn, ok := self.vals[v]; ok {
        return vn
    }
    vn := self.next
    self.next++
    self.vals[v] = vn
    return vn
}

// LookupValueNumber returns the value number of v, or 0 when v was never
// numbered.
func (self *ValueNumberTable) LookupValueNumber(v ir.Value) uint32 {
    if k, ok := litkey(v); ok {
        return self.lits[k]
    }
    return self.vals[v]
}

// MakeKey builds the canonical expression key of p. Commutative two
// operand instructions get their operand numbers sorted ascending, so
// (a op b) and (b op a) collide by construction.
func (self *ValueNumberTable) MakeKey(p *ir.Instruction) ExpressionKey {
    key := ExpressionKey {
        Opcode : uint32(p.Opcode()),
        Type   : p.Type(),
    }
    for _, v := range p.Operands() {
        key.Operands = append(key.Operands, self.ValueNumber(v))
    }
    if p.Opcode().IsCommutative() && len(key.Operands) == 2 {
        if key.Operands[0] > key.Operands[1] {
            key.Operands[0], key.Operands[1] = key.Operands[1], key.Operands[0]
        }
    }
    if p.Opcode().IsCompare() {
        key.Predicate = uint32(p.Predicate())
    }
    if p.Opcode() == ir.OpGetElementPtr {
        key.InBounds = p.InBounds()
    }
    return key
}

// FindAvailable returns an instruction previously inserted under key
// that strictly dominates at, or nil. Buckets are scanned newest first,
// so of several dominating providers the most recently inserted wins.
func (self *ValueNumberTable) FindAvailable(key ExpressionKey, at *ir.Instruction, dt *analysis.DominatorTree) *ir.Instruction {
    bucket := self.exprs[key.Hash()]
    for i := len(bucket) - 1; i >= 0; i-- {
        e := bucket[i]
        if !e.key.Equal(key) {
            continue
        }
        if e.ins == at {
            continue
        }
        if dt.DominatesInst(e.ins, at) {
            return e.ins
        }
    }
    return nil
}

// Insert records p as a provider of key.
func (self *ValueNumberTable) Insert(key ExpressionKey, p *ir.Instruction) {
    h := key.Hash()
    self.exprs[h] = append(self.exprs[h], _ExprEntry { key: key, ins: p })
    self.nexpr++
}

func (self *ValueNumberTable) NumValueNumbers() uint {
    return uint(self.next - 1)
}

func (self *ValueNumberTable) NumExpressions() uint {
    return self.nexpr
}

// Analyzable reports whether p may enter the expression table: pure,
// non-memory, non-control computations only. Everything else still gets
// a value number so it can appear as an operand.
func Analyzable(p *ir.Instruction) bool {
    switch {
        case p.Opcode() == ir.OpPhi    : return false
        case p.IsTerminator()          : return false
        case p.Opcode() == ir.OpLoad   : return false
        case p.Opcode() == ir.OpStore  : return false
        case p.Opcode() == ir.OpAlloca : return false
        case p.Opcode() == ir.OpCall   : return false
        case p.Volatile()              : return false
        case p.Atomic()                : return false
        case p.MayHaveSideEffects()    : return false
        default                        : return true
    }
}
