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

// BasicBlock is an ordered sequence of instructions whose last
// instruction is a terminator.
type BasicBlock struct {
    Id    int
    label string
    fn    *Function
    ins   []*Instruction
}

func (self *BasicBlock) Label() string {
    if self.label != "" {
        return self.label
    } else {
        return fmt.Sprintf("bb_%d", self.Id)
    }
}

func (self *BasicBlock) Parent() *Function {
    return self.fn
}

func (self *BasicBlock) Instructions() []*Instruction {
    return self.ins
}

func (self *BasicBlock) NumInstructions() int {
    return len(self.ins)
}

// Term returns the block terminator, or nil for an unterminated block
// still under construction.
func (self *BasicBlock) Term() *Instruction {
    if n := len(self.ins); n == 0 || !self.ins[n - 1].IsTerminator() {
        return nil
    } else {
        return self.ins[n - 1]
    }
}

// Append adds p at the end of the block. Appending past a terminator is
// a contract violation.
func (self *BasicBlock) Append(p *Instruction) {
    if self.Term() != nil {
        panic("ir: appending past the terminator of " + self.Label())
    }
    p.blk = self
    self.ins = append(self.ins, p)
}

// InsertBefore places p immediately before pos, which must be in this
// block.
func (self *BasicBlock) InsertBefore(p *Instruction, pos *Instruction) {
    i := self.IndexOf(pos)
    if i < 0 {
        panic("ir: insertion point is not in block " + self.Label())
    }
    self.ins = append(self.ins, nil)
    copy(self.ins[i + 1:], self.ins[i:])
    self.ins[i] = p
    p.blk = self
}

// IndexOf returns the position of p within the block, or -1.
func (self *BasicBlock) IndexOf(p *Instruction) int {
    for i, v := range self.ins {
        if v == p {
            return i
        }
    }
    return -1
}

/* remove unlinks p from the instruction list */
func (self *BasicBlock) remove(p *Instruction) {
    if i := self.IndexOf(p); i >= 0 {
        self.ins = append(self.ins[:i], self.ins[i + 1:]...)
    }
}

// Preds returns the predecessor blocks, in function block order, one
// entry per incoming edge.
func (self *BasicBlock) Preds() []*BasicBlock {
    var ret []*BasicBlock
    for _, bb := range self.fn.Blocks {
        if tm := bb.Term(); tm != nil {
            for _, s := range tm.Successors() {
                if s == self {
                    ret = append(ret, bb)
                }
            }
        }
    }
    return ret
}

// Succs returns the successor blocks in terminator target order.
func (self *BasicBlock) Succs() []*BasicBlock {
    if tm := self.Term(); tm == nil {
        return nil
    } else {
        return tm.Successors()
    }
}

// Phis returns the leading phi instructions of the block.
func (self *BasicBlock) Phis() []*Instruction {
    var ret []*Instruction
    for _, p := range self.ins {
        if p.Opcode() != OpPhi {
            break
        }
        ret = append(ret, p)
    }
    return ret
}

func (self *BasicBlock) String() string {
    buf := make([]string, 0, len(self.ins) + 1)
    buf = append(buf, self.Label() + ":")
    for _, p := range self.ins {
        buf = append(buf, "    " + p.Dump())
    }
    return strings.Join(buf, "\n")
}
