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

// Function is the unit of transformation: a name, a list of typed
// arguments and an ordered list of basic blocks, the first of which is
// the entry block.
type Function struct {
    Name   string
    Args   []*Argument
    Blocks []*BasicBlock

    /* fresh name and block id counters */
    nextid int
    nextbb int
}

func NewFunction(name string, args ...*Type) *Function {
    fn := &Function { Name: name }
    for i, ty := range args {
        fn.Args = append(fn.Args, &Argument {
            Idx : i,
            Ty  : ty,
            Id  : fmt.Sprintf("arg%d", i),
        })
    }
    return fn
}

func (self *Function) Entry() *BasicBlock {
    if len(self.Blocks) == 0 {
        return nil
    } else {
        return self.Blocks[0]
    }
}

// NewBlock appends a fresh empty block. The label may be empty, in which
// case the block renders with its numeric id.
func (self *Function) NewBlock(label string) *BasicBlock {
    bb := &BasicBlock {
        Id    : self.nextbb,
        label : label,
        fn    : self,
    }
    self.nextbb++
    self.Blocks = append(self.Blocks, bb)
    return bb
}

// RemoveBlock unlinks bb from the function.
func (self *Function) RemoveBlock(bb *BasicBlock) {
    for i, p := range self.Blocks {
        if p == bb {
            self.Blocks = append(self.Blocks[:i], self.Blocks[i + 1:]...)
            return
        }
    }
}

// EraseBlock detaches every instruction of bb and unlinks the block.
// Any remaining uses of the block's values from outside the block are a
// contract violation the verifier will catch; uses among the block's own
// instructions are dropped along with it.
func (self *Function) EraseBlock(bb *BasicBlock) {
    for _, p := range bb.ins {
        for _, v := range p.operands {
            v.delUser(p)
        }
        p.operands = p.operands[:0]
        p.incoming = p.incoming[:0]
        p.blk = nil
    }
    bb.ins = nil
    self.RemoveBlock(bb)
}

// Autoname assigns the next sequential result name to p if it has none.
// Builders do this on emit; transformations inserting detached clones
// call it directly.
func (self *Function) Autoname(p *Instruction) {
    self.nameinstr(p)
}

/* nameinstr assigns the next sequential value name */
func (self *Function) nameinstr(p *Instruction) {
    if p.id == "" && !p.ty.IsVoid() {
        p.id = fmt.Sprintf("v%d", self.nextid)
        self.nextid++
    }
}

// NumInstructions counts every instruction in the function.
func (self *Function) NumInstructions() int {
    n := 0
    for _, bb := range self.Blocks {
        n += len(bb.ins)
    }
    return n
}

func (self *Function) String() string {
    args := make([]string, 0, len(self.Args))
    for _, p := range self.Args {
        args = append(args, p.Ty.String() + " " + p.String())
    }
    buf := make([]string, 0, len(self.Blocks) + 2)
    buf = append(buf, fmt.Sprintf("fn @%s(%s) {", self.Name, strings.Join(args, ", ")))
    for _, bb := range self.Blocks {
        buf = append(buf, bb.String())
    }
    buf = append(buf, "}")
    return strings.Join(buf, "\n")
}
