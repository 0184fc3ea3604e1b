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
    `github.com/oleiade/lane`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

// DomTreeIter walks the dominator tree in preorder, so every block is
// visited after all of its dominators. Children are pushed in reverse
// idom-list order, which keeps the walk deterministic.
type DomTreeIter struct {
    t *DominatorTree
    b *ir.BasicBlock
    s *lane.Stack
}

func newDomTreeIter(dt *DominatorTree) *DomTreeIter {
    s := lane.NewStack()
    s.Push(dt.Root)
    return &DomTreeIter {
        t: dt,
        s: s,
    }
}

func (self *DomTreeIter) Next() bool {
    if self.s.Empty() {
        self.b = nil
        return false
    }

    /* pop the next block, then queue its dominator-tree children */
    self.b = self.s.Pop().(*ir.BasicBlock)
    children := self.t.DominatorOf[self.b.Id]
    for i := len(children) - 1; i >= 0; i-- {
        self.s.Push(children[i])
    }
    return true
}

func (self *DomTreeIter) Block() *ir.BasicBlock {
    return self.b
}

func (self *DomTreeIter) ForEach(action func(bb *ir.BasicBlock)) {
    for self.Next() {
        action(self.b)
    }
}

// Preorder starts a fresh dominator-tree preorder walk.
func (self *DominatorTree) Preorder() *DomTreeIter {
    return newDomTreeIter(self)
}
