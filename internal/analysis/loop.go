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
    `sort`

    `github.com/oleiade/lane`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

// Loop is a natural loop: a header reached by at least one back edge,
// plus every block that can reach the back edge without passing through
// the header.
type Loop struct {
    Header   *ir.BasicBlock
    Latch    *ir.BasicBlock // unique back-edge source, nil if several
    Parent   *Loop
    Subloops []*Loop

    /* body blocks, in function block order */
    blocks map[int]struct{}
    order  []*ir.BasicBlock
}

func (self *Loop) Contains(bb *ir.BasicBlock) bool {
    _, ok := self.blocks[bb.Id]
    return ok
}

func (self *Loop) Blocks() []*ir.BasicBlock {
    return self.order
}

func (self *Loop) NumBlocks() int {
    return len(self.order)
}

// Preheader returns the unique predecessor of the header from outside
// the loop, or nil when the header has zero or several outside edges.
func (self *Loop) Preheader() *ir.BasicBlock {
    var ph *ir.BasicBlock
    for _, p := range self.Header.Preds() {
        if !self.Contains(p) {
            if ph != nil {
                return nil
            }
            ph = p
        }
    }
    return ph
}

// Exits returns the blocks outside the loop that have a predecessor
// inside it, in function block order without duplicates.
func (self *Loop) Exits() []*ir.BasicBlock {
    var ret []*ir.BasicBlock
    seen := make(map[int]struct{})
    for _, bb := range self.order {
        for _, s := range bb.Succs() {
            if !self.Contains(s) {
                if _, ok := seen[s.Id]; !ok {
                    seen[s.Id] = struct{}{}
                    ret = append(ret, s)
                }
            }
        }
    }
    return ret
}

// Canonical reports whether the loop has both a preheader and a unique
// latch.
func (self *Loop) Canonical() bool {
    return self.Latch != nil && self.Preheader() != nil
}

// LoopInfo is the loop nesting forest of one function.
type LoopInfo struct {
    loops   []*Loop          // all loops, in back-edge discovery order
    toplvl  []*Loop
    byblock map[int]*Loop    // innermost loop of each block
}

// BuildLoopInfo discovers the natural loops of fn using dt for the
// back-edge test.
func BuildLoopInfo(fn *ir.Function, dt *DominatorTree) *LoopInfo {
    headers := make(map[int]*Loop)
    order := make([]*Loop, 0, 4)

    /* find the back edges, in function block order */
    for _, bb := range fn.Blocks {
        for _, s := range bb.Succs() {
            if dt.Dominates(s, bb) {
                lp := headers[s.Id]

                /* first back edge to this header creates the loop */
                if lp == nil {
                    lp = &Loop {
                        Header : s,
                        Latch  : bb,
                        blocks : map[int]struct{} { s.Id: {} },
                    }
                    headers[s.Id] = lp
                    order = append(order, lp)
                } else {
                    lp.Latch = nil
                }

                /* walk the body backwards from the latch */
                collectLoopBody(lp, bb)
            }
        }
    }

    /* materialize the body block order */
    for _, lp := range order {
        for _, bb := range fn.Blocks {
            if _, ok := lp.blocks[bb.Id]; ok {
                lp.order = append(lp.order, bb)
            }
        }
    }

    /* nest the loops: the parent is the smallest strictly larger loop
     * containing the header */
    nested := make([]*Loop, len(order))
    copy(nested, order)
    sort.SliceStable(nested, func(i int, j int) bool {
        return len(nested[i].blocks) < len(nested[j].blocks)
    })
    for i, lp := range nested {
        for _, up := range nested[i + 1:] {
            if up != lp && up.Contains(lp.Header) && len(up.blocks) > len(lp.blocks) {
                lp.Parent = up
                up.Subloops = append(up.Subloops, lp)
                break
            }
        }
    }

    /* innermost loop of each block */
    byblock := make(map[int]*Loop)
    for _, lp := range nested {
        for id := range lp.blocks {
            if _, ok := byblock[id]; !ok {
                byblock[id] = lp
            }
        }
    }

    /* top level loops keep discovery order */
    li := &LoopInfo { loops: order, byblock: byblock }
    for _, lp := range order {
        if lp.Parent == nil {
            li.toplvl = append(li.toplvl, lp)
        }
    }
    return li
}

/* collectLoopBody adds every block that reaches the latch without going
 * through the header */
func collectLoopBody(lp *Loop, latch *ir.BasicBlock) {
    q := lane.NewQueue()
    if _, ok := lp.blocks[latch.Id]; !ok {
        lp.blocks[latch.Id] = struct{}{}
        q.Enqueue(latch)
    }
    for !q.Empty() {
        bb := q.Dequeue().(*ir.BasicBlock)
        for _, p := range bb.Preds() {
            if _, ok := lp.blocks[p.Id]; !ok {
                lp.blocks[p.Id] = struct{}{}
                q.Enqueue(p)
            }
        }
    }
}

func (self *LoopInfo) Empty() bool {
    return len(self.loops) == 0
}

func (self *LoopInfo) TopLevel() []*Loop {
    return self.toplvl
}

func (self *LoopInfo) IsHeader(bb *ir.BasicBlock) bool {
    lp := self.byblock[bb.Id]
    return lp != nil && lp.Header == bb
}

// LoopFor returns the innermost loop containing bb, or nil.
func (self *LoopInfo) LoopFor(bb *ir.BasicBlock) *Loop {
    return self.byblock[bb.Id]
}

// PreorderLoops lists every loop outer-first.
func (self *LoopInfo) PreorderLoops() []*Loop {
    var ret []*Loop
    var walk func(lp *Loop)
    walk = func(lp *Loop) {
        ret = append(ret, lp)
        for _, p := range lp.Subloops {
            walk(p)
        }
    }
    for _, lp := range self.toplvl {
        walk(lp)
    }
    return ret
}

// PostorderLoops lists every loop innermost-first, so a transformation
// that consumes the list sees inner loops before their parents.
func (self *LoopInfo) PostorderLoops() []*Loop {
    var ret []*Loop
    var walk func(lp *Loop)
    walk = func(lp *Loop) {
        for _, p := range lp.Subloops {
            walk(p)
        }
        ret = append(ret, lp)
    }
    for _, lp := range self.toplvl {
        walk(lp)
    }
    return ret
}
