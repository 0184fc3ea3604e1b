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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package analysis

import (
    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

type _LtNode struct {
    semi     int
    node     *ir.BasicBlock
    dom      *_LtNode
    label    *_LtNode
    parent   *_LtNode
    ancestor *_LtNode
    pred     []*_LtNode
    bucket   map[*_LtNode]struct{}
}

type _LengauerTarjan struct {
    nodes  []*_LtNode
    vertex map[int]int
}

func newLengauerTarjan() *_LengauerTarjan {
    return &_LengauerTarjan {
        vertex: make(map[int]int),
    }
}

func (self *_LengauerTarjan) dfs(bb *ir.BasicBlock) {
    i := len(self.nodes)
    self.vertex[bb.Id] = i

    /* create a new node */
    p := &_LtNode {
        semi   : i,
        node   : bb,
        bucket : make(map[*_LtNode]struct{}),
    }

    /* add to node list */
    p.label = p
    self.nodes = append(self.nodes, p)

    /* traverse the successors */
    for _, w := range bb.Succs() {
        idx, ok := self.vertex[w.Id]

        /* not visited yet */
        if !ok {
            self.dfs(w)
            idx = self.vertex[w.Id]
            self.nodes[idx].parent = p
        }

        /* add predecessors */
        q := self.nodes[idx]
        q.pred = append(q.pred, p)
    }
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
    if p.ancestor == nil {
        return p
    } else {
        self.compress(p)
        return p.label
    }
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
    q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
    if p.ancestor.ancestor != nil {
        self.compress(p.ancestor)
        if p.label.semi > p.ancestor.label.semi { p.label = p.ancestor.label }
        p.ancestor = p.ancestor.ancestor
    }
}

// DominatorTree is the block-level dominance relation of one function.
// Block A dominates block B iff every path from the entry to B passes
// through A. Queries on blocks unreachable from the entry return false.
type DominatorTree struct {
    Root        *ir.BasicBlock
    DominatedBy map[int]*ir.BasicBlock
    DominatorOf map[int][]*ir.BasicBlock

    /* preorder in/out intervals for O(1) dominance queries */
    tin  map[int]int
    tout map[int]int
}

func minInt(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

// BuildDominatorTree computes the dominator tree of fn with the
// Lengauer-Tarjan algorithm.
func BuildDominatorTree(fn *ir.Function) *DominatorTree {
    bb := fn.Entry()
    domby := make(map[int]*ir.BasicBlock)
    domof := make(map[int][]*ir.BasicBlock)

    /* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
     * from 1 to n as they are reached during the search. Initialize the variables used
     * in succeeding steps. */
    lt := newLengauerTarjan()
    lt.dfs(bb)

    /* perform Step 2 and Step 3 simultaneously */
    for i := len(lt.nodes) - 1; i > 0; i-- {
        p := lt.nodes[i]
        q := (*_LtNode)(nil)

        /* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
         * Carry out the computation vertex by vertex in decreasing order by number. */
        for _, v := range p.pred {
            q = lt.eval(v)
            p.semi = minInt(p.semi, q.semi)
        }

        /* link the ancestor */
        lt.link(p.parent, p)
        lt.nodes[p.semi].bucket[p] = struct{}{}

        /* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
        for v := range p.parent.bucket {
            if q = lt.eval(v); q.semi < v.semi {
                v.dom = q
            } else {
                v.dom = p.parent
            }
        }

        /* clear the bucket */
        for v := range p.parent.bucket {
            delete(p.parent.bucket, v)
        }
    }

    /* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
     * computation vertex by vertex in increasing order by number. */
    for _, p := range lt.nodes[1:] {
        if p.dom.node.Id != lt.nodes[p.semi].node.Id {
            p.dom = p.dom.dom
        }
    }

    /* map the dominator relations */
    for _, p := range lt.nodes[1:] {
        domby[p.node.Id] = p.dom.node
        domof[p.dom.node.Id] = append(domof[p.dom.node.Id], p.node)
    }

    /* construct the dominator tree */
    dt := &DominatorTree {
        Root        : bb,
        DominatorOf : domof,
        DominatedBy : domby,
    }

    /* number the tree for constant-time queries */
    dt.renumber()
    return dt
}

/* renumber assigns preorder entry / exit timestamps over the tree */
func (self *DominatorTree) renumber() {
    t := 0
    self.tin = make(map[int]int, len(self.DominatedBy) + 1)
    self.tout = make(map[int]int, len(self.DominatedBy) + 1)

    /* children visited in idom insertion order */
    var visit func(bb *ir.BasicBlock)
    visit = func(bb *ir.BasicBlock) {
        self.tin[bb.Id] = t
        t++
        for _, p := range self.DominatorOf[bb.Id] {
            visit(p)
        }
        self.tout[bb.Id] = t
        t++
    }
    visit(self.Root)
}

// Idom returns the immediate dominator of bb, nil for the root.
func (self *DominatorTree) Idom(bb *ir.BasicBlock) *ir.BasicBlock {
    return self.DominatedBy[bb.Id]
}

// Dominates reports whether a dominates b. Every block dominates itself.
func (self *DominatorTree) Dominates(a *ir.BasicBlock, b *ir.BasicBlock) bool {
    ia, oka := self.tin[a.Id]
    ib, okb := self.tin[b.Id]
    if !oka || !okb {
        return false
    }
    return ia <= ib && self.tout[b.Id] <= self.tout[a.Id]
}

// DominatesInst reports whether instruction a strictly dominates
// instruction b: either they sit in different blocks and a's block
// dominates b's, or they share a block and a comes first.
func (self *DominatorTree) DominatesInst(a *ir.Instruction, b *ir.Instruction) bool {
    if a == b {
        return false
    } else if a.Parent() == b.Parent() {
        return a.Parent().IndexOf(a) < b.Parent().IndexOf(b)
    } else {
        return self.Dominates(a.Parent(), b.Parent())
    }
}
