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
)

// Verify checks the structural IR invariants: every block is terminated,
// no operand refers to an erased instruction, and every use edge is
// mirrored in the used value's user list. Malformed IR panics; a
// function that makes it past construction is expected to stay valid
// through every transformation.
func Verify(fn *Function) {
    seen := make(map[*Instruction]struct{}, fn.NumInstructions())

    /* collect definition sites */
    for _, bb := range fn.Blocks {
        if bb.Term() == nil {
            panic(fmt.Sprintf("ir: block %s of @%s has no terminator", bb.Label(), fn.Name))
        }
        for _, p := range bb.ins {
            if p.blk != bb {
                panic(fmt.Sprintf("ir: instruction %s has a stale parent link", p.Dump()))
            }
            seen[p] = struct{}{}
        }
    }

    /* check the def-use mirror in both directions */
    for _, bb := range fn.Blocks {
        for _, p := range bb.ins {
            for _, v := range p.operands {
                if q, ok := v.(*Instruction); ok {
                    if _, ok := seen[q]; !ok {
                        panic(fmt.Sprintf("ir: %s uses erased value %%%s", p.Dump(), q.id))
                    }
                }
                if countedge(v.Users(), p) < countoperand(p, v) {
                    panic(fmt.Sprintf("ir: missing use edge from %s to %%%s", v, p.id))
                }
            }
            for _, u := range p.Users() {
                if countoperand(u, p) == 0 {
                    panic(fmt.Sprintf("ir: dangling user edge from %%%s", p.id))
                }
            }
        }
    }
}

func countedge(users []*Instruction, p *Instruction) int {
    n := 0
    for _, u := range users {
        if u == p {
            n++
        }
    }
    return n
}

func countoperand(p *Instruction, v Value) int {
    n := 0
    for _, op := range p.operands {
        if op == v {
            n++
        }
    }
    return n
}
