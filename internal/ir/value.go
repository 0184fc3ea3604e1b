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

// Value is anything an instruction can use as an operand: a function
// argument, a constant, or the result of another instruction. Two values
// are identical iff they are the same object.
//
// Every value keeps an ordered list of its users, one entry per use edge,
// so a value used twice by the same instruction appears twice. The list
// order follows use creation order, which keeps every walk over it
// deterministic.
type Value interface {
    fmt.Stringer
    Type() *Type
    Name() string
    Users() []*Instruction
    addUser(p *Instruction)
    delUser(p *Instruction)
}

type _UserList struct {
    users []*Instruction
}

func (self *_UserList) Users() []*Instruction {
    return self.users
}

func (self *_UserList) addUser(p *Instruction) {
    self.users = append(self.users, p)
}

func (self *_UserList) delUser(p *Instruction) {
    for i, u := range self.users {
        if u == p {
            self.users = append(self.users[:i], self.users[i + 1:]...)
            return
        }
    }
}

// Argument is a formal parameter of a function.
type Argument struct {
    _UserList
    Idx  int
    Ty   *Type
    Id   string
}

func (self *Argument) Type() *Type {
    return self.Ty
}

func (self *Argument) Name() string {
    return self.Id
}

func (self *Argument) String() string {
    return "%" + self.Id
}

// Undef is the undefined value of a given type.
type Undef struct {
    _UserList
    Ty *Type
}

func (self *Undef) Type() *Type {
    return self.Ty
}

func (self *Undef) Name() string {
    return "undef"
}

func (self *Undef) String() string {
    return "undef"
}

// ReplaceAllUsesWith redirects every use of v to w. The def-use mirror is
// maintained on both sides, so the operation is O(uses).
func ReplaceAllUsesWith(v Value, w Value) {
    if v == w {
        return
    }

    /* snapshot the user list, operand rewrites mutate it */
    users := v.Users()
    snap := make([]*Instruction, len(users))
    copy(snap, users)

    /* rewrite every use edge; a user with several edges to v shows up
     * once per edge, replaceUsesOfWith clears them all on first visit */
    for _, u := range snap {
        u.replaceUsesOfWith(v, w)
    }
}
