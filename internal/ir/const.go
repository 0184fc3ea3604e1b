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

// ConstInt is an integer literal of any integer width.
type ConstInt struct {
    _UserList
    Ty *Type
    V  int64
}

func Int(ty *Type, v int64) *ConstInt {
    if !ty.IsInt() {
        panic("ir: integer constant of non-integer type " + ty.String())
    } else {
        return &ConstInt { Ty: ty, V: truncint(v, ty) }
    }
}

func (self *ConstInt) Type() *Type {
    return self.Ty
}

func (self *ConstInt) Name() string {
    return fmt.Sprintf("%d", self.V)
}

func (self *ConstInt) String() string {
    return fmt.Sprintf("$%d", self.V)
}

// ConstFloat is a floating point literal.
type ConstFloat struct {
    _UserList
    Ty *Type
    V  float64
}

func Float(ty *Type, v float64) *ConstFloat {
    if !ty.IsFloat() {
        panic("ir: float constant of non-float type " + ty.String())
    } else {
        return &ConstFloat { Ty: ty, V: v }
    }
}

func (self *ConstFloat) Type() *Type {
    return self.Ty
}

func (self *ConstFloat) Name() string {
    return fmt.Sprintf("%g", self.V)
}

func (self *ConstFloat) String() string {
    return fmt.Sprintf("$%g", self.V)
}

// ConstPtr is a pointer literal: a symbolic base plus a byte offset. The
// nil pointer is the empty base with offset zero.
type ConstPtr struct {
    _UserList
    Sym string
    Off int64
}

func Pointer(sym string, off int64) *ConstPtr {
    return &ConstPtr { Sym: sym, Off: off }
}

func Nullptr() *ConstPtr {
    return &ConstPtr{}
}

func (self *ConstPtr) Type() *Type {
    return Ptr
}

func (self *ConstPtr) Name() string {
    return self.String()
}

func (self *ConstPtr) String() string {
    if self.Sym == "" && self.Off == 0 {
        return "null"
    } else if self.Off == 0 {
        return "@" + self.Sym
    } else {
        return fmt.Sprintf("@%s+%d", self.Sym, self.Off)
    }
}

// IsConst reports whether v is a compile-time constant literal.
func IsConst(v Value) bool {
    switch v.(type) {
        case *ConstInt   : return true
        case *ConstFloat : return true
        case *ConstPtr   : return true
        default          : return false
    }
}

/* truncint truncates v to the width of ty, sign extending back to 64 bits */
func truncint(v int64, ty *Type) int64 {
    switch ty.bits {
        case 1  : return v & 1
        case 8  : return int64(int8(v))
        case 16 : return int64(int16(v))
        case 32 : return int64(int32(v))
        default : return v
    }
}
