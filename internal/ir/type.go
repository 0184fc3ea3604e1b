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

type TypeKind uint8

const (
    K_void TypeKind = iota
    K_int
    K_float
    K_ptr
)

// Type is an interned type descriptor. The package exposes one instance
// per type, so type identity is pointer identity.
type Type struct {
    kind TypeKind
    bits uint16
    name string
}

var (
    Void = &Type { kind: K_void, bits: 0,  name: "void" }
    I1   = &Type { kind: K_int,  bits: 1,  name: "i1" }
    I8   = &Type { kind: K_int,  bits: 8,  name: "i8" }
    I16  = &Type { kind: K_int,  bits: 16, name: "i16" }
    I32  = &Type { kind: K_int,  bits: 32, name: "i32" }
    I64  = &Type { kind: K_int,  bits: 64, name: "i64" }
    F32  = &Type { kind: K_float, bits: 32, name: "f32" }
    F64  = &Type { kind: K_float, bits: 64, name: "f64" }
    Ptr  = &Type { kind: K_ptr,  bits: 64, name: "ptr" }
)

func (self *Type) Kind() TypeKind {
    return self.kind
}

func (self *Type) Bits() int {
    return int(self.bits)
}

func (self *Type) IsVoid() bool {
    return self.kind == K_void
}

func (self *Type) IsInt() bool {
    return self.kind == K_int
}

func (self *Type) IsFloat() bool {
    return self.kind == K_float
}

func (self *Type) IsPtr() bool {
    return self.kind == K_ptr
}

func (self *Type) String() string {
    return self.name
}

// IntType returns the interned integer type of the given width, or nil if
// no such type exists.
func IntType(bits int) *Type {
    switch bits {
        case 1  : return I1
        case 8  : return I8
        case 16 : return I16
        case 32 : return I32
        case 64 : return I64
        default : return nil
    }
}
