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

// DataLayout captures the target properties the constant evaluator needs:
// pointer width and ABI type sizes. The layout is little-endian.
type DataLayout struct {
    PtrBits int
}

// DefaultDataLayout is a 64-bit little-endian layout.
func DefaultDataLayout() *DataLayout {
    return &DataLayout { PtrBits: 64 }
}

// SizeOf returns the ABI byte size of ty. The i1 type occupies one byte.
func (self *DataLayout) SizeOf(ty *Type) int64 {
    switch ty.kind {
        case K_void  : return 0
        case K_ptr   : return int64(self.PtrBits / 8)
        default      : return int64((ty.Bits() + 7) / 8)
    }
}
