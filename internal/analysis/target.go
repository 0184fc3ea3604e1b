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
    `github.com/klauspost/cpuid/v2`
)

// Target carries the host CPU properties relevant to unroll tuning.
type Target struct {
    CacheLine   int
    VectorBits  int
    LogicalCPUs int
}

// NativeTarget probes the host CPU. Values fall back to conservative
// defaults when the probe reports nothing.
func NativeTarget() Target {
    t := Target {
        CacheLine   : cpuid.CPU.CacheLine,
        LogicalCPUs : cpuid.CPU.LogicalCores,
    }

    /* widest usable vector unit */
    switch {
        case cpuid.CPU.Supports(cpuid.AVX512F) : t.VectorBits = 512
        case cpuid.CPU.Supports(cpuid.AVX2)    : t.VectorBits = 256
        case cpuid.CPU.Supports(cpuid.SSE2)    : t.VectorBits = 128
        default                                : t.VectorBits = 64
    }

    /* cache line size may be unknown under emulation */
    if t.CacheLine <= 0 {
        t.CacheLine = 64
    }
    return t
}

// PreferredUnrollFactor derives a partial unroll factor from the vector
// width, assuming 64-bit elements: one unrolled iteration per lane, and
// never less than 2.
func (self Target) PreferredUnrollFactor() uint {
    if f := uint(self.VectorBits / 64); f >= 2 {
        return f
    } else {
        return 2
    }
}
