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

package passes

import (
    `fmt`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

/* execFn interprets an integer-only function on concrete arguments, so
 * tests can check that a transformation kept the program's meaning. It
 * covers exactly the opcodes the unrolling tests emit. */
func execFn(fn *ir.Function, args ...int64) int64 {
    env := make(map[ir.Value]int64)
    for i, a := range fn.Args {
        env[a] = args[i]
    }

    read := func(v ir.Value) int64 {
        switch p := v.(type) {
            case *ir.ConstInt : return p.V
            case *ir.Undef    : return 0
            default           : return env[v]
        }
    }

    var prev *ir.BasicBlock
    bb := fn.Entry()
    for steps := 0; steps < 1 << 20; steps++ {
        /* phis read their inputs simultaneously on block entry */
        phis := bb.Phis()
        vals := make([]int64, len(phis))
        for i, p := range phis {
            vals[i] = read(p.IncomingFor(prev))
        }
        for i, p := range phis {
            env[p] = vals[i]
        }

        for _, p := range bb.Instructions()[len(phis):] {
            switch p.Opcode() {
                case ir.OpAdd    : env[p] = read(p.Operand(0)) + read(p.Operand(1))
                case ir.OpSub    : env[p] = read(p.Operand(0)) - read(p.Operand(1))
                case ir.OpMul    : env[p] = read(p.Operand(0)) * read(p.Operand(1))
                case ir.OpAnd    : env[p] = read(p.Operand(0)) & read(p.Operand(1))
                case ir.OpOr     : env[p] = read(p.Operand(0)) | read(p.Operand(1))
                case ir.OpXor    : env[p] = read(p.Operand(0)) ^ read(p.Operand(1))

                case ir.OpICmp: {
                    if evalIntPredicate(p.Predicate(), read(p.Operand(0)), read(p.Operand(1))) {
                        env[p] = 1
                    } else {
                        env[p] = 0
                    }
                }

                case ir.OpSelect: {
                    if read(p.Operand(0)) != 0 {
                        env[p] = read(p.Operand(1))
                    } else {
                        env[p] = read(p.Operand(2))
                    }
                }

                case ir.OpBr: {
                    prev, bb = bb, p.Target(0)
                }

                case ir.OpCondBr: {
                    if read(p.Operand(0)) != 0 {
                        prev, bb = bb, p.Target(0)
                    } else {
                        prev, bb = bb, p.Target(1)
                    }
                }

                case ir.OpRet: {
                    if p.NumOperands() == 0 {
                        return 0
                    }
                    return read(p.Operand(0))
                }

                default: {
                    panic(fmt.Sprintf("execFn: unsupported opcode %s", p.Opcode()))
                }
            }
            if p.IsTerminator() {
                break
            }
        }
    }
    panic("execFn: step limit exhausted, likely a broken loop")
}
