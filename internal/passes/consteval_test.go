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
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

func evalBin(t *testing.T, op ir.Opcode, x int64, y int64) ir.Value {
    fn := ir.NewFunction("f")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    p := ib.Binary(op, ir.Int(ir.I64, x), ir.Int(ir.I64, y))
    ib.Ret(p)
    return NewEvaluator(nil).TryEvaluate(p)
}

func TestEval_Binary(t *testing.T) {
    require.Equal(t, int64(30), evalBin(t, ir.OpAdd, 10, 20).(*ir.ConstInt).V)
    require.Equal(t, int64(200), evalBin(t, ir.OpMul, 10, 20).(*ir.ConstInt).V)
    require.Equal(t, int64(-10), evalBin(t, ir.OpSub, 10, 20).(*ir.ConstInt).V)
    require.Equal(t, int64(3), evalBin(t, ir.OpSDiv, 10, 3).(*ir.ConstInt).V)
    require.Equal(t, int64(1), evalBin(t, ir.OpSRem, 10, 3).(*ir.ConstInt).V)
}

func TestEval_DivisionByZeroNotFolded(t *testing.T) {
    require.Nil(t, evalBin(t, ir.OpSDiv, 10, 0))
    require.Nil(t, evalBin(t, ir.OpUDiv, 10, 0))
    require.Nil(t, evalBin(t, ir.OpSRem, 10, 0))
    require.Nil(t, evalBin(t, ir.OpURem, 10, 0))
}

func TestEval_ShiftOutOfRangeNotFolded(t *testing.T) {
    require.Nil(t, evalBin(t, ir.OpShl, 1, 64))
    require.Nil(t, evalBin(t, ir.OpLShr, 1, 200))
    require.Equal(t, int64(8), evalBin(t, ir.OpShl, 1, 3).(*ir.ConstInt).V)
}

func TestEval_NoWrapOverflowNotFolded(t *testing.T) {
    fn := ir.NewFunction("f")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    p := ib.Add(ir.Int(ir.I8, 100), ir.Int(ir.I8, 100)).SetNoWrap(true)
    ib.Ret(p)
    require.Nil(t, NewEvaluator(nil).TryEvaluate(p))

    /* the plain wrapping add folds */
    p.SetNoWrap(false)
    require.Equal(t, int64(-56), NewEvaluator(nil).TryEvaluate(p).(*ir.ConstInt).V)
}

func TestEval_Compare(t *testing.T) {
    fn := ir.NewFunction("f")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    lt := ib.ICmp(ir.PredSLT, ir.Int(ir.I64, -1), ir.Int(ir.I64, 1))
    ult := ib.ICmp(ir.PredULT, ir.Int(ir.I64, -1), ir.Int(ir.I64, 1))
    ib.Ret(lt)

    ev := NewEvaluator(nil)
    require.Equal(t, int64(1), ev.TryEvaluate(lt).(*ir.ConstInt).V)

    /* -1 is the largest unsigned value */
    require.Equal(t, int64(0), ev.TryEvaluate(ult).(*ir.ConstInt).V)
}

func TestEval_Casts(t *testing.T) {
    fn := ir.NewFunction("f")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    ev := NewEvaluator(nil)

    tr := ib.Cast(ir.OpTrunc, ir.I8, ir.Int(ir.I64, 300))
    require.Equal(t, int64(44), ev.TryEvaluate(tr).(*ir.ConstInt).V)

    ze := ib.Cast(ir.OpZExt, ir.I64, ir.Int(ir.I8, -1))
    require.Equal(t, int64(255), ev.TryEvaluate(ze).(*ir.ConstInt).V)

    se := ib.Cast(ir.OpSExt, ir.I64, ir.Int(ir.I8, -1))
    require.Equal(t, int64(-1), ev.TryEvaluate(se).(*ir.ConstInt).V)

    /* out of range float to int traps, stays unfolded */
    of := ib.Cast(ir.OpFPToSI, ir.I8, ir.Float(ir.F64, 1000.0))
    require.Nil(t, ev.TryEvaluate(of))

    ok := ib.Cast(ir.OpFPToSI, ir.I32, ir.Float(ir.F64, -12.75))
    require.Equal(t, int64(-12), ev.TryEvaluate(ok).(*ir.ConstInt).V)
    ib.Ret(tr)
}

func TestEval_SelectPicksLiveArm(t *testing.T) {
    fn := ir.NewFunction("f", ir.I64)
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)

    /* the chosen arm does not have to be constant */
    sel := ib.Select(ir.Int(ir.I1, 1), fn.Args[0], ir.Int(ir.I64, 7))
    ib.Ret(sel)
    require.Same(t, ir.Value(fn.Args[0]), NewEvaluator(nil).TryEvaluate(sel))

    sel.SetOperand(0, ir.Int(ir.I1, 0))
    require.Equal(t, int64(7), NewEvaluator(nil).TryEvaluate(sel).(*ir.ConstInt).V)
}

func TestEval_GEP(t *testing.T) {
    fn := ir.NewFunction("f")
    bb := fn.NewBlock("entry")
    ib := ir.NewBuilder(bb)
    p := ib.GEP(ir.I64, ir.Pointer("table", 8), ir.Int(ir.I64, 3))
    ib.Ret(p)

    r := NewEvaluator(nil).TryEvaluate(p).(*ir.ConstPtr)
    require.Equal(t, "table", r.Sym)
    require.Equal(t, int64(8 + 3 * 8), r.Off)
}

func TestEval_Random(t *testing.T) {
    fk := gofakeit.New(42)
    ops := []ir.Opcode { ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor }

    for i := 0; i < 1000; i++ {
        x := fk.Int64()
        y := fk.Int64()
        op := ops[fk.Number(0, len(ops) - 1)]
        r := evalBin(t, op, x, y)
        require.NotNil(t, r)

        var want int64
        switch op {
            case ir.OpAdd : want = x + y
            case ir.OpSub : want = x - y
            case ir.OpMul : want = x * y
            case ir.OpAnd : want = x & y
            case ir.OpOr  : want = x | y
            case ir.OpXor : want = x ^ y
        }
        require.Equal(t, want, r.(*ir.ConstInt).V)
    }
}
