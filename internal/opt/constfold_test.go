/*
 * Copyright 2022 ByteDance Inc.
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

package opt

import (
    `fmt`
    `math`
    `math/bits`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`

    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// folded evaluates `inst` on constants through a sweep and returns what
// reaches the output store.
func folded(t *testing.T, inst string, args ...interface{}) *ir.Operand {
    src := fmt.Sprintf("%%0 = %s", inst)
    for i, v := range args {
        if i == 0 {
            src += fmt.Sprintf(" %v", v)
        } else {
            src += fmt.Sprintf(", %v", v)
        }
    }

    /* fold it */
    env := newTestEnv(src + "\nStore@output 3, 0, %0").sweep()
    st := env.ctx.Func.Blocks[0].LastOp()
    require.Equal(t, 1, env.ctx.Func.Blocks[0].Len(), "%s", env.ctx.Func)
    require.Equal(t, ir.Store, st.Inst)
    require.Equal(t, ir.Constant, st.Source(2).Type, "%s", env.ctx.Func)
    return st.Source(2)
}

func TestConstFold_Integer(t *testing.T) {
    for i := 0; i < 200; i++ {
        x := gofakeit.Int32()
        y := gofakeit.Int32()
        ux := uint32(x)
        uy := uint32(y)
        require.Equal(t, x + y, folded(t, "Add", x, y).Value)
        require.Equal(t, x - y, folded(t, "Subtract", x, y).Value)
        require.Equal(t, x * y, folded(t, "Multiply", x, y).Value)
        require.Equal(t, x & y, folded(t, "BitwiseAnd", x, y).Value)
        require.Equal(t, x | y, folded(t, "BitwiseOr", x, y).Value)
        require.Equal(t, x ^ y, folded(t, "BitwiseExclusiveOr", x, y).Value)
        require.Equal(t, ^x, folded(t, "BitwiseNot", x).Value)
        require.Equal(t, int32(ux << (uy & 31)), folded(t, "ShiftLeft", x, y).Value)
        require.Equal(t, x >> (uy & 31), folded(t, "ShiftRightS32", x, y).Value)
        require.Equal(t, int32(ux >> (uy & 31)), folded(t, "ShiftRightU32", x, y).Value)
        require.Equal(t, int32(bits.OnesCount32(ux)), folded(t, "BitCount", x).Value)
        require.Equal(t, int32(bits.Reverse32(ux)), folded(t, "BitfieldReverse", x).Value)
        if y != 0 {
            require.Equal(t, x / y, folded(t, "Divide", x, y).Value)
        }
        if ux < uy {
            require.Equal(t, x, folded(t, "MinimumU32", x, y).Value)
            require.Equal(t, y, folded(t, "MaximumU32", x, y).Value)
        }
        if x < y {
            require.Equal(t, x, folded(t, "Minimum", x, y).Value)
            require.Equal(t, y, folded(t, "Maximum", x, y).Value)
            require.Equal(t, int32(-1), folded(t, "CompareLess", x, y).Value)
            require.Equal(t, int32(0), folded(t, "CompareGreaterOrEqual", x, y).Value)
        }
    }
}

func TestConstFold_EdgeCases(t *testing.T) {
    require.Equal(t, int32(0), folded(t, "Divide", 17, 0).Value)
    require.Equal(t, int32(math.MinInt32), folded(t, "Divide", math.MinInt32, -1).Value)
    require.Equal(t, int32(math.MinInt32), folded(t, "Absolute", math.MinInt32).Value)
    require.Equal(t, int32(2), folded(t, "ShiftLeft", 1, 33).Value)
    require.Equal(t, int32(-1), folded(t, "ShiftRightS32", -8, 35).Value)
    require.Equal(t, int32(-1), folded(t, "FindMSBU32", 0).Value)
    require.Equal(t, int32(31), folded(t, "FindMSBU32", -1).Value)
    require.Equal(t, int32(-1), folded(t, "CompareLessU32", 1, -1).Value)
    require.Equal(t, int32(0), folded(t, "CompareLess", 1, -1).Value)
    require.Equal(t, int32(5), folded(t, "Clamp", 9, 0, 5).Value)
    require.Equal(t, int32(-1), folded(t, "ClampU32", -1, 0, -1).Value)
    require.Equal(t, int32(7), folded(t, "ConditionalSelect", 1, 7, 9).Value)
    require.Equal(t, int32(-1), folded(t, "LogicalExclusiveOr", 0, 5).Value)
    require.Equal(t, int32(0), folded(t, "LogicalNot", 5).Value)
}

func TestConstFold_Bitfield(t *testing.T) {
    require.Equal(t, int32(0xb), folded(t, "BitfieldExtractU32", 0xabcd, 8, 4).Value)
    require.Equal(t, int32(-5), folded(t, "BitfieldExtractS32", 0xabcd, 8, 4).Value)
    require.Equal(t, int32(0), folded(t, "BitfieldExtractU32", -1, 8, 0).Value)
    require.Equal(t, int32(0xa5cd), folded(t, "BitfieldInsert", 0xabcd, 5, 8, 4).Value)
    require.Equal(t, int32(7), folded(t, "BitfieldInsert", 3, 7, 0, 32).Value)
    for i := 0; i < 200; i++ {
        v := gofakeit.Int32()
        off := int32(gofakeit.Number(0, 31))
        n := int32(gofakeit.Number(1, 32 - int(off)))
        ext := folded(t, "BitfieldExtractU32", v, off, n).Value
        require.Equal(t, v, folded(t, "BitfieldInsert", v, ext, off, n).Value)
    }
}

func TestConstFold_Float(t *testing.T) {
    require.Equal(t, float32(3.75), folded(t, "Add.fp32", "1.5f", "2.25f").AsFloat())
    require.Equal(t, float32(-0.5), folded(t, "Divide.fp32", "1f", "-2f").AsFloat())
    require.Equal(t, float32(2), folded(t, "Absolute.fp32", "-2f").AsFloat())
    require.Equal(t, float32(-3), folded(t, "Floor.fp32", "-2.5f").AsFloat())
    require.Equal(t, float32(1), folded(t, "Clamp.fp32", "4f", "0f", "1f").AsFloat())
    require.Equal(t, int32(-1), folded(t, "CompareLess.fp32", "1f", "2f").Value)
    require.Equal(t, int32(-1), folded(t, "IsNan.fp32", 0x7fc00000).Value)
    require.True(t, math.IsInf(float64(folded(t, "Divide.fp32", "1f", "0f").AsFloat()), 1))
    require.Equal(t, int32(-7), folded(t, "ConvertFP32ToS32", "-7.9f").Value)
    require.Equal(t, int32(math.MaxInt32), folded(t, "ConvertFP32ToS32", "1e20f").Value)
    require.Equal(t, int32(0), folded(t, "ConvertFP32ToU32", "-1f").Value)
    require.Equal(t, float32(4294967295), folded(t, "ConvertU32ToFP32", -1).AsFloat())
    require.Equal(t, float32(-1), folded(t, "ConvertS32ToFP32", -1).AsFloat())
}

func TestConstFold_NoFMA(t *testing.T) {
    env := newTestEnv(`
        %0 = FusedMultiplyAdd.fp32 2f, 3f, 4f
        Store@output 3, 0, %0
    `).sweep()
    require.Equal(t, 1, env.count(ir.FusedMultiplyAdd | ir.FP32))
}

func TestConstFold_Half(t *testing.T) {
    require.Equal(t, int32(-0x3fffc400), folded(t, "PackHalf2x16", "1f", "-2f").Value)
    require.Equal(t, int32(0x7c00), folded(t, "PackHalf2x16", "1e10f", "0f").Value)

    /* both halves of an unpack become constants */
    env := newTestEnv(`
        %0, %1 = UnpackHalf2x16 0x3c00bc00
        Store@output 3, 0, %0
        Store@output 3, 1, %1
    `).sweep()
    requireIR(t, env.ctx.Func, `
        Store@output 3, 0, 3212836864
        Store@output 3, 1, 1065353216
    `)
}

func TestConstFold_HalfRoundTrip(t *testing.T) {
    for h := 0; h < 0x10000; h++ {
        if h & 0x7c00 == 0x7c00 && h & 0x3ff != 0 {
            continue
        }
        require.Equal(t, uint16(h), floatToHalf(halfToFloat(uint16(h))), "%#04x", h)
    }
    /* ties go to even, anything below the midpoint rounds down */
    require.Equal(t, uint16(0x3c00), floatToHalf(1.0004883))
    require.Equal(t, uint16(0x3c02), floatToHalf(1.0014648))
    require.Equal(t, uint16(0x3c01), floatToHalf(1.0014647))
    require.Equal(t, uint16(0x7e00), floatToHalf(float32(math.NaN())))
    require.Equal(t, uint16(0x8000), floatToHalf(-1e-10))
}

func TestConstFold_ConstantBuffer(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@cbuf 3, 0, 2, 1
        %1 = Load@cbuf 3, 1, 2, 1
        %2 = Load@cbuf 40, 0, 2, 1
        Store@output 3, 0, %0
        Store@output 3, 1, %1
        Store@output 3, 2, %2
    `).sweep()
    requireIR(t, env.ctx.Func, `
        %1 = Load@cbuf 3, 1, 2, 1
        %2 = Load@cbuf 40, 0, 2, 1
        Store@output 3, 0, cb3[9]
        Store@output 3, 1, %1
        Store@output 3, 2, %2
    `)
    require.Equal(t, 1, env.ctx.Stats.Folded)
}
