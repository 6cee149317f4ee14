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
    `math`
    `math/bits`

    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

const (
    _True  int32 = -1
    _False int32 = 0
)

// ConstFold replaces operations whose sources are all constants with a copy
// of the computed value. Integer arithmetic wraps, shift counts are taken
// modulo 32 and integer division by zero yields zero.
type ConstFold struct{}

func (ConstFold) fold(ctx *Context, op *ir.Operation) bool {
    if !allSourcesConstant(op) {
        return false
    }

    /* integer and bitwise operations */
    switch op.Inst {
        case ir.Add                      : return foldBinary(op, func(x, y int32) int32 { return x + y })
        case ir.Subtract                 : return foldBinary(op, func(x, y int32) int32 { return x - y })
        case ir.Multiply                 : return foldBinary(op, func(x, y int32) int32 { return x * y })
        case ir.Divide                   : return foldBinary(op, divide)
        case ir.Negate                   : return foldUnary(op, func(x int32) int32 { return -x })
        case ir.Absolute                 : return foldUnary(op, absolute)
        case ir.Minimum                  : return foldBinary(op, minS32)
        case ir.Maximum                  : return foldBinary(op, maxS32)
        case ir.MinimumU32               : return foldBinary(op, minU32)
        case ir.MaximumU32               : return foldBinary(op, maxU32)
        case ir.Clamp                    : return foldTernary(op, func(x, y, z int32) int32 { return minS32(maxS32(x, y), z) })
        case ir.ClampU32                 : return foldTernary(op, func(x, y, z int32) int32 { return minU32(maxU32(x, y), z) })
        case ir.BitwiseAnd               : return foldBinary(op, func(x, y int32) int32 { return x & y })
        case ir.BitwiseOr                : return foldBinary(op, func(x, y int32) int32 { return x | y })
        case ir.BitwiseExclusiveOr       : return foldBinary(op, func(x, y int32) int32 { return x ^ y })
        case ir.BitwiseNot               : return foldUnary(op, func(x int32) int32 { return ^x })
        case ir.ShiftLeft                : return foldBinary(op, func(x, y int32) int32 { return int32(uint32(x) << (uint32(y) & 31)) })
        case ir.ShiftRightS32            : return foldBinary(op, func(x, y int32) int32 { return x >> (uint32(y) & 31) })
        case ir.ShiftRightU32            : return foldBinary(op, func(x, y int32) int32 { return int32(uint32(x) >> (uint32(y) & 31)) })
        case ir.BitCount                 : return foldUnary(op, func(x int32) int32 { return int32(bits.OnesCount32(uint32(x))) })
        case ir.BitfieldReverse          : return foldUnary(op, func(x int32) int32 { return int32(bits.Reverse32(uint32(x))) })
        case ir.FindMSBU32               : return foldUnary(op, func(x int32) int32 { return int32(31 - bits.LeadingZeros32(uint32(x))) })
        case ir.BitfieldExtractS32       : return foldTernary(op, bitfieldExtractS32)
        case ir.BitfieldExtractU32       : return foldTernary(op, bitfieldExtractU32)
        case ir.BitfieldInsert           : return foldQuaternary(op, bitfieldInsert)
        case ir.ConditionalSelect        : return foldTernary(op, func(c, x, y int32) int32 { if c != 0 { return x } else { return y } })
        case ir.LogicalAnd               : return foldBinary(op, func(x, y int32) int32 { return boolean(x != 0 && y != 0) })
        case ir.LogicalOr                : return foldBinary(op, func(x, y int32) int32 { return boolean(x != 0 || y != 0) })
        case ir.LogicalExclusiveOr       : return foldBinary(op, func(x, y int32) int32 { return boolean((x != 0) != (y != 0)) })
        case ir.LogicalNot               : return foldUnary(op, func(x int32) int32 { return boolean(x == 0) })
    }

    /* integer comparisons */
    switch op.Inst {
        case ir.CompareEqual             : return foldCompare(op, func(x, y int32) bool { return x == y })
        case ir.CompareNotEqual          : return foldCompare(op, func(x, y int32) bool { return x != y })
        case ir.CompareLess              : return foldCompare(op, func(x, y int32) bool { return x < y })
        case ir.CompareLessOrEqual       : return foldCompare(op, func(x, y int32) bool { return x <= y })
        case ir.CompareGreater           : return foldCompare(op, func(x, y int32) bool { return x > y })
        case ir.CompareGreaterOrEqual    : return foldCompare(op, func(x, y int32) bool { return x >= y })
        case ir.CompareLessU32           : return foldCompare(op, func(x, y int32) bool { return uint32(x) < uint32(y) })
        case ir.CompareLessOrEqualU32    : return foldCompare(op, func(x, y int32) bool { return uint32(x) <= uint32(y) })
        case ir.CompareGreaterU32        : return foldCompare(op, func(x, y int32) bool { return uint32(x) > uint32(y) })
        case ir.CompareGreaterOrEqualU32 : return foldCompare(op, func(x, y int32) bool { return uint32(x) >= uint32(y) })
    }

    /* conversions and packing */
    switch op.Inst {
        case ir.ConvertFP32ToS32         : return foldUnary(op, func(x int32) int32 { return f32ToS32(f32(x)) })
        case ir.ConvertFP32ToU32         : return foldUnary(op, func(x int32) int32 { return int32(f32ToU32(f32(x))) })
        case ir.ConvertS32ToFP32         : return foldUnary(op, func(x int32) int32 { return i32(float32(x)) })
        case ir.ConvertU32ToFP32         : return foldUnary(op, func(x int32) int32 { return i32(float32(uint32(x))) })
        case ir.PackHalf2x16             : return foldBinary(op, packHalf2x16)
        case ir.UnpackHalf2x16           : return foldUnpackHalf2x16(op)
    }

    /* 32-bit floating point */
    switch op.Inst {
        case ir.FP32 | ir.Add                   : return foldFPBinary(op, func(x, y float32) float32 { return float32(x + y) })
        case ir.FP32 | ir.Subtract              : return foldFPBinary(op, func(x, y float32) float32 { return float32(x - y) })
        case ir.FP32 | ir.Multiply              : return foldFPBinary(op, func(x, y float32) float32 { return float32(x * y) })
        case ir.FP32 | ir.Divide                : return foldFPBinary(op, func(x, y float32) float32 { return float32(x / y) })
        case ir.FP32 | ir.Negate                : return foldFPUnary(op, func(x float32) float32 { return -x })
        case ir.FP32 | ir.Absolute              : return foldFPUnary(op, func(x float32) float32 { return f32(i32(x) & math.MaxInt32) })
        case ir.FP32 | ir.Minimum               : return foldFPBinary(op, func(x, y float32) float32 { return float32(math.Min(float64(x), float64(y))) })
        case ir.FP32 | ir.Maximum               : return foldFPBinary(op, func(x, y float32) float32 { return float32(math.Max(float64(x), float64(y))) })
        case ir.FP32 | ir.Clamp                 : return foldFPTernary(op, clampF32)
        case ir.FP32 | ir.Floor                 : return foldFPUnary(op, func(x float32) float32 { return float32(math.Floor(float64(x))) })
        case ir.FP32 | ir.Ceiling               : return foldFPUnary(op, func(x float32) float32 { return float32(math.Ceil(float64(x))) })
        case ir.FP32 | ir.Truncate              : return foldFPUnary(op, func(x float32) float32 { return float32(math.Trunc(float64(x))) })
        case ir.FP32 | ir.CompareEqual          : return foldFPCompare(op, func(x, y float32) bool { return x == y })
        case ir.FP32 | ir.CompareNotEqual       : return foldFPCompare(op, func(x, y float32) bool { return x != y })
        case ir.FP32 | ir.CompareLess           : return foldFPCompare(op, func(x, y float32) bool { return x < y })
        case ir.FP32 | ir.CompareLessOrEqual    : return foldFPCompare(op, func(x, y float32) bool { return x <= y })
        case ir.FP32 | ir.CompareGreater        : return foldFPCompare(op, func(x, y float32) bool { return x > y })
        case ir.FP32 | ir.CompareGreaterOrEqual : return foldFPCompare(op, func(x, y float32) bool { return x >= y })
        case ir.FP32 | ir.IsNan                 : return foldUnary(op, func(x int32) int32 { return boolean(math.IsNaN(float64(f32(x)))) })
    }

    /* constant buffer loads */
    if op.Inst == ir.Load && op.StorageKind == ir.StorageConstantBuffer {
        return foldConstantBufferLoad(ctx, op)
    }
    return false
}

func allSourcesConstant(op *ir.Operation) bool {
    if op.SourceCount() == 0 || op.DestCount() != 1 && op.Inst != ir.UnpackHalf2x16 {
        return false
    }
    for i := 0; i < op.SourceCount(); i++ {
        if op.Source(i).Type != ir.Constant {
            return false
        }
    }
    return true
}

func foldConstantBufferLoad(ctx *Context, op *ir.Operation) bool {
    if op.SourceCount() != 4 || op.Source(1).Value != 0 {
        return false
    }

    /* resolve the binding */
    slot, ok := ctx.Resources.TryGetConstantBufferSlot(int(op.Source(0).Value))
    if !ok {
        return false
    }

    /* word offset of the element */
    vec := int(op.Source(2).Value)
    elem := int(op.Source(3).Value)
    op.TurnIntoCopy(ir.Cbuf(slot, vec * 4 + elem))
    return true
}

func foldUnary(op *ir.Operation, fn func(int32) int32) bool {
    op.TurnIntoCopy(ir.Const(fn(op.Source(0).Value)))
    return true
}

func foldBinary(op *ir.Operation, fn func(int32, int32) int32) bool {
    op.TurnIntoCopy(ir.Const(fn(op.Source(0).Value, op.Source(1).Value)))
    return true
}

func foldTernary(op *ir.Operation, fn func(int32, int32, int32) int32) bool {
    op.TurnIntoCopy(ir.Const(fn(op.Source(0).Value, op.Source(1).Value, op.Source(2).Value)))
    return true
}

func foldQuaternary(op *ir.Operation, fn func(int32, int32, int32, int32) int32) bool {
    op.TurnIntoCopy(ir.Const(fn(op.Source(0).Value, op.Source(1).Value, op.Source(2).Value, op.Source(3).Value)))
    return true
}

func foldCompare(op *ir.Operation, fn func(int32, int32) bool) bool {
    return foldBinary(op, func(x, y int32) int32 { return boolean(fn(x, y)) })
}

func foldFPUnary(op *ir.Operation, fn func(float32) float32) bool {
    return foldUnary(op, func(x int32) int32 { return i32(fn(f32(x))) })
}

func foldFPBinary(op *ir.Operation, fn func(float32, float32) float32) bool {
    return foldBinary(op, func(x, y int32) int32 { return i32(fn(f32(x), f32(y))) })
}

func foldFPTernary(op *ir.Operation, fn func(float32, float32, float32) float32) bool {
    return foldTernary(op, func(x, y, z int32) int32 { return i32(fn(f32(x), f32(y), f32(z))) })
}

func foldFPCompare(op *ir.Operation, fn func(float32, float32) bool) bool {
    return foldBinary(op, func(x, y int32) int32 { return boolean(fn(f32(x), f32(y))) })
}

func foldUnpackHalf2x16(op *ir.Operation) bool {
    v := uint32(op.Source(0).Value)
    x := ir.ConstF(halfToFloat(uint16(v)))
    y := ir.ConstF(halfToFloat(uint16(v >> 16)))

    /* both halves become constants */
    replaceUses(op.Dest(0), x)
    replaceUses(op.Dest(1), y)
    deleteNode(op)
    return true
}

func boolean(v bool) int32 {
    if v {
        return _True
    } else {
        return _False
    }
}

func f32(v int32) float32 {
    return math.Float32frombits(uint32(v))
}

func i32(v float32) int32 {
    return int32(math.Float32bits(v))
}

func divide(x int32, y int32) int32 {
    if y == 0 {
        return 0
    } else {
        return x / y
    }
}

func absolute(x int32) int32 {
    if x < 0 {
        return -x
    } else {
        return x
    }
}

func minS32(x, y int32) int32 { if x < y { return x } else { return y } }
func maxS32(x, y int32) int32 { if x > y { return x } else { return y } }
func minU32(x, y int32) int32 { if uint32(x) < uint32(y) { return x } else { return y } }
func maxU32(x, y int32) int32 { if uint32(x) > uint32(y) { return x } else { return y } }

func clampF32(x, lo, hi float32) float32 {
    return float32(math.Min(math.Max(float64(x), float64(lo)), float64(hi)))
}

func f32ToS32(f float32) int32 {
    switch {
        case f != f                : return 0
        case f >= math.MaxInt32    : return math.MaxInt32
        case f <= math.MinInt32    : return math.MinInt32
        default                    : return int32(f)
    }
}

func f32ToU32(f float32) uint32 {
    switch {
        case f != f || f <= 0      : return 0
        case f >= math.MaxUint32   : return math.MaxUint32
        default                    : return uint32(f)
    }
}

func bitfieldExtractU32(value, offset, size int32) int32 {
    off := uint32(offset) & 31
    n := uint32(size) & 63
    switch {
        case n == 0  : return 0
        case n >= 32 : return int32(uint32(value) >> off)
        default      : return int32((uint32(value) >> off) & (1 << n - 1))
    }
}

func bitfieldExtractS32(value, offset, size int32) int32 {
    n := uint32(size) & 63
    v := uint32(bitfieldExtractU32(value, offset, size))
    if n == 0 || n >= 32 {
        return int32(v)
    } else {
        return int32(v << (32 - n)) >> (32 - n)
    }
}

func bitfieldInsert(base, insert, offset, size int32) int32 {
    off := uint32(offset) & 31
    n := uint32(size) & 63
    mask := uint32(math.MaxUint32)
    if n == 0 {
        return base
    } else if n < 32 {
        mask = 1 << n - 1
    }
    mask <<= off
    return int32((uint32(base) &^ mask) | ((uint32(insert) << off) & mask))
}

func packHalf2x16(x, y int32) int32 {
    return int32(uint32(floatToHalf(f32(x))) | uint32(floatToHalf(f32(y))) << 16)
}

// floatToHalf converts with round-to-nearest-even.
func floatToHalf(f float32) uint16 {
    b := math.Float32bits(f)
    sign := uint16(b >> 16) & 0x8000
    exp := int((b >> 23) & 0xff)
    mant := b & 0x7fffff

    /* infinities and NaNs */
    if exp == 0xff {
        if mant != 0 {
            return sign | 0x7e00
        } else {
            return sign | 0x7c00
        }
    }

    /* rebias the exponent */
    e := exp - 127 + 15
    if e >= 0x1f {
        return sign | 0x7c00
    }

    /* normal numbers */
    if e > 0 {
        h := uint32(e) << 10 | mant >> 13
        return sign | uint16(roundHalf(h, mant & 0x1fff, 0x1000))
    }

    /* subnormals, or zero when too small */
    if e < -10 {
        return sign
    }
    mant |= 0x800000
    shift := uint32(14 - e)
    return sign | uint16(roundHalf(mant >> shift, mant & (1 << shift - 1), 1 << (shift - 1)))
}

func roundHalf(h uint32, rem uint32, mid uint32) uint32 {
    if rem > mid || (rem == mid && h & 1 != 0) {
        return h + 1
    } else {
        return h
    }
}

func halfToFloat(h uint16) float32 {
    sign := uint32(h & 0x8000) << 16
    exp := uint32(h >> 10) & 0x1f
    mant := uint32(h & 0x3ff)

    /* special values */
    switch {
        case exp == 0x1f : return math.Float32frombits(sign | 0x7f800000 | mant << 13)
        case exp != 0    : return math.Float32frombits(sign | (exp + 112) << 23 | mant << 13)
        case mant == 0   : return math.Float32frombits(sign)
    }

    /* subnormals */
    if f := float32(mant) / (1 << 24); sign != 0 {
        return -f
    } else {
        return f
    }
}
