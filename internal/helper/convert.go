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

package helper

import (
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

const (
    _SignMask     = -0x80000000
    _ExpBiasDelta = 1023 - 127
    _F32Inf       = 0x7f800000
    _F32QuietNaN  = 0x00400000
    _F64ExpMask   = 0x7ff00000
)

// GenerateConvertDoubleToFloat builds `float f(uint lo, uint hi)`, narrowing
// the double made of the two words. The mantissa is truncated and results
// below the float range flush to signed zero.
func GenerateConvertDoubleToFloat() *ir.Function {
    e := ir.NewEmitter()
    lo := ir.Arg(0)
    hi := ir.Arg(1)

    /* split the high word */
    sign := e.Emit(ir.BitwiseAnd, hi, ir.Const(_SignMask))
    exp := e.Emit(ir.BitfieldExtractU32, hi, ir.Const(20), ir.Const(11))
    hman := e.Emit(ir.BitwiseAnd, hi, ir.Const(0xfffff))

    /* narrow the mantissa and rebias the exponent */
    mant := e.Emit(ir.BitwiseOr, e.Emit(ir.ShiftLeft, hman, ir.Const(3)), e.Emit(ir.ShiftRightU32, lo, ir.Const(29)))
    fexp := e.Emit(ir.Subtract, exp, ir.Const(_ExpBiasDelta))
    norm := e.Emit(ir.BitwiseOr, sign, e.Emit(ir.BitwiseOr, e.Emit(ir.ShiftLeft, fexp, ir.Const(23)), mant))

    /* infinities and NaNs */
    inf := e.Emit(ir.BitwiseOr, sign, ir.Const(_F32Inf))
    nz := e.Emit(ir.CompareNotEqual, e.Emit(ir.BitwiseOr, hman, lo), ir.Const(0))
    nan := e.Emit(ir.BitwiseOr, inf, e.Emit(ir.ConditionalSelect, nz, ir.Const(_F32QuietNaN), ir.Const(0)))

    /* pick the result */
    under := e.Emit(ir.CompareLessOrEqual, fexp, ir.Const(0))
    over := e.Emit(ir.CompareGreaterOrEqual, fexp, ir.Const(0xff))
    special := e.Emit(ir.CompareEqual, exp, ir.Const(0x7ff))
    r0 := e.Emit(ir.ConditionalSelect, under, sign, norm)
    r1 := e.Emit(ir.ConditionalSelect, over, inf, r0)
    r2 := e.Emit(ir.ConditionalSelect, special, nan, r1)
    e.Return(r2)

    /* build the function */
    fn := e.Finish(-1, ConvertDoubleToFloat.String())
    fn.ReturnsValue = true
    fn.InArguments = 2
    return fn
}

// GenerateConvertFloatToDouble builds `void f(float v, out uint lo, out uint hi)`,
// widening a float into the two words of a double. Denormals flush to zero.
func GenerateConvertFloatToDouble() *ir.Function {
    e := ir.NewEmitter()
    v := ir.Arg(0)

    /* split the float */
    sign := e.Emit(ir.BitwiseAnd, v, ir.Const(_SignMask))
    exp := e.Emit(ir.BitfieldExtractU32, v, ir.Const(23), ir.Const(8))
    mant := e.Emit(ir.BitwiseAnd, v, ir.Const(0x7fffff))
    mhi := e.Emit(ir.ShiftRightU32, mant, ir.Const(3))
    mlo := e.Emit(ir.ShiftLeft, mant, ir.Const(29))

    /* normal numbers */
    dexp := e.Emit(ir.Add, exp, ir.Const(_ExpBiasDelta))
    norm := e.Emit(ir.BitwiseOr, sign, e.Emit(ir.BitwiseOr, e.Emit(ir.ShiftLeft, dexp, ir.Const(20)), mhi))

    /* infinities and NaNs keep their payload */
    nonfinite := e.Emit(ir.BitwiseOr, sign, e.Emit(ir.BitwiseOr, ir.Const(_F64ExpMask), mhi))

    /* pick the words */
    zero := e.Emit(ir.CompareEqual, exp, ir.Const(0))
    special := e.Emit(ir.CompareEqual, exp, ir.Const(0xff))
    hi := e.Emit(ir.ConditionalSelect, zero, sign, e.Emit(ir.ConditionalSelect, special, nonfinite, norm))
    lo := e.Emit(ir.ConditionalSelect, zero, ir.Const(0), mlo)
    e.Copy(ir.Arg(1), lo)
    e.Copy(ir.Arg(2), hi)
    e.Return()

    /* build the function */
    fn := e.Finish(-1, ConvertFloatToDouble.String())
    fn.InArguments = 1
    fn.OutArguments = 2
    return fn
}
