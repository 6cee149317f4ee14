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
    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// direct resolves handles read straight out of constant buffers. The handle
// is either one constant-buffer word, or a texture word OR-ed with a sampler
// half in one of these shapes:
//
//     (tex & 0xfffff) | (smp & 0xfff00000)
//     tex | (id << 20)
//     tex | constant
//
func (self BindlessElim) direct(ctx *Context, bb *ir.BasicBlock, op *ir.Operation) bool {
    rw := needsTypeRewrite(op)
    hv := FindLastOperation(op.Source(0), bb, true)

    /* a single word */
    if hv.IsCbuf() {
        self.setHandle(ctx, op, hv.CbufOffset(), hv.CbufSlot(), rw)
        return true
    }

    /* otherwise two halves combined by an OR */
    or := defOp(hv, ir.BitwiseOr)
    if or == nil {
        return false
    }

    /* either side may hold the texture */
    a := FindLastOperation(or.Source(0), bb, true)
    b := FindLastOperation(or.Source(1), bb, true)

    /* try both orders, the texture side first */
    for _, p := range [2][2]*ir.Operand {{ a, b }, { b, a }} {
        if tex := self.textureHalf(ctx, bb, p[0]); tex != nil {
            if handle, slots, ok := self.samplerHalf(ctx, bb, tex, p[1]); ok {
                self.setHandle(ctx, op, handle, slots, rw)
                return true
            }
        }
    }
    return false
}

// textureHalf returns the constant-buffer word holding the texture id.
func (self BindlessElim) textureHalf(ctx *Context, bb *ir.BasicBlock, v *ir.Operand) *ir.Operand {
    if v.IsCbuf() {
        return v
    } else if and := defOp(v, ir.BitwiseAnd); and != nil {
        return self.maskedSource(ctx, bb, and, gpu.TextureHandleMask)
    } else {
        return nil
    }
}

// samplerHalf matches the sampler side of a combined handle and packs both
// halves.
func (self BindlessElim) samplerHalf(ctx *Context, bb *ir.BasicBlock, tex *ir.Operand, v *ir.Operand) (int, int, bool) {
    toff := tex.CbufOffset()
    slot := tex.CbufSlot()

    /* a constant sampler id in the upper bits */
    if v.IsConst() {
        if uint32(v.Value) & gpu.TextureHandleMask != 0 {
            return 0, 0, false
        } else {
            return gpu.PackOffsets(toff, int(uint32(v.Value) >> gpu.SamplerHandleShift), gpu.SeparateConstantSamplerHandle), gpu.PackSlots(slot, slot), true
        }
    }

    /* a masked sampler word */
    if and := defOp(v, ir.BitwiseAnd); and != nil {
        if smp := self.maskedSource(ctx, bb, and, gpu.SamplerHandleMask); smp != nil {
            return gpu.PackOffsets(toff, smp.CbufOffset(), gpu.SeparateSamplerHandle), gpu.PackSlots(slot, smp.CbufSlot()), true
        }
    }

    /* a sampler id shifted into place */
    if shl := defOp(v, ir.ShiftLeft); shl != nil && shl.Source(1).IsConstValue(gpu.SamplerHandleShift) {
        if smp := FindLastOperation(shl.Source(0), bb, true); smp.IsCbuf() {
            return gpu.PackOffsets(toff, smp.CbufOffset(), gpu.SeparateSamplerID), gpu.PackSlots(slot, smp.CbufSlot()), true
        }
    }
    return 0, 0, false
}

// maskedSource returns the constant-buffer word of `word & mask`. When both
// sides are constant-buffer words the mask cannot be checked; the side not in
// the driver reserved slot is taken.
func (self BindlessElim) maskedSource(ctx *Context, bb *ir.BasicBlock, and *ir.Operation, mask uint32) *ir.Operand {
    x := FindLastOperation(and.Source(0), bb, true)
    y := FindLastOperation(and.Source(1), bb, true)

    /* constants go to the right */
    if x.IsConst() && !y.IsConst() {
        x, y = y, x
    }

    /* match the shape */
    switch {
        case x.IsCbuf() && y.IsCbuf(): {
            if ctx.Options.IsReservedSlot(x.CbufSlot()) {
                return y
            } else {
                return x
            }
        }
        case x.IsCbuf() && y.IsConst() && uint32(y.Value) == mask: {
            return x
        }
        default: {
            return nil
        }
    }
}
