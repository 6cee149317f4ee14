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

// pool indexes the whole texture pool, and the sampler pool when the
// operation samples, with the two halves of the handle. It needs separate
// samplers on the host.
func (self BindlessElim) pool(ctx *Context, op *ir.Operation) bool {
    if !ctx.Accessor.QueryHostSupportsSeparateSampler() {
        return false
    }

    /* pool sizes */
    hv := op.Source(0)
    tn := ctx.Options.ClampArrayLength(ctx.Accessor.QueryTextureArrayLengthFromPool())
    sn := ctx.Options.ClampArrayLength(ctx.Accessor.QuerySamplerArrayLengthFromPool())

    /* texture index from the low 20 bits */
    ti := insertBefore(op, ir.BitwiseAnd, hv, ir.Const(gpu.TextureHandleMask))
    ti = insertBefore(op, ir.MinimumU32, ti, ir.Const(int32(tn - 1)))

    /* the texture array */
    tb := ctx.Resources.GetTextureOrImageBinding(gpu.TextureRequest {
        Inst        : op.Inst,
        Type        : op.Tex.Type,
        Format      : op.Tex.Format,
        Flags       : op.Tex.Flags &^ ir.TexBindless,
        Source      : gpu.FromPool,
        ArrayLength : tn,
    })

    /* images and size queries stop here */
    if op.SetSource(0, ti); !hasSampler(op) {
        op.TurnIntoArray(tb, tn)
        return true
    }

    /* sampler index from the upper 12 bits */
    si := insertBefore(op, ir.ShiftRightU32, hv, ir.Const(gpu.SamplerHandleShift))
    si = insertBefore(op, ir.MinimumU32, si, ir.Const(int32(sn - 1)))

    /* the sampler array */
    sb := ctx.Resources.GetTextureOrImageBinding(gpu.TextureRequest {
        Inst        : op.Inst,
        Source      : gpu.FromPool,
        ArrayLength : sn,
        IsSampler   : true,
    })

    /* the sampler index goes right after the texture index */
    op.InsertSource(1, si)
    op.TurnIntoSeparateArray(tb, tn, sb, sn)
    return true
}
