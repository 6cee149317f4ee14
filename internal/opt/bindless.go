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

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// BindlessElim gives every bindless texture and image operation a fixed
// binding. Each operation is tried against, in order: a handle read directly
// from constant buffers, an indexed handle buffer, and the whole texture and
// sampler pools. Operations nothing matches are removed and their results
// replaced by zero.
type BindlessElim struct{}

func (self BindlessElim) Apply(ctx *Context) {
    for _, bb := range ctx.Func.Blocks {
        for n := bb.First(); n != nil; {
            next := n.Next()
            if op, ok := n.(*ir.Operation); ok && op.IsBindless() {
                self.resolve(ctx, bb, op)
            }
            n = next
        }
    }
}

func (self BindlessElim) resolve(ctx *Context, bb *ir.BasicBlock, op *ir.Operation) {
    switch {
        case self.direct(ctx, bb, op) : ctx.Stats.BindlessResolved++
        case self.array(ctx, bb, op)  : ctx.Stats.BindlessResolved++
        case self.pool(ctx, op)       : ctx.Stats.BindlessResolved++
        default                       : self.discard(ctx, op)
    }
}

// discard removes an operation whose handle could not be traced.
func (self BindlessElim) discard(ctx *Context, op *ir.Operation) {
    ctx.Stats.BindlessFailed++
    ctx.Accessor.Log(fmt.Sprintf("Failed to find handle source for bindless access of type \"%s\".", op.Inst.Base()))

    /* every result reads as zero */
    for i := 0; i < op.DestCount(); i++ {
        replaceUses(op.Dest(i), ir.Const(0))
    }
    deleteNode(op)
}

// setHandle binds `op` to the texture selected by a packed handle.
func (self BindlessElim) setHandle(ctx *Context, op *ir.Operation, handle int, slots int, rewriteType bool) {
    if rewriteType {
        self.rewriteSamplerType(ctx, op, handle, slots)
    }

    /* images need a format the backend can declare */
    if op.Inst.IsImage() && op.Tex.Format == ir.FormatUnknown {
        op.Tex.Format = ctx.Accessor.QueryTextureFormat(handle, slots)
    }

    /* ask for the binding */
    op.SetBinding(ctx.Resources.GetTextureOrImageBinding(gpu.TextureRequest {
        Inst     : op.Inst,
        Type     : op.Tex.Type,
        Format   : op.Tex.Format,
        Flags    : op.Tex.Flags &^ ir.TexBindless,
        Source   : gpu.FromConstantBuffer,
        CbufSlot : slots,
        Handle   : handle,
    }))
}

// rewriteSamplerType replaces types the guest instruction cannot encode:
// size queries carry no type, and buffers share an encoding with 1D.
func (self BindlessElim) rewriteSamplerType(ctx *Context, op *ir.Operation, handle int, slots int) {
    typ := ctx.Accessor.QuerySamplerType(handle, slots)
    switch {
        case op.Inst.Base() == ir.TextureSize:
            op.Tex.Type = typ
        case op.Tex.Type & ir.SamplerMask == ir.TextureBuffer && typ & ir.SamplerMask == ir.Texture1D:
            op.Tex.Type = op.Tex.Type &^ ir.SamplerMask | ir.Texture1D
    }
}

// needsTypeRewrite reports whether the sampler type of `op` must come from
// the host.
func needsTypeRewrite(op *ir.Operation) bool {
    return op.Tex.Type & ir.SamplerMask == ir.TextureBuffer || op.Inst.Base() == ir.TextureSize
}

// hasSampler reports whether the operation samples, as opposed to reading
// texels or querying properties.
func hasSampler(op *ir.Operation) bool {
    return !op.Inst.IsImage() && op.Inst.Base() != ir.TextureSize
}
