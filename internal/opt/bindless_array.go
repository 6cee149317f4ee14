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

// OpenGL has no way to ask for the length of a handle array.
const _OpenGLArrayLength = 4

// array resolves handles loaded with a dynamic index from the texture handle
// buffer into an element of a texture array.
func (self BindlessElim) array(ctx *Context, bb *ir.BasicBlock, op *ir.Operation) bool {
    var sec *ir.Operand
    var hv = FindLastOperation(op.Source(0), bb, true)

    /* the handle may carry a separate sampler word */
    if or := defOp(hv, ir.BitwiseOr); or != nil {
        x := FindLastOperation(or.Source(0), bb, true)
        y := FindLastOperation(or.Source(1), bb, true)

        /* one side must be a constant-buffer word */
        switch {
            case y.IsCbuf() : hv, sec = x, y
            case x.IsCbuf() : hv, sec = y, x
            default         : return false
        }
    }

    /* must be a load from the handle buffer */
    ld := self.handleLoad(ctx, hv)
    if ld == nil {
        return false
    }

    /* OpenGL lays the handles out differently */
    if ctx.API == gpu.OpenGL {
        return self.arrayOpenGL(ctx, op, ld, sec)
    }

    /* constant indices are a job for folding and the direct path */
    vec := ld.Source(2)
    elem := ld.Source(3)
    if vec.IsConst() && elem.IsConst() {
        return false
    }

    /* two 32-bit handles per vector lane pair: index = vec * 2 + elem / 2 */
    n := ctx.Options.ClampArrayLength(ctx.Accessor.QueryTextureArrayLengthFromBuffer(ctx.Options.TextureHandleBufferSlot))
    vi := insertBefore(op, ir.ShiftLeft, vec, ir.Const(1))
    ei := insertBefore(op, ir.ShiftRightU32, elem, ir.Const(1))
    ix := insertBefore(op, ir.Add, vi, ei)

    /* never index out of the array */
    ix = insertBefore(op, ir.MinimumU32, ix, ir.Const(int32(n - 1)))
    self.turnIntoArray(ctx, op, ix, sec, 0, n)
    return true
}

// arrayOpenGL matches handle loads whose vector index is
// ShiftRightU32(Add(byteOffset, base), 2), with 8 bytes per handle.
func (self BindlessElim) arrayOpenGL(ctx *Context, op *ir.Operation, ld *ir.Operation, sec *ir.Operand) bool {
    shr := defOp(ld.Source(2), ir.ShiftRightU32)
    if shr == nil || !shr.Source(1).IsConstValue(2) {
        return false
    }

    /* the base offset must be constant */
    add := defOp(shr.Source(0), ir.Add)
    if add == nil || !add.Source(1).IsConst() {
        return false
    }

    /* handle index, clamped to the fixed length */
    ix := insertBefore(op, ir.ShiftRightU32, add.Source(0), ir.Const(3))
    ix = insertBefore(op, ir.MinimumU32, ix, ir.Const(_OpenGLArrayLength - 1))
    self.turnIntoArray(ctx, op, ix, sec, int(add.Source(1).Value) / 4, _OpenGLArrayLength)
    return true
}

// handleLoad returns the constant-buffer load defining `v` when it reads
// field 0 of the texture handle buffer.
func (self BindlessElim) handleLoad(ctx *Context, v *ir.Operand) *ir.Operation {
    ld := defOp(v, ir.Load)
    if ld == nil || ld.StorageKind != ir.StorageConstantBuffer || ld.SourceCount() != 4 {
        return nil
    }

    /* the binding must map back to the handle buffer slot */
    if b := ld.Source(0); !b.IsConst() {
        return nil
    } else if slot, ok := ctx.Resources.TryGetConstantBufferSlot(int(b.Value)); !ok || slot != ctx.Options.TextureHandleBufferSlot {
        return nil
    }

    /* only field 0 holds handles */
    if !ld.Source(1).IsConstValue(0) {
        return nil
    } else {
        return ld
    }
}

func (self BindlessElim) turnIntoArray(ctx *Context, op *ir.Operation, index *ir.Operand, sec *ir.Operand, base int, n int) {
    handle := base
    slots := ctx.Options.TextureHandleBufferSlot

    /* the separate sampler word is part of the key */
    if sec != nil {
        handle = gpu.PackOffsets(base, sec.CbufOffset(), gpu.SeparateSamplerHandle)
        slots = gpu.PackSlots(slots, sec.CbufSlot())
    }

    /* the index replaces the handle */
    op.SetSource(0, index)
    op.TurnIntoArray(ctx.Resources.GetTextureOrImageBinding(gpu.TextureRequest {
        Inst        : op.Inst,
        Type        : op.Tex.Type,
        Format      : op.Tex.Format,
        Flags       : op.Tex.Flags &^ ir.TexBindless,
        Source      : gpu.FromConstantBuffer,
        CbufSlot    : slots,
        Handle      : handle,
        ArrayLength : n,
    }), n)
}
