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
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/helper`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// DoubleToFloat lowers double precision arithmetic to single precision on
// hosts without 64-bit floats. Doubles built from or split into words go
// through generated conversion helpers.
type DoubleToFloat struct{}

func (self DoubleToFloat) Apply(ctx *Context) {
    if ctx.Accessor.QueryHostSupportsShaderFloat64() {
        return
    }

    /* rewrite in place */
    for _, bb := range ctx.Func.Blocks {
        for n := bb.First(); n != nil; n = n.Next() {
            if op, ok := n.(*ir.Operation); ok {
                self.lower(ctx, op)
            }
        }
    }
}

func (self DoubleToFloat) lower(ctx *Context, op *ir.Operation) {
    switch op.Inst.Base() {
        case ir.PackDouble2x32: {
            id := ctx.Helpers.GetOrCreate(helper.ConvertDoubleToFloat)
            op.TurnInto(ir.Call, ir.Const(int32(id)), op.Source(0), op.Source(1))
        }
        case ir.UnpackDouble2x32: {
            id := ctx.Helpers.GetOrCreate(helper.ConvertFloatToDouble)
            op.TurnInto(ir.Call, ir.Const(int32(id)), op.Source(0))
        }
        case ir.ConvertFP32ToFP64, ir.ConvertFP64ToFP32: {
            op.TurnIntoCopy(op.Source(0))
        }
        default: {
            if op.Inst.IsFP64() {
                op.Inst = op.Inst &^ ir.FP64 | ir.FP32
            }
        }
    }
}
