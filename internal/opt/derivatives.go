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
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

const (
    _ShuffleClampMask = 0x1c03
    _SwizzleDdx       = 0b10011001
    _SwizzleDdy       = 0b10100101
)

// Derivatives turns the quad shuffle and swizzle-add sequence the guest uses
// for screen-space derivatives back into Ddx and Ddy.
type Derivatives struct{}

func (self Derivatives) Apply(ctx *Context) {
    for _, bb := range ctx.Func.Blocks {
        for n := bb.First(); n != nil; {
            next := n.Next()
            if op, ok := n.(*ir.Operation); ok && op.Inst.Base() == ir.ShuffleXor {
                self.rewrite(op)
            }
            n = next
        }
    }
}

func (self Derivatives) rewrite(op *ir.Operation) {
    var inst ir.Instruction
    var swizzle int32

    /* xor with 1 crosses columns, with 2 crosses rows */
    switch {
        case !op.Source(2).IsConstValue(_ShuffleClampMask) : return
        case op.Source(1).IsConstValue(1)                  : inst, swizzle = ir.Ddx, _SwizzleDdx
        case op.Source(1).IsConstValue(2)                  : inst, swizzle = ir.Ddy, _SwizzleDdy
        default                                            : return
    }

    /* every matching swizzle-add becomes a derivative */
    v := op.Source(0)
    for _, n := range op.Result().Uses() {
        if u, ok := n.(*ir.Operation); ok && u.Inst.Base() == ir.SwizzleAdd {
            if u.Source(0) == op.Result() && u.Source(1) == v && u.Source(2).IsConstValue(swizzle) {
                u.TurnInto(inst | u.Inst &^ ir.Mask, v)
            }
        }
    }

    /* the shuffle is gone if nothing else read it */
    if isUnused(op) {
        deleteNode(op)
    }
}
