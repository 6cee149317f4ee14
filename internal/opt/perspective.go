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

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

const (
    _MultiplyF32 = ir.Multiply | ir.FP32
    _DivideF32   = ir.Divide | ir.FP32
)

// PerspectiveDivide removes `(x * w) * (1 / w)` in fragment shaders, where w
// is the fourth component of the fragment coordinate.
type PerspectiveDivide struct{}

func (self PerspectiveDivide) Apply(ctx *Context) {
    if ctx.Stage != gpu.Fragment {
        return
    }

    /* look at every float multiply */
    for _, bb := range ctx.Func.Blocks {
        for n := bb.First(); n != nil; n = n.Next() {
            if op, ok := n.(*ir.Operation); ok && op.Inst == _MultiplyF32 {
                if x := self.match(op); x != nil {
                    op.TurnIntoCopy(x)
                }
            }
        }
    }
}

// match returns x when `op` computes (x * w) * (1 / w).
func (self PerspectiveDivide) match(op *ir.Operation) *ir.Operand {
    for i := 0; i < 2; i++ {
        m := defOp(op.Source(i), _MultiplyF32)
        d := defOp(op.Source(1 - i), _DivideF32)

        /* 1 / w */
        if m == nil || d == nil || !d.Source(0).IsConstValue(int32(math.Float32bits(1))) || !isFragCoordW(d.Source(1)) {
            continue
        }

        /* x * w, in either order */
        for j := 0; j < 2; j++ {
            if w := m.Source(1 - j); w == d.Source(1) || isFragCoordW(w) {
                return m.Source(j)
            }
        }
    }
    return nil
}

func isFragCoordW(v *ir.Operand) bool {
    ld := defOp(v, ir.Load)
    return ld != nil &&
           ld.StorageKind == ir.StorageInput &&
           ld.SourceCount() == 2 &&
           ld.Source(0).IsConstValue(int32(ir.IoFragmentCoord)) &&
           ld.Source(1).IsConstValue(3)
}
