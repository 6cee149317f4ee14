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

// CopyProp forwards copies and trivial phi nodes to their readers, and
// forwards the halves of PackHalf2x16 through a matching UnpackHalf2x16.
type CopyProp struct{}

func (CopyProp) propagateCopy(op *ir.Operation) bool {
    if op.Inst != ir.Copy || !destIsSingleLocal(op) {
        return false
    }

    /* every reader of the dest reads the source instead */
    dest := op.Result()
    if src := op.Source(0); src == dest {
        return false
    } else {
        return replaceUses(dest, src)
    }
}

// propagatePhi removes a phi whose sources are all the same value, ignoring
// references to the phi itself.
func (CopyProp) propagatePhi(phi *ir.PhiNode) bool {
    var same *ir.Operand
    var dest = phi.Dest(0)

    /* all sources must agree */
    for i := 0; i < phi.SourceCount(); i++ {
        if src := phi.Source(i); src == dest {
            continue
        } else if same == nil {
            same = src
        } else if !same.Equals(src) {
            return false
        }
    }

    /* a phi that only references itself is left alone */
    if same == nil {
        return false
    }

    /* replace and drop the phi */
    replaceUses(dest, same)
    deleteNode(phi)
    return true
}

func (CopyProp) propagatePack(op *ir.Operation) bool {
    var ret bool
    var dest = op.Result()

    /* only direct unpacks of this value are rewritten */
    for _, n := range dest.Uses() {
        if u, ok := n.(*ir.Operation); ok && u.Inst == ir.UnpackHalf2x16 && u.Source(0) == dest {
            ret = replaceUses(u.Dest(0), op.Source(0)) || ret
            ret = replaceUses(u.Dest(1), op.Source(1)) || ret
        }
    }
    return ret
}
