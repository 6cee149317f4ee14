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

// Simplify applies algebraic identities to integer operations with one
// constant source.
type Simplify struct{}

func (Simplify) simplify(op *ir.Operation) bool {
    switch op.Inst {
        case ir.Add                : return simplifyIdentity(op, 0, true)
        case ir.Subtract           : return simplifyIdentity(op, 0, false)
        case ir.Multiply           : return simplifyIdentity(op, 1, true)
        case ir.Divide             : return simplifyIdentity(op, 1, false)
        case ir.ShiftLeft          : return simplifyIdentity(op, 0, false)
        case ir.ShiftRightS32      : return simplifyIdentity(op, 0, false)
        case ir.ShiftRightU32      : return simplifyIdentity(op, 0, false)
        case ir.BitwiseAnd         : return simplifyAnd(op)
        case ir.BitwiseOr          : return simplifyOr(op)
        case ir.BitwiseExclusiveOr : return simplifyIdentity(op, 0, true) || simplifyXorSwap(op)
        case ir.ConditionalSelect  : return simplifySelect(op)
        case ir.CompareNotEqual    : return simplifyCompareNotEqual(op)
        default                    : return false
    }
}

// simplifyIdentity turns `x op id` (and `id op x` when commutative) into `x`.
func simplifyIdentity(op *ir.Operation, id int32, commutative bool) bool {
    x := op.Source(0)
    y := op.Source(1)

    /* check both sides */
    switch {
        case y.IsConstValue(id)                : op.TurnIntoCopy(x)
        case commutative && x.IsConstValue(id) : op.TurnIntoCopy(y)
        default                                : return false
    }
    return true
}

func simplifyAnd(op *ir.Operation) bool {
    x := op.Source(0)
    y := op.Source(1)

    /* x & -1 = x, x & 0 = 0 */
    switch {
        case y.IsConstValue(-1) : op.TurnIntoCopy(x)
        case x.IsConstValue(-1) : op.TurnIntoCopy(y)
        case y.IsConstValue(0)  : op.TurnIntoCopy(ir.Const(0))
        case x.IsConstValue(0)  : op.TurnIntoCopy(ir.Const(0))
        case isMaskedBy(x, y)   : op.TurnIntoCopy(x)
        case isMaskedBy(y, x)   : op.TurnIntoCopy(y)
        default                 : return false
    }
    return true
}

// isMaskedBy reports whether `v` is `a & m` with every bit of `m` also set
// in the constant `mask`, so `v & mask == v`.
func isMaskedBy(v *ir.Operand, mask *ir.Operand) bool {
    and := defOp(v, ir.BitwiseAnd)
    if and == nil || !mask.IsConst() {
        return false
    }
    for i := 0; i < 2; i++ {
        if m := and.Source(i); m.IsConst() && m.Value &^ mask.Value == 0 {
            return true
        }
    }
    return false
}

func simplifyOr(op *ir.Operation) bool {
    x := op.Source(0)
    y := op.Source(1)

    /* x | 0 = x, x | -1 = -1 */
    switch {
        case y.IsConstValue(0)  : op.TurnIntoCopy(x)
        case x.IsConstValue(0)  : op.TurnIntoCopy(y)
        case y.IsConstValue(-1) : op.TurnIntoCopy(ir.Const(-1))
        case x.IsConstValue(-1) : op.TurnIntoCopy(ir.Const(-1))
        default                 : return false
    }
    return true
}

// simplifyXorSwap turns `(a ^ b) ^ b` into `a`.
func simplifyXorSwap(op *ir.Operation) bool {
    for i := 0; i < 2; i++ {
        inner := defOp(op.Source(i), ir.BitwiseExclusiveOr)
        other := op.Source(1 - i)
        if inner == nil {
            continue
        }
        for j := 0; j < 2; j++ {
            if inner.Source(j).Equals(other) {
                op.TurnIntoCopy(inner.Source(1 - j))
                return true
            }
        }
    }
    return false
}

func simplifySelect(op *ir.Operation) bool {
    cond := op.Source(0)
    x := op.Source(1)
    y := op.Source(2)

    /* constant condition or identical arms */
    switch {
        case x.Equals(y)                 : op.TurnIntoCopy(x)
        case cond.Type != ir.Constant    : return false
        case cond.Value != 0             : op.TurnIntoCopy(x)
        default                          : op.TurnIntoCopy(y)
    }
    return true
}

// simplifyCompareNotEqual turns `cmp != 0` into `cmp` when `cmp` already
// holds a boolean.
func simplifyCompareNotEqual(op *ir.Operation) bool {
    for i := 0; i < 2; i++ {
        v := op.Source(i)
        if !op.Source(1 - i).IsConstValue(0) {
            continue
        }
        if d := v.DefOp(); d != nil && d.Inst.IsComparison() {
            op.TurnIntoCopy(v)
            return true
        }
    }
    return false
}
