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

// FindLastOperation looks through phi nodes for the value `v` most likely
// holds when `bb` executes. A phi source is chosen when its incoming block is
// guarded by the same conditional branch as `bb`, or when it is the only
// defined source. Without `recurse` only the phi defining `v` is looked
// through.
func FindLastOperation(v *ir.Operand, bb *ir.BasicBlock, recurse bool) *ir.Operand {
    visited := make(map[*ir.PhiNode]bool)

    /* walk down the phi chain */
    for {
        phi := v.DefPhi()
        if phi == nil || visited[phi] {
            return v
        }

        /* choose a source, stop if none fits */
        visited[phi] = true
        if next := choosePhiSource(phi, bb); next == nil {
            return v
        } else if v = next; !recurse {
            return v
        }
    }
}

func choosePhiSource(phi *ir.PhiNode, bb *ir.BasicBlock) *ir.Operand {
    undef := 0
    nsrc := phi.SourceCount()

    /* prefer the latest sources */
    for i := nsrc - 1; i >= 0; i-- {
        if blockConditionsMatch(bb, phi.SourceBlock(i)) {
            return phi.Source(i)
        } else if phi.Source(i).Type == ir.Undefined {
            undef++
        }
    }

    /* only one defined source */
    if nsrc == 0 || undef != nsrc - 1 {
        return nil
    }
    for i := nsrc - 1; i >= 0; i-- {
        if src := phi.Source(i); src.Type != ir.Undefined {
            return src
        }
    }
    return nil
}

// blockConditionsMatch checks that `query` and `current` are both entered by
// falling through the same kind of conditional branch on the same condition.
func blockConditionsMatch(current *ir.BasicBlock, query *ir.BasicBlock) bool {
    cb := findBranchSource(current)
    qb := findBranchSource(query)
    return cb != nil && qb != nil && cb.Inst == qb.Inst && sameOperand(cb.Source(0), qb.Source(0))
}

// sameOperand reports whether `x` and `y` always hold the same value: equal
// constants, or locals computed by identical operations.
func sameOperand(x *ir.Operand, y *ir.Operand) bool {
    if x.Equals(y) {
        return true
    }

    /* both must be defined by an operation */
    xo, yo := x.DefOp(), y.DefOp()
    return xo != nil && yo != nil && areEqualOperations(xo, yo)
}

// areEqualOperations compares the instruction and the sources of two pure
// single-dest operations. Sources are compared with ir.Operand.Equals, so
// locals must be the very same operand. Only loads from read-only memory
// qualify.
func areEqualOperations(x *ir.Operation, y *ir.Operation) bool {
    if x.Inst != y.Inst || x.StorageKind != y.StorageKind || x.Tex != nil || y.Tex != nil {
        return false
    }
    switch x.StorageKind {
        case ir.StorageNone, ir.StorageInput, ir.StorageConstantBuffer : break
        default                                                        : return false
    }
    if x.Inst.HasSideEffects() || x.DestCount() != 1 || y.DestCount() != 1 {
        return false
    }

    /* pairwise sources */
    if x.SourceCount() != y.SourceCount() {
        return false
    }
    for i := 0; i < x.SourceCount(); i++ {
        if !x.Source(i).Equals(y.Source(i)) {
            return false
        }
    }
    return true
}

func findBranchSource(bb *ir.BasicBlock) *ir.Operation {
    for _, p := range bb.Predecessors() {
        if op := p.LastOp(); op != nil && op.Inst.IsConditionalBranch() && p.Next() == bb {
            return op
        }
    }
    return nil
}

// deleteNode unlinks a node from its block and drops its uses.
func deleteNode(n ir.INode) {
    if bb := n.Block(); bb != nil {
        bb.Remove(n)
    }
    ir.Detach(n)
}

// replaceUses makes every reader of `old` read `v` instead.
func replaceUses(old *ir.Operand, v *ir.Operand) bool {
    uses := old.Uses()
    for _, n := range uses {
        for i := 0; i < n.SourceCount(); i++ {
            if n.Source(i) == old {
                n.SetSource(i, v)
            }
        }
    }
    return len(uses) != 0
}

// destIsSingleLocal reports whether the node writes exactly one local.
func destIsSingleLocal(n ir.INode) bool {
    return n.DestCount() == 1 && n.Dest(0) != nil && n.Dest(0).Type == ir.LocalVariable
}

// isUnused reports whether a node can be removed without changing the
// program: it has no side effects and nobody reads any of its dests.
func isUnused(n ir.INode) bool {
    if op, ok := n.(*ir.Operation); ok && op.Inst.HasSideEffects() {
        return false
    }
    if n.DestCount() == 0 {
        return false
    }
    for i := 0; i < n.DestCount(); i++ {
        if d := n.Dest(i); d.Type != ir.LocalVariable || d.UseCount() != 0 {
            return false
        }
    }
    return true
}

// insertBefore places a new operation before `at` and returns its dest.
func insertBefore(at ir.INode, inst ir.Instruction, sources ...*ir.Operand) *ir.Operand {
    dest := ir.Local()
    at.Block().InsertBefore(at, ir.NewOperation(inst, dest, sources...))
    return dest
}

// defOp returns the operation defining `v` if it uses `inst`.
func defOp(v *ir.Operand, inst ir.Instruction) *ir.Operation {
    if op := v.DefOp(); op != nil && op.Inst == inst {
        return op
    } else {
        return nil
    }
}
