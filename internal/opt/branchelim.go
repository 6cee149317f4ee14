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

// BranchElim removes a branch when the next non-empty block in layout order
// is a lone unconditional branch to the same target, since falling through
// reaches that target anyway.
type BranchElim struct{}

func (BranchElim) apply(fn *ir.Function, i int) bool {
    bb := fn.Blocks[i]
    target := bb.Branch()

    /* nothing to do without a branch */
    if target == nil {
        return false
    }

    /* the branch target must come from a branch instruction */
    last := bb.LastOp()
    if last == nil || !last.Inst.IsBranch() {
        raise(InvalidGraph, "%s has a branch target but does not end with a branch", bb)
    }

    /* the next block must be a lone jump to the same place */
    next := nextNonEmptyBlock(fn, i)
    if next == nil || next.Len() != 1 || next.Branch() != target {
        return false
    }
    if op := next.LastOp(); op == nil || op.Inst != ir.Branch {
        return false
    }

    /* the target must not tell the two paths apart */
    for _, phi := range target.Phis() {
        if phi.HasSourceFrom(bb) {
            return false
        }
    }

    /* fall through instead */
    deleteNode(last)
    bb.SetBranch(nil)
    if bb.Next() == nil {
        bb.SetNext(fn.Blocks[i + 1])
    }
    return true
}

func nextNonEmptyBlock(fn *ir.Function, i int) *ir.BasicBlock {
    for i++; i < len(fn.Blocks); i++ {
        if fn.Blocks[i].Len() != 0 {
            return fn.Blocks[i]
        }
    }
    return nil
}
