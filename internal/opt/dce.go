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
    `github.com/oleiade/lane`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// DCE removes nodes without side effects whose results are never read.
// Removing a node may make the definitions of its sources unused, those are
// removed in the same call.
type DCE struct{}

func (DCE) remove(ctx *Context, n ir.INode) bool {
    var ok bool
    var q = lane.NewQueue()

    /* cascade through the sources */
    for q.Enqueue(n); !q.Empty(); {
        v := q.Dequeue().(ir.INode)
        if v.Block() == nil || !isUnused(v) {
            continue
        }

        /* collect the sources before they are dropped */
        srcs := make([]*ir.Operand, 0, v.SourceCount())
        for i := 0; i < v.SourceCount(); i++ {
            srcs = append(srcs, v.Source(i))
        }

        /* remove the node */
        ok = true
        deleteNode(v)
        ctx.Stats.Removed++

        /* definitions that just lost their last reader */
        for _, s := range srcs {
            if d := s.Def(); d != nil && d.Block() != nil && isUnused(d) {
                q.Enqueue(d)
            }
        }
    }
    return ok
}
