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

package ir

import (
    `fmt`
    `sync/atomic`
)

var nodeSerial uint64

// INode is an entry in a basic block: either an *Operation or a *PhiNode.
type INode interface {
    fmt.Stringer
    ID() uint64
    Block() *BasicBlock
    Next() INode
    Prev() INode
    DestCount() int
    Dest(i int) *Operand
    SourceCount() int
    Source(i int) *Operand
    SetSource(i int, v *Operand)
    links() *node
}

type node struct {
    id    uint64
    prev  INode
    next  INode
    block *BasicBlock
}

func newNode() node {
    return node { id: atomic.AddUint64(&nodeSerial, 1) }
}

// ID returns a stable identifier, increasing in creation order.
func (self *node) ID() uint64 {
    return self.id
}

func (self *node) Block() *BasicBlock {
    return self.block
}

func (self *node) Next() INode {
    return self.next
}

func (self *node) Prev() INode {
    return self.prev
}

func (self *node) links() *node {
    return self
}

// Detach drops every use and definition held by a node that is no longer
// part of any block.
func Detach(n INode) {
    for i := 0; i < n.DestCount(); i++ {
        if d := n.Dest(i); d != nil {
            d.clearDef(n)
        }
    }
    switch v := n.(type) {
        case *Operation : v.ClearSources()
        case *PhiNode   : v.clearSources()
    }
}
