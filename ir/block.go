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
)

// BasicBlock holds an ordered list of nodes and up to two successors.
//
// A block ending in an unconditional branch only has Branch set, a block
// ending in a conditional branch has both Next (fall-through) and Branch, a
// block falling off its end only has Next, and a returning block has neither.
type BasicBlock struct {
    Index  int
    next   *BasicBlock
    branch *BasicBlock
    preds  []*BasicBlock
    first  INode
    last   INode
    count  int
}

func NewBasicBlock(index int) *BasicBlock {
    return &BasicBlock { Index: index }
}

func (self *BasicBlock) Next() *BasicBlock {
    return self.next
}

func (self *BasicBlock) Branch() *BasicBlock {
    return self.branch
}

// Predecessors returns the blocks with an edge into this block. A block with
// both edges pointing here appears twice.
func (self *BasicBlock) Predecessors() []*BasicBlock {
    return self.preds
}

func (self *BasicBlock) SetNext(bb *BasicBlock) {
    self.next = self.relink(self.next, bb)
}

func (self *BasicBlock) SetBranch(bb *BasicBlock) {
    self.branch = self.relink(self.branch, bb)
}

func (self *BasicBlock) relink(old *BasicBlock, bb *BasicBlock) *BasicBlock {
    if old != nil {
        old.removePredecessor(self)
    }
    if bb != nil {
        bb.preds = append(bb.preds, self)
    }
    return bb
}

func (self *BasicBlock) removePredecessor(bb *BasicBlock) {
    for i, v := range self.preds {
        if v == bb {
            self.preds = append(self.preds[:i], self.preds[i + 1:]...)
            return
        }
    }
    panic(fmt.Sprintf("ir: bb_%d is not a predecessor of bb_%d", bb.Index, self.Index))
}

func (self *BasicBlock) First() INode {
    return self.first
}

func (self *BasicBlock) Last() INode {
    return self.last
}

func (self *BasicBlock) Len() int {
    return self.count
}

// LastOp returns the last node if it is an Operation.
func (self *BasicBlock) LastOp() *Operation {
    if op, ok := self.last.(*Operation); ok {
        return op
    } else {
        return nil
    }
}

// HasBranch reports whether the block ends in a branch instruction.
func (self *BasicBlock) HasBranch() bool {
    op := self.LastOp()
    return op != nil && op.Inst.IsBranch()
}

// Nodes returns a snapshot of the node list.
func (self *BasicBlock) Nodes() []INode {
    ret := make([]INode, 0, self.count)
    for n := self.first; n != nil; n = n.Next() {
        ret = append(ret, n)
    }
    return ret
}

// Phis returns the phi nodes at the head of the block.
func (self *BasicBlock) Phis() []*PhiNode {
    var ret []*PhiNode
    for n := self.first; n != nil; n = n.Next() {
        if phi, ok := n.(*PhiNode); ok {
            ret = append(ret, phi)
        } else {
            break
        }
    }
    return ret
}

func (self *BasicBlock) Append(n INode) INode {
    return self.attach(n, self.last, nil)
}

func (self *BasicBlock) Prepend(n INode) INode {
    return self.attach(n, nil, self.first)
}

// InsertBefore places `n` right before `at`.
func (self *BasicBlock) InsertBefore(at INode, n INode) INode {
    self.owns(at)
    return self.attach(n, at.Prev(), at)
}

// InsertAfter places `n` right after `at`.
func (self *BasicBlock) InsertAfter(at INode, n INode) INode {
    self.owns(at)
    return self.attach(n, at, at.Next())
}

// Remove unlinks `n` from the block. The node keeps its uses and dests, call
// Detach to drop them.
func (self *BasicBlock) Remove(n INode) {
    self.owns(n)
    ln := n.links()

    /* unlink from the previous node */
    if ln.prev == nil {
        self.first = ln.next
    } else {
        ln.prev.links().next = ln.next
    }

    /* unlink from the next node */
    if ln.next == nil {
        self.last = ln.prev
    } else {
        ln.next.links().prev = ln.prev
    }

    /* reset the links */
    ln.prev = nil
    ln.next = nil
    ln.block = nil
    self.count--
}

func (self *BasicBlock) attach(n INode, prev INode, next INode) INode {
    ln := n.links()
    if ln.block != nil {
        panic(fmt.Sprintf("ir: %s is already in bb_%d", n, ln.block.Index))
    }

    /* link the node */
    ln.prev = prev
    ln.next = next
    ln.block = self

    /* fix the neighbours */
    if prev == nil {
        self.first = n
    } else {
        prev.links().next = n
    }
    if next == nil {
        self.last = n
    } else {
        next.links().prev = n
    }
    self.count++
    return n
}

func (self *BasicBlock) owns(n INode) {
    if n.Block() != self {
        panic(fmt.Sprintf("ir: %s does not belong to bb_%d", n, self.Index))
    }
}

func (self *BasicBlock) String() string {
    return fmt.Sprintf("bb_%d", self.Index)
}
