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

// PhiNode selects one of its sources depending on the predecessor control
// came from. Phi nodes always sit at the head of their block.
type PhiNode struct {
    node
    dest    *Operand
    blocks  []*BasicBlock
    sources []*Operand
}

func NewPhiNode(dest *Operand) *PhiNode {
    ret := &PhiNode { node: newNode(), dest: dest }
    dest.setDef(ret)
    return ret
}

func (self *PhiNode) Dest(i int) *Operand {
    if i != 0 {
        panic("ir: phi node has exactly one dest")
    }
    return self.dest
}

func (self *PhiNode) DestCount() int {
    return 1
}

func (self *PhiNode) SourceCount() int {
    return len(self.sources)
}

func (self *PhiNode) Source(i int) *Operand {
    return self.sources[i]
}

// SourceBlock returns the predecessor that source `i` flows in from.
func (self *PhiNode) SourceBlock(i int) *BasicBlock {
    return self.blocks[i]
}

func (self *PhiNode) AddSource(block *BasicBlock, v *Operand) {
    self.blocks = append(self.blocks, block)
    self.sources = append(self.sources, v)
    v.addUse(self)
}

func (self *PhiNode) SetSource(i int, v *Operand) {
    self.sources[i].removeUse(self)
    self.sources[i] = v
    v.addUse(self)
}

// HasSourceFrom reports whether any source flows in from `block`.
func (self *PhiNode) HasSourceFrom(block *BasicBlock) bool {
    for _, b := range self.blocks {
        if b == block {
            return true
        }
    }
    return false
}

func (self *PhiNode) clearSources() {
    for _, v := range self.sources {
        v.removeUse(self)
    }
    self.blocks = nil
    self.sources = nil
}

func (self *PhiNode) String() string {
    return formatPhi(self, nil)
}
