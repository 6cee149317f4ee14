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

// Function is a list of basic blocks in layout order; Blocks[0] is the entry.
//
// Callers reach a function through `Call` whose source 0 is the constant
// function id and whose dests are the return value (if any) followed by the
// out arguments.
type Function struct {
    Id           int
    Name         string
    Blocks       []*BasicBlock
    ReturnsValue bool
    InArguments  int
    OutArguments int
}

func NewFunction(id int, name string, blocks []*BasicBlock) *Function {
    return &Function { Id: id, Name: name, Blocks: blocks }
}

// Renumber assigns block indices in layout order.
func (self *Function) Renumber() {
    for i, bb := range self.Blocks {
        bb.Index = i
    }
}

// ForEachNode calls `fn` for every node in layout order. Removing the
// current node from inside `fn` is allowed.
func (self *Function) ForEachNode(fn func(bb *BasicBlock, n INode)) {
    for _, bb := range self.Blocks {
        for n := bb.First(); n != nil; {
            next := n.Next()
            fn(bb, n)
            n = next
        }
    }
}

func (self *Function) String() string {
    return formatFunction(self)
}
