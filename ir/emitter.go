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

// Label is a branch target inside an Emitter.
type Label struct {
    bb     *BasicBlock
    marked bool
}

// Emitter builds a function block by block. Operations are appended to the
// current block; a new block is started after every terminator and at every
// marked label.
type Emitter struct {
    blocks  []*BasicBlock
    current *BasicBlock
    falls   *BasicBlock
}

func NewEmitter() *Emitter {
    return new(Emitter)
}

func (self *Emitter) NewLabel() *Label {
    return &Label { bb: NewBasicBlock(-1) }
}

// MarkLabel starts the block the label points to.
func (self *Emitter) MarkLabel(l *Label) {
    if l.marked {
        panic("ir: label marked twice")
    }
    l.marked = true
    self.enter(l.bb)
}

func (self *Emitter) enter(bb *BasicBlock) {
    if self.current != nil {
        self.current.SetNext(bb)
    } else if self.falls != nil {
        self.falls.SetNext(bb)
    }
    bb.Index = len(self.blocks)
    self.blocks = append(self.blocks, bb)
    self.current = bb
    self.falls = nil
}

func (self *Emitter) block() *BasicBlock {
    if self.current == nil {
        self.enter(NewBasicBlock(-1))
    }
    return self.current
}

// Add appends an existing operation to the current block.
func (self *Emitter) Add(op *Operation) *Operation {
    self.block().Append(op)
    return op
}

// Emit appends `inst` with a fresh dest and returns the dest.
func (self *Emitter) Emit(inst Instruction, sources ...*Operand) *Operand {
    dest := Local()
    self.Add(NewOperation(inst, dest, sources...))
    return dest
}

// EmitStorage is Emit for memory instructions.
func (self *Emitter) EmitStorage(inst Instruction, kind StorageKind, sources ...*Operand) *Operand {
    dest := Local()
    self.Add(NewStorageOperation(inst, kind, dest, sources...))
    return dest
}

// EmitVoid appends an instruction without a dest.
func (self *Emitter) EmitVoid(inst Instruction, kind StorageKind, sources ...*Operand) {
    self.Add(NewStorageOperation(inst, kind, nil, sources...))
}

// Copy writes `src` into `dst`, which is usually an out argument.
func (self *Emitter) Copy(dst *Operand, src *Operand) {
    self.Add(NewOperation(Copy, dst, src))
}

func (self *Emitter) Branch(l *Label) {
    bb := self.block()
    bb.Append(NewOperation(Branch, nil))
    bb.SetBranch(l.bb)
    self.current = nil
}

func (self *Emitter) BranchIfTrue(l *Label, cond *Operand) {
    self.branchIf(BranchIfTrue, l, cond)
}

func (self *Emitter) BranchIfFalse(l *Label, cond *Operand) {
    self.branchIf(BranchIfFalse, l, cond)
}

func (self *Emitter) branchIf(inst Instruction, l *Label, cond *Operand) {
    bb := self.block()
    bb.Append(NewOperation(inst, nil, cond))
    bb.SetBranch(l.bb)
    self.current = nil
    self.falls = bb
}

func (self *Emitter) Return(values ...*Operand) {
    self.block().Append(NewOperation(Return, nil, values...))
    self.current = nil
}

// Finish returns the built function. Every label must have been marked.
func (self *Emitter) Finish(id int, name string) *Function {
    if self.falls != nil {
        self.enter(NewBasicBlock(-1))
        self.Return()
    }
    return NewFunction(id, name, self.blocks)
}
