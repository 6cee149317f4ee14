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
    `math`
    `sort`
    `sync/atomic`
)

var localSerial uint32

type OperandType uint8

const (
    Undefined OperandType = iota
    Constant
    ConstantBuffer
    LocalVariable
    Argument
)

// Operand is a value read or written by a node. Only LocalVariable operands
// carry a definition and a use set, every other kind is a plain value.
type Operand struct {
    Type  OperandType
    Value int32
    def   INode
    uses  map[INode]int
}

func Const(v int32) *Operand {
    return &Operand { Type: Constant, Value: v }
}

func ConstF(v float32) *Operand {
    return Const(int32(math.Float32bits(v)))
}

// Cbuf references word `offset` of the constant buffer in `slot`.
func Cbuf(slot int, offset int) *Operand {
    return &Operand { Type: ConstantBuffer, Value: int32(slot << 16) | int32(offset & 0xffff) }
}

// Local creates a fresh local variable. The value is a serial number used
// only for printing detached operands.
func Local() *Operand {
    return &Operand { Type: LocalVariable, Value: int32(atomic.AddUint32(&localSerial, 1)) }
}

func Undef() *Operand {
    return &Operand { Type: Undefined }
}

func Arg(index int) *Operand {
    return &Operand { Type: Argument, Value: int32(index) }
}

func (self *Operand) IsConst() bool {
    return self.Type == Constant
}

// IsConstValue reports whether the operand is the constant `v`.
func (self *Operand) IsConstValue(v int32) bool {
    return self.Type == Constant && self.Value == v
}

func (self *Operand) IsCbuf() bool {
    return self.Type == ConstantBuffer
}

func (self *Operand) IsLocal() bool {
    return self.Type == LocalVariable
}

func (self *Operand) AsFloat() float32 {
    return math.Float32frombits(uint32(self.Value))
}

func (self *Operand) CbufSlot() int {
    return int(uint32(self.Value) >> 16)
}

func (self *Operand) CbufOffset() int {
    return int(self.Value & 0xffff)
}

// Def returns the node defining this local, or nil.
func (self *Operand) Def() INode {
    return self.def
}

// DefOp returns the defining node if it is an Operation.
func (self *Operand) DefOp() *Operation {
    if op, ok := self.def.(*Operation); ok {
        return op
    } else {
        return nil
    }
}

// DefPhi returns the defining node if it is a PhiNode.
func (self *Operand) DefPhi() *PhiNode {
    if phi, ok := self.def.(*PhiNode); ok {
        return phi
    } else {
        return nil
    }
}

// Uses returns the nodes reading this operand in creation order.
func (self *Operand) Uses() []INode {
    ret := make([]INode, 0, len(self.uses))
    for n := range self.uses {
        ret = append(ret, n)
    }
    sort.Slice(ret, func(i int, j int) bool {
        return ret[i].ID() < ret[j].ID()
    })
    return ret
}

// UseCount returns the number of distinct nodes reading this operand.
func (self *Operand) UseCount() int {
    return len(self.uses)
}

// UsedBy returns how many source slots of `node` read this operand.
func (self *Operand) UsedBy(node INode) int {
    return self.uses[node]
}

func (self *Operand) addUse(node INode) {
    if self.Type == LocalVariable {
        if self.uses == nil {
            self.uses = make(map[INode]int)
        }
        self.uses[node]++
    }
}

func (self *Operand) removeUse(node INode) {
    if self.Type == LocalVariable {
        if n := self.uses[node]; n > 1 {
            self.uses[node] = n - 1
        } else if n == 1 {
            delete(self.uses, node)
        } else {
            panic(fmt.Sprintf("ir: removing a non-existing use of %s from %s", self, node))
        }
    }
}

func (self *Operand) setDef(node INode) {
    if self.Type == LocalVariable {
        self.def = node
    }
}

func (self *Operand) clearDef(node INode) {
    if self.Type == LocalVariable && self.def == node {
        self.def = nil
    }
}

// Equals reports whether two operands denote the same value: the same local,
// or the same constant or constant-buffer reference.
func (self *Operand) Equals(other *Operand) bool {
    if self == other {
        return true
    } else if self == nil || other == nil {
        return false
    } else if self.Type != other.Type {
        return false
    } else {
        return (self.Type == Constant || self.Type == ConstantBuffer) && self.Value == other.Value
    }
}

func (self *Operand) String() string {
    switch self.Type {
        case Undefined      : return "undef"
        case Constant       : return fmt.Sprintf("%d", self.Value)
        case ConstantBuffer : return fmt.Sprintf("cb%d[%d]", self.CbufSlot(), self.CbufOffset())
        case Argument       : return fmt.Sprintf("arg%d", self.Value)
        case LocalVariable  : return fmt.Sprintf("%%%d", self.Value)
        default             : return fmt.Sprintf("operand(%d)", self.Type)
    }
}
