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

package helper

import (
    `fmt`
    `strings`

    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// Name identifies a helper that is generated without parameters.
type Name int

const (
    ConvertDoubleToFloat Name = iota
    ConvertFloatToDouble
)

func (self Name) String() string {
    switch self {
        case ConvertDoubleToFloat : return "ConvertDoubleToFloat"
        case ConvertFloatToDouble : return "ConvertFloatToDouble"
        default                   : return fmt.Sprintf("Helper(%d)", int(self))
    }
}

// Target is a (slot, offset) pair naming the constant-buffer words that hold
// a storage buffer base address and size.
type Target struct {
    Slot   int
    Offset int
}

// Signature is the identity of a generated memory helper. Two requests with
// equal signatures share one function.
type Signature struct {
    Inst        ir.Instruction
    Kind        ir.StorageKind
    MultiTarget bool
    Targets     string
}

// NewSignature normalizes a target list, which must already be sorted.
func NewSignature(inst ir.Instruction, kind ir.StorageKind, multi bool, targets []Target) Signature {
    var ss []string
    for _, t := range targets {
        ss = append(ss, fmt.Sprintf("%d:%d", t.Slot, t.Offset))
    }
    return Signature {
        Inst        : inst,
        Kind        : kind,
        MultiTarget : multi,
        Targets     : strings.Join(ss, ","),
    }
}

// Manager owns the helper functions generated while optimizing a program.
// Helper ids start right after the ids of the program's own functions.
type Manager struct {
    first int
    funcs []*ir.Function
    named map[Name]int
    keyed map[Signature]int
}

func NewManager(first int) *Manager {
    return &Manager {
        first : first,
        named : make(map[Name]int),
        keyed : make(map[Signature]int),
    }
}

// Add takes ownership of `fn` and assigns its id.
func (self *Manager) Add(fn *ir.Function) int {
    fn.Id = self.first + len(self.funcs)
    self.funcs = append(self.funcs, fn)
    return fn.Id
}

// Lookup finds a previously registered helper.
func (self *Manager) Lookup(sig Signature) (int, bool) {
    id, ok := self.keyed[sig]
    return id, ok
}

// Register adds `fn` under `sig`.
func (self *Manager) Register(sig Signature, fn *ir.Function) int {
    if _, ok := self.keyed[sig]; ok {
        panic(fmt.Sprintf("helper: duplicated signature %+v", sig))
    }
    id := self.Add(fn)
    self.keyed[sig] = id
    return id
}

// GetOrCreate returns the id of a named helper, generating it on first use.
func (self *Manager) GetOrCreate(name Name) int {
    if id, ok := self.named[name]; ok {
        return id
    }

    /* generate the helper */
    var fn *ir.Function
    switch name {
        case ConvertDoubleToFloat : fn = GenerateConvertDoubleToFloat()
        case ConvertFloatToDouble : fn = GenerateConvertFloatToDouble()
        default                   : panic("helper: unknown helper " + name.String())
    }

    /* register it */
    id := self.Add(fn)
    self.named[name] = id
    return id
}

// Function returns the helper with the given id, or nil.
func (self *Manager) Function(id int) *ir.Function {
    if i := id - self.first; i >= 0 && i < len(self.funcs) {
        return self.funcs[i]
    } else {
        return nil
    }
}

// Functions returns every helper in id order.
func (self *Manager) Functions() []*ir.Function {
    return append([]*ir.Function(nil), self.funcs...)
}
