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

// TextureInfo is the metadata attached to texture and image operations.
//
// While TexBindless is set, source 0 is the 32-bit handle. After resolution
// through an array, source 0 is the index into the texture array and, with a
// separate sampler, source 1 is the index into the sampler array.
type TextureInfo struct {
    Type               SamplerType
    Format             TextureFormat
    Flags              TextureFlags
    Binding            SetBindingPair
    ArrayLength        int
    SeparateSampler    bool
    SamplerBinding     SetBindingPair
    SamplerArrayLength int
}

func (self *TextureInfo) IsBindless() bool {
    return self.Flags & TexBindless != 0
}

// Operation is a single instruction with ordered dests and sources.
type Operation struct {
    node
    Inst        Instruction
    StorageKind StorageKind
    Tex         *TextureInfo
    dests       []*Operand
    sources     []*Operand
}

// NewOperation creates an operation with at most one dest; `dest` may be nil.
func NewOperation(inst Instruction, dest *Operand, sources ...*Operand) *Operation {
    if dest == nil {
        return NewMultiDestOperation(inst, nil, sources...)
    } else {
        return NewMultiDestOperation(inst, []*Operand { dest }, sources...)
    }
}

func NewStorageOperation(inst Instruction, kind StorageKind, dest *Operand, sources ...*Operand) *Operation {
    ret := NewOperation(inst, dest, sources...)
    ret.StorageKind = kind
    return ret
}

func NewMultiDestOperation(inst Instruction, dests []*Operand, sources ...*Operand) *Operation {
    ret := &Operation {
        node    : newNode(),
        Inst    : inst,
        dests   : make([]*Operand, len(dests)),
        sources : make([]*Operand, len(sources)),
    }

    /* bind all the dests */
    for i, v := range dests {
        ret.dests[i] = v
        v.setDef(ret)
    }

    /* register all the uses */
    for i, v := range sources {
        ret.sources[i] = v
        v.addUse(ret)
    }
    return ret
}

func NewTextureOperation(inst Instruction, tex TextureInfo, dests []*Operand, sources ...*Operand) *Operation {
    ret := NewMultiDestOperation(inst, dests, sources...)
    ret.Tex = &tex
    return ret
}

// Result returns the first dest, or nil if the operation has none.
func (self *Operation) Result() *Operand {
    if len(self.dests) == 0 {
        return nil
    } else {
        return self.dests[0]
    }
}

func (self *Operation) DestCount() int {
    return len(self.dests)
}

func (self *Operation) Dest(i int) *Operand {
    return self.dests[i]
}

func (self *Operation) Dests() []*Operand {
    return append([]*Operand(nil), self.dests...)
}

func (self *Operation) SetDest(i int, v *Operand) {
    if old := self.dests[i]; old != nil {
        old.clearDef(self)
    }
    self.dests[i] = v
    v.setDef(self)
}

func (self *Operation) SourceCount() int {
    return len(self.sources)
}

func (self *Operation) Source(i int) *Operand {
    return self.sources[i]
}

func (self *Operation) Sources() []*Operand {
    return append([]*Operand(nil), self.sources...)
}

func (self *Operation) SetSource(i int, v *Operand) {
    self.sources[i].removeUse(self)
    self.sources[i] = v
    v.addUse(self)
}

func (self *Operation) AppendSource(v *Operand) {
    self.sources = append(self.sources, v)
    v.addUse(self)
}

func (self *Operation) InsertSource(i int, v *Operand) {
    self.sources = append(self.sources, nil)
    copy(self.sources[i + 1:], self.sources[i:])
    self.sources[i] = v
    v.addUse(self)
}

func (self *Operation) RemoveSource(i int) {
    self.sources[i].removeUse(self)
    self.sources = append(self.sources[:i], self.sources[i + 1:]...)
}

// SetSources replaces every source at once.
func (self *Operation) SetSources(sources ...*Operand) {
    self.ClearSources()
    for _, v := range sources {
        self.AppendSource(v)
    }
}

func (self *Operation) ClearSources() {
    for _, v := range self.sources {
        v.removeUse(self)
    }
    self.sources = self.sources[:0]
}

// TurnInto changes the instruction and sources in place, keeping the dests.
func (self *Operation) TurnInto(inst Instruction, sources ...*Operand) {
    self.Inst = inst
    self.StorageKind = StorageNone
    self.Tex = nil
    self.SetSources(sources...)
}

// TurnIntoCopy makes the operation a plain copy of `v`.
func (self *Operation) TurnIntoCopy(v *Operand) {
    self.TurnInto(Copy, v)
}

// SetBinding resolves a bindless operation to a fixed binding, removing the
// handle source.
func (self *Operation) SetBinding(binding SetBindingPair) {
    if self.Tex.IsBindless() {
        self.RemoveSource(0)
        self.Tex.Flags &^= TexBindless
    }
    self.Tex.Binding = binding
}

// TurnIntoArray resolves a bindless operation to an element of a texture
// array, source 0 becomes the element index.
func (self *Operation) TurnIntoArray(binding SetBindingPair, length int) {
    self.Tex.Flags &^= TexBindless
    self.Tex.Binding = binding
    self.Tex.ArrayLength = length
}

// TurnIntoSeparateArray is TurnIntoArray with an additional sampler array;
// the sampler index must already be present as source 1.
func (self *Operation) TurnIntoSeparateArray(tex SetBindingPair, length int, sampler SetBindingPair, samplerLength int) {
    self.TurnIntoArray(tex, length)
    self.Tex.SeparateSampler = true
    self.Tex.SamplerBinding = sampler
    self.Tex.SamplerArrayLength = samplerLength
}

// IsBindless reports whether the operation is a texture operation that still
// carries a handle.
func (self *Operation) IsBindless() bool {
    return self.Tex != nil && self.Tex.IsBindless()
}

func (self *Operation) String() string {
    return formatOperation(self, nil)
}
