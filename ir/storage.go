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
    `strings`
)

// StorageKind selects the memory space a Load, Store or atomic operates on.
//
// Source layouts by kind:
//
//     ConstantBuffer    binding, field, vector index, element index
//     StorageBuffer     binding, field, word offset, values...
//     Shared/Local      word offset, values...
//     Global*           address low, address high, values...
//     Input/Output      io variable, component, values...
//
type StorageKind uint8

const (
    StorageNone StorageKind = iota
    StorageInput
    StorageOutput
    StorageConstantBuffer
    StorageStorageBuffer
    StorageLocalMemory
    StorageSharedMemory
    StorageGlobalMemory
    StorageGlobalMemoryS8
    StorageGlobalMemoryS16
    StorageGlobalMemoryU8
    StorageGlobalMemoryU16
    storageKindCount
)

var _StorageNames = [...]string {
    StorageNone            : "",
    StorageInput           : "input",
    StorageOutput          : "output",
    StorageConstantBuffer  : "cbuf",
    StorageStorageBuffer   : "sbuf",
    StorageLocalMemory     : "local",
    StorageSharedMemory    : "shared",
    StorageGlobalMemory    : "global",
    StorageGlobalMemoryS8  : "global.s8",
    StorageGlobalMemoryS16 : "global.s16",
    StorageGlobalMemoryU8  : "global.u8",
    StorageGlobalMemoryU16 : "global.u16",
}

// LookupStorageKind finds a storage kind by its printed name.
func LookupStorageKind(name string) (StorageKind, bool) {
    for i, v := range _StorageNames {
        if v == name && i != int(StorageNone) {
            return StorageKind(i), true
        }
    }
    return StorageNone, false
}

func (self StorageKind) IsGlobalMemory() bool {
    return self >= StorageGlobalMemory && self <= StorageGlobalMemoryU16
}

// IsSmallInt reports whether the kind accesses 8 or 16 bit integers.
func (self StorageKind) IsSmallInt() bool {
    return self >= StorageGlobalMemoryS8 && self <= StorageGlobalMemoryU16
}

func (self StorageKind) IsSigned() bool {
    return self == StorageGlobalMemoryS8 || self == StorageGlobalMemoryS16
}

// ElementBits returns the width of a single element in bits.
func (self StorageKind) ElementBits() int {
    switch self {
        case StorageGlobalMemoryS8, StorageGlobalMemoryU8   : return 8
        case StorageGlobalMemoryS16, StorageGlobalMemoryU16 : return 16
        default                                             : return 32
    }
}

// IsMemory reports whether the kind is shared or local scratch memory.
func (self StorageKind) IsMemory() bool {
    return self == StorageSharedMemory || self == StorageLocalMemory
}

func (self StorageKind) String() string {
    if self < storageKindCount {
        return _StorageNames[self]
    } else {
        return fmt.Sprintf("storage(%d)", uint8(self))
    }
}

// IoVariable identifies a built-in shader input or output.
type IoVariable int32

const (
    IoUserDefined IoVariable = iota
    IoPosition
    IoFragmentCoord
    IoFragmentOutputColor
    IoInstanceId
    IoVertexId
    IoThreadId
    IoSubgroupLaneId
)

// SamplerType describes the dimensionality and flavour of a texture.
type SamplerType uint16

const (
    SamplerNone SamplerType = iota
    Texture1D
    TextureBuffer
    Texture2D
    Texture3D
    TextureCube

    Array       SamplerType = 1 << 8
    Indexed     SamplerType = 1 << 9
    Multisample SamplerType = 1 << 10
    Shadow      SamplerType = 1 << 11
    SamplerMask SamplerType = 0xff
)

var _SamplerNames = map[SamplerType]string {
    SamplerNone   : "none",
    Texture1D     : "1d",
    TextureBuffer : "buffer",
    Texture2D     : "2d",
    Texture3D     : "3d",
    TextureCube   : "cube",
}

var _SamplerFlags = []struct {
    f SamplerType
    s string
} {
    { Array       , "array" },
    { Multisample , "ms"    },
    { Shadow      , "shadow" },
    { Indexed     , "indexed" },
}

// LookupSamplerType parses names like "2d" or "2d.array.shadow".
func LookupSamplerType(name string) (SamplerType, bool) {
    var ok bool
    var ret SamplerType
    var tok = strings.Split(name, ".")

    /* dimension */
    for t, s := range _SamplerNames {
        if s == tok[0] {
            ret, ok = t, true
            break
        }
    }

    /* flags */
    for _, f := range tok[1:] {
        found := false
        for _, v := range _SamplerFlags {
            if v.s == f {
                ret |= v.f
                found = true
            }
        }
        ok = ok && found
    }
    return ret, ok
}

func (self SamplerType) String() string {
    s, ok := _SamplerNames[self & SamplerMask]
    if !ok {
        s = fmt.Sprintf("sampler(%d)", uint16(self & SamplerMask))
    }
    for _, v := range _SamplerFlags {
        if self & v.f != 0 {
            s += "." + v.s
        }
    }
    return s
}

// TextureFormat is the storage format of an image.
type TextureFormat uint8

const (
    FormatUnknown TextureFormat = iota
    FormatR8Unorm
    FormatR8Uint
    FormatR16Float
    FormatR16Uint
    FormatR32Float
    FormatR32Uint
    FormatR32Sint
    FormatRgba8Unorm
    FormatRgba8Uint
    FormatRgba16Float
    FormatRgba32Float
    FormatRgba32Uint
    textureFormatCount
)

var _FormatNames = [...]string {
    FormatUnknown     : "unknown",
    FormatR8Unorm     : "r8",
    FormatR8Uint      : "r8ui",
    FormatR16Float    : "r16f",
    FormatR16Uint     : "r16ui",
    FormatR32Float    : "r32f",
    FormatR32Uint     : "r32ui",
    FormatR32Sint     : "r32i",
    FormatRgba8Unorm  : "rgba8",
    FormatRgba8Uint   : "rgba8ui",
    FormatRgba16Float : "rgba16f",
    FormatRgba32Float : "rgba32f",
    FormatRgba32Uint  : "rgba32ui",
}

func LookupTextureFormat(name string) (TextureFormat, bool) {
    for i, v := range _FormatNames {
        if v == name {
            return TextureFormat(i), true
        }
    }
    return FormatUnknown, false
}

func (self TextureFormat) String() string {
    if self < textureFormatCount {
        return _FormatNames[self]
    } else {
        return fmt.Sprintf("format(%d)", uint8(self))
    }
}

// TextureFlags modify how a texture operation is performed.
type TextureFlags uint16

const (
    TexBindless TextureFlags = 1 << iota
    TexGather
    TexDerivatives
    TexIntCoords
    TexLodBias
    TexLodLevel
    TexOffset
)

// SetBindingPair is a (descriptor set, binding) location assigned by the
// resource manager.
type SetBindingPair struct {
    Set     int
    Binding int
}

func (self SetBindingPair) String() string {
    return fmt.Sprintf("%d:%d", self.Set, self.Binding)
}
