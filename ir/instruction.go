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

// Instruction is the opcode of an Operation. The low 16 bits select the
// operation, the FP32 and FP64 flags select the floating-point variant.
type Instruction uint32

const (
    FP32 Instruction = 1 << 16
    FP64 Instruction = 1 << 17
    Mask Instruction = 0xffff
)

const (
    Invalid Instruction = iota
    Absolute
    Add
    AtomicAdd
    AtomicAnd
    AtomicCompareAndSwap
    AtomicMaxS32
    AtomicMaxU32
    AtomicMinS32
    AtomicMinU32
    AtomicOr
    AtomicSwap
    AtomicXor
    Barrier
    BitCount
    BitfieldExtractS32
    BitfieldExtractU32
    BitfieldInsert
    BitfieldReverse
    BitwiseAnd
    BitwiseExclusiveOr
    BitwiseNot
    BitwiseOr
    Branch
    BranchIfFalse
    BranchIfTrue
    Call
    Ceiling
    Clamp
    ClampU32
    CompareEqual
    CompareGreater
    CompareGreaterOrEqual
    CompareGreaterOrEqualU32
    CompareGreaterU32
    CompareLess
    CompareLessOrEqual
    CompareLessOrEqualU32
    CompareLessU32
    CompareNotEqual
    ConditionalSelect
    ConvertFP32ToFP64
    ConvertFP32ToS32
    ConvertFP32ToU32
    ConvertFP64ToFP32
    ConvertS32ToFP32
    ConvertU32ToFP32
    Copy
    Ddx
    Ddy
    Discard
    Divide
    FindMSBU32
    Floor
    FusedMultiplyAdd
    ImageAtomic
    ImageLoad
    ImageStore
    IsNan
    Load
    Lod
    LogicalAnd
    LogicalExclusiveOr
    LogicalNot
    LogicalOr
    Maximum
    MaximumU32
    MemoryBarrier
    Minimum
    MinimumU32
    Multiply
    Negate
    PackDouble2x32
    PackHalf2x16
    ReciprocalSquareRoot
    Return
    Round
    ShiftLeft
    ShiftRightS32
    ShiftRightU32
    ShuffleXor
    SquareRoot
    Store
    Subtract
    SwizzleAdd
    TextureSample
    TextureSize
    Truncate
    UnpackDouble2x32
    UnpackHalf2x16
    instructionCount
)

var _InstructionNames = [...]string {
    Invalid                  : "Invalid",
    Absolute                 : "Absolute",
    Add                      : "Add",
    AtomicAdd                : "AtomicAdd",
    AtomicAnd                : "AtomicAnd",
    AtomicCompareAndSwap     : "AtomicCompareAndSwap",
    AtomicMaxS32             : "AtomicMaxS32",
    AtomicMaxU32             : "AtomicMaxU32",
    AtomicMinS32             : "AtomicMinS32",
    AtomicMinU32             : "AtomicMinU32",
    AtomicOr                 : "AtomicOr",
    AtomicSwap               : "AtomicSwap",
    AtomicXor                : "AtomicXor",
    Barrier                  : "Barrier",
    BitCount                 : "BitCount",
    BitfieldExtractS32       : "BitfieldExtractS32",
    BitfieldExtractU32       : "BitfieldExtractU32",
    BitfieldInsert           : "BitfieldInsert",
    BitfieldReverse          : "BitfieldReverse",
    BitwiseAnd               : "BitwiseAnd",
    BitwiseExclusiveOr       : "BitwiseExclusiveOr",
    BitwiseNot               : "BitwiseNot",
    BitwiseOr                : "BitwiseOr",
    Branch                   : "Branch",
    BranchIfFalse            : "BranchIfFalse",
    BranchIfTrue             : "BranchIfTrue",
    Call                     : "Call",
    Ceiling                  : "Ceiling",
    Clamp                    : "Clamp",
    ClampU32                 : "ClampU32",
    CompareEqual             : "CompareEqual",
    CompareGreater           : "CompareGreater",
    CompareGreaterOrEqual    : "CompareGreaterOrEqual",
    CompareGreaterOrEqualU32 : "CompareGreaterOrEqualU32",
    CompareGreaterU32        : "CompareGreaterU32",
    CompareLess              : "CompareLess",
    CompareLessOrEqual       : "CompareLessOrEqual",
    CompareLessOrEqualU32    : "CompareLessOrEqualU32",
    CompareLessU32           : "CompareLessU32",
    CompareNotEqual          : "CompareNotEqual",
    ConditionalSelect        : "ConditionalSelect",
    ConvertFP32ToFP64        : "ConvertFP32ToFP64",
    ConvertFP32ToS32         : "ConvertFP32ToS32",
    ConvertFP32ToU32         : "ConvertFP32ToU32",
    ConvertFP64ToFP32        : "ConvertFP64ToFP32",
    ConvertS32ToFP32         : "ConvertS32ToFP32",
    ConvertU32ToFP32         : "ConvertU32ToFP32",
    Copy                     : "Copy",
    Ddx                      : "Ddx",
    Ddy                      : "Ddy",
    Discard                  : "Discard",
    Divide                   : "Divide",
    FindMSBU32               : "FindMSBU32",
    Floor                    : "Floor",
    FusedMultiplyAdd         : "FusedMultiplyAdd",
    ImageAtomic              : "ImageAtomic",
    ImageLoad                : "ImageLoad",
    ImageStore               : "ImageStore",
    IsNan                    : "IsNan",
    Load                     : "Load",
    Lod                      : "Lod",
    LogicalAnd               : "LogicalAnd",
    LogicalExclusiveOr       : "LogicalExclusiveOr",
    LogicalNot               : "LogicalNot",
    LogicalOr                : "LogicalOr",
    Maximum                  : "Maximum",
    MaximumU32               : "MaximumU32",
    MemoryBarrier            : "MemoryBarrier",
    Minimum                  : "Minimum",
    MinimumU32               : "MinimumU32",
    Multiply                 : "Multiply",
    Negate                   : "Negate",
    PackDouble2x32           : "PackDouble2x32",
    PackHalf2x16             : "PackHalf2x16",
    ReciprocalSquareRoot     : "ReciprocalSquareRoot",
    Return                   : "Return",
    Round                    : "Round",
    ShiftLeft                : "ShiftLeft",
    ShiftRightS32            : "ShiftRightS32",
    ShiftRightU32            : "ShiftRightU32",
    ShuffleXor               : "ShuffleXor",
    SquareRoot               : "SquareRoot",
    Store                    : "Store",
    Subtract                 : "Subtract",
    SwizzleAdd               : "SwizzleAdd",
    TextureSample            : "TextureSample",
    TextureSize              : "TextureSize",
    Truncate                 : "Truncate",
    UnpackDouble2x32         : "UnpackDouble2x32",
    UnpackHalf2x16           : "UnpackHalf2x16",
}

// Variadic marks an open-ended operand count in an Arity.
const Variadic = -1

// Arity describes how many dests and sources an instruction takes.
type Arity struct {
    Dests     int
    MinSource int
    MaxSource int
}

var (
    _Unary   = Arity { 1, 1, 1 }
    _Binary  = Arity { 1, 2, 2 }
    _Ternary = Arity { 1, 3, 3 }
    _Memory  = Arity { Variadic, 1, Variadic }
    _Texture = Arity { Variadic, 0, Variadic }
    _Nothing = Arity { 0, 0, 0 }
)

var _InstructionArity = [...]Arity {
    Absolute                 : _Unary,
    Add                      : _Binary,
    AtomicAdd                : _Memory,
    AtomicAnd                : _Memory,
    AtomicCompareAndSwap     : _Memory,
    AtomicMaxS32             : _Memory,
    AtomicMaxU32             : _Memory,
    AtomicMinS32             : _Memory,
    AtomicMinU32             : _Memory,
    AtomicOr                 : _Memory,
    AtomicSwap               : _Memory,
    AtomicXor                : _Memory,
    Barrier                  : _Nothing,
    BitCount                 : _Unary,
    BitfieldExtractS32       : _Ternary,
    BitfieldExtractU32       : _Ternary,
    BitfieldInsert           : { 1, 4, 4 },
    BitfieldReverse          : _Unary,
    BitwiseAnd               : _Binary,
    BitwiseExclusiveOr       : _Binary,
    BitwiseNot               : _Unary,
    BitwiseOr                : _Binary,
    Branch                   : _Nothing,
    BranchIfFalse            : { 0, 1, 1 },
    BranchIfTrue             : { 0, 1, 1 },
    Call                     : { Variadic, 1, Variadic },
    Ceiling                  : _Unary,
    Clamp                    : _Ternary,
    ClampU32                 : _Ternary,
    CompareEqual             : _Binary,
    CompareGreater           : _Binary,
    CompareGreaterOrEqual    : _Binary,
    CompareGreaterOrEqualU32 : _Binary,
    CompareGreaterU32        : _Binary,
    CompareLess              : _Binary,
    CompareLessOrEqual       : _Binary,
    CompareLessOrEqualU32    : _Binary,
    CompareLessU32           : _Binary,
    CompareNotEqual          : _Binary,
    ConditionalSelect        : _Ternary,
    ConvertFP32ToFP64        : _Unary,
    ConvertFP32ToS32         : _Unary,
    ConvertFP32ToU32         : _Unary,
    ConvertFP64ToFP32        : _Unary,
    ConvertS32ToFP32         : _Unary,
    ConvertU32ToFP32         : _Unary,
    Copy                     : _Unary,
    Ddx                      : _Unary,
    Ddy                      : _Unary,
    Discard                  : _Nothing,
    Divide                   : _Binary,
    FindMSBU32               : _Unary,
    Floor                    : _Unary,
    FusedMultiplyAdd         : _Ternary,
    ImageAtomic              : _Texture,
    ImageLoad                : _Texture,
    ImageStore               : _Texture,
    IsNan                    : _Unary,
    Load                     : _Memory,
    Lod                      : _Texture,
    LogicalAnd               : _Binary,
    LogicalExclusiveOr       : _Binary,
    LogicalNot               : _Unary,
    LogicalOr                : _Binary,
    Maximum                  : _Binary,
    MaximumU32               : _Binary,
    MemoryBarrier            : _Nothing,
    Minimum                  : _Binary,
    MinimumU32               : _Binary,
    Multiply                 : _Binary,
    Negate                   : _Unary,
    PackDouble2x32           : _Binary,
    PackHalf2x16             : _Binary,
    ReciprocalSquareRoot     : _Unary,
    Return                   : { 0, 0, Variadic },
    Round                    : _Unary,
    ShiftLeft                : _Binary,
    ShiftRightS32            : _Binary,
    ShiftRightU32            : _Binary,
    ShuffleXor               : _Ternary,
    SquareRoot               : _Unary,
    Store                    : _Memory,
    Subtract                 : _Binary,
    SwizzleAdd               : _Ternary,
    TextureSample            : _Texture,
    TextureSize              : _Texture,
    Truncate                 : _Unary,
    UnpackDouble2x32         : { 2, 1, 1 },
    UnpackHalf2x16           : { 2, 1, 1 },
}

// LookupInstruction finds an instruction by its name.
func LookupInstruction(name string) (Instruction, bool) {
    for i, v := range _InstructionNames {
        if v == name && i != int(Invalid) {
            return Instruction(i), true
        }
    }
    return Invalid, false
}

// Base strips the floating-point type flags.
func (self Instruction) Base() Instruction {
    return self & Mask
}

func (self Instruction) IsFP32() bool {
    return self & FP32 != 0
}

func (self Instruction) IsFP64() bool {
    return self & FP64 != 0
}

func (self Instruction) Arity() Arity {
    if i := self.Base(); i < instructionCount {
        return _InstructionArity[i]
    } else {
        panic(fmt.Sprintf("invalid instruction: %#x", uint32(self)))
    }
}

func (self Instruction) IsAtomic() bool {
    switch self.Base() {
        case AtomicAdd, AtomicAnd, AtomicCompareAndSwap, AtomicMaxS32, AtomicMaxU32 : return true
        case AtomicMinS32, AtomicMinU32, AtomicOr, AtomicSwap, AtomicXor           : return true
        default                                                                     : return false
    }
}

func (self Instruction) IsComparison() bool {
    switch self.Base() {
        case CompareEqual, CompareNotEqual                                    : return true
        case CompareGreater, CompareGreaterOrEqual, CompareLess               : return true
        case CompareLessOrEqual, CompareGreaterU32, CompareGreaterOrEqualU32 : return true
        case CompareLessU32, CompareLessOrEqualU32                           : return true
        default                                                               : return false
    }
}

// IsTexture reports whether the instruction carries texture or image metadata.
func (self Instruction) IsTexture() bool {
    switch self.Base() {
        case TextureSample, TextureSize, Lod, ImageLoad, ImageStore, ImageAtomic : return true
        default                                                                  : return false
    }
}

func (self Instruction) IsImage() bool {
    switch self.Base() {
        case ImageLoad, ImageStore, ImageAtomic : return true
        default                                 : return false
    }
}

// IsTextureQuery reports whether the instruction only queries texture properties.
func (self Instruction) IsTextureQuery() bool {
    switch self.Base() {
        case TextureSize, Lod : return true
        default               : return false
    }
}

func (self Instruction) IsBranch() bool {
    switch self.Base() {
        case Branch, BranchIfFalse, BranchIfTrue : return true
        default                                  : return false
    }
}

func (self Instruction) IsConditionalBranch() bool {
    switch self.Base() {
        case BranchIfFalse, BranchIfTrue : return true
        default                          : return false
    }
}

// IsTerminator reports whether the instruction must be the last one in a block.
func (self Instruction) IsTerminator() bool {
    switch self.Base() {
        case Branch, BranchIfFalse, BranchIfTrue, Return, Discard : return true
        default                                                   : return false
    }
}

// HasSideEffects reports whether an operation with this instruction must be
// kept even if none of its results are used.
func (self Instruction) HasSideEffects() bool {
    switch self.Base() {
        case Call, ImageAtomic, ImageStore, Store        : return true
        case Barrier, MemoryBarrier, Discard, Return     : return true
        case Branch, BranchIfFalse, BranchIfTrue         : return true
        default                                          : return self.IsAtomic()
    }
}

func (self Instruction) String() string {
    var s string
    var i Instruction

    /* find the name */
    if i = self.Base(); i < instructionCount {
        s = _InstructionNames[i]
    } else {
        s = fmt.Sprintf("Instruction(%d)", uint32(i))
    }

    /* add the type suffix */
    switch {
        case self.IsFP32() : return s + ".fp32"
        case self.IsFP64() : return s + ".fp64"
        default            : return s
    }
}
