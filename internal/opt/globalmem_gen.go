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

package opt

import (
    `fmt`

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/helper`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// valueCount returns how many data sources follow the address.
func valueCount(inst ir.Instruction) int {
    switch inst.Base() {
        case ir.Load                 : return 0
        case ir.AtomicCompareAndSwap : return 2
        default                      : return 1
    }
}

func helperArgs(from int, n int) []*ir.Operand {
    ret := make([]*ir.Operand, n)
    for i := range ret {
        ret[i] = ir.Arg(from + i)
    }
    return ret
}

func finishHelper(e *ir.Emitter, name string, inst ir.Instruction, nargs int) *ir.Function {
    fn := e.Finish(-1, name)
    fn.InArguments = nargs
    fn.ReturnsValue = inst.Base() != ir.Store
    return fn
}

// generateSingleTarget builds `f(offset, values...)` accessing the storage
// buffer `binding` at byte `offset`.
func generateSingleTarget(ctx *Context, inst ir.Instruction, kind ir.StorageKind, binding int) *ir.Function {
    e := ir.NewEmitter()
    n := valueCount(inst)

    /* the access itself */
    if r := emitStorageAccess(e, ctx.Target, inst, kind, binding, ir.Arg(0), helperArgs(1, n)); r != nil {
        e.Return(r)
    } else {
        e.Return()
    }

    /* build the function */
    name := fmt.Sprintf("Storage%s_%s_%d", inst.Base(), kind, binding)
    return finishHelper(e, name, inst, n + 1)
}

// generateMultiTarget builds `f(addrLow, addrHigh, values...)`, which checks
// the address against each target in turn and accesses the first one that
// contains it. Loads and atomics outside every target return zero.
func generateMultiTarget(ctx *Context, inst ir.Instruction, kind ir.StorageKind, ts []helper.Target, bindings []int) *ir.Function {
    e := ir.NewEmitter()
    n := valueCount(inst)
    lo := ir.Arg(0)
    hi := ir.Arg(1)
    vals := helperArgs(2, n)

    /* one range check per target */
    for i, t := range ts {
        skip := e.NewLabel()
        base := ir.Cbuf(t.Slot, t.Offset)
        size := ir.Cbuf(t.Slot, t.Offset + 2)

        /* 64-bit base <= addr < base + size */
        off := e.Emit(ir.Subtract, lo, base)
        borrow := e.Emit(ir.CompareLessU32, lo, base)
        inLo := e.Emit(ir.CompareLessU32, off, size)
        inHi := e.Emit(ir.CompareEqual, e.Emit(ir.Add, hi, borrow), ir.Cbuf(t.Slot, t.Offset + 1))
        e.BranchIfFalse(skip, e.Emit(ir.BitwiseAnd, inLo, inHi))

        /* the host binds buffers at an aligned address below the real base */
        if ctx.Accessor.QueryHasUnalignedStorageBuffer() {
            align := int32(ctx.Accessor.QueryHostStorageBufferOffsetAlignment())
            off = e.Emit(ir.Add, off, e.Emit(ir.Subtract, base, e.Emit(ir.BitwiseAnd, base, ir.Const(-align))))
        }

        /* access and leave */
        if r := emitStorageAccess(e, ctx.Target, inst, kind, bindings[i], off, vals); r != nil {
            e.Return(r)
        } else {
            e.Return()
        }
        e.MarkLabel(skip)
    }

    /* no target matched */
    if inst.Base() == ir.Store {
        e.Return()
    } else {
        e.Return(ir.Const(0))
    }

    /* build the function */
    name := fmt.Sprintf("Storage%s_%s_x%d", inst.Base(), kind, len(ts))
    return finishHelper(e, name, inst, n + 2)
}

// emitStorageAccess emits `inst` on storage buffer `binding` at byte `off`,
// returning the result or nil for stores.
func emitStorageAccess(e *ir.Emitter, target gpu.TargetLanguage, inst ir.Instruction, kind ir.StorageKind, binding int, off *ir.Operand, vals []*ir.Operand) *ir.Operand {
    b := ir.Const(int32(binding))
    w := e.Emit(ir.ShiftRightU32, off, ir.Const(2))

    /* 8 and 16 bit elements live inside a word */
    if kind.IsSmallInt() {
        return emitSubwordAccess(e, inst, kind, b, w, off, vals)
    }

    /* signed min and max are only native on SPIR-V */
    if target != gpu.SPIRV {
        switch inst.Base() {
            case ir.AtomicMinS32 : return emitCompareAndSwapLoop(e, b, w, combineWith(e, ir.Minimum, vals[0]))
            case ir.AtomicMaxS32 : return emitCompareAndSwapLoop(e, b, w, combineWith(e, ir.Maximum, vals[0]))
        }
    }

    /* native access */
    srcs := append([]*ir.Operand { b, ir.Const(0), w }, vals...)
    if inst.Base() == ir.Store {
        e.EmitVoid(inst, ir.StorageStorageBuffer, srcs...)
        return nil
    } else {
        return e.EmitStorage(inst, ir.StorageStorageBuffer, srcs...)
    }
}

func emitSubwordAccess(e *ir.Emitter, inst ir.Instruction, kind ir.StorageKind, b *ir.Operand, w *ir.Operand, off *ir.Operand, vals []*ir.Operand) *ir.Operand {
    bits := ir.Const(int32(kind.ElementBits()))
    shift := e.Emit(ir.ShiftLeft, e.Emit(ir.BitwiseAnd, off, ir.Const(3)), ir.Const(3))

    /* loads extract */
    switch inst.Base() {
        case ir.Load: {
            word := e.EmitStorage(ir.Load, ir.StorageStorageBuffer, b, ir.Const(0), w)
            if kind.IsSigned() {
                return e.Emit(ir.BitfieldExtractS32, word, shift, bits)
            } else {
                return e.Emit(ir.BitfieldExtractU32, word, shift, bits)
            }
        }

        /* stores insert, racing with neighbours in the same word */
        case ir.Store: {
            emitCompareAndSwapLoop(e, b, w, func(old *ir.Operand) *ir.Operand {
                return e.Emit(ir.BitfieldInsert, old, vals[0], shift, bits)
            })
            return nil
        }
    }
    raise(UnsupportedOperand, "%s is not supported on %s memory", inst, kind)
    return nil
}

// emitCompareAndSwapLoop retries `word = update(word)` until no other
// invocation wrote the word in between, and returns the old value.
func emitCompareAndSwapLoop(e *ir.Emitter, b *ir.Operand, w *ir.Operand, update func(old *ir.Operand) *ir.Operand) *ir.Operand {
    loop := e.NewLabel()
    e.MarkLabel(loop)

    /* read, compute, exchange */
    old := e.EmitStorage(ir.Load, ir.StorageStorageBuffer, b, ir.Const(0), w)
    res := e.EmitStorage(ir.AtomicCompareAndSwap, ir.StorageStorageBuffer, b, ir.Const(0), w, old, update(old))
    e.BranchIfFalse(loop, e.Emit(ir.CompareEqual, res, old))
    return old
}

func combineWith(e *ir.Emitter, inst ir.Instruction, v *ir.Operand) func(*ir.Operand) *ir.Operand {
    return func(old *ir.Operand) *ir.Operand {
        return e.Emit(inst, old, v)
    }
}
