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
    `sort`

    `github.com/oleiade/lane`
    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/helper`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// baseAddress is where a global address comes from: the storage buffer whose
// base address lives at constant-buffer word (Slot, Offset), plus a byte
// offset made of a runtime part and a constant part.
type baseAddress struct {
    Slot   int
    Offset int
    Value  *ir.Operand
    Const  int32
}

func (self baseAddress) target() helper.Target {
    return helper.Target { Slot: self.Slot, Offset: self.Offset }
}

type spillKey struct {
    kind   ir.StorageKind
    offset int32
}

// GlobalToStorage rewrites global memory accesses into storage buffer
// accesses. Addresses are traced back to a base address read from a
// constant buffer, also through addresses spilled to shared or local memory.
type GlobalToStorage struct{}

type globalState struct {
    ctx   *Context
    spill map[spillKey]baseAddress
}

func (self GlobalToStorage) Apply(ctx *Context) {
    st := &globalState {
        ctx   : ctx,
        spill : make(map[spillKey]baseAddress),
    }

    /* visit every memory operation in order */
    for _, bb := range ctx.Func.Blocks {
        for n := bb.First(); n != nil; {
            next := n.Next()
            if op, ok := n.(*ir.Operation); ok {
                st.visit(bb, op)
            }
            n = next
        }
    }
}

func (self *globalState) visit(bb *ir.BasicBlock, op *ir.Operation) {
    switch {
        case op.StorageKind.IsGlobalMemory()                  : self.rewrite(bb, op)
        case op.Inst == ir.Store && op.StorageKind.IsMemory() : self.record(bb, op)
    }
}

// record remembers which base address a spilled address refers to. A store
// that cannot be traced invalidates what was known about its location.
func (self *globalState) record(bb *ir.BasicBlock, op *ir.Operation) {
    if op.SourceCount() != 2 || !op.Source(0).IsConst() {
        return
    }

    /* look for the address being stored */
    key := spillKey { op.StorageKind, op.Source(0).Value }
    if r, ok := self.search(bb, op.Source(1), false); ok {
        self.spill[key] = r
    } else {
        delete(self.spill, key)
    }
}

func (self *globalState) rewrite(bb *ir.BasicBlock, op *ir.Operation) {
    if op.SourceCount() < 2 {
        raise(UnsupportedOperand, "%s on %s memory needs a 64-bit address", op.Inst, op.StorageKind)
    }
    if op.StorageKind.IsSmallInt() && op.Inst.IsAtomic() {
        raise(UnsupportedOperand, "%s is not supported on %s memory", op.Inst, op.StorageKind)
    }

    /* a single base address */
    if r, ok := self.search(bb, op.Source(0), true); ok {
        if self.single(op, r) {
            self.ctx.Stats.GlobalRewritten++
            return
        }
    }

    /* otherwise one of several, checked at runtime */
    if c := self.candidates(bb, op.Source(0)); len(c) != 0 {
        if self.multi(op, c) {
            self.ctx.Stats.GlobalRewritten++
            return
        }
    }

    /* nothing matched */
    self.discard(op)
}

// discard zeroes what the access would have produced, and drops stores.
func (self *globalState) discard(op *ir.Operation) {
    self.ctx.Stats.GlobalFailed++
    self.ctx.Accessor.Log(fmt.Sprintf("Failed to find storage buffer for global memory operation \"%s\".", op.Inst.Base()))

    /* stores have nothing to replace */
    if op.DestCount() == 0 {
        deleteNode(op)
    } else {
        op.TurnIntoCopy(ir.Const(0))
    }
}

// search traces `addr` back to a single base address. With `needsOffset`,
// the byte offset must be usable at the access, so spilled addresses only
// match when their offset is constant.
func (self *globalState) search(bb *ir.BasicBlock, addr *ir.Operand, needsOffset bool) (baseAddress, bool) {
    var k int32
    var v = FindLastOperation(addr, bb, true)

    /* the base address itself */
    if v.IsCbuf() {
        return baseOf(v, ir.Const(0), 0)
    }

    /* base + offset */
    op := v.DefOp()
    if op == nil || op.Inst != ir.Add {
        return self.fromMemory(op, 0, needsOffset)
    }

    /* peel a constant offset off a local */
    x, y := op.Source(0), op.Source(1)
    if x.IsConst() && y.Type == ir.LocalVariable {
        x, y = y, x
    }

    /* the local may be the base itself, or yet another add */
    if x.Type == ir.LocalVariable && y.IsConst() {
        b := FindLastOperation(x, bb, true)
        if r, ok := baseOf(b, y, 0); ok {
            return r, true
        }

        /* keep the constant for later */
        k = y.Value
        op = b.DefOp()

        /* must still be an add */
        if op == nil || op.Inst != ir.Add {
            return self.fromMemory(op, k, needsOffset)
        }
    }

    /* either side of the add may be the base */
    var ok bool
    var ret baseAddress
    for i := 0; i < 2; i++ {
        r, found := baseOf(FindLastOperation(op.Source(i), bb, true), op.Source(1 - i), k)
        if found && (!ok || r.Slot == self.ctx.Options.DriverReservedConstantBuffer) {
            ret, ok = r, true
        }
    }
    return ret, ok
}

// baseOf accepts constant-buffer words that can hold a 64-bit address.
func baseOf(v *ir.Operand, offset *ir.Operand, k int32) (baseAddress, bool) {
    if !v.IsCbuf() || v.CbufOffset() & 1 != 0 {
        return baseAddress{}, false
    }
    return baseAddress {
        Slot   : v.CbufSlot(),
        Offset : v.CbufOffset(),
        Value  : offset,
        Const  : k,
    }, true
}

// fromMemory resolves an address reloaded from shared or local memory.
func (self *globalState) fromMemory(op *ir.Operation, k int32, needsOffset bool) (baseAddress, bool) {
    if op == nil || op.Inst != ir.Load || !op.StorageKind.IsMemory() || op.SourceCount() != 1 || !op.Source(0).IsConst() {
        return baseAddress{}, false
    }

    /* must have been spilled before */
    r, ok := self.spill[spillKey { op.StorageKind, op.Source(0).Value }]
    if !ok {
        return baseAddress{}, false
    }

    /* the offset of the spilled value may not be available here */
    if needsOffset && !r.Value.IsConst() {
        return baseAddress{}, false
    }

    /* add the local constant */
    r.Const += k
    return r, true
}

// candidates collects every base address `addr` may come from through phi
// nodes. The result is sorted and free of duplicates.
func (self *globalState) candidates(bb *ir.BasicBlock, addr *ir.Operand) []baseAddress {
    var ret []baseAddress
    var q = lane.NewQueue()
    var seen = make(map[*ir.Operand]bool)
    var keys = make(map[helper.Target]bool)

    /* collects one base */
    add := func(r baseAddress, ok bool) {
        if ok && !keys[r.target()] {
            keys[r.target()] = true
            ret = append(ret, r)
        }
    }

    /* walk the definitions */
    for q.Enqueue(FindLastOperation(addr, bb, true)); !q.Empty(); {
        v := q.Dequeue().(*ir.Operand)
        if seen[v] {
            continue
        }

        /* constant-buffer words are leaves */
        seen[v] = true
        if v.IsCbuf() {
            add(baseOf(v, ir.Const(0), 0))
            continue
        }

        /* every phi source is a possibility */
        if phi := v.DefPhi(); phi != nil {
            for i := 0; i < phi.SourceCount(); i++ {
                q.Enqueue(phi.Source(i))
            }
            continue
        }

        /* look through adds and spills */
        if op := v.DefOp(); op != nil {
            switch {
                case op.Inst == ir.Add: {
                    for i := 0; i < op.SourceCount(); i++ {
                        if s := op.Source(i); !s.IsConst() {
                            q.Enqueue(s)
                        }
                    }
                }
                case op.Inst == ir.Load: {
                    add(self.fromMemory(op, 0, false))
                }
            }
        }
    }

    /* stable order for the helper signature */
    sort.Slice(ret, func(i int, j int) bool {
        if ret[i].Slot != ret[j].Slot {
            return ret[i].Slot < ret[j].Slot
        } else {
            return ret[i].Offset < ret[j].Offset
        }
    })
    return ret
}

// needsHelper reports whether the access cannot be expressed inline on the
// storage buffer for the current target.
func (self *globalState) needsHelper(op *ir.Operation) bool {
    switch {
        case op.StorageKind.IsSmallInt()       : return true
        case self.ctx.Target == gpu.SPIRV      : return false
        case op.Inst.Base() == ir.AtomicMinS32 : return true
        case op.Inst.Base() == ir.AtomicMaxS32 : return true
        default                                : return false
    }
}

// single rewrites an access with one known storage buffer.
func (self *globalState) single(op *ir.Operation, r baseAddress) bool {
    write := op.Inst != ir.Load
    binding, ok := self.ctx.Resources.TryGetStorageBufferBinding(r.Slot, r.Offset, write)
    if !ok {
        return false
    }

    /* byte offset inside the buffer */
    off := self.offsetOf(op, r)
    vals := op.Sources()[2:]

    /* inline 32-bit access */
    if !self.needsHelper(op) {
        w := insertBefore(op, ir.ShiftRightU32, off, ir.Const(2))
        op.TurnInto(op.Inst, append([]*ir.Operand { ir.Const(int32(binding)), ir.Const(0), w }, vals...)...)
        op.StorageKind = ir.StorageStorageBuffer
        return true
    }

    /* shared helper keyed by the target */
    sig := helper.NewSignature(op.Inst, op.StorageKind, false, []helper.Target { r.target() })
    id, ok := self.ctx.Helpers.Lookup(sig)
    if !ok {
        id = self.ctx.Helpers.Register(sig, generateSingleTarget(self.ctx, op.Inst, op.StorageKind, binding))
    }

    /* call it with the offset */
    op.TurnInto(ir.Call, append([]*ir.Operand { ir.Const(int32(id)), off }, vals...)...)
    return true
}

// multi calls a helper that checks the address against every candidate.
func (self *globalState) multi(op *ir.Operation, c []baseAddress) bool {
    var ts []helper.Target
    var bs []int

    /* bind every candidate that can be */
    write := op.Inst != ir.Load
    for _, r := range c {
        if b, ok := self.ctx.Resources.TryGetStorageBufferBinding(r.Slot, r.Offset, write); ok {
            ts = append(ts, r.target())
            bs = append(bs, b)
        }
    }

    /* none could be bound */
    if len(ts) == 0 {
        return false
    }

    /* shared helper keyed by the targets */
    sig := helper.NewSignature(op.Inst, op.StorageKind, true, ts)
    id, ok := self.ctx.Helpers.Lookup(sig)
    if !ok {
        id = self.ctx.Helpers.Register(sig, generateMultiTarget(self.ctx, op.Inst, op.StorageKind, ts, bs))
    }

    /* the helper takes the whole address */
    op.TurnInto(ir.Call, append([]*ir.Operand { ir.Const(int32(id)) }, op.Sources()...)...)
    return true
}

// offsetOf emits the byte offset of the access inside the storage buffer.
func (self *globalState) offsetOf(op *ir.Operation, r baseAddress) *ir.Operand {
    off := r.Value
    if r.Const != 0 {
        off = insertBefore(op, ir.Add, off, ir.Const(r.Const))
    }

    /* the host binds buffers at an aligned address below the real base */
    if self.ctx.Accessor.QueryHasUnalignedStorageBuffer() {
        off = insertBefore(op, ir.Add, off, self.hostMisalignment(op, ir.Cbuf(r.Slot, r.Offset)))
    }
    return off
}

func (self *globalState) hostMisalignment(op *ir.Operation, base *ir.Operand) *ir.Operand {
    align := int32(self.ctx.Accessor.QueryHostStorageBufferOffsetAlignment())
    masked := insertBefore(op, ir.BitwiseAnd, base, ir.Const(-align))
    return insertBefore(op, ir.Subtract, base, masked)
}
