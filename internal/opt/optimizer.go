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
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

type Pass interface {
    Apply(*Context)
}

type PassDescriptor struct {
    Pass Pass
    Name string
}

var Passes = [...]PassDescriptor {
    { Name: "Local Optimization"           , Pass: new(Sweep) },
    { Name: "Global Memory Virtualization" , Pass: new(GlobalToStorage) },
    { Name: "Bindless Resolution"          , Pass: new(BindlessElim) },
    { Name: "Derivative Recognition"       , Pass: new(Derivatives) },
    { Name: "Perspective Divide Removal"   , Pass: new(PerspectiveDivide) },
    { Name: "Double Lowering"              , Pass: new(DoubleToFloat) },
    { Name: "Local Optimization"           , Pass: new(Sweep) },
}

// Run applies every pass to the program, then brings the generated helper
// functions to a fixed point as well.
func Run(ctx *Context) {
    main := ctx.Func

    /* the program itself */
    for _, p := range Passes {
        ctx.Pass = p.Name
        p.Pass.Apply(ctx)
        ctx.trace("pass done", "pass", p.Name, "function", main.Name)
    }

    /* helpers, generated by the passes above */
    ctx.Pass = "Helper Optimization"
    for _, fn := range ctx.Helpers.Functions() {
        ctx.Func = fn
        new(Sweep).Apply(ctx)
    }

    /* restore the program */
    ctx.Func = main
    ctx.Pass = ""
}

// Sweep runs constant folding, simplification, copy and phi propagation,
// dead code elimination and branch elimination until nothing changes.
type Sweep struct {
    ConstFold
    Simplify
    CopyProp
    DCE
    BranchElim
}

func (self Sweep) Apply(ctx *Context) {
    for self.sweep(ctx) {
        ctx.Stats.Sweeps++
    }
    ctx.Stats.Sweeps++
}

func (self Sweep) sweep(ctx *Context) bool {
    ok := false
    fn := ctx.Func

    /* visit every block */
    for i, bb := range fn.Blocks {
        for n := bb.First(); n != nil; {
            next := n.Next()

            /* process the node */
            if self.node(ctx, n) {
                ok = true
            }

            /* a cascade may have removed the successor, restart the block */
            if next != nil && next.Block() != bb {
                next = bb.First()
            }
            n = next
        }

        /* the block terminator */
        if self.BranchElim.apply(fn, i) {
            ok = true
        }
    }
    return ok
}

func (self Sweep) node(ctx *Context, n ir.INode) bool {
    if isUnused(n) {
        return self.remove(ctx, n)
    }

    /* phi nodes only take part in propagation */
    op, ok := n.(*ir.Operation)
    if !ok {
        return self.propagatePhi(n.(*ir.PhiNode))
    }

    /* folding first, identities on what remains */
    mod := false
    if self.fold(ctx, op) {
        ctx.Stats.Folded++
        mod = true
    } else if self.simplify(op) {
        mod = true
    }

    /* a folded UnpackHalf2x16 is already gone */
    if op.Block() == nil {
        return true
    }

    /* propagation */
    switch op.Inst {
        case ir.Copy         : mod = self.propagateCopy(op) || mod
        case ir.PackHalf2x16 : mod = self.propagatePack(op) || mod
    }

    /* drop it if nobody reads it anymore */
    if isUnused(op) {
        self.remove(ctx, op)
        mod = true
    }
    return mod
}
