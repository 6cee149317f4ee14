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
    `sync/atomic`
    `testing`

    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`

    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

const _Program = `
    bb_0:
        %0 = Load@input 0, 0
        %1 = BitwiseAnd cb3[4], 0xfffff
        %2 = ShiftLeft cb3[5], 20
        %3 = BitwiseOr %1, %2
        %4 = Add cb0[8], 16
        %5 = CompareLess %0, 0
        BranchIfTrue %5, bb_2
    bb_1:
        Store@global %4, cb0[9], %0
    bb_2:
        %6 = TextureSample[2d,bindless] %3, %0
        %7 = Add 3, 7
        %8 = Multiply %6, %7
        Store@output 3, 0, %8
        Return
`

func TestRun_Pipeline(t *testing.T) {
    env := newTestEnv(_Program)
    Run(env.ctx)
    requireIR(t, env.ctx.Func, `
        bb_0:
            %0 = Load@input 0, 0
            %1 = CompareLess %0, 0
            BranchIfTrue %1, bb_2
        bb_1:
            Store@sbuf 0, 0, 4, %0
        bb_2:
            %2 = TextureSample[2d,binding=2:0] %0
            %3 = Multiply %2, 10
            Store@output 3, 0, %3
            Return
    `)
    require.Equal(t, "", env.ctx.Pass)
    require.Equal(t, 1, env.ctx.Stats.BindlessResolved)
    require.Equal(t, 1, env.ctx.Stats.GlobalRewritten)
    require.NotZero(t, env.ctx.Stats.Folded)
    require.NotZero(t, env.ctx.Stats.Removed)
    require.Empty(t, env.acc.Logs())
    t.Log(spew.Sdump(env.ctx.Stats))
}

func TestRun_FixedPoint(t *testing.T) {
    env := newTestEnv(_Program)
    Run(env.ctx)
    once := env.ctx.Func.String()
    Run(env.ctx)
    require.Equal(t, once, env.ctx.Func.String())
}

func TestRun_Helpers(t *testing.T) {
    env := newTestEnv(`
        %0 = Add cb0[8], 16
        %1 = Load@global.s8 %0, cb0[9]
        Store@output 3, 0, %1
    `)
    Run(env.ctx)
    require.Len(t, env.ctx.Helpers.Functions(), 1)
    fn := env.ctx.Helpers.Function(1)
    require.Equal(t, "main", env.ctx.Func.Name)
    require.NoError(t, ir.Verify(fn))

    /* the helper was swept too: no copies survive */
    fn.ForEachNode(func(_ *ir.BasicBlock, n ir.INode) {
        if op, ok := n.(*ir.Operation); ok {
            require.NotEqual(t, ir.Copy, op.Inst, "%s", fn)
        }
    })
}

func TestRun_PassOrder(t *testing.T) {
    var names []string
    for _, p := range Passes {
        names = append(names, p.Name)
    }
    require.Equal(t, []string {
        "Local Optimization",
        "Global Memory Virtualization",
        "Bindless Resolution",
        "Derivative Recognition",
        "Perspective Divide Removal",
        "Double Lowering",
        "Local Optimization",
    }, names)
}

func TestPublish_Counters(t *testing.T) {
    programs := atomic.LoadUint32(&ProgramCount)
    faults := atomic.LoadUint32(&FaultCount)
    folded := atomic.LoadUint32(&FoldedCount)
    Publish(Stats { Folded: 3, Removed: 2 }, 1)
    PublishFault()
    require.Equal(t, programs + 2, atomic.LoadUint32(&ProgramCount))
    require.Equal(t, faults + 1, atomic.LoadUint32(&FaultCount))
    require.Equal(t, folded + 3, atomic.LoadUint32(&FoldedCount))
}

func TestFault_Error(t *testing.T) {
    f := &Fault { Kind: UnsupportedOperand, Message: "AtomicAdd is not supported" }
    require.Equal(t, "UnsupportedOperand: AtomicAdd is not supported", f.Error())
    require.Equal(t, "FaultKind(9)", FaultKind(9).String())
}

func TestRun_PoolMaskedHandle(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@input 0, 0
        %1 = BitwiseAnd %0, 0xfffff
        %2 = TextureSample[2d,bindless] %1, 1f
        Store@output 3, 0, %2
    `)
    Run(env.ctx)
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        %1 = BitwiseAnd %0, 0xfffff
        %2 = MinimumU32 %1, 1023
        %3 = ShiftRightU32 %1, 20
        %4 = MinimumU32 %3, 255
        %5 = TextureSample[2d,binding=2:0,array=1024,sampler=2:1,samplers=256] %2, %4, 1f
        Store@output 3, 0, %5
    `)
    require.Equal(t, 1, env.count(ir.BitwiseAnd))
}
