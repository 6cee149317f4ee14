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
    `math`
    `strings`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/irtext`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// requireTexture checks the only texture descriptor the program asked for.
func requireTexture(t *testing.T, env *testEnv, handle int, slots int) {
    t.Helper()
    require.Len(t, env.res.Textures(), 1)
    desc := env.res.Textures()[0]
    require.Equal(t, gpu.FromConstantBuffer, desc.Source)
    require.Equal(t, handle, desc.Handle)
    require.Equal(t, slots, desc.CbufSlot)
    require.Equal(t, 1, env.ctx.Stats.BindlessResolved)
    require.Empty(t, env.acc.Logs())
}

func TestBindless_DirectWord(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@input 0, 0
        %1 = TextureSample[2d,bindless] cb3[4], %0
        Store@output 3, 0, %1
    `).apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        %1 = TextureSample[2d,binding=2:0] %0
        Store@output 3, 0, %1
    `)
    requireTexture(t, env, 4, 3)
}

func TestBindless_DirectCombined(t *testing.T) {
    for _, tc := range []struct {
        name   string
        src    string
        handle int
        slots  int
    } {
        {
            name   : "masked",
            handle : gpu.PackOffsets(4, 5, gpu.SeparateSamplerHandle),
            slots  : gpu.PackSlots(3, 3),
            src    : `
                %0 = BitwiseAnd cb3[4], 0xfffff
                %1 = BitwiseAnd 0xfff00000, cb3[5]
                %2 = BitwiseOr %0, %1`,
        },
        {
            name   : "swapped",
            handle : gpu.PackOffsets(4, 5, gpu.SeparateSamplerHandle),
            slots  : gpu.PackSlots(3, 6),
            src    : `
                %0 = BitwiseAnd cb3[4], 0xfffff
                %1 = BitwiseAnd cb6[5], 0xfff00000
                %2 = BitwiseOr %1, %0`,
        },
        {
            name   : "reserved",
            handle : gpu.PackOffsets(4, 5, gpu.SeparateSamplerHandle),
            slots  : gpu.PackSlots(3, 3),
            src    : `
                %0 = BitwiseAnd cb1[0], cb3[4]
                %1 = BitwiseAnd cb3[5], 0xfff00000
                %2 = BitwiseOr %0, %1`,
        },
        {
            name   : "shifted",
            handle : gpu.PackOffsets(4, 5, gpu.SeparateSamplerID),
            slots  : gpu.PackSlots(3, 3),
            src    : `
                %0 = Copy 0
                %1 = ShiftLeft cb3[5], 20
                %2 = BitwiseOr cb3[4], %1`,
        },
        {
            name   : "constant",
            handle : gpu.PackOffsets(4, 3, gpu.SeparateConstantSamplerHandle),
            slots  : gpu.PackSlots(3, 3),
            src    : `
                %0 = Copy 0
                %1 = Copy 0
                %2 = BitwiseOr cb3[4], 0x300000`,
        },
    } {
        t.Run(tc.name, func(t *testing.T) {
            env := newTestEnv(tc.src + `
                %3 = TextureSample[2d,bindless] %2, 1f
                Store@output 3, 0, %3
            `).apply(new(BindlessElim)).sweep()
            requireIR(t, env.ctx.Func, `
                %0 = TextureSample[2d,binding=2:0] 1f
                Store@output 3, 0, %0
            `)
            requireTexture(t, env, tc.handle, tc.slots)
        })
    }
}

func TestBindless_DirectThroughPhi(t *testing.T) {
    env := newTestEnv(`
        bb_0:
            %0 = Load@input 0, 0
            BranchIfTrue %0, bb_2
        bb_1:
            %1 = Copy cb3[4]
        bb_2:
            %2 = Phi [bb_0: undef], [bb_1: %1]
            %3 = TextureSample[2d,bindless] %2, 1f
            Store@output 3, 0, %3
    `).sweep().apply(new(BindlessElim))
    require.False(t, env.op(t, ir.TextureSample).IsBindless())
    requireTexture(t, env, 4, 3)
}

func TestBindless_SameHandleSameBinding(t *testing.T) {
    env := newTestEnv(`
        %0 = TextureSample[2d,bindless] cb3[4], 1f
        %1 = TextureSample[2d,bindless] cb3[4], 2f
        %2 = TextureSample[2d,bindless] cb3[8], 3f
        Store@output 3, 0, %0
        Store@output 3, 1, %1
        Store@output 3, 2, %2
    `).apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = TextureSample[2d,binding=2:0] 1f
        %1 = TextureSample[2d,binding=2:0] 2f
        %2 = TextureSample[2d,binding=2:1] 3f
        Store@output 3, 0, %0
        Store@output 3, 1, %1
        Store@output 3, 2, %2
    `)
    require.Len(t, env.res.Textures(), 2)
    require.Equal(t, 3, env.ctx.Stats.BindlessResolved)
}

func TestBindless_ArrayVulkan(t *testing.T) {
    caps := gpu.DefaultCapabilities()
    caps.TextureBufferLengths = map[int]int { 2: 8 }
    env := newTestEnvWith(`
        %0 = Load@input 0, 0
        %1 = Load@cbuf 2, 0, %0, 1
        %2 = TextureSample[2d,bindless] %1, 1f
        Store@output 3, 0, %2
    `, caps).apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        %1 = Load@cbuf 2, 0, %0, 1
        %2 = ShiftLeft %0, 1
        %3 = ShiftRightU32 1, 1
        %4 = Add %2, %3
        %5 = MinimumU32 %4, 7
        %6 = TextureSample[2d,binding=2:0,array=8] %5, 1f
        Store@output 3, 0, %6
    `)

    /* what is left after folding */
    requireIR(t, env.sweep().ctx.Func, `
        %0 = Load@input 0, 0
        %1 = ShiftLeft %0, 1
        %2 = MinimumU32 %1, 7
        %3 = TextureSample[2d,binding=2:0,array=8] %2, 1f
        Store@output 3, 0, %3
    `)

    /* the array is keyed by the handle buffer */
    desc := env.res.Textures()[0]
    require.Equal(t, 0, desc.Handle)
    require.Equal(t, 2, desc.CbufSlot)
    require.Equal(t, 8, desc.ArrayLength)
}

func TestBindless_ArrayMinimumLength(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@input 0, 0
        %1 = Load@cbuf 2, 0, 3, %0
        %2 = TextureSample[2d,bindless] %1, 1f
        Store@output 3, 0, %2
    `).apply(new(BindlessElim)).sweep()
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        %1 = ShiftRightU32 %0, 1
        %2 = Add 6, %1
        %3 = MinimumU32 %2, 1
        %4 = TextureSample[2d,binding=2:0,array=2] %3, 1f
        Store@output 3, 0, %4
    `)
}

func TestBindless_ArraySeparateSampler(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@input 0, 0
        %1 = Load@cbuf 2, 0, %0, 0
        %2 = BitwiseOr %1, cb3[6]
        %3 = TextureSample[2d,bindless] %2, 1f
        Store@output 3, 0, %3
    `).apply(new(BindlessElim))
    op := env.op(t, ir.TextureSample)
    require.Equal(t, 2, op.Tex.ArrayLength)
    require.False(t, op.Tex.SeparateSampler)

    desc := env.res.Textures()[0]
    require.Equal(t, gpu.PackOffsets(0, 6, gpu.SeparateSamplerHandle), desc.Handle)
    require.Equal(t, gpu.PackSlots(2, 3), desc.CbufSlot)
}

func TestBindless_ArrayOpenGL(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@input 0, 0
        %1 = Add %0, 16
        %2 = ShiftRightU32 %1, 2
        %3 = Load@cbuf 2, 0, %2, 0
        %4 = TextureSample[2d,bindless] %3, 1f
        Store@output 3, 0, %4
    `)
    env.ctx.API = gpu.OpenGL
    env.apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        %1 = Add %0, 16
        %2 = ShiftRightU32 %1, 2
        %3 = Load@cbuf 2, 0, %2, 0
        %4 = ShiftRightU32 %0, 3
        %5 = MinimumU32 %4, 3
        %6 = TextureSample[2d,binding=2:0,array=4] %5, 1f
        Store@output 3, 0, %6
    `)
    desc := env.res.Textures()[0]
    require.Equal(t, 4, desc.Handle)
    require.Equal(t, 2, desc.CbufSlot)
}

func TestBindless_PoolSample(t *testing.T) {
    env := newTestEnv(`
        %0 = Load@input 0, 0
        %1 = TextureSample[2d,bindless] %0, 1f
        Store@output 3, 0, %1
    `).apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        %1 = BitwiseAnd %0, 0xfffff
        %2 = MinimumU32 %1, 1023
        %3 = ShiftRightU32 %0, 20
        %4 = MinimumU32 %3, 255
        %5 = TextureSample[2d,binding=2:0,array=1024,sampler=2:1,samplers=256] %2, %4, 1f
        Store@output 3, 0, %5
    `)

    /* a texture array and a sampler array, both from the pools */
    descs := env.res.Textures()
    require.Len(t, descs, 2)
    require.Equal(t, gpu.FromPool, descs[0].Source)
    require.False(t, descs[0].IsSampler)
    require.Equal(t, 1024, descs[0].ArrayLength)
    require.True(t, descs[1].IsSampler)
    require.Equal(t, 256, descs[1].ArrayLength)
}

func TestBindless_PoolImage(t *testing.T) {
    for _, inst := range []string { "ImageLoad[2d,fmt=r32ui,bindless]", "TextureSize[2d,bindless]" } {
        env := newTestEnv(`
            %0 = Load@input 0, 0
            %1 = ` + inst + ` %0, 0
            Store@output 3, 0, %1
        `).apply(new(BindlessElim))
        require.Equal(t, 1, env.count(ir.MinimumU32), "%s", env.ctx.Func)
        require.Equal(t, 0, env.count(ir.ShiftRightU32))
        op := env.ctx.Func.Blocks[0].Nodes()[3].(*ir.Operation)
        require.True(t, op.Inst.IsTexture())
        require.Equal(t, env.op(t, ir.MinimumU32).Result(), op.Source(0))
        require.Equal(t, 1024, op.Tex.ArrayLength)
        require.False(t, op.Tex.SeparateSampler)
        require.Equal(t, 2, op.SourceCount())
    }
}

func TestBindless_Unresolved(t *testing.T) {
    caps := gpu.DefaultCapabilities()
    caps.SeparateSampler = false
    env := newTestEnvWith(`
        %0 = Load@input 0, 0
        %1 = TextureSample[2d,bindless] %0, 1f
        Store@output 3, 0, %1
    `, caps).apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = Load@input 0, 0
        Store@output 3, 0, 0
    `)
    require.Equal(t, []string {
        `Failed to find handle source for bindless access of type "TextureSample".`,
    }, env.acc.Logs())
    require.Equal(t, 1, env.ctx.Stats.BindlessFailed)
    require.Empty(t, env.res.Textures())
}

func TestBindless_SamplerTypeRewrite(t *testing.T) {
    key := gpu.TextureKey { Handle: 4, CbufSlot: 3 }
    for _, tc := range []struct {
        src  string
        host ir.SamplerType
        want ir.SamplerType
    } {
        { "TextureSize[2d,bindless] cb3[4], 0"      , ir.TextureCube , ir.TextureCube   },
        { "TextureSample[buffer,bindless] cb3[4], 0", ir.Texture1D   , ir.Texture1D     },
        { "TextureSample[buffer,bindless] cb3[4], 0", ir.Texture2D   , ir.TextureBuffer },
        { "TextureSample[3d,bindless] cb3[4], 0"    , ir.Texture1D   , ir.Texture3D     },
    } {
        caps := gpu.DefaultCapabilities()
        caps.SamplerTypes = map[gpu.TextureKey]ir.SamplerType { key: tc.host }
        env := newTestEnvWith("%0 = " + tc.src + "\nStore@output 3, 0, %0", caps).apply(new(BindlessElim))
        op := env.ctx.Func.Blocks[0].First().(*ir.Operation)
        require.Equal(t, tc.want, op.Tex.Type, tc.src)
        require.Equal(t, tc.want, env.res.Textures()[0].Type)
    }
}

func TestBindless_ImageFormat(t *testing.T) {
    caps := gpu.DefaultCapabilities()
    caps.TextureFormats = map[gpu.TextureKey]ir.TextureFormat {{ Handle: 4, CbufSlot: 3 }: ir.FormatR32Uint}
    env := newTestEnvWith(`
        %0 = ImageLoad[2d,bindless] cb3[4], 1
        %1 = ImageLoad[2d,fmt=rgba8,bindless] cb3[4], 2
        Store@output 3, 0, %0
        Store@output 3, 1, %1
    `, caps).apply(new(BindlessElim))
    requireIR(t, env.ctx.Func, `
        %0 = ImageLoad[2d,fmt=r32ui,binding=3:0] 1
        %1 = ImageLoad[2d,fmt=rgba8,binding=3:1] 2
        Store@output 3, 0, %0
        Store@output 3, 1, %1
    `)
    require.Len(t, env.res.Images(), 2)
    require.Equal(t, ir.FormatR32Uint, env.res.Images()[0].Format)
}

const _PhiAcrossBranches = `
    bb_0:
        %0 = Load@input 0, 0
        %1 = CompareEqual %0, 0
        BranchIfTrue %1, bb_2
    bb_1:
        Branch bb_3
    bb_2:
    bb_3:
        %2 = Phi [bb_1: cb3[4]], [bb_2: cb3[8]]
        %3 = CompareEqual %0, COND
        BranchIfTrue %3, bb_5
    bb_4:
        %4 = TextureSample[2d,bindless] %2, 1f
        Store@output 3, 0, %4
    bb_5:
        Return
`

func TestBindless_DirectThroughEqualConditions(t *testing.T) {
    env := newTestEnv(strings.ReplaceAll(_PhiAcrossBranches, "COND", "0")).apply(new(BindlessElim))
    op := env.op(t, ir.TextureSample)
    require.False(t, op.IsBindless())
    require.False(t, op.Tex.SeparateSampler)
    requireTexture(t, env, 4, 3)
}

func TestBindless_DifferentConditions(t *testing.T) {
    env := newTestEnv(strings.ReplaceAll(_PhiAcrossBranches, "COND", "1")).apply(new(BindlessElim))
    op := env.op(t, ir.TextureSample)
    require.False(t, op.IsBindless())
    require.True(t, op.Tex.SeparateSampler)
    require.Equal(t, gpu.FromPool, env.res.Textures()[0].Source)
}

func TestSameOperand(t *testing.T) {
    fn := irtext.MustParse(`
        %0 = Load@input 0, 0
        %1 = CompareEqual %0, 0
        %2 = CompareEqual %0, 0
        %3 = CompareEqual %0, 1
        %4 = CompareLess %0, 0
        %5 = Load@input 0, 0
        %6 = Load@global %0, 0
        %7 = Load@global %0, 0
        Store@output 3, 0, %1
        Store@output 3, 1, %2
        Store@output 3, 2, %3
        Store@output 3, 3, %4
        Store@output 3, 4, %5
        Store@output 3, 5, %6
        Store@output 3, 6, %7
    `)
    var v []*ir.Operand
    fn.ForEachNode(func(_ *ir.BasicBlock, n ir.INode) {
        if op, ok := n.(*ir.Operation); ok && op.DestCount() == 1 {
            v = append(v, op.Dest(0))
        }
    })
    require.True(t, sameOperand(v[1], v[1]))
    require.True(t, sameOperand(v[1], v[2]))
    require.False(t, sameOperand(v[1], v[3]))
    require.False(t, sameOperand(v[1], v[4]))
    require.True(t, sameOperand(v[0], v[5]))
    require.False(t, sameOperand(v[6], v[7]))
    require.True(t, sameOperand(ir.Cbuf(3, 4), ir.Cbuf(3, 4)))
    require.False(t, sameOperand(ir.Const(1), ir.Cbuf(0, 1)))
}

// resolveWith resolves the only bindless access in `src`, then substitutes
// `v` for the first input load and folds the index computation.
func resolveWith(t *testing.T, src string, caps gpu.Capabilities, api gpu.TargetAPI, v uint32) *ir.Operation {
    env := newTestEnvWith(src, caps)
    env.ctx.API = api
    env.apply(new(BindlessElim))
    replaceUses(env.op(t, ir.Load).Dest(0), ir.Const(int32(v)))
    return env.sweep().op(t, ir.TextureSample)
}

// requireIndex checks that source `i` folded into a constant below `n`.
func requireIndex(t *testing.T, op *ir.Operation, i int, n int, v uint32) {
    t.Helper()
    require.Equal(t, ir.Constant, op.Source(i).Type, "%#x: %s", v, op)
    require.Less(t, uint32(op.Source(i).Value), uint32(n), "%#x: %s", v, op)
}

func handleValues() []uint32 {
    ret := []uint32 { 0, 1, 0xfffff, 0x100000, 0x7fffffff, 0x80000000, math.MaxUint32 }
    for i := 0; i < 200; i++ {
        ret = append(ret, gofakeit.Uint32())
    }
    return ret
}

func TestBindless_ArrayIndexInBounds(t *testing.T) {
    for _, v := range handleValues() {
        caps := gpu.DefaultCapabilities()
        caps.TextureBufferLengths = map[int]int { 2: gofakeit.Number(0, 64) }
        op := resolveWith(t, `
            %0 = Load@input 0, 0
            %1 = Load@cbuf 2, 0, 3, %0
            %2 = TextureSample[2d,bindless] %1, 1f
            Store@output 3, 0, %2
        `, caps, gpu.Vulkan, v)
        n := caps.TextureBufferLengths[2]
        if n < 2 {
            n = 2
        }
        require.Equal(t, n, op.Tex.ArrayLength)
        requireIndex(t, op, 0, n, v)
    }
}

func TestBindless_OpenGLIndexInBounds(t *testing.T) {
    for _, v := range handleValues() {
        op := resolveWith(t, `
            %0 = Load@input 0, 0
            %1 = Add %0, 16
            %2 = ShiftRightU32 %1, 2
            %3 = Load@cbuf 2, 0, %2, 0
            %4 = TextureSample[2d,bindless] %3, 1f
            Store@output 3, 0, %4
        `, gpu.DefaultCapabilities(), gpu.OpenGL, v)
        requireIndex(t, op, 0, op.Tex.ArrayLength, v)
    }
}

func TestBindless_PoolIndexInBounds(t *testing.T) {
    for _, v := range handleValues() {
        caps := gpu.DefaultCapabilities()
        caps.TexturePoolLength = gofakeit.Number(1, 4096)
        caps.SamplerPoolLength = gofakeit.Number(1, 512)
        op := resolveWith(t, `
            %0 = Load@input 0, 0
            %1 = TextureSample[2d,bindless] %0, 1f
            Store@output 3, 0, %1
        `, caps, gpu.Vulkan, v)
        require.True(t, op.Tex.SeparateSampler)
        requireIndex(t, op, 0, op.Tex.ArrayLength, v)
        requireIndex(t, op, 1, op.Tex.SamplerArrayLength, v)
    }
}

func TestFindLastOperation_Recurse(t *testing.T) {
    fn := irtext.MustParse(`
        bb_0:
            %0 = Load@input 0, 0
            BranchIfTrue %0, bb_2
        bb_1:
        bb_2:
            %1 = Phi [bb_0: undef], [bb_1: cb3[4]]
            BranchIfTrue %0, bb_4
        bb_3:
        bb_4:
            %2 = Phi [bb_2: undef], [bb_3: %1]
            Store@output 3, 0, %2
            Return
    `)
    bb := fn.Blocks[4]
    v := bb.Phis()[0].Dest(0)

    /* one level stops at the inner phi */
    one := FindLastOperation(v, bb, false)
    require.NotNil(t, one.DefPhi())
    require.NotSame(t, v, one)

    /* the whole chain reaches the constant buffer */
    all := FindLastOperation(v, bb, true)
    require.True(t, all.IsCbuf(), "%s", all)
    require.Equal(t, 4, all.CbufOffset())
    require.Equal(t, 3, all.CbufSlot())
}
