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
    `strings`
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/irtext`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/opts`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
    `github.com/ryujinx-mirror/ryujinx-sub037/resource`
)

type testEnv struct {
    ctx *Context
    acc *gpu.StaticAccessor
    res *resource.Manager
}

// newTestEnv parses `src` as a Vulkan SPIR-V fragment shader.
func newTestEnv(src string) *testEnv {
    return newTestEnvWith(src, gpu.DefaultCapabilities())
}

func newTestEnvWith(src string, caps gpu.Capabilities) *testEnv {
    acc := gpu.NewStaticAccessor(caps)
    res := resource.NewManager(resource.DefaultConfig())
    ctx := NewContext(irtext.MustParse(src), acc, res, opts.GetDefaultOptions())
    ctx.Stage = gpu.Fragment
    ctx.Target = gpu.SPIRV
    ctx.API = gpu.Vulkan
    return &testEnv { ctx: ctx, acc: acc, res: res }
}

func (self *testEnv) apply(p Pass) *testEnv {
    p.Apply(self.ctx)
    return self
}

func (self *testEnv) sweep() *testEnv {
    return self.apply(new(Sweep))
}

// op returns the first operation using `inst`.
func (self *testEnv) op(t *testing.T, inst ir.Instruction) *ir.Operation {
    var ret *ir.Operation
    self.ctx.Func.ForEachNode(func(_ *ir.BasicBlock, n ir.INode) {
        if v, ok := n.(*ir.Operation); ok && v.Inst == inst && ret == nil {
            ret = v
        }
    })
    require.NotNil(t, ret, "no %s in\n%s", inst, self.ctx.Func)
    return ret
}

func (self *testEnv) count(inst ir.Instruction) int {
    ret := 0
    self.ctx.Func.ForEachNode(func(_ *ir.BasicBlock, n ir.INode) {
        if v, ok := n.(*ir.Operation); ok && v.Inst == inst {
            ret++
        }
    })
    return ret
}

func body(fn *ir.Function) string {
    s := fn.String()
    if i := strings.IndexByte(s, '\n'); i >= 0 {
        return s[i + 1:]
    } else {
        return ""
    }
}

// requireIR compares the blocks of `fn` with the text in `want`; locals are
// matched by position, not by name.
func requireIR(t *testing.T, fn *ir.Function, want string) {
    t.Helper()
    require.Equal(t, body(irtext.MustParse(want)), body(fn))
    require.NoError(t, ir.Verify(fn))
}

// requireFault runs `fn` and checks that it raises a fault of `kind`.
func requireFault(t *testing.T, kind FaultKind, fn func()) {
    t.Helper()
    defer func() {
        v := recover()
        f, ok := v.(*Fault)
        require.True(t, ok, "expected a fault, got %v", v)
        require.Equal(t, kind, f.Kind)
    }()
    fn()
}

// defOf returns the operation defining `v`.
func defOf(t *testing.T, v *ir.Operand) *ir.Operation {
    op := v.DefOp()
    require.NotNil(t, op, "%s is not defined by an operation", v)
    return op
}
