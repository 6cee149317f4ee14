/*
 * Copyright 2022 CloudWeGo Authors
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


package shaderopt

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/ryujinx-mirror/ryujinx-sub037/debug"
	"github.com/ryujinx-mirror/ryujinx-sub037/gpu"
	"github.com/ryujinx-mirror/ryujinx-sub037/internal/irtext"
	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
	"github.com/ryujinx-mirror/ryujinx-sub037/resource"
)

func body(fn *ir.Function) string {
	s := fn.String()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

func program(t *testing.T, src string) Program {
	fn, err := irtext.Parse(src)
	require.NoError(t, err)
	return Program{Func: fn, Stage: gpu.Fragment, Target: gpu.SPIRV, API: gpu.Vulkan}
}

func TestOptimize_Fixtures(t *testing.T) {
	data, err := os.ReadFile("testdata/optimize.yaml")
	require.NoError(t, err)
	fixtures, err := irtext.LoadFixtures(data)
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, fx := range fixtures {
		fx := fx
		t.Run(fx.Name, func(t *testing.T) {
			c, err := fx.Build()
			require.NoError(t, err)
			res, err := Optimize(context.Background(), Program{
				Func:     c.Func,
				Stage:    c.Stage,
				Target:   c.Target,
				API:      c.API,
				Accessor: c.Accessor,
			})
			require.NoError(t, err)
			require.Equal(t, body(irtext.MustParse(fx.Expect)), body(res.Func), spew.Sdump(res.Stats))
			require.Equal(t, fx.Logs, c.Accessor.Logs())
			for _, fn := range res.Helpers {
				require.NoError(t, ir.Verify(fn), "%s", fn)
			}

			/* optimizing again changes nothing */
			once := body(res.Func)
			res, err = Optimize(context.Background(), Program{
				Func:     res.Func,
				Stage:    c.Stage,
				Target:   c.Target,
				API:      c.API,
				Accessor: c.Accessor,
			})
			require.NoError(t, err)
			require.Equal(t, once, body(res.Func))
		})
	}
}

func TestOptimize_Result(t *testing.T) {
	res, err := Optimize(context.Background(), program(t, `
		%0 = Add cb0[8], 16
		%1 = Load@global.s8 %0, cb0[9]
		Store@output 3, 0, %1
	`))
	require.NoError(t, err)
	require.Len(t, res.Helpers, 1)
	require.Equal(t, "StorageLoad_global.s8_0", res.Helpers[0].Name)
	require.Equal(t, res.Func.Id+1, res.Helpers[0].Id)
	require.Equal(t, 1, res.Stats.GlobalRewritten)
	require.NotNil(t, res.Resources)
	require.Len(t, res.Resources.(*resource.Manager).StorageBuffers(), 1)
}

func TestOptimize_NoFunction(t *testing.T) {
	res, err := Optimize(context.Background(), Program{})
	require.Error(t, err)
	require.Nil(t, res)
}

func TestOptimize_UnsupportedOperand(t *testing.T) {
	faults := debug.GetStats().Programs.Faults
	res, err := Optimize(context.Background(), program(t, `
		%0 = Add cb0[8], 16
		%1 = AtomicAdd@global.u8 %0, cb0[9], 1
		Store@output 3, 0, %1
	`))
	require.Nil(t, res)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce), "%v", err)
	require.Equal(t, ErrUnsupportedOperand, ce.Kind)
	require.Equal(t, "main", ce.Function)
	require.Equal(t, "Global Memory Virtualization", ce.Pass)
	require.Contains(t, err.Error(), "CompileError(UnsupportedOperand) in main during Global Memory Virtualization")
	require.Equal(t, faults+1, debug.GetStats().Programs.Faults)
}

func TestOptimize_InvalidGraph(t *testing.T) {
	_, err := Optimize(context.Background(), program(t, `
		bb_0:
			-> next bb_1, branch bb_2
		bb_1:
			Return
		bb_2:
			Return
	`))
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "%v", err)
	require.Equal(t, ErrInvalidGraph, ce.Kind)
	require.Equal(t, "Local Optimization", ce.Pass)
}

func TestOptimize_Counters(t *testing.T) {
	before := debug.GetStats()
	_, err := Optimize(context.Background(), program(t, `
		%0 = Add 3, 7
		Store@output 3, 0, %0
	`))
	require.NoError(t, err)
	after := debug.GetStats()
	require.Equal(t, before.Programs.Count+1, after.Programs.Count)
	require.Greater(t, after.Programs.Folded, before.Programs.Folded)
}

func TestOptimize_Trace(t *testing.T) {
	res, err := Optimize(context.Background(), program(t, `
		%0 = Add 3, 7
		Store@output 3, 0, %0
	`), WithTrace(true))
	require.NoError(t, err)
	require.Equal(t, body(irtext.MustParse("Store@output 3, 0, 10\n")), body(res.Func))
}

const _HandleArray = `
	%0 = Load@input 0, 0
	%1 = Load@cbuf 2, 0, 3, %0
	%2 = TextureSample[2d,bindless] %1, 1f
	Store@output 3, 0, %2
`

func arrayLength(t *testing.T, res *Result) int {
	textures := res.Resources.(*resource.Manager).Textures()
	require.Len(t, textures, 1)
	return textures[0].ArrayLength
}

func TestOptions_MinimumArrayLength(t *testing.T) {
	res, err := Optimize(context.Background(), program(t, _HandleArray), WithMinimumArrayLength(16))
	require.NoError(t, err)
	require.Equal(t, 16, arrayLength(t, res))

	old := SetMinimumArrayLength(32)
	defer SetMinimumArrayLength(old)
	res, err = Optimize(context.Background(), program(t, _HandleArray))
	require.NoError(t, err)
	require.Equal(t, 32, arrayLength(t, res))
}

func TestOptions_HandleSlot(t *testing.T) {
	src := strings.ReplaceAll(_HandleArray, "Load@cbuf 2", "Load@cbuf 5")
	res, err := Optimize(context.Background(), program(t, src), WithTextureHandleBufferSlot(5))
	require.NoError(t, err)
	textures := res.Resources.(*resource.Manager).Textures()
	require.Len(t, textures, 1)
	require.Equal(t, 5, textures[0].CbufSlot)
}

func TestOptions_Invalid(t *testing.T) {
	require.Panics(t, func() { WithReservedConstantBufferSlot(-1) })
	require.Panics(t, func() { WithTextureHandleBufferSlot(-1) })
	require.Panics(t, func() { WithDriverReservedConstantBuffer(-1) })
	require.Panics(t, func() { WithMinimumArrayLength(0) })
	require.NotPanics(t, func() { WithMinimumArrayLength(1) })
}

func TestCompileError_Error(t *testing.T) {
	err := CompileError{Kind: ErrInvalidGraph, Function: "main", Reason: "bb_0 has no terminator"}
	require.Equal(t, "CompileError(InvalidGraph) in main: bb_0 has no terminator", err.Error())
	require.Equal(t, "ErrorKind(7)", ErrorKind(7).String())
}
