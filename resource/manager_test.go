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

package resource

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryujinx-mirror/ryujinx-sub037/gpu"
	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
)

func TestManager_ConstantBufferSlot(t *testing.T) {
	m := NewManager(DefaultConfig())
	slot, ok := m.TryGetConstantBufferSlot(17)
	require.True(t, ok)
	require.Equal(t, 17, slot)
	_, ok = m.TryGetConstantBufferSlot(18)
	require.False(t, ok)

	cfg := DefaultConfig()
	cfg.ConstantBuffers = map[int]int{0: 3}
	slot, ok = NewManager(cfg).TryGetConstantBufferSlot(0)
	require.True(t, ok)
	require.Equal(t, 3, slot)
}

func TestManager_StorageBuffers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStorageBuffers = 2
	m := NewManager(cfg)

	a, ok := m.TryGetStorageBufferBinding(0, 8, false)
	require.True(t, ok)
	b, ok := m.TryGetStorageBufferBinding(0, 12, true)
	require.True(t, ok)
	require.NotEqual(t, a, b)

	// Same descriptor location, same binding, and writes stick
	again, ok := m.TryGetStorageBufferBinding(0, 8, true)
	require.True(t, ok)
	require.Equal(t, a, again)
	_, ok = m.TryGetStorageBufferBinding(0, 8, false)
	require.True(t, ok)

	// Out of bindings
	_, ok = m.TryGetStorageBufferBinding(1, 0, false)
	require.False(t, ok)

	require.Equal(t, []StorageBufferDescriptor{
		{Binding: 0, CbufSlot: 0, CbufOffset: 8, Written: true},
		{Binding: 1, CbufSlot: 0, CbufOffset: 12, Written: true},
	}, m.StorageBuffers())
}

func TestManager_Textures(t *testing.T) {
	m := NewManager(DefaultConfig())
	req := gpu.TextureRequest{
		Inst:     ir.TextureSample,
		Type:     ir.Texture2D,
		CbufSlot: 3,
		Handle:   4,
	}

	a := m.GetTextureOrImageBinding(req)
	require.Equal(t, ir.SetBindingPair{Set: 2, Binding: 0}, a)
	require.Equal(t, a, m.GetTextureOrImageBinding(req))

	// A different handle is a different texture
	other := req
	other.Handle = 5
	require.Equal(t, ir.SetBindingPair{Set: 2, Binding: 1}, m.GetTextureOrImageBinding(other))

	// Samplers share the texture set
	smp := req
	smp.IsSampler = true
	require.Equal(t, ir.SetBindingPair{Set: 2, Binding: 2}, m.GetTextureOrImageBinding(smp))

	// Images have their own set
	img := req
	img.Inst = ir.ImageStore
	img.Format = ir.FormatR32Uint
	require.Equal(t, ir.SetBindingPair{Set: 3, Binding: 0}, m.GetTextureOrImageBinding(img))
	img.Inst = ir.ImageLoad
	require.Equal(t, ir.SetBindingPair{Set: 3, Binding: 0}, m.GetTextureOrImageBinding(img))

	require.Len(t, m.Textures(), 3)
	require.Len(t, m.Images(), 1)
	require.Equal(t, 4, m.Images()[0].Handle)
}
