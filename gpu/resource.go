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

package gpu

import (
	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
)

// TextureSource tells where a texture descriptor is fetched from.
type TextureSource uint8

const (
	// FromConstantBuffer descriptors are selected by a handle read from a
	// constant buffer.
	FromConstantBuffer TextureSource = iota

	// FromPool descriptors are indexed directly in the texture or sampler
	// pool.
	FromPool
)

// TextureRequest describes a texture, image or sampler the optimizer needs
// a binding for.
type TextureRequest struct {
	Inst        ir.Instruction
	Type        ir.SamplerType
	Format      ir.TextureFormat
	Flags       ir.TextureFlags
	Source      TextureSource
	CbufSlot    int
	Handle      int
	ArrayLength int
	IsSampler   bool
}

// ResourceManager owns the binding namespaces of a program.
type ResourceManager interface {
	// TryGetConstantBufferSlot maps a constant-buffer binding to the guest
	// slot it was declared for.
	TryGetConstantBufferSlot(binding int) (int, bool)

	// TryGetStorageBufferBinding returns the storage buffer binding whose
	// base address and size live at (slot, offset) in a constant buffer.
	TryGetStorageBufferBinding(cbufSlot, cbufOffset int, write bool) (int, bool)

	// GetTextureOrImageBinding returns the binding for a texture, image or
	// separate sampler. Equal requests get equal bindings.
	GetTextureOrImageBinding(req TextureRequest) ir.SetBindingPair
}
