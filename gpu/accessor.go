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
	"sync"

	"github.com/nikandfor/tlog"

	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
)

// Accessor answers capability and state queries about the host and the
// guest GPU state the shader was captured with.
type Accessor interface {
	// Log reports a non-fatal diagnostic.
	Log(message string)

	QueryHostSupportsSeparateSampler() bool
	QueryHostSupportsShaderFloat64() bool
	QueryHasUnalignedStorageBuffer() bool
	QueryHostStorageBufferOffsetAlignment() int

	// QueryTextureArrayLengthFromBuffer returns the number of handles in
	// the texture handle buffer bound at the given constant-buffer slot.
	QueryTextureArrayLengthFromBuffer(slot int) int
	QueryTextureArrayLengthFromPool() int
	QuerySamplerArrayLengthFromPool() int

	// QuerySamplerType and QueryTextureFormat take the packed handle and
	// slots built with PackOffsets and PackSlots.
	QuerySamplerType(handle, cbufSlot int) ir.SamplerType
	QueryTextureFormat(handle, cbufSlot int) ir.TextureFormat
}

// TextureKey identifies a texture by its packed handle and slots.
type TextureKey struct {
	Handle   int
	CbufSlot int
}

// Capabilities is a static description of a host.
type Capabilities struct {
	SeparateSampler        bool                            `yaml:"separate_sampler"`
	ShaderFloat64          bool                            `yaml:"float64"`
	UnalignedStorageBuffer bool                            `yaml:"unaligned_storage_buffer"`
	StorageBufferAlignment int                             `yaml:"storage_buffer_alignment"`
	TexturePoolLength      int                             `yaml:"texture_pool_length"`
	SamplerPoolLength      int                             `yaml:"sampler_pool_length"`
	TextureBufferLengths   map[int]int                     `yaml:"texture_buffer_lengths"`
	SamplerTypes           map[TextureKey]ir.SamplerType   `yaml:"-"`
	TextureFormats         map[TextureKey]ir.TextureFormat `yaml:"-"`
}

// DefaultCapabilities describes a Vulkan-class host.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		SeparateSampler:        true,
		ShaderFloat64:          true,
		StorageBufferAlignment: 16,
		TexturePoolLength:      1024,
		SamplerPoolLength:      256,
	}
}

// StaticAccessor answers every query from a fixed Capabilities value and
// records diagnostics.
type StaticAccessor struct {
	Caps Capabilities

	mu   sync.Mutex
	logs []string
}

func NewStaticAccessor(caps Capabilities) *StaticAccessor {
	return &StaticAccessor{Caps: caps}
}

// Log records the message and forwards it to the default tlog logger.
func (a *StaticAccessor) Log(message string) {
	a.mu.Lock()
	a.logs = append(a.logs, message)
	a.mu.Unlock()

	tlog.Printw(message, "source", "shader")
}

// Logs returns every message recorded so far.
func (a *StaticAccessor) Logs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.logs...)
}

func (a *StaticAccessor) QueryHostSupportsSeparateSampler() bool { return a.Caps.SeparateSampler }

func (a *StaticAccessor) QueryHostSupportsShaderFloat64() bool { return a.Caps.ShaderFloat64 }

func (a *StaticAccessor) QueryHasUnalignedStorageBuffer() bool { return a.Caps.UnalignedStorageBuffer }

func (a *StaticAccessor) QueryHostStorageBufferOffsetAlignment() int {
	if a.Caps.StorageBufferAlignment <= 0 {
		return 16
	}
	return a.Caps.StorageBufferAlignment
}

func (a *StaticAccessor) QueryTextureArrayLengthFromBuffer(slot int) int {
	return a.Caps.TextureBufferLengths[slot]
}

func (a *StaticAccessor) QueryTextureArrayLengthFromPool() int { return a.Caps.TexturePoolLength }

func (a *StaticAccessor) QuerySamplerArrayLengthFromPool() int { return a.Caps.SamplerPoolLength }

func (a *StaticAccessor) QuerySamplerType(handle, cbufSlot int) ir.SamplerType {
	if t, ok := a.Caps.SamplerTypes[TextureKey{handle, cbufSlot}]; ok {
		return t
	}
	return ir.Texture2D
}

func (a *StaticAccessor) QueryTextureFormat(handle, cbufSlot int) ir.TextureFormat {
	if f, ok := a.Caps.TextureFormats[TextureKey{handle, cbufSlot}]; ok {
		return f
	}
	return ir.FormatUnknown
}
