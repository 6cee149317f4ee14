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

// Package resource provides the default binding allocator used by the
// optimizer and the backends.
package resource

import (
	"sort"

	"github.com/ryujinx-mirror/ryujinx-sub037/gpu"
	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
)

// Config describes the binding layout of a program.
type Config struct {
	// ConstantBuffers maps constant-buffer bindings to guest slots.
	ConstantBuffers map[int]int `yaml:"constant_buffers"`

	MaxStorageBuffers int `yaml:"max_storage_buffers"`

	UniformSet int `yaml:"uniform_set"`
	StorageSet int `yaml:"storage_set"`
	TextureSet int `yaml:"texture_set"`
	ImageSet   int `yaml:"image_set"`
}

// DefaultConfig maps bindings 0-17 to the slots of the same number, the
// guest limit on constant buffers.
func DefaultConfig() Config {
	cb := make(map[int]int, 18)
	for i := 0; i < 18; i++ {
		cb[i] = i
	}
	return Config{
		ConstantBuffers:   cb,
		MaxStorageBuffers: 16,
		UniformSet:        0,
		StorageSet:        1,
		TextureSet:        2,
		ImageSet:          3,
	}
}

// StorageBufferDescriptor is a storage buffer whose address and size are
// read from a constant buffer.
type StorageBufferDescriptor struct {
	Binding    int
	CbufSlot   int
	CbufOffset int
	Written    bool
}

// TextureDescriptor is a texture, image or sampler binding.
type TextureDescriptor struct {
	gpu.TextureRequest
	ir.SetBindingPair
}

type storageKey struct {
	slot   int
	offset int
}

type textureKey struct {
	image   bool
	sampler bool
	source  gpu.TextureSource
	slot    int
	handle  int
	length  int
	typ     ir.SamplerType
	format  ir.TextureFormat
}

// Manager is a gpu.ResourceManager handing out bindings in request order.
// It is not safe for concurrent use.
type Manager struct {
	cfg      Config
	slots    map[int]int
	storage  map[storageKey]*StorageBufferDescriptor
	sbOrder  []*StorageBufferDescriptor
	textures map[textureKey]int
	descs    []TextureDescriptor
	next     map[int]int
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		slots:    cfg.ConstantBuffers,
		storage:  make(map[storageKey]*StorageBufferDescriptor),
		textures: make(map[textureKey]int),
		next:     make(map[int]int),
	}
}

func (m *Manager) TryGetConstantBufferSlot(binding int) (int, bool) {
	slot, ok := m.slots[binding]
	return slot, ok
}

func (m *Manager) TryGetStorageBufferBinding(cbufSlot, cbufOffset int, write bool) (int, bool) {
	key := storageKey{cbufSlot, cbufOffset}
	if sb, ok := m.storage[key]; ok {
		sb.Written = sb.Written || write
		return sb.Binding, true
	}
	if len(m.sbOrder) >= m.cfg.MaxStorageBuffers {
		return 0, false
	}

	sb := &StorageBufferDescriptor{
		Binding:    m.allocate(m.cfg.StorageSet),
		CbufSlot:   cbufSlot,
		CbufOffset: cbufOffset,
		Written:    write,
	}
	m.storage[key] = sb
	m.sbOrder = append(m.sbOrder, sb)
	return sb.Binding, true
}

func (m *Manager) GetTextureOrImageBinding(req gpu.TextureRequest) ir.SetBindingPair {
	image := req.Inst.IsImage()
	key := textureKey{
		image:   image,
		sampler: req.IsSampler,
		source:  req.Source,
		slot:    req.CbufSlot,
		handle:  req.Handle,
		length:  req.ArrayLength,
		typ:     req.Type,
		format:  req.Format,
	}
	if i, ok := m.textures[key]; ok {
		return m.descs[i].SetBindingPair
	}

	set := m.cfg.TextureSet
	if image {
		set = m.cfg.ImageSet
	}

	pair := ir.SetBindingPair{Set: set, Binding: m.allocate(set)}
	m.textures[key] = len(m.descs)
	m.descs = append(m.descs, TextureDescriptor{TextureRequest: req, SetBindingPair: pair})
	return pair
}

func (m *Manager) allocate(set int) int {
	b := m.next[set]
	m.next[set] = b + 1
	return b
}

// StorageBuffers lists the storage buffers in binding order.
func (m *Manager) StorageBuffers() []StorageBufferDescriptor {
	ret := make([]StorageBufferDescriptor, 0, len(m.sbOrder))
	for _, sb := range m.sbOrder {
		ret = append(ret, *sb)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Binding < ret[j].Binding })
	return ret
}

// Textures lists textures and samplers, Images lists images.
func (m *Manager) Textures() []TextureDescriptor {
	return m.filter(false)
}

func (m *Manager) Images() []TextureDescriptor {
	return m.filter(true)
}

func (m *Manager) filter(image bool) []TextureDescriptor {
	var ret []TextureDescriptor
	for _, d := range m.descs {
		if d.Inst.IsImage() == image {
			ret = append(ret, d)
		}
	}
	return ret
}
