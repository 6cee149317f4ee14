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

// TextureHandleType tells how the texture and sampler halves of a packed
// handle were combined by the guest.
type TextureHandleType uint8

const (
	// CombinedSampler handles hold both ids in one constant-buffer word.
	CombinedSampler TextureHandleType = iota

	// SeparateSamplerHandle handles OR a texture word with the upper 12 bits
	// of a sampler word.
	SeparateSamplerHandle

	// SeparateSamplerID handles OR a texture word with a sampler id shifted
	// left by 20 bits.
	SeparateSamplerID

	// SeparateConstantSamplerHandle handles OR a texture word with a
	// constant sampler id.
	SeparateConstantSamplerHandle
)

const (
	// TextureHandleMask selects the texture half of a 32-bit handle.
	TextureHandleMask = 0xfffff

	// SamplerHandleMask selects the sampler half of a 32-bit handle.
	SamplerHandleMask = 0xfff00000

	// SamplerHandleShift is the bit position of the sampler half.
	SamplerHandleShift = 20
)

// PackOffsets combines the texture and sampler word offsets with the handle
// type into the single handle value given to the resource manager.
func PackOffsets(textureOffset, samplerOffset int, handleType TextureHandleType) int {
	return (textureOffset & 0xffff) | ((samplerOffset & 0x1fff) << 16) | (int(handleType) << 29)
}

// UnpackOffsets is the inverse of PackOffsets.
func UnpackOffsets(handle int) (textureOffset, samplerOffset int, handleType TextureHandleType) {
	return handle & 0xffff, (handle >> 16) & 0x1fff, TextureHandleType((handle >> 29) & 7)
}

// PackSlots combines the constant-buffer slots of the two halves; the sampler
// slot is stored biased by one so zero means "same as texture".
func PackSlots(textureSlot, samplerSlot int) int {
	return (textureSlot & 0xffff) | (((samplerSlot + 1) & 0xffff) << 16)
}

// UnpackSlots is the inverse of PackSlots.
func UnpackSlots(slots int) (textureSlot, samplerSlot int) {
	textureSlot = slots & 0xffff
	samplerSlot = ((slots >> 16) & 0xffff) - 1
	if samplerSlot < 0 {
		samplerSlot = textureSlot
	}
	return
}
