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
	"fmt"

	"github.com/ryujinx-mirror/ryujinx-sub037/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithReservedConstantBufferSlot sets the constant-buffer slot the guest
// compiler keeps its own constants in.
//
// When both halves of a masked bindless handle come from constant buffers,
// the half read from this slot is taken as the sampler.
//
// The default value of this option is "1".
func WithReservedConstantBufferSlot(slot int) Option {
	if slot < 0 {
		panic(fmt.Sprintf("shaderopt: invalid constant buffer slot: %d", slot))
	} else {
		return func(o *opts.Options) { o.ReservedConstantBufferSlot = slot }
	}
}

// WithTextureHandleBufferSlot sets the constant-buffer slot holding arrays of
// bindless handles.
//
// The default value of this option is "2".
func WithTextureHandleBufferSlot(slot int) Option {
	if slot < 0 {
		panic(fmt.Sprintf("shaderopt: invalid constant buffer slot: %d", slot))
	} else {
		return func(o *opts.Options) { o.TextureHandleBufferSlot = slot }
	}
}

// WithDriverReservedConstantBuffer sets the constant-buffer slot the driver
// stores storage buffer descriptors in. Base addresses read from this slot
// win over any other candidate in the same address computation.
//
// The default value of this option is "0".
func WithDriverReservedConstantBuffer(slot int) Option {
	if slot < 0 {
		panic(fmt.Sprintf("shaderopt: invalid constant buffer slot: %d", slot))
	} else {
		return func(o *opts.Options) { o.DriverReservedConstantBuffer = slot }
	}
}

// WithMinimumArrayLength sets the smallest texture array bindless accesses
// are resolved to, whatever length the host reports.
//
// The default value of this option is "2".
func WithMinimumArrayLength(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("shaderopt: invalid array length: %d", n))
	} else {
		return func(o *opts.Options) { o.MinimumArrayLength = n }
	}
}

// WithTrace logs every pass through the tlog span carried by the context.
//
// This value can also be configured with the `SHADEROPT_TRACE` environment
// variable.
func WithTrace(v bool) Option {
	return func(o *opts.Options) { o.Trace = v }
}

// SetMinimumArrayLength sets the default minimum array length for all
// programs from now on.
//
// Returns the old opts.MinimumArrayLength value.
func SetMinimumArrayLength(n int) int {
	n, opts.MinimumArrayLength = opts.MinimumArrayLength, n
	return n
}
