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


package opts

type Options struct {
	ReservedConstantBufferSlot   int
	TextureHandleBufferSlot      int
	DriverReservedConstantBuffer int
	MinimumArrayLength           int
	Trace                        bool
}

// IsReservedSlot reports whether a constant-buffer slot holds driver data that
// can never be a bindless handle.
func (self *Options) IsReservedSlot(slot int) bool {
	return slot == self.ReservedConstantBufferSlot
}

// ClampArrayLength raises an array length reported by the host to the
// minimum the backends accept.
func (self *Options) ClampArrayLength(n int) int {
	if n < self.MinimumArrayLength {
		return self.MinimumArrayLength
	}
	return n
}

func GetDefaultOptions() Options {
	return Options{
		ReservedConstantBufferSlot:   ReservedConstantBufferSlot,
		TextureHandleBufferSlot:      TextureHandleBufferSlot,
		DriverReservedConstantBuffer: DriverReservedConstantBuffer,
		MinimumArrayLength:           MinimumArrayLength,
		Trace:                        Trace,
	}
}
