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

import (
	"os"
	"strconv"
)

const (
	_DefaultReservedConstantBufferSlot   = 1 // slot 1 holds driver state on the guest
	_DefaultTextureHandleBufferSlot      = 2 // slot 2 holds the bindless handle buffer
	_DefaultDriverReservedConstantBuffer = 0 // storage buffer descriptors live in cb0
	_DefaultMinimumArrayLength           = 2
)

var (
	ReservedConstantBufferSlot   = parseOrDefault("SHADEROPT_RESERVED_CBUF_SLOT", _DefaultReservedConstantBufferSlot, 0)
	TextureHandleBufferSlot      = parseOrDefault("SHADEROPT_HANDLE_CBUF_SLOT", _DefaultTextureHandleBufferSlot, 0)
	DriverReservedConstantBuffer = parseOrDefault("SHADEROPT_DRIVER_CBUF", _DefaultDriverReservedConstantBuffer, 0)
	MinimumArrayLength           = parseOrDefault("SHADEROPT_MIN_ARRAY_LENGTH", _DefaultMinimumArrayLength, 1)
	Trace                        = parseOrDefault("SHADEROPT_TRACE", 0, 0) != 0
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("shaderopt: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("shaderopt: value too small for " + key)
	} else {
		return ret
	}
}
