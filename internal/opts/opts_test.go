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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrDefault(t *testing.T) {
	const key = "SHADEROPT_TEST_VALUE"

	t.Setenv(key, "")
	require.Equal(t, 7, parseOrDefault(key, 7, 0))

	t.Setenv(key, "12")
	require.Equal(t, 12, parseOrDefault(key, 7, 0))

	t.Setenv(key, "0x10")
	require.Equal(t, 16, parseOrDefault(key, 7, 0))

	t.Setenv(key, "zero")
	require.Panics(t, func() { parseOrDefault(key, 7, 0) })

	t.Setenv(key, "0")
	require.Panics(t, func() { parseOrDefault(key, 7, 1) })
}

func TestOptions(t *testing.T) {
	o := GetDefaultOptions()
	require.Equal(t, ReservedConstantBufferSlot, o.ReservedConstantBufferSlot)
	require.Equal(t, MinimumArrayLength, o.MinimumArrayLength)

	o.ReservedConstantBufferSlot = 3
	require.True(t, o.IsReservedSlot(3))
	require.False(t, o.IsReservedSlot(1))

	o.MinimumArrayLength = 4
	require.Equal(t, 4, o.ClampArrayLength(0))
	require.Equal(t, 4, o.ClampArrayLength(3))
	require.Equal(t, 64, o.ClampArrayLength(64))
}
