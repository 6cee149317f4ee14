//go:build shaderopt_verify

/*
 * Copyright 2024 CloudWeGo Authors
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
	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
)

const verify = true

// verifyFunctions checks the graph invariants of every optimized function.
func verifyFunctions(fns ...*ir.Function) error {
	for _, fn := range fns {
		if err := ir.Verify(fn); err != nil {
			return err
		}
	}
	return nil
}
