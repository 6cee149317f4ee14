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

package debug

import (
	"sync/atomic"

	"github.com/ryujinx-mirror/ryujinx-sub037/internal/opt"
)

// A Stats records statistics about the optimizer since the process started.
type Stats struct {
	Programs ProgramStats
	Bindless ResolveStats
	Global   ResolveStats
}

// A ProgramStats records how many programs were optimized and what was done
// to them.
type ProgramStats struct {
	Count   int
	Faults  int
	Removed int
	Folded  int
	Helpers int
}

// A ResolveStats records how many resource accesses were resolved, and how
// many had to be zeroed.
type ResolveStats struct {
	Resolved int
	Failed   int
}

// GetStats returns statistics of the optimizer.
func GetStats() Stats {
	return Stats{
		Programs: ProgramStats{
			Count:   int(atomic.LoadUint32(&opt.ProgramCount)),
			Faults:  int(atomic.LoadUint32(&opt.FaultCount)),
			Removed: int(atomic.LoadUint32(&opt.RemovedCount)),
			Folded:  int(atomic.LoadUint32(&opt.FoldedCount)),
			Helpers: int(atomic.LoadUint32(&opt.HelperCount)),
		},
		Bindless: ResolveStats{
			Resolved: int(atomic.LoadUint32(&opt.BindlessResolvedCount)),
			Failed:   int(atomic.LoadUint32(&opt.BindlessFailedCount)),
		},
		Global: ResolveStats{
			Resolved: int(atomic.LoadUint32(&opt.GlobalRewrittenCount)),
			Failed:   int(atomic.LoadUint32(&opt.GlobalFailedCount)),
		},
	}
}
