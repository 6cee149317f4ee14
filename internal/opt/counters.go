/*
 * Copyright 2022 ByteDance Inc.
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

package opt

import (
    `sync/atomic`
)

// Process wide counters, read by the debug package.
var (
    ProgramCount          uint32
    FaultCount            uint32
    RemovedCount          uint32
    FoldedCount           uint32
    BindlessResolvedCount uint32
    BindlessFailedCount   uint32
    GlobalRewrittenCount  uint32
    GlobalFailedCount     uint32
    HelperCount           uint32
)

// Publish adds the statistics of one finished program to the counters.
func Publish(s Stats, helpers int) {
    atomic.AddUint32(&ProgramCount, 1)
    atomic.AddUint32(&RemovedCount, uint32(s.Removed))
    atomic.AddUint32(&FoldedCount, uint32(s.Folded))
    atomic.AddUint32(&BindlessResolvedCount, uint32(s.BindlessResolved))
    atomic.AddUint32(&BindlessFailedCount, uint32(s.BindlessFailed))
    atomic.AddUint32(&GlobalRewrittenCount, uint32(s.GlobalRewritten))
    atomic.AddUint32(&GlobalFailedCount, uint32(s.GlobalFailed))
    atomic.AddUint32(&HelperCount, uint32(helpers))
}

// PublishFault counts a program that failed to compile.
func PublishFault() {
    atomic.AddUint32(&ProgramCount, 1)
    atomic.AddUint32(&FaultCount, 1)
}
