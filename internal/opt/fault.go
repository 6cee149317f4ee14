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
    `fmt`
)

type FaultKind int

const (
    // UnsupportedOperand is raised for inputs the passes cannot legalize,
    // such as atomics on 8 or 16 bit global memory.
    UnsupportedOperand FaultKind = iota + 1

    // InvalidGraph is raised when the control flow graph is malformed.
    InvalidGraph
)

func (self FaultKind) String() string {
    switch self {
        case UnsupportedOperand : return "UnsupportedOperand"
        case InvalidGraph       : return "InvalidGraph"
        default                 : return fmt.Sprintf("FaultKind(%d)", int(self))
    }
}

// Fault is the panic value of an unrecoverable pass failure.
type Fault struct {
    Kind    FaultKind
    Message string
}

func (self *Fault) Error() string {
    return fmt.Sprintf("%s: %s", self.Kind, self.Message)
}

func raise(kind FaultKind, format string, args ...interface{}) {
    panic(&Fault {
        Kind    : kind,
        Message : fmt.Sprintf(format, args...),
    })
}
