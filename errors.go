/*
 * Copyright 2021 ByteDance Inc.
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
    `fmt`

    `github.com/ryujinx-mirror/ryujinx-sub037/internal/opt`
)

// ErrorKind classifies the failures that abort the compilation of a program.
type ErrorKind int

const (
    // ErrUnsupportedOperand means the decoder produced an operation shape no
    // pass can handle, such as an atomic on 8 or 16 bit global memory.
    ErrUnsupportedOperand ErrorKind = iota + 1

    // ErrInvalidGraph means the input graph breaks a structural invariant.
    ErrInvalidGraph
)

func (self ErrorKind) String() string {
    switch self {
        case ErrUnsupportedOperand : return "UnsupportedOperand"
        case ErrInvalidGraph       : return "InvalidGraph"
        default                    : return fmt.Sprintf("ErrorKind(%d)", int(self))
    }
}

// CompileError occures when a program cannot be optimized at all. Problems
// with single resources are logged through the accessor instead.
type CompileError struct {
    Kind     ErrorKind
    Function string
    Pass     string
    Reason   string
}

func (self CompileError) Error() string {
    if self.Pass != "" {
        return fmt.Sprintf("CompileError(%s) in %s during %s: %s", self.Kind, self.Function, self.Pass, self.Reason)
    } else {
        return fmt.Sprintf("CompileError(%s) in %s: %s", self.Kind, self.Function, self.Reason)
    }
}

func newCompileError(fn string, pass string, f *opt.Fault) *CompileError {
    var kind ErrorKind
    switch f.Kind {
        case opt.UnsupportedOperand : kind = ErrUnsupportedOperand
        default                     : kind = ErrInvalidGraph
    }
    return &CompileError {
        Kind     : kind,
        Function : fn,
        Pass     : pass,
        Reason   : f.Message,
    }
}
