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
    `github.com/nikandfor/tlog`

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/helper`
    `github.com/ryujinx-mirror/ryujinx-sub037/internal/opts`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// Stats counts what the passes did to one program.
type Stats struct {
    Sweeps           int
    Removed          int
    Folded           int
    BindlessResolved int
    BindlessFailed   int
    GlobalRewritten  int
    GlobalFailed     int
}

// Context carries everything the passes need for one program. It is never
// shared between concurrent compilations.
type Context struct {
    Func      *ir.Function
    Stage     gpu.ShaderStage
    Target    gpu.TargetLanguage
    API       gpu.TargetAPI
    Accessor  gpu.Accessor
    Resources gpu.ResourceManager
    Helpers   *helper.Manager
    Options   opts.Options
    Stats     Stats
    Pass      string
    Trace     tlog.Span
}

// NewContext creates a context whose helper ids start after `fn`.
func NewContext(fn *ir.Function, acc gpu.Accessor, res gpu.ResourceManager, o opts.Options) *Context {
    return &Context {
        Func      : fn,
        Accessor  : acc,
        Resources : res,
        Helpers   : helper.NewManager(fn.Id + 1),
        Options   : o,
    }
}

func (self *Context) trace(msg string, kvs ...interface{}) {
    if self.Trace.Logger != nil {
        self.Trace.Printw(msg, kvs...)
    }
}
