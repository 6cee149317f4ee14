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

// Package shaderopt legalizes and optimizes decoded shader programs before
// code generation: bindless texture handles are resolved to bindings, global
// memory accesses are turned into storage buffer accesses, and the result is
// folded and cleaned to a fixed point.
package shaderopt

import (
	"context"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/ryujinx-mirror/ryujinx-sub037/gpu"
	"github.com/ryujinx-mirror/ryujinx-sub037/internal/opt"
	"github.com/ryujinx-mirror/ryujinx-sub037/internal/opts"
	"github.com/ryujinx-mirror/ryujinx-sub037/ir"
	"github.com/ryujinx-mirror/ryujinx-sub037/resource"
)

// Program is one shader entry point and the host it is compiled for.
//
// A nil Accessor uses gpu.DefaultCapabilities, a nil Resources uses a
// resource.Manager with resource.DefaultConfig.
type Program struct {
	Func      *ir.Function
	Stage     gpu.ShaderStage
	Target    gpu.TargetLanguage
	API       gpu.TargetAPI
	Accessor  gpu.Accessor
	Resources gpu.ResourceManager
}

// Result is an optimized program.
type Result struct {
	// Func is the optimized entry point, modified in place.
	Func *ir.Function

	// Helpers are the functions generated while optimizing, in id order.
	// Call operations in Func refer to them by id.
	Helpers []*ir.Function

	// Resources is the resource manager the bindings were allocated from.
	Resources gpu.ResourceManager

	Stats Stats
}

// Stats counts what the passes did to one program.
type Stats = opt.Stats

// Optimize runs the whole pipeline on p.Func.
//
// Accesses whose resources cannot be found are logged through the accessor
// and degraded. Any error other than a missing function wraps a
// *CompileError and means the program as a whole cannot be compiled.
func Optimize(ctx context.Context, p Program, options ...Option) (res *Result, err error) {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}

	/* nothing to optimize */
	if p.Func == nil {
		return nil, errors.New("shaderopt: no function to optimize")
	}

	/* default collaborators */
	if p.Accessor == nil {
		p.Accessor = gpu.NewStaticAccessor(gpu.DefaultCapabilities())
	}
	if p.Resources == nil {
		p.Resources = resource.NewManager(resource.DefaultConfig())
	}

	/* the compile context */
	c := opt.NewContext(p.Func, p.Accessor, p.Resources, o)
	c.Stage = p.Stage
	c.Target = p.Target
	c.API = p.API

	/* trace if asked to */
	if o.Trace {
		tr, _ := tlog.SpawnFromContextAndWrap(ctx, "shaderopt: optimize", "function", p.Func.Name, "stage", p.Stage)
		defer tr.Finish("err", &err)
		c.Trace = tr
	}

	/* run the passes */
	if err = run(c); err != nil {
		opt.PublishFault()
		return nil, errors.Wrap(err, "optimize %v", p.Func.Name)
	}

	/* check the output in verifying builds */
	helpers := c.Helpers.Functions()
	if verify {
		if err = verifyFunctions(append([]*ir.Function{p.Func}, helpers...)...); err != nil {
			opt.PublishFault()
			return nil, errors.Wrap(&CompileError{Kind: ErrInvalidGraph, Function: p.Func.Name, Reason: err.Error()}, "verify %v", p.Func.Name)
		}
	}

	/* done */
	opt.Publish(c.Stats, len(helpers))
	return &Result{
		Func:      p.Func,
		Helpers:   helpers,
		Resources: p.Resources,
		Stats:     c.Stats,
	}, nil
}

// run turns pass faults into errors; any other panic is a bug and is
// propagated.
func run(c *opt.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if f, ok := v.(*opt.Fault); ok {
				err = newCompileError(c.Func.Name, c.Pass, f)
			} else {
				panic(v)
			}
		}
	}()
	opt.Run(c)
	return
}
