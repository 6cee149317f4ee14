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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/nikandfor/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	shaderopt "github.com/ryujinx-mirror/ryujinx-sub037"
	"github.com/ryujinx-mirror/ryujinx-sub037/gpu"
	"github.com/ryujinx-mirror/ryujinx-sub037/internal/irtext"
	"github.com/ryujinx-mirror/ryujinx-sub037/internal/opts"
	"github.com/ryujinx-mirror/ryujinx-sub037/resource"
)

var version = "0.1.0"

type flags struct {
	stage  string
	target string
	api    string
	caps   string

	reservedSlot int
	handleSlot   int
	driverCbuf   int
	minArray     int

	trace  bool
	dStats bool
	dInput bool
}

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var f flags
	rootCmd := &cobra.Command{
		Use:   "shaderopt [file]",
		Short: "shaderopt optimizes shader IR written in text form",
		Long: `shaderopt reads a function in the text form printed by the ir package,
or a YAML list of fixtures, runs the optimizer on it and prints the result
together with the generated helper functions.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := doOptimize(cmd.Context(), args[0], &f, out)
			if err != nil {
				fmt.Fprintf(errOut, "shaderopt: %v\n", err)
			}
			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Target flags, used for plain text input
	rootCmd.Flags().StringVar(&f.stage, "stage", "fragment", "Shader stage")
	rootCmd.Flags().StringVar(&f.target, "target", "spirv", "Target language (glsl, spirv)")
	rootCmd.Flags().StringVar(&f.api, "api", "vulkan", "Target API (opengl, vulkan)")
	rootCmd.Flags().StringVar(&f.caps, "caps", "", "YAML file describing the host capabilities")

	// Optimizer options, defaulting to the SHADEROPT_* environment
	def := opts.GetDefaultOptions()
	rootCmd.Flags().IntVar(&f.reservedSlot, "reserved-slot", def.ReservedConstantBufferSlot, "Constant buffer slot reserved for compiler constants")
	rootCmd.Flags().IntVar(&f.handleSlot, "handle-slot", def.TextureHandleBufferSlot, "Constant buffer slot holding bindless handle arrays")
	rootCmd.Flags().IntVar(&f.driverCbuf, "driver-cbuf", def.DriverReservedConstantBuffer, "Constant buffer slot holding storage buffer descriptors")
	rootCmd.Flags().IntVar(&f.minArray, "min-array-length", def.MinimumArrayLength, "Minimum length of bindless texture arrays")

	// Debug flags
	rootCmd.Flags().BoolVar(&f.trace, "trace", def.Trace, "Log every pass")
	rootCmd.Flags().BoolVar(&f.dStats, "dstats", false, "Dump statistics and allocated bindings")
	rootCmd.Flags().BoolVar(&f.dInput, "dinput", false, "Print the parsed input before optimizing")

	return rootCmd
}

func (f *flags) options() []shaderopt.Option {
	return []shaderopt.Option{
		shaderopt.WithReservedConstantBufferSlot(f.reservedSlot),
		shaderopt.WithTextureHandleBufferSlot(f.handleSlot),
		shaderopt.WithDriverReservedConstantBuffer(f.driverCbuf),
		shaderopt.WithMinimumArrayLength(f.minArray),
		shaderopt.WithTrace(f.trace),
	}
}

// loadCases reads either a YAML fixture list or a single text function.
func loadCases(filename string, f *flags) ([]irtext.Fixture, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		return irtext.LoadFixtures(data)
	}

	// Plain text takes the target from the flags
	fx := irtext.Fixture{
		Name:   filepath.Base(filename),
		Stage:  f.stage,
		Target: f.target,
		API:    f.api,
		Input:  string(data),
	}
	if f.caps != "" {
		caps, err := loadCaps(f.caps)
		if err != nil {
			return nil, err
		}
		fx.Caps = caps
	}
	return []irtext.Fixture{fx}, nil
}

func loadCaps(filename string) (*gpu.Capabilities, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	caps := gpu.DefaultCapabilities()
	if err = yaml.Unmarshal(data, &caps); err != nil {
		return nil, errors.Wrap(err, "%s", filename)
	}
	return &caps, nil
}

func doOptimize(ctx context.Context, filename string, f *flags, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fixtures, err := loadCases(filename, f)
	if err != nil {
		return err
	}

	for i := range fixtures {
		c, err := fixtures[i].Build()
		if err != nil {
			return err
		}

		if f.dInput {
			fmt.Fprintf(out, "// input\n%s\n\n", c.Func)
		}

		res := resource.NewManager(resource.DefaultConfig())
		r, err := shaderopt.Optimize(ctx, shaderopt.Program{
			Func:      c.Func,
			Stage:     c.Stage,
			Target:    c.Target,
			API:       c.API,
			Accessor:  c.Accessor,
			Resources: res,
		}, f.options()...)
		if err != nil {
			return err
		}

		// The program, then its helpers
		fmt.Fprintln(out, r.Func)
		for _, h := range r.Helpers {
			fmt.Fprintf(out, "\n%s\n", h)
		}

		// Diagnostics from the host accessor
		for _, msg := range c.Accessor.Logs() {
			fmt.Fprintf(out, "// log: %s\n", msg)
		}

		if f.dStats {
			cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerMethods: true}
			cfg.Fdump(out, r.Stats, res.StorageBuffers(), res.Textures(), res.Images())
		}
	}
	return nil
}
