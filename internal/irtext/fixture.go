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

package irtext

import (
    `github.com/nikandfor/errors`
    `gopkg.in/yaml.v3`

    `github.com/ryujinx-mirror/ryujinx-sub037/gpu`
    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

// Fixture is a program with the host it is compiled for, as stored in YAML
// test data and read by the command line tool.
type Fixture struct {
    Name   string            `yaml:"name"`
    Stage  string            `yaml:"stage"`
    Target string            `yaml:"target"`
    API    string            `yaml:"api"`
    Caps   *gpu.Capabilities `yaml:"caps"`
    Input  string            `yaml:"input"`
    Expect string            `yaml:"expect"`
    Logs   []string          `yaml:"logs"`
}

// Case is a parsed fixture.
type Case struct {
    Func     *ir.Function
    Stage    gpu.ShaderStage
    Target   gpu.TargetLanguage
    API      gpu.TargetAPI
    Accessor *gpu.StaticAccessor
}

// LoadFixtures decodes a YAML list of fixtures.
func LoadFixtures(data []byte) ([]Fixture, error) {
    var ret []Fixture
    if err := yaml.Unmarshal(data, &ret); err != nil {
        return nil, errors.Wrap(err, "decode fixtures")
    } else {
        return ret, nil
    }
}

// Build parses the fixture. Missing fields default to a Vulkan SPIR-V
// fragment shader on a host with gpu.DefaultCapabilities.
func (self *Fixture) Build() (*Case, error) {
    var err error
    var ret Case

    /* the host */
    caps := gpu.DefaultCapabilities()
    if self.Caps != nil {
        caps = *self.Caps
    }

    /* the target */
    if ret.Stage, err = gpu.ParseShaderStage(orDefault(self.Stage, "fragment")); err != nil {
        return nil, errors.Wrap(err, "fixture %s", self.Name)
    }
    if ret.Target, err = gpu.ParseTargetLanguage(orDefault(self.Target, "spirv")); err != nil {
        return nil, errors.Wrap(err, "fixture %s", self.Name)
    }
    if ret.API, err = gpu.ParseTargetAPI(orDefault(self.API, "vulkan")); err != nil {
        return nil, errors.Wrap(err, "fixture %s", self.Name)
    }

    /* the program */
    if ret.Func, err = Parse(self.Input); err != nil {
        return nil, errors.Wrap(err, "fixture %s", self.Name)
    }
    ret.Accessor = gpu.NewStaticAccessor(caps)
    return &ret, nil
}

func orDefault(s string, def string) string {
    if s == "" {
        return def
    } else {
        return s
    }
}
