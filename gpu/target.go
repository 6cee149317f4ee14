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

// Package gpu defines the contracts between the optimizer and the host:
// capability queries, diagnostics and binding allocation.
package gpu

import (
	"fmt"
)

// TargetLanguage is the shading language the backend will emit.
type TargetLanguage uint8

const (
	GLSL TargetLanguage = iota
	SPIRV
)

func (t TargetLanguage) String() string {
	switch t {
	case GLSL:
		return "glsl"
	case SPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("language(%d)", uint8(t))
	}
}

// ParseTargetLanguage accepts the names printed by String.
func ParseTargetLanguage(s string) (TargetLanguage, error) {
	switch s {
	case "glsl":
		return GLSL, nil
	case "spirv", "spir-v":
		return SPIRV, nil
	default:
		return 0, fmt.Errorf("unknown target language %q", s)
	}
}

// TargetAPI is the graphics API the translated shader runs on.
type TargetAPI uint8

const (
	OpenGL TargetAPI = iota
	Vulkan
)

func (t TargetAPI) String() string {
	switch t {
	case OpenGL:
		return "opengl"
	case Vulkan:
		return "vulkan"
	default:
		return fmt.Sprintf("api(%d)", uint8(t))
	}
}

func ParseTargetAPI(s string) (TargetAPI, error) {
	switch s {
	case "opengl", "gl":
		return OpenGL, nil
	case "vulkan", "vk":
		return Vulkan, nil
	default:
		return 0, fmt.Errorf("unknown target api %q", s)
	}
}

// ShaderStage is the pipeline stage a program belongs to.
type ShaderStage uint8

const (
	Compute ShaderStage = iota
	Vertex
	TessellationControl
	TessellationEvaluation
	Geometry
	Fragment
)

var stageNames = [...]string{
	Compute:                "compute",
	Vertex:                 "vertex",
	TessellationControl:    "tess_control",
	TessellationEvaluation: "tess_eval",
	Geometry:               "geometry",
	Fragment:               "fragment",
}

func (s ShaderStage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

func ParseShaderStage(s string) (ShaderStage, error) {
	for i, v := range stageNames {
		if v == s {
			return ShaderStage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shader stage %q", s)
}
