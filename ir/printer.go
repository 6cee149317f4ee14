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

package ir

import (
    `fmt`
    `math`
    `strconv`
    `strings`
)

var _TextureFlagNames = []struct {
    f TextureFlags
    s string
} {
    { TexBindless    , "bindless"  },
    { TexGather      , "gather"    },
    { TexDerivatives , "derivs"    },
    { TexIntCoords   , "intcoords" },
    { TexLodBias     , "lodbias"   },
    { TexLodLevel    , "lodlevel"  },
    { TexOffset      , "offset"    },
}

// LookupTextureFlag finds a texture flag by its printed name.
func LookupTextureFlag(name string) (TextureFlags, bool) {
    for _, v := range _TextureFlagNames {
        if v.s == name {
            return v.f, true
        }
    }
    return 0, false
}

type namer struct {
    ids map[*Operand]int
}

func newNamer() *namer {
    return &namer { ids: make(map[*Operand]int) }
}

func (self *namer) local(v *Operand) string {
    if self == nil {
        return v.String()
    }
    id, ok := self.ids[v]
    if !ok {
        id = len(self.ids)
        self.ids[v] = id
    }
    return fmt.Sprintf("%%%d", id)
}

func (self *namer) operand(v *Operand, fp bool) string {
    switch {
        case v.Type == LocalVariable : return self.local(v)
        case v.Type != Constant      : return v.String()
        case !fp                     : return v.String()
    }

    /* non-finite floats are printed as raw bits */
    f := v.AsFloat()
    if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
        return v.String()
    } else {
        return strconv.FormatFloat(float64(f), 'g', -1, 32) + "f"
    }
}

func formatTexture(tex *TextureInfo) string {
    var ret []string
    ret = append(ret, tex.Type.String())

    /* format and flags */
    if tex.Format != FormatUnknown {
        ret = append(ret, "fmt=" + tex.Format.String())
    }
    for _, v := range _TextureFlagNames {
        if tex.Flags & v.f != 0 {
            ret = append(ret, v.s)
        }
    }

    /* resolved bindings */
    if !tex.IsBindless() {
        ret = append(ret, "binding=" + tex.Binding.String())
    }
    if tex.ArrayLength != 0 {
        ret = append(ret, fmt.Sprintf("array=%d", tex.ArrayLength))
    }
    if tex.SeparateSampler {
        ret = append(ret, "sampler=" + tex.SamplerBinding.String())
        ret = append(ret, fmt.Sprintf("samplers=%d", tex.SamplerArrayLength))
    }
    return "[" + strings.Join(ret, ",") + "]"
}

func formatOperation(op *Operation, nm *namer) string {
    var sb strings.Builder
    var ds []string
    var ss []string

    /* dests */
    for _, v := range op.dests {
        ds = append(ds, nm.operand(v, false))
    }
    if len(ds) != 0 {
        sb.WriteString(strings.Join(ds, ", "))
        sb.WriteString(" = ")
    }

    /* opcode with storage and texture suffixes */
    sb.WriteString(op.Inst.String())
    if op.StorageKind != StorageNone {
        sb.WriteString("@")
        sb.WriteString(op.StorageKind.String())
    }
    if op.Tex != nil {
        sb.WriteString(formatTexture(op.Tex))
    }

    /* sources, floats are printed for FP32 arithmetic */
    for _, v := range op.sources {
        ss = append(ss, nm.operand(v, op.Inst.IsFP32()))
    }
    if len(ss) != 0 {
        sb.WriteString(" ")
        sb.WriteString(strings.Join(ss, ", "))
    }
    return sb.String()
}

func formatPhi(phi *PhiNode, nm *namer) string {
    var ss []string
    for i, v := range phi.sources {
        ss = append(ss, fmt.Sprintf("[%s: %s]", phi.blocks[i], nm.operand(v, false)))
    }
    return fmt.Sprintf("%s = Phi %s", nm.operand(phi.dest, false), strings.Join(ss, ", "))
}

// formatNode prints a node with the numbering shared by the whole function.
func formatNode(n INode, nm *namer) string {
    switch v := n.(type) {
        case *Operation : return formatOperation(v, nm)
        case *PhiNode   : return formatPhi(v, nm)
        default         : return n.String()
    }
}

func formatFunction(fn *Function) string {
    nm := newNamer()
    buf := []string {
        fmt.Sprintf("func %s#%d(in=%d, out=%d, ret=%v):", fn.Name, fn.Id, fn.InArguments, fn.OutArguments, fn.ReturnsValue),
    }

    /* dump every block */
    for _, bb := range fn.Blocks {
        buf = append(buf, bb.String() + ":")
        for n := bb.First(); n != nil; n = n.Next() {
            buf = append(buf, "    " + formatNode(n, nm))
        }

        /* successors */
        var succ []string
        if bb.Next() != nil {
            succ = append(succ, "next " + bb.Next().String())
        }
        if bb.Branch() != nil {
            succ = append(succ, "branch " + bb.Branch().String())
        }
        if len(succ) != 0 {
            buf = append(buf, "    -> " + strings.Join(succ, ", "))
        }
    }
    return strings.Join(buf, "\n")
}
