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

// Package irtext reads functions in the format printed by ir.Function.
package irtext

import (
    `regexp`
    `strconv`
    `strings`

    `github.com/nikandfor/errors`

    `github.com/ryujinx-mirror/ryujinx-sub037/ir`
)

var (
    _HeaderRe = regexp.MustCompile(`^func (\S+)#(-?\d+)\(in=(\d+), out=(\d+), ret=(true|false)\):$`)
    _LabelRe  = regexp.MustCompile(`^(bb_\d+):$`)
    _PhiRe    = regexp.MustCompile(`\[(bb_\d+): ((?:[^\[\]]|\[\d+\])+)\]`)
    _CbufRe   = regexp.MustCompile(`^cb(\d+)\[(\d+)\]$`)
)

type block struct {
    bb    *ir.BasicBlock
    next  string
    jump  string
    links bool
}

type phiSource struct {
    phi   *ir.PhiNode
    block string
    value *ir.Operand
}

type parser struct {
    line   int
    fn     *ir.Function
    order  []*block
    blocks map[string]*block
    locals map[string]*ir.Operand
    defs   map[string]bool
    phis   []phiSource
}

// Parse reads one function. The "func" header line is optional, a function
// without one is called "main" with id 0. Block successors default to the
// following block unless the block ends with Branch or Return, or gives them
// explicitly with a "-> next bb_N, branch bb_M" line. Branch targets may also
// be written as the last operand of the branch.
func Parse(src string) (*ir.Function, error) {
    p := &parser {
        fn     : ir.NewFunction(0, "main", nil),
        blocks : make(map[string]*block),
        locals : make(map[string]*ir.Operand),
        defs   : make(map[string]bool),
    }

    /* parse line by line */
    for i, line := range strings.Split(src, "\n") {
        p.line = i + 1
        if err := p.parseLine(line); err != nil {
            return nil, errors.Wrap(err, "line %d", p.line)
        }
    }

    /* resolve the forward references */
    if err := p.link(); err != nil {
        return nil, err
    }
    return p.fn, nil
}

// MustParse is Parse that panics on errors, for tests and fixtures.
func MustParse(src string) *ir.Function {
    fn, err := Parse(src)
    if err != nil {
        panic(err)
    }
    return fn
}

func (self *parser) parseLine(line string) error {
    if i := strings.Index(line, "//"); i >= 0 {
        line = line[:i]
    }

    /* skip empty lines */
    line = strings.TrimSpace(line)
    if line == "" {
        return nil
    }

    /* header, labels and successors */
    if m := _HeaderRe.FindStringSubmatch(line); m != nil {
        return self.parseHeader(m)
    }
    if m := _LabelRe.FindStringSubmatch(line); m != nil {
        return self.newBlock(m[1])
    }

    /* anything else goes to the current block */
    if len(self.order) == 0 {
        if err := self.newBlock("bb_0"); err != nil {
            return err
        }
    }
    if strings.HasPrefix(line, "->") {
        return self.parseSuccessors(strings.TrimSpace(line[2:]))
    } else {
        return self.parseNode(line)
    }
}

func (self *parser) parseHeader(m []string) error {
    if len(self.order) != 0 {
        return errors.New("function header after the first block")
    }
    self.fn.Name = m[1]
    self.fn.Id, _ = strconv.Atoi(m[2])
    self.fn.InArguments, _ = strconv.Atoi(m[3])
    self.fn.OutArguments, _ = strconv.Atoi(m[4])
    self.fn.ReturnsValue = m[5] == "true"
    return nil
}

func (self *parser) newBlock(name string) error {
    if _, ok := self.blocks[name]; ok {
        return errors.New("duplicated block %s", name)
    }
    b := &block { bb: ir.NewBasicBlock(len(self.order)) }
    self.order = append(self.order, b)
    self.blocks[name] = b
    return nil
}

func (self *parser) current() *block {
    return self.order[len(self.order) - 1]
}

func (self *parser) parseSuccessors(line string) error {
    b := self.current()
    b.links = true

    /* "next bb_N" and "branch bb_N" in any order */
    for _, s := range strings.Split(line, ",") {
        f := strings.Fields(s)
        if len(f) != 2 {
            return errors.New("invalid successor: %q", s)
        }
        switch f[0] {
            case "next"   : b.next = f[1]
            case "branch" : b.jump = f[1]
            default       : return errors.New("invalid successor kind: %q", f[0])
        }
    }
    return nil
}

func (self *parser) parseNode(line string) error {
    var dests []string
    var body = line

    /* dests come before " = " */
    if i := strings.Index(line, " = "); i >= 0 {
        dests = strings.Split(line[:i], ",")
        body = line[i + 3:]
    }

    /* opcode token, then the sources */
    tok, rest := body, ""
    if i := strings.IndexByte(body, ' '); i >= 0 {
        tok, rest = body[:i], strings.TrimSpace(body[i + 1:])
    }

    /* phi nodes have their own source syntax */
    if tok == "Phi" {
        return self.parsePhi(dests, rest)
    } else {
        return self.parseOperation(dests, tok, rest)
    }
}

func (self *parser) parsePhi(dests []string, rest string) error {
    if len(dests) != 1 {
        return errors.New("phi needs exactly one dest")
    }

    /* the dest */
    d, err := self.dest(dests[0])
    if err != nil {
        return err
    }

    /* sources are linked once every block is known */
    phi := ir.NewPhiNode(d)
    for _, m := range _PhiRe.FindAllStringSubmatch(rest, -1) {
        v, err := self.operand(m[2])
        if err != nil {
            return err
        }
        self.phis = append(self.phis, phiSource { phi, m[1], v })
    }
    self.current().bb.Append(phi)
    return nil
}

func (self *parser) parseOperation(dests []string, tok string, rest string) error {
    var err error
    var tex *ir.TextureInfo
    var kind ir.StorageKind
    var inst ir.Instruction

    /* texture metadata */
    if i := strings.IndexByte(tok, '['); i >= 0 {
        if !strings.HasSuffix(tok, "]") {
            return errors.New("unterminated texture metadata: %q", tok)
        }
        if tex, err = parseTexture(tok[i + 1:len(tok) - 1]); err != nil {
            return err
        }
        tok = tok[:i]
    }

    /* storage kind */
    if i := strings.IndexByte(tok, '@'); i >= 0 {
        var ok bool
        if kind, ok = ir.LookupStorageKind(tok[i + 1:]); !ok {
            return errors.New("unknown storage kind: %q", tok[i + 1:])
        }
        tok = tok[:i]
    }

    /* instruction and type suffix */
    if inst, err = parseInstruction(tok); err != nil {
        return err
    }

    /* sources, with an optional branch target */
    var srcs []*ir.Operand
    var jump string
    if rest != "" {
        for _, s := range strings.Split(rest, ",") {
            s = strings.TrimSpace(s)
            if inst.IsBranch() && strings.HasPrefix(s, "bb_") {
                jump = s
                continue
            }
            v, err := self.operand(s)
            if err != nil {
                return err
            }
            srcs = append(srcs, v)
        }
    }

    /* dests */
    var ds []*ir.Operand
    for _, s := range dests {
        d, err := self.dest(strings.TrimSpace(s))
        if err != nil {
            return err
        }
        ds = append(ds, d)
    }

    /* check the shape */
    if err = checkArity(inst, len(ds), len(srcs)); err != nil {
        return err
    }

    /* build the operation */
    op := ir.NewMultiDestOperation(inst, ds, srcs...)
    op.StorageKind = kind
    op.Tex = tex
    self.current().bb.Append(op)

    /* inline branch target */
    if jump != "" {
        self.current().jump = jump
    }
    return nil
}

func checkArity(inst ir.Instruction, nd int, ns int) error {
    a := inst.Arity()
    switch {
        case a.Dests != ir.Variadic && nd != a.Dests        : return errors.New("%s takes %d dests, got %d", inst, a.Dests, nd)
        case ns < a.MinSource                               : return errors.New("%s takes at least %d sources, got %d", inst, a.MinSource, ns)
        case a.MaxSource != ir.Variadic && ns > a.MaxSource : return errors.New("%s takes at most %d sources, got %d", inst, a.MaxSource, ns)
        default                                             : return nil
    }
}

func parseInstruction(tok string) (ir.Instruction, error) {
    var flags ir.Instruction
    switch {
        case strings.HasSuffix(tok, ".fp32") : flags, tok = ir.FP32, strings.TrimSuffix(tok, ".fp32")
        case strings.HasSuffix(tok, ".fp64") : flags, tok = ir.FP64, strings.TrimSuffix(tok, ".fp64")
    }
    if inst, ok := ir.LookupInstruction(tok); !ok {
        return ir.Invalid, errors.New("unknown instruction: %q", tok)
    } else {
        return inst | flags, nil
    }
}

func parseTexture(meta string) (*ir.TextureInfo, error) {
    var ok bool
    var ret ir.TextureInfo
    var items = strings.Split(meta, ",")

    /* the sampler type comes first */
    if ret.Type, ok = ir.LookupSamplerType(items[0]); !ok {
        return nil, errors.New("unknown sampler type: %q", items[0])
    }

    /* flags and key=value pairs */
    for _, s := range items[1:] {
        if f, ok := ir.LookupTextureFlag(s); ok {
            ret.Flags |= f
            continue
        }

        /* must be a pair */
        k, v, ok := strings.Cut(s, "=")
        if !ok {
            return nil, errors.New("unknown texture flag: %q", s)
        }

        /* the value */
        var err error
        switch k {
            case "fmt"      : err = lookupFormat(v, &ret.Format)
            case "binding"  : err = parseBinding(v, &ret.Binding)
            case "array"    : ret.ArrayLength, err = strconv.Atoi(v)
            case "sampler"  : ret.SeparateSampler, err = true, parseBinding(v, &ret.SamplerBinding)
            case "samplers" : ret.SamplerArrayLength, err = strconv.Atoi(v)
            default         : err = errors.New("unknown texture attribute: %q", k)
        }
        if err != nil {
            return nil, err
        }
    }
    return &ret, nil
}

func lookupFormat(s string, f *ir.TextureFormat) error {
    var ok bool
    if *f, ok = ir.LookupTextureFormat(s); !ok {
        return errors.New("unknown texture format: %q", s)
    }
    return nil
}

func parseBinding(s string, b *ir.SetBindingPair) error {
    set, binding, ok := strings.Cut(s, ":")
    if !ok {
        return errors.New("invalid binding: %q", s)
    }
    var err1, err2 error
    b.Set, err1 = strconv.Atoi(set)
    b.Binding, err2 = strconv.Atoi(binding)
    if err1 != nil || err2 != nil {
        return errors.New("invalid binding: %q", s)
    }
    return nil
}

func (self *parser) dest(s string) (*ir.Operand, error) {
    if !strings.HasPrefix(s, "%") {
        return nil, errors.New("dest must be a local: %q", s)
    }
    if self.defs[s] {
        return nil, errors.New("%s is defined twice", s)
    }
    self.defs[s] = true
    return self.local(s), nil
}

func (self *parser) local(s string) *ir.Operand {
    if v, ok := self.locals[s]; ok {
        return v
    }
    v := ir.Local()
    self.locals[s] = v
    return v
}

func (self *parser) operand(s string) (*ir.Operand, error) {
    switch {
        case s == "undef"                           : return ir.Undef(), nil
        case strings.HasPrefix(s, "%")              : return self.local(s), nil
        case strings.HasPrefix(s, "arg")            : return parseArg(s)
        case strings.HasPrefix(s, "cb")             : return parseCbuf(s)
        case strings.HasSuffix(s, "f") && !isHex(s) : return parseFloat(s)
        default                                     : return parseConst(s)
    }
}

func isHex(s string) bool {
    return strings.HasPrefix(strings.TrimPrefix(s, "-"), "0x")
}

func parseArg(s string) (*ir.Operand, error) {
    if i, err := strconv.Atoi(s[3:]); err != nil || i < 0 {
        return nil, errors.New("invalid argument: %q", s)
    } else {
        return ir.Arg(i), nil
    }
}

func parseCbuf(s string) (*ir.Operand, error) {
    m := _CbufRe.FindStringSubmatch(s)
    if m == nil {
        return nil, errors.New("invalid constant buffer reference: %q", s)
    }
    slot, _ := strconv.Atoi(m[1])
    off, _ := strconv.Atoi(m[2])
    if slot > 0x7fff || off > 0xffff {
        return nil, errors.New("constant buffer reference out of range: %q", s)
    }
    return ir.Cbuf(slot, off), nil
}

func parseFloat(s string) (*ir.Operand, error) {
    if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "f"), 32); err != nil {
        return nil, errors.New("invalid float: %q", s)
    } else {
        return ir.ConstF(float32(v)), nil
    }
}

// parseConst accepts signed and unsigned 32-bit values in any Go base.
func parseConst(s string) (*ir.Operand, error) {
    v, err := strconv.ParseInt(s, 0, 64)
    if err != nil || v < -0x80000000 || v > 0xffffffff {
        return nil, errors.New("invalid constant: %q", s)
    }
    return ir.Const(int32(uint32(v))), nil
}

func (self *parser) block(name string) (*ir.BasicBlock, error) {
    if b, ok := self.blocks[name]; ok {
        return b.bb, nil
    } else {
        return nil, errors.New("undefined block %s", name)
    }
}

func (self *parser) link() error {
    var err error
    var bbs []*ir.BasicBlock

    /* successors */
    for i, b := range self.order {
        var next *ir.BasicBlock
        var jump *ir.BasicBlock

        /* explicit or implicit fallthrough */
        if b.next != "" {
            if next, err = self.block(b.next); err != nil {
                return err
            }
        } else if !b.links && i + 1 < len(self.order) && fallsThrough(b.bb) {
            next = self.order[i + 1].bb
        }

        /* branch target */
        if b.jump != "" {
            if jump, err = self.block(b.jump); err != nil {
                return err
            }
        }

        /* link it */
        b.bb.SetNext(next)
        b.bb.SetBranch(jump)
        bbs = append(bbs, b.bb)
    }

    /* phi sources */
    for _, s := range self.phis {
        bb, err := self.block(s.block)
        if err != nil {
            return err
        }
        s.phi.AddSource(bb, s.value)
    }

    /* every used local must be defined */
    for name := range self.locals {
        if !self.defs[name] {
            return errors.New("%s is used but never defined", name)
        }
    }

    /* done */
    self.fn.Blocks = bbs
    self.fn.Renumber()
    return nil
}

func fallsThrough(bb *ir.BasicBlock) bool {
    op := bb.LastOp()
    return op == nil || !op.Inst.IsTerminator() || op.Inst.IsConditionalBranch()
}
