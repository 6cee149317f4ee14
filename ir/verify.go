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
)

// VerifyError describes the first structural violation found by Verify.
type VerifyError struct {
    Block  int
    Node   string
    Reason string
}

func (self VerifyError) Error() string {
    if self.Node == "" {
        return fmt.Sprintf("bb_%d: %s", self.Block, self.Reason)
    } else {
        return fmt.Sprintf("bb_%d: %s: %s", self.Block, self.Node, self.Reason)
    }
}

// Verify checks the structural invariants of a function: single definitions,
// exact use sets, phi placement and arity, predecessor lists and terminator
// placement.
func Verify(fn *Function) error {
    var err error
    var live = make(map[INode]*BasicBlock)
    var defs = make(map[*Operand]INode)
    var refs = make(map[*Operand]map[INode]int)

    /* pass 1: collect nodes, definitions and references */
    for _, bb := range fn.Blocks {
        phis := true
        for n := bb.First(); n != nil; n = n.Next() {
            if err = verifyNode(bb, n, &phis); err != nil {
                return err
            }
            live[n] = bb

            /* every dest must be defined exactly once */
            for i := 0; i < n.DestCount(); i++ {
                d := n.Dest(i)
                if d == nil || d.Type != LocalVariable {
                    continue
                }
                if _, dup := defs[d]; dup {
                    return VerifyError { bb.Index, n.String(), fmt.Sprintf("%s is defined more than once", d) }
                }
                if d.def != n {
                    return VerifyError { bb.Index, n.String(), fmt.Sprintf("%s has a stale definition", d) }
                }
                defs[d] = n
            }

            /* count every local source */
            for i := 0; i < n.SourceCount(); i++ {
                if s := n.Source(i); s.Type == LocalVariable {
                    if refs[s] == nil {
                        refs[s] = make(map[INode]int)
                    }
                    refs[s][n]++
                }
            }
        }
    }

    /* pass 2: the use sets must match the references exactly */
    for v, m := range refs {
        if len(v.uses) != len(m) {
            return VerifyError { -1, v.String(), fmt.Sprintf("use set has %d nodes, found %d", len(v.uses), len(m)) }
        }
        for n, c := range m {
            if v.uses[n] != c {
                return VerifyError { live[n].Index, n.String(), fmt.Sprintf("%s is used %d times, recorded %d", v, c, v.uses[n]) }
            }
        }
    }

    /* pass 3: defined values must not keep uses from detached nodes */
    for v := range defs {
        for n := range v.uses {
            if _, ok := live[n]; !ok {
                return VerifyError { -1, n.String(), fmt.Sprintf("%s is used by a detached node", v) }
            }
        }
    }

    /* pass 4: control flow */
    return verifyEdges(fn)
}

func verifyNode(bb *BasicBlock, n INode, phis *bool) error {
    switch v := n.(type) {
        case *PhiNode: {
            if !*phis {
                return VerifyError { bb.Index, n.String(), "phi node after a non-phi node" }
            }
            if len(v.sources) != len(bb.preds) {
                return VerifyError { bb.Index, n.String(), fmt.Sprintf("phi has %d sources, block has %d predecessors", len(v.sources), len(bb.preds)) }
            }
            for _, p := range v.blocks {
                if !containsBlock(bb.preds, p) {
                    return VerifyError { bb.Index, n.String(), fmt.Sprintf("%s is not a predecessor", p) }
                }
            }
        }

        case *Operation: {
            *phis = false
            if v.Inst.IsTerminator() && n.Next() != nil {
                return VerifyError { bb.Index, n.String(), "terminator in the middle of a block" }
            }
            if a := v.Inst.Arity(); a.Dests != Variadic && a.Dests != len(v.dests) {
                return VerifyError { bb.Index, n.String(), fmt.Sprintf("expected %d dests, got %d", a.Dests, len(v.dests)) }
            } else if len(v.sources) < a.MinSource || (a.MaxSource != Variadic && len(v.sources) > a.MaxSource) {
                return VerifyError { bb.Index, n.String(), fmt.Sprintf("invalid source count %d", len(v.sources)) }
            }
        }
    }
    return nil
}

func verifyEdges(fn *Function) error {
    want := make(map[*BasicBlock][]*BasicBlock)
    for _, bb := range fn.Blocks {
        if bb.next != nil {
            want[bb.next] = append(want[bb.next], bb)
        }
        if bb.branch != nil {
            want[bb.branch] = append(want[bb.branch], bb)
        }

        /* branches must agree with the successors */
        last := bb.LastOp()
        switch {
            case last != nil && last.Inst.Base() == Branch && (bb.branch == nil || bb.next != nil):
                return VerifyError { bb.Index, last.String(), "unconditional branch needs exactly a branch target" }
            case last != nil && last.Inst.IsConditionalBranch() && bb.branch == nil:
                return VerifyError { bb.Index, last.String(), "conditional branch without a target" }
            case (last == nil || !last.Inst.IsBranch()) && bb.branch != nil:
                return VerifyError { bb.Index, "", "branch target without a branch instruction" }
        }
    }

    /* predecessors are the exact inverse of the successor edges */
    for _, bb := range fn.Blocks {
        if len(want[bb]) != len(bb.preds) {
            return VerifyError { bb.Index, "", fmt.Sprintf("expected %d predecessors, got %d", len(want[bb]), len(bb.preds)) }
        }
        for _, p := range want[bb] {
            if countBlock(want[bb], p) != countBlock(bb.preds, p) {
                return VerifyError { bb.Index, "", fmt.Sprintf("predecessor %s is out of sync", p) }
            }
        }
    }
    return nil
}

func containsBlock(list []*BasicBlock, bb *BasicBlock) bool {
    return countBlock(list, bb) != 0
}

func countBlock(list []*BasicBlock, bb *BasicBlock) int {
    n := 0
    for _, v := range list {
        if v == bb {
            n++
        }
    }
    return n
}
