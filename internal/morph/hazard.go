/*
 * Copyright 2024 CloudWeGo Authors
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

package morph

import (
    `github.com/cloudwego/argmorph/internal/abi`
    `github.com/cloudwego/argmorph/internal/ir`
)

const (
    _EffStrong = ir.EffAssign | ir.EffCall | ir.EffExcept | ir.EffOrder
)

// complete scans the classified table for evaluation order hazards and
// decides which arguments need temporaries or placeholders.
func (self *Engine) complete(tab *ArgTable) {
    if tab.State != StateBuilding {
        panic("morph: completing a " + tab.State.String() + " table")
    }

    /* effects and summary flags */
    for _, d := range tab.Args {
        d.Effects = ir.SideEffects(self.m, self.info, d.Node)
        tab.HasStackArgs = tab.HasStackArgs || d.OnStack()
        tab.HasRegArgs = tab.HasRegArgs || len(d.Regs) != 0
    }

    /* hazards of each argument against the ones before it */
    for i, d := range tab.Args {
        self.checkAssign(tab, i, d)
        self.checkCall(tab, i, d)
        self.checkLocalloc(tab, i, d)
        self.checkStruct(tab, d)
        self.checkQmark(tab, d)
    }

    /* early arguments with strong effects pin the late ones before them */
    for i := len(tab.Args) - 1; i >= 0; i-- {
        if d := tab.Args[i]; isEarly(d) && d.Effects & _EffStrong != 0 {
            for _, a := range tab.Args[:i] {
                if a.Effects != ir.EffNone && !isEarly(a) {
                    a.NeedsTemp = true
                }
            }
        }
    }

    /* a temporary never needs a placeholder */
    for _, d := range tab.Args {
        if d.NeedsTemp {
            d.NeedsPlaceholder = false
            tab.NeedsTemps = true
        }
    }

    /* the remaining ordering constraints */
    self.buildDeps(tab)
    tab.State = StateComplete
}

// isEarly reports whether the argument value is computed from the early list.
func isEarly(d *ArgDescriptor) bool {
    return d.NeedsTemp || !d.IsLate()
}

func (self *Engine) checkAssign(tab *ArgTable, i int, d *ArgDescriptor) {
    if d.Effects & ir.EffAssign == 0 {
        return
    }

    /* this one and every non-constant one before it */
    d.NeedsTemp = true
    for _, a := range tab.Args[:i] {
        if !ir.IsInvariant(self.m, a.Node) {
            a.NeedsTemp = true
        }
    }
}

func (self *Engine) checkCall(tab *ArgTable, i int, d *ArgDescriptor) {
    fixed := self.tr.FixedOutArgs
    calls := d.Effects & ir.EffCall != 0

    /* a faulting argument must not run with half of the stack area written */
    if !calls && self.opts.ConservativeOrder() && fixed && tab.HasStackArgs {
        calls = d.Effects & ir.EffExcept != 0
    }

    /* nothing to do */
    if !calls {
        return
    }

    /* a lone argument can be evaluated directly */
    if len(tab.Args) > 1 {
        d.NeedsTemp = true
    }

    /* earlier arguments are evaluated before the call */
    for _, a := range tab.Args[:i] {
        if a.Effects != ir.EffNone {
            a.NeedsTemp = true
        } else if fixed && a.OnStack() && !a.NeedsTemp {
            a.NeedsPlaceholder = true
        }
    }
}

func (self *Engine) checkLocalloc(tab *ArgTable, i int, d *ArgDescriptor) {
    if !self.m.Contains(d.Node, ir.OpLclHeap) {
        return
    }

    /* the stack pointer moves under the stack arguments */
    d.NeedsTemp = true
    for _, a := range tab.Args[:i] {
        if a.OnStack() {
            a.NeedsTemp = true
        }
    }
}

func (self *Engine) checkStruct(tab *ArgTable, d *ArgDescriptor) {
    if !d.IsStruct {
        return
    }

    /* register-passed structs need a source the decomposer can split */
    switch d.Outcome {
        case abi.PassPrimitive : d.NeedsTemp = d.NeedsTemp || !self.isSimpleSource(d, false)
        case abi.PassMultiReg  : d.NeedsTemp = d.NeedsTemp || self.multiRegNeedsTemp(d)
    }
}

// checkQmark spills conditionals once structs are involved, the struct
// decomposition cannot split a value produced by either arm.
func (self *Engine) checkQmark(tab *ArgTable, d *ArgDescriptor) {
    if tab.HasStructArgs && self.m.Contains(d.Node, ir.OpQmark) {
        d.NeedsTemp = true
    }
}

func (self *Engine) multiRegNeedsTemp(d *ArgDescriptor) bool {
    if d.Effects & (ir.EffCall | ir.EffAssign) != 0 {
        return true
    } else if ir.Cost(self.m, d.Node) > self.opts.ExpensiveStructCost {
        return true
    } else {
        return !self.isSimpleSource(d, true)
    }
}

// isSimpleSource reports whether the struct value can be read piece by piece.
func (self *Engine) isSimpleSource(d *ArgDescriptor, multi bool) bool {
    p := self.m.Node(d.Node)

    /* check every source shape */
    switch p.Op {
        case ir.OpLclVar, ir.OpLclFld : return true
        case ir.OpCall                : return !multi
        case ir.OpObj                 : return self.isSimpleAddr(p.Ops[0]) && (!multi || !self.overreads(&d.Passing))
        default                       : return false
    }
}

func (self *Engine) isSimpleAddr(id ir.NodeId) bool {
    p := self.m.Node(id)

    /* leaves and a constant offset from them */
    switch p.Op {
        case ir.OpLclVar, ir.OpLclAddr, ir.OpConstInt : return true
        case ir.OpAdd                                 : return self.isSimpleAddr(p.Ops[0]) && self.m.Node(p.Ops[1]).Op == ir.OpConstInt
        default                                       : return false
    }
}

// overreads reports whether the last piece is wider than the bytes left in the struct.
func (self *Engine) overreads(sp *abi.StructPassing) bool {
    if n := len(sp.Pieces); n == 0 {
        return false
    } else {
        p := sp.Pieces[n - 1]
        return p.Offset + p.Type.Size(self.cc.PointerSize()) > sp.Size
    }
}
