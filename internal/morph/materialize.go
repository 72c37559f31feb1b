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
    `github.com/cloudwego/argmorph/internal/ir`
)

// materialize rewrites the call into its two lists. The early list keeps the
// source positions and holds temporary assignments, placeholders and the
// stack arguments written in place. The late list holds every other value in
// evaluation order.
func (self *Engine) materialize(tab *ArgTable) {
    if tab.State != StateSorted {
        panic("morph: materializing a " + tab.State.String() + " table")
    }

    /* build the late list in evaluation order */
    ci := self.m.Node(tab.Call).Call
    ci.Late = ci.Late[:0]

    /* split every argument */
    for _, d := range tab.Args {
        switch {
            case d.NeedsTemp && !d.IsTemp : self.spillTemp(ci, d)
            case d.NeedsTemp              : self.spillCopy(ci, d)
            case d.IsLate()               : self.placeholder(ci, d)
        }
    }

    /* decompose the struct values */
    for _, d := range tab.Args {
        if d.IsStruct {
            self.decompose(ci, d)
        }
    }

    /* all done */
    tab.State = StateMaterialized
}

func (self *Engine) appendLate(ci *ir.CallInfo, d *ArgDescriptor, id ir.NodeId) {
    d.Node = id
    d.LateIndex = len(ci.Late)
    ci.Late = append(ci.Late, id)
}

// spillTemp evaluates the value into a fresh temporary in the early list.
func (self *Engine) spillTemp(ci *ir.CallInfo, d *ArgDescriptor) {
    tmp := self.m.GrabTemp(self.m.Node(d.Node).Type, d.Class, "argument with side effects")
    asg := self.Morph(self.m.Assign(self.m.LclVar(tmp), d.Node))

    /* the assignment stays in the source position */
    ci.Args[d.SourceIndex].Node = asg
    d.IsTemp = true
    d.TempVar = tmp
    countTemp()

    /* the use goes late */
    self.appendLate(ci, d, self.m.LclVar(tmp))
}

// spillCopy splits an outgoing struct copy into the copy and its address.
func (self *Engine) spillCopy(ci *ir.CallInfo, d *ArgDescriptor) {
    p := self.m.Node(d.Node)

    /* must be the copy built by the classifier */
    if p.Op != ir.OpComma || self.m.Node(p.Ops[1]).Op != ir.OpLclAddr {
        panic("morph: malformed struct copy: " + self.m.Format(d.Node))
    }

    /* copy early, address late */
    ci.Args[d.SourceIndex].Node = p.Ops[0]
    self.appendLate(ci, d, p.Ops[1])
}

// placeholder leaves a typed hole in the early list for a late value.
func (self *Engine) placeholder(ci *ir.CallInfo, d *ArgDescriptor) {
    p := self.m.Node(d.Node)
    ci.Args[d.SourceIndex].Node = self.m.ArgPlace(p.Type, p.Class)

    /* only stack arguments count as placeholders */
    if d.NeedsPlaceholder {
        countPlaceholder()
    }

    /* the value itself goes late */
    self.appendLate(ci, d, d.Node)
}
