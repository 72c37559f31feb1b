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
    `fmt`
    `log/slog`

    `github.com/davecgh/go-spew/spew`

    `github.com/cloudwego/argmorph/internal/abi`
    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/logger`
    `github.com/cloudwego/argmorph/internal/opts`
)

// Engine places the arguments of every call of one method. It owns the
// argument tables, indexed by the call node.
type Engine struct {
    m        *ir.Method
    cc       abi.Convention
    tr       abi.Traits
    types    layout.Oracle
    info     ir.LocalInfo
    opts     opts.Options
    log      *slog.Logger
    morpher  ir.Morpher
    tables   map[ir.NodeId]*ArgTable
    zeroOffs map[ir.NodeId]layout.Field
}

func NewEngine(m *ir.Method, cc abi.Convention, types layout.Oracle, o opts.Options) *Engine {
    if types.PointerSize() != cc.PointerSize() {
        panic(fmt.Sprintf("morph: type system pointer size %d does not match target %s", types.PointerSize(), cc.Name()))
    }

    /* create the engine */
    ret := &Engine {
        m        : m,
        cc       : cc,
        tr       : cc.Traits(),
        types    : types,
        info     : m,
        opts     : o,
        log      : o.Logger,
        tables   : make(map[ir.NodeId]*ArgTable),
        zeroOffs : make(map[ir.NodeId]layout.Field),
    }

    /* set the default collaborator and logger */
    if ret.log == nil {
        ret.log = logger.Discard()
    }

    /* nested calls come back into the engine */
    ret.morpher = &ir.Folder { OnCall: ret.onCall, PointerSize: cc.PointerSize() }
    return ret
}

// SetMorpher replaces the tree rewriting collaborator. It is expected to
// hand every call node it meets back to MorphCall.
func (self *Engine) SetMorpher(mm ir.Morpher) {
    self.morpher = mm
}

// SetLocalInfo replaces the address-exposure view, which defaults to the method itself.
func (self *Engine) SetLocalInfo(info ir.LocalInfo) {
    self.info = info
}

func (self *Engine) Method() *ir.Method {
    return self.m
}

func (self *Engine) Convention() abi.Convention {
    return self.cc
}

// Table returns the argument table of a call, or nil if it was never morphed.
func (self *Engine) Table(call ir.NodeId) *ArgTable {
    return self.tables[call]
}

// ZeroOffsetField returns the field annotation of an address reused at offset 0.
func (self *Engine) ZeroOffsetField(addr ir.NodeId) (layout.Field, bool) {
    fv, ok := self.zeroOffs[addr]
    return fv, ok
}

func (self *Engine) onCall(_ *ir.Method, call ir.NodeId) ir.NodeId {
    return self.MorphCall(call)
}

// Morph runs the collaborator over a tree, placing the arguments of every call in it.
func (self *Engine) Morph(id ir.NodeId) ir.NodeId {
    ret, _ := self.morpher.Morph(self.m, id)
    return ret
}

// MorphCall places the arguments of a call. Calls that already have a table
// are re-morphed, which keeps every placement decision.
func (self *Engine) MorphCall(call ir.NodeId) ir.NodeId {
    if p := self.m.Node(call); p.Op != ir.OpCall {
        panic("morph: not a call: " + self.m.Format(call))
    }

    /* revisited calls keep their tables */
    if tab, ok := self.tables[call]; ok {
        if tab.State != StateMaterialized {
            panic("morph: re-entering a call that is still being morphed: " + tab.Name)
        }
        self.remorph(tab)
        return call
    }

    /* classify -> complete -> sort -> materialize */
    tab := self.classify(call)
    self.tables[call] = tab
    self.complete(tab)
    self.schedule(tab)
    self.materialize(tab)
    self.verify(tab)

    /* update the statistics */
    countTable()
    self.log.Debug("argument table built",
        "method" , self.m.Name,
        "call"   , tab.Name,
        "target" , tab.Target,
        "args"   , tab.Len(),
        "slots"  , tab.NextSlot,
    )

    /* dump the whole table if needed */
    if self.opts.DumpTables {
        self.log.Debug("argument table dump", "call", tab.Name, "table", tab.String(), "args", spew.Sdump(tab.InSourceOrder()))
    }
    return call
}

// remorph revisits a materialized table. Placement is replayed and checked,
// both lists are morphed again and the descriptors follow the new nodes.
func (self *Engine) remorph(tab *ArgTable) {
    ci := self.m.Node(tab.Call).Call
    tab.Remorphs++
    countRemorph()

    /* the slot counter restarts from its initial value */
    tab.NextSlot = tab.InitialSlot
    for _, d := range tab.InSourceOrder() {
        if d.NumSlots != 0 {
            tab.NextSlot = self.replaySlot(tab, d)
        }
    }

    /* morph both lists again */
    for i := range ci.Args {
        ci.Args[i].Node = self.Morph(ci.Args[i].Node)
    }
    for i := range ci.Late {
        ci.Late[i] = self.Morph(ci.Late[i])
    }

    /* refresh every descriptor */
    for _, d := range tab.Args {
        if d.LateIndex >= 0 {
            d.Node = ci.Late[d.LateIndex]
        } else {
            d.Node = ci.Args[d.SourceIndex].Node
        }
    }

    /* check the table again */
    self.verify(tab)
    self.log.Debug("argument table re-morphed", "method", self.m.Name, "call", tab.Name, "remorphs", tab.Remorphs)
}

func (self *Engine) replaySlot(tab *ArgTable, d *ArgDescriptor) uint32 {
    if slot := alignSlot(tab.NextSlot, d.Alignment); slot != d.Slot {
        panic(fmt.Sprintf("morph: %s: argument #%d moved from slot %d to %d", tab.Name, d.SourceIndex, d.Slot, slot))
    } else {
        return slot + d.NumSlots
    }
}
