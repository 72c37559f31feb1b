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
    `sort`
    `strings`

    `gonum.org/v1/gonum/graph/simple`

    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/utils`
)

type TableState uint8

const (
    StateBuilding TableState = iota
    StateComplete
    StateSorted
    StateMaterialized
)

func (self TableState) String() string {
    switch self {
        case StateBuilding     : return "building"
        case StateComplete     : return "complete"
        case StateSorted       : return "sorted"
        case StateMaterialized : return "materialized"
        default                : return "???"
    }
}

// ArgTable is the argument placement of one call site. Args is in source
// order until the scheduler runs, and in evaluation order afterwards.
type ArgTable struct {
    Call        ir.NodeId
    Name        string
    Target      string
    Args        []*ArgDescriptor
    State       TableState
    InitialSlot uint32
    NextSlot    uint32
    Remorphs    int

    /* summary flags, valid once complete */
    HasStackArgs  bool
    HasRegArgs    bool
    HasStructArgs bool
    NeedsTemps    bool

    deps *simple.DirectedGraph
}

func newArgTable(call ir.NodeId, name string, target string, initial uint32) *ArgTable {
    return &ArgTable {
        Call        : call,
        Name        : name,
        Target      : target,
        InitialSlot : initial,
        NextSlot    : initial,
    }
}

func (self *ArgTable) Len() int {
    return len(self.Args)
}

// Append adds a descriptor, only allowed while the table is being built.
func (self *ArgTable) Append(d *ArgDescriptor) {
    if self.State != StateBuilding {
        panic("morph: appending to a " + self.State.String() + " table")
    } else {
        self.Args = append(self.Args, d)
    }
}

func (self *ArgTable) BySourceIndex(idx uint32) *ArgDescriptor {
    for _, d := range self.Args {
        if d.SourceIndex == idx {
            return d
        }
    }
    return nil
}

func (self *ArgTable) ByNode(id ir.NodeId) *ArgDescriptor {
    for _, d := range self.Args {
        if d.Node == id {
            return d
        }
    }
    return nil
}

// InSourceOrder returns the descriptors sorted by source index.
func (self *ArgTable) InSourceOrder() []*ArgDescriptor {
    ret := make([]*ArgDescriptor, len(self.Args))
    for _, d := range self.Args {
        ret[d.SourceIndex] = d
    }
    return ret
}

// LateArgs returns the late-evaluated descriptors ordered by their late index.
func (self *ArgTable) LateArgs() []*ArgDescriptor {
    var ret []*ArgDescriptor
    for _, d := range self.Args {
        if d.LateIndex >= 0 {
            ret = append(ret, d)
        }
    }
    sort.Slice(ret, func(i int, j int) bool { return ret[i].LateIndex < ret[j].LateIndex })
    return ret
}

// StackSlots replays the stack assignment in source order and returns the
// resulting slot counter.
func (self *ArgTable) StackSlots() uint32 {
    ns := self.InitialSlot
    for _, d := range self.InSourceOrder() {
        if d.NumSlots != 0 {
            ns = utils.AlignUp(ns, d.Alignment) + d.NumSlots
        }
    }
    return ns
}

func (self *ArgTable) String() string {
    mm := make([]string, len(self.Args))
    for i, d := range self.InSourceOrder() {
        mm[i] = d.String()
    }
    return fmt.Sprintf("{call %s,%s,$%d,(%s)}", self.Name, self.State, self.NextSlot, strings.Join(mm, ","))
}
