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
    `strings`

    `github.com/cloudwego/argmorph/internal/abi`
    `github.com/cloudwego/argmorph/internal/ir`
)

type Placement uint8

const (
    PlaceNone Placement = iota
    PlaceRegisters
    PlaceStack
    PlaceSplit
)

func (self Placement) String() string {
    switch self {
        case PlaceNone      : return "none"
        case PlaceRegisters : return "reg"
        case PlaceStack     : return "stack"
        case PlaceSplit     : return "split"
        default             : return "???"
    }
}

// ArgDescriptor is the placement record of one argument of a call.
type ArgDescriptor struct {
    SourceIndex  uint32
    Kind         ir.ArgKind
    Node         ir.NodeId
    Type         ir.VarType
    Class        ir.ClassHandle
    IsStruct     bool
    IsVarArg     bool
    NonStandard  bool
    PassedByRef  bool

    /* ABI placement */
    Regs         []abi.Register
    Slot         uint32
    NumSlots     uint32
    Alignment    uint32
    IsBackFilled bool

    /* struct classification */
    Outcome      abi.StructKind
    Passing      abi.StructPassing
    HfaType      ir.VarType
    HfaSlots     uint32
    CopyElided   bool

    /* temporaries and the two lists */
    NeedsTemp        bool
    IsTemp           bool
    TempVar          ir.LclNum
    NeedsPlaceholder bool
    LateIndex        int

    /* scratch state */
    Processed  bool
    Effects    ir.Effects
    cost       int
    costValid  bool
    decomposed bool
}

func newArgDescriptor(idx uint32, arg ir.CallArg) *ArgDescriptor {
    return &ArgDescriptor {
        SourceIndex : idx,
        Kind        : arg.Kind,
        Node        : arg.Node,
        TempVar     : ir.NoLcl,
        LateIndex   : -1,
        Alignment   : 1,
    }
}

func (self *ArgDescriptor) Placement() Placement {
    switch {
        case len(self.Regs) != 0 && self.NumSlots != 0 : return PlaceSplit
        case len(self.Regs) != 0                       : return PlaceRegisters
        case self.NumSlots != 0                        : return PlaceStack
        default                                        : return PlaceNone
    }
}

// OnStack reports whether any part of the argument lives in the outgoing area.
func (self *ArgDescriptor) OnStack() bool {
    return self.NumSlots != 0
}

// IsLate reports whether the argument is evaluated from the late list.
func (self *ArgDescriptor) IsLate() bool {
    return self.NeedsTemp || self.NeedsPlaceholder || len(self.Regs) != 0
}

func (self *ArgDescriptor) String() string {
    var fl []string
    var ps []string

    /* registers first */
    for _, r := range self.Regs {
        ps = append(ps, r.String())
    }

    /* then the stack part */
    if self.NumSlots != 0 {
        ps = append(ps, fmt.Sprintf("%d(slot)*%d", self.Slot, self.NumSlots))
    }

    /* flags */
    if self.IsStruct         { fl = append(fl, self.Outcome.String()) }
    if self.NonStandard      { fl = append(fl, self.Kind.String()) }
    if self.IsBackFilled     { fl = append(fl, "backfill") }
    if self.NeedsTemp        { fl = append(fl, "temp") }
    if self.NeedsPlaceholder { fl = append(fl, "placeholder") }
    if self.LateIndex >= 0   { fl = append(fl, fmt.Sprintf("late=%d", self.LateIndex)) }

    /* combine everything */
    if len(fl) == 0 {
        return fmt.Sprintf("#%d:%s(%s)", self.SourceIndex, self.Type, strings.Join(ps, ","))
    } else {
        return fmt.Sprintf("#%d:%s(%s)[%s]", self.SourceIndex, self.Type, strings.Join(ps, ","), strings.Join(fl, ","))
    }
}
