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

package ir

import (
    `strings`
)

// Effects summarizes the observable side effects of a tree.
type Effects uint8

const (
    EffAssign Effects = 1 << iota
    EffCall
    EffExcept
    EffGlobRef
    EffOrder
)

const (
    EffNone Effects = 0
    EffAll  Effects = EffAssign | EffCall | EffExcept | EffGlobRef | EffOrder
)

func (self Effects) String() string {
    var ret []string
    if self & EffAssign  != 0 { ret = append(ret, "asg") }
    if self & EffCall    != 0 { ret = append(ret, "call") }
    if self & EffExcept  != 0 { ret = append(ret, "except") }
    if self & EffGlobRef != 0 { ret = append(ret, "glob") }
    if self & EffOrder   != 0 { ret = append(ret, "order") }
    if len(ret) == 0 {
        return "-"
    } else {
        return strings.Join(ret, "|")
    }
}

// LocalEffects returns the effects of the node itself, ignoring its operands.
func LocalEffects(m *Method, info LocalInfo, id NodeId) Effects {
    p := m.Node(id)

    /* check every operator */
    switch p.Op {
        case OpLclVar, OpLclFld: {
            if info.IsAddressExposed(p.Lcl) {
                return EffGlobRef
            } else {
                return EffNone
            }
        }

        /* memory loads may fault and observe the heap */
        case OpIndir, OpObj: {
            ret := EffGlobRef
            if p.Flags & NfNonFaulting == 0 { ret |= EffExcept }
            if p.Flags & NfVolatile    != 0 { ret |= EffOrder }
            return ret
        }

        /* stores into anything other than an untracked local are global */
        case OpAssign: {
            if d := m.Node(p.Ops[0]); (d.Op == OpLclVar || d.Op == OpLclFld) && !info.IsAddressExposed(d.Lcl) {
                return EffAssign
            } else {
                return EffAssign | EffGlobRef
            }
        }

        /* others */
        case OpDiv     : return EffExcept
        case OpCall    : return EffCall | EffExcept | EffGlobRef
        case OpLclHeap : return EffExcept | EffOrder
        default        : return EffNone
    }
}

// SideEffects recomputes the effect summary of a tree bottom-up. It is a pure
// function of the tree, there is no cached state that can go stale.
func SideEffects(m *Method, info LocalInfo, id NodeId) Effects {
    p := m.Node(id)
    ret := LocalEffects(m, info, id)

    /* a call summarizes its own arguments, both lists */
    if p.Op == OpCall {
        for _, a := range p.Call.Args { ret |= SideEffects(m, info, a.Node) }
        for _, a := range p.Call.Late { ret |= SideEffects(m, info, a) }
        return ret
    }

    /* combine all the operands */
    for _, v := range p.Ops {
        ret |= SideEffects(m, info, v)
    }

    /* the target of an assignment is written, not read */
    if p.Op == OpAssign {
        if d := m.Node(p.Ops[0]); d.Op == OpLclVar || d.Op == OpLclFld {
            ret &^= LocalEffects(m, info, p.Ops[0]) & EffGlobRef
            ret |= LocalEffects(m, info, id)
        }
    }
    return ret
}

// IsInvariant reports whether the tree is a constant or a local address.
func IsInvariant(m *Method, id NodeId) bool {
    switch m.Node(id).Op {
        case OpConstInt, OpConstDbl, OpLclAddr : return true
        default                                : return false
    }
}
