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

// Morpher rewrites a subtree and returns its (possibly different) root,
// together with the side effects of the resulting tree.
type Morpher interface {
    Morph(m *Method, id NodeId) (NodeId, Effects)
}

// CallHook is invoked by the Folder for every call node it meets.
type CallHook func(m *Method, call NodeId) NodeId

// Folder is the default tree rewriter. It folds integer constants, a few
// algebraic identities and local struct loads, and hands calls to the hook.
// Native integers are folded only when PointerSize is set.
type Folder struct {
    OnCall      CallHook
    PointerSize uint32
}

func (self *Folder) Morph(m *Method, id NodeId) (NodeId, Effects) {
    ret := self.fold(m, id)
    return ret, SideEffects(m, m, ret)
}

func (self *Folder) fold(m *Method, id NodeId) NodeId {
    op := m.Node(id).Op

    /* calls are handled by the hook, or their arguments are folded in place */
    if op == OpCall {
        if self.OnCall != nil {
            return self.OnCall(m, id)
        }
        ci := m.Node(id).Call
        for i := range ci.Args { ci.Args[i].Node = self.fold(m, ci.Args[i].Node) }
        for i := range ci.Late { ci.Late[i] = self.fold(m, ci.Late[i]) }
        return id
    }

    /* fold the operands first, the node pointer may be stale after this */
    for i := range m.Node(id).Ops {
        nv := self.fold(m, m.Node(id).Ops[i])
        m.Node(id).Ops[i] = nv
    }

    /* then the node itself */
    switch p := m.Node(id); p.Op {
        case OpAdd, OpSub, OpMul, OpDiv : return self.binary(m, id)
        case OpNeg                      : return self.negate(m, id)
        case OpComma                    : return self.comma(m, id)
        case OpQmark                    : return self.qmark(m, id)
        case OpObj                      : return self.object(m, id)
        case OpIndir                    : return self.indir(m, id)
        default                         : return id
    }
}

func isIntConst(m *Method, id NodeId) bool {
    return m.Node(id).Op == OpConstInt
}

func (self *Folder) binary(m *Method, id NodeId) NodeId {
    p := m.Node(id)
    a, b := p.Ops[0], p.Ops[1]

    /* x + 0, x - 0, x * 1 */
    if isIntConst(m, b) && !isIntConst(m, a) {
        switch v := m.Node(b).Ival; {
            case v == 0 && (p.Op == OpAdd || p.Op == OpSub) : return a
            case v == 1 && (p.Op == OpMul || p.Op == OpDiv) : return a
        }
    }

    /* both must be constants */
    if !isIntConst(m, a) || !isIntConst(m, b) {
        return id
    }

    /* only integers of a known width */
    bits, signed := self.width(p.Type)
    if bits == 0 {
        return id
    }

    /* evaluate the operator, wrapping to the width of the result */
    x := truncate(m.Node(a).Ival, bits, signed)
    y := truncate(m.Node(b).Ival, bits, signed)
    switch p.Op {
        case OpAdd : return m.IntConst(p.Type, truncate(x + y, bits, signed))
        case OpSub : return m.IntConst(p.Type, truncate(x - y, bits, signed))
        case OpMul : return m.IntConst(p.Type, truncate(x * y, bits, signed))
    }

    /* division by zero and MinInt / -1 must still fault at runtime */
    if y == 0 {
        return id
    } else if !signed {
        return m.IntConst(p.Type, truncate(int64(uint64(x) / uint64(y)), bits, false))
    } else if y == -1 && x == int64(-1) << (bits - 1) {
        return id
    } else {
        return m.IntConst(p.Type, x / y)
    }
}

// width returns the bit width and signedness of a foldable integer type, or
// zero bits for anything else.
func (self *Folder) width(vt VarType) (uint, bool) {
    switch vt {
        case TypByte   : return 8, true
        case TypUbyte  : return 8, false
        case TypShort  : return 16, true
        case TypUshort : return 16, false
        case TypInt    : return 32, true
        case TypUint   : return 32, false
        case TypLong   : return 64, true
        case TypUlong  : return 64, false
        case TypNint   : return uint(self.PointerSize * 8), true
        default        : return 0, false
    }
}

// truncate keeps the low bits of v, sign or zero extended back to 64 bits.
func truncate(v int64, bits uint, signed bool) int64 {
    if sh := 64 - bits; sh == 0 {
        return v
    } else if signed {
        return v << sh >> sh
    } else {
        return int64(uint64(v) << sh >> sh)
    }
}

func (self *Folder) negate(m *Method, id NodeId) NodeId {
    p := m.Node(id)
    v := m.Node(p.Ops[0])

    /* only constants are folded */
    switch v.Op {
        case OpConstDbl : return m.DblConst(p.Type, -v.Dval)
        case OpConstInt : break
        default         : return id
    }

    /* integers wrap, so -MinInt stays MinInt */
    if bits, signed := self.width(p.Type); bits == 0 {
        return id
    } else {
        return m.IntConst(p.Type, truncate(-v.Ival, bits, signed))
    }
}

func (self *Folder) comma(m *Method, id NodeId) NodeId {
    if p := m.Node(id); m.Node(p.Ops[0]).Op == OpNop {
        return p.Ops[1]
    } else {
        return id
    }
}

func (self *Folder) qmark(m *Method, id NodeId) NodeId {
    p := m.Node(id)
    c := m.Node(p.Ops[0])

    /* the condition must be a constant */
    if c.Op != OpConstInt {
        return id
    }

    /* select the taken arm */
    if arms := m.Node(p.Ops[1]); c.Ival != 0 {
        return arms.Ops[0]
    } else {
        return arms.Ops[1]
    }
}

func (self *Folder) object(m *Method, id NodeId) NodeId {
    p := m.Node(id)
    a := m.Node(p.Ops[0])

    /* obj(&V) of the same class is just V */
    if a.Op == OpLclAddr && a.Offset == 0 {
        if lv := m.Local(a.Lcl); lv.Type == TypStruct && lv.Class == p.Class {
            return m.LclVar(a.Lcl)
        }
    }
    return id
}

func (self *Folder) indir(m *Method, id NodeId) NodeId {
    p := m.Node(id)
    a := m.Node(p.Ops[0])

    /* ind(&V) of the same type is just V */
    if a.Op == OpLclAddr && a.Offset == 0 && p.Flags & NfVolatile == 0 {
        if lv := m.Local(a.Lcl); lv.Type == p.Type {
            return m.LclVar(a.Lcl)
        }
    }
    return id
}
