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
    `math`
    `testing`

    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

func TestIR_FoldConstants(t *testing.T) {
    m := NewMethod("fold")
    x := m.Binary(OpMul, TypInt, m.Binary(OpAdd, TypInt, m.IntConst(TypInt, 2), m.IntConst(TypInt, 3)), m.IntConst(TypInt, 4))
    f := new(Folder)
    r, e := f.Morph(m, x)
    require.Equal(t, OpConstInt, m.Node(r).Op)
    require.Equal(t, int64(20), m.Node(r).Ival)
    require.Equal(t, EffNone, e)
}

func TestIR_FoldKeepsDivideByZero(t *testing.T) {
    m := NewMethod("div")
    x := m.Binary(OpDiv, TypInt, m.IntConst(TypInt, 1), m.IntConst(TypInt, 0))
    r, e := new(Folder).Morph(m, x)
    require.Equal(t, x, r)
    require.Equal(t, EffExcept, e)

    /* MinInt / -1 overflows at the width of the type */
    for _, tc := range []struct { vt VarType; min int64 } {
        { TypInt   , math.MinInt32 },
        { TypLong  , math.MinInt64 },
        { TypShort , math.MinInt16 },
    } {
        x = m.Binary(OpDiv, tc.vt, m.IntConst(tc.vt, tc.min), m.IntConst(tc.vt, -1))
        r, e = new(Folder).Morph(m, x)
        require.Equal(t, x, r, tc.vt.String())
        require.Equal(t, EffExcept, e, tc.vt.String())
    }

    /* native ints use the width of the target */
    x = m.Binary(OpDiv, TypNint, m.IntConst(TypNint, math.MinInt32), m.IntConst(TypNint, -1))
    r, _ = (&Folder { PointerSize: 4 }).Morph(m, x)
    require.Equal(t, x, r)
    r, _ = (&Folder { PointerSize: 8 }).Morph(m, x)
    require.Equal(t, int64(-math.MinInt32), m.Node(r).Ival)
}

func TestIR_FoldWrapsToType(t *testing.T) {
    m := NewMethod("wrap")
    f := new(Folder)
    for _, tc := range []struct { op Op; vt VarType; x, y, want int64 } {
        { OpAdd, TypInt    , math.MaxInt32, 1, math.MinInt32 },
        { OpSub, TypInt    , math.MinInt32, 1, math.MaxInt32 },
        { OpMul, TypInt    , 0x10000, 0x10000, 0 },
        { OpAdd, TypUbyte  , 255, 1, 0 },
        { OpAdd, TypByte   , 127, 1, -128 },
        { OpSub, TypUint   , 0, 1, math.MaxUint32 },
        { OpDiv, TypUint   , -2, 2, math.MaxInt32 },
        { OpAdd, TypLong   , math.MaxInt32, 1, math.MaxInt32 + 1 },
        { OpDiv, TypUlong  , -2, 2, math.MaxInt64 },
    } {
        r, e := f.Morph(m, m.Binary(tc.op, tc.vt, m.IntConst(tc.vt, tc.x), m.IntConst(tc.vt, tc.y)))
        require.Equal(t, OpConstInt, m.Node(r).Op, "%s %s", tc.op, tc.vt)
        assert.Equal(t, tc.want, m.Node(r).Ival, "%s %s", tc.op, tc.vt)
        assert.Equal(t, EffNone, e)
    }

    /* -MinInt wraps around */
    r, _ := f.Morph(m, m.Neg(TypInt, m.IntConst(TypInt, math.MinInt32)))
    assert.Equal(t, int64(math.MinInt32), m.Node(r).Ival)

    /* native ints are kept when the width is unknown */
    x := m.Binary(OpAdd, TypNint, m.IntConst(TypNint, 1), m.IntConst(TypNint, 2))
    r, _ = f.Morph(m, x)
    assert.Equal(t, x, r)
}

func TestIR_FoldIdentities(t *testing.T) {
    m := NewMethod("ident")
    a := m.AddLocal("a", TypInt, NoClass)
    v := m.LclVar(a)
    r, _ := new(Folder).Morph(m, m.Binary(OpAdd, TypInt, v, m.IntConst(TypInt, 0)))
    require.Equal(t, v, r)
    r, _ = new(Folder).Morph(m, m.Qmark(m.IntConst(TypInt, 0), m.IntConst(TypInt, 7), v))
    require.Equal(t, v, r)
}

func TestIR_FoldObjOfLocalAddress(t *testing.T) {
    m := NewMethod("obj")
    s := m.AddLocal("s", TypStruct, 5)
    r, _ := new(Folder).Morph(m, m.Obj(5, m.LclAddr(s)))
    require.Equal(t, OpLclVar, m.Node(r).Op)
    require.Equal(t, s, m.Node(r).Lcl)
    r, _ = new(Folder).Morph(m, m.Obj(6, m.LclAddr(s)))
    require.Equal(t, OpObj, m.Node(r).Op)
}

func TestIR_FoldCallHook(t *testing.T) {
    m := NewMethod("hook")
    c := m.Call("g", TypInt, NoClass, Arg(m.Binary(OpAdd, TypInt, m.IntConst(TypInt, 1), m.IntConst(TypInt, 1))))
    seen := 0
    f := &Folder { OnCall: func(m *Method, id NodeId) NodeId { seen++; return id } }
    r, e := f.Morph(m, m.Neg(TypInt, c))
    require.Equal(t, 1, seen)
    require.Equal(t, OpNeg, m.Node(r).Op)
    assert.NotZero(t, e & EffCall)

    /* without a hook the arguments are folded in place */
    r, _ = new(Folder).Morph(m, c)
    require.Equal(t, OpConstInt, m.Node(m.Node(r).Call.Args[0].Node).Op)
}

func TestIR_SideEffects(t *testing.T) {
    m := NewMethod("effects")
    a := m.AddLocal("a", TypInt, NoClass)
    g := m.AddLocal("g", TypInt, NoClass)
    m.Local(g).AddrExposed = true
    asg := m.Assign(m.LclVar(a), m.IntConst(TypInt, 1))
    require.Equal(t, EffAssign, SideEffects(m, m, asg))
    require.Equal(t, EffAssign | EffGlobRef, SideEffects(m, m, m.Assign(m.LclVar(g), m.LclVar(a))))
    require.Equal(t, EffGlobRef, SideEffects(m, m, m.LclVar(g)))
    ind := m.Indir(TypInt, m.LclVar(a))
    require.Equal(t, EffExcept | EffGlobRef, SideEffects(m, m, ind))
    m.Node(ind).Flags |= NfNonFaulting
    require.Equal(t, EffGlobRef, SideEffects(m, m, ind))
    require.Equal(t, EffCall | EffExcept | EffGlobRef, SideEffects(m, m, m.Call("f", TypVoid, NoClass)))
    require.Equal(t, "asg|glob", (EffAssign | EffGlobRef).String())
    require.Equal(t, "-", EffNone.String())
}

func TestIR_WalkAndContains(t *testing.T) {
    m := NewMethod("walk")
    a := m.AddLocal("a", TypInt, NoClass)
    x := m.Binary(OpAdd, TypInt, m.LclVar(a), m.LclHeap(m.IntConst(TypInt, 16)))
    var ops []Op
    m.Walk(x, func(id NodeId) bool { ops = append(ops, m.Node(id).Op); return true })
    require.Equal(t, []Op { OpAdd, OpLclVar, OpLclHeap, OpConstInt }, ops)
    require.True(t, m.Contains(x, OpLclHeap))
    require.False(t, m.Contains(x, OpCall, OpAssign))
}

func TestIR_CallsInOutermostFirst(t *testing.T) {
    m := NewMethod("calls")
    inner := m.Call("g", TypInt, NoClass)
    outer := m.Call("f", TypInt, NoClass, Arg(inner))
    require.Equal(t, []NodeId { outer, inner }, m.CallsIn(m.Neg(TypInt, outer)))
}

func TestIR_CloneAndFormat(t *testing.T) {
    m := NewMethod("clone")
    p := m.AddLocal("p", TypByRef, NoClass)
    x := m.Indir(TypLong, m.Binary(OpAdd, TypByRef, m.LclVar(p), m.IntConst(TypNint, 8)))
    y := m.Clone(x)
    require.NotEqual(t, x, y)
    require.Equal(t, m.Format(x), m.Format(y))
    require.Equal(t, "(ind.long (add.byref V00 8))", m.Format(y))
    require.Panics(t, func() { m.Clone(m.Call("f", TypVoid, NoClass)) })
}

func TestIR_Promote(t *testing.T) {
    m := NewMethod("promote")
    s := m.AddLocal("s", TypStruct, 1)
    fs := m.Promote(s, Piece { 0, TypLong }, Piece { 8, TypDouble })
    require.Len(t, fs, 2)
    require.True(t, m.Local(s).IsPromoted())
    require.Equal(t, uint32(8), m.Local(fs[1]).FieldOffset)
    require.Equal(t, s, m.Local(fs[1]).Parent)
    require.Panics(t, func() { m.Promote(fs[0]) })
}

func TestIR_Cost(t *testing.T) {
    m := NewMethod("cost")
    a := m.AddLocal("a", TypInt, NoClass)
    require.Equal(t, 1, Cost(m, m.LclVar(a)))
    require.Equal(t, 2, Cost(m, m.IntConst(TypInt, 1000)))
    require.Greater(t, Cost(m, m.Call("f", TypInt, NoClass)), Cost(m, m.Indir(TypInt, m.LclVar(a))))
}

func TestIR_IntOfSize(t *testing.T) {
    assert.Equal(t, TypUbyte, IntOfSize(1))
    assert.Equal(t, TypUshort, IntOfSize(2))
    assert.Equal(t, TypInt, IntOfSize(4))
    assert.Equal(t, TypLong, IntOfSize(8))
    assert.Equal(t, TypUndef, IntOfSize(3))
}
