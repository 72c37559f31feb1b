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
    `sync/atomic`
    `testing`

    `github.com/chenzhuoyu/iasm/x86_64`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
    `golang.org/x/arch/arm/armasm`

    `github.com/cloudwego/argmorph/internal/abi`
    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/logger`
    `github.com/cloudwego/argmorph/internal/opts`
)

func testOptions() opts.Options {
    return opts.Options {
        Checked             : true,
        ExpensiveStructCost : 12,
        Logger              : logger.Discard(),
    }
}

func newTestEngine(t *testing.T, target string, m *ir.Method, types layout.Oracle, o opts.Options) *Engine {
    cc, err := abi.ByName(target, false)
    require.NoError(t, err)
    return NewEngine(m, cc, types, o)
}

func registryFor(target string) *layout.Registry {
    switch target {
        case "x86" : return layout.NewRegistry(4)
        case "arm" : return layout.NewRegistry(4).SetLongAlign(8)
        default    : return layout.NewRegistry(8)
    }
}

func ints(m *ir.Method, vals ...int64) []ir.CallArg {
    ret := make([]ir.CallArg, len(vals))
    for i, v := range vals {
        ret[i] = ir.Arg(m.IntConst(ir.TypInt, v))
    }
    return ret
}

func regOf(t *testing.T, tab *ArgTable, idx uint32) string {
    d := tab.BySourceIndex(idx)
    require.NotNil(t, d)
    require.Len(t, d.Regs, 1, spew.Sdump(d))
    return d.Regs[0].Name
}

func TestMorph_AllInRegisters(t *testing.T) {
    m := ir.NewMethod("regs")
    call := m.Call("f", ir.TypVoid, ir.NoClass, ints(m, 1, 2, 3, 4)...)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    require.Equal(t, call, e.MorphCall(call))

    /* four registers, no temporaries */
    tab := e.Table(call)
    require.Equal(t, StateMaterialized, tab.State)
    require.False(t, tab.NeedsTemps)
    require.Equal(t, uint32(0), tab.NextSlot)
    for i, r := range []x86_64.Register64 { x86_64.RDI, x86_64.RSI, x86_64.RDX, x86_64.RCX } {
        require.Equal(t, r.String(), regOf(t, tab, uint32(i)))
    }

    /* the late list keeps the source order */
    ci := m.Node(call).Call
    require.Len(t, ci.Late, 4)
    for i, d := range tab.LateArgs() {
        require.Equal(t, uint32(i), d.SourceIndex)
        require.Equal(t, int64(i + 1), m.Node(ci.Late[i]).Ival)
        require.Equal(t, ir.OpArgPlace, m.Node(ci.Args[i].Node).Op)
    }
}

// f(a, g(), b) with an address exposed a.
func buildCallHazard(m *ir.Method) (ir.NodeId, ir.LclNum, ir.LclNum) {
    a := m.AddLocal("a", ir.TypInt, ir.NoClass)
    b := m.AddLocal("b", ir.TypInt, ir.NoClass)
    m.Locals[a].AddrExposed = true
    g := m.Call("g", ir.TypInt, ir.NoClass)
    return m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(m.LclVar(a), g, m.LclVar(b))...), a, b
}

func TestMorph_CallHazard(t *testing.T) {
    m := ir.NewMethod("hazard")
    call, a, b := buildCallHazard(m)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* a is read before g runs, the call result is spilled, b is read late */
    tab := e.Table(call)
    require.True(t, tab.BySourceIndex(0).NeedsTemp)
    require.True(t, tab.BySourceIndex(1).NeedsTemp)
    require.False(t, tab.BySourceIndex(2).NeedsTemp)

    /* registers follow the source positions */
    require.Equal(t, x86_64.RDI.String(), regOf(t, tab, 0))
    require.Equal(t, x86_64.RSI.String(), regOf(t, tab, 1))
    require.Equal(t, x86_64.RDX.String(), regOf(t, tab, 2))

    /* early list: t1 = a; t0 = g(); <argplace> */
    ci := m.Node(call).Call
    e0 := m.Node(ci.Args[0].Node)
    e1 := m.Node(ci.Args[1].Node)
    require.Equal(t, ir.OpAssign, e0.Op)
    require.Equal(t, a, m.Node(e0.Ops[1]).Lcl)
    require.Equal(t, ir.OpAssign, e1.Op)
    require.Equal(t, ir.OpCall, m.Node(e1.Ops[1]).Op)
    require.Equal(t, ir.OpArgPlace, m.Node(ci.Args[2].Node).Op)

    /* late list: the call result first, then a, then b */
    require.Len(t, ci.Late, 3)
    require.Equal(t, uint32(1), tab.Args[0].SourceIndex)
    require.Equal(t, m.Node(e1.Ops[0]).Lcl, m.Node(ci.Late[0]).Lcl)
    require.Equal(t, m.Node(e0.Ops[0]).Lcl, m.Node(ci.Late[1]).Lcl)
    require.Equal(t, b, m.Node(ci.Late[2]).Lcl)

    /* the nested call got its own table */
    require.NotNil(t, e.Table(e1.Ops[1]))
}

func TestMorph_RemorphAfterSubstitution(t *testing.T) {
    m := ir.NewMethod("remorph")
    call, _, _ := buildCallHazard(m)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* remember the placement */
    tab := e.Table(call)
    ci := m.Node(call).Call
    regs := tab.BySourceIndex(2).Regs
    nl := len(m.Locals)
    rc := atomic.LoadUint32(&RemorphCount)

    /* an inliner replaced a with a constant */
    asg := m.Node(ci.Args[0].Node)
    asg.Ops[1] = m.IntConst(ir.TypInt, 42)
    require.Equal(t, call, e.MorphCall(call))

    /* same table, same placement, no new temporaries */
    require.Same(t, tab, e.Table(call))
    require.Equal(t, 1, tab.Remorphs)
    require.Equal(t, regs, tab.BySourceIndex(2).Regs)
    require.Equal(t, nl, len(m.Locals))
    require.Equal(t, ir.OpAssign, m.Node(ci.Args[0].Node).Op)
    require.Equal(t, int64(42), m.Node(m.Node(ci.Args[0].Node).Ops[1]).Ival)
    assert.Greater(t, atomic.LoadUint32(&RemorphCount), rc)
}

func TestMorph_LargeStructByReference(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("S24", layout.F("a", ir.TypLong), layout.F("b", ir.TypLong), layout.F("c", ir.TypLong))
    m := ir.NewMethod("byref")
    s := m.AddLocal("s", ir.TypStruct, cls)
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.LclVar(s)))
    cp := atomic.LoadUint32(&CopyCount)
    e := newTestEngine(t, "win-amd64", m, types, testOptions())
    e.MorphCall(call)

    /* the argument is the address of a copy */
    tab := e.Table(call)
    d := tab.BySourceIndex(0)
    require.Equal(t, abi.PassByReference, d.Outcome)
    require.True(t, d.IsTemp)
    require.False(t, d.CopyElided)
    require.Equal(t, ir.TypByRef, d.Type)
    require.Equal(t, e.Convention().Reg(abi.FileInt, 0, ir.TypByRef).Name, regOf(t, tab, 0))

    /* copy early, address late */
    ci := m.Node(call).Call
    cb := m.Node(ci.Args[0].Node)
    require.Equal(t, ir.OpAssign, cb.Op)
    require.NotZero(t, cb.Flags & ir.NfCopyBlock)
    require.Equal(t, d.TempVar, m.Node(cb.Ops[0]).Lcl)
    require.True(t, m.Local(d.TempVar).IsTemp)
    require.Equal(t, ir.OpLclAddr, m.Node(ci.Late[0]).Op)
    require.Equal(t, d.TempVar, m.Node(ci.Late[0]).Lcl)
    assert.Greater(t, atomic.LoadUint32(&CopyCount), cp)
}

func TestMorph_CopyElision(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("S24", layout.F("a", ir.TypLong), layout.F("b", ir.TypLong), layout.F("c", ir.TypLong))

    /* build a call passing an implicit by-reference parameter */
    build := func(loops bool) (*ir.Method, ir.NodeId) {
        m := ir.NewMethod("elide")
        m.HasLoops = loops
        p := m.AddParam("p", ir.TypStruct, cls)
        m.Locals[p].ImplicitByRef = true
        m.Locals[p].RefCount = 1
        return m, m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.LclVar(p)))
    }

    /* the incoming reference is passed on */
    m, call := build(false)
    e := newTestEngine(t, "win-amd64", m, types, testOptions())
    e.MorphCall(call)
    d := e.Table(call).BySourceIndex(0)
    require.True(t, d.CopyElided)
    require.False(t, d.IsTemp)
    require.Equal(t, ir.OpLclVar, m.Node(d.Node).Op)
    require.Equal(t, ir.TypByRef, m.Node(d.Node).Type)

    /* loops may reuse the frame, so the copy stays */
    m, call = build(true)
    e = newTestEngine(t, "win-amd64", m, types, testOptions())
    e.MorphCall(call)
    d = e.Table(call).BySourceIndex(0)
    require.False(t, d.CopyElided)
    require.True(t, d.IsTemp)

    /* tail calls cannot see the caller's frame */
    m, call = build(false)
    m.Node(call).Call.Flags |= ir.CallTailPrefixed
    e = newTestEngine(t, "win-amd64", m, types, testOptions())
    e.MorphCall(call)
    require.False(t, e.Table(call).BySourceIndex(0).CopyElided)
}

func TestMorph_SysVMultiRegStruct(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("LD", layout.F("l", ir.TypLong), layout.F("d", ir.TypDouble))
    m := ir.NewMethod("multireg")
    s := m.AddLocal("s", ir.TypStruct, cls)
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.LclVar(s)))
    e := newTestEngine(t, "sysv-amd64", m, types, testOptions())
    e.MorphCall(call)

    /* one integer and one float register */
    d := e.Table(call).BySourceIndex(0)
    require.Equal(t, abi.PassMultiReg, d.Outcome)
    require.Equal(t, []string { x86_64.RDI.String(), x86_64.XMM0.String() }, []string { d.Regs[0].Name, d.Regs[1].Name })

    /* the value is a field list of two local fields */
    fl := m.Node(d.Node)
    require.Equal(t, ir.OpFieldList, fl.Op)
    require.Equal(t, []ir.Piece { { Offset: 0, Type: ir.TypLong }, { Offset: 8, Type: ir.TypDouble } }, fl.Pieces)
    require.Equal(t, ir.OpLclFld, m.Node(fl.Ops[0]).Op)
    require.Equal(t, uint32(8), m.Node(fl.Ops[1]).Offset)
    require.True(t, m.Local(s).DoNotEnreg)
}

func TestMorph_PromotedStructPieces(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("LD", layout.F("l", ir.TypLong), layout.F("d", ir.TypDouble))
    m := ir.NewMethod("promoted")
    s := m.AddLocal("s", ir.TypStruct, cls)
    fs := m.Promote(s, ir.Piece { Offset: 0, Type: ir.TypLong }, ir.Piece { Offset: 8, Type: ir.TypDouble })
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.LclVar(s)))
    e := newTestEngine(t, "sysv-amd64", m, types, testOptions())
    e.MorphCall(call)

    /* each piece is a field local */
    fl := m.Node(e.Table(call).BySourceIndex(0).Node)
    require.Equal(t, ir.OpFieldList, fl.Op)
    for i, v := range fs {
        require.Equal(t, ir.OpLclVar, m.Node(fl.Ops[i]).Op)
        require.Equal(t, v, m.Node(fl.Ops[i]).Lcl)
    }
    require.False(t, m.Local(s).DoNotEnreg)
}

func TestMorph_PrimitiveStruct(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("II", layout.F("a", ir.TypInt), layout.F("b", ir.TypInt))
    one := types.Define("L", layout.F("l", ir.TypLong))
    m := ir.NewMethod("prim")
    s := m.AddLocal("s", ir.TypStruct, cls)
    u := m.AddLocal("u", ir.TypStruct, one)
    fs := m.Promote(u, ir.Piece { Offset: 0, Type: ir.TypLong })
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(m.LclVar(s), m.LclVar(u))...)
    e := newTestEngine(t, "win-amd64", m, types, testOptions())
    e.MorphCall(call)

    /* read as one long from the local */
    tab := e.Table(call)
    d0 := tab.BySourceIndex(0)
    require.Equal(t, abi.PassPrimitive, d0.Outcome)
    require.Equal(t, ir.OpLclFld, m.Node(d0.Node).Op)
    require.Equal(t, ir.TypLong, m.Node(d0.Node).Type)

    /* a single promoted field is the value */
    d1 := tab.BySourceIndex(1)
    require.Equal(t, ir.OpLclVar, m.Node(d1.Node).Op)
    require.Equal(t, fs[0], m.Node(d1.Node).Lcl)
}

func TestMorph_ZeroOffsetField(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("LD", layout.F("l", ir.TypLong), layout.F("d", ir.TypDouble))
    m := ir.NewMethod("zerooffs")
    p := m.AddLocal("p", ir.TypByRef, ir.NoClass)
    addr := m.LclVar(p)
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.Obj(cls, addr)))
    e := newTestEngine(t, "sysv-amd64", m, types, testOptions())
    e.MorphCall(call)

    /* loads at offset 0 and 8 from the same address */
    fl := m.Node(e.Table(call).BySourceIndex(0).Node)
    require.Equal(t, ir.OpFieldList, fl.Op)
    require.Equal(t, "(ind.long V00)", m.Format(fl.Ops[0]))
    require.Equal(t, "(ind.double (add.byref V00 8))", m.Format(fl.Ops[1]))

    /* the reused address carries its field */
    fv, ok := e.ZeroOffsetField(addr)
    require.True(t, ok)
    require.Equal(t, "l", fv.Name)
}

func TestMorph_ARMBackFill(t *testing.T) {
    m := ir.NewMethod("backfill")
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(
        m.DblConst(ir.TypFloat, 1),
        m.DblConst(ir.TypDouble, 2),
        m.DblConst(ir.TypFloat, 3),
    )...)
    e := newTestEngine(t, "arm", m, registryFor("arm"), testOptions())
    e.MorphCall(call)

    /* S0, D1, then S1 reuses the hole */
    tab := e.Table(call)
    require.Equal(t, armasm.S0.String(), regOf(t, tab, 0))
    require.Equal(t, armasm.D1.String(), regOf(t, tab, 1))
    require.Equal(t, armasm.S1.String(), regOf(t, tab, 2))
    require.True(t, tab.BySourceIndex(2).IsBackFilled)
    require.False(t, tab.BySourceIndex(1).IsBackFilled)
}

func TestMorph_BackFillOverlapIsCaught(t *testing.T) {
    m := ir.NewMethod("overlap")
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(
        m.DblConst(ir.TypFloat, 1),
        m.DblConst(ir.TypDouble, 2),
        m.DblConst(ir.TypFloat, 3),
    )...)
    e := newTestEngine(t, "arm", m, registryFor("arm"), testOptions())
    e.MorphCall(call)

    /* a back-filled register landing inside D1 is a double assignment */
    tab := e.Table(call)
    d := tab.BySourceIndex(2)
    require.NotPanics(t, func() { e.verifyRegisters(tab) })
    d.Regs = []abi.Register { e.Convention().Reg(abi.FileFloat, 3, ir.TypFloat) }
    require.Panics(t, func() { e.verifyRegisters(tab) })
}

func TestMorph_ARMLongPairs(t *testing.T) {
    m := ir.NewMethod("pairs")
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(
        m.IntConst(ir.TypInt, 1),
        m.IntConst(ir.TypLong, 2),
        m.IntConst(ir.TypInt, 3),
    )...)
    e := newTestEngine(t, "arm", m, registryFor("arm"), testOptions())
    e.MorphCall(call)

    /* the long skips R1, the core registers are not back-filled */
    tab := e.Table(call)
    d := tab.BySourceIndex(1)
    require.Equal(t, armasm.R0.String(), regOf(t, tab, 0))
    require.Equal(t, []string { armasm.R2.String(), armasm.R3.String() }, []string { d.Regs[0].Name, d.Regs[1].Name })
    require.Equal(t, PlaceStack, tab.BySourceIndex(2).Placement())
    require.Equal(t, uint32(0), tab.BySourceIndex(2).Slot)
    require.Equal(t, uint32(1), tab.NextSlot)
}

func TestMorph_ARMSplitStruct(t *testing.T) {
    types := registryFor("arm")
    cls := types.Define("I3", layout.F("a", ir.TypInt), layout.F("b", ir.TypInt), layout.F("c", ir.TypInt))
    m := ir.NewMethod("split")
    s := m.AddLocal("s", ir.TypStruct, cls)
    args := append(ints(m, 1, 2), ir.Arg(m.LclVar(s)), ir.Arg(m.IntConst(ir.TypInt, 4)))
    call := m.Call("f", ir.TypVoid, ir.NoClass, args...)
    e := newTestEngine(t, "arm", m, types, testOptions())
    e.MorphCall(call)

    /* R2, R3 and one stack slot */
    tab := e.Table(call)
    d := tab.BySourceIndex(2)
    require.Equal(t, PlaceSplit, d.Placement())
    require.Equal(t, abi.PassMultiReg, d.Outcome)
    require.Len(t, d.Regs, 2)
    require.Equal(t, armasm.R2.String(), d.Regs[0].Name)
    require.Equal(t, uint32(0), d.Slot)
    require.Equal(t, uint32(1), d.NumSlots)

    /* three pieces, the last one lives on the stack */
    fl := m.Node(d.Node)
    require.Equal(t, ir.OpFieldList, fl.Op)
    require.Len(t, fl.Ops, 3)

    /* the core registers are closed */
    require.Equal(t, uint32(1), tab.BySourceIndex(3).Slot)
    require.Equal(t, uint32(2), tab.NextSlot)
}

func TestMorph_WinSharedPositions(t *testing.T) {
    m := ir.NewMethod("win")
    args := ir.Args(m.IntConst(ir.TypInt, 1), m.DblConst(ir.TypDouble, 2), m.IntConst(ir.TypInt, 3), m.IntConst(ir.TypInt, 4), m.IntConst(ir.TypInt, 5))
    call := m.Call("f", ir.TypVoid, ir.NoClass, args...)
    e := newTestEngine(t, "win-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* RCX, XMM1, R8, R9, then the first slot after the home area */
    tab := e.Table(call)
    cc := e.Convention()
    require.Equal(t, cc.Reg(abi.FileInt, 0, ir.TypInt).Name, regOf(t, tab, 0))
    require.Equal(t, x86_64.XMM1.String(), regOf(t, tab, 1))
    require.Equal(t, cc.Reg(abi.FileInt, 2, ir.TypInt).Name, regOf(t, tab, 2))
    require.Equal(t, cc.Reg(abi.FileInt, 3, ir.TypInt).Name, regOf(t, tab, 3))
    require.Equal(t, uint32(4), tab.BySourceIndex(4).Slot)
    require.Equal(t, uint32(5), tab.NextSlot)
    require.Equal(t, tab.NextSlot, tab.StackSlots())
}

func TestMorph_NonStandardArgs(t *testing.T) {
    m := ir.NewMethod("stub")
    cell := m.AddLocal("cell", ir.TypNint, ir.NoClass)
    call := m.Call("vcall", ir.TypVoid, ir.NoClass, ints(m, 1)...)
    ci := m.Node(call).Call
    ci.Flags |= ir.CallVirtualStub
    ci.StubCell = m.LclVar(cell)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* the cell is appended and pinned */
    require.Len(t, ci.Args, 2)
    require.Equal(t, ir.ArgVirtualStubCell, ci.Args[1].Kind)
    d := e.Table(call).BySourceIndex(1)
    require.True(t, d.NonStandard)
    require.Equal(t, x86_64.R11.String(), d.Regs[0].Name)
    require.Equal(t, x86_64.RDI.String(), regOf(t, e.Table(call), 0))

    /* never spliced twice */
    e.MorphCall(call)
    require.Len(t, ci.Args, 2)
}

func TestMorph_X86StackArgs(t *testing.T) {
    m := ir.NewMethod("x86")
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(m.IntConst(ir.TypLong, 1), m.IntConst(ir.TypInt, 2))...)
    ci := m.Node(call).Call
    ci.Flags |= ir.CallUnmanaged
    ci.Cookie = m.IntConst(ir.TypNint, 7)
    e := newTestEngine(t, "x86", m, registryFor("x86"), testOptions())
    e.MorphCall(call)

    /* the long takes two slots, the int goes in ECX, the cookie on the stack */
    tab := e.Table(call)
    require.Equal(t, uint32(0), tab.BySourceIndex(0).Slot)
    require.Equal(t, uint32(2), tab.BySourceIndex(0).NumSlots)
    require.Equal(t, PlaceRegisters, tab.BySourceIndex(1).Placement())
    require.True(t, tab.BySourceIndex(2).NonStandard)
    require.Equal(t, uint32(2), tab.BySourceIndex(2).Slot)
    require.Equal(t, uint32(3), tab.NextSlot)

    /* stack arguments are pushed in place */
    require.Equal(t, -1, tab.BySourceIndex(0).LateIndex)
}

func TestMorph_LocallocSpillsStackArgs(t *testing.T) {
    m := ir.NewMethod("localloc")
    x := m.AddLocal("x", ir.TypLong, ir.NoClass)
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(m.LclVar(x), m.LclHeap(m.IntConst(ir.TypNint, 16)))...)
    e := newTestEngine(t, "x86", m, registryFor("x86"), testOptions())
    e.MorphCall(call)
    tab := e.Table(call)
    require.True(t, tab.BySourceIndex(0).NeedsTemp)
    require.True(t, tab.BySourceIndex(1).NeedsTemp)
}

func TestMorph_StackPlaceholder(t *testing.T) {
    m := ir.NewMethod("placeholder")
    x := m.AddLocal("x", ir.TypInt, ir.NoClass)
    args := append(ints(m, 1, 2, 3, 4, 5, 6), ir.Arg(m.LclVar(x)), ir.Arg(m.Call("g", ir.TypInt, ir.NoClass)))
    call := m.Call("f", ir.TypVoid, ir.NoClass, args...)
    ph := atomic.LoadUint32(&PlaceholderCount)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* x is stored after g returns */
    tab := e.Table(call)
    d := tab.BySourceIndex(6)
    require.True(t, d.NeedsPlaceholder)
    require.False(t, d.NeedsTemp)
    require.True(t, tab.BySourceIndex(7).NeedsTemp)
    require.GreaterOrEqual(t, d.LateIndex, 0)
    require.Equal(t, ir.OpArgPlace, m.Node(m.Node(call).Call.Args[6].Node).Op)
    assert.Greater(t, atomic.LoadUint32(&PlaceholderCount), ph)
}

func TestMorph_AssignHazard(t *testing.T) {
    m := ir.NewMethod("assign")
    x := m.AddLocal("x", ir.TypInt, ir.NoClass)
    upd := m.Comma(m.Assign(m.LclVar(x), m.IntConst(ir.TypInt, 5)), m.LclVar(x))
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(m.LclVar(x), upd, m.IntConst(ir.TypInt, 9))...)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* x is read before it is written */
    tab := e.Table(call)
    require.True(t, tab.BySourceIndex(0).NeedsTemp)
    require.True(t, tab.BySourceIndex(1).NeedsTemp)
    require.False(t, tab.BySourceIndex(2).NeedsTemp)
    ci := m.Node(call).Call
    require.Equal(t, ir.OpAssign, m.Node(ci.Args[0].Node).Op)
    require.Equal(t, ir.OpAssign, m.Node(ci.Args[1].Node).Op)
}

func TestMorph_ConservativeOrder(t *testing.T) {
    build := func() (*ir.Method, ir.NodeId) {
        m := ir.NewMethod("minopts")
        p := m.AddLocal("p", ir.TypByRef, ir.NoClass)
        args := append(ints(m, 1, 2, 3, 4, 5, 6, 7), ir.Arg(m.Indir(ir.TypInt, m.LclVar(p))))
        return m, m.Call("f", ir.TypVoid, ir.NoClass, args...)
    }

    /* optimized code leaves the faulting load in place */
    m, call := build()
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)
    require.False(t, e.Table(call).NeedsTemps)

    /* minopts orders it like a call */
    o := testOptions()
    o.MinOpts = true
    m, call = build()
    e = newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), o)
    e.MorphCall(call)
    tab := e.Table(call)
    require.True(t, tab.BySourceIndex(7).NeedsTemp)
    require.True(t, tab.BySourceIndex(6).NeedsPlaceholder)
}

func TestMorph_SortOrder(t *testing.T) {
    m := ir.NewMethod("sort")
    x := m.AddLocal("x", ir.TypInt, ir.NoClass)
    p := m.AddLocal("p", ir.TypByRef, ir.NoClass)
    ld := m.Indir(ir.TypInt, m.Binary(ir.OpAdd, ir.TypByRef, m.LclVar(p), m.IntConst(ir.TypNint, 8)))
    m.Node(ld).Flags |= ir.NfNonFaulting
    args := ir.Args(m.IntConst(ir.TypInt, 1), m.LclVar(x), m.Call("g", ir.TypInt, ir.NoClass), ld)
    call := m.Call("f", ir.TypVoid, ir.NoClass, args...)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* call, load, local, constant */
    var order []uint32
    for _, d := range e.Table(call).Args {
        order = append(order, d.SourceIndex)
    }
    require.Equal(t, []uint32 { 2, 3, 1, 0 }, order)
}

func TestMorph_DependenciesOverrideCost(t *testing.T) {
    m := ir.NewMethod("deps")
    p := m.AddLocal("p", ir.TypByRef, ir.NoClass)
    q := m.AddLocal("q", ir.TypByRef, ir.NoClass)
    cheap := m.Indir(ir.TypInt, m.LclVar(p))
    costly := m.Indir(ir.TypInt, m.Binary(ir.OpAdd, ir.TypByRef, m.Binary(ir.OpAdd, ir.TypByRef, m.LclVar(q), m.LclVar(p)), m.IntConst(ir.TypNint, 16)))
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Args(cheap, costly)...)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)

    /* both may fault, so source order wins over cost */
    tab := e.Table(call)
    require.True(t, tab.MustPrecede(tab.BySourceIndex(0), tab.BySourceIndex(1)))
    require.Equal(t, uint32(0), tab.Args[0].SourceIndex)
    require.Equal(t, uint32(1), tab.Args[1].SourceIndex)
}

func TestMorph_StructWithoutClassIsBadIL(t *testing.T) {
    m := ir.NewMethod("badil")
    s := m.AddLocal("s", ir.TypStruct, ir.NoClass)
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.LclVar(s)))
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    require.Panics(t, func() { e.MorphCall(call) })
}

func TestMorph_EmptyStructTakesOneSlot(t *testing.T) {
    types := layout.NewRegistry(8)
    cls := types.Define("Empty")
    m := ir.NewMethod("empty")
    s := m.AddLocal("s", ir.TypStruct, cls)
    call := m.Call("f", ir.TypVoid, ir.NoClass, ir.Arg(m.LclVar(s)))
    e := newTestEngine(t, "sysv-amd64", m, types, testOptions())
    e.MorphCall(call)
    d := e.Table(call).BySourceIndex(0)
    require.Equal(t, abi.PassOnStack, d.Outcome)
    require.Equal(t, uint32(1), d.NumSlots)
}

func TestMorph_TableString(t *testing.T) {
    m := ir.NewMethod("dump")
    call := m.Call("f", ir.TypVoid, ir.NoClass, ints(m, 1)...)
    e := newTestEngine(t, "sysv-amd64", m, layout.NewRegistry(8), testOptions())
    e.MorphCall(call)
    require.Equal(t, "{call f,materialized,$0,(#0:int(%" + x86_64.RDI.String() + ")[late=0])}", e.Table(call).String())
}
