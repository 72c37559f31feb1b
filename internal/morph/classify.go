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
    `github.com/google/btree`

    `github.com/cloudwego/argmorph/internal/abi`
    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/utils`
)

// regState is the register and stack cursor of one call while its
// arguments are classified in source order.
type regState struct {
    cc    abi.Convention
    tr    abi.Traits
    next  [3]uint32
    slot  uint32
    stack bool
    holes *btree.BTreeG[uint32]
}

func newRegState(cc abi.Convention, initial uint32) *regState {
    return &regState {
        cc    : cc,
        tr    : cc.Traits(),
        slot  : initial,
        holes : btree.NewG[uint32](2, func(a uint32, b uint32) bool { return a < b }),
    }
}

func alignSlot(n uint32, align uint32) uint32 {
    if align <= 1 {
        return n
    } else {
        return utils.AlignUp(n, align)
    }
}

func (self *regState) counter(f abi.RegFile) *uint32 {
    if self.tr.SharedPositions {
        return &self.next[abi.FileInt]
    } else {
        return &self.next[f]
    }
}

// find looks for n free units of a register file without taking them.
func (self *regState) find(f abi.RegFile, n uint32, align uint32) (uint32, bool, bool) {
    if f == abi.FileNone {
        return 0, false, false
    }

    /* nothing to allocate */
    if n == 0 {
        return 0, false, true
    }

    /* skipped float units are reusable */
    if f == abi.FileFloat && self.tr.BackFill {
        if start, ok := self.findHole(n, align); ok {
            return start, true, true
        }
    }

    /* allocate from the cursor */
    start := *self.counter(f)
    lim := self.cc.NumRegs(f)

    /* align the starting unit */
    if self.tr.AlignPairs {
        start = alignSlot(start, align)
    }

    /* check for space */
    if start + n > lim {
        return start, false, false
    } else {
        return start, false, true
    }
}

func (self *regState) findHole(n uint32, align uint32) (uint32, bool) {
    ret := uint32(0)
    found := false

    /* lowest aligned run of holes */
    self.holes.Ascend(func(u uint32) bool {
        if u % align != 0 {
            return true
        }
        for i := uint32(1); i < n; i++ {
            if !self.holes.Has(u + i) {
                return true
            }
        }
        ret, found = u, true
        return false
    })
    return ret, found
}

// commit takes the units returned by find.
func (self *regState) commit(f abi.RegFile, start uint32, n uint32, backfill bool) {
    if n == 0 {
        return
    }

    /* back-filled units leave the hole set */
    if backfill {
        for i := uint32(0); i < n; i++ {
            self.holes.Delete(start + i)
        }
        return
    }

    /* units skipped by alignment become holes */
    ctr := self.counter(f)
    if f == abi.FileFloat && self.tr.BackFill {
        for u := *ctr; u < start; u++ {
            self.holes.ReplaceOrInsert(u)
        }
    }

    /* advance the cursor */
    *ctr = start + n
}

// overflow records that a value of the file did not fit.
func (self *regState) overflow(f abi.RegFile) {
    if f != abi.FileNone && self.tr.BurnOnStack {
        *self.counter(f) = self.cc.NumRegs(f)
        if f == abi.FileFloat {
            self.holes.Clear(false)
        }
    }
}

func (self *regState) regs(f abi.RegFile, start uint32, n uint32, vt ir.VarType) []abi.Register {
    var ret []abi.Register
    for u := start; u < start + n; {
        r := self.cc.Reg(f, u, vt)
        ret = append(ret, r)
        u += r.Span
    }
    return ret
}

func (self *regState) allocStack(d *ArgDescriptor, nslots uint32, align uint32) {
    if align == 0 {
        align = 1
    }
    d.Slot = alignSlot(self.slot, align)
    d.NumSlots = nslots
    d.Alignment = align
    self.slot = d.Slot + nslots
    self.stack = true
}

// classify splices the non-standard arguments, morphs every argument and
// records its ABI placement in source order.
func (self *Engine) classify(call ir.NodeId) *ArgTable {
    ci := self.m.Node(call).Call
    self.spliceNonStandard(ci)

    /* create the table */
    tab := newArgTable(call, ci.Name, self.cc.Name(), self.tr.InitialSlot)
    rs := newRegState(self.cc, tab.InitialSlot)

    /* classify every argument in source order */
    for i := range ci.Args {
        d := newArgDescriptor(uint32(i), ci.Args[i])
        d.Node = self.Morph(d.Node)
        d.IsVarArg = ci.Has(ir.CallVarargs)
        ci.Args[i].Node = d.Node
        self.classifyArg(tab, rs, ci, d)
        ci.Args[i].Node = d.Node
        tab.Append(d)
    }

    /* the stack usage of the call */
    tab.NextSlot = rs.slot
    return tab
}

func (self *Engine) classifyArg(tab *ArgTable, rs *regState, ci *ir.CallInfo, d *ArgDescriptor) {
    p := self.m.Node(d.Node)
    d.Type, d.Class = p.Type, p.Class

    /* pinned arguments are outside the normal register sequence */
    if pin, reg := self.cc.NonStandard(d.Kind); pin != abi.PinNone {
        self.classifyPinned(rs, d, pin, reg)
        return
    }

    /* struct values */
    if d.Type == ir.TypStruct {
        self.classifyStruct(tab, rs, ci, d)
        return
    }

    /* too large for a register, pass a copy by reference */
    sp := self.cc.ClassifyScalar(d.Type, d.IsVarArg)
    if sp.ByRef {
        self.passByRef(ci, d)
        sp = self.cc.ClassifyScalar(ir.TypByRef, d.IsVarArg)
    }

    /* place the value */
    self.placeScalar(rs, d, sp, d.Type)
}

func (self *Engine) classifyPinned(rs *regState, d *ArgDescriptor, pin abi.Pinning, reg abi.Register) {
    d.NonStandard = true
    switch pin {
        case abi.PinRegister : d.Regs = []abi.Register { reg }
        case abi.PinStack    : rs.allocStack(d, 1, 1)
        default              : panic("morph: invalid pinning for " + d.Kind.String())
    }
}

func (self *Engine) placeScalar(rs *regState, d *ArgDescriptor, sp abi.ScalarPassing, vt ir.VarType) {
    if start, bf, ok := rs.find(sp.File, sp.NumRegs, sp.Align); !ok {
        rs.overflow(sp.File)
        rs.allocStack(d, sp.NumSlots, sp.Align)
    } else {
        rs.commit(sp.File, start, sp.NumRegs, bf)
        d.Regs = rs.regs(sp.File, start, sp.NumRegs, vt)
        d.Alignment = sp.Align
        d.IsBackFilled = bf
    }
}

func (self *Engine) classifyStruct(tab *ArgTable, rs *regState, ci *ir.CallInfo, d *ArgDescriptor) {
    d.IsStruct = true
    tab.HasStructArgs = true

    /* every struct value must name its type */
    if d.Class == ir.NoClass {
        panic(utils.EBadIL("struct argument #%d of %s has no class handle", d.SourceIndex, ci.Name))
    }

    /* ask the convention */
    sp := self.cc.ClassifyStruct(self.types, d.Class, d.IsVarArg)
    d.Passing = sp
    d.Outcome = sp.Kind
    d.HfaType = sp.HfaType
    d.HfaSlots = sp.HfaCount

    /* apply the decision */
    switch sp.Kind {
        case abi.PassPrimitive   : self.placePrimitive(rs, d, &sp)
        case abi.PassMultiReg    : self.placeMultiReg(rs, d, &sp)
        case abi.PassByReference : self.placeByRef(rs, ci, d)
        case abi.PassOnStack     : rs.allocStack(d, sp.NumSlots, sp.Align)
        default                  : panic(utils.EABI(self.cc.Name(), "invalid struct passing %s", sp.Kind))
    }
}

func (self *Engine) placePrimitive(rs *regState, d *ArgDescriptor, sp *abi.StructPassing) {
    if sp.File == abi.FileNone {
        rs.allocStack(d, sp.NumSlots, sp.Align)
    } else {
        self.placeScalar(rs, d, self.cc.ClassifyScalar(sp.Prim, d.IsVarArg), sp.Prim)
    }
}

func (self *Engine) placeByRef(rs *regState, ci *ir.CallInfo, d *ArgDescriptor) {
    self.passByRef(ci, d)
    self.placeScalar(rs, d, self.cc.ClassifyScalar(ir.TypByRef, d.IsVarArg), ir.TypByRef)
}

func (self *Engine) placeMultiReg(rs *regState, d *ArgDescriptor, sp *abi.StructPassing) {
    ni := sp.IntUnits()
    nf := sp.FloatUnits()

    /* all the pieces must fit, in both files */
    si, bi, oki := rs.find(abi.FileInt, ni, sp.Align)
    sf, bf, okf := rs.find(abi.FileFloat, nf, sp.Align)

    /* assign registers piece by piece */
    if oki && okf {
        rs.commit(abi.FileInt, si, ni, bi)
        rs.commit(abi.FileFloat, sf, nf, bf)
        d.Regs = rs.pieceRegs(sp.Pieces, len(sp.Pieces), si, sf)
        d.Alignment = sp.Align
        d.IsBackFilled = bf
        return
    }

    /* the head in the remaining core registers, the tail on the stack */
    if self.tr.CanSplit && nf == 0 && !rs.stack {
        if start := alignSlot(*rs.counter(abi.FileInt), sp.Align); start < self.cc.NumRegs(abi.FileInt) {
            self.splitStruct(rs, d, sp, start)
            return
        }
    }

    /* close the files that overflowed */
    if !oki { rs.overflow(abi.FileInt) }
    if !okf { rs.overflow(abi.FileFloat) }

    /* entirely on the stack */
    d.Outcome = abi.PassOnStack
    rs.allocStack(d, sp.NumSlots, sp.Align)
}

func (self *Engine) splitStruct(rs *regState, d *ArgDescriptor, sp *abi.StructPassing, start uint32) {
    var nr uint32
    var np int

    /* take whole pieces until the registers run out */
    for _, p := range sp.Pieces {
        if start + nr + p.Units > self.cc.NumRegs(abi.FileInt) {
            break
        }
        nr += p.Units
        np++
    }

    /* registers first, then the stack part */
    rs.commit(abi.FileInt, start, nr, false)
    d.Regs = rs.pieceRegs(sp.Pieces, np, start, 0)
    d.Alignment = sp.Align
    rs.allocStack(d, sp.NumSlots - nr, 1)
}

func (self *regState) pieceRegs(pieces []abi.Piece, n int, si uint32, sf uint32) []abi.Register {
    var ret []abi.Register
    var cur = [3]uint32 { abi.FileInt: si, abi.FileFloat: sf }

    /* walk the pieces in offset order */
    for _, p := range pieces[:n] {
        ret = append(ret, self.regs(p.File, cur[p.File], p.Units, p.Type)...)
        cur[p.File] += p.Units
    }
    return ret
}

// passByRef replaces the argument with the address of a copy, or with the
// address of the caller's own implicit by-reference parameter when no copy
// is observable.
func (self *Engine) passByRef(ci *ir.CallInfo, d *ArgDescriptor) {
    d.PassedByRef = true
    d.Outcome = abi.PassByReference

    /* reuse the incoming reference */
    if self.canElideCopy(ci, d.Node) {
        d.Node = self.m.LclVarAs(self.m.Node(d.Node).Lcl, ir.TypByRef)
        d.Type = ir.TypByRef
        d.CopyElided = true
        countElidedCopy()
        return
    }

    /* copy into a fresh temporary */
    tmp := self.m.GrabTemp(d.Type, d.Class, "outgoing arg copy")
    asg := self.m.Assign(self.m.LclVar(tmp), d.Node)
    self.m.Node(asg).Flags |= ir.NfCopyBlock

    /* the argument is now the address of the copy */
    d.Node = self.Morph(self.m.Comma(asg, self.m.LclAddr(tmp)))
    d.Type = ir.TypByRef
    d.IsTemp = true
    d.TempVar = tmp
    countCopy()
}

func (self *Engine) canElideCopy(ci *ir.CallInfo, id ir.NodeId) bool {
    p := self.m.Node(id)

    /* must be a whole local */
    if p.Op != ir.OpLclVar {
        return false
    }

    /* which must be an implicit by-reference parameter */
    if lv := self.m.Local(p.Lcl); !lv.IsParam || !lv.ImplicitByRef {
        return false
    }

    /* the callee must not be able to observe the aliasing */
    return self.info.EarlyRefCount(p.Lcl) == 1 &&
          !self.info.IsAddressExposed(p.Lcl) &&
          !ci.IsTailCall() &&
          !self.m.HasLoops
}
