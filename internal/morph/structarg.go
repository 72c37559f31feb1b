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
    `github.com/cloudwego/argmorph/internal/utils`
)

// decompose rewrites a struct value into the shape its passing mode needs.
// It runs exactly once per struct argument.
func (self *Engine) decompose(ci *ir.CallInfo, d *ArgDescriptor) {
    if d.decomposed {
        panic("morph: struct argument decomposed twice: " + d.String())
    }

    /* select by outcome */
    d.decomposed = true
    switch d.Outcome {
        case abi.PassPrimitive   : self.replaceArg(ci, d, self.asPrimitive(d))
        case abi.PassMultiReg    : self.replaceArg(ci, d, self.asFieldList(d))
        case abi.PassByReference : break
        case abi.PassOnStack     : break
        default                  : panic("morph: unknown struct outcome " + d.Outcome.String())
    }
}

func (self *Engine) replaceArg(ci *ir.CallInfo, d *ArgDescriptor, id ir.NodeId) {
    if d.Node = id; d.LateIndex >= 0 {
        ci.Late[d.LateIndex] = id
    } else {
        ci.Args[d.SourceIndex].Node = id
    }
}

// promotedField returns the field local of a promoted struct local that
// covers exactly the given piece.
func (self *Engine) promotedField(lv *ir.Local, offs uint32, vt ir.VarType) ir.LclNum {
    ps := self.cc.PointerSize()
    for _, fl := range lv.Fields {
        if fv := self.m.Local(fl); fv.FieldOffset == offs {
            if fv.Type.Size(ps) == vt.Size(ps) && fv.Type.IsFloat() == vt.IsFloat() {
                return fl
            } else {
                return ir.NoLcl
            }
        }
    }
    return ir.NoLcl
}

// asPrimitive reads a struct that travels as one scalar.
func (self *Engine) asPrimitive(d *ArgDescriptor) ir.NodeId {
    vt := d.Passing.Prim
    id := d.Node
    p := self.m.Node(id)

    /* check the source */
    switch p.Op {
        default: {
            panic(utils.EBadIL("cannot pass %s as a %s", self.m.Format(id), vt))
        }

        /* a single matching field is the value itself */
        case ir.OpLclVar: {
            lv := self.m.Local(p.Lcl)
            if lv.ImplicitByRef {
                return self.loadAt(vt, self.m.LclVarAs(p.Lcl, ir.TypByRef), 0, d.Class, p.Flags)
            }
            if len(lv.Fields) == 1 {
                if fl := self.promotedField(lv, 0, vt); fl != ir.NoLcl {
                    return self.m.LclVar(fl)
                }
            }
            if lv.IsPromoted() {
                lv.DoNotEnreg = true
            }
            return self.m.LclFld(p.Lcl, 0, vt)
        }

        /* loads from memory */
        case ir.OpObj: {
            return self.loadAt(vt, p.Ops[0], 0, d.Class, p.Flags)
        }

        /* already a value of the right size */
        case ir.OpLclFld, ir.OpCall: {
            self.m.Retype(id, vt)
            return id
        }
    }
}

// asFieldList splits a struct into one value per register piece.
func (self *Engine) asFieldList(d *ArgDescriptor) ir.NodeId {
    id := d.Node
    p := *self.m.Node(id)
    ps := d.Passing.Pieces
    ops := make([]ir.NodeId, len(ps))
    pcs := make([]ir.Piece, len(ps))

    /* the field list layout */
    for i, v := range ps {
        pcs[i] = ir.Piece { Offset: v.Offset, Type: v.Type }
    }

    /* per source shape */
    switch p.Op {
        default: {
            panic(utils.EBadIL("cannot split %s into %d pieces", self.m.Format(id), len(ps)))
        }

        /* struct locals */
        case ir.OpLclVar: {
            lv := self.m.Local(p.Lcl)
            if lv.ImplicitByRef {
                self.piecesFrom(ops, ps, self.m.LclVarAs(p.Lcl, ir.TypByRef), d.Class, p.Flags)
            } else if fl := self.promotedFields(lv, ps); fl != nil {
                for i, v := range fl { ops[i] = self.m.LclVar(v) }
            } else {
                lv.DoNotEnreg = true
                for i, v := range ps { ops[i] = self.m.LclFld(p.Lcl, v.Offset, v.Type) }
            }
        }

        /* a struct field of a local */
        case ir.OpLclFld: {
            self.m.Local(p.Lcl).DoNotEnreg = true
            for i, v := range ps { ops[i] = self.m.LclFld(p.Lcl, p.Offset + v.Offset, v.Type) }
        }

        /* memory */
        case ir.OpObj: {
            self.piecesFrom(ops, ps, p.Ops[0], d.Class, p.Flags)
        }
    }

    /* every piece is new code */
    for i := range ops {
        ops[i] = self.Morph(ops[i])
    }

    /* build the field list */
    ret := self.m.FieldList(ops, pcs)
    self.m.Node(ret).Class = d.Class
    return ret
}

// promotedFields matches every piece with a field local, or returns nil.
func (self *Engine) promotedFields(lv *ir.Local, ps []abi.Piece) []ir.LclNum {
    if len(lv.Fields) != len(ps) {
        return nil
    }

    /* one field per piece */
    ret := make([]ir.LclNum, len(ps))
    for i, v := range ps {
        if ret[i] = self.promotedField(lv, v.Offset, v.Type); ret[i] == ir.NoLcl {
            return nil
        }
    }
    return ret
}

func (self *Engine) piecesFrom(ops []ir.NodeId, ps []abi.Piece, addr ir.NodeId, cls ir.ClassHandle, fl ir.NodeFlags) {
    for i, v := range ps {
        if i == 0 && v.Offset == 0 {
            ops[i] = self.loadAt(v.Type, addr, 0, cls, fl)
        } else {
            ops[i] = self.loadAt(v.Type, self.m.Clone(addr), v.Offset, cls, fl)
        }
    }
}

// loadAt reads a value at a constant offset from an address. The address is
// used directly at offset 0, and annotated with the field found there.
func (self *Engine) loadAt(vt ir.VarType, addr ir.NodeId, offs uint32, cls ir.ClassHandle, fl ir.NodeFlags) ir.NodeId {
    if offs != 0 {
        addr = self.m.Binary(ir.OpAdd, ir.TypByRef, addr, self.m.IntConst(ir.TypNint, int64(offs)))
    } else {
        self.annotateZeroOffset(addr, cls)
    }

    /* the load keeps the fault and volatility flags of the source */
    ret := self.m.Indir(vt, addr)
    self.m.Node(ret).Flags = fl &^ ir.NfCopyBlock
    return ret
}

func (self *Engine) annotateZeroOffset(addr ir.NodeId, cls ir.ClassHandle) {
    for _, f := range self.types.FieldOffsets(cls) {
        if f.Offset == 0 {
            self.zeroOffs[addr] = f
            return
        }
    }
}
