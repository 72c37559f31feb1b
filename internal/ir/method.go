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
    `fmt`
)

type Local struct {
    Name          string
    Type          VarType
    Class         ClassHandle
    IsParam       bool
    IsTemp        bool
    ImplicitByRef bool
    AddrExposed   bool
    DoNotEnreg    bool
    RefCount      int
    Fields        []LclNum
    Parent        LclNum
    FieldOffset   uint32
}

// IsPromoted reports whether the struct local has been split into field locals.
func (self *Local) IsPromoted() bool {
    return len(self.Fields) != 0
}

// LocalInfo is the read-only view of the address-exposure analysis.
type LocalInfo interface {
    IsAddressExposed(lcl LclNum) bool
    EarlyRefCount(lcl LclNum) int
}

// Method is the compilation unit. All nodes live in its arena.
type Method struct {
    Name     string
    HasLoops bool
    Locals   []Local
    Stmts    []NodeId
    nodes    []Node
}

func NewMethod(name string) *Method {
    return &Method {
        Name  : name,
        nodes : make([]Node, 0, 64),
    }
}

func (self *Method) NodeCount() int {
    return len(self.nodes)
}

func (self *Method) Node(id NodeId) *Node {
    if id < 0 || int(id) >= len(self.nodes) {
        panic(fmt.Sprintf("ir: invalid node id %d", id))
    } else {
        return &self.nodes[id]
    }
}

func (self *Method) Local(lcl LclNum) *Local {
    if lcl < 0 || int(lcl) >= len(self.Locals) {
        panic(fmt.Sprintf("ir: invalid local V%02d", lcl))
    } else {
        return &self.Locals[lcl]
    }
}

func (self *Method) IsAddressExposed(lcl LclNum) bool {
    return self.Local(lcl).AddrExposed
}

func (self *Method) EarlyRefCount(lcl LclNum) int {
    return self.Local(lcl).RefCount
}

func (self *Method) add(n Node) NodeId {
    self.nodes = append(self.nodes, n)
    return NodeId(len(self.nodes) - 1)
}

// AddStmt appends a statement root to the method.
func (self *Method) AddStmt(id NodeId) {
    self.Stmts = append(self.Stmts, id)
}

/** Locals **/

func (self *Method) AddLocal(name string, vt VarType, cls ClassHandle) LclNum {
    self.Locals = append(self.Locals, Local {
        Name   : name,
        Type   : vt,
        Class  : cls,
        Parent : NoLcl,
    })
    return LclNum(len(self.Locals) - 1)
}

func (self *Method) AddParam(name string, vt VarType, cls ClassHandle) LclNum {
    lcl := self.AddLocal(name, vt, cls)
    self.Locals[lcl].IsParam = true
    return lcl
}

// GrabTemp allocates a fresh compiler temporary.
func (self *Method) GrabTemp(vt VarType, cls ClassHandle, reason string) LclNum {
    lcl := self.AddLocal("tmp:" + reason, vt, cls)
    self.Locals[lcl].IsTemp = true
    return lcl
}

// Promote splits a struct local into field locals at the given offsets.
func (self *Method) Promote(lcl LclNum, pieces ...Piece) []LclNum {
    var ret []LclNum
    var parent = self.Local(lcl)

    /* only struct locals can be promoted */
    if parent.Type != TypStruct {
        panic("ir: promoting a non-struct local: " + parent.Name)
    }

    /* create each field local */
    for _, p := range pieces {
        fl := self.AddLocal(fmt.Sprintf("%s.%d", parent.Name, p.Offset), p.Type, NoClass)
        self.Locals[fl].Parent = lcl
        self.Locals[fl].FieldOffset = p.Offset
        ret = append(ret, fl)
    }

    /* the slice might have been reallocated */
    self.Locals[lcl].Fields = ret
    return ret
}

/** Node Constructors **/

func (self *Method) IntConst(vt VarType, v int64) NodeId {
    return self.add(Node { Op: OpConstInt, Type: vt, Ival: v, Lcl: NoLcl })
}

func (self *Method) DblConst(vt VarType, v float64) NodeId {
    return self.add(Node { Op: OpConstDbl, Type: vt, Dval: v, Lcl: NoLcl })
}

func (self *Method) Nop() NodeId {
    return self.add(Node { Op: OpNop, Type: TypVoid, Lcl: NoLcl })
}

func (self *Method) LclVar(lcl LclNum) NodeId {
    v := self.Local(lcl)
    return self.add(Node { Op: OpLclVar, Type: v.Type, Class: v.Class, Lcl: lcl })
}

// LclVarAs reads a local with an explicit type, used for implicit by-ref parameters.
func (self *Method) LclVarAs(lcl LclNum, vt VarType) NodeId {
    self.Local(lcl)
    return self.add(Node { Op: OpLclVar, Type: vt, Lcl: lcl })
}

func (self *Method) LclFld(lcl LclNum, offs uint32, vt VarType) NodeId {
    self.Local(lcl)
    return self.add(Node { Op: OpLclFld, Type: vt, Lcl: lcl, Offset: offs })
}

func (self *Method) LclAddr(lcl LclNum) NodeId {
    self.Local(lcl)
    return self.add(Node { Op: OpLclAddr, Type: TypByRef, Lcl: lcl })
}

func (self *Method) Indir(vt VarType, addr NodeId) NodeId {
    return self.add(Node { Op: OpIndir, Type: vt, Lcl: NoLcl, Ops: []NodeId { addr } })
}

func (self *Method) Obj(cls ClassHandle, addr NodeId) NodeId {
    return self.add(Node { Op: OpObj, Type: TypStruct, Class: cls, Lcl: NoLcl, Ops: []NodeId { addr } })
}

func (self *Method) Binary(op Op, vt VarType, a NodeId, b NodeId) NodeId {
    switch op {
        case OpAdd, OpSub, OpMul, OpDiv : return self.add(Node { Op: op, Type: vt, Lcl: NoLcl, Ops: []NodeId { a, b } })
        default                         : panic("ir: not a binary operator: " + op.String())
    }
}

func (self *Method) Neg(vt VarType, a NodeId) NodeId {
    return self.add(Node { Op: OpNeg, Type: vt, Lcl: NoLcl, Ops: []NodeId { a } })
}

// Assign creates dst = src. Struct-typed assignments are block copies.
func (self *Method) Assign(dst NodeId, src NodeId) NodeId {
    dn := self.Node(dst)
    return self.add(Node { Op: OpAssign, Type: dn.Type, Class: dn.Class, Lcl: NoLcl, Ops: []NodeId { dst, src } })
}

func (self *Method) Comma(a NodeId, b NodeId) NodeId {
    bn := self.Node(b)
    return self.add(Node { Op: OpComma, Type: bn.Type, Class: bn.Class, Lcl: NoLcl, Ops: []NodeId { a, b } })
}

func (self *Method) Qmark(cond NodeId, a NodeId, b NodeId) NodeId {
    an := self.Node(a)
    cn := self.add(Node { Op: OpColon, Type: an.Type, Class: an.Class, Lcl: NoLcl, Ops: []NodeId { a, b } })
    return self.add(Node { Op: OpQmark, Type: an.Type, Class: an.Class, Lcl: NoLcl, Ops: []NodeId { cond, cn } })
}

func (self *Method) LclHeap(size NodeId) NodeId {
    return self.add(Node { Op: OpLclHeap, Type: TypNint, Lcl: NoLcl, Ops: []NodeId { size } })
}

func (self *Method) ArgPlace(vt VarType, cls ClassHandle) NodeId {
    return self.add(Node { Op: OpArgPlace, Type: vt, Class: cls, Lcl: NoLcl })
}

func (self *Method) FieldList(ops []NodeId, pieces []Piece) NodeId {
    if len(ops) != len(pieces) {
        panic("ir: field list piece count mismatch")
    } else {
        return self.add(Node { Op: OpFieldList, Type: TypStruct, Lcl: NoLcl, Ops: ops, Pieces: pieces })
    }
}

// Call creates a call node, the arguments form the initial early list.
func (self *Method) Call(name string, ret VarType, cls ClassHandle, args ...CallArg) NodeId {
    return self.add(Node {
        Op    : OpCall,
        Type  : ret,
        Class : cls,
        Lcl   : NoLcl,
        Call  : &CallInfo {
            Kind     : CallUser,
            Name     : name,
            Args     : append([]CallArg(nil), args...),
            StubCell : NoNode,
            Cookie   : NoNode,
            Target   : NoNode,
        },
    })
}

// Arg builds a normal argument entry.
func Arg(id NodeId) CallArg {
    return CallArg { Node: id, Kind: ArgNormal }
}

// Args builds normal argument entries.
func Args(ids ...NodeId) []CallArg {
    ret := make([]CallArg, len(ids))
    for i, id := range ids { ret[i] = Arg(id) }
    return ret
}

/** Tree Utilities **/

// Clone duplicates a side-effect free tree made of leaves and arithmetic.
func (self *Method) Clone(id NodeId) NodeId {
    nb := *self.Node(id)

    /* only simple trees may be cloned */
    switch nb.Op {
        case OpConstInt, OpConstDbl, OpLclVar, OpLclFld, OpLclAddr : break
        case OpAdd, OpSub, OpMul, OpNeg, OpIndir                  : break
        default                                                   : panic("ir: cannot clone " + nb.Op.String())
    }

    /* clone all the operands */
    if len(nb.Ops) != 0 {
        ops := make([]NodeId, len(nb.Ops))
        for i, v := range nb.Ops { ops[i] = self.Clone(v) }
        nb.Ops = ops
    }

    /* add to arena */
    return self.add(nb)
}

// Retype changes the type of a node in place.
func (self *Method) Retype(id NodeId, vt VarType) {
    p := self.Node(id)
    p.Type = vt
    p.Class = NoClass
}
