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

// NodeId addresses a node in the arena of a Method. Ids are stable for the
// lifetime of the method, rewriting a tree produces new ids instead of
// patching parent pointers.
type NodeId int32

// LclNum addresses a local variable of a Method.
type LclNum int32

// ClassHandle identifies a struct type in the layout oracle.
type ClassHandle int32

const (
    NoNode  NodeId      = -1
    NoLcl   LclNum      = -1
    NoClass ClassHandle = 0
)

type Op uint8

const (
    OpNop Op = iota
    OpConstInt
    OpConstDbl
    OpLclVar
    OpLclFld
    OpLclAddr
    OpIndir
    OpObj
    OpAdd
    OpSub
    OpMul
    OpDiv
    OpNeg
    OpAssign
    OpComma
    OpQmark
    OpColon
    OpCall
    OpLclHeap
    OpArgPlace
    OpFieldList
)

var _OpNames = [...]string {
    OpNop       : "nop",
    OpConstInt  : "const.int",
    OpConstDbl  : "const.dbl",
    OpLclVar    : "lcl",
    OpLclFld    : "lcl.fld",
    OpLclAddr   : "lcl.addr",
    OpIndir     : "ind",
    OpObj       : "obj",
    OpAdd       : "add",
    OpSub       : "sub",
    OpMul       : "mul",
    OpDiv       : "div",
    OpNeg       : "neg",
    OpAssign    : "asg",
    OpComma     : "comma",
    OpQmark     : "qmark",
    OpColon     : "colon",
    OpCall      : "call",
    OpLclHeap   : "lclheap",
    OpArgPlace  : "argplace",
    OpFieldList : "fieldlist",
}

func (self Op) String() string {
    if int(self) < len(_OpNames) {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("Op(%d)", self)
    }
}

// IsLeaf reports whether the operator never has operands.
func (self Op) IsLeaf() bool {
    switch self {
        case OpNop, OpConstInt, OpConstDbl, OpLclVar, OpLclFld, OpLclAddr, OpArgPlace : return true
        default                                                                      : return false
    }
}

type NodeFlags uint16

const (
    // NfNonFaulting marks an indirection proven not to fault.
    NfNonFaulting NodeFlags = 1 << iota

    // NfVolatile marks a memory access that must not be reordered.
    NfVolatile

    // NfCopyBlock marks an assignment produced as a struct argument copy.
    NfCopyBlock
)

// Piece describes one element of a field list.
type Piece struct {
    Offset uint32
    Type   VarType
}

type Node struct {
    Op     Op
    Type   VarType
    Class  ClassHandle
    Flags  NodeFlags
    Lcl    LclNum
    Offset uint32
    Ival   int64
    Dval   float64
    Ops    []NodeId
    Pieces []Piece
    Call   *CallInfo
}

// ArgKind tags an argument by the role it plays in the call.
type ArgKind uint8

const (
    ArgNormal ArgKind = iota
    ArgThis
    ArgRetBuffer
    ArgGenericContext
    ArgVirtualStubCell
    ArgPInvokeCookie
    ArgPInvokeTarget
    ArgPInvokeFrame
)

var _ArgKindNames = [...]string {
    ArgNormal          : "normal",
    ArgThis            : "this",
    ArgRetBuffer       : "retbuf",
    ArgGenericContext  : "genctx",
    ArgVirtualStubCell : "stubcell",
    ArgPInvokeCookie   : "cookie",
    ArgPInvokeTarget   : "target",
    ArgPInvokeFrame    : "frame",
}

func (self ArgKind) String() string {
    if int(self) < len(_ArgKindNames) {
        return _ArgKindNames[self]
    } else {
        return fmt.Sprintf("ArgKind(%d)", self)
    }
}

type CallKind uint8

const (
    CallUser CallKind = iota
    CallHelper
    CallIndirect
)

type CallFlags uint16

const (
    CallVirtualStub CallFlags = 1 << iota
    CallUnmanaged
    CallVarargs
    CallTailPrefixed
    CallImplicitTail
    CallNonStandardSpliced
)

// CallArg is one entry of the early argument list.
type CallArg struct {
    Node NodeId
    Kind ArgKind
}

type CallInfo struct {
    Kind     CallKind
    Name     string
    Flags    CallFlags
    Args     []CallArg
    Late     []NodeId
    StubCell NodeId
    Cookie   NodeId
    Target   NodeId
}

func (self *CallInfo) Has(f CallFlags) bool {
    return self.Flags & f != 0
}

// IsTailCall reports whether the call may end up as a tail call.
func (self *CallInfo) IsTailCall() bool {
    return self.Flags & (CallTailPrefixed | CallImplicitTail) != 0
}

// Early returns the early argument list as plain node ids.
func (self *CallInfo) Early() []NodeId {
    ret := make([]NodeId, len(self.Args))
    for i, v := range self.Args { ret[i] = v.Node }
    return ret
}
