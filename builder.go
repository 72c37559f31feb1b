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

package argmorph

import (
	"github.com/cloudwego/argmorph/internal/abi"
	"github.com/cloudwego/argmorph/internal/ir"
	"github.com/cloudwego/argmorph/internal/layout"
	"github.com/cloudwego/argmorph/internal/morph"
)

type (
	Method      = ir.Method
	Node        = ir.Node
	NodeId      = ir.NodeId
	Local       = ir.Local
	LclNum      = ir.LclNum
	ClassHandle = ir.ClassHandle
	VarType     = ir.VarType
	Op          = ir.Op
	NodeFlags   = ir.NodeFlags
	Piece       = ir.Piece
	CallArg     = ir.CallArg
	CallInfo    = ir.CallInfo
	CallKind    = ir.CallKind
	CallFlags   = ir.CallFlags
	ArgKind     = ir.ArgKind
)

type (
	Oracle   = layout.Oracle
	Registry = layout.Registry
	Field    = layout.Field
)

type (
	ArgTable      = morph.ArgTable
	ArgDescriptor = morph.ArgDescriptor
	Register      = abi.Register
	PassingKind   = abi.StructKind
)

const (
	NoNode  = ir.NoNode
	NoLcl   = ir.NoLcl
	NoClass = ir.NoClass
)

const (
	TypUndef  = ir.TypUndef
	TypVoid   = ir.TypVoid
	TypBool   = ir.TypBool
	TypByte   = ir.TypByte
	TypUbyte  = ir.TypUbyte
	TypShort  = ir.TypShort
	TypUshort = ir.TypUshort
	TypInt    = ir.TypInt
	TypUint   = ir.TypUint
	TypLong   = ir.TypLong
	TypUlong  = ir.TypUlong
	TypNint   = ir.TypNint
	TypFloat  = ir.TypFloat
	TypDouble = ir.TypDouble
	TypRef    = ir.TypRef
	TypByRef  = ir.TypByRef
	TypSimd16 = ir.TypSimd16
	TypSimd32 = ir.TypSimd32
	TypStruct = ir.TypStruct
)

const (
	OpAdd = ir.OpAdd
	OpSub = ir.OpSub
	OpMul = ir.OpMul
	OpDiv = ir.OpDiv
)

const (
	NfNonFaulting = ir.NfNonFaulting
	NfVolatile    = ir.NfVolatile
)

const (
	CallUser     = ir.CallUser
	CallHelper   = ir.CallHelper
	CallIndirect = ir.CallIndirect
)

const (
	CallVirtualStub  = ir.CallVirtualStub
	CallUnmanaged    = ir.CallUnmanaged
	CallVarargs      = ir.CallVarargs
	CallTailPrefixed = ir.CallTailPrefixed
	CallImplicitTail = ir.CallImplicitTail
)

const (
	ArgNormal          = ir.ArgNormal
	ArgThis            = ir.ArgThis
	ArgRetBuffer       = ir.ArgRetBuffer
	ArgGenericContext  = ir.ArgGenericContext
	ArgVirtualStubCell = ir.ArgVirtualStubCell
	ArgPInvokeCookie   = ir.ArgPInvokeCookie
	ArgPInvokeTarget   = ir.ArgPInvokeTarget
	ArgPInvokeFrame    = ir.ArgPInvokeFrame
)

const (
	PassPrimitive   = abi.PassPrimitive
	PassMultiReg    = abi.PassMultiReg
	PassByReference = abi.PassByReference
	PassOnStack     = abi.PassOnStack
)

// NewMethod creates an empty method to build expressions into.
func NewMethod(name string) *Method {
	return ir.NewMethod(name)
}

// NewRegistry creates a type registry for the given pointer size.
func NewRegistry(ptrSize uint32) *Registry {
	return layout.NewRegistry(ptrSize)
}

// Arg builds a normal argument entry.
func Arg(id NodeId) CallArg {
	return ir.Arg(id)
}

// Args builds normal argument entries.
func Args(ids ...NodeId) []CallArg {
	return ir.Args(ids...)
}

// KindArg builds an argument entry playing a special role in the call.
func KindArg(id NodeId, kind ArgKind) CallArg {
	return CallArg{Node: id, Kind: kind}
}

// F declares a scalar struct field, the offset is computed by Define.
func F(name string, vt VarType) Field {
	return layout.F(name, vt)
}

// S declares an embedded struct field.
func S(name string, cls ClassHandle) Field {
	return layout.S(name, cls)
}

// At declares a field at an explicit offset, for DefineExplicit.
func At(offs uint32, name string, vt VarType) Field {
	return layout.At(offs, name, vt)
}
