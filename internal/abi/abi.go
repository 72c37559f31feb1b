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

package abi

import (
    `fmt`
    `sort`
    `strings`

    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
)

// RegFile is the register class an argument register is allocated from.
type RegFile uint8

const (
    FileNone RegFile = iota
    FileInt
    FileFloat
)

func (self RegFile) String() string {
    switch self {
        case FileNone  : return "stack"
        case FileInt   : return "int"
        case FileFloat : return "float"
        default        : return "???"
    }
}

// Register is an argument register. Num and Span are in allocation units of
// the register file, so overlapping registers (ARM D and S) can be detected.
type Register struct {
    File RegFile
    Num  uint32
    Span uint32
    Name string
}

func (self Register) String() string {
    return "%" + self.Name
}

// Overlaps reports whether the two registers share any allocation unit.
func (self Register) Overlaps(other Register) bool {
    return self.File == other.File && self.Num < other.Num + other.Span && other.Num < self.Num + self.Span
}

type Traits struct {
    SharedPositions bool   // integer and float registers are assigned by argument position
    InitialSlot     uint32 // first usable outgoing stack slot
    FixedOutArgs    bool   // outgoing arguments are stored into a preallocated area
    BackFill        bool   // skipped single float slots are reused by later arguments
    CanSplit        bool   // a struct may be split between registers and the stack
    BurnOnStack     bool   // a class that overflows to the stack closes its remaining registers
    AlignPairs      bool   // 8-byte aligned values start at even register and stack positions
}

// ScalarPassing describes how a primitive value travels.
type ScalarPassing struct {
    File     RegFile
    NumRegs  uint32
    NumSlots uint32
    Align    uint32
    ByRef    bool
}

type StructKind uint8

const (
    PassPrimitive StructKind = iota
    PassMultiReg
    PassByReference
    PassOnStack
)

func (self StructKind) String() string {
    switch self {
        case PassPrimitive   : return "primitive"
        case PassMultiReg    : return "multireg"
        case PassByReference : return "byref"
        case PassOnStack     : return "stack"
        default              : return "???"
    }
}

// Piece is one register-sized part of a struct passed by value.
type Piece struct {
    Offset uint32
    Type   ir.VarType
    File   RegFile
    Units  uint32
}

func (self Piece) String() string {
    return fmt.Sprintf("%d:%s/%s", self.Offset, self.Type, self.File)
}

// StructPassing is the ABI decision for a struct type, before registers are assigned.
type StructPassing struct {
    Kind       StructKind
    Size       uint32
    Prim       ir.VarType
    File       RegFile
    Pieces     []Piece
    HfaType    ir.VarType
    HfaCount   uint32
    Eightbytes []layout.RegClass
    NumSlots   uint32
    Align      uint32
}

// IntUnits returns the number of integer register units the pieces need.
func (self *StructPassing) IntUnits() uint32 {
    return self.units(FileInt)
}

// FloatUnits returns the number of float register units the pieces need.
func (self *StructPassing) FloatUnits() uint32 {
    return self.units(FileFloat)
}

func (self *StructPassing) units(f RegFile) uint32 {
    var ret uint32
    for _, p := range self.Pieces {
        if p.File == f {
            ret += p.Units
        }
    }
    return ret
}

// Pinning tells how a non-standard argument is placed.
type Pinning uint8

const (
    PinNone Pinning = iota
    PinRegister
    PinStack
)

// Convention is one target calling convention.
type Convention interface {
    Name() string
    PointerSize() uint32
    Traits() Traits
    NumRegs(file RegFile) uint32
    Reg(file RegFile, unit uint32, vt ir.VarType) Register
    ClassifyScalar(vt ir.VarType, varargs bool) ScalarPassing
    ClassifyStruct(o layout.Oracle, cls ir.ClassHandle, varargs bool) StructPassing
    NonStandard(kind ir.ArgKind) (Pinning, Register)
}

var conventions = map[string]func(avx bool) Convention {}

func register(name string, fn func(avx bool) Convention) {
    if _, ok := conventions[name]; ok {
        panic("abi: duplicated convention: " + name)
    } else {
        conventions[name] = fn
    }
}

// ByName creates the named convention. AVX only affects targets with 256-bit vectors.
func ByName(name string, avx bool) (Convention, error) {
    if fn, ok := conventions[name]; !ok {
        return nil, fmt.Errorf("abi: unknown target %q, available targets: %s", name, strings.Join(Names(), ", "))
    } else {
        return fn(avx), nil
    }
}

// Names lists all the known conventions.
func Names() []string {
    ret := make([]string, 0, len(conventions))
    for k := range conventions { ret = append(ret, k) }
    sort.Strings(ret)
    return ret
}

func slotsOf(size uint32, slot uint32) uint32 {
    if size == 0 {
        return 1
    } else {
        return (size + slot - 1) / slot
    }
}

func isPow2(n uint32) bool {
    return n != 0 && n & (n - 1) == 0
}

// intPieces splits the first n bytes of a struct into integer pieces of the
// given width. Slots holding references keep their reference type.
func intPieces(o layout.Oracle, cls ir.ClassHandle, size uint32, width uint32) []Piece {
    gc := o.GCLayout(cls)
    ps := o.PointerSize()
    ret := make([]Piece, 0, slotsOf(size, width))

    /* one piece per width bytes */
    for offs := uint32(0); offs < size; offs += width {
        vt := ir.IntAtLeast(min32(width, size - offs))
        if width == ps && offs % ps == 0 && gc[offs / ps] {
            vt = ir.TypRef
        }
        ret = append(ret, Piece { Offset: offs, Type: vt, File: FileInt, Units: 1 })
    }
    return ret
}

// hfaPieces creates one float piece per element of a homogeneous aggregate.
func hfaPieces(et ir.VarType, count uint32, units uint32) []Piece {
    ret := make([]Piece, count)
    for i := range ret {
        ret[i] = Piece { Offset: uint32(i) * et.Size(0), Type: et, File: FileFloat, Units: units }
    }
    return ret
}

// primitiveOf returns the integer type used to pass a struct of the given
// size in one register, honoring a single reference slot.
func primitiveOf(o layout.Oracle, cls ir.ClassHandle, size uint32) ir.VarType {
    if size == o.PointerSize() && o.GCLayout(cls)[0] {
        return ir.TypRef
    } else {
        return ir.IntOfSize(size)
    }
}

func min32(a uint32, b uint32) uint32 {
    if a < b {
        return a
    } else {
        return b
    }
}
