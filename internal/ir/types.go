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

// VarType is the machine-level type of a value.
type VarType uint8

const (
    TypUndef VarType = iota
    TypVoid
    TypBool
    TypByte
    TypUbyte
    TypShort
    TypUshort
    TypInt
    TypUint
    TypLong
    TypUlong
    TypNint
    TypFloat
    TypDouble
    TypRef
    TypByRef
    TypSimd16
    TypSimd32
    TypStruct
)

var _TypeNames = [...]string {
    TypUndef  : "undef",
    TypVoid   : "void",
    TypBool   : "bool",
    TypByte   : "byte",
    TypUbyte  : "ubyte",
    TypShort  : "short",
    TypUshort : "ushort",
    TypInt    : "int",
    TypUint   : "uint",
    TypLong   : "long",
    TypUlong  : "ulong",
    TypNint   : "nint",
    TypFloat  : "float",
    TypDouble : "double",
    TypRef    : "ref",
    TypByRef  : "byref",
    TypSimd16 : "simd16",
    TypSimd32 : "simd32",
    TypStruct : "struct",
}

func (self VarType) String() string {
    if int(self) < len(_TypeNames) {
        return _TypeNames[self]
    } else {
        return fmt.Sprintf("VarType(%d)", self)
    }
}

// Size returns the byte size of the type, pointer-sized types use ptrSize.
// Struct types have no intrinsic size and return 0.
func (self VarType) Size(ptrSize uint32) uint32 {
    switch self {
        case TypBool   : fallthrough
        case TypByte   : fallthrough
        case TypUbyte  : return 1
        case TypShort  : fallthrough
        case TypUshort : return 2
        case TypInt    : fallthrough
        case TypUint   : fallthrough
        case TypFloat  : return 4
        case TypLong   : fallthrough
        case TypUlong  : fallthrough
        case TypDouble : return 8
        case TypNint   : fallthrough
        case TypRef    : fallthrough
        case TypByRef  : return ptrSize
        case TypSimd16 : return 16
        case TypSimd32 : return 32
        default        : return 0
    }
}

func (self VarType) IsFloat() bool {
    return self == TypFloat || self == TypDouble
}

func (self VarType) IsSimd() bool {
    return self == TypSimd16 || self == TypSimd32
}

func (self VarType) IsStruct() bool {
    return self == TypStruct
}

func (self VarType) IsGC() bool {
    return self == TypRef || self == TypByRef
}

// IsLong reports whether the type is a 64-bit integer, which takes two slots on 32-bit targets.
func (self VarType) IsLong() bool {
    return self == TypLong || self == TypUlong
}

func (self VarType) IsIntegral() bool {
    return self >= TypBool && self <= TypNint
}

// IntOfSize returns the integer type of exactly n bytes, or TypUndef. Sizes
// 1 and 2 give the unsigned types, 4 and 8 the signed ones.
func IntOfSize(n uint32) VarType {
    switch n {
        case 1  : return TypUbyte
        case 2  : return TypUshort
        case 4  : return TypInt
        case 8  : return TypLong
        default : return TypUndef
    }
}

// IntAtLeast returns the smallest integer type covering n bytes (n <= 8).
func IntAtLeast(n uint32) VarType {
    switch {
        case n <= 1 : return TypUbyte
        case n <= 2 : return TypUshort
        case n <= 4 : return TypInt
        case n <= 8 : return TypLong
        default     : panic(fmt.Sprintf("ir: no integer type covers %d bytes", n))
    }
}
