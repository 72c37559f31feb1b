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

package layout

import (
    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/utils`
)

// RegClass is the eightbyte classification of the System V AMD64 ABI.
type RegClass uint8

const (
    ClassNone RegClass = iota
    ClassInteger
    ClassSSE
    ClassMemory
)

func (self RegClass) String() string {
    switch self {
        case ClassNone    : return "none"
        case ClassInteger : return "integer"
        case ClassSSE     : return "sse"
        case ClassMemory  : return "memory"
        default           : return "???"
    }
}

// Oracle is the view of the type system the argument engine consumes.
type Oracle interface {
    PointerSize() uint32
    ClassifySize(cls ir.ClassHandle) uint32
    ClassifyEightbytes(cls ir.ClassHandle) []RegClass
    HfaElementType(cls ir.ClassHandle) ir.VarType
    FieldOffsets(cls ir.ClassHandle) []Field
    GCLayout(cls ir.ClassHandle) []bool
    Name(cls ir.ClassHandle) string
}

const (
    _EightByte   = 8
    _MaxRegBytes = 16
    _MaxHfaElems = 4
)

func (self *Registry) flatten(ret []Field, cls ir.ClassHandle, base uint32) []Field {
    for _, f := range self.Lookup(cls).Fields {
        if f.Type != ir.TypStruct {
            f.Offset += base
            ret = append(ret, f)
        } else {
            ret = self.flatten(ret, f.Class, base + f.Offset)
        }
    }
    return ret
}

// FieldOffsets returns every scalar field of the struct, with nested structs
// flattened and offsets relative to the outer struct.
func (self *Registry) FieldOffsets(cls ir.ClassHandle) []Field {
    return self.flatten(nil, cls, 0)
}

// ClassifySize returns the byte size of the struct. A declared size that
// cannot hold the fields is malformed metadata.
func (self *Registry) ClassifySize(cls ir.ClassHandle) uint32 {
    st := self.Lookup(cls)
    ext := uint32(0)

    /* opaque structs only have a declared size */
    if st.Opaque {
        return st.Size
    }

    /* find the extent of all the fields */
    for _, f := range self.FieldOffsets(cls) {
        if end := f.Offset + f.Type.Size(self.ptrSize); end > ext {
            ext = end
        }
    }

    /* the two must agree */
    if st.Size < ext {
        panic(utils.EBadIL("size of %s disagrees with its fields: declared %d, fields need %d", st.Name, st.Size, ext))
    } else {
        return st.Size
    }
}

// ClassifyEightbytes classifies each 8-byte chunk of the struct. Structs larger
// than 16 bytes, and structs with misaligned fields, are entirely MEMORY.
func (self *Registry) ClassifyEightbytes(cls ir.ClassHandle) []RegClass {
    size := self.ClassifySize(cls)
    nbs := (size + _EightByte - 1) / _EightByte
    ret := make([]RegClass, nbs)

    /* large structs are passed in memory, small blobs as integers */
    if size > _MaxRegBytes {
        return fill(ret, ClassMemory)
    } else if self.Lookup(cls).Opaque {
        return fill(ret, ClassInteger)
    }

    /* merge the class of every field into the chunks it covers */
    for _, f := range self.FieldOffsets(cls) {
        n := f.Type.Size(self.ptrSize)
        c := ClassInteger

        /* misaligned fields force the whole struct into memory */
        if n <= _EightByte && f.Offset % n != 0 {
            return fill(ret, ClassMemory)
        }

        /* floating point and vector fields are SSE class */
        if f.Type.IsFloat() || f.Type.IsSimd() {
            c = ClassSSE
        }

        /* integer wins over SSE */
        for i := f.Offset / _EightByte; i <= (f.Offset + n - 1) / _EightByte && i < nbs; i++ {
            if ret[i] != ClassInteger {
                ret[i] = c
            }
        }
    }

    /* chunks made only of padding travel as integers */
    for i, v := range ret {
        if v == ClassNone {
            ret[i] = ClassInteger
        }
    }
    return ret
}

func fill(ret []RegClass, c RegClass) []RegClass {
    for i := range ret { ret[i] = c }
    return ret
}

// HfaElementType returns the element type if the struct is a homogeneous
// floating-point aggregate of up to four elements, or TypUndef.
func (self *Registry) HfaElementType(cls ir.ClassHandle) ir.VarType {
    st := self.Lookup(cls)
    fs := self.FieldOffsets(cls)

    /* must have 1 to 4 elements */
    if st.Opaque || len(fs) == 0 || len(fs) > _MaxHfaElems {
        return ir.TypUndef
    }

    /* all elements must be the same floating point type */
    et := fs[0].Type
    for _, f := range fs {
        if f.Type != et || !et.IsFloat() {
            return ir.TypUndef
        }
    }

    /* and densely packed */
    for i, f := range fs {
        if f.Offset != uint32(i) * et.Size(self.ptrSize) {
            return ir.TypUndef
        }
    }

    /* no trailing padding either */
    if self.ClassifySize(cls) != uint32(len(fs)) * et.Size(self.ptrSize) {
        return ir.TypUndef
    } else {
        return et
    }
}

// GCLayout marks each pointer-sized slot of the struct holding a managed reference.
func (self *Registry) GCLayout(cls ir.ClassHandle) []bool {
    size := self.ClassifySize(cls)
    ret := make([]bool, (size + self.ptrSize - 1) / self.ptrSize)

    /* mark every aligned reference */
    for _, f := range self.FieldOffsets(cls) {
        if f.Type.IsGC() && f.Offset % self.ptrSize == 0 {
            ret[f.Offset / self.ptrSize] = true
        }
    }
    return ret
}
