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
    `fmt`

    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/utils`
)

type Field struct {
    Name   string
    Type   ir.VarType
    Class  ir.ClassHandle
    Offset uint32
}

// F declares a scalar field, the offset is computed by Define.
func F(name string, vt ir.VarType) Field {
    return Field { Name: name, Type: vt }
}

// S declares an embedded struct field.
func S(name string, cls ir.ClassHandle) Field {
    return Field { Name: name, Type: ir.TypStruct, Class: cls }
}

// At declares a field at an explicit offset, for DefineExplicit.
func At(offs uint32, name string, vt ir.VarType) Field {
    return Field { Name: name, Type: vt, Offset: offs }
}

type Struct struct {
    Name     string
    Size     uint32
    Align    uint32
    Fields   []Field
    Opaque   bool
}

func (self *Struct) String() string {
    return fmt.Sprintf("%s{size=%d,align=%d,fields=%d}", self.Name, self.Size, self.Align, len(self.Fields))
}

// Registry is the type system of a compilation unit. Class handle 0 is reserved.
type Registry struct {
    ptrSize   uint32
    longAlign uint32
    types     []*Struct
}

func NewRegistry(ptrSize uint32) *Registry {
    switch ptrSize {
        case 4, 8 : return &Registry { ptrSize: ptrSize, longAlign: ptrSize, types: []*Struct { nil } }
        default   : panic(fmt.Sprintf("layout: invalid pointer size: %d", ptrSize))
    }
}

func (self *Registry) PointerSize() uint32 {
    return self.ptrSize
}

// SetLongAlign changes the alignment of 8-byte scalars, ARM aligns them to 8
// even though pointers are 4 bytes.
func (self *Registry) SetLongAlign(a uint32) *Registry {
    self.longAlign = a
    return self
}

func (self *Registry) add(st *Struct) ir.ClassHandle {
    self.types = append(self.types, st)
    return ir.ClassHandle(len(self.types) - 1)
}

func (self *Registry) sizeAlignOf(f Field) (uint32, uint32) {
    if f.Type != ir.TypStruct {
        n := f.Type.Size(self.ptrSize)
        if n == 0 {
            panic(utils.EBadIL("field %s has no size", f.Name))
        }
        if n > 16 {
            return n, 16
        }
        if n > self.ptrSize && !f.Type.IsSimd() {
            return n, self.longAlign
        }
        return n, n
    }
    st := self.Lookup(f.Class)
    return st.Size, st.Align
}

// Define creates a struct with sequential layout and natural alignment.
func (self *Registry) Define(name string, fields ...Field) ir.ClassHandle {
    var offs uint32
    var align uint32 = 1

    /* lay out every field */
    ret := make([]Field, len(fields))
    for i, f := range fields {
        n, a := self.sizeAlignOf(f)
        f.Offset = utils.AlignUp(offs, a)
        offs = f.Offset + n
        ret[i] = f
        if a > align { align = a }
    }

    /* round the size to the alignment */
    return self.add(&Struct {
        Name   : name,
        Size   : utils.AlignUp(offs, align),
        Align  : align,
        Fields : ret,
    })
}

// DefineExplicit creates a struct with the declared size and field offsets.
// The declaration is not validated until the struct is classified.
func (self *Registry) DefineExplicit(name string, size uint32, fields ...Field) ir.ClassHandle {
    var align uint32 = 1
    for _, f := range fields {
        if _, a := self.sizeAlignOf(f); a > align { align = a }
    }
    return self.add(&Struct {
        Name   : name,
        Size   : size,
        Align  : align,
        Fields : append([]Field(nil), fields...),
    })
}

// DefineOpaque creates a struct whose fields are unknown, like a blob of bytes.
func (self *Registry) DefineOpaque(name string, size uint32, align uint32) ir.ClassHandle {
    return self.add(&Struct {
        Name   : name,
        Size   : size,
        Align  : align,
        Opaque : true,
    })
}

// Lookup resolves a class handle, an unknown handle is malformed input.
func (self *Registry) Lookup(cls ir.ClassHandle) *Struct {
    if cls <= ir.NoClass || int(cls) >= len(self.types) {
        panic(utils.EBadIL("unresolved class handle %d", cls))
    } else {
        return self.types[cls]
    }
}

func (self *Registry) Name(cls ir.ClassHandle) string {
    return self.Lookup(cls).Name
}
