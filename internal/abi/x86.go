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
    `golang.org/x/arch/x86/x86asm`

    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/utils`
)

const (
    _X86_NI = 2
)

var x86IntRegs = [_X86_NI]x86asm.Reg {
    x86asm.ECX,
    x86asm.EDX,
}

// X86 is the managed 32-bit x86 convention: two integer registers, everything
// else is pushed on the stack.
type X86 struct{}

func init() {
    register("x86", func(bool) Convention { return new(X86) })
}

func (self *X86) Name() string        { return "x86" }
func (self *X86) PointerSize() uint32 { return 4 }
func (self *X86) Traits() Traits      { return Traits{} }

func (self *X86) NumRegs(file RegFile) uint32 {
    if file == FileInt {
        return _X86_NI
    } else {
        return 0
    }
}

func (self *X86) Reg(file RegFile, unit uint32, _ ir.VarType) Register {
    if file != FileInt || unit >= _X86_NI {
        panic(utils.EABI(self.Name(), "no %s register #%d", file, unit))
    } else {
        return Register { file, unit, 1, x86IntRegs[unit].String() }
    }
}

func (self *X86) ClassifyScalar(vt ir.VarType, _ bool) ScalarPassing {
    switch {
        case vt.IsLong()                  : return ScalarPassing { File: FileNone, NumSlots: 2, Align: 1 }
        case vt == ir.TypDouble           : return ScalarPassing { File: FileNone, NumSlots: 2, Align: 1 }
        case vt == ir.TypFloat            : return ScalarPassing { File: FileNone, NumSlots: 1, Align: 1 }
        case vt.IsSimd()                  : return ScalarPassing { File: FileNone, NumSlots: vt.Size(4) / 4, Align: 1 }
        case vt.IsIntegral() || vt.IsGC() : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        default                           : panic(utils.EABI(self.Name(), "cannot pass a value of type %s", vt))
    }
}

func (self *X86) ClassifyStruct(o layout.Oracle, cls ir.ClassHandle, _ bool) StructPassing {
    size := o.ClassifySize(cls)
    ret := StructPassing { Size: size, NumSlots: slotsOf(size, 4), Align: 1 }

    /* structs are never enregistered, small ones are pushed as integers */
    switch size {
        case 1, 2, 4 : ret.Kind, ret.Prim, ret.File = PassPrimitive, primitiveOf(o, cls, size), FileNone
        default      : ret.Kind = PassOnStack
    }
    return ret
}

func (self *X86) NonStandard(kind ir.ArgKind) (Pinning, Register) {
    switch kind {
        case ir.ArgVirtualStubCell : return PinRegister, Register { FileInt, 0, 0, x86asm.EAX.String() }
        case ir.ArgPInvokeTarget   : return PinRegister, Register { FileInt, 0, 0, x86asm.EAX.String() }
        case ir.ArgPInvokeFrame    : return PinRegister, Register { FileInt, 0, 0, x86asm.EDI.String() }
        case ir.ArgPInvokeCookie   : return PinStack, Register{}
        case ir.ArgGenericContext  : return PinStack, Register{}
        default                    : return PinNone, Register{}
    }
}
