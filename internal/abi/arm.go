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

/** AAPCS with VFP registers
 *
 *  Core registers R0 to R3, single precision slots S0 to S15 (D0 to D7 for
 *  doubles). 8-byte aligned values start at even registers and even stack
 *  slots, a single float may back-fill a hole left by an aligned double, and
 *  a struct may be split between the core registers and the stack as long as
 *  nothing has been placed on the stack yet.
 */

package abi

import (
    `fmt`

    `golang.org/x/arch/arm/armasm`

    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/utils`
)

const (
    _ARM_NI = 4
    _ARM_NF = 16
)

type ARM struct{}

func init() {
    register("arm", func(bool) Convention { return new(ARM) })
}

func (self *ARM) Name() string        { return "arm" }
func (self *ARM) PointerSize() uint32 { return 4 }

func (self *ARM) Traits() Traits {
    return Traits {
        FixedOutArgs : true,
        BackFill     : true,
        CanSplit     : true,
        BurnOnStack  : true,
        AlignPairs   : true,
    }
}

func (self *ARM) NumRegs(file RegFile) uint32 {
    switch file {
        case FileInt   : return _ARM_NI
        case FileFloat : return _ARM_NF
        default        : return 0
    }
}

func (self *ARM) Reg(file RegFile, unit uint32, vt ir.VarType) Register {
    switch {
        case file == FileInt && unit < _ARM_NI: {
            return Register { file, unit, 1, (armasm.R0 + armasm.Reg(unit)).String() }
        }
        case file == FileFloat && vt == ir.TypSimd16 && unit % 4 == 0 && unit < _ARM_NF: {
            return Register { file, unit, 4, fmt.Sprintf("Q%d", unit / 4) }
        }
        case file == FileFloat && vt == ir.TypDouble && unit % 2 == 0 && unit < _ARM_NF: {
            return Register { file, unit, 2, (armasm.D0 + armasm.Reg(unit / 2)).String() }
        }
        case file == FileFloat && unit < _ARM_NF: {
            return Register { file, unit, 1, (armasm.S0 + armasm.Reg(unit)).String() }
        }
        default: {
            panic(utils.EABI(self.Name(), "no %s register #%d for %s", file, unit, vt))
        }
    }
}

func (self *ARM) ClassifyScalar(vt ir.VarType, varargs bool) ScalarPassing {
    switch {
        case vt == ir.TypDouble && varargs : return ScalarPassing { File: FileInt, NumRegs: 2, NumSlots: 2, Align: 2 }
        case vt == ir.TypFloat && varargs  : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        case vt == ir.TypDouble            : return ScalarPassing { File: FileFloat, NumRegs: 2, NumSlots: 2, Align: 2 }
        case vt == ir.TypFloat             : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 1, Align: 1 }
        case vt == ir.TypSimd16            : return ScalarPassing { File: FileFloat, NumRegs: 4, NumSlots: 4, Align: 4 }
        case vt == ir.TypSimd32            : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1, ByRef: true }
        case vt.IsLong()                   : return ScalarPassing { File: FileInt, NumRegs: 2, NumSlots: 2, Align: 2 }
        case vt.IsIntegral() || vt.IsGC()  : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        default                            : panic(utils.EABI(self.Name(), "cannot pass a value of type %s", vt))
    }
}

func (self *ARM) ClassifyStruct(o layout.Oracle, cls ir.ClassHandle, varargs bool) StructPassing {
    size := o.ClassifySize(cls)
    ret := StructPassing { Size: size, NumSlots: slotsOf(size, 4), Align: 1 }

    /* empty structs still take a stack slot */
    if size == 0 {
        ret.Kind = PassOnStack
        return ret
    }

    /* 8-byte aligned structs start at even positions */
    for _, f := range o.FieldOffsets(cls) {
        if f.Type.Size(4) == 8 {
            ret.Align = 2
        }
    }

    /* homogeneous float aggregates use the VFP registers, except for varargs */
    if et := o.HfaElementType(cls); et != ir.TypUndef && !varargs {
        ret.HfaType = et
        ret.HfaCount = size / et.Size(4)
        if ret.HfaCount == 1 {
            ret.Kind, ret.Prim, ret.File = PassPrimitive, et, FileFloat
        } else {
            ret.Kind, ret.Pieces = PassMultiReg, hfaPieces(et, ret.HfaCount, et.Size(4) / 4)
        }
        return ret
    }

    /* small structs are a single core register, the rest are core register pieces */
    if size <= 4 && isPow2(size) {
        ret.Kind, ret.Prim, ret.File = PassPrimitive, primitiveOf(o, cls, size), FileInt
    } else {
        ret.Kind, ret.Pieces = PassMultiReg, intPieces(o, cls, size, 4)
    }
    return ret
}

func (self *ARM) NonStandard(kind ir.ArgKind) (Pinning, Register) {
    switch kind {
        case ir.ArgVirtualStubCell : return PinRegister, Register { FileInt, 0, 0, armasm.R4.String() }
        case ir.ArgPInvokeCookie   : return PinRegister, Register { FileInt, 0, 0, armasm.R4.String() }
        case ir.ArgPInvokeTarget   : return PinRegister, Register { FileInt, 0, 0, armasm.R12.String() }
        default                    : return PinNone, Register{}
    }
}
