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
    `golang.org/x/arch/arm64/arm64asm`

    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/utils`
)

const (
    _ARM64_NI     = 8
    _ARM64_NF     = 8
    _ARM64_MaxReg = 16
)

// ARM64 is AAPCS64. The hidden return buffer lives in X8 instead of taking
// the first argument register.
type ARM64 struct{}

func init() {
    register("arm64", func(bool) Convention { return new(ARM64) })
}

func (self *ARM64) Name() string        { return "arm64" }
func (self *ARM64) PointerSize() uint32 { return 8 }

func (self *ARM64) Traits() Traits {
    return Traits {
        FixedOutArgs : true,
        BurnOnStack  : true,
    }
}

func (self *ARM64) NumRegs(file RegFile) uint32 {
    switch file {
        case FileInt   : return _ARM64_NI
        case FileFloat : return _ARM64_NF
        default        : return 0
    }
}

func (self *ARM64) Reg(file RegFile, unit uint32, _ ir.VarType) Register {
    switch {
        case file == FileInt   && unit < _ARM64_NI : return Register { file, unit, 1, (arm64asm.X0 + arm64asm.Reg(unit)).String() }
        case file == FileFloat && unit < _ARM64_NF : return Register { file, unit, 1, (arm64asm.V0 + arm64asm.Reg(unit)).String() }
        default                                    : panic(utils.EABI(self.Name(), "no %s register #%d", file, unit))
    }
}

func (self *ARM64) ClassifyScalar(vt ir.VarType, _ bool) ScalarPassing {
    switch {
        case vt.IsFloat()                 : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 1, Align: 1 }
        case vt == ir.TypSimd16           : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 2, Align: 2 }
        case vt == ir.TypSimd32           : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1, ByRef: true }
        case vt.IsIntegral() || vt.IsGC() : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        default                           : panic(utils.EABI(self.Name(), "cannot pass a value of type %s", vt))
    }
}

func (self *ARM64) ClassifyStruct(o layout.Oracle, cls ir.ClassHandle, _ bool) StructPassing {
    size := o.ClassifySize(cls)
    ret := StructPassing { Size: size, NumSlots: slotsOf(size, 8), Align: 1 }

    /* homogeneous float aggregates take one V register per element */
    if et := o.HfaElementType(cls); et != ir.TypUndef {
        ret.HfaType = et
        ret.HfaCount = size / et.Size(8)
        if ret.HfaCount == 1 {
            ret.Kind, ret.Prim, ret.File = PassPrimitive, et, FileFloat
        } else {
            ret.Kind, ret.Pieces = PassMultiReg, hfaPieces(et, ret.HfaCount, 1)
        }
        return ret
    }

    /* everything else is sized */
    switch {
        case size == 0: {
            ret.Kind = PassOnStack
        }
        case size > _ARM64_MaxReg: {
            ret.Kind = PassByReference
        }
        case size <= 8 && isPow2(size): {
            ret.Kind, ret.Prim, ret.File = PassPrimitive, primitiveOf(o, cls, size), FileInt
        }
        default: {
            ret.Kind, ret.Pieces = PassMultiReg, intPieces(o, cls, size, 8)
        }
    }
    return ret
}

func (self *ARM64) NonStandard(kind ir.ArgKind) (Pinning, Register) {
    switch kind {
        case ir.ArgRetBuffer       : return PinRegister, Register { FileInt, 0, 0, arm64asm.X8.String() }
        case ir.ArgVirtualStubCell : return PinRegister, Register { FileInt, 0, 0, arm64asm.X11.String() }
        case ir.ArgPInvokeCookie   : return PinRegister, Register { FileInt, 0, 0, arm64asm.X15.String() }
        case ir.ArgPInvokeTarget   : return PinRegister, Register { FileInt, 0, 0, arm64asm.X14.String() }
        default                    : return PinNone, Register{}
    }
}
