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

/** Windows x64 calling convention
 *
 *  The first four arguments take RCX, RDX, R8 and R9 or XMM0 to XMM3 by
 *  position, the caller always reserves the 32-byte home area. Structs of
 *  size 1, 2, 4 or 8 are passed as integers, all others by reference.
 */

package abi

import (
    `github.com/chenzhuoyu/iasm/x86_64`
    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/utils`
)

const (
    _Win_NR   = 4
    _Win_Home = 4
)

var winIntRegs = [_Win_NR]x86_64.Register64 {
    x86_64.RCX,
    x86_64.RDX,
    x86_64.R8,
    x86_64.R9,
}

type WinAMD64 struct{}

func init() {
    register("win-amd64", func(bool) Convention { return new(WinAMD64) })
}

func (self *WinAMD64) Name() string        { return "win-amd64" }
func (self *WinAMD64) PointerSize() uint32 { return 8 }

func (self *WinAMD64) Traits() Traits {
    return Traits {
        SharedPositions : true,
        InitialSlot     : _Win_Home,
        FixedOutArgs    : true,
    }
}

func (self *WinAMD64) NumRegs(file RegFile) uint32 {
    if file == FileNone {
        return 0
    } else {
        return _Win_NR
    }
}

func (self *WinAMD64) Reg(file RegFile, unit uint32, _ ir.VarType) Register {
    switch {
        case file == FileInt   && unit < _Win_NR : return Register { file, unit, 1, winIntRegs[unit].String() }
        case file == FileFloat && unit < _Win_NR : return Register { file, unit, 1, (x86_64.XMM0 + x86_64.XMMRegister(unit)).String() }
        default                                  : panic(utils.EABI(self.Name(), "no %s register #%d", file, unit))
    }
}

func (self *WinAMD64) ClassifyScalar(vt ir.VarType, varargs bool) ScalarPassing {
    switch {
        case vt.IsSimd()                  : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1, ByRef: true }
        case vt.IsFloat() && varargs      : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        case vt.IsFloat()                 : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 1, Align: 1 }
        case vt.IsIntegral() || vt.IsGC() : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        default                           : panic(utils.EABI(self.Name(), "cannot pass a value of type %s", vt))
    }
}

func (self *WinAMD64) ClassifyStruct(o layout.Oracle, cls ir.ClassHandle, _ bool) StructPassing {
    size := o.ClassifySize(cls)
    ret := StructPassing { Size: size, NumSlots: 1, Align: 1 }

    /* natural sized structs travel as integers */
    switch size {
        case 0          : ret.Kind = PassOnStack
        case 1, 2, 4, 8 : ret.Kind, ret.Prim, ret.File = PassPrimitive, primitiveOf(o, cls, size), FileInt
        default         : ret.Kind = PassByReference
    }
    return ret
}

func (self *WinAMD64) NonStandard(kind ir.ArgKind) (Pinning, Register) {
    switch kind {
        case ir.ArgVirtualStubCell : return PinRegister, Register { FileInt, 0, 0, x86_64.R11.String() }
        case ir.ArgPInvokeCookie   : return PinRegister, Register { FileInt, 0, 0, x86_64.R11.String() }
        case ir.ArgPInvokeTarget   : return PinRegister, Register { FileInt, 0, 0, x86_64.R10.String() }
        default                    : return PinNone, Register{}
    }
}
