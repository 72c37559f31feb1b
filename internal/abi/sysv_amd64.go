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

/** System V AMD64 calling convention
 *
 *  Integer arguments go in RDI, RSI, RDX, RCX, R8 and R9, floating point and
 *  vector arguments in XMM0 to XMM7. Structs up to 16 bytes are classified by
 *  eightbytes, a struct that cannot get all of its registers goes entirely on
 *  the stack without closing the remaining registers.
 */

package abi

import (
    `github.com/chenzhuoyu/iasm/x86_64`
    `github.com/cloudwego/argmorph/internal/ir`
    `github.com/cloudwego/argmorph/internal/layout`
    `github.com/cloudwego/argmorph/internal/utils`
)

const (
    _SysV_NI = 6
    _SysV_NF = 8
)

var sysvIntRegs = [_SysV_NI]x86_64.Register64 {
    x86_64.RDI,
    x86_64.RSI,
    x86_64.RDX,
    x86_64.RCX,
    x86_64.R8,
    x86_64.R9,
}

type SysVAMD64 struct {
    avx bool
}

func init() {
    register("sysv-amd64", func(avx bool) Convention { return &SysVAMD64 { avx: avx } })
}

func (self *SysVAMD64) Name() string        { return "sysv-amd64" }
func (self *SysVAMD64) PointerSize() uint32 { return 8 }

func (self *SysVAMD64) Traits() Traits {
    return Traits { FixedOutArgs: true }
}

func (self *SysVAMD64) NumRegs(file RegFile) uint32 {
    switch file {
        case FileInt   : return _SysV_NI
        case FileFloat : return _SysV_NF
        default        : return 0
    }
}

func (self *SysVAMD64) Reg(file RegFile, unit uint32, vt ir.VarType) Register {
    switch {
        case file == FileInt   && unit < _SysV_NI : return Register { file, unit, 1, sysvIntRegs[unit].String() }
        case file == FileFloat && unit < _SysV_NF : return Register { file, unit, 1, vecReg(unit, vt) }
        default                                   : panic(utils.EABI(self.Name(), "no %s register #%d", file, unit))
    }
}

func vecReg(unit uint32, vt ir.VarType) string {
    if vt == ir.TypSimd32 {
        return (x86_64.YMM0 + x86_64.YMMRegister(unit)).String()
    } else {
        return (x86_64.XMM0 + x86_64.XMMRegister(unit)).String()
    }
}

func (self *SysVAMD64) ClassifyScalar(vt ir.VarType, _ bool) ScalarPassing {
    switch {
        case vt.IsFloat()                   : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 1, Align: 1 }
        case vt == ir.TypSimd16             : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 2, Align: 2 }
        case vt == ir.TypSimd32 && self.avx : return ScalarPassing { File: FileFloat, NumRegs: 1, NumSlots: 4, Align: 4 }
        case vt == ir.TypSimd32             : return ScalarPassing { File: FileNone, NumSlots: 4, Align: 4 }
        case vt.IsIntegral() || vt.IsGC()   : return ScalarPassing { File: FileInt, NumRegs: 1, NumSlots: 1, Align: 1 }
        default                             : panic(utils.EABI(self.Name(), "cannot pass a value of type %s", vt))
    }
}

func (self *SysVAMD64) ClassifyStruct(o layout.Oracle, cls ir.ClassHandle, _ bool) StructPassing {
    size := o.ClassifySize(cls)
    ebs := o.ClassifyEightbytes(cls)
    ret := StructPassing { Size: size, NumSlots: slotsOf(size, 8), Align: 1, Eightbytes: ebs }

    /* memory class structs go on the stack */
    if size == 0 || ebs[0] == layout.ClassMemory {
        ret.Kind = PassOnStack
        return ret
    }

    /* one piece per eightbyte */
    for i, c := range ebs {
        offs := uint32(i) * 8
        rem := min32(8, size - offs)
        switch c {
            case layout.ClassSSE: {
                if rem <= 4 {
                    ret.Pieces = append(ret.Pieces, Piece { offs, ir.TypFloat, FileFloat, 1 })
                } else {
                    ret.Pieces = append(ret.Pieces, Piece { offs, ir.TypDouble, FileFloat, 1 })
                }
            }
            case layout.ClassInteger: {
                vt := ir.IntAtLeast(rem)
                if rem == 8 && o.GCLayout(cls)[i] {
                    vt = ir.TypRef
                }
                ret.Pieces = append(ret.Pieces, Piece { offs, vt, FileInt, 1 })
            }
            default: {
                panic(utils.EABI(self.Name(), "unexpected eightbyte class %s in %s", c, o.Name(cls)))
            }
        }
    }

    /* a single eightbyte of a natural size is a primitive */
    if p := ret.Pieces[0]; len(ret.Pieces) == 1 && isPow2(size) {
        ret.Kind = PassPrimitive
        ret.Prim = p.Type
        ret.File = p.File
        ret.Pieces = nil
        return ret
    }

    /* otherwise it is a field list */
    ret.Kind = PassMultiReg
    return ret
}

func (self *SysVAMD64) NonStandard(kind ir.ArgKind) (Pinning, Register) {
    switch kind {
        case ir.ArgVirtualStubCell : return PinRegister, Register { FileInt, 0, 0, x86_64.R11.String() }
        case ir.ArgPInvokeCookie   : return PinRegister, Register { FileInt, 0, 0, x86_64.R11.String() }
        case ir.ArgPInvokeTarget   : return PinRegister, Register { FileInt, 0, 0, x86_64.R10.String() }
        default                    : return PinNone, Register{}
    }
}
