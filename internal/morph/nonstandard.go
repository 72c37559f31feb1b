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

package morph

import (
    `github.com/cloudwego/argmorph/internal/ir`
)

// spliceNonStandard appends the hidden operands of a call to its argument
// list. This happens once per call, re-morphs see the spliced list.
func (self *Engine) spliceNonStandard(ci *ir.CallInfo) {
    if ci.Has(ir.CallNonStandardSpliced) {
        return
    }

    /* virtual stub dispatch passes the indirection cell */
    if ci.Has(ir.CallVirtualStub) && ci.StubCell != ir.NoNode {
        ci.Args = append(ci.Args, ir.CallArg { Node: ci.StubCell, Kind: ir.ArgVirtualStubCell })
    }

    /* unmanaged calls may carry the marshalling cookie and the real target */
    if ci.Cookie != ir.NoNode {
        ci.Args = append(ci.Args, ir.CallArg { Node: ci.Cookie, Kind: ir.ArgPInvokeCookie })
    }
    if ci.Target != ir.NoNode {
        ci.Args = append(ci.Args, ir.CallArg { Node: ci.Target, Kind: ir.ArgPInvokeTarget })
    }

    /* never again */
    ci.StubCell = ir.NoNode
    ci.Cookie = ir.NoNode
    ci.Target = ir.NoNode
    ci.Flags |= ir.CallNonStandardSpliced
}
