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

const (
    _CostLeaf    = 1
    _CostBigImm  = 2
    _CostLoad    = 3
    _CostDivide  = 10
    _CostCall    = 20
    _CostLclHeap = 15
    _CostBranch  = 3
)

// Cost estimates the evaluation cost of a tree, roughly in instructions.
func Cost(m *Method, id NodeId) int {
    p := m.Node(id)
    ret := 0

    /* local cost for each operator */
    switch p.Op {
        case OpNop      : return 0
        case OpArgPlace : return 0
        case OpConstDbl : return _CostBigImm
        case OpLclVar   : return _CostLeaf
        case OpLclAddr  : return _CostLeaf
        case OpLclFld   : return _CostLoad
        case OpIndir    : ret = _CostLoad
        case OpObj      : ret = _CostLoad * 2
        case OpDiv      : ret = _CostDivide
        case OpQmark    : ret = _CostBranch
        case OpLclHeap  : ret = _CostLclHeap
        case OpCall     : ret = _CostCall
        case OpConstInt : {
            if p.Ival >= -128 && p.Ival <= 127 {
                return _CostLeaf
            } else {
                return _CostBigImm
            }
        }
        default: {
            ret = _CostLeaf
        }
    }

    /* add all the operands */
    for _, v := range m.Operands(id) {
        ret += Cost(m, v)
    }
    return ret
}
