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
    `github.com/oleiade/lane`
)

// Operands returns every operand of a node, including both argument lists of calls.
func (self *Method) Operands(id NodeId) []NodeId {
    p := self.Node(id)

    /* non-call nodes */
    if p.Op != OpCall {
        return p.Ops
    }

    /* calls have their own argument lists */
    ret := make([]NodeId, 0, len(p.Call.Args) + len(p.Call.Late))
    for _, a := range p.Call.Args { ret = append(ret, a.Node) }
    return append(ret, p.Call.Late...)
}

// Walk visits every node of the tree in pre-order. Returning false from fn
// stops the descent into that node's operands.
func (self *Method) Walk(root NodeId, fn func(id NodeId) bool) {
    st := lane.NewStack()
    st.Push(root)

    /* iterate until the stack is drained */
    for !st.Empty() {
        id := st.Pop().(NodeId)
        if !fn(id) {
            continue
        }

        /* push operands in reverse, so they pop in order */
        ops := self.Operands(id)
        for i := len(ops) - 1; i >= 0; i-- {
            st.Push(ops[i])
        }
    }
}

// Contains reports whether any node of the tree uses one of the operators.
func (self *Method) Contains(root NodeId, ops ...Op) bool {
    found := false
    self.Walk(root, func(id NodeId) bool {
        if found {
            return false
        }
        for _, op := range ops {
            if self.Node(id).Op == op {
                found = true
                return false
            }
        }
        return true
    })
    return found
}

// CallsIn collects every call node in the tree, outermost first.
func (self *Method) CallsIn(root NodeId) []NodeId {
    var ret []NodeId
    q := lane.NewQueue()

    /* breadth-first, so outer calls come before the nested ones */
    for q.Enqueue(root); !q.Empty(); {
        id := q.Dequeue().(NodeId)
        if self.Node(id).Op == OpCall {
            ret = append(ret, id)
        }
        for _, v := range self.Operands(id) {
            q.Enqueue(v)
        }
    }
    return ret
}

// Effective skips over comma nodes and returns the node producing the value.
func (self *Method) Effective(id NodeId) NodeId {
    for self.Node(id).Op == OpComma {
        id = self.Node(id).Ops[1]
    }
    return id
}
