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
    `fmt`

    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`

    `github.com/cloudwego/argmorph/internal/ir`
)

const (
    _EffOrdered = ir.EffExcept | ir.EffOrder | ir.EffCall | ir.EffAssign
)

// buildDeps chains the late arguments whose relative order is observable.
// Arguments in temporaries are already ordered by the early list.
func (self *Engine) buildDeps(tab *ArgTable) {
    var last *ArgDescriptor
    var deps = simple.NewDirectedGraph()

    /* one node per argument */
    for _, d := range tab.Args {
        deps.AddNode(simple.Node(d.SourceIndex))
    }

    /* chain them in source order */
    for _, d := range tab.Args {
        if !d.IsLate() || d.NeedsTemp || d.Effects & _EffOrdered == 0 {
            continue
        }
        if last != nil {
            deps.SetEdge(simple.Edge { F: simple.Node(last.SourceIndex), T: simple.Node(d.SourceIndex) })
        }
        last = d
    }

    /* keep it with the table */
    tab.deps = deps
}

// MustPrecede reports whether a must be evaluated before b.
func (self *ArgTable) MustPrecede(a *ArgDescriptor, b *ArgDescriptor) bool {
    return self.deps != nil && self.deps.HasEdgeFromTo(int64(a.SourceIndex), int64(b.SourceIndex))
}

// ready reports whether all the predecessors of d have been emitted.
func (self *ArgTable) ready(d *ArgDescriptor, done map[uint32]bool) bool {
    it := self.deps.To(int64(d.SourceIndex))
    for it.Next() {
        if !done[uint32(it.Node().ID())] {
            return false
        }
    }
    return true
}

// repair reorders a sorted list so that every dependency is honored. The
// earliest ready argument of the sorted list is emitted first, which keeps
// the heuristic order wherever the constraints allow.
func (self *ArgTable) repair(sorted []*ArgDescriptor) []*ArgDescriptor {
    ret := make([]*ArgDescriptor, 0, len(sorted))
    done := make(map[uint32]bool, len(sorted))

    /* emit one argument per round */
    for len(ret) < len(sorted) {
        found := false
        for _, d := range sorted {
            if !done[d.SourceIndex] && self.ready(d, done) {
                ret = append(ret, d)
                done[d.SourceIndex] = true
                found = true
                break
            }
        }

        /* the graph is acyclic by construction */
        if !found {
            panic("morph: " + self.Name + ": argument dependencies form a cycle")
        }
    }
    return ret
}

func (self *ArgTable) checkAcyclic() {
    if _, err := topo.Sort(self.deps); err != nil {
        panic(fmt.Sprintf("morph: %s: argument dependencies form a cycle: %v", self.Name, err))
    }
}
