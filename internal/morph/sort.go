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

    `github.com/cloudwego/argmorph/internal/ir`
)

// schedule reorders the table into evaluation order. Calls and temporaries
// go first so their results do not clobber argument registers, constants and
// plain locals go last, the rest are ordered by decreasing cost.
func (self *Engine) schedule(tab *ArgTable) {
    if tab.State != StateComplete {
        panic("morph: sorting a " + tab.State.String() + " table")
    }

    /* the table must be fully classified */
    if self.opts.Checked {
        self.verifyComplete(tab)
    }

    /* reset the scratch flags */
    for _, d := range tab.Args {
        d.Processed = false
    }

    /* sort the arguments */
    n := len(tab.Args)
    ss := argSorter {
        m    : self.m,
        args : tab.Args,
        ret  : make([]*ArgDescriptor, n),
        beg  : 0,
        end  : n - 1,
    }

    /* integer constants last, calls first, then temporaries */
    ss.backward(self.isIntConst)
    ss.forward(hasCall)
    ss.forward(needsTemp)

    /* plain local loads just before the constants, then everything else by cost */
    ss.backward(self.isLocalLoad)
    ss.byCost()

    /* every argument must be placed exactly once */
    if ss.beg != ss.end + 1 {
        panic(fmt.Sprintf("morph: %s: sorter placed %d of %d arguments", tab.Name, ss.beg + n - 1 - ss.end, n))
    }

    /* then honor the dependencies */
    tab.Args = tab.repair(ss.ret)
    tab.State = StateSorted
}

type argSorter struct {
    m    *ir.Method
    args []*ArgDescriptor
    ret  []*ArgDescriptor
    beg  int
    end  int
}

// forward moves the matching arguments to the front, keeping their order.
func (self *argSorter) forward(pred func(d *ArgDescriptor) bool) {
    for _, d := range self.args {
        if !d.Processed && pred(d) {
            d.Processed = true
            self.ret[self.beg] = d
            self.beg++
        }
    }
}

// backward moves the matching arguments to the back, keeping their order.
func (self *argSorter) backward(pred func(d *ArgDescriptor) bool) {
    for i := len(self.args) - 1; i >= 0; i-- {
        if d := self.args[i]; !d.Processed && pred(d) {
            d.Processed = true
            self.ret[self.end] = d
            self.end--
        }
    }
}

// byCost places the remaining arguments, the most expensive first.
func (self *argSorter) byCost() {
    for {
        var sel *ArgDescriptor
        var max = -1

        /* find the first most expensive argument */
        for _, d := range self.args {
            if !d.Processed {
                if c := self.costOf(d); c > max {
                    sel, max = d, c
                }
            }
        }

        /* no more arguments */
        if sel == nil {
            return
        }

        /* place it */
        sel.Processed = true
        self.ret[self.beg] = sel
        self.beg++
    }
}

func (self *argSorter) costOf(d *ArgDescriptor) int {
    if !d.costValid {
        d.cost = ir.Cost(self.m, d.Node)
        d.costValid = true
    }
    return d.cost
}

func hasCall(d *ArgDescriptor) bool {
    return d.Effects & ir.EffCall != 0
}

func needsTemp(d *ArgDescriptor) bool {
    return d.NeedsTemp
}

func (self *Engine) isIntConst(d *ArgDescriptor) bool {
    return self.m.Node(d.Node).Op == ir.OpConstInt
}

func (self *Engine) isLocalLoad(d *ArgDescriptor) bool {
    switch self.m.Node(d.Node).Op {
        case ir.OpLclVar, ir.OpLclFld : return true
        default                       : return false
    }
}
