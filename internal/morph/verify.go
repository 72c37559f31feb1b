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

    `github.com/cloudwego/argmorph/internal/abi`
    `github.com/cloudwego/argmorph/internal/ir`
)

// verify runs the consistency checks of a materialized table, only in checked mode.
func (self *Engine) verify(tab *ArgTable) {
    if self.opts.Checked {
        self.verifySlots(tab)
        self.verifyRegisters(tab)
        self.verifyOrder(tab)
        self.verifyLists(tab)
        self.verifyStructs(tab)
    }
}

func (self *Engine) fail(tab *ArgTable, format string, args ...interface{}) {
    panic(fmt.Sprintf("morph: %s: ", tab.Name) + fmt.Sprintf(format, args...))
}

// verifyComplete checks that every argument of the call has been classified.
func (self *Engine) verifyComplete(tab *ArgTable) {
    ci := self.m.Node(tab.Call).Call
    seen := make([]bool, len(ci.Args))

    /* one descriptor per argument */
    if len(tab.Args) != len(ci.Args) {
        self.fail(tab, "%d descriptors for %d arguments", len(tab.Args), len(ci.Args))
    }

    /* each placed once */
    for _, d := range tab.Args {
        if int(d.SourceIndex) >= len(seen) || seen[d.SourceIndex] {
            self.fail(tab, "bad source index %d", d.SourceIndex)
        }
        if d.Placement() == PlaceNone {
            self.fail(tab, "argument #%d was never placed", d.SourceIndex)
        }
        seen[d.SourceIndex] = true
    }
}

func (self *Engine) verifySlots(tab *ArgTable) {
    if ns := tab.StackSlots(); ns != tab.NextSlot {
        self.fail(tab, "stack slots disagree: replayed %d, recorded %d", ns, tab.NextSlot)
    }
}

// verifyRegisters checks that no register is assigned twice. A back-filled
// register reuses a hole, so it never overlaps a register in use either.
func (self *Engine) verifyRegisters(tab *ArgTable) {
    for i, a := range tab.Args {
        for _, b := range tab.Args[i + 1:] {
            for _, ra := range a.Regs {
                for _, rb := range b.Regs {
                    if clashes(ra, rb) {
                        self.fail(tab, "register %s assigned to both #%d and #%d", ra, a.SourceIndex, b.SourceIndex)
                    }
                }
            }
        }
    }
}

func clashes(a abi.Register, b abi.Register) bool {
    if a.Span == 0 || b.Span == 0 {
        return a.Name == b.Name
    } else {
        return a.Overlaps(b)
    }
}

// verifyOrder checks the dependency graph and that the schedule honors it.
func (self *Engine) verifyOrder(tab *ArgTable) {
    pos := make(map[uint32]int, len(tab.Args))
    tab.checkAcyclic()

    /* positions in the schedule */
    for i, d := range tab.Args {
        pos[d.SourceIndex] = i
    }

    /* every edge points forward */
    for _, a := range tab.Args {
        for _, b := range tab.Args {
            if tab.MustPrecede(a, b) && pos[a.SourceIndex] > pos[b.SourceIndex] {
                self.fail(tab, "argument #%d scheduled after #%d", a.SourceIndex, b.SourceIndex)
            }
        }
    }
}

// verifyLists checks that every descriptor points at its list entry.
func (self *Engine) verifyLists(tab *ArgTable) {
    ci := self.m.Node(tab.Call).Call
    seen := make([]bool, len(ci.Late))

    /* check every descriptor */
    for _, d := range tab.Args {
        if d.LateIndex < 0 {
            if d.IsLate() {
                self.fail(tab, "late argument #%d has no late index", d.SourceIndex)
            }
            if ci.Args[d.SourceIndex].Node != d.Node {
                self.fail(tab, "argument #%d is not in its early position", d.SourceIndex)
            }
            continue
        }

        /* late arguments */
        if d.LateIndex >= len(ci.Late) || seen[d.LateIndex] {
            self.fail(tab, "bad late index %d of argument #%d", d.LateIndex, d.SourceIndex)
        }
        if ci.Late[d.LateIndex] != d.Node {
            self.fail(tab, "argument #%d is not in its late position", d.SourceIndex)
        }
        seen[d.LateIndex] = true
    }

    /* no stray late entries */
    for i, v := range seen {
        if !v {
            self.fail(tab, "late entry %d belongs to no argument", i)
        }
    }
}

// verifyStructs checks that every struct argument has the shape of its outcome.
func (self *Engine) verifyStructs(tab *ArgTable) {
    for _, d := range tab.Args {
        if !d.IsStruct {
            continue
        }

        /* each struct is decomposed exactly once */
        if !d.decomposed {
            self.fail(tab, "struct argument #%d was never decomposed", d.SourceIndex)
        }

        /* check the shape */
        switch p := self.m.Node(d.Node); d.Outcome {
            case abi.PassPrimitive: {
                if p.Type == ir.TypStruct {
                    self.fail(tab, "primitive struct argument #%d is still a struct", d.SourceIndex)
                }
            }
            case abi.PassMultiReg: {
                if p.Op != ir.OpFieldList || len(p.Ops) != len(d.Passing.Pieces) {
                    self.fail(tab, "multi-register struct argument #%d is not a field list", d.SourceIndex)
                }
            }
            case abi.PassByReference: {
                if p.Type != ir.TypByRef {
                    self.fail(tab, "by-reference struct argument #%d is not an address", d.SourceIndex)
                }
            }
        }
    }
}
