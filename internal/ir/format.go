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
    `fmt`
    `strconv`
    `strings`
)

// Format renders a tree as an s-expression, mostly for dumps and tests.
func (self *Method) Format(id NodeId) string {
    var sb strings.Builder
    self.format(&sb, id)
    return sb.String()
}

// FormatList renders a list of trees separated by commas.
func (self *Method) FormatList(ids []NodeId) string {
    mm := make([]string, len(ids))
    for i, v := range ids { mm[i] = self.Format(v) }
    return "[" + strings.Join(mm, ", ") + "]"
}

func (self *Method) lclName(lcl LclNum) string {
    return fmt.Sprintf("V%02d", lcl)
}

func (self *Method) format(sb *strings.Builder, id NodeId) {
    p := self.Node(id)

    /* leaves */
    switch p.Op {
        case OpNop      : sb.WriteString("nop"); return
        case OpConstInt : sb.WriteString(strconv.FormatInt(p.Ival, 10)); return
        case OpConstDbl : sb.WriteString(strconv.FormatFloat(p.Dval, 'g', -1, 64)); return
        case OpLclVar   : sb.WriteString(self.lclName(p.Lcl)); return
        case OpLclAddr  : sb.WriteString("&" + self.lclName(p.Lcl)); return
        case OpArgPlace : fmt.Fprintf(sb, "<argplace:%s>", p.Type); return
        case OpLclFld   : fmt.Fprintf(sb, "%s.%s@%d", self.lclName(p.Lcl), p.Type, p.Offset); return
    }

    /* calls print both argument lists */
    if p.Op == OpCall {
        fmt.Fprintf(sb, "(call %s", p.Call.Name)
        for _, a := range p.Call.Args {
            sb.WriteByte(' ')
            self.format(sb, a.Node)
        }
        if len(p.Call.Late) != 0 {
            sb.WriteString(" |")
            for _, a := range p.Call.Late {
                sb.WriteByte(' ')
                self.format(sb, a)
            }
        }
        sb.WriteByte(')')
        return
    }

    /* field lists print their offsets */
    if p.Op == OpFieldList {
        sb.WriteString("(fieldlist")
        for i, v := range p.Ops {
            fmt.Fprintf(sb, " %d:%s=", p.Pieces[i].Offset, p.Pieces[i].Type)
            self.format(sb, v)
        }
        sb.WriteByte(')')
        return
    }

    /* generic operators */
    fmt.Fprintf(sb, "(%s.%s", p.Op, p.Type)
    for _, v := range p.Ops {
        sb.WriteByte(' ')
        self.format(sb, v)
    }
    sb.WriteByte(')')
}
