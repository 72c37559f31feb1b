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

// Package argmorph places the arguments of every call of a method into the
// registers and outgoing stack slots of a target calling convention.
package argmorph

import (
	"github.com/cloudwego/argmorph/internal/abi"
	"github.com/cloudwego/argmorph/internal/morph"
	"github.com/cloudwego/argmorph/internal/opts"
	"github.com/cloudwego/argmorph/internal/utils"
)

// Targets returns the names of every supported calling convention.
func Targets() []string {
	return abi.Names()
}

// Engine places call arguments of one method for one target. Fatal input
// problems are returned as BadILError or ABIError, any other failure panics.
type Engine struct {
	*morph.Engine
}

// NewEngine creates an engine for the method m on the named target.
func NewEngine(m *Method, target string, types Oracle, options ...Option) (*Engine, error) {
	o := opts.GetDefaultOptions()
	cc, err := abi.ByName(target, false)

	/* check the target */
	if err != nil {
		return nil, err
	}

	/* apply the options */
	for _, fn := range options {
		fn(&o)
	}

	/* AVX only changes the SysV AMD64 rules */
	if o.AVX {
		if cc, err = abi.ByName(target, true); err != nil {
			return nil, err
		}
	}

	/* the type system must agree with the target */
	if ps := types.PointerSize(); ps != cc.PointerSize() {
		return nil, utils.EABI(target, "type system has %d-byte pointers, target has %d", ps, cc.PointerSize())
	} else {
		return &Engine{morph.NewEngine(m, cc, types, o)}, nil
	}
}

// MorphCall places the arguments of a call, or re-morphs it if it has been
// placed before.
func (self *Engine) MorphCall(call NodeId) (ret NodeId, err error) {
	defer self.catch(&err)
	return self.Engine.MorphCall(call), nil
}

// Run morphs every statement of the method, placing the arguments of every
// call in them.
func (self *Engine) Run() (err error) {
	m := self.Method()
	defer self.catch(&err)

	/* statements are rewritten in place */
	for i, s := range m.Stmts {
		m.Stmts[i] = self.Morph(s)
	}
	return nil
}

func (self *Engine) catch(err *error) {
	if v := recover(); v != nil {
		if e, ok := utils.IsFatal(v); !ok {
			panic(v)
		} else {
			*err = self.annotate(e)
		}
	}
}

func (self *Engine) annotate(err error) error {
	if e, ok := err.(BadILError); ok && e.Method == "" {
		e.Method = self.Method().Name
		return e
	} else {
		return err
	}
}

// Compile places the arguments of every call of m for the named target.
func Compile(m *Method, target string, types Oracle, options ...Option) error {
	if e, err := NewEngine(m, target, types, options...); err != nil {
		return err
	} else {
		return e.Run()
	}
}
