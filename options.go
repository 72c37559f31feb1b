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

package argmorph

import (
	"fmt"
	"log/slog"

	"github.com/cloudwego/argmorph/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithChecked enables the consistency checks run after every pass.
//
// A failed check aborts the compilation with a panic, it is never returned
// as an error.
//
// This value can also be configured with the `ARGMORPH_CHECKED` environment
// variable.
func WithChecked(v bool) Option {
	return func(o *opts.Options) { o.Checked = v }
}

// WithMinOpts marks the method as compiled with minimal optimizations, which
// orders faulting arguments as conservatively as calls.
func WithMinOpts(v bool) Option {
	return func(o *opts.Options) { o.MinOpts = v }
}

// WithDebugCode marks the method as compiled for debugging. It has the same
// effect on argument ordering as WithMinOpts.
func WithDebugCode(v bool) Option {
	return func(o *opts.Options) { o.DebugCode = v }
}

// WithDumpTables logs every argument table in full once it is built.
func WithDumpTables(v bool) Option {
	return func(o *opts.Options) { o.DumpTables = v }
}

// WithExpensiveStructCost sets the evaluation cost above which a struct
// passed in multiple registers is evaluated into a temporary first.
//
// The default value of this option is "12".
func WithExpensiveStructCost(cost int) Option {
	if cost < 1 {
		panic(fmt.Sprintf("argmorph: invalid struct cost: %d", cost))
	} else {
		return func(o *opts.Options) { o.ExpensiveStructCost = cost }
	}
}

// WithAVX enables the 256-bit vector registers of the SysV AMD64 convention.
//
// The default value is taken from the host CPU.
func WithAVX(v bool) Option {
	return func(o *opts.Options) { o.AVX = v }
}

// WithLogger sets the logger of the engine. A nil logger discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *opts.Options) { o.Logger = l }
}

// SetChecked sets the default checked mode for all compilations from now on.
//
// Returns the old opts.Checked value.
func SetChecked(v bool) bool {
	v, opts.Checked = opts.Checked, v
	return v
}

// SetExpensiveStructCost sets the default struct cost threshold for all
// compilations from now on.
//
// Returns the old opts.ExpensiveStructCost value.
func SetExpensiveStructCost(cost int) int {
	if cost < 1 {
		panic(fmt.Sprintf("argmorph: invalid struct cost: %d", cost))
	} else {
		cost, opts.ExpensiveStructCost = opts.ExpensiveStructCost, cost
		return cost
	}
}
