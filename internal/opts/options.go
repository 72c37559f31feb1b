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

package opts

import (
	"log/slog"

	"github.com/cloudwego/argmorph/internal/logger"
)

type Options struct {
	Checked             bool
	MinOpts             bool
	DebugCode           bool
	DumpTables          bool
	AVX                 bool
	ExpensiveStructCost int
	Logger              *slog.Logger
}

// ConservativeOrder reports whether faulting arguments must be ordered like calls.
func (self *Options) ConservativeOrder() bool {
	return self.MinOpts || self.DebugCode
}

func GetDefaultOptions() Options {
	return Options{
		Checked:             Checked,
		MinOpts:             MinOpts,
		DebugCode:           DebugCode,
		DumpTables:          DumpTables,
		AVX:                 AVX,
		ExpensiveStructCost: ExpensiveStructCost,
		Logger:              logger.New(logger.Config{Level: LogLevel, Format: "text"}),
	}
}
