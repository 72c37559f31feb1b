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
	"os"
	"strconv"

	"github.com/klauspost/cpuid/v2"

	"github.com/cloudwego/argmorph/internal/logger"
)

const (
	_DefaultExpensiveStructCost = 12 // about four memory loads
)

var (
	Checked             = parseBoolOrDefault("ARGMORPH_CHECKED", false)
	MinOpts             = parseBoolOrDefault("ARGMORPH_MINOPTS", false)
	DebugCode           = parseBoolOrDefault("ARGMORPH_DEBUG_CODE", false)
	DumpTables          = parseBoolOrDefault("ARGMORPH_DUMP_TABLES", false)
	ExpensiveStructCost = parseOrDefault("ARGMORPH_STRUCT_COST", _DefaultExpensiveStructCost, 1)
	LogLevel            = parseLevelOrDefault("ARGMORPH_LOG_LEVEL", slog.LevelWarn)
	AVX                 = cpuid.CPU.Supports(cpuid.AVX)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("argmorph: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("argmorph: value too small for " + key)
	} else {
		return ret
	}
}

func parseBoolOrDefault(key string, def bool) bool {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseBool(env); err != nil {
		panic("argmorph: invalid value for " + key)
	} else {
		return val
	}
}

func parseLevelOrDefault(key string, def slog.Level) slog.Level {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, ok := logger.ParseLevel(env); !ok {
		panic("argmorph: invalid log level for " + key)
	} else {
		return val
	}
}
