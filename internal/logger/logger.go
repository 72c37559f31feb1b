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

package logger

import (
    `io`
    `log/slog`
    `os`
    `strings`
)

type Config struct {
    Level  slog.Level
    Format string // "text" or "json"
    Output io.Writer
}

func DefaultConfig() Config {
    return Config {
        Level  : slog.LevelWarn,
        Format : "text",
        Output : os.Stderr,
    }
}

// New creates a logger from the configuration, the engine only logs at debug level.
func New(cfg Config) *slog.Logger {
    var hd slog.Handler
    var op = &slog.HandlerOptions { Level: cfg.Level }

    /* default to stderr */
    if cfg.Output == nil {
        cfg.Output = os.Stderr
    }

    /* select the handler */
    if cfg.Format == "json" {
        hd = slog.NewJSONHandler(cfg.Output, op)
    } else {
        hd = slog.NewTextHandler(cfg.Output, op)
    }

    /* all records are tagged with the component name */
    return slog.New(hd).With("component", "argmorph")
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
    return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions { Level: slog.LevelError + 1 }))
}

// ParseLevel maps the level names accepted in the environment.
func ParseLevel(name string) (slog.Level, bool) {
    switch strings.ToLower(name) {
        case "debug"           : return slog.LevelDebug, true
        case "info"            : return slog.LevelInfo, true
        case "warn", "warning" : return slog.LevelWarn, true
        case "error"           : return slog.LevelError, true
        default                : return slog.LevelInfo, false
    }
}
