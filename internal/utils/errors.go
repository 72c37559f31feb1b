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

package utils

import (
    `fmt`
)

// BadILError occures when the input program or its type metadata is malformed.
type BadILError struct {
    Method string
    Reason string
}

func (self BadILError) Error() string {
    if self.Method != "" {
        return fmt.Sprintf("BadIL(%s): %s", self.Method, self.Reason)
    } else {
        return fmt.Sprintf("BadIL: %s", self.Reason)
    }
}

// ABIError occures when a calling convention cannot place a value.
type ABIError struct {
    Target string
    Reason string
}

func (self ABIError) Error() string {
    return fmt.Sprintf("ABIError(%s): %s", self.Target, self.Reason)
}

func EBadIL(format string, args ...interface{}) BadILError {
    return BadILError {
        Reason: fmt.Sprintf(format, args...),
    }
}

func EABI(target string, format string, args ...interface{}) ABIError {
    return ABIError {
        Target : target,
        Reason : fmt.Sprintf(format, args...),
    }
}

// IsFatal reports whether v is one of the panic values that abort a compilation.
func IsFatal(v interface{}) (error, bool) {
    switch e := v.(type) {
        case BadILError : return e, true
        case ABIError   : return e, true
        default         : return nil, false
    }
}

func AlignUp(n uint32, a uint32) uint32 {
    return (n + a - 1) &^ (a - 1)
}
