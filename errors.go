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
    `github.com/cloudwego/argmorph/internal/utils`
)

// BadILError occures when the input program or its type metadata is malformed.
type BadILError = utils.BadILError

// ABIError occures when a calling convention cannot place a value, or the
// type system does not match the target.
type ABIError = utils.ABIError
