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
    `sync/atomic`
)

var (
    TableCount       uint32
    RemorphCount     uint32
    TempCount        uint32
    CopyCount        uint32
    ElidedCopyCount  uint32
    PlaceholderCount uint32
)

func countTable()       { atomic.AddUint32(&TableCount, 1) }
func countRemorph()     { atomic.AddUint32(&RemorphCount, 1) }
func countTemp()        { atomic.AddUint32(&TempCount, 1) }
func countCopy()        { atomic.AddUint32(&CopyCount, 1) }
func countElidedCopy()  { atomic.AddUint32(&ElidedCopyCount, 1) }
func countPlaceholder() { atomic.AddUint32(&PlaceholderCount, 1) }
