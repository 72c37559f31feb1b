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

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/argmorph/internal/morph"
)

// A Stats records statistics about the argument placement engine.
type Stats struct {
	Tables TableStats
	Values ValueStats
}

// A TableStats records how many argument tables were built and revisited.
type TableStats struct {
	Built    int
	Remorphs int
}

// A ValueStats records the extra values introduced while placing arguments.
type ValueStats struct {
	Temps        int
	Copies       int
	ElidedCopies int
	Placeholders int
}

// GetStats returns statistics of the argument placement engine.
func GetStats() Stats {
	return Stats{
		Tables: TableStats{
			Built:    int(atomic.LoadUint32(&morph.TableCount)),
			Remorphs: int(atomic.LoadUint32(&morph.RemorphCount)),
		},
		Values: ValueStats{
			Temps:        int(atomic.LoadUint32(&morph.TempCount)),
			Copies:       int(atomic.LoadUint32(&morph.CopyCount)),
			ElidedCopies: int(atomic.LoadUint32(&morph.ElidedCopyCount)),
			Placeholders: int(atomic.LoadUint32(&morph.PlaceholderCount)),
		},
	}
}
