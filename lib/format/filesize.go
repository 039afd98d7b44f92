//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package format

import "fmt"

var binaryUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// ByteSize renders a byte count with binary units, to three significant
// digits, e.g. "1.95 KiB".
func ByteSize(numBytes int64) string {
	if numBytes < 0 {
		return "invalid"
	}
	if numBytes < 1024 {
		return fmt.Sprintf("%d B", numBytes)
	}
	value := float64(numBytes)
	for i, unit := range binaryUnits {
		value /= 1024
		if value < 1024 || i == len(binaryUnits)-1 {
			return fmt.Sprintf("%.3g %v", value, unit)
		}
	}
	panic("unreachable")
}
