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

package format_test

import (
	"github.com/municipal-ops/dispatch-board/lib/format"
	"github.com/stretchr/testify/assert"
	"math"
	"testing"
)

func TestByteSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "invalid", format.ByteSize(-1))
	assert.Equal(t, "0 B", format.ByteSize(0))
	assert.Equal(t, "1023 B", format.ByteSize(1023))
	assert.Equal(t, "1 KiB", format.ByteSize(1024))
	assert.Equal(t, "1.95 KiB", format.ByteSize(2_000))
	assert.Equal(t, "1 MiB", format.ByteSize(1<<20))
	assert.Equal(t, "1.86 GiB", format.ByteSize(2_000_000_000))
	assert.Equal(t, "567 TiB", format.ByteSize(567<<40))
	assert.Equal(t, "8 EiB", format.ByteSize(math.MaxInt64))
}
