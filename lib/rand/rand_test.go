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

package rand

import (
	"github.com/stretchr/testify/assert"
	mathrand "math/rand/v2"
	"testing"
)

func TestNonCryptoText(t *testing.T) {
	t.Parallel()
	assert.Len(t, NonCryptoText(8), 8)
	for _, c := range NonCryptoText(64) {
		assert.Contains(t, base32alphabet, string(c))
	}
}

func TestNewSeeded(t *testing.T) {
	t.Parallel()
	a, b := NewSeeded(42), NewSeeded(42)
	for range 20 {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	c := NewSeeded(43)
	assert.NotEqual(t, NewSeeded(42).Float64(), c.Float64())
}

func TestNewUnseeded(t *testing.T) {
	t.Parallel()
	var r *mathrand.Rand = NewUnseeded()
	f := r.Float64()
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 1.0)
}

func TestParseSeed(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint64(1234), ParseSeed("1234"))
	assert.Equal(t, ParseSeed("night shift"), ParseSeed("night shift"))
	assert.NotEqual(t, ParseSeed("night shift"), ParseSeed("day shift"))
}
