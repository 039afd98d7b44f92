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

package conv

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestFormatInt(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "123", FormatInt(123))
	assert.Equal(t, "-7", FormatInt(int8(-7)))
	assert.Equal(t, "42", FormatInt(uint64(42)))
}

func TestParseInts(t *testing.T) {
	t.Parallel()
	port, err := ParseInt32("8080")
	require.NoError(t, err)
	assert.Equal(t, int32(8080), port)

	_, err = ParseInt32("9999999999")
	require.Error(t, err)

	n, err := ParseInt64("-12")
	require.NoError(t, err)
	assert.Equal(t, int64(-12), n)
}

func TestParseProbability(t *testing.T) {
	t.Parallel()
	p, err := ParseProbability(" 0.2 ")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p, 1e-12)

	for _, ok := range []string{"0", "1", "1.0"} {
		_, err = ParseProbability(ok)
		require.NoError(t, err, ok)
	}
	for _, bad := range []string{"-0.1", "1.01", "often", ""} {
		_, err = ParseProbability(bad)
		require.Error(t, err, bad)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	d, err := ParseDuration("5")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = ParseDuration("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseDuration("soon")
	require.Error(t, err)
}

func TestMinutes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(7), DurationToMinutes(7*time.Minute+59*time.Second))
	assert.Equal(t, int64(0), DurationToMinutes(59*time.Second))

	assert.Nil(t, OptionalMinutes(nil))
	d := 3 * time.Minute
	assert.Equal(t, int64(3), *OptionalMinutes(&d))
}
