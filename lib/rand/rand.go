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

// Package rand provides the non-cryptographic random sources used by the
// dispatch board: seeded generators for reproducible simulation runs, and
// short random text for object names.
package rand

import (
	cryptorand "crypto/rand"
	"hash/fnv"
	mathrand "math/rand/v2"
	"strconv"
	"sync"
)

const base32alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var (
	chacha *mathrand.ChaCha8
	locker sync.Mutex
)

func init() {
	chacha = mathrand.NewChaCha8(cryptoSeed())
}

func cryptoSeed() [32]byte {
	var seed [32]byte
	_, _ = cryptorand.Reader.Read(seed[:])
	return seed
}

// NonCryptoText returns n characters of base32 text.
func NonCryptoText(n int) string {
	locker.Lock()
	defer locker.Unlock()
	src := make([]byte, n)
	// This never returns an error
	_, _ = chacha.Read(src)
	for i := range src {
		src[i] = base32alphabet[src[i]%32]
	}
	return string(src)
}

// NewSeeded returns a generator whose sequence is fully determined by seed.
// It is not safe for concurrent use.
func NewSeeded(seed uint64) *mathrand.Rand {
	return mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewUnseeded returns a generator seeded from crypto/rand.
// It is not safe for concurrent use.
func NewUnseeded() *mathrand.Rand {
	return mathrand.New(mathrand.NewChaCha8(cryptoSeed()))
}

// ParseSeed turns a configured seed into a generator seed. Decimal numbers
// are used as-is, and any other text is hashed.
func ParseSeed(s string) uint64 {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	hasher := fnv.New64()
	// this never returns an error
	_, _ = hasher.Write([]byte(s))
	return hasher.Sum64()
}
