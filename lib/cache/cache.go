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

// Package cache holds a read-mostly value that is recomputed at most once per
// TTL, or sooner when the owner knows the source has changed.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type InMemory[T any] struct {
	dataPtr   atomic.Pointer[entry[T]]
	ttl       time.Duration
	refresher func(context.Context) (T, error)
	now       func() time.Time
	// writeMu serializes refreshes and invalidations
	writeMu sync.Mutex
	// refreshes counts calls to refresher, for the logs and tests
	refreshes atomic.Int64
}

type entry[T any] struct {
	data    T
	expires time.Time
}

type Option[T any] func(*InMemory[T])

// WithClock replaces time.Now for TTL bookkeeping. It exists for tests that
// need to step past the TTL without sleeping.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(im *InMemory[T]) {
		im.now = now
	}
}

// New creates a new InMemory cache. The ttl indicates how long a cached value is valid, and the refresher
// function is what fetches a new value for the cache when a refresh is needed.
func New[T any](
	ttl time.Duration,
	refresher func(context.Context) (T, error),
	opts ...Option[T],
) *InMemory[T] {
	im := &InMemory[T]{
		ttl:       ttl,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Get returns the cached value, refreshing it first if it has expired or
// been invalidated.
func (im *InMemory[T]) Get(ctx context.Context) (*T, error) {
	if v := im.valid(); v != nil {
		return &v.data, nil
	}
	im.writeMu.Lock()
	defer im.writeMu.Unlock()
	// another caller might have refreshed it while we waited
	if v := im.valid(); v != nil {
		return &v.data, nil
	}
	im.refreshes.Add(1)
	newVal, err := im.refresher(ctx)
	if err != nil {
		return nil, fmt.Errorf("[refresher]: %w", err)
	}
	im.dataPtr.Store(&entry[T]{
		data:    newVal,
		expires: im.now().Add(im.ttl),
	})
	return &newVal, nil
}

// Invalidate drops the cached value. A refresh in flight finishes first, so
// the next Get always sees data newer than the call to Invalidate.
func (im *InMemory[T]) Invalidate() {
	im.writeMu.Lock()
	defer im.writeMu.Unlock()
	im.dataPtr.Store(nil)
}

// Refreshes is the number of times the refresher has been called. Tests use
// it to tell cache hits from refreshes.
func (im *InMemory[T]) Refreshes() int64 {
	return im.refreshes.Load()
}

func (im *InMemory[T]) valid() *entry[T] {
	v := im.dataPtr.Load()
	if v == nil || !im.now().Before(v.expires) {
		return nil
	}
	return v
}
