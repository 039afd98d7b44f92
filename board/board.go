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

// Package board is the in-memory incident dispatch engine: the incident
// collection and its lifecycle, the pool of dispatchable units, intake, the
// read projections consumers query, and a pluggable lifecycle simulator.
//
// Every mutation goes through a Board, which serializes it against a single
// consistent view of incidents and units. Readers get value copies taken from
// one point in time, so they never observe a partially applied transition.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Board struct {
	// mu guards store, pool availability and version together, since a
	// transition changes both collections.
	mu      sync.RWMutex
	pool    *ResourcePool
	store   *IncidentStore
	intake  *intake
	now     func() time.Time
	feed    *changeFeed
	version uint64
}

type options struct {
	now    func() time.Time
	policy DispatchPolicy
	area   Area
	rng    Float64er
}

type Option func(*options)

// WithClock sets the source of reported_at and response time timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithPolicy(p DispatchPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithArea bounds the coordinates synthesized for reports that arrive without any.
func WithArea(a Area) Option {
	return func(o *options) {
		o.area = a
	}
}

// WithRand sets the random source used to synthesize coordinates.
func WithRand(rng Float64er) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// New builds a Board whose resource pool holds the given roster.
func New(roster []Resource, opts ...Option) (*Board, error) {
	o := options{
		now:    time.Now,
		policy: PrimaryKindPolicy{},
		area:   DefaultArea,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.area.Validate(); err != nil {
		return nil, fmt.Errorf("[Area.Validate]: %w", err)
	}
	pool, err := NewResourcePool(roster)
	if err != nil {
		return nil, fmt.Errorf("[NewResourcePool]: %w", err)
	}
	return &Board{
		pool:   pool,
		store:  NewIncidentStore(pool, o.policy),
		intake: newIntake(o.area, o.rng),
		now:    o.now,
		feed:   newChangeFeed(),
	}, nil
}

// BeginAttention moves a pending incident to in_progress, reserving units for
// it if any are available.
func (b *Board) BeginAttention(id string) (Incident, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	inc, err := b.store.beginAttention(id, now)
	if err != nil {
		logTransitionErr("BeginAttention", id, err)
		return Incident{}, fmt.Errorf("[beginAttention]: %w", err)
	}
	b.commit(ChangeInProgress, id, now)
	slog.Info("Incident in progress",
		"incident", id,
		"resources", inc.AssignedResources,
		"responseTime", *inc.ResponseTime,
	)
	return inc, nil
}

// Resolve moves an in_progress incident to resolved, releasing its units.
func (b *Board) Resolve(id string) (Incident, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inc, err := b.store.resolve(id)
	if err != nil {
		logTransitionErr("Resolve", id, err)
		return Incident{}, fmt.Errorf("[resolve]: %w", err)
	}
	b.commit(ChangeResolved, id, b.now())
	slog.Info("Incident resolved", "incident", id, "released", inc.AssignedResources)
	return inc, nil
}

func (b *Board) GetIncident(id string) (Incident, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.store.get(id)
}

// ListIncidents returns the incidents in any of the given states, most
// recently reported first. With no states it returns every incident.
func (b *Board) ListIncidents(states ...State) []Incident {
	return b.Snapshot().Filter(InStates(states...))
}

// ListResources returns the roster ordered by kind then ID. An empty kind
// matches every unit.
func (b *Board) ListResources(kind Kind) []Resource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pool.List(kind)
}

func (b *Board) Statistics() Statistics {
	return b.Snapshot().Statistics()
}

// Snapshot copies the whole board at one point in time.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Version:   b.version,
		TakenAt:   b.now(),
		Incidents: b.store.all(),
		Resources: b.pool.List(""),
	}
}

// Version counts the mutations applied so far.
func (b *Board) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Subscribe returns a channel of changes applied after the call, and a
// function that ends the subscription and closes the channel. Changes are
// dropped for a subscriber whose buffer is full.
func (b *Board) Subscribe(buffer int) (<-chan Change, func()) {
	return b.feed.subscribe(buffer)
}

// commit must be called with mu held for writing.
func (b *Board) commit(t ChangeType, id string, at time.Time) {
	b.version++
	b.feed.publish(Change{Seq: b.version, Type: t, IncidentID: id, At: at})
}

func logTransitionErr(op, id string, err error) {
	var te *TransitionError
	if errors.As(err, &te) {
		slog.Warn("Ignoring invalid transition",
			"op", op,
			"incident", id,
			"state", te.From,
			"wanted", te.To,
		)
	}
}
