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

package board

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ResourcePool tracks every dispatchable unit and whether it is available.
// The roster is fixed when the pool is created.
type ResourcePool struct {
	mu sync.Mutex
	// units is sorted by kind, then ID
	units []*Resource
	byID  map[string]*Resource
}

func NewResourcePool(roster []Resource) (*ResourcePool, error) {
	p := &ResourcePool{
		units: make([]*Resource, 0, len(roster)),
		byID:  make(map[string]*Resource, len(roster)),
	}
	var errs []error
	for _, r := range roster {
		if r.ID == "" {
			errs = append(errs, errors.New("resource with empty ID"))
			continue
		}
		if err := r.Kind.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("resource %v: %w", r.ID, err))
			continue
		}
		if r.Availability == "" {
			r.Availability = Available
		}
		if err := r.Availability.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("resource %v: %w", r.ID, err))
			continue
		}
		if _, dup := p.byID[r.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate resource ID %v", r.ID))
			continue
		}
		unit := r
		p.units = append(p.units, &unit)
		p.byID[unit.ID] = &unit
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	slices.SortFunc(p.units, compareResources)
	return p, nil
}

func compareResources(a, b *Resource) int {
	return cmp.Or(
		cmp.Compare(a.Kind.rank(), b.Kind.rank()),
		cmp.Compare(a.ID, b.ID),
	)
}

// List returns a copy of the roster ordered by kind then ID. An empty kind
// matches every unit.
func (p *ResourcePool) List(kind Kind) []Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Resource, 0, len(p.units))
	for _, u := range p.units {
		if kind == "" || u.Kind == kind {
			out = append(out, *u)
		}
	}
	return out
}

// TryReserve marks the available unit of the given kind with the lowest ID as
// busy and returns its ID. It never blocks; ok is false if no unit of that
// kind is available.
func (p *ResourcePool) TryReserve(kind Kind) (id string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.units {
		if u.Kind == kind && u.Availability == Available {
			u.Availability = Busy
			return u.ID, true
		}
	}
	return "", false
}

// Release marks the unit available again. Unknown IDs and units that are
// already available are ignored.
func (p *ResourcePool) Release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.byID[id]
	if !ok {
		slog.Debug("Ignoring release of unknown resource", "resource", id)
		return
	}
	if u.Availability == Available {
		slog.Debug("Ignoring release of available resource", "resource", id)
		return
	}
	u.Availability = Available
}
