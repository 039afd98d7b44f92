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
	"log/slog"
	"time"
)

// IncidentStore holds every incident ever admitted and owns their lifecycle
// fields. It is not safe for concurrent use; the Board serializes access to it
// together with the ResourcePool it reserves from.
type IncidentStore struct {
	pool   *ResourcePool
	policy DispatchPolicy

	byID map[string]*Incident
	// ordered is in creation order
	ordered []*Incident
	lastSeq int64
}

func NewIncidentStore(pool *ResourcePool, policy DispatchPolicy) *IncidentStore {
	if policy == nil {
		policy = PrimaryKindPolicy{}
	}
	return &IncidentStore{
		pool:   pool,
		policy: policy,
		byID:   make(map[string]*Incident),
	}
}

// insert admits a new pending incident, assigning it the next sequential ID.
func (s *IncidentStore) insert(inc Incident) Incident {
	s.lastSeq++
	stored := inc.clone()
	stored.seq = s.lastSeq
	stored.ID = incidentID(stored.seq)
	stored.State = StatePending
	stored.AssignedResources = []string{}
	stored.ResponseTime = nil
	s.byID[stored.ID] = &stored
	s.ordered = append(s.ordered, &stored)
	return stored.clone()
}

func (s *IncidentStore) get(id string) (Incident, error) {
	inc, ok := s.byID[id]
	if !ok {
		return Incident{}, notFound(id)
	}
	return inc.clone(), nil
}

// beginAttention moves a pending incident to in_progress, records its response
// time and tries to reserve units for it. Running out of units does not stop
// the transition.
func (s *IncidentStore) beginAttention(id string, now time.Time) (Incident, error) {
	inc, ok := s.byID[id]
	if !ok {
		return Incident{}, notFound(id)
	}
	if inc.State != StatePending {
		return Incident{}, &TransitionError{IncidentID: id, From: inc.State, To: StateInProgress}
	}
	for _, kind := range s.policy.KindsFor(inc.Category) {
		unitID, reserved := s.pool.TryReserve(kind)
		if !reserved {
			slog.Warn("No unit available, incident proceeds without one",
				"incident", id,
				"kind", kind,
			)
			continue
		}
		inc.AssignedResources = append(inc.AssignedResources, unitID)
	}
	rt := responseTime(inc.ReportedAt, now)
	inc.ResponseTime = &rt
	inc.State = StateInProgress
	return inc.clone(), nil
}

// resolve moves an in_progress incident to resolved and releases its units.
// The assignment record is kept.
func (s *IncidentStore) resolve(id string) (Incident, error) {
	inc, ok := s.byID[id]
	if !ok {
		return Incident{}, notFound(id)
	}
	if inc.State != StateInProgress {
		return Incident{}, &TransitionError{IncidentID: id, From: inc.State, To: StateResolved}
	}
	for _, unitID := range inc.AssignedResources {
		s.pool.Release(unitID)
	}
	inc.State = StateResolved
	return inc.clone(), nil
}

// all returns copies of every incident in creation order.
func (s *IncidentStore) all() []Incident {
	out := make([]Incident, 0, len(s.ordered))
	for _, inc := range s.ordered {
		out = append(out, inc.clone())
	}
	return out
}

// responseTime is the elapsed time from report to attention, in whole minutes.
func responseTime(reportedAt, now time.Time) time.Duration {
	rt := now.Sub(reportedAt).Truncate(time.Minute)
	if rt < 0 {
		return 0
	}
	return rt
}
