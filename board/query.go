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
	"slices"
	"time"
)

// Snapshot is a point-in-time copy of the board. All of its projections are
// pure reads, so counts and lists derived from one Snapshot always agree.
type Snapshot struct {
	// Version is the number of mutations reflected in the snapshot.
	Version   uint64
	TakenAt   time.Time
	Incidents []Incident
	Resources []Resource
}

type Counts struct {
	Total      int
	Pending    int
	InProgress int
	Resolved   int
}

type ResourceCounts struct {
	Available int
	Busy      int
}

type Statistics struct {
	Counts           Counts
	CountsByCategory map[Category]int
	// AverageResponseTime is nil when no incident has a response time yet.
	AverageResponseTime *time.Duration
	Resources           map[Kind]ResourceCounts
}

// InStates matches incidents in any of the given states, or every incident
// when no state is given.
func InStates(states ...State) func(Incident) bool {
	if len(states) == 0 {
		return func(Incident) bool { return true }
	}
	return func(inc Incident) bool {
		return slices.Contains(states, inc.State)
	}
}

// Filter returns the matching incidents, most recently reported first. Ties
// go to the incident created later.
func (s Snapshot) Filter(match func(Incident) bool) []Incident {
	out := make([]Incident, 0, len(s.Incidents))
	for _, inc := range s.Incidents {
		if match(inc) {
			out = append(out, inc)
		}
	}
	slices.SortStableFunc(out, func(a, b Incident) int {
		return cmp.Or(
			b.ReportedAt.Compare(a.ReportedAt),
			cmp.Compare(b.seq, a.seq),
		)
	})
	return out
}

func (s Snapshot) Counts() Counts {
	c := Counts{Total: len(s.Incidents)}
	for _, inc := range s.Incidents {
		switch inc.State {
		case StatePending:
			c.Pending++
		case StateInProgress:
			c.InProgress++
		case StateResolved:
			c.Resolved++
		}
	}
	return c
}

// CountsByCategory has an entry for every known category, zero included.
func (s Snapshot) CountsByCategory() map[Category]int {
	out := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		out[c] = 0
	}
	for _, inc := range s.Incidents {
		out[inc.Category]++
	}
	return out
}

// AverageResponseTime is the mean over incidents with a recorded response
// time. ok is false when there are none.
func (s Snapshot) AverageResponseTime() (avg time.Duration, ok bool) {
	var sum time.Duration
	var n int64
	for _, inc := range s.Incidents {
		if inc.ResponseTime == nil {
			continue
		}
		sum += *inc.ResponseTime
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / time.Duration(n), true
}

// ResourceCounts has an entry for every known kind, zero included.
func (s Snapshot) ResourceCounts() map[Kind]ResourceCounts {
	out := make(map[Kind]ResourceCounts, len(Kinds))
	for _, k := range Kinds {
		out[k] = ResourceCounts{}
	}
	for _, r := range s.Resources {
		rc := out[r.Kind]
		if r.Availability == Available {
			rc.Available++
		} else {
			rc.Busy++
		}
		out[r.Kind] = rc
	}
	return out
}

func (s Snapshot) Statistics() Statistics {
	stats := Statistics{
		Counts:           s.Counts(),
		CountsByCategory: s.CountsByCategory(),
		Resources:        s.ResourceCounts(),
	}
	if avg, ok := s.AverageResponseTime(); ok {
		stats.AverageResponseTime = &avg
	}
	return stats
}
