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

package board_test

import (
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2025, time.March, 14, 14, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: t0}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedRand replays vals in a loop.
type scriptedRand struct {
	vals []float64
	i    int
}

func (s *scriptedRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func referenceRoster() []board.Resource {
	return []board.Resource{
		{ID: "Ambulancia-01", Kind: board.KindAmbulance},
		{ID: "Ambulancia-02", Kind: board.KindAmbulance},
		{ID: "Ambulancia-03", Kind: board.KindAmbulance},
		{ID: "Bomberos-01", Kind: board.KindFireUnit},
		{ID: "Bomberos-02", Kind: board.KindFireUnit},
		{ID: "Policia-01", Kind: board.KindPoliceUnit},
		{ID: "Policia-02", Kind: board.KindPoliceUnit},
	}
}

func newBoard(t *testing.T, roster []board.Resource, opts ...board.Option) (*board.Board, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]board.Option{
		board.WithClock(clock.Now),
		board.WithRand(&scriptedRand{vals: []float64{0.5}}),
	}, opts...)
	b, err := board.New(roster, opts...)
	require.NoError(t, err)
	return b, clock
}

func submit(t *testing.T, b *board.Board, c board.Category) board.Incident {
	t.Helper()
	inc, err := b.Submit(board.SubmitRequest{
		Category:    c,
		Description: "some " + string(c) + " emergency",
		Location:    "Calle 45 #23-67",
	})
	require.NoError(t, err)
	return inc
}

// requireInvariants checks the per-incident invariants and that every busy
// unit is claimed by exactly one in_progress incident.
func requireInvariants(t *testing.T, snap board.Snapshot) {
	t.Helper()
	claims := make(map[string]int)
	for _, inc := range snap.Incidents {
		require.Equal(t, inc.State != board.StatePending, inc.ResponseTime != nil, inc.ID)
		if inc.State == board.StatePending {
			require.Empty(t, inc.AssignedResources, inc.ID)
		}
		if inc.State == board.StateInProgress {
			for _, id := range inc.AssignedResources {
				claims[id]++
			}
		}
	}
	for _, r := range snap.Resources {
		if r.Availability == board.Busy {
			require.Equal(t, 1, claims[r.ID], r.ID)
		} else {
			require.Zero(t, claims[r.ID], r.ID)
		}
	}
	c := snap.Counts()
	require.Equal(t, c.Total, c.Pending+c.InProgress+c.Resolved)
}

// requireAssignmentsKept checks that no incident lost assigned units since
// before was recorded, and returns the counts for the next check.
func requireAssignmentsKept(t *testing.T, before map[string]int, snap board.Snapshot) map[string]int {
	t.Helper()
	after := make(map[string]int, len(snap.Incidents))
	for _, inc := range snap.Incidents {
		after[inc.ID] = len(inc.AssignedResources)
		require.GreaterOrEqual(t, after[inc.ID], before[inc.ID], inc.ID)
	}
	for id := range before {
		require.Contains(t, after, id)
	}
	return after
}
