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
	"fmt"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"testing"
	"time"
)

func TestSubmitThenGet(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())

	created := submit(t, b, board.CategoryMedical)
	got, err := b.GetIncident(created.ID)
	require.NoError(t, err)

	assert.Equal(t, "INC-001", got.ID)
	assert.Equal(t, int64(1), got.Seq())
	assert.Equal(t, board.StatePending, got.State)
	assert.Equal(t, []string{}, got.AssignedResources)
	assert.Nil(t, got.ResponseTime)
	assert.Equal(t, t0, got.ReportedAt)
	assert.Equal(t, board.SeverityMedium, got.Severity)
	assert.Equal(t, board.CategoryMedical, got.Category)
	assert.Equal(t, "some medical emergency", got.Description)
}

func TestSubmitAssignsSequentialIDs(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	for i := 1; i <= 12; i++ {
		inc := submit(t, b, board.CategoryFire)
		assert.Equal(t, fmt.Sprintf("INC-%03d", i), inc.ID)
	}
}

func TestSubmitCoordinates(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())

	// synthesized at the middle of the area, since the scripted rand returns 0.5
	inc := submit(t, b, board.CategoryAccident)
	assert.True(t, board.DefaultArea.Contains(inc.Coordinates))
	assert.InDelta(t, 4.65, inc.Coordinates.Lat, 1e-9)
	assert.InDelta(t, -74.03, inc.Coordinates.Lng, 1e-9)

	supplied := board.Coordinates{Lat: 10.5, Lng: -70.25}
	inc, err := b.Submit(board.SubmitRequest{
		Category:    board.CategoryAccident,
		Description: "choque",
		Location:    "Autopista Norte",
		Severity:    board.SeverityLow,
		Coordinates: &supplied,
	})
	require.NoError(t, err)
	assert.Equal(t, supplied, inc.Coordinates)
	assert.Equal(t, board.SeverityLow, inc.Severity)
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())

	cases := map[string]struct {
		req    board.SubmitRequest
		fields []string
	}{
		"empty": {
			req:    board.SubmitRequest{},
			fields: []string{"category", "description", "location"},
		},
		"blank text": {
			req: board.SubmitRequest{
				Category:    board.CategoryFire,
				Description: "   ",
				Location:    "\t",
			},
			fields: []string{"description", "location"},
		},
		"unknown category": {
			req: board.SubmitRequest{
				Category:    board.Category("flood"),
				Description: "water everywhere",
				Location:    "Río Bogotá",
			},
			fields: []string{"category"},
		},
		"unknown severity": {
			req: board.SubmitRequest{
				Category:    board.CategoryFire,
				Description: "smoke",
				Location:    "Usaquén",
				Severity:    board.Severity("apocalyptic"),
			},
			fields: []string{"severity"},
		},
		"coordinates out of range": {
			req: board.SubmitRequest{
				Category:    board.CategoryFire,
				Description: "smoke",
				Location:    "Usaquén",
				Coordinates: &board.Coordinates{Lat: 91, Lng: -181},
			},
			fields: []string{"coordinates.lat", "coordinates.lng"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := b.Submit(tc.req)
			require.ErrorIs(t, err, board.ErrValidation)
			var verr *board.ValidationError
			require.ErrorAs(t, err, &verr)
			var fields []string
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tc.fields, fields)
		})
	}
	assert.Empty(t, b.ListIncidents())
}

// This is the single-unit scenario: the second incident is attended without
// a unit, and the unit is reusable once the first incident is resolved.
func TestSingleAmbulanceIsReused(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, []board.Resource{{ID: "Ambulancia-01", Kind: board.KindAmbulance}})

	a := submit(t, b, board.CategoryMedical)
	bb := submit(t, b, board.CategoryMedical)

	a, err := b.BeginAttention(a.ID)
	require.NoError(t, err)
	bb, err = b.BeginAttention(bb.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ambulancia-01"}, a.AssignedResources)
	assert.Empty(t, bb.AssignedResources)
	assert.Equal(t, board.StateInProgress, a.State)
	assert.Equal(t, board.StateInProgress, bb.State)
	assert.Equal(t, board.Busy, b.ListResources(board.KindAmbulance)[0].Availability)

	a, err = b.Resolve(a.ID)
	require.NoError(t, err)
	assert.Equal(t, board.StateResolved, a.State)
	// the assignment record is kept after resolution
	assert.Equal(t, []string{"Ambulancia-01"}, a.AssignedResources)
	assert.Equal(t, board.Available, b.ListResources(board.KindAmbulance)[0].Availability)

	c := submit(t, b, board.CategoryMedical)
	c, err = b.BeginAttention(c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ambulancia-01"}, c.AssignedResources)

	requireInvariants(t, b.Snapshot())
}

func TestPrimaryKindPolicy(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())

	fire, err := b.BeginAttention(submit(t, b, board.CategoryFire).ID)
	require.NoError(t, err)
	accident, err := b.BeginAttention(submit(t, b, board.CategoryAccident).ID)
	require.NoError(t, err)
	medical, err := b.BeginAttention(submit(t, b, board.CategoryMedical).ID)
	require.NoError(t, err)

	// one unit of the primary kind each, and the police are never dispatched
	assert.Equal(t, []string{"Bomberos-01"}, fire.AssignedResources)
	assert.Equal(t, []string{"Ambulancia-01"}, accident.AssignedResources)
	assert.Equal(t, []string{"Ambulancia-02"}, medical.AssignedResources)
	for _, r := range b.ListResources(board.KindPoliceUnit) {
		assert.Equal(t, board.Available, r.Availability)
	}
}

func TestCustomPolicyReservesSeveralKinds(t *testing.T) {
	t.Parallel()
	policy := board.PolicyFunc(func(c board.Category) []board.Kind {
		if c == board.CategoryAccident {
			return []board.Kind{board.KindAmbulance, board.KindPoliceUnit}
		}
		return board.PrimaryKindPolicy{}.KindsFor(c)
	})
	b, _ := newBoard(t, referenceRoster(), board.WithPolicy(policy))

	inc, err := b.BeginAttention(submit(t, b, board.CategoryAccident).ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ambulancia-01", "Policia-01"}, inc.AssignedResources)

	_, err = b.Resolve(inc.ID)
	require.NoError(t, err)
	for _, r := range b.ListResources("") {
		assert.Equal(t, board.Available, r.Availability, r.ID)
	}
}

func TestInvalidTransitions(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	inc := submit(t, b, board.CategoryFire)
	version := b.Version()

	// resolving a pending incident changes nothing
	_, err := b.Resolve(inc.ID)
	require.ErrorIs(t, err, board.ErrInvalidTransition)
	got, err := b.GetIncident(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, board.StatePending, got.State)
	assert.Equal(t, version, b.Version())

	// beginning attention twice reserves only once
	_, err = b.BeginAttention(inc.ID)
	require.NoError(t, err)
	_, err = b.BeginAttention(inc.ID)
	require.ErrorIs(t, err, board.ErrInvalidTransition)
	var terr *board.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, board.StateInProgress, terr.From)
	got, err = b.GetIncident(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bomberos-01"}, got.AssignedResources)
	assert.Equal(t, board.Available, b.ListResources(board.KindFireUnit)[1].Availability)

	// nothing leaves resolved
	_, err = b.Resolve(inc.ID)
	require.NoError(t, err)
	_, err = b.Resolve(inc.ID)
	require.ErrorIs(t, err, board.ErrInvalidTransition)
	_, err = b.BeginAttention(inc.ID)
	require.ErrorIs(t, err, board.ErrInvalidTransition)
	got, err = b.GetIncident(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, board.StateResolved, got.State)

	requireInvariants(t, b.Snapshot())
}

func TestUnknownIncident(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	_, err := b.GetIncident("INC-404")
	require.ErrorIs(t, err, board.ErrNotFound)
	_, err = b.BeginAttention("INC-404")
	require.ErrorIs(t, err, board.ErrNotFound)
	_, err = b.Resolve("INC-404")
	require.ErrorIs(t, err, board.ErrNotFound)
}

func TestResponseTimeIsWholeMinutes(t *testing.T) {
	t.Parallel()
	b, clock := newBoard(t, referenceRoster())
	inc := submit(t, b, board.CategoryFire)

	clock.Advance(7*time.Minute + 42*time.Second)
	inc, err := b.BeginAttention(inc.ID)
	require.NoError(t, err)
	require.NotNil(t, inc.ResponseTime)
	assert.Equal(t, 7*time.Minute, *inc.ResponseTime)

	// it is never touched again
	clock.Advance(time.Hour)
	inc, err = b.Resolve(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Minute, *inc.ResponseTime)
}

func TestReturnedIncidentsAreCopies(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	inc, err := b.BeginAttention(submit(t, b, board.CategoryFire).ID)
	require.NoError(t, err)

	inc.AssignedResources[0] = "tampered"
	*inc.ResponseTime = time.Hour
	inc.State = board.StatePending

	got, err := b.GetIncident(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bomberos-01"}, got.AssignedResources)
	assert.Equal(t, time.Duration(0), *got.ResponseTime)
	assert.Equal(t, board.StateInProgress, got.State)
}

func TestConcurrentBeginAttentionReservesExclusively(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	var ids []string
	for range 20 {
		ids = append(ids, submit(t, b, board.CategoryFire).ID)
	}

	var group errgroup.Group
	for _, id := range ids {
		group.Go(func() error {
			_, err := b.BeginAttention(id)
			return err
		})
	}
	require.NoError(t, group.Wait())

	withUnit := make(map[string]string)
	for _, inc := range b.ListIncidents() {
		assert.Equal(t, board.StateInProgress, inc.State)
		for _, r := range inc.AssignedResources {
			prev, dup := withUnit[r]
			assert.False(t, dup, "%v assigned to %v and %v", r, prev, inc.ID)
			withUnit[r] = inc.ID
		}
	}
	// two fire units exist, so exactly two incidents got one
	assert.Len(t, withUnit, 2)
	requireInvariants(t, b.Snapshot())
}

func TestReadersSeeWholeTransitions(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	for range 30 {
		submit(t, b, board.CategoryMedical)
		submit(t, b, board.CategoryFire)
	}

	var writers errgroup.Group
	for _, inc := range b.ListIncidents() {
		writers.Go(func() error {
			if _, err := b.BeginAttention(inc.ID); err != nil {
				return err
			}
			_, err := b.Resolve(inc.ID)
			return err
		})
	}

	done := make(chan struct{})
	var readers errgroup.Group
	for range 4 {
		readers.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				snap := b.Snapshot()
				// a busy unit is always claimed by an in_progress incident
				claimed := 0
				for _, inc := range snap.Incidents {
					if inc.State == board.StateInProgress {
						claimed += len(inc.AssignedResources)
					}
				}
				busy := 0
				for _, r := range snap.Resources {
					if r.Availability == board.Busy {
						busy++
					}
				}
				if busy != claimed {
					return fmt.Errorf("saw %v busy units but %v claims at version %v", busy, claimed, snap.Version)
				}
			}
		})
	}
	require.NoError(t, writers.Wait())
	close(done)
	require.NoError(t, readers.Wait())
	requireInvariants(t, b.Snapshot())
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	changes, cancel := b.Subscribe(10)

	inc := submit(t, b, board.CategoryFire)
	_, err := b.BeginAttention(inc.ID)
	require.NoError(t, err)
	_, err = b.Resolve(inc.ID)
	require.NoError(t, err)
	// rejected commands publish nothing
	_, err = b.Resolve(inc.ID)
	require.Error(t, err)

	var got []board.Change
	for range 3 {
		got = append(got, <-changes)
	}
	assert.Equal(t, []board.ChangeType{board.ChangeCreated, board.ChangeInProgress, board.ChangeResolved},
		[]board.ChangeType{got[0].Type, got[1].Type, got[2].Type})
	for i, c := range got {
		assert.Equal(t, uint64(i+1), c.Seq)
		assert.Equal(t, inc.ID, c.IncidentID)
	}

	cancel()
	cancel()
	_, open := <-changes
	assert.False(t, open)
}

func TestSlowSubscriberDoesNotBlockWriters(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())
	changes, cancel := b.Subscribe(1)
	defer cancel()

	for range 5 {
		submit(t, b, board.CategoryAccident)
	}
	first := <-changes
	assert.Equal(t, uint64(1), first.Seq)
	select {
	case c := <-changes:
		t.Fatalf("expected the rest to be dropped, got %+v", c)
	default:
	}
	assert.Equal(t, uint64(5), b.Version())
}

func TestNewRejectsBadArea(t *testing.T) {
	t.Parallel()
	_, err := board.New(referenceRoster(), board.WithArea(board.Area{MinLat: 5, MaxLat: 4, MinLng: 0, MaxLng: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestSuppliedCoordinatesOutsideAreaAreKept(t *testing.T) {
	t.Parallel()
	b, _ := newBoard(t, referenceRoster())

	medellin := board.Coordinates{Lat: 6.2442, Lng: -75.5812}
	require.False(t, board.DefaultArea.Contains(medellin))
	inc, err := b.Submit(board.SubmitRequest{
		Category:    board.CategoryAccident,
		Description: "Choque en la autopista",
		Location:    "Autopista Sur",
		Coordinates: &medellin,
	})
	require.NoError(t, err)
	assert.Equal(t, medellin, inc.Coordinates)

	got, err := b.GetIncident(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, medellin, got.Coordinates)
}
