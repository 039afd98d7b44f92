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

package api

import (
	"context"
	"encoding/json"
	"github.com/launchdarkly/eventsource"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http/httptest"
	"testing"
	"time"
)

func newEventBoard(t *testing.T) *board.Board {
	t.Helper()
	b, err := board.New([]board.Resource{{ID: "Ambulancia-01", Kind: board.KindAmbulance}})
	require.NoError(t, err)
	return b
}

func submitMedical(t *testing.T, b *board.Board) board.Incident {
	t.Helper()
	inc, err := b.Submit(board.SubmitRequest{
		Category:    board.CategoryMedical,
		Description: "Persona inconsciente",
		Location:    "Parque de la 93",
	})
	require.NoError(t, err)
	return inc
}

func TestReplayStartsFromLatestSeq(t *testing.T) {
	t.Parallel()
	es := NewEventSourcerer()
	es.LastSeq.Store(41)

	assert.Nil(t, es.Replay("otherchannel", ""))

	var events []eventsource.Event
	for ev := range es.Replay(EventSourceChannel, "") {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.Equal(t, "41", events[0].Id())
	assert.Equal(t, "InitialEvent", events[0].Event())

	var data DispatchEventData
	require.NoError(t, json.Unmarshal([]byte(events[0].Data()), &data))
	assert.True(t, data.InitialEvent)
	assert.Nil(t, data.Change)
}

func TestRunTracksBoard(t *testing.T) {
	t.Parallel()
	b := newEventBoard(t)
	submitMedical(t, b)

	es := NewEventSourcerer()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- es.Run(ctx, b) }()

	require.Eventually(t, func() bool { return es.LastSeq.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	_, err := b.BeginAttention("INC-001")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return es.LastSeq.Load() == 2 }, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestChangesReachSubscribers(t *testing.T) {
	t.Parallel()
	b := newEventBoard(t)
	es := NewEventSourcerer()
	s := httptest.NewServer(es.Server.Handler(EventSourceChannel))
	t.Cleanup(s.Close)
	t.Cleanup(es.Server.Close)

	stream, err := eventsource.Subscribe(s.URL, "")
	require.NoError(t, err)
	t.Cleanup(stream.Close)

	next := func() eventsource.Event {
		t.Helper()
		select {
		case ev := <-stream.Events:
			return ev
		case err := <-stream.Errors:
			t.Fatalf("stream error: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for an event")
		}
		return nil
	}

	assert.Equal(t, "InitialEvent", next().Event())

	inc := submitMedical(t, b)
	changes, unsubscribe := b.Subscribe(1)
	_, err = b.BeginAttention(inc.ID)
	require.NoError(t, err)
	c := <-changes
	unsubscribe()
	es.publish(c)

	ev := next()
	assert.Equal(t, "Incident", ev.Event())
	assert.Equal(t, "2", ev.Id())
	var data DispatchEventData
	require.NoError(t, json.Unmarshal([]byte(ev.Data()), &data))
	require.NotNil(t, data.Change)
	assert.Equal(t, "in_progress", data.Change.Type)
	assert.Equal(t, "INC-001", data.Change.IncidentID)
	assert.Equal(t, uint64(2), es.LastSeq.Load())
}
