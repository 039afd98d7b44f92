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
	dispatchjson "github.com/municipal-ops/dispatch-board/json"
	"log/slog"
	"strconv"
	"sync/atomic"
)

const EventSourceChannel = "dispatchevents"

// changeBuffer is how many board changes may queue up for the event stream
// before the board starts dropping them for it.
const changeBuffer = 256

type DispatchEventData struct {
	Change  *dispatchjson.Change `json:"change,omitzero"`
	Comment string               `json:"comment,omitzero"`

	// Exactly one of Change or InitialEvent must be set, as this indicates
	// the type of the SSE.

	InitialEvent bool `json:"initial_event,omitzero"`
}

type DispatchEvent struct {
	EventID   uint64
	EventData DispatchEventData
}

func (e DispatchEvent) Id() string {
	return strconv.FormatUint(e.EventID, 10)
}

func (e DispatchEvent) Event() string {
	if e.EventData.Change != nil {
		return "Incident"
	}
	if e.EventData.InitialEvent {
		return "InitialEvent"
	}
	return "UnknownEvent"
}

func (e DispatchEvent) Data() string {
	b, err := json.Marshal(e.EventData)
	if err != nil {
		slog.Error("Error converting DispatchEvent to JSON", "EventData", e.EventData, "err", err)
	}
	return string(b)
}

// EventSourcerer republishes the board's change feed as server-sent events.
// Event IDs are the board's change sequence numbers.
type EventSourcerer struct {
	Server  *eventsource.Server
	LastSeq atomic.Uint64
}

func NewEventSourcerer() *EventSourcerer {
	es := &EventSourcerer{
		Server: eventsource.NewServer(),
	}
	es.Server.Register(EventSourceChannel, es)
	es.Server.ReplayAll = true
	return es
}

func (es *EventSourcerer) Replay(channel, id string) chan eventsource.Event {
	if channel != EventSourceChannel {
		return nil
	}
	out := make(chan eventsource.Event, 1)
	out <- DispatchEvent{
		EventID: es.LastSeq.Load(),
		EventData: DispatchEventData{
			InitialEvent: true,
			Comment:      "The most recent SSE ID is provided in this message",
		},
	}
	close(out)
	return out
}

// Run publishes board changes until ctx is done.
func (es *EventSourcerer) Run(ctx context.Context, b *board.Board) error {
	changes, cancel := b.Subscribe(changeBuffer)
	defer cancel()
	es.LastSeq.Store(b.Version())
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			es.publish(c)
		}
	}
}

func (es *EventSourcerer) publish(c board.Change) {
	es.LastSeq.Store(c.Seq)
	es.Server.Publish([]string{EventSourceChannel}, DispatchEvent{
		EventID: c.Seq,
		EventData: DispatchEventData{
			Change: &dispatchjson.Change{
				Seq:        c.Seq,
				Type:       string(c.Type),
				IncidentID: c.IncidentID,
				At:         c.At,
			},
		},
	})
}
