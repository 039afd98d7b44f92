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
	"sync"
	"time"
)

type ChangeType string

const (
	ChangeCreated    ChangeType = "created"
	ChangeInProgress ChangeType = "in_progress"
	ChangeResolved   ChangeType = "resolved"
)

// Change announces one fully applied mutation of the board.
type Change struct {
	Seq        uint64
	Type       ChangeType
	IncidentID string
	At         time.Time
}

// changeFeed fans changes out to subscribers without ever blocking the writer.
// A subscriber whose buffer is full misses the change.
type changeFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Change
}

func newChangeFeed() *changeFeed {
	return &changeFeed{subs: make(map[int]chan Change)}
}

func (f *changeFeed) subscribe(buffer int) (<-chan Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if buffer < 1 {
		buffer = 1
	}
	id := f.nextID
	f.nextID++
	ch := make(chan Change, buffer)
	f.subs[id] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (f *changeFeed) publish(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		select {
		case ch <- c:
		default:
			slog.Warn("Dropping board change for slow subscriber", "subscriber", id, "seq", c.Seq)
		}
	}
}
