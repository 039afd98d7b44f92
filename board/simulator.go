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
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Reference probabilities and interval of the lifecycle simulation.
const (
	DefaultPBegin           = 0.2
	DefaultPResolve         = 0.1
	DefaultSimulateInterval = 5 * time.Second
)

type SimulatorConfig struct {
	// PBegin is the per-tick chance that a pending incident begins attention.
	PBegin float64
	// PResolve is the per-tick chance that an in_progress incident resolves.
	PResolve float64
}

// Ticker delivers ticks to Simulator.Run. time.Ticker is adapted by NewTimeTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func NewTimeTicker(interval time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(interval)}
}

func (tt timeTicker) C() <-chan time.Time {
	return tt.t.C
}

func (tt timeTicker) Stop() {
	tt.t.Stop()
}

// TickResult summarizes one simulation step.
type TickResult struct {
	Begun    []string
	Resolved []string
	// Skipped counts sampled transitions that another caller got to first.
	Skipped int
}

// Simulator is a stimulus source that advances incidents at random, standing
// in for operators. Each incident's outcome on a tick is an independent
// Bernoulli trial, so nothing guarantees an incident is ever resolved.
type Simulator struct {
	board *Board
	cfg   SimulatorConfig

	// mu serializes ticks and guards rng
	mu  sync.Mutex
	rng Float64er
}

func NewSimulator(b *Board, cfg SimulatorConfig, rng Float64er) *Simulator {
	return &Simulator{board: b, cfg: cfg, rng: rng}
}

// Step runs one tick. It samples one snapshot, then visits its pending and
// in_progress incidents in creation order. Every transition it triggers is
// applied on its own, so operator commands can interleave between them.
func (s *Simulator) Step() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res TickResult
	for _, inc := range s.board.Snapshot().Incidents {
		switch inc.State {
		case StatePending:
			if s.rng.Float64() >= s.cfg.PBegin {
				continue
			}
			if _, err := s.board.BeginAttention(inc.ID); err != nil {
				s.skip(&res, inc.ID, err)
				continue
			}
			res.Begun = append(res.Begun, inc.ID)
		case StateInProgress:
			if s.rng.Float64() >= s.cfg.PResolve {
				continue
			}
			if _, err := s.board.Resolve(inc.ID); err != nil {
				s.skip(&res, inc.ID, err)
				continue
			}
			res.Resolved = append(res.Resolved, inc.ID)
		case StateResolved:
		}
	}
	slog.Debug("Simulator tick",
		"begun", res.Begun,
		"resolved", res.Resolved,
		"skipped", res.Skipped,
	)
	return res
}

func (s *Simulator) skip(res *TickResult, id string, err error) {
	if !errors.Is(err, ErrInvalidTransition) {
		slog.Error("Simulator transition failed", "incident", id, "err", err)
	}
	res.Skipped++
}

// Run calls Step on every tick until ctx is done, then stops the ticker.
func (s *Simulator) Run(ctx context.Context, ticker Ticker) error {
	defer ticker.Stop()
	slog.Info("Lifecycle simulator started",
		"pBegin", s.cfg.PBegin,
		"pResolve", s.cfg.PResolve,
	)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Lifecycle simulator stopped")
			return nil
		case <-ticker.C():
			s.Step()
		}
	}
}
