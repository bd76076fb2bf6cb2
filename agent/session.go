// Copyright (c) 2026 The Towerbot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Session holds the process-wide counters. It is constructed once at
// process start, shared by reference, and reset only by process restart.
// The scheduler writes it; the operator status endpoint reads it.
type Session struct {
	mu               sync.Mutex
	roundCount       int
	gameCount        int
	noActivityStreak int
}

func NewSession() *Session {
	return &Session{}
}

// BeginRound increments the round counter and returns the new round number.
func (s *Session) BeginRound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roundCount++
	return s.roundCount
}

// GameStarted increments the game counter and returns the new count.
func (s *Session) GameStarted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameCount++
	return s.gameCount
}

// RecordOutcome updates the no-activity streak for a completed round and
// returns the updated streak. Failed rounds never reach here; they leave
// the streak untouched.
func (s *Session) RecordOutcome(outcome string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if outcome == OutcomeNoActivity {
		s.noActivityStreak++
	} else {
		s.noActivityStreak = 0
	}
	return s.noActivityStreak
}

// SessionStats is the operator-facing snapshot of the counters.
type SessionStats struct {
	Rounds           int `json:"rounds"`
	Games            int `json:"games"`
	NoActivityStreak int `json:"noActivityStreak"`
}

func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStats{
		Rounds:           s.roundCount,
		Games:            s.gameCount,
		NoActivityStreak: s.noActivityStreak,
	}
}

// errNoFloorsAfterStart marks a round where the start control was pressed
// but no open floor ever appeared. A round-level failure, not a fatal one:
// the scheduler recovers with its elevated cooldown.
var errNoFloorsAfterStart = errors.New("no open floors after start activation")

// Controller decides, once per round, whether to start a new game, resume
// one already in progress, or report no activity. It never raises for
// expected absence states.
type Controller struct {
	probe   Prober
	act     Actuator
	climber *Climber
	opts    *Options
	rec     *Recorder
	session *Session
}

func NewController(env Environment, opts *Options, rec *Recorder, session *Session) *Controller {
	return &Controller{
		probe:   env,
		act:     env,
		climber: NewClimber(env, opts, rec),
		opts:    opts,
		rec:     rec,
		session: session,
	}
}

// RunRound evaluates the decision policy for one round and returns its
// outcome: OutcomeProgressed or OutcomeNoActivity.
func (sc *Controller) RunRound(ctx context.Context, round int) (string, error) {
	start, err := sc.probe.FindStartControl(ctx)
	if err != nil {
		return "", fmt.Errorf("probe start control: %w", err)
	}
	if start != nil {
		if err := sc.act.ActivateStart(ctx, *start); err != nil {
			return "", fmt.Errorf("activate start control: %w", err)
		}
		games := sc.session.GameStarted()
		sc.rec.Emit(Event{Round: round, Type: EventGameStart, Floor: -1, Detail: fmt.Sprintf("game %d", games)})
		if err := sleepCtx(ctx, jitter(sc.climber.rng, sc.opts.StartSettleDelay, sc.opts.StartSettleJitter)); err != nil {
			return "", err
		}
		floors, err := sc.probe.ListOpenFloors(ctx)
		if err != nil {
			return "", fmt.Errorf("list open floors: %w", err)
		}
		if len(floors) == 0 {
			return "", errNoFloorsAfterStart
		}
		if _, err := sc.climber.Climb(ctx, round, floors[0].Index); err != nil {
			return "", err
		}
		return OutcomeProgressed, nil
	}

	floors, err := sc.probe.ListOpenFloors(ctx)
	if err != nil {
		return "", fmt.Errorf("list open floors: %w", err)
	}
	if len(floors) > 0 {
		// Game already in progress; resume from the highest open floor.
		if _, err := sc.climber.Climb(ctx, round, floors[0].Index); err != nil {
			return "", err
		}
		return OutcomeProgressed, nil
	}

	sc.rec.Emit(Event{Round: round, Type: EventNoActivity, Floor: -1})
	return OutcomeNoActivity, nil
}
