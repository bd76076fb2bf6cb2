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
	"log"
	"math/rand"
	"time"
)

// roundRunner is the Controller seam; tests substitute scripted runners.
type roundRunner interface {
	RunRound(ctx context.Context, round int) (string, error)
}

// Scheduler runs the outer round loop. One iteration is one round. A failed
// round is isolated — logged, cooled down, never allowed to terminate the
// process. The loop ends only when the no-activity streak reaches the
// configured ceiling or the context is cancelled.
type Scheduler struct {
	ctrl    roundRunner
	opts    *Options
	rec     *Recorder
	session *Session
	rng     *rand.Rand
}

func NewScheduler(ctrl *Controller, opts *Options, rec *Recorder, session *Session) *Scheduler {
	return &Scheduler{
		ctrl:    ctrl,
		opts:    opts,
		rec:     rec,
		session: session,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// New wires a complete agent: climber, controller and scheduler sharing one
// Session.
func New(env Environment, opts *Options, rec *Recorder) (*Scheduler, *Session) {
	session := NewSession()
	ctrl := NewController(env, opts, rec, session)
	return NewScheduler(ctrl, opts, rec, session), session
}

// Summary is the final report left when the agent stops.
type Summary struct {
	Rounds     int
	Games      int
	StopReason string
}

// Stop reasons for the whole agent.
const (
	StopNoActivity = "no-activity"
	StopCancelled  = "cancelled"
)

// Run loops until the no-activity ceiling is reached or ctx is cancelled,
// and returns the final summary.
func (s *Scheduler) Run(ctx context.Context) Summary {
	for {
		if ctx.Err() != nil {
			return s.summary(StopCancelled)
		}
		round := s.session.BeginRound()
		s.rec.Emit(Event{Round: round, Type: EventRoundStart, Floor: -1})

		outcome, err := s.runRound(ctx, round)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return s.summary(StopCancelled)
		}
		if err != nil {
			log.Printf("Round %d failed: %v", round, err)
			s.rec.Emit(Event{Round: round, Type: EventRoundError, Floor: -1, Detail: err.Error()})
			if sleepCtx(ctx, s.opts.ErrorCooldown) != nil {
				return s.summary(StopCancelled)
			}
			continue
		}

		s.rec.Emit(Event{Round: round, Type: EventRoundEnd, Floor: -1, Outcome: outcome})
		streak := s.session.RecordOutcome(outcome)
		if outcome == OutcomeNoActivity && streak >= s.opts.NoActivityCeiling {
			s.rec.Emit(Event{Round: round, Type: EventAgentStop, Floor: -1, Reason: StopNoActivity})
			return s.summary(StopNoActivity)
		}

		if sleepCtx(ctx, jitter(s.rng, s.opts.RoundDelay, s.opts.RoundDelayJitter)) != nil {
			return s.summary(StopCancelled)
		}
	}
}

// runRound invokes the controller with panic isolation, so one bad round
// surfaces as a round error instead of taking down the process.
func (s *Scheduler) runRound(ctx context.Context, round int) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = ""
			err = fmt.Errorf("round %d: panic: %v", round, r)
		}
	}()
	return s.ctrl.RunRound(ctx, round)
}

func (s *Scheduler) summary(reason string) Summary {
	st := s.session.Stats()
	return Summary{Rounds: st.Rounds, Games: st.Games, StopReason: reason}
}
