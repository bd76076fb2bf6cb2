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
	"math/rand"
	"testing"
)

type scriptStep struct {
	outcome  string
	err      error
	panicMsg string
}

// scriptedRunner plays back a fixed sequence of round results. Once the
// script runs out it keeps reporting no activity so the scheduler winds
// down on its own.
type scriptedRunner struct {
	steps []scriptStep
	calls int
}

func (r *scriptedRunner) RunRound(ctx context.Context, round int) (string, error) {
	i := r.calls
	r.calls++
	if i >= len(r.steps) {
		return OutcomeNoActivity, nil
	}
	step := r.steps[i]
	if step.panicMsg != "" {
		panic(step.panicMsg)
	}
	return step.outcome, step.err
}

func newTestScheduler(runner roundRunner, sinks ...Sink) (*Scheduler, *Session) {
	session := NewSession()
	s := &Scheduler{
		ctrl:    runner,
		opts:    testOptions(),
		rec:     quietRecorder(sinks...),
		session: session,
		rng:     rand.New(rand.NewSource(1)),
	}
	return s, session
}

func repeat(step scriptStep, n int) []scriptStep {
	out := make([]scriptStep, n)
	for i := range out {
		out[i] = step
	}
	return out
}

func TestSchedulerStopsAtNoActivityCeiling(t *testing.T) {
	runner := &scriptedRunner{}
	sink := &captureSink{}
	s, _ := newTestScheduler(runner, sink)

	summary := s.Run(context.Background())
	if summary.StopReason != StopNoActivity {
		t.Errorf("stop reason = %q, want %q", summary.StopReason, StopNoActivity)
	}
	if summary.Rounds != 5 {
		t.Errorf("rounds = %d, want 5", summary.Rounds)
	}
	if got := len(sink.byType(EventAgentStop)); got != 1 {
		t.Errorf("agent stop events = %d, want 1", got)
	}
}

func TestSchedulerStreakResetsOnProgress(t *testing.T) {
	na := scriptStep{outcome: OutcomeNoActivity}
	steps := append(repeat(na, 4), scriptStep{outcome: OutcomeProgressed})
	runner := &scriptedRunner{steps: steps}
	s, _ := newTestScheduler(runner)

	summary := s.Run(context.Background())
	if summary.StopReason != StopNoActivity {
		t.Errorf("stop reason = %q, want %q", summary.StopReason, StopNoActivity)
	}
	// 4 idle rounds, one active round, then 5 more idle rounds to stop.
	if summary.Rounds != 10 {
		t.Errorf("rounds = %d, want 10", summary.Rounds)
	}
}

func TestSchedulerIsolatesFailedRounds(t *testing.T) {
	steps := []scriptStep{
		{err: errors.New("environment probe exploded")},
		{panicMsg: "round logic panicked"},
	}
	runner := &scriptedRunner{steps: steps}
	sink := &captureSink{}
	s, _ := newTestScheduler(runner, sink)

	summary := s.Run(context.Background())
	if summary.StopReason != StopNoActivity {
		t.Errorf("stop reason = %q, want %q", summary.StopReason, StopNoActivity)
	}
	// Two failed rounds plus five idle rounds to reach the ceiling.
	if summary.Rounds != 7 {
		t.Errorf("rounds = %d, want 7", summary.Rounds)
	}
	if got := len(sink.byType(EventRoundError)); got != 2 {
		t.Errorf("round error events = %d, want 2", got)
	}
	// Failed rounds never count toward the no-activity streak.
	if got := len(sink.byType(EventRoundEnd)); got != 5 {
		t.Errorf("round end events = %d, want 5", got)
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{steps: []scriptStep{{err: context.Canceled}}}
	s, _ := newTestScheduler(runner)
	defer cancel()

	summary := s.Run(ctx)
	if summary.StopReason != StopCancelled {
		t.Errorf("stop reason = %q, want %q", summary.StopReason, StopCancelled)
	}
	if summary.Rounds != 1 {
		t.Errorf("rounds = %d, want 1", summary.Rounds)
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	// One full tower game through the real controller, then idle rounds
	// until the agent stops itself.
	env := newFakeEnv()
	env.start = true
	env.onStart = func(f *fakeEnv) {
		f.start = false
		populate(f, 3, nil)
	}
	env.onDoor = func(f *fakeEnv, d Door) {
		// Doors burn out after use so the finished tower reads as idle.
		f.floors[d.FloorIndex] = [][]string{shutDoor()}
	}

	opts := testOptions()
	opts.NoActivityCeiling = 2
	session := NewSession()
	ctrl := NewController(env, opts, quietRecorder(), session)
	s := NewScheduler(ctrl, opts, quietRecorder(), session)

	summary := s.Run(context.Background())
	if summary.StopReason != StopNoActivity {
		t.Errorf("stop reason = %q, want %q", summary.StopReason, StopNoActivity)
	}
	if summary.Games != 1 {
		t.Errorf("games = %d, want 1", summary.Games)
	}
	if got := env.clickedFloors(); len(got) != 4 {
		t.Errorf("door clicks = %v, want 4 floors", got)
	}
}
