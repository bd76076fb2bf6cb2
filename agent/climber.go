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
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Climber drives a single climb attempt from a starting floor down to the
// terminal floor, or until blocked. It reads through the Prober, acts
// through the Actuator, and holds no state across attempts.
type Climber struct {
	probe Prober
	act   Actuator
	opts  *Options
	rec   *Recorder
	rng   *rand.Rand
}

func NewClimber(env Environment, opts *Options, rec *Recorder) *Climber {
	return &Climber{
		probe: env,
		act:   env,
		opts:  opts,
		rec:   rec,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClimbResult reports how an attempt ended. Every Reason is a normal
// outcome; errors are reserved for failing environment queries.
type ClimbResult struct {
	AttemptID   string
	StartFloor  int
	FinalFloor  int
	Activations int
	Failures    int // total floor-level failures recorded during the attempt
	Reason      string
}

// outcome of one next-floor wait
type nextFloorState int

const (
	nextReady    nextFloorState = iota // floor below exists with an activatable door
	nextDoorless                       // floor below exists but exposes no door yet
	nextMissing                        // floor below absent even after the grace wait
)

// Climb runs one attempt starting at floor start. The floor index is
// monotonically non-increasing for the whole attempt. consecutiveFailures
// resets to zero on every successful floor transition and the attempt ends
// the moment it reaches the configured threshold.
func (c *Climber) Climb(ctx context.Context, round, start int) (ClimbResult, error) {
	res := ClimbResult{
		AttemptID:  uuid.NewString(),
		StartFloor: start,
		FinalFloor: start,
	}
	c.rec.Emit(Event{Round: round, Attempt: res.AttemptID, Type: EventClimbStart, Floor: start})

	cur := start
	consecutiveFailures := 0
	for {
		if cur < 0 {
			res.Reason = ReasonCompleted
			break
		}

		// Before processing any floor: termination checks. A reappearing
		// start control means the game reset under us and outranks the
		// exhaustion check.
		stopReason, err := c.checkStop(ctx)
		if err != nil {
			return res, err
		}
		if stopReason != "" {
			res.Reason = stopReason
			break
		}

		doors, err := c.awaitDoors(ctx, cur)
		if err != nil {
			return res, err
		}
		if len(doors) == 0 {
			// Door-wait timeout: one floor-level failure, not fatal.
			consecutiveFailures++
			res.Failures++
			c.rec.Emit(Event{Round: round, Attempt: res.AttemptID, Type: EventDoorWaitTimeout, Floor: cur})
			if consecutiveFailures >= c.opts.FailureThreshold {
				res.Reason = ReasonFailureThreshold
				break
			}
			cur--
			continue
		}

		door := doors[c.rng.Intn(len(doors))]
		if err := c.act.ActivateDoor(ctx, door); err != nil {
			return res, err
		}
		res.Activations++
		c.rec.Emit(Event{Round: round, Attempt: res.AttemptID, Type: EventDoorActivated, Floor: cur})
		if err := sleepCtx(ctx, jitter(c.rng, c.opts.SettleDelay, c.opts.SettleJitter)); err != nil {
			return res, err
		}

		if cur == 0 {
			// No floor below the terminal one; the index would drop past it.
			cur--
			res.Reason = ReasonCompleted
			break
		}

		state, err := c.awaitNextFloor(ctx, round, res.AttemptID, cur)
		if err != nil {
			return res, err
		}
		switch state {
		case nextMissing:
			res.Reason = ReasonFloorMissing
		case nextReady:
			consecutiveFailures = 0
			cur--
			c.rec.Emit(Event{Round: round, Attempt: res.AttemptID, Type: EventFloorAdvanced, Floor: cur})
		case nextDoorless:
			// The floor exists but has nothing to select yet; move on and
			// let the door wait on that floor decide whether it ever opens.
			cur--
		}
		if res.Reason != "" {
			break
		}
		if err := sleepCtx(ctx, jitter(c.rng, c.opts.FloorDelay, c.opts.FloorDelayJitter)); err != nil {
			return res, err
		}
	}

	res.FinalFloor = cur
	c.rec.Emit(Event{Round: round, Attempt: res.AttemptID, Type: EventClimbEnd, Floor: -1, Reason: res.Reason})
	return res, nil
}

// checkStop returns a non-empty reason when the attempt must end before
// touching the current floor.
func (c *Climber) checkStop(ctx context.Context) (string, error) {
	start, err := c.probe.FindStartControl(ctx)
	if err != nil {
		return "", err
	}
	if start != nil {
		return ReasonRestartDetected, nil
	}
	terminated, err := c.probe.GameTerminated(ctx)
	if err != nil {
		return "", err
	}
	if terminated {
		return ReasonTerminated, nil
	}
	return "", nil
}

// awaitDoors polls the floor until it exposes at least one activatable door
// or the bounded timeout elapses. A timeout returns an empty set, not an
// error.
func (c *Climber) awaitDoors(ctx context.Context, floor int) ([]Door, error) {
	ticker := time.NewTicker(c.opts.DoorPollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(c.opts.DoorWaitTimeout)
	defer deadline.Stop()

	for {
		doors, err := c.probe.ListActivatableDoors(ctx, floor)
		if err != nil {
			return nil, err
		}
		if len(doors) > 0 {
			return doors, nil
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// awaitNextFloor polls for the floor below prev to exist and expose an
// activatable door. On timeout it applies one extended grace wait and then
// re-checks existence a final time.
func (c *Climber) awaitNextFloor(ctx context.Context, round int, attempt string, prev int) (nextFloorState, error) {
	below := prev - 1
	ticker := time.NewTicker(c.opts.NextFloorPollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(c.opts.NextFloorTimeout)
	defer deadline.Stop()

	for {
		ready, err := c.probe.FloorHasActivatableDoor(ctx, below)
		if err != nil {
			return nextMissing, err
		}
		if ready {
			return nextReady, nil
		}
		select {
		case <-ticker.C:
			continue
		case <-deadline.C:
		case <-ctx.Done():
			return nextMissing, ctx.Err()
		}

		c.rec.Emit(Event{Round: round, Attempt: attempt, Type: EventNextFloorTimeout, Floor: below})
		if err := sleepCtx(ctx, c.opts.GraceWait); err != nil {
			return nextMissing, err
		}
		ready, err = c.probe.FloorHasActivatableDoor(ctx, below)
		if err != nil {
			return nextMissing, err
		}
		if ready {
			return nextReady, nil
		}
		exists, err := c.probe.FloorExists(ctx, below)
		if err != nil {
			return nextMissing, err
		}
		if exists {
			return nextDoorless, nil
		}
		return nextMissing, nil
	}
}

// sleepCtx suspends for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jitter returns base plus a uniform random amount in [0, extra).
func jitter(rng *rand.Rand, base, extra time.Duration) time.Duration {
	if extra <= 0 {
		return base
	}
	return base + time.Duration(rng.Int63n(int64(extra)))
}
