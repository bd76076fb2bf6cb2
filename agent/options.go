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

import "time"

// Options configures the agent. It is constructed once at process start and
// passed by reference; all mutable counters live in Session, never in
// package state.
type Options struct {
	Markers Markers

	// FailureThreshold is the number of consecutive floor-level failures
	// that ends an attempt.
	FailureThreshold int

	// NoActivityCeiling is the number of consecutive no-activity rounds
	// after which the agent stops itself.
	NoActivityCeiling int

	// Door wait: poll for activatable doors on the current floor.
	DoorPollInterval time.Duration
	DoorWaitTimeout  time.Duration

	// Next-floor wait: poll for the floor below to exist and expose a door.
	NextFloorPollInterval time.Duration
	NextFloorTimeout      time.Duration

	// GraceWait is the single extended wait applied after a next-floor
	// timeout, before the final existence re-check.
	GraceWait time.Duration

	// SettleDelay (+ jitter) is applied after each door activation, for the
	// game's own transition animation.
	SettleDelay  time.Duration
	SettleJitter time.Duration

	// StartSettleDelay (+ jitter) is applied after pressing the start
	// control, before reading the open-floor set.
	StartSettleDelay  time.Duration
	StartSettleJitter time.Duration

	// FloorDelay (+ jitter) paces successive floor transitions. This is a
	// pacing knob, not a correctness one.
	FloorDelay       time.Duration
	FloorDelayJitter time.Duration

	// RoundDelay (+ jitter) separates rounds. ErrorCooldown replaces it
	// after a failed round.
	RoundDelay       time.Duration
	RoundDelayJitter time.Duration
	ErrorCooldown    time.Duration
}

// DefaultOptions returns production timings. Tests shrink these.
func DefaultOptions() *Options {
	return &Options{
		Markers:               DefaultMarkers(),
		FailureThreshold:      3,
		NoActivityCeiling:     5,
		DoorPollInterval:      200 * time.Millisecond,
		DoorWaitTimeout:       20 * time.Second,
		NextFloorPollInterval: 300 * time.Millisecond,
		NextFloorTimeout:      15 * time.Second,
		GraceWait:             5 * time.Second,
		SettleDelay:           500 * time.Millisecond,
		SettleJitter:          300 * time.Millisecond,
		StartSettleDelay:      time.Second,
		StartSettleJitter:     500 * time.Millisecond,
		FloorDelay:            300 * time.Millisecond,
		FloorDelayJitter:      200 * time.Millisecond,
		RoundDelay:            2 * time.Second,
		RoundDelayJitter:      1500 * time.Millisecond,
		ErrorCooldown:         5 * time.Second,
	}
}
