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
	"sort"
	"sync"
	"time"
)

// fakeEnv is an in-memory tower. floors maps a floor index to the class
// lists of its doors; mutate it from the onStart/onDoor callbacks to script
// page reactions.
type fakeEnv struct {
	mu      sync.Mutex
	markers Markers
	start   bool
	floors  map[int][][]string

	probeErr error

	startClicks int
	doorClicks  []Door

	onStart func(f *fakeEnv)
	onDoor  func(f *fakeEnv, d Door)
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		markers: DefaultMarkers(),
		floors:  make(map[int][][]string),
	}
}

// openDoor is the class list of a door that passes the selection predicate.
func openDoor() []string {
	return []string{DefaultClickableMarker, DefaultHoverMarker}
}

// shutDoor is present but not activatable.
func shutDoor() []string {
	return []string{DefaultClickableMarker}
}

func (f *fakeEnv) FindStartControl(ctx context.Context) (*StartControl, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	if !f.start {
		return nil, nil
	}
	return &StartControl{Index: 0, Label: DefaultStartLabel}, nil
}

func (f *fakeEnv) ListOpenFloors(ctx context.Context) ([]Floor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	var open []Floor
	for idx := range f.floors {
		doors := f.activatableLocked(idx)
		if len(doors) > 0 {
			open = append(open, Floor{Index: idx, Doors: doors})
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Index > open[j].Index })
	return open, nil
}

func (f *fakeEnv) FloorExists(ctx context.Context, floor int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	_, ok := f.floors[floor]
	return ok, nil
}

func (f *fakeEnv) FloorHasActivatableDoor(ctx context.Context, floor int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return len(f.activatableLocked(floor)) > 0, nil
}

func (f *fakeEnv) ListActivatableDoors(ctx context.Context, floor int) ([]Door, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.activatableLocked(floor), nil
}

func (f *fakeEnv) GameTerminated(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	if len(f.floors) == 0 {
		return true, nil
	}
	for idx := range f.floors {
		if len(f.activatableLocked(idx)) > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeEnv) activatableLocked(floor int) []Door {
	var doors []Door
	for i, classes := range f.floors[floor] {
		if f.markers.Activatable(classes) {
			doors = append(doors, Door{FloorIndex: floor, Child: i, Markers: classes})
		}
	}
	return doors
}

func (f *fakeEnv) ActivateStart(ctx context.Context, c StartControl) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startClicks++
	if f.onStart != nil {
		f.onStart(f)
	}
	return nil
}

func (f *fakeEnv) ActivateDoor(ctx context.Context, d Door) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doorClicks = append(f.doorClicks, d)
	if f.onDoor != nil {
		f.onDoor(f, d)
	}
	return nil
}

// clickedFloors returns the floor index of every door activation in order.
func (f *fakeEnv) clickedFloors() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, d := range f.doorClicks {
		out = append(out, d.FloorIndex)
	}
	return out
}

// testOptions shrinks every delay so a whole session runs in milliseconds.
func testOptions() *Options {
	opts := DefaultOptions()
	opts.DoorPollInterval = time.Millisecond
	opts.DoorWaitTimeout = 20 * time.Millisecond
	opts.NextFloorPollInterval = time.Millisecond
	opts.NextFloorTimeout = 15 * time.Millisecond
	opts.GraceWait = 2 * time.Millisecond
	opts.SettleDelay = 0
	opts.SettleJitter = 0
	opts.StartSettleDelay = 0
	opts.StartSettleJitter = 0
	opts.FloorDelay = 0
	opts.FloorDelayJitter = 0
	opts.RoundDelay = 0
	opts.RoundDelayJitter = 0
	opts.ErrorCooldown = time.Millisecond
	return opts
}

// captureSink records every event it receives, for transcript assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *captureSink) byType(typ string) []Event {
	var out []Event
	for _, e := range c.all() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// quietRecorder keeps test output clean while still exercising the
// recorder's stamping and fan-out.
func quietRecorder(sinks ...Sink) *Recorder {
	rec := NewRecorder(sinks...)
	rec.logf = func(string, ...any) {}
	return rec
}
