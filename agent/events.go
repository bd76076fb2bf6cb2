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
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Event is one entry in the operator-facing stream. Every state transition,
// timeout and failure is observable here and mirrored to the process log.
type Event struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Round   int       `json:"round"`
	Attempt string    `json:"attempt,omitempty"`
	Type    string    `json:"type"`
	Floor   int       `json:"floor"` // -1 when the event is not floor-scoped
	Outcome string    `json:"outcome,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// String renders the stable, human-readable form used by the process log.
// Sequence number, timestamp and attempt id are deliberately excluded so
// transcripts are comparable across runs.
func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "round=%d %s", e.Round, e.Type)
	if e.Floor >= 0 {
		fmt.Fprintf(&b, " floor=%d", e.Floor)
	}
	if e.Outcome != "" {
		fmt.Fprintf(&b, " outcome=%s", e.Outcome)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " reason=%s", e.Reason)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " detail=%q", e.Detail)
	}
	return b.String()
}

// Sink receives stamped events. Implementations must not block; a slow
// consumer is never allowed to stall the agent.
type Sink interface {
	Emit(Event)
}

// Recorder assigns sequence numbers and timestamps, writes events to the
// process log and fans them out to any attached sinks.
type Recorder struct {
	mu    sync.Mutex
	seq   uint64
	sinks []Sink
	logf  func(format string, args ...any)
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, logf: log.Printf}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.seq++
	e.Seq = r.seq
	e.Time = time.Now()
	sinks := r.sinks
	logf := r.logf
	r.mu.Unlock()

	logf("%s", e.String())
	for _, s := range sinks {
		s.Emit(e)
	}
}
