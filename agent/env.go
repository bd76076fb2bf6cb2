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

import "context"

// Floor is one stage of the tower. Index 0 is the terminal floor; indices
// increase toward the starting floor. The environment is the source of
// truth: floors are addressed by index and never held by value across
// polls.
type Floor struct {
	Index int
	Doors []Door
}

// Door is one selectable element inside a floor container. Child is the
// element's position among the container's children and is the address used
// to activate it.
type Door struct {
	FloorIndex int
	Child      int
	Markers    []string
}

// StartControl is a visible, enabled control that begins a new game.
// Index is its position among the controls matching the configured label.
type StartControl struct {
	Index int
	Label string
}

// Markers names the three CSS classes making up the door selection
// predicate.
type Markers struct {
	Clickable   string
	Disabled    string
	HoverReveal string
}

// DefaultMarkers returns the default marker class names.
func DefaultMarkers() Markers {
	return Markers{
		Clickable:   DefaultClickableMarker,
		Disabled:    DefaultDisabledMarker,
		HoverReveal: DefaultHoverMarker,
	}
}

// Activatable reports whether a door carrying the given classes is
// selectable: the clickable marker present, the disabled marker absent and
// the hover-reveal marker present. All three conditions are required; a
// door missing any one is not selectable.
func (m Markers) Activatable(classes []string) bool {
	var clickable, disabled, hover bool
	for _, c := range classes {
		switch c {
		case m.Clickable:
			clickable = true
		case m.Disabled:
			disabled = true
		case m.HoverReveal:
			hover = true
		}
	}
	return clickable && !disabled && hover
}

// Prober answers read-only questions about the live game page. It never
// mutates the environment. Implementations must re-query the page on every
// call; door marker sets are never cached.
type Prober interface {
	// FindStartControl returns the start control if one exists, is enabled,
	// is visible (non-zero opacity, not hidden via display/visibility) and
	// occupies a rendered layout box. Absence of any condition is (nil, nil),
	// never an error.
	FindStartControl(ctx context.Context) (*StartControl, error)

	// ListOpenFloors returns the floors exposing at least one activatable
	// door, in descending index order, each carrying its activatable doors.
	ListOpenFloors(ctx context.Context) ([]Floor, error)

	// FloorExists reports whether the floor container is present at all,
	// regardless of its doors.
	FloorExists(ctx context.Context, floor int) (bool, error)

	FloorHasActivatableDoor(ctx context.Context, floor int) (bool, error)

	ListActivatableDoors(ctx context.Context, floor int) ([]Door, error)

	// GameTerminated is true iff no floors exist, or no floor anywhere has
	// an activatable door.
	GameTerminated(ctx context.Context) (bool, error)
}

// Actuator performs the only two mutations the agent is allowed: pressing
// the start control and activating a chosen door. Neither call waits for
// the page's reaction; effects are observed later through the Prober.
type Actuator interface {
	ActivateStart(ctx context.Context, c StartControl) error
	ActivateDoor(ctx context.Context, d Door) error
}

// Environment is the full surface the agent drives.
type Environment interface {
	Prober
	Actuator
}
