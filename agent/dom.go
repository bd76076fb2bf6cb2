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
	"fmt"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"
)

// DOMEnv drives the live game page over the Chrome DevTools Protocol. The
// ctx passed to every method must be a chromedp context. All Prober methods
// take a fresh snapshot of the page; marker sets are never cached.
type DOMEnv struct {
	markers    Markers
	startLabel string
}

func NewDOMEnv(markers Markers, startLabel string) *DOMEnv {
	return &DOMEnv{markers: markers, startLabel: startLabel}
}

type domDoor struct {
	Child   int      `json:"child"`
	Classes []string `json:"classes"`
}

type domFloor struct {
	Index int       `json:"index"`
	Doors []domDoor `json:"doors"`
}

// floorSnapshotJS collects every floor container and the class lists of its
// children in one round trip. Filtering happens on the Go side so the
// selection predicate stays a pure, testable function.
const floorSnapshotJS = `
	(() => {
		const out = [];
		document.querySelectorAll('[data-floor]').forEach((el) => {
			const idx = parseInt(el.getAttribute('data-floor'), 10);
			if (Number.isNaN(idx)) return;
			const doors = [];
			Array.from(el.children).forEach((child, i) => {
				doors.push({child: i, classes: Array.from(child.classList)});
			});
			out.push({index: idx, doors: doors});
		});
		return out;
	})()`

func (e *DOMEnv) snapshot(ctx context.Context) ([]domFloor, error) {
	var floors []domFloor
	if err := chromedp.Run(ctx, chromedp.Evaluate(floorSnapshotJS, &floors)); err != nil {
		return nil, fmt.Errorf("floor snapshot: %w", err)
	}
	return floors, nil
}

func (e *DOMEnv) FindStartControl(ctx context.Context) (*StartControl, error) {
	js := fmt.Sprintf(`
		(() => {
			const label = '%s';
			const buttons = document.querySelectorAll('button');
			for (let i = 0; i < buttons.length; i++) {
				const el = buttons[i];
				if (el.disabled) continue;
				if ((el.innerText || '').trim() !== label) continue;
				const style = window.getComputedStyle(el);
				if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') continue;
				const rect = el.getBoundingClientRect();
				if (rect.width === 0 || rect.height === 0) continue;
				return i;
			}
			return -1;
		})()`, escapeJS(e.startLabel))
	var index int
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &index)); err != nil {
		return nil, fmt.Errorf("find start control: %w", err)
	}
	if index < 0 {
		return nil, nil
	}
	return &StartControl{Index: index, Label: e.startLabel}, nil
}

func (e *DOMEnv) ListOpenFloors(ctx context.Context) ([]Floor, error) {
	floors, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var open []Floor
	for _, f := range floors {
		doors := e.activatable(f)
		if len(doors) > 0 {
			open = append(open, Floor{Index: f.Index, Doors: doors})
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Index > open[j].Index })
	return open, nil
}

func (e *DOMEnv) FloorExists(ctx context.Context, floor int) (bool, error) {
	floors, err := e.snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range floors {
		if f.Index == floor {
			return true, nil
		}
	}
	return false, nil
}

func (e *DOMEnv) FloorHasActivatableDoor(ctx context.Context, floor int) (bool, error) {
	doors, err := e.ListActivatableDoors(ctx, floor)
	if err != nil {
		return false, err
	}
	return len(doors) > 0, nil
}

func (e *DOMEnv) ListActivatableDoors(ctx context.Context, floor int) ([]Door, error) {
	floors, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range floors {
		if f.Index == floor {
			return e.activatable(f), nil
		}
	}
	return nil, nil
}

func (e *DOMEnv) GameTerminated(ctx context.Context) (bool, error) {
	floors, err := e.snapshot(ctx)
	if err != nil {
		return false, err
	}
	if len(floors) == 0 {
		return true, nil
	}
	for _, f := range floors {
		if len(e.activatable(f)) > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (e *DOMEnv) activatable(f domFloor) []Door {
	var doors []Door
	for _, d := range f.Doors {
		if e.markers.Activatable(d.Classes) {
			doors = append(doors, Door{FloorIndex: f.Index, Child: d.Child, Markers: d.Classes})
		}
	}
	return doors
}

// ActivateStart dispatches a click on the start control. The request is
// issued and forgotten; the page's reaction is observed via later probes.
func (e *DOMEnv) ActivateStart(ctx context.Context, c StartControl) error {
	js := fmt.Sprintf(`
		(() => {
			const el = document.querySelectorAll('button')[%d];
			if (!el) return false;
			el.dispatchEvent(new MouseEvent('click', {bubbles: true}));
			return true;
		})()`, c.Index)
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("activate start control: %w", err)
	}
	if !ok {
		return fmt.Errorf("start control %d no longer present", c.Index)
	}
	return nil
}

// ActivateDoor dispatches a click on the chosen door. Same contract as
// ActivateStart.
func (e *DOMEnv) ActivateDoor(ctx context.Context, d Door) error {
	js := fmt.Sprintf(`
		(() => {
			const floor = document.querySelector('[data-floor="%d"]');
			if (!floor) return false;
			const el = floor.children[%d];
			if (!el) return false;
			el.dispatchEvent(new MouseEvent('click', {bubbles: true}));
			return true;
		})()`, d.FloorIndex, d.Child)
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("activate door: %w", err)
	}
	if !ok {
		return fmt.Errorf("door %d on floor %d no longer present", d.Child, d.FloorIndex)
	}
	return nil
}

// escapeJS escapes a value for embedding in a single-quoted JS string.
func escapeJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
