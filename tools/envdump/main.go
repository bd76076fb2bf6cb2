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

// envdump prints what the agent would see on a game page: the start
// control, the open floors with their door markers, and the terminated
// check. Useful for calibrating marker flags against a live page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"towerbot/agent"
)

var (
	chromeURL       = flag.String("chrome-url", "", "DevTools websocket URL of a running Chrome. Empty launches a local headless instance.")
	pageURL         = flag.String("page-url", "", "URL of the game page (REQUIRED)")
	startLabel      = flag.String("start-label", agent.DefaultStartLabel, "Label of the start/resume control")
	clickableMarker = flag.String("clickable-marker", agent.DefaultClickableMarker, "CSS class marking a clickable door")
	disabledMarker  = flag.String("disabled-marker", agent.DefaultDisabledMarker, "CSS class marking a disabled door")
	hoverMarker     = flag.String("hover-marker", agent.DefaultHoverMarker, "CSS class marking a hover-revealed door")
)

func main() {
	flag.Parse()
	if *pageURL == "" {
		log.Fatal("--page-url is required")
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if *chromeURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), *chromeURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	}
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(*pageURL),
		chromedp.WaitReady("body"),
	); err != nil {
		log.Fatalf("Failed to open game page: %v", err)
	}

	markers := agent.Markers{
		Clickable:   *clickableMarker,
		Disabled:    *disabledMarker,
		HoverReveal: *hoverMarker,
	}
	env := agent.NewDOMEnv(markers, *startLabel)

	start, err := env.FindStartControl(ctx)
	if err != nil {
		log.Fatalf("Probe start control: %v", err)
	}
	if start != nil {
		fmt.Printf("start control: button[%d] %q\n", start.Index, start.Label)
	} else {
		fmt.Println("start control: absent")
	}

	floors, err := env.ListOpenFloors(ctx)
	if err != nil {
		log.Fatalf("List open floors: %v", err)
	}
	fmt.Printf("open floors: %d\n", len(floors))
	for _, f := range floors {
		for _, d := range f.Doors {
			fmt.Printf("  floor %d door %d [%s]\n", f.Index, d.Child, strings.Join(d.Markers, " "))
		}
	}

	terminated, err := env.GameTerminated(ctx)
	if err != nil {
		log.Fatalf("Terminated check: %v", err)
	}
	fmt.Printf("terminated: %v\n", terminated)
}
