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

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/lpernett/godotenv"

	"towerbot/agent"
)

var (
	chromeURL         = flag.String("chrome-url", "", "DevTools websocket URL of a running Chrome (e.g. ws://localhost:9222). Empty launches a local headless instance.")
	pageURL           = flag.String("page-url", "", "URL of the game page (REQUIRED)")
	operatorAddr      = flag.String("operator-addr", "", "Address for the operator event stream and status endpoint. Empty disables it.")
	operatorSecret    = flag.String("operator-secret", "", "Shared secret for operator bearer tokens. Empty disables auth.")
	startLabel        = flag.String("start-label", agent.DefaultStartLabel, "Label of the start/resume control")
	clickableMarker   = flag.String("clickable-marker", agent.DefaultClickableMarker, "CSS class marking a clickable door")
	disabledMarker    = flag.String("disabled-marker", agent.DefaultDisabledMarker, "CSS class marking a disabled door")
	hoverMarker       = flag.String("hover-marker", agent.DefaultHoverMarker, "CSS class marking a hover-revealed door")
	failureThreshold  = flag.Int("failure-threshold", 3, "Consecutive floor failures that end a climb attempt")
	noActivityCeiling = flag.Int("no-activity-ceiling", 5, "Consecutive no-activity rounds before the agent stops itself")
	doorPollInterval  = flag.Duration("door-poll-interval", 200*time.Millisecond, "Poll interval while waiting for doors on the current floor")
	doorWaitTimeout   = flag.Duration("door-wait-timeout", 20*time.Second, "How long to wait for a door before counting a floor failure")
	nextFloorPoll     = flag.Duration("next-floor-poll-interval", 300*time.Millisecond, "Poll interval while waiting for the next floor")
	nextFloorTimeout  = flag.Duration("next-floor-timeout", 15*time.Second, "How long to wait for the next floor before the grace wait")
	graceWait         = flag.Duration("grace-wait", 5*time.Second, "Extended wait after a next-floor timeout")
	settleDelay       = flag.Duration("settle-delay", 500*time.Millisecond, "Delay after each door activation")
	startSettleDelay  = flag.Duration("start-settle-delay", time.Second, "Delay after pressing the start control")
	roundDelay        = flag.Duration("round-delay", 2*time.Second, "Base delay between rounds")
	errorCooldown     = flag.Duration("error-cooldown", 5*time.Second, "Delay after a failed round")
)

// main connects to the game page and runs the round loop until the agent
// stops itself or a signal arrives.
func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}
	flag.Parse()
	if *pageURL == "" {
		*pageURL = os.Getenv("TOWERBOT_PAGE_URL")
	}
	if *chromeURL == "" {
		*chromeURL = os.Getenv("TOWERBOT_CHROME_URL")
	}
	if *operatorSecret == "" {
		*operatorSecret = os.Getenv("TOWERBOT_OPERATOR_SECRET")
	}
	if *pageURL == "" {
		log.Fatal("--page-url (or TOWERBOT_PAGE_URL) is required")
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if *chromeURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), *chromeURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	}
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("Navigating to %s", *pageURL)
	if err := chromedp.Run(ctx,
		chromedp.Navigate(*pageURL),
		chromedp.WaitReady("body"),
	); err != nil {
		log.Fatalf("Failed to open game page: %v", err)
	}

	opts := agent.DefaultOptions()
	opts.Markers = agent.Markers{
		Clickable:   *clickableMarker,
		Disabled:    *disabledMarker,
		HoverReveal: *hoverMarker,
	}
	opts.FailureThreshold = *failureThreshold
	opts.NoActivityCeiling = *noActivityCeiling
	opts.DoorPollInterval = *doorPollInterval
	opts.DoorWaitTimeout = *doorWaitTimeout
	opts.NextFloorPollInterval = *nextFloorPoll
	opts.NextFloorTimeout = *nextFloorTimeout
	opts.GraceWait = *graceWait
	opts.SettleDelay = *settleDelay
	opts.StartSettleDelay = *startSettleDelay
	opts.RoundDelay = *roundDelay
	opts.ErrorCooldown = *errorCooldown

	env := agent.NewDOMEnv(opts.Markers, *startLabel)

	var sinks []agent.Sink
	var hub *agent.Hub
	if *operatorAddr != "" {
		hub = agent.NewHub()
		sinks = append(sinks, hub)
	}
	rec := agent.NewRecorder(sinks...)
	sched, session := agent.New(env, opts, rec)

	if hub != nil {
		op, err := agent.StartOperator(*operatorAddr, *operatorSecret, hub, session)
		if err != nil {
			log.Fatalf("Failed to start operator server: %v", err)
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			op.Shutdown(sctx)
		}()
	}

	summary := sched.Run(ctx)
	log.Printf("Agent stopped (%s): %d rounds, %d games", summary.StopReason, summary.Rounds, summary.Games)
}
