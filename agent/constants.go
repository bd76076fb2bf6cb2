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

// Default door marker classes and start-control label. The live game's
// markup owns these names; override them via Options and NewDOMEnv when the
// page uses different ones.
const (
	DefaultClickableMarker = "clickable"
	DefaultDisabledMarker  = "disabled"
	DefaultHoverMarker     = "hover-reveal"
	DefaultStartLabel      = "Start"
)

// Event types
const (
	EventRoundStart       = "ROUND_START"
	EventRoundEnd         = "ROUND_END"
	EventRoundError       = "ROUND_ERROR"
	EventGameStart        = "GAME_START"
	EventClimbStart       = "CLIMB_START"
	EventDoorActivated    = "DOOR_ACTIVATED"
	EventFloorAdvanced    = "FLOOR_ADVANCED"
	EventDoorWaitTimeout  = "DOOR_WAIT_TIMEOUT"
	EventNextFloorTimeout = "NEXT_FLOOR_TIMEOUT"
	EventClimbEnd         = "CLIMB_END"
	EventNoActivity       = "NO_ACTIVITY"
	EventAgentStop        = "AGENT_STOP"
)

// Attempt end reasons. All of these are normal, reportable outcomes of a
// climb, not errors.
const (
	ReasonCompleted        = "completed"
	ReasonTerminated       = "terminated"
	ReasonRestartDetected  = "restart-detected"
	ReasonFailureThreshold = "failure-threshold"
	ReasonFloorMissing     = "floor-missing"
)

// Round outcomes
const (
	OutcomeProgressed = "progressed"
	OutcomeNoActivity = "no-activity"
)
